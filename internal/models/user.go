package models

import "strings"

// Role роль системного пользователя.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleReadOnly Role = "read-only"
)

// SystemUser учётная запись, хранящаяся в документе пользователя.
type SystemUser struct {
	Username     string `json:"username" validate:"required"`
	Name         string `json:"name"`
	PasswordHash string `json:"passwordHash,omitempty"`
	// Password пароль открытым текстом из старых документов. Только для чтения:
	// при первой загрузке он заменяется bcrypt-хэшем.
	Password string `json:"password,omitempty"`
	Role     Role   `json:"role"`
}

// NormalizeRole приводит роль к одному из двух допустимых значений.
// Старое значение "normal" и всё неизвестное трактуется как read-only.
func NormalizeRole(r Role) Role {
	if strings.EqualFold(string(r), string(RoleAdmin)) {
		return RoleAdmin
	}
	return RoleReadOnly
}
