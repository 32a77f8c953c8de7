// Package password хеширование паролей системных пользователей через bcrypt.
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// GetHash возвращает bcrypt-хэш пароля.
func GetHash(password string) (string, error) {
	const op = "password.GetHash"
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashed), nil
}

// CompareHash возвращает nil, если пароль соответствует хэшу.
func CompareHash(hash, password string) error {
	const op = "password.CompareHash"
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// IsHash сообщает, похожа ли строка на bcrypt-хэш. Старые документы хранили
// пароли открытым текстом, такие значения нужно перехешировать.
func IsHash(s string) bool {
	_, err := bcrypt.Cost([]byte(s))
	return err == nil
}
