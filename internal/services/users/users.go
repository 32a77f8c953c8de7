// Package users сервис системных пользователей, хранящихся в документе:
// вход, управление учетными записями и ролями.
package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/magabrotheeeer/household-ledger/internal/lib/password"
	"github.com/magabrotheeeer/household-ledger/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrLastAdmin          = errors.New("cannot remove the last admin")
)

// Store источник и приемник снимка пользователя.
type Store interface {
	Current(identity string) (models.Snapshot, error)
	Mutate(ctx context.Context, identity string, parts []models.Slice, fn func(*models.Snapshot) error) (models.Snapshot, error)
}

// NewUser данные для создания учетной записи.
type NewUser struct {
	Username string      `validate:"required,max=64"`
	Name     string      `validate:"max=128"`
	Password string      `validate:"required,min=4"`
	Role     models.Role `validate:"required,oneof=admin read-only"`
}

// Service операции над системными пользователями.
type Service struct {
	store    Store
	validate *validator.Validate
	log      *slog.Logger
}

// New создает Service.
func New(store Store, log *slog.Logger) *Service {
	return &Service{store: store, validate: validator.New(), log: log}
}

// List учетные записи без паролей.
func (s *Service) List(identity string) ([]models.SystemUser, error) {
	snap, err := s.store.Current(identity)
	if err != nil {
		return nil, fmt.Errorf("users.List: %w", err)
	}
	out := make([]models.SystemUser, 0, len(snap.Users))
	for _, u := range snap.Users {
		u.PasswordHash, u.Password = "", ""
		out = append(out, u)
	}
	return out, nil
}

// Authenticate проверяет имя (без учета регистра) и пароль.
func (s *Service) Authenticate(identity, username, pass string) (models.SystemUser, error) {
	const op = "users.Authenticate"
	snap, err := s.store.Current(identity)
	if err != nil {
		return models.SystemUser{}, fmt.Errorf("%s: %w", op, err)
	}
	i := find(snap.Users, username)
	if i < 0 {
		return models.SystemUser{}, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	u := snap.Users[i]
	if !matches(u, pass) {
		s.log.Warn("failed login", slog.String("username", username))
		return models.SystemUser{}, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	u.PasswordHash, u.Password = "", ""
	return u, nil
}

// AddUser создает учетную запись.
func (s *Service) AddUser(ctx context.Context, identity string, in NewUser) error {
	const op = "users.AddUser"
	in.Username = strings.TrimSpace(in.Username)
	in.Role = models.Role(strings.ToLower(string(in.Role)))
	if err := s.validate.Struct(in); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	hash, err := password.GetHash(in.Password)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err = s.store.Mutate(ctx, identity, []models.Slice{models.SliceUsers}, func(snap *models.Snapshot) error {
		if find(snap.Users, in.Username) >= 0 {
			return ErrUserExists
		}
		snap.Users = append(snap.Users, models.SystemUser{
			Username:     in.Username,
			Name:         in.Name,
			PasswordHash: hash,
			Role:         in.Role,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user added", slog.String("username", in.Username), slog.String("role", string(in.Role)))
	return nil
}

// RemoveUser удаляет учетную запись. Последнего администратора удалить нельзя.
func (s *Service) RemoveUser(ctx context.Context, identity, username string) error {
	const op = "users.RemoveUser"
	_, err := s.store.Mutate(ctx, identity, []models.Slice{models.SliceUsers}, func(snap *models.Snapshot) error {
		i := find(snap.Users, username)
		if i < 0 {
			return ErrUserNotFound
		}
		if snap.Users[i].Role == models.RoleAdmin && admins(snap.Users) == 1 {
			return ErrLastAdmin
		}
		snap.Users = slices.Delete(snap.Users, i, i+1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SetRole меняет роль. Последний администратор роль не теряет.
func (s *Service) SetRole(ctx context.Context, identity, username string, role models.Role) error {
	const op = "users.SetRole"
	role = models.NormalizeRole(role)
	_, err := s.store.Mutate(ctx, identity, []models.Slice{models.SliceUsers}, func(snap *models.Snapshot) error {
		i := find(snap.Users, username)
		if i < 0 {
			return ErrUserNotFound
		}
		if role != models.RoleAdmin && snap.Users[i].Role == models.RoleAdmin && admins(snap.Users) == 1 {
			return ErrLastAdmin
		}
		snap.Users[i].Role = role
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ChangePassword задает новый пароль.
func (s *Service) ChangePassword(ctx context.Context, identity, username, newPassword string) error {
	const op = "users.ChangePassword"
	if err := s.validate.Var(newPassword, "required,min=4"); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	hash, err := password.GetHash(newPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	_, err = s.store.Mutate(ctx, identity, []models.Slice{models.SliceUsers}, func(snap *models.Snapshot) error {
		i := find(snap.Users, username)
		if i < 0 {
			return ErrUserNotFound
		}
		snap.Users[i].PasswordHash = hash
		snap.Users[i].Password = ""
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UpgradeLegacyPasswords заменяет пароли открытым текстом bcrypt-хэшами и
// возвращает число обновленных записей. Без таких записей на сервер ничего
// не отправляется.
func (s *Service) UpgradeLegacyPasswords(ctx context.Context, identity string) (int, error) {
	const op = "users.UpgradeLegacyPasswords"
	snap, err := s.store.Current(identity)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if !slices.ContainsFunc(snap.Users, needsUpgrade) {
		return 0, nil
	}

	n := 0
	_, err = s.store.Mutate(ctx, identity, []models.Slice{models.SliceUsers}, func(snap *models.Snapshot) error {
		for i := range snap.Users {
			u := &snap.Users[i]
			if !needsUpgrade(*u) {
				continue
			}
			plain := u.Password
			if plain == "" {
				plain = u.PasswordHash
			}
			hash, err := password.GetHash(plain)
			if err != nil {
				return err
			}
			u.PasswordHash, u.Password = hash, ""
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("legacy passwords upgraded", slog.Int("count", n))
	return n, nil
}

func needsUpgrade(u models.SystemUser) bool {
	if u.Password != "" {
		return true
	}
	return u.PasswordHash != "" && !password.IsHash(u.PasswordHash)
}

func matches(u models.SystemUser, pass string) bool {
	if u.PasswordHash != "" && password.IsHash(u.PasswordHash) {
		return password.CompareHash(u.PasswordHash, pass) == nil
	}
	if u.Password != "" {
		return u.Password == pass
	}
	return u.PasswordHash != "" && u.PasswordHash == pass
}

func find(users []models.SystemUser, username string) int {
	return slices.IndexFunc(users, func(u models.SystemUser) bool {
		return strings.EqualFold(u.Username, strings.TrimSpace(username))
	})
}

func admins(users []models.SystemUser) int {
	n := 0
	for _, u := range users {
		if u.Role == models.RoleAdmin {
			n++
		}
	}
	return n
}
