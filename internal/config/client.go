package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Client настройки клиента household.
type Client struct {
	Env string `yaml:"env" env:"HOUSEHOLD_ENV" env-default:"local"`
	// ServerURL адрес сервера документов.
	ServerURL string `yaml:"server_url" env:"HOUSEHOLD_SERVER_URL" env-default:"http://localhost:8080"`
	// Timeout время ожидания ответа сервера.
	Timeout time.Duration `yaml:"timeout" env:"HOUSEHOLD_TIMEOUT" env-default:"15s"`
	// MirrorPath файл локального зеркала SQLite.
	MirrorPath string `yaml:"mirror_path" env:"HOUSEHOLD_MIRROR_PATH"`
	// User пользователь по умолчанию, если не передан флагом.
	User string `yaml:"user" env:"HOUSEHOLD_USER"`
}

// LoadClient читает настройки клиента из path, если он задан, иначе только
// из окружения.
func LoadClient(path string) (*Client, error) {
	const op = "config.LoadClient"
	var cfg Client

	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if cfg.MirrorPath == "" {
		cfg.MirrorPath = defaultMirrorPath()
	}
	return &cfg, nil
}

func defaultMirrorPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "household.db"
	}
	return filepath.Join(dir, "household", "mirror.db")
}
