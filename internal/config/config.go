// Package config структуры и загрузка настроек сервера документов и клиента.
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config настройки сервера документов.
type Config struct {
	Env                     string `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"file://migrations"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	RabbitMQ                `yaml:"rabbitmq"`
	ObjectStorage           `yaml:"object_storage"`
	RateLimit               `yaml:"rate_limit"`
}

// HTTPServer настройки HTTP-сервера.
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
	// MaxBodyBytes ограничение тела запроса; вложения передаются в base64.
	MaxBodyBytes int64 `yaml:"max_body_bytes" env-default:"20971520"`
}

// RedisConnection настройки подключения к redis.
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env-default:"3s"`
	// DocumentTTL время жизни документа в кеше.
	DocumentTTL time.Duration `yaml:"document_ttl" env-default:"1h"`
}

// RabbitMQ настройки публикации событий об изменении документов.
type RabbitMQ struct {
	URL            string `yaml:"url" env:"RABBITMQ_URL"`
	Exchange       string `yaml:"exchange" env-default:"documents"`
	ConnectRetries int    `yaml:"connect_retries" env-default:"5"`
}

// ObjectStorage настройки S3-совместимого хранилища вложений.
type ObjectStorage struct {
	Endpoint  string `yaml:"endpoint" env:"S3_ENDPOINT"`
	Region    string `yaml:"region" env:"S3_REGION" env-default:"us-east-1"`
	Bucket    string `yaml:"bucket" env:"S3_BUCKET" env-default:"household-attachments"`
	AccessKey string `yaml:"access_key" env:"S3_ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"S3_SECRET_KEY"`
	// PublicURL префикс ссылок на загруженные файлы; по умолчанию endpoint/bucket.
	PublicURL string `yaml:"public_url" env:"S3_PUBLIC_URL"`
}

// RateLimit ограничение частоты запросов.
type RateLimit struct {
	RPS   float64 `yaml:"rps" env-default:"20"`
	Burst int     `yaml:"burst" env-default:"40"`
}

// MustLoad читает конфиг из файла CONFIG_PATH. Переменные окружения
// переопределяют значения из файла.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"  DocumentTTL: %s\n"+
			"RabbitMQ:\n"+
			"  Exchange: %s\n"+
			"ObjectStorage:\n"+
			"  Endpoint: %s\n"+
			"  Bucket: %s\n"+
			"RateLimit:\n"+
			"  RPS: %.1f\n"+
			"  Burst: %d\n",
		c.Env,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.AddressRedis,
		c.DB,
		c.DocumentTTL,
		c.Exchange,
		c.Endpoint,
		c.Bucket,
		c.RPS,
		c.Burst,
	)
}
