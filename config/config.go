package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tourbook/currency"
	"tourbook/models"
)

// EnvPrefix is prepended to every environment override, e.g. TOUR_SERVER_ADDR.
const EnvPrefix = "TOUR_"

const DefaultPath = "config/config.yaml"

type ServerConfig struct {
	Addr           string   `yaml:"addr" env:"ADDR"`
	LoginPath      string   `yaml:"login_path" env:"LOGIN_PATH"`
	UploadDir      string   `yaml:"upload_dir" env:"UPLOAD_DIR"`
	AllowOrigin    string   `yaml:"allow_origin" env:"ALLOW_ORIGIN"`
	TrustedProxies []string `yaml:"trusted_proxies" env:"TRUSTED_PROXIES" envSeparator:","`
	SecureCookies  bool     `yaml:"secure_cookies" env:"SECURE_COOKIES"`
}

type DatabaseConfig struct {
	Username    string `yaml:"username" env:"USERNAME"`
	Password    string `yaml:"password" env:"PASSWORD"`
	Host        string `yaml:"host" env:"HOST"`
	Port        string `yaml:"port" env:"PORT"`
	Database    string `yaml:"database" env:"NAME"`
	AutoMigrate bool   `yaml:"auto_migrate" env:"AUTO_MIGRATE"`
	LogQueries  bool   `yaml:"log_queries" env:"LOG_QUERIES"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.Username,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"ADDR"`
	Password string `yaml:"password" env:"PASSWORD"`
	Database int    `yaml:"database" env:"DB"`
}

type JWTConfig struct {
	PrivateKeyPath string        `yaml:"private_key" env:"PRIVATE_KEY"`
	PublicKeyPath  string        `yaml:"public_key" env:"PUBLIC_KEY"`
	TTL            time.Duration `yaml:"ttl" env:"TTL"`
}

type StorageConfig struct {
	Driver string        `yaml:"driver" env:"DRIVER"`
	Dir    string        `yaml:"dir" env:"DIR"`
	Prefix string        `yaml:"prefix" env:"PREFIX"`
	TTL    time.Duration `yaml:"ttl" env:"TTL"`
}

type DisplayConfig struct {
	DefaultLang string                      `yaml:"default_lang" env:"DEFAULT_LANG"`
	Languages   map[string]currency.Display `yaml:"languages"`
	Fallback    *currency.Display           `yaml:"fallback"`
	Rules       map[string]currency.Rules   `yaml:"rules"`
}

// Table applies the configured overrides to the default language table.
func (c DisplayConfig) Table() currency.DisplayTable {
	table := currency.DefaultDisplayTable()
	for lang, d := range c.Languages {
		table = table.With(lang, d)
	}
	if c.Fallback != nil {
		table = table.WithFallback(*c.Fallback)
	}
	return table
}

func (c DisplayConfig) Formatter() *currency.Formatter {
	return currency.NewFormatter(c.Rules)
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

type Config struct {
	Env      string         `yaml:"env" env:"ENV"`
	Server   ServerConfig   `yaml:"server" envPrefix:"SERVER_"`
	Database DatabaseConfig `yaml:"database" envPrefix:"DATABASE_"`
	Redis    RedisConfig    `yaml:"redis" envPrefix:"REDIS_"`
	JWT      JWTConfig      `yaml:"jwt" envPrefix:"JWT_"`
	Storage  StorageConfig  `yaml:"storage" envPrefix:"STORAGE_"`
	Display  DisplayConfig  `yaml:"display" envPrefix:"DISPLAY_"`
	Log      LogConfig      `yaml:"log" envPrefix:"LOG_"`
}

func Default() Config {
	return Config{
		Env: "development",
		Server: ServerConfig{
			Addr:      ":3000",
			LoginPath: "/login",
			UploadDir: "./uploads",
		},
		Database: DatabaseConfig{
			Host:        "127.0.0.1",
			Port:        "3306",
			Database:    "tourbook",
			AutoMigrate: true,
		},
		Redis: RedisConfig{Addr: "127.0.0.1:6379"},
		JWT: JWTConfig{
			PrivateKeyPath: "jwt/private_key.pem",
			PublicKeyPath:  "jwt/public_key.pem",
			TTL:            24 * time.Hour,
		},
		Storage: StorageConfig{
			Driver: "redis",
			Dir:    "./data/carts",
			Prefix: "tourbook:",
			TTL:    30 * 24 * time.Hour,
		},
		Display: DisplayConfig{DefaultLang: "id"},
		Log:     LogConfig{Level: "info", Format: "json"},
	}
}

// Load reads filename over the defaults, then applies TOUR_* environment
// overrides. A missing file is not an error.
func Load(filename string) (Config, error) {
	config := Default()

	file, err := os.Open(filename)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return config, err
	default:
		defer file.Close()
		decoder := yaml.NewDecoder(file)
		if err := decoder.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
			return config, fmt.Errorf("decode %s: %w", filename, err)
		}
	}

	if err := ParseEnv(&config); err != nil {
		return config, err
	}
	return config, nil
}

func ParseEnv(target any) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func SetupMySQLConnection(cfg DatabaseConfig) (*gorm.DB, error) {
	level := logger.Warn
	if cfg.LogQueries {
		level = logger.Info
	}

	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		if err := Migrate(db); err != nil {
			return nil, err
		}
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(models.All()...)
}

func SetupRedisConnection(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.Database,
	})

	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = redisClient.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", cfg.Addr, err)
	}
	return redisClient, nil
}
