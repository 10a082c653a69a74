package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPort        = 3000
	defaultDatabaseURL = "postgres://localhost:5432/quickride?sslmode=disable"
	defaultPublicDir   = "public"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string
	AutoMigrate bool

	// Server
	Port            int
	BindMaxRetries  int
	BindRetryDelay  time.Duration
	ShutdownTimeout time.Duration

	// Static files
	PublicDir string
	ImageDir  string

	// Token
	TokenSecret string
	TokenTTL    time.Duration

	// CORS
	CORSAllowedOrigin string

	// Logging
	LogLevel string
}

// Load は環境変数からConfigを読み込む。
// すべての項目にデフォルト値があるため、未設定の環境変数はエラーにならない。
// 値の範囲が不正な場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Port = getEnvInt("PORT", defaultPort)
	if cfg.Port == 0 {
		// PORT=0 は未設定として扱う（ランダムポートにはしない）
		cfg.Port = defaultPort
	}
	cfg.DatabaseURL = getEnvString("DATABASE_URL", defaultDatabaseURL)
	cfg.AutoMigrate = getEnvBool("AUTO_MIGRATE", true)
	cfg.BindMaxRetries = getEnvInt("BIND_MAX_RETRIES", 3)
	cfg.BindRetryDelay = getEnvDuration("BIND_RETRY_DELAY", 1*time.Second)
	cfg.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second)
	cfg.PublicDir = getEnvString("PUBLIC_DIR", defaultPublicDir)
	cfg.ImageDir = getEnvString("IMAGE_DIR", filepath.Join(cfg.PublicDir, "image"))
	cfg.TokenSecret = os.Getenv("TOKEN_SECRET")
	cfg.TokenTTL = getEnvDuration("TOKEN_TTL", 24*time.Hour)
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "*")
	cfg.LogLevel = strings.ToLower(getEnvString("LOG_LEVEL", "info"))

	var invalid []string

	if cfg.Port < 1 || cfg.Port > 65535 {
		invalid = append(invalid, "PORT")
	}
	if cfg.BindMaxRetries < 0 {
		invalid = append(invalid, "BIND_MAX_RETRIES")
	}
	if cfg.BindRetryDelay < 0 {
		invalid = append(invalid, "BIND_RETRY_DELAY")
	}
	if cfg.TokenTTL <= 0 {
		invalid = append(invalid, "TOKEN_TTL")
	}

	if len(invalid) > 0 {
		return nil, fmt.Errorf("environment variables have invalid values: %v", invalid)
	}

	return cfg, nil
}

// TokenEnabled は署名付きトークンの発行が有効かどうかを返す。
func (c *Config) TokenEnabled() bool {
	return c.TokenSecret != ""
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
