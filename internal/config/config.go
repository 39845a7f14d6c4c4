// Package config loads server settings from the environment.
//
// An optional .env file in the working directory is read first with
// godotenv; variables already set in the environment win over it.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is everything cmd/server needs to build the server.
type Config struct {
	Port        int
	DBPath      string
	MediaDir    string
	MaxUploadMB int
	PageSize    int

	IndexCacheTTL time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret string
	// JWTSecretGenerated is true when no JWT_SECRET was set and a random
	// one was made up; sessions then end with the process.
	JWTSecretGenerated bool
	SessionTTL         time.Duration
	BcryptCost         int
	SecureCookies      bool
	LoginURL           string

	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string

	LogLevel  slog.Level
	LogFormat string
}

// GitHubEnabled reports whether GitHub login routes should be mounted.
func (c Config) GitHubEnabled() bool {
	return c.GitHubClientID != "" && c.GitHubClientSecret != ""
}

// MaxUploadBytes is the upload limit in bytes.
func (c Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// Load reads .env (if present) and the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: reading .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function, so tests can pass a map.
func FromEnv(getenv func(string) string) (Config, error) {
	p := parser{getenv: getenv}

	cfg := Config{
		Port:          p.int("PORT", 8080),
		DBPath:        p.str("DB_PATH", "data/yatube.db"),
		MediaDir:      p.str("MEDIA_DIR", "media"),
		MaxUploadMB:   p.int("MAX_UPLOAD_MB", 5),
		PageSize:      p.int("PAGE_SIZE", 10),
		IndexCacheTTL: p.duration("INDEX_CACHE_TTL", 5*time.Second),
		RedisAddr:     p.str("REDIS_ADDR", ""),
		RedisPassword: p.str("REDIS_PASSWORD", ""),
		RedisDB:       p.int("REDIS_DB", 0),
		JWTSecret:     p.str("JWT_SECRET", ""),
		SessionTTL:    p.duration("SESSION_TTL", 336*time.Hour),
		BcryptCost:    p.int("BCRYPT_COST", 12),
		SecureCookies: p.bool("SECURE_COOKIES", false),
		LoginURL:      p.str("LOGIN_URL", "/auth/login/"),

		GitHubClientID:     p.str("GITHUB_CLIENT_ID", ""),
		GitHubClientSecret: p.str("GITHUB_CLIENT_SECRET", ""),
		GitHubCallbackURL:  p.str("GITHUB_CALLBACK_URL", ""),

		LogLevel:  p.level("LOG_LEVEL", slog.LevelInfo),
		LogFormat: strings.ToLower(p.str("LOG_FORMAT", "text")),
	}
	if p.err != nil {
		return Config{}, p.err
	}

	switch {
	case cfg.Port < 1 || cfg.Port > 65535:
		return Config{}, fmt.Errorf("config: invalid PORT %d", cfg.Port)
	case cfg.PageSize < 1:
		return Config{}, fmt.Errorf("config: invalid PAGE_SIZE %d", cfg.PageSize)
	case cfg.MaxUploadMB < 1:
		return Config{}, fmt.Errorf("config: invalid MAX_UPLOAD_MB %d", cfg.MaxUploadMB)
	case cfg.BcryptCost < 4 || cfg.BcryptCost > 31:
		return Config{}, fmt.Errorf("config: invalid BCRYPT_COST %d", cfg.BcryptCost)
	case cfg.LogFormat != "text" && cfg.LogFormat != "json":
		return Config{}, fmt.Errorf("config: invalid LOG_FORMAT %q", cfg.LogFormat)
	case cfg.JWTSecret != "" && len(cfg.JWTSecret) < 16:
		return Config{}, errors.New("config: JWT_SECRET must be at least 16 characters")
	}

	if cfg.JWTSecret == "" {
		secret, err := randomSecret()
		if err != nil {
			return Config{}, err
		}
		cfg.JWTSecret = secret
		cfg.JWTSecretGenerated = true
	}
	if cfg.GitHubCallbackURL == "" {
		cfg.GitHubCallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port)
	}
	return cfg, nil
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("config: generating JWT secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// parser keeps the first error so Load can read every variable in one
// expression and check once.
type parser struct {
	getenv func(string) string
	err    error
}

func (p *parser) str(key, def string) string {
	if v := strings.TrimSpace(p.getenv(key)); v != "" {
		return v
	}
	return def
}

func (p *parser) int(key string, def int) int {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(fmt.Errorf("config: invalid %s %q: %w", key, v, err))
		return def
	}
	return n
}

func (p *parser) bool(key string, def bool) bool {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(fmt.Errorf("config: invalid %s %q: %w", key, v, err))
		return def
	}
	return b
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(fmt.Errorf("config: invalid %s %q: %w", key, v, err))
		return def
	}
	return d
}

func (p *parser) level(key string, def slog.Level) slog.Level {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return def
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(v)); err != nil {
		p.fail(fmt.Errorf("config: invalid %s %q: %w", key, v, err))
		return def
	}
	return l
}

func (p *parser) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}
