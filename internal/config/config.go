package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ansel1/merry"
	"github.com/joho/godotenv"
)

const minTokenKey = 16

type Config struct {
	Addr           string
	TLSCert        string
	TLSKey         string
	TokenKey       []byte
	Users          map[string]string // login -> bcrypt hash
	DatabaseURL    string
	SQLitePath     string
	StaticDir      string
	SessionTTL     time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
	MaxUploadBytes int64
}

// TLS reports whether both certificate and key are configured.
func (c *Config) TLS() bool {
	return c.TLSCert != "" && c.TLSKey != ""
}

// Load reads the environment after applying files (".env" when none given).
// A missing file is not an error; variables already set win over the file.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return nil, merry.Prependf(err, "load %s", f)
		}
	}

	c := &Config{
		Addr:        getEnv("ADDR", ":8443"),
		TLSCert:     os.Getenv("TLS_CERT"),
		TLSKey:      os.Getenv("TLS_KEY"),
		TokenKey:    []byte(os.Getenv("TOKEN_KEY")),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		SQLitePath:  os.Getenv("SQLITE_PATH"),
		StaticDir:   getEnv("STATIC_DIR", "./static"),
	}
	if len(c.TokenKey) < minTokenKey {
		return nil, merry.Errorf("TOKEN_KEY must be at least %d bytes", minTokenKey)
	}
	if c.DatabaseURL != "" && c.SQLitePath != "" {
		return nil, merry.New("set only one of DATABASE_URL and SQLITE_PATH")
	}

	var err error
	if c.Users, err = parseUsers(os.Getenv("DASHBOARD_USERS")); err != nil {
		return nil, err
	}
	if c.SessionTTL, err = getEnvDuration("SESSION_TTL", 12*time.Hour); err != nil {
		return nil, err
	}
	if c.RateLimitRPS, err = getEnvFloat("RATE_LIMIT_RPS", 5); err != nil {
		return nil, err
	}
	if c.RateLimitBurst, err = getEnvInt("RATE_LIMIT_BURST", 10); err != nil {
		return nil, err
	}
	mb, err := getEnvInt("MAX_UPLOAD_MB", 10)
	if err != nil {
		return nil, err
	}
	c.MaxUploadBytes = int64(mb) << 20
	return c, nil
}

func parseUsers(s string) (map[string]string, error) {
	users := make(map[string]string)
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		login, hash, ok := strings.Cut(entry, ":")
		login, hash = strings.TrimSpace(login), strings.TrimSpace(hash)
		if !ok || login == "" || hash == "" {
			return nil, merry.Errorf("DASHBOARD_USERS: malformed entry %q, want login:bcrypt-hash", entry)
		}
		users[login] = hash
	}
	if len(users) == 0 {
		return nil, merry.New("DASHBOARD_USERS is not set")
	}
	return users, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return 0, merry.Errorf("%s: want a positive integer, got %q", key, value)
	}
	return n, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f <= 0 {
		return 0, merry.Errorf("%s: want a positive number, got %q", key, value)
	}
	return f, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return 0, merry.Errorf("%s: want a positive duration, got %q", key, value)
	}
	return d, nil
}
