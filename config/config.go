package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	Port       string
	DBAdapter  string // "mysql" or "sqlite"
	DSN        string
	SQLiteFile string
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
	ClientURL  string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// Load builds the process configuration from the environment. A missing
// JWT_SECRET is a hard error: the server must not start if it cannot sign
// or verify tokens.
func Load() (*Config, error) {
	c := &Config{
		Port:       getenv("PORT", "5000"),
		DBAdapter:  getenv("DB_ADAPTER", "mysql"),
		DSN:        os.Getenv("DSN"),
		SQLiteFile: getenv("SQLITE_FILE", "./notes.db"),
		JWTSecret:  os.Getenv("JWT_SECRET"),
		BcryptCost: getint("BCRYPT_COST", bcrypt.DefaultCost),
		ClientURL:  getenv("CLIENT_URL", "*"),
	}

	if c.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET must be set")
	}

	ttl, err := time.ParseDuration(getenv("TOKEN_TTL", "720h"))
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}
	c.TokenTTL = ttl

	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("BCRYPT_COST out of range: %d", c.BcryptCost)
	}

	switch c.DBAdapter {
	case "mysql":
		if c.DSN == "" {
			return nil, errors.New("DSN must be set when DB_ADAPTER=mysql")
		}
	case "sqlite":
		if c.SQLiteFile == "" {
			return nil, errors.New("SQLITE_FILE must be set when DB_ADAPTER=sqlite")
		}
	default:
		return nil, fmt.Errorf("unknown DB_ADAPTER: %s", c.DBAdapter)
	}

	return c, nil
}

// StoreDSN returns the data source name for the configured adapter.
func (c *Config) StoreDSN() string {
	if c.DBAdapter == "sqlite" {
		return c.SQLiteFile
	}
	return c.DSN
}
