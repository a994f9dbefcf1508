package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const defaultDSN = "host=localhost user=postgres password=postgres dbname=fibra port=5432 sslmode=disable"

type Config struct {
	HTTPPort        string
	DBDriver        string // postgres, mysql or sqlite
	DatabaseDSN     string
	JWTSecret       string
	CORSOrigins     string
	StatementPrefix string
	RedisAddress    string // empty disables distributed statement locks
	LogLevel        string
	AdminUsername   string
	AdminPassword   string
	Issuer          Issuer
}

// Issuer is the authorization block printed at the bottom of every statement.
type Issuer struct {
	Name              string
	TaxID             string
	Address           string
	Approver          string
	ApproverEmail     string
	InvoiceRecipients string
}

// MaxStatementPrefixLen matches the width of the statement sequence prefix column.
const MaxStatementPrefixLen = 16

// Load reads the environment (and a .env file when present). It fails when the
// JWT secret is missing or too short.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		DBDriver:        strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DatabaseDSN:     getEnv("DATABASE_DSN", defaultDSN),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		CORSOrigins:     getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		StatementPrefix: strings.ToUpper(strings.TrimSpace(getEnv("STATEMENT_PREFIX", "EGTD"))),
		RedisAddress:    getEnv("REDIS_ADDRESS", ""),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		AdminUsername:   getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:   getEnv("ADMIN_PASSWORD", ""),
		Issuer: Issuer{
			Name:              getEnv("ISSUER_NAME", ""),
			TaxID:             getEnv("ISSUER_TAX_ID", ""),
			Address:           getEnv("ISSUER_ADDRESS", ""),
			Approver:          getEnv("ISSUER_APPROVER", ""),
			ApproverEmail:     getEnv("ISSUER_APPROVER_EMAIL", ""),
			InvoiceRecipients: getEnv("ISSUER_INVOICE_RECIPIENTS", ""),
		},
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}
	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	switch cfg.DBDriver {
	case "postgres", "mysql", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	if cfg.StatementPrefix == "" || strings.Contains(cfg.StatementPrefix, "-") {
		return nil, fmt.Errorf("STATEMENT_PREFIX must be non-empty and must not contain '-'")
	}
	if len(cfg.StatementPrefix) > MaxStatementPrefixLen {
		return nil, fmt.Errorf("STATEMENT_PREFIX must be at most %d characters", MaxStatementPrefixLen)
	}

	return cfg, nil
}

// Warnings lists settings that are still on their development defaults.
func (c *Config) Warnings() []string {
	var w []string
	if c.DBDriver == "postgres" && c.DatabaseDSN == defaultDSN {
		w = append(w, "DATABASE_DSN is using the default value, set your own Postgres connection for production")
	}
	if c.CORSOrigins == "http://localhost:5173" {
		w = append(w, "CORS_ALLOWED_ORIGINS is using the default value, set your own domain for production")
	}
	if c.Issuer.Name == "" {
		w = append(w, "ISSUER_NAME is empty, statements will be exported without an authorization block")
	}
	return w
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
