package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendLevelDB  = "leveldb"
)

// Auth modes.
const (
	AuthDevelopment = "development"
	AuthExternal    = "external"
	AuthHMAC        = "hmac"
)

type Config struct {
	Port            string   `mapstructure:"PORT"`
	Env             string   `mapstructure:"ENV"`
	AuthMode        string   `mapstructure:"AUTH_MODE"`
	AuthIssuer      string   `mapstructure:"AUTH_ISSUER"`
	AuthJWKSURL     string   `mapstructure:"AUTH_JWKS_URL"`
	AuthAudience    string   `mapstructure:"AUTH_AUDIENCE"`
	JWTSigningKey   string   `mapstructure:"JWT_SIGNING_KEY"`
	StoreBackend    string   `mapstructure:"STORE_BACKEND"`
	DatabaseURL     string   `mapstructure:"DATABASE_URL"`
	DBSchema        string   `mapstructure:"DB_SCHEMA"`
	DBMaxConns      int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns      int32    `mapstructure:"DB_MIN_CONNS"`
	LevelDBPath     string   `mapstructure:"LEVELDB_PATH"`
	AdminID         string   `mapstructure:"ADMIN_ID"`
	AdminName       string   `mapstructure:"ADMIN_NAME"`
	AuditAutoAppend bool     `mapstructure:"AUDIT_AUTO_APPEND"`
	CORSOrigins     []string `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS    float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst  int      `mapstructure:"RATE_LIMIT_BURST"`
	TLSEnabled      bool     `mapstructure:"TLS_ENABLED"`
	TLSCertFile     string   `mapstructure:"TLS_CERT_FILE"`
	TLSKeyFile      string   `mapstructure:"TLS_KEY_FILE"`
}

var keys = []string{
	"PORT", "ENV", "AUTH_MODE", "AUTH_ISSUER", "AUTH_JWKS_URL", "AUTH_AUDIENCE",
	"JWT_SIGNING_KEY", "STORE_BACKEND", "DATABASE_URL", "DB_SCHEMA", "DB_MAX_CONNS",
	"DB_MIN_CONNS", "LEVELDB_PATH", "ADMIN_ID", "ADMIN_NAME", "AUDIT_AUTO_APPEND",
	"CORS_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "TLS_ENABLED",
	"TLS_CERT_FILE", "TLS_KEY_FILE",
}

// Load reads .env (if present) into the process environment and then
// resolves every key from the environment.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("AUTH_MODE", "") // inferred, see ResolvedAuthMode
	v.SetDefault("STORE_BACKEND", BackendMemory)
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("LEVELDB_PATH", "./data/ledger")
	v.SetDefault("ADMIN_NAME", "admin")
	v.SetDefault("AUDIT_AUTO_APPEND", true)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)

	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return nil, fmt.Errorf("bind %s: %w", k, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if origins := v.GetString("CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = strings.Split(origins, ",")
	}
	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))

	if cfg.IsDev() {
		log.Warn().Msg("development mode: callers are taken from the X-Caller-ID header without authentication")
	}
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// ResolvedAuthMode returns AUTH_MODE when set. Otherwise development
// environments use header callers, an issuer selects JWKS validation and
// anything else falls back to HMAC tokens.
func (c *Config) ResolvedAuthMode() string {
	if c.AuthMode != "" {
		return c.AuthMode
	}
	if c.IsDev() {
		return AuthDevelopment
	}
	if c.AuthIssuer != "" {
		return AuthExternal
	}
	return AuthHMAC
}

// Validate checks that the configuration is safe to run.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendMemory, BackendLevelDB:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_BACKEND is %q", BackendPostgres)
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be %q, %q or %q, got %q",
			BackendMemory, BackendPostgres, BackendLevelDB, c.StoreBackend)
	}
	if c.StoreBackend == BackendLevelDB && c.LevelDBPath == "" {
		return fmt.Errorf("LEVELDB_PATH is required when STORE_BACKEND is %q", BackendLevelDB)
	}

	if strings.TrimSpace(c.AdminID) == "" {
		return fmt.Errorf("ADMIN_ID is required")
	}

	switch mode := c.ResolvedAuthMode(); mode {
	case AuthDevelopment:
		if c.IsProduction() {
			return fmt.Errorf("AUTH_MODE %q is not allowed in production", AuthDevelopment)
		}
	case AuthExternal:
		if c.AuthIssuer == "" || c.AuthJWKSURL == "" {
			return fmt.Errorf("AUTH_ISSUER and AUTH_JWKS_URL must be set when AUTH_MODE is %q", AuthExternal)
		}
	case AuthHMAC:
		if c.JWTSigningKey == "" {
			return fmt.Errorf("JWT_SIGNING_KEY is required when AUTH_MODE is %q", AuthHMAC)
		}
	default:
		return fmt.Errorf("AUTH_MODE must be %q, %q or %q, got %q",
			AuthDevelopment, AuthExternal, AuthHMAC, mode)
	}

	if c.TLSEnabled {
		if c.TLSCertFile == "" {
			return fmt.Errorf("TLS_CERT_FILE is required when TLS_ENABLED is true")
		}
		if c.TLSKeyFile == "" {
			return fmt.Errorf("TLS_KEY_FILE is required when TLS_ENABLED is true")
		}
	}
	return nil
}
