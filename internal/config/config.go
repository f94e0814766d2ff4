// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// KeyDef is one signing key definition from JWT_KEYS. PrivateKey and PublicKey
// are inline PEM or paths to PEM files.
type KeyDef struct {
	Kid        string `json:"kid"`
	PrivateKey string `json:"private_key"`
	PublicKey  string `json:"public_key"`
}

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN for the identity store and refresh-token ledger.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// JWTActiveKid selects the signing key used for new tokens; must match a kid in JWT_KEYS.
	JWTActiveKid string `mapstructure:"JWT_ACTIVE_KID"`
	// JWTKeys is a JSON array of {kid, private_key, public_key}; PEM inline or file path.
	// All listed keys verify; only the active kid signs.
	JWTKeys string `mapstructure:"JWT_KEYS"`
	// JWTIssuer is the iss claim (e.g. "brand-identity").
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAudience is the aud claim (e.g. "brand-analytics").
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`
	// JWTAccessTTL is the access token lifetime (e.g. "10m").
	JWTAccessTTL string `mapstructure:"JWT_ACCESS_TTL"`
	// RefreshTTL is the refresh token lifetime (e.g. "720h").
	RefreshTTL string `mapstructure:"REFRESH_TTL"`
	// RefreshGraceWindow is how long after revocation a reused refresh secret is
	// treated as a benign concurrent-tab race instead of replay (e.g. "30s").
	RefreshGraceWindow string `mapstructure:"REFRESH_GRACE_WINDOW"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// OTLPEndpoint is the OTLP gRPC collector endpoint; empty disables telemetry export.
	OTLPEndpoint string `mapstructure:"OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext OTLP export regardless of endpoint scheme.
	OTLPInsecure bool `mapstructure:"OTLP_INSECURE"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("JWT_ACTIVE_KID", "")
	v.SetDefault("JWT_KEYS", "")
	v.SetDefault("JWT_ISSUER", "brand-identity")
	v.SetDefault("JWT_AUDIENCE", "brand-analytics")
	v.SetDefault("JWT_ACCESS_TTL", "10m")
	v.SetDefault("REFRESH_TTL", "720h") // 30d
	v.SetDefault("REFRESH_GRACE_WINDOW", "30s")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("OTLP_ENDPOINT", "")
	v.SetDefault("OTLP_INSECURE", false)
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	return &cfg, nil
}

// KeyDefs parses JWT_KEYS. Returns an error if JWT_KEYS is empty, is not valid
// JSON, or any entry is missing a field; key material itself is validated at
// registry load, not here.
func (c *Config) KeyDefs() ([]KeyDef, error) {
	if c.JWTKeys == "" {
		return nil, errors.New("config: JWT_KEYS must be set")
	}
	var defs []KeyDef
	if err := json.Unmarshal([]byte(c.JWTKeys), &defs); err != nil {
		return nil, fmt.Errorf("config: JWT_KEYS: %w", err)
	}
	if len(defs) == 0 {
		return nil, errors.New("config: JWT_KEYS must list at least one key")
	}
	for i, d := range defs {
		if d.Kid == "" || d.PrivateKey == "" || d.PublicKey == "" {
			return nil, fmt.Errorf("config: JWT_KEYS entry %d is missing kid, private_key, or public_key", i)
		}
	}
	return defs, nil
}

// AccessTTL parses JWTAccessTTL as a time.Duration. Returns 10m if unset or invalid.
func (c *Config) AccessTTL() time.Duration {
	d, err := time.ParseDuration(c.JWTAccessTTL)
	if err != nil || d <= 0 {
		return 10 * time.Minute
	}
	return d
}

// RefreshTokenTTL parses RefreshTTL as a time.Duration. Returns 720h if unset or invalid.
func (c *Config) RefreshTokenTTL() time.Duration {
	d, err := time.ParseDuration(c.RefreshTTL)
	if err != nil || d <= 0 {
		return 720 * time.Hour
	}
	return d
}

// GraceWindow parses RefreshGraceWindow as a time.Duration. Returns 30s if unset or invalid.
func (c *Config) GraceWindow() time.Duration {
	d, err := time.ParseDuration(c.RefreshGraceWindow)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}
