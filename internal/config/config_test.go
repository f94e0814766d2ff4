package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8080")
	}
	if cfg.JWTIssuer != "brand-identity" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "brand-identity")
	}
	if cfg.JWTAudience != "brand-analytics" {
		t.Errorf("JWTAudience = %q, want %q", cfg.JWTAudience, "brand-analytics")
	}
	if cfg.JWTAccessTTL != "10m" {
		t.Errorf("JWTAccessTTL = %q, want %q", cfg.JWTAccessTTL, "10m")
	}
	if cfg.RefreshTTL != "720h" {
		t.Errorf("RefreshTTL = %q, want %q", cfg.RefreshTTL, "720h")
	}
	if cfg.RefreshGraceWindow != "30s" {
		t.Errorf("RefreshGraceWindow = %q, want %q", cfg.RefreshGraceWindow, "30s")
	}
	if cfg.BcryptCost != 12 {
		t.Errorf("BcryptCost = %d, want 12", cfg.BcryptCost)
	}
	if cfg.OTLPEndpoint != "" {
		t.Errorf("OTLPEndpoint = %q, want empty", cfg.OTLPEndpoint)
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":9090")
	os.Setenv("JWT_ISSUER", "custom-issuer")
	os.Setenv("BCRYPT_COST", "14")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":9090")
	}
	if cfg.JWTIssuer != "custom-issuer" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "custom-issuer")
	}
	if cfg.BcryptCost != 14 {
		t.Errorf("BcryptCost = %d, want 14", cfg.BcryptCost)
	}
}

func TestLoad_BcryptCostRange(t *testing.T) {
	testCases := []struct {
		name  string
		value string
		want  int
		err   bool
	}{
		{"valid min", "4", 4, false},
		{"valid max", "31", 31, false},
		{"valid middle", "12", 12, false},
		{"too low", "3", 0, true},
		{"too high", "32", 0, true},
		{"zero defaults", "0", 12, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			os.Clearenv()
			os.Setenv("BCRYPT_COST", tc.value)

			cfg, err := Load()
			if tc.err {
				if err == nil {
					t.Fatal("Load should return error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.BcryptCost != tc.want {
				t.Errorf("BcryptCost = %d, want %d", cfg.BcryptCost, tc.want)
			}
		})
	}
}

func TestKeyDefs(t *testing.T) {
	os.Clearenv()
	os.Setenv("JWT_KEYS", `[{"kid":"2025-01","private_key":"/keys/2025-01.pem","public_key":"/keys/2025-01.pub.pem"},{"kid":"2024-07","private_key":"/keys/2024-07.pem","public_key":"/keys/2024-07.pub.pem"}]`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defs, err := cfg.KeyDefs()
	if err != nil {
		t.Fatalf("KeyDefs: %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("len(defs) = %d, want 2", len(defs))
	}
	if defs[0].Kid != "2025-01" || defs[0].PrivateKey != "/keys/2025-01.pem" {
		t.Errorf("first def = %+v", defs[0])
	}
}

func TestKeyDefs_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		keys string
	}{
		{"empty", ""},
		{"not json", "not-json"},
		{"empty list", "[]"},
		{"missing kid", `[{"private_key":"a","public_key":"b"}]`},
		{"missing private key", `[{"kid":"k","public_key":"b"}]`},
		{"missing public key", `[{"kid":"k","private_key":"a"}]`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			os.Clearenv()
			if tc.keys != "" {
				os.Setenv("JWT_KEYS", tc.keys)
			}
			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if _, err := cfg.KeyDefs(); err == nil {
				t.Error("KeyDefs should return error")
			}
		})
	}
}

func TestDurations(t *testing.T) {
	os.Clearenv()
	os.Setenv("JWT_ACCESS_TTL", "30m")
	os.Setenv("REFRESH_TTL", "336h")
	os.Setenv("REFRESH_GRACE_WINDOW", "45s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.AccessTTL(); got != 30*time.Minute {
		t.Errorf("AccessTTL = %v, want 30m", got)
	}
	if got := cfg.RefreshTokenTTL(); got != 336*time.Hour {
		t.Errorf("RefreshTokenTTL = %v, want 336h", got)
	}
	if got := cfg.GraceWindow(); got != 45*time.Second {
		t.Errorf("GraceWindow = %v, want 45s", got)
	}
}

func TestDurations_InvalidFallsBack(t *testing.T) {
	for _, value := range []string{"invalid", "0", "-5m"} {
		t.Run(value, func(t *testing.T) {
			os.Clearenv()
			os.Setenv("JWT_ACCESS_TTL", value)
			os.Setenv("REFRESH_TTL", value)
			os.Setenv("REFRESH_GRACE_WINDOW", value)

			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if got := cfg.AccessTTL(); got != 10*time.Minute {
				t.Errorf("AccessTTL = %v, want 10m default", got)
			}
			if got := cfg.RefreshTokenTTL(); got != 720*time.Hour {
				t.Errorf("RefreshTokenTTL = %v, want 720h default", got)
			}
			if got := cfg.GraceWindow(); got != 30*time.Second {
				t.Errorf("GraceWindow = %v, want 30s default", got)
			}
		})
	}
}
