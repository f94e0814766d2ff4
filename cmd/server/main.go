package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"brand-analytics-platform/identity/internal/audit"
	auditrepo "brand-analytics-platform/identity/internal/audit/repository"
	"brand-analytics-platform/identity/internal/config"
	"brand-analytics-platform/identity/internal/db"
	identityrepo "brand-analytics-platform/identity/internal/identity/repository"
	"brand-analytics-platform/identity/internal/policy/engine"
	"brand-analytics-platform/identity/internal/security"
	"brand-analytics-platform/identity/internal/server"
	"brand-analytics-platform/identity/internal/session/service"
	"brand-analytics-platform/identity/internal/telemetry"
	"brand-analytics-platform/identity/internal/token"
	tokenrepo "brand-analytics-platform/identity/internal/token/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	keyDefs, err := cfg.KeyDefs()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	defs := make([]security.KeyDef, len(keyDefs))
	for i, d := range keyDefs {
		defs[i] = security.KeyDef{Kid: d.Kid, PrivateKey: d.PrivateKey, PublicKey: d.PublicKey}
	}
	// Key material is validated before anything listens; a bad key set must
	// never serve traffic.
	registry, err := security.LoadKeyRegistry(cfg.JWTActiveKid, defs)
	if err != nil {
		log.Fatalf("key registry: %v", err)
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}
	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	providers, err := telemetry.NewProviders(ctx, cfg.OTLPEndpoint, "identity", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			log.Printf("telemetry shutdown: %v", err)
		}
	}()
	metrics, err := telemetry.NewAuthMetrics(providers.MeterProvider)
	if err != nil {
		log.Fatalf("metrics: %v", err)
	}

	gate, err := engine.NewOPAEvaluator()
	if err != nil {
		log.Fatalf("session gate: %v", err)
	}

	codec := security.NewAccessTokenCodec(registry, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL())
	ledger := token.NewLedger(tokenrepo.NewPostgresStore(conn), cfg.RefreshTokenTTL())
	auditLog := audit.NewLogger(auditrepo.NewPostgresRepository(conn), nil)
	sessions := service.New(
		identityrepo.NewPostgresRepository(conn),
		ledger,
		codec,
		registry,
		gate,
		security.NewHasher(cfg.BcryptCost),
		auditLog,
		metrics,
		cfg.GraceWindow(),
	)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.NewServer(sessions).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("identity server listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	log.Println("HTTP server stopped")
}
