// seed inserts development sample data for local testing.
// Idempotent: skips inserts if the dev author (author@example.com) already exists.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/lib/pq"

	"brand-analytics-platform/identity/internal/config"
	"brand-analytics-platform/identity/internal/db"
	"brand-analytics-platform/identity/internal/security"
)

const (
	authorEmail = "author@example.com"
	viewerEmail = "viewer@example.com"
	devPassword = "password123"

	authorID = "00000000-0000-0000-0000-000000000001"
	viewerID = "00000000-0000-0000-0000-000000000002"

	brandAcme  = "acme"
	brandBlent = "blent"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
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

	var exists bool
	err = conn.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM identities WHERE lower(email) = lower($1))`, authorEmail).Scan(&exists)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if exists {
		log.Println("Seed already applied (author@example.com exists). Skipping.")
		os.Exit(0)
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	passwordHash, err := hasher.Hash([]byte(devPassword))
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	now := time.Now().UTC()

	insertIdentity := `INSERT INTO identities (id, email, password_hash, status, role, primary_brand_id, created_at, updated_at)
	                   VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`
	insertMembership := `INSERT INTO brand_memberships (identity_id, brand_id, status, permissions, position)
	                     VALUES ($1, $2, $3, $4, $5)`

	if _, err := conn.ExecContext(ctx, insertIdentity,
		authorID, authorEmail, passwordHash, "active", "author", brandAcme, now); err != nil {
		log.Fatalf("create author: %v", err)
	}
	if _, err := conn.ExecContext(ctx, insertMembership,
		authorID, brandAcme, "active", pq.Array([]string{"reports:read", "reports:write", "admin"}), 0); err != nil {
		log.Fatalf("create author membership: %v", err)
	}

	if _, err := conn.ExecContext(ctx, insertIdentity,
		viewerID, viewerEmail, passwordHash, "active", "viewer", brandAcme, now); err != nil {
		log.Fatalf("create viewer: %v", err)
	}
	if _, err := conn.ExecContext(ctx, insertMembership,
		viewerID, brandAcme, "active", pq.Array([]string{"reports:read"}), 0); err != nil {
		log.Fatalf("create viewer membership: %v", err)
	}
	if _, err := conn.ExecContext(ctx, insertMembership,
		viewerID, brandBlent, "suspended", pq.Array([]string{"reports:read"}), 1); err != nil {
		log.Fatalf("create suspended membership: %v", err)
	}

	log.Println("Seed completed successfully.")
	fmt.Printf("Author login: %s / %s\n", authorEmail, devPassword)
	fmt.Printf("Viewer login: %s / %s\n", viewerEmail, devPassword)
}
