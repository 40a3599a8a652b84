package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startPostgres spins up a disposable Postgres, applies the schema, and
// returns a connected database handle.
func startPostgres(t *testing.T) *sql.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("sentinel"),
		tcpostgres.WithUsername("sentinel"),
		tcpostgres.WithPassword("sentinel"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	for _, ddl := range schemaDDL {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			t.Fatalf("apply schema: %v", err)
		}
	}
	return db
}

// The grant upsert relies on ON CONFLICT over the (office_id,
// feature_group_id) unique constraint resolving to a single row per pair.
func TestGrantUpsertSchema(t *testing.T) {
	db := startPostgres(t)
	ctx := context.Background()

	if _, err := db.ExecContext(ctx,
		`INSERT INTO sentinel_feature_groups (id, name, app_name) VALUES ('fgrp_1', 'premium', 'premium-app')`,
	); err != nil {
		t.Fatalf("seed group: %v", err)
	}

	upsert := `
INSERT INTO sentinel_grants (id, office_id, feature_group_id, is_active, activated_at, expires_at)
VALUES ($1, 'office-1', 'fgrp_1', $2, now(), $3)
ON CONFLICT (office_id, feature_group_id) DO UPDATE SET
    is_active = EXCLUDED.is_active,
    activated_at = EXCLUDED.activated_at,
    expires_at = EXCLUDED.expires_at,
    updated_at = now()`

	expires := time.Now().Add(24 * time.Hour).UTC()
	if _, err := db.ExecContext(ctx, upsert, "grant_1", true, nil); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if _, err := db.ExecContext(ctx, upsert, "grant_2", false, expires); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	var count int
	if err := db.QueryRowContext(ctx,
		`SELECT count(*) FROM sentinel_grants WHERE office_id = 'office-1'`,
	).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("grant rows = %d, want 1 (conflict should update in place)", count)
	}

	var id string
	var active bool
	if err := db.QueryRowContext(ctx,
		`SELECT id, is_active FROM sentinel_grants WHERE office_id = 'office-1'`,
	).Scan(&id, &active); err != nil {
		t.Fatalf("select: %v", err)
	}
	if id != "grant_1" {
		t.Errorf("id = %q, the original row must survive the upsert", id)
	}
	if active {
		t.Error("is_active should have been updated to false")
	}
}

func TestGroupMembershipCascade(t *testing.T) {
	db := startPostgres(t)
	ctx := context.Background()

	stmts := []string{
		`INSERT INTO sentinel_feature_groups (id, name, app_name) VALUES ('fgrp_1', 'premium', 'premium-app')`,
		`INSERT INTO sentinel_features (id, name) VALUES ('feat_1', 'bulk-export')`,
		`INSERT INTO sentinel_group_features (group_id, feature_id) VALUES ('fgrp_1', 'feat_1')`,
		`INSERT INTO sentinel_tokens (id, name, feature_group_id) VALUES ('ftok_1', 'tok-abc', 'fgrp_1')`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	// Duplicate membership must violate the composite primary key.
	if _, err := db.ExecContext(ctx,
		`INSERT INTO sentinel_group_features (group_id, feature_id) VALUES ('fgrp_1', 'feat_1')`,
	); err == nil {
		t.Fatal("duplicate membership insert should fail")
	}

	if _, err := db.ExecContext(ctx, `DELETE FROM sentinel_feature_groups WHERE id = 'fgrp_1'`); err != nil {
		t.Fatalf("delete group: %v", err)
	}

	for _, table := range []string{"sentinel_group_features", "sentinel_tokens"} {
		var count int
		if err := db.QueryRowContext(ctx, `SELECT count(*) FROM `+table).Scan(&count); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if count != 0 {
			t.Errorf("%s rows = %d, want 0 after cascade", table, count)
		}
	}
}

func TestUniqueNames(t *testing.T) {
	db := startPostgres(t)
	ctx := context.Background()

	if _, err := db.ExecContext(ctx,
		`INSERT INTO sentinel_features (id, name) VALUES ('feat_1', 'bulk-export')`,
	); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := db.ExecContext(ctx,
		`INSERT INTO sentinel_features (id, name) VALUES ('feat_2', 'bulk-export')`,
	); err == nil {
		t.Fatal("duplicate feature name should violate the unique constraint")
	}
}
