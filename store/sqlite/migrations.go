package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the sentinel store (SQLite).
var Migrations = migrate.NewGroup("sentinel")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_features",
			Version: "20260101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS sentinel_features (
    id              TEXT PRIMARY KEY,
    name            TEXT NOT NULL UNIQUE,
    description     TEXT NOT NULL DEFAULT '',
    is_active       INTEGER NOT NULL DEFAULT 1,
    created_at      TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at      TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_sentinel_features_active ON sentinel_features (is_active);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS sentinel_features`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_feature_groups",
			Version: "20260101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS sentinel_feature_groups (
    id              TEXT PRIMARY KEY,
    name            TEXT NOT NULL UNIQUE,
    app_name        TEXT NOT NULL DEFAULT '',
    description     TEXT NOT NULL DEFAULT '',
    is_paid         INTEGER NOT NULL DEFAULT 0,
    created_at      TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at      TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_sentinel_fgroups_app ON sentinel_feature_groups (app_name) WHERE app_name <> '';
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS sentinel_feature_groups`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_group_features",
			Version: "20260101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS sentinel_group_features (
    group_id        TEXT NOT NULL REFERENCES sentinel_feature_groups(id) ON DELETE CASCADE,
    feature_id      TEXT NOT NULL REFERENCES sentinel_features(id) ON DELETE CASCADE,

    PRIMARY KEY (group_id, feature_id)
);

CREATE INDEX IF NOT EXISTS idx_sentinel_gfeat_feature ON sentinel_group_features (feature_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS sentinel_group_features`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_tokens",
			Version: "20260101000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS sentinel_tokens (
    id                TEXT PRIMARY KEY,
    name              TEXT NOT NULL UNIQUE,
    feature_group_id  TEXT NOT NULL REFERENCES sentinel_feature_groups(id) ON DELETE CASCADE,
    expires_in_days   INTEGER,
    is_active         INTEGER NOT NULL DEFAULT 1,
    created_at        TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at        TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_sentinel_tokens_group ON sentinel_tokens (feature_group_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS sentinel_tokens`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_grants",
			Version: "20260101000005",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS sentinel_grants (
    id                TEXT PRIMARY KEY,
    office_id         TEXT NOT NULL,
    feature_group_id  TEXT NOT NULL REFERENCES sentinel_feature_groups(id) ON DELETE CASCADE,
    token_id          TEXT,
    is_active         INTEGER NOT NULL DEFAULT 1,
    activated_at      TEXT NOT NULL,
    expires_at        TEXT,
    created_at        TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at        TEXT NOT NULL DEFAULT (datetime('now')),

    UNIQUE(office_id, feature_group_id)
);

CREATE INDEX IF NOT EXISTS idx_sentinel_grants_office ON sentinel_grants (office_id);
CREATE INDEX IF NOT EXISTS idx_sentinel_grants_group ON sentinel_grants (feature_group_id);
CREATE INDEX IF NOT EXISTS idx_sentinel_grants_expires ON sentinel_grants (expires_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS sentinel_grants`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_decision_logs",
			Version: "20260101000006",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS sentinel_decision_logs (
    id              TEXT PRIMARY KEY,
    principal_id    TEXT NOT NULL,
    role            TEXT NOT NULL DEFAULT '',
    office_id       TEXT NOT NULL DEFAULT '',
    operation       TEXT NOT NULL,
    allowed         INTEGER NOT NULL,
    reason          TEXT NOT NULL DEFAULT '',
    predicate       TEXT NOT NULL DEFAULT '',
    eval_time_ns    INTEGER NOT NULL DEFAULT 0,
    created_at      TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_sentinel_dlogs_principal ON sentinel_decision_logs (principal_id);
CREATE INDEX IF NOT EXISTS idx_sentinel_dlogs_office ON sentinel_decision_logs (office_id);
CREATE INDEX IF NOT EXISTS idx_sentinel_dlogs_created ON sentinel_decision_logs (created_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS sentinel_decision_logs`)
				return err
			},
		},
	)
}
