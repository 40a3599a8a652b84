package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the sentinel store (PostgreSQL).
var Migrations = migrate.NewGroup("sentinel")

const ddlFeatures = `
CREATE TABLE IF NOT EXISTS sentinel_features (
    id              TEXT PRIMARY KEY,
    name            TEXT NOT NULL UNIQUE,
    description     TEXT NOT NULL DEFAULT '',
    is_active       BOOLEAN NOT NULL DEFAULT TRUE,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_sentinel_features_active ON sentinel_features (is_active);
`

const ddlFeatureGroups = `
CREATE TABLE IF NOT EXISTS sentinel_feature_groups (
    id              TEXT PRIMARY KEY,
    name            TEXT NOT NULL UNIQUE,
    app_name        TEXT NOT NULL DEFAULT '',
    description     TEXT NOT NULL DEFAULT '',
    is_paid         BOOLEAN NOT NULL DEFAULT FALSE,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_sentinel_fgroups_app ON sentinel_feature_groups (app_name) WHERE app_name <> '';
`

const ddlGroupFeatures = `
CREATE TABLE IF NOT EXISTS sentinel_group_features (
    group_id        TEXT NOT NULL REFERENCES sentinel_feature_groups(id) ON DELETE CASCADE,
    feature_id      TEXT NOT NULL REFERENCES sentinel_features(id) ON DELETE CASCADE,

    PRIMARY KEY (group_id, feature_id)
);

CREATE INDEX IF NOT EXISTS idx_sentinel_gfeat_feature ON sentinel_group_features (feature_id);
`

const ddlTokens = `
CREATE TABLE IF NOT EXISTS sentinel_tokens (
    id                TEXT PRIMARY KEY,
    name              TEXT NOT NULL UNIQUE,
    feature_group_id  TEXT NOT NULL REFERENCES sentinel_feature_groups(id) ON DELETE CASCADE,
    expires_in_days   INTEGER,
    is_active         BOOLEAN NOT NULL DEFAULT TRUE,
    created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_sentinel_tokens_group ON sentinel_tokens (feature_group_id);
`

const ddlGrants = `
CREATE TABLE IF NOT EXISTS sentinel_grants (
    id                TEXT PRIMARY KEY,
    office_id         TEXT NOT NULL,
    feature_group_id  TEXT NOT NULL REFERENCES sentinel_feature_groups(id) ON DELETE CASCADE,
    token_id          TEXT,
    is_active         BOOLEAN NOT NULL DEFAULT TRUE,
    activated_at      TIMESTAMPTZ NOT NULL,
    expires_at        TIMESTAMPTZ,
    created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at        TIMESTAMPTZ NOT NULL DEFAULT now(),

    UNIQUE(office_id, feature_group_id)
);

CREATE INDEX IF NOT EXISTS idx_sentinel_grants_office ON sentinel_grants (office_id);
CREATE INDEX IF NOT EXISTS idx_sentinel_grants_group ON sentinel_grants (feature_group_id);
CREATE INDEX IF NOT EXISTS idx_sentinel_grants_expires ON sentinel_grants (expires_at);
`

const ddlDecisionLogs = `
CREATE TABLE IF NOT EXISTS sentinel_decision_logs (
    id              TEXT PRIMARY KEY,
    principal_id    TEXT NOT NULL,
    role            TEXT NOT NULL DEFAULT '',
    office_id       TEXT NOT NULL DEFAULT '',
    operation       TEXT NOT NULL,
    allowed         BOOLEAN NOT NULL,
    reason          TEXT NOT NULL DEFAULT '',
    predicate       TEXT NOT NULL DEFAULT '',
    eval_time_ns    BIGINT NOT NULL DEFAULT 0,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_sentinel_dlogs_principal ON sentinel_decision_logs (principal_id);
CREATE INDEX IF NOT EXISTS idx_sentinel_dlogs_office ON sentinel_decision_logs (office_id);
CREATE INDEX IF NOT EXISTS idx_sentinel_dlogs_allowed ON sentinel_decision_logs (allowed);
CREATE INDEX IF NOT EXISTS idx_sentinel_dlogs_created ON sentinel_decision_logs (created_at);
`

// schemaDDL lists every table's DDL in dependency order.
var schemaDDL = []string{
	ddlFeatures,
	ddlFeatureGroups,
	ddlGroupFeatures,
	ddlTokens,
	ddlGrants,
	ddlDecisionLogs,
}

func upFor(ddl string) func(context.Context, migrate.Executor) error {
	return func(ctx context.Context, exec migrate.Executor) error {
		_, err := exec.Exec(ctx, ddl)
		return err
	}
}

func downFor(table string) func(context.Context, migrate.Executor) error {
	return func(ctx context.Context, exec migrate.Executor) error {
		_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS `+table)
		return err
	}
}

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_features",
			Version: "20260101000001",
			Up:      upFor(ddlFeatures),
			Down:    downFor("sentinel_features"),
		},
		&migrate.Migration{
			Name:    "create_feature_groups",
			Version: "20260101000002",
			Up:      upFor(ddlFeatureGroups),
			Down:    downFor("sentinel_feature_groups"),
		},
		&migrate.Migration{
			Name:    "create_group_features",
			Version: "20260101000003",
			Up:      upFor(ddlGroupFeatures),
			Down:    downFor("sentinel_group_features"),
		},
		&migrate.Migration{
			Name:    "create_tokens",
			Version: "20260101000004",
			Up:      upFor(ddlTokens),
			Down:    downFor("sentinel_tokens"),
		},
		&migrate.Migration{
			Name:    "create_grants",
			Version: "20260101000005",
			Up:      upFor(ddlGrants),
			Down:    downFor("sentinel_grants"),
		},
		&migrate.Migration{
			Name:    "create_decision_logs",
			Version: "20260101000006",
			Up:      upFor(ddlDecisionLogs),
			Down:    downFor("sentinel_decision_logs"),
		},
	)
}
