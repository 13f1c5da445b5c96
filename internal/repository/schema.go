package repository

import (
	"context"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS career_transitions (
	id           TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL,
	from_role    TEXT NOT NULL,
	target_role  TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS transition_insights (
	id            TEXT PRIMARY KEY,
	transition_id TEXT NOT NULL REFERENCES career_transitions (id) ON DELETE CASCADE,
	source        TEXT NOT NULL,
	category      TEXT NOT NULL,
	content       TEXT NOT NULL,
	url           TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_transition_insights_transition_id ON transition_insights (transition_id);
CREATE TABLE IF NOT EXISTS role_skills (
	role  TEXT NOT NULL,
	skill TEXT NOT NULL,
	PRIMARY KEY (role, skill)
);
CREATE TABLE IF NOT EXISTS user_skills (
	user_id TEXT NOT NULL,
	skill   TEXT NOT NULL,
	PRIMARY KEY (user_id, skill)
);
CREATE TABLE IF NOT EXISTS readiness_scores (
	id              TEXT PRIMARY KEY,
	transition_id   TEXT NOT NULL UNIQUE REFERENCES career_transitions (id) ON DELETE CASCADE,
	overall_score   INTEGER NOT NULL,
	market_score    INTEGER NOT NULL,
	skill_gap_score INTEGER NOT NULL,
	education_score INTEGER NOT NULL,
	trend_score     INTEGER NOT NULL,
	geography_score INTEGER NOT NULL,
	skill_gaps      JSONB NOT NULL DEFAULT '[]',
	observations    JSONB NOT NULL DEFAULT '[]',
	recommendations JSONB NOT NULL DEFAULT '{}',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS score_notifications (
	id            TEXT PRIMARY KEY,
	transition_id TEXT NOT NULL,
	recipient     TEXT NOT NULL,
	type          TEXT NOT NULL,
	channel       TEXT NOT NULL,
	status        TEXT NOT NULL,
	payload       JSONB NOT NULL DEFAULT '{}',
	sent_at       TIMESTAMPTZ,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

// EnsureSchema creates the tables the workers read and write. It is safe to
// call on every start.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create readiness schema: %w", err)
	}
	return nil
}
