// Package repository is the Postgres persistence layer for transitions,
// collected insights, role and user skills, readiness scores and sent
// notifications.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"readiness-workers/internal/models"
)

// ErrNotFound is returned when a transition or score row does not exist.
var ErrNotFound = errors.New("not found")

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const getTransitionQuery = `
		SELECT id, user_id, from_role, target_role, created_at
		FROM career_transitions
		WHERE id = $1`

func (r *PostgresRepository) GetTransition(ctx context.Context, id string) (*models.Transition, error) {
	var t models.Transition
	err := r.db.QueryRowContext(ctx, getTransitionQuery, id).Scan(&t.ID, &t.UserID, &t.CurrentRole, &t.TargetRole, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get transition: %w", err)
	}
	return &t, nil
}

func (r *PostgresRepository) GetInsightsByTransitionID(ctx context.Context, transitionID string) ([]models.InsightRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, transition_id, source, category, content, url, created_at
		FROM transition_insights
		WHERE transition_id = $1
		ORDER BY created_at DESC`, transitionID)
	if err != nil {
		return nil, fmt.Errorf("get insights: %w", err)
	}
	defer rows.Close()

	insights := []models.InsightRecord{}
	for rows.Next() {
		var in models.InsightRecord
		var category string
		if err := rows.Scan(&in.ID, &in.TransitionID, &in.Source, &category, &in.Content, &in.URL, &in.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan insight: %w", err)
		}
		in.Category = models.InsightCategory(category)
		insights = append(insights, in)
	}
	return insights, rows.Err()
}

// SaveInsights inserts all records in one transaction. Records with an id
// already stored are skipped.
func (r *PostgresRepository) SaveInsights(ctx context.Context, insights []models.InsightRecord) (int, error) {
	if len(insights) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin insights tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transition_insights (id, transition_id, source, category, content, url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("prepare insight insert: %w", err)
	}
	defer stmt.Close()

	saved := 0
	for _, in := range insights {
		res, err := stmt.ExecContext(ctx, in.ID, in.TransitionID, in.Source, string(in.Category), in.Content, in.URL, in.CreatedAt.UTC())
		if err != nil {
			return 0, fmt.Errorf("insert insight %s: %w", in.ID, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			saved += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit insights: %w", err)
	}
	return saved, nil
}

func (r *PostgresRepository) GetRoleSkills(ctx context.Context, role string) ([]string, error) {
	return r.skills(ctx, `SELECT skill FROM role_skills WHERE LOWER(role) = LOWER($1) ORDER BY skill`, role)
}

func (r *PostgresRepository) GetUserSkills(ctx context.Context, userID string) ([]string, error) {
	return r.skills(ctx, `SELECT skill FROM user_skills WHERE user_id = $1 ORDER BY skill`, userID)
}

func (r *PostgresRepository) skills(ctx context.Context, query, arg string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("get skills: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var skill string
		if err := rows.Scan(&skill); err != nil {
			return nil, fmt.Errorf("scan skill: %w", err)
		}
		out = append(out, skill)
	}
	return out, rows.Err()
}

// UpsertScore keeps one row per transition. On regeneration the stored id and
// created_at survive and are written back into score.
func (r *PostgresRepository) UpsertScore(ctx context.Context, score *models.ReadinessScore) error {
	gaps, err := json.Marshal(score.SkillGaps)
	if err != nil {
		return fmt.Errorf("encode skill gaps: %w", err)
	}
	observations, err := json.Marshal(score.Observations)
	if err != nil {
		return fmt.Errorf("encode observations: %w", err)
	}
	recs, err := json.Marshal(score.Recommendations)
	if err != nil {
		return fmt.Errorf("encode recommendations: %w", err)
	}

	s := score.SubScores
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO readiness_scores (
			id, transition_id, overall_score,
			market_score, skill_gap_score, education_score, trend_score, geography_score,
			skill_gaps, observations, recommendations, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (transition_id) DO UPDATE SET
			overall_score   = EXCLUDED.overall_score,
			market_score    = EXCLUDED.market_score,
			skill_gap_score = EXCLUDED.skill_gap_score,
			education_score = EXCLUDED.education_score,
			trend_score     = EXCLUDED.trend_score,
			geography_score = EXCLUDED.geography_score,
			skill_gaps      = EXCLUDED.skill_gaps,
			observations    = EXCLUDED.observations,
			recommendations = EXCLUDED.recommendations,
			updated_at      = EXCLUDED.updated_at
		RETURNING id, created_at`,
		score.ID, score.TransitionID, score.OverallScore,
		s.Market, s.SkillGap, s.Education, s.Trend, s.Geography,
		gaps, observations, recs, score.CreatedAt.UTC(), score.UpdatedAt.UTC(),
	).Scan(&score.ID, &score.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert score: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetScore(ctx context.Context, transitionID string) (*models.ReadinessScore, error) {
	var (
		score                    models.ReadinessScore
		gaps, observations, recs []byte
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, transition_id, overall_score,
		       market_score, skill_gap_score, education_score, trend_score, geography_score,
		       skill_gaps, observations, recommendations, created_at, updated_at
		FROM readiness_scores
		WHERE transition_id = $1
		ORDER BY updated_at DESC
		LIMIT 1`, transitionID).Scan(
		&score.ID, &score.TransitionID, &score.OverallScore,
		&score.SubScores.Market, &score.SubScores.SkillGap, &score.SubScores.Education,
		&score.SubScores.Trend, &score.SubScores.Geography,
		&gaps, &observations, &recs, &score.CreatedAt, &score.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get score: %w", err)
	}

	if err := json.Unmarshal(gaps, &score.SkillGaps); err != nil {
		return nil, fmt.Errorf("decode skill gaps: %w", err)
	}
	if err := json.Unmarshal(observations, &score.Observations); err != nil {
		return nil, fmt.Errorf("decode observations: %w", err)
	}
	if err := json.Unmarshal(recs, &score.Recommendations); err != nil {
		return nil, fmt.Errorf("decode recommendations: %w", err)
	}
	return &score, nil
}

// ListTransitionIDs returns the ids of the given transitions that exist,
// used by batch regeneration from the CLI.
func (r *PostgresRepository) ListTransitionIDs(ctx context.Context, ids []string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM career_transitions WHERE id = ANY($1) ORDER BY id`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("list transitions: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan transition id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) SaveNotification(ctx context.Context, n *models.Notification) error {
	payload, err := json.Marshal(n.Payload)
	if err != nil {
		return fmt.Errorf("encode notification payload: %w", err)
	}
	var sentAt interface{}
	if !n.SentAt.IsZero() {
		sentAt = n.SentAt.UTC()
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO score_notifications (id, transition_id, recipient, type, channel, status, payload, sent_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		n.ID, n.TransitionID, n.Recipient, n.Type, n.Channel, n.Status, payload, sentAt, n.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// Ping is used by the readiness probe.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return r.db.PingContext(ctx)
}
