// Package engine owns the readiness score lifecycle: it gathers one snapshot
// of provider data and stored insights, runs the signal extractors, weights
// their sub-scores, synthesizes recommendations and upserts the result.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"readiness-workers/internal/common/logger"
	"readiness-workers/internal/common/metrics"
	"readiness-workers/internal/common/observability"
	"readiness-workers/internal/models"
	"readiness-workers/internal/providers"
	"readiness-workers/internal/readiness/recommend"
	"readiness-workers/internal/readiness/signals"
	"readiness-workers/internal/repository"
)

var (
	ErrTransitionNotFound = errors.New("TRANSITION_NOT_FOUND")
	ErrScorePersist       = errors.New("SCORE_PERSIST_FAILED")
)

const DefaultJobListingLimit = 50

type Repository interface {
	GetTransition(ctx context.Context, id string) (*models.Transition, error)
	GetInsightsByTransitionID(ctx context.Context, transitionID string) ([]models.InsightRecord, error)
	GetRoleSkills(ctx context.Context, role string) ([]string, error)
	GetUserSkills(ctx context.Context, userID string) ([]string, error)
	UpsertScore(ctx context.Context, score *models.ReadinessScore) error
	GetScore(ctx context.Context, transitionID string) (*models.ReadinessScore, error)
}

type JobSearcher interface {
	SearchJobs(ctx context.Context, q providers.SearchQuery) []models.NormalizedListing
}

type Options struct {
	Repository  Repository
	Jobs        JobSearcher
	Synthesizer *recommend.Synthesizer
	Notifier    Notifier
	// Events, when set, receives every progress event without blocking.
	Events          chan<- models.ProgressEvent
	JobListingLimit int
	Observability   *observability.Observability
	Logger          logger.Logger
}

type Engine struct {
	repo       Repository
	jobs       JobSearcher
	synth      *recommend.Synthesizer
	notifier   Notifier
	events     chan<- models.ProgressEvent
	jobLimit   int
	obs        *observability.Observability
	extractors []signals.Extractor
	logger     logger.Logger
	now        func() time.Time
}

func New(opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	synth := opts.Synthesizer
	if synth == nil {
		synth = recommend.New(log)
	}
	limit := opts.JobListingLimit
	if limit <= 0 || limit > DefaultJobListingLimit {
		limit = DefaultJobListingLimit
	}
	return &Engine{
		repo:       opts.Repository,
		jobs:       opts.Jobs,
		synth:      synth,
		notifier:   opts.Notifier,
		events:     opts.Events,
		jobLimit:   limit,
		obs:        opts.Observability,
		extractors: signals.All,
		logger:     log.WithFields(map[string]interface{}{"component": "engine"}),
		now:        time.Now,
	}
}

// GenerateScore computes and upserts the readiness score for a transition.
// Only an unknown transition or a failed upsert is an error; every missing
// signal degrades to its neutral default.
func (e *Engine) GenerateScore(ctx context.Context, transitionID string) (*models.ReadinessScore, error) {
	start := e.now()
	log := e.logger.WithFields(map[string]interface{}{"transitionId": transitionID})
	tracker := NewTracker(transitionID, e.events, e.notifier, log)
	_ = tracker.Advance(ctx, models.StateRunning, "gathering market signals")

	score, err := e.generate(ctx, transitionID, log)
	status := "success"
	if err != nil {
		status = "failed"
		_ = tracker.Advance(ctx, models.StateFailed, err.Error())
	} else {
		_ = tracker.Advance(ctx, models.StateComplete, fmt.Sprintf("overall score %d", score.OverallScore))
	}
	metrics.ScoreGenerations.WithLabelValues(status).Inc()
	e.obs.RecordGeneration(ctx, status, e.now().Sub(start))
	return score, err
}

func (e *Engine) generate(ctx context.Context, transitionID string, log logger.Logger) (*models.ReadinessScore, error) {
	transition, err := e.repo.GetTransition(ctx, transitionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrTransitionNotFound, transitionID)
		}
		return nil, fmt.Errorf("load transition %s: %w", transitionID, err)
	}

	snap := e.snapshot(ctx, transition, log)
	results := e.extract(snap, log)

	sub := models.SubScores{
		Market:    results[signals.NameMarket].Score,
		SkillGap:  results[signals.NameSkillGap].Score,
		Education: results[signals.NameEducation].Score,
		Trend:     results[signals.NameTrend].Score,
		Geography: results[signals.NameGeography].Score,
	}
	gaps := results[signals.NameSkillGap].SkillGaps
	if gaps == nil {
		gaps = []models.SkillGapEntry{}
	}

	var observations []string
	for _, ex := range e.extractors {
		observations = append(observations, results[ex.Name].Observations...)
	}

	now := e.now().UTC()
	score := &models.ReadinessScore{
		ID:           uuid.New().String(),
		TransitionID: transitionID,
		OverallScore: Overall(sub),
		SubScores:    sub,
		SkillGaps:    gaps,
		Observations: observations,
		Recommendations: e.synth.Synthesize(&recommend.Input{
			Snapshot:  snap,
			SubScores: sub,
			SkillGaps: gaps,
		}),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := e.repo.UpsertScore(ctx, score); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScorePersist, err)
	}

	neutral := 0
	for _, v := range []int{sub.Market, sub.SkillGap, sub.Education, sub.Trend, sub.Geography} {
		if v == signals.Neutral {
			neutral++
		}
	}
	e.obs.RecordScore(ctx, score.OverallScore, neutral)
	log.Info("readiness score generated", map[string]interface{}{
		"overall":   score.OverallScore,
		"subScores": sub,
		"lowSignal": sub.AllNeutral(),
		"skillGaps": len(gaps),
		"listings":  len(snap.Jobs),
		"insights":  countInsights(snap),
	})
	return score, nil
}

// snapshot fetches every input once. Fetches run concurrently; any failure
// is logged and replaced by empty data.
func (e *Engine) snapshot(ctx context.Context, t *models.Transition, log logger.Logger) *signals.Snapshot {
	var (
		wg                          sync.WaitGroup
		insights                    []models.InsightRecord
		userSkills, current, target []string
		jobs                        []models.NormalizedListing
	)

	fetch := func(what string, fn func() error) {
		defer wg.Done()
		if err := fn(); err != nil {
			log.Warn("input fetch failed, continuing without it", map[string]interface{}{
				"input": what,
				"error": err,
			})
		}
	}

	wg.Add(5)
	go fetch("insights", func() (err error) {
		insights, err = e.repo.GetInsightsByTransitionID(ctx, t.ID)
		return err
	})
	go fetch("user_skills", func() (err error) {
		userSkills, err = e.repo.GetUserSkills(ctx, t.UserID)
		return err
	})
	go fetch("current_role_skills", func() (err error) {
		current, err = e.repo.GetRoleSkills(ctx, t.CurrentRole)
		return err
	})
	go fetch("target_role_skills", func() (err error) {
		target, err = e.repo.GetRoleSkills(ctx, t.TargetRole)
		return err
	})
	go fetch("job_listings", func() error {
		if e.jobs == nil {
			return nil
		}
		jobs = e.jobs.SearchJobs(ctx, providers.SearchQuery{Query: t.TargetRole, Limit: e.jobLimit})
		return nil
	})
	wg.Wait()

	return signals.NewSnapshot(t.TargetRole, jobs, insights, userSkills, current, target)
}

// extract runs every extractor concurrently against the same snapshot. A
// panicking extractor yields the neutral default.
func (e *Engine) extract(snap *signals.Snapshot, log logger.Logger) map[string]signals.Signal {
	out := make([]signals.Signal, len(e.extractors))
	var wg sync.WaitGroup
	for i, ex := range e.extractors {
		wg.Add(1)
		go func(i int, ex signals.Extractor) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					metrics.ScoreSignalFallbacks.WithLabelValues(ex.Name).Inc()
					log.Warn("signal extractor failed, using neutral default", map[string]interface{}{
						"signal": ex.Name,
						"panic":  fmt.Sprint(r),
					})
					out[i] = signals.Signal{
						Score:        signals.Neutral,
						Observations: []string{fmt.Sprintf("The %s signal could not be computed", ex.Name)},
					}
				}
			}()
			out[i] = ex.Fn(snap)
		}(i, ex)
	}
	wg.Wait()

	results := make(map[string]signals.Signal, len(out))
	for i, ex := range e.extractors {
		results[ex.Name] = out[i]
	}
	return results
}

// GetScore returns the latest score for a transition, or nil when none exists.
func (e *Engine) GetScore(ctx context.Context, transitionID string) (*models.ReadinessScore, error) {
	score, err := e.repo.GetScore(ctx, transitionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load score %s: %w", transitionID, err)
	}
	return score, nil
}

func countInsights(s *signals.Snapshot) int {
	n := 0
	for _, group := range s.Insights {
		n += len(group)
	}
	return n
}
