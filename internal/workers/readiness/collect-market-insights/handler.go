package collectmarketinsights

import (
	"context"
	stderrors "errors"
	"strings"
	"sync"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"readiness-workers/internal/archive"
	"readiness-workers/internal/common/camunda"
	"readiness-workers/internal/common/errors"
	"readiness-workers/internal/common/logger"
	"readiness-workers/internal/common/metrics"
	"readiness-workers/internal/common/validation"
	"readiness-workers/internal/models"
	"readiness-workers/internal/providers"
	"readiness-workers/internal/readiness/signals"
	"readiness-workers/internal/repository"
)

const TaskType = "collect-market-insights"

type Repository interface {
	GetTransition(ctx context.Context, id string) (*models.Transition, error)
	SaveInsights(ctx context.Context, insights []models.InsightRecord) (int, error)
}

type Archiver interface {
	Store(ctx context.Context, docs []archive.Document) (int, error)
}

// Source is one provider search. Providers never fail; an unavailable
// provider yields no documents.
type Source struct {
	Name   string
	Search func(ctx context.Context, q providers.SearchQuery) []models.Document
}

// ForumPosts adapts a forum client method to a Source.
func ForumPosts(name string, fn func(context.Context, providers.SearchQuery) []models.ForumPost) Source {
	return Source{Name: name, Search: func(ctx context.Context, q providers.SearchQuery) []models.Document {
		posts := fn(ctx, q)
		docs := make([]models.Document, len(posts))
		for i := range posts {
			docs[i] = posts[i]
		}
		return docs
	}}
}

// TrendArticles adapts a trend client method to a Source.
func TrendArticles(name string, fn func(context.Context, providers.SearchQuery) []models.TrendArticle) Source {
	return Source{Name: name, Search: func(ctx context.Context, q providers.SearchQuery) []models.Document {
		articles := fn(ctx, q)
		docs := make([]models.Document, len(articles))
		for i := range articles {
			docs[i] = articles[i]
		}
		return docs
	}}
}

type HandlerOptions struct {
	Config     *Config
	Repository Repository
	Sources    []Source
	// Archive is optional; without it documents are only classified.
	Archive   Archiver
	Validator *validation.Validator
	Logger    logger.Logger
}

type Handler struct {
	config     *Config
	repo       Repository
	sources    []Source
	archive    Archiver
	validator  *validation.Validator
	errHandler *errors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(opts HandlerOptions) *Handler {
	cfg := opts.Config
	if cfg == nil {
		cfg = LoadConfig(nil, nil)
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     cfg,
		repo:       opts.Repository,
		sources:    opts.Sources,
		archive:    opts.Archive,
		validator:  opts.Validator,
		errHandler: errors.NewErrorHandler(log),
		logger:     log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	var input Input
	if err := camunda.DecodeVariables(job, h.validator, TaskType, &input); err != nil {
		h.failJob(ctx, client, job, err)
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(ctx, client, job, err)
		return
	}

	camunda.CompleteJob(ctx, client, job, output, h.logger)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	id := strings.TrimSpace(input.TransitionID)
	if id == "" {
		return nil, errors.NewInvalidInputError("transitionId is required")
	}

	transition, err := h.repo.GetTransition(ctx, id)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NewTransitionNotFoundError(id)
		}
		return nil, errors.NewQueryExecutionFailedError("get_transition", err)
	}

	q := providers.SearchQuery{
		Query:   strings.TrimSpace(input.Query),
		Limit:   input.Limit,
		Filters: input.Filters,
	}
	if q.Query == "" {
		q.Query = transition.TargetRole
	}
	if q.Limit <= 0 {
		q.Limit = h.config.DefaultLimit
	}

	docs := h.search(ctx, q)

	out := &Output{
		DocumentCount: len(docs),
		Categories:    map[string]int{},
		Sources:       map[string]int{},
	}
	var insights []models.InsightRecord
	var archived []archive.Document
	for _, doc := range docs {
		records := signals.Classify(id, []models.Document{doc})
		if len(records) == 0 {
			continue
		}
		insights = append(insights, records...)
		out.Sources[doc.SourceName()]++
		for _, r := range records {
			out.Categories[string(r.Category)]++
		}
		archived = append(archived, archive.FromDocument(id, records[0].Category, doc))
	}
	out.InsightCount = len(insights)

	stored, err := h.repo.SaveInsights(ctx, insights)
	if err != nil {
		return nil, errors.NewDatabaseInsertFailedError(err)
	}
	out.StoredCount = stored

	if h.archive != nil && len(archived) > 0 {
		n, err := h.archive.Store(ctx, archived)
		if err != nil {
			h.logger.Warn("archiving documents failed", map[string]interface{}{
				"transitionId": id,
				"documents":    len(archived),
				"error":        err,
			})
		}
		out.ArchivedCount = n
	}

	h.logger.Info("market insights collected", map[string]interface{}{
		"transitionId": id,
		"query":        q.Query,
		"documents":    out.DocumentCount,
		"insights":     out.InsightCount,
		"stored":       out.StoredCount,
		"archived":     out.ArchivedCount,
	})
	return out, nil
}

// search queries every source concurrently and concatenates the results in
// source order.
func (h *Handler) search(ctx context.Context, q providers.SearchQuery) []models.Document {
	results := make([][]models.Document, len(h.sources))
	var wg sync.WaitGroup
	for i, src := range h.sources {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()
			results[i] = src.Search(ctx, q)
			h.logger.Debug("source searched", map[string]interface{}{
				"source":  src.Name,
				"results": len(results[i]),
			})
		}(i, src)
	}
	wg.Wait()

	var docs []models.Document
	for _, r := range results {
		docs = append(docs, r...)
	}
	return docs
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, camunda.ErrorCode(err)).Inc()
	h.errHandler.HandleJobError(ctx, client, job, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
