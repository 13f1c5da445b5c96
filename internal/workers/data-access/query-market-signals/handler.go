package querymarketsignals

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
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
)

const TaskType = "query-market-signals"

type Searcher interface {
	Search(ctx context.Context, q archive.SearchQuery) (*archive.SearchResult, error)
}

type HandlerOptions struct {
	Config    *Config
	Archive   Searcher
	Validator *validation.Validator
	Logger    logger.Logger
}

type Handler struct {
	config     *Config
	archive    Searcher
	validator  *validation.Validator
	errHandler *errors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(opts HandlerOptions) *Handler {
	cfg := opts.Config
	if cfg == nil {
		cfg = LoadConfig(nil, nil)
	}
	if cfg.Index == "" {
		cfg.Index = archive.DefaultIndex
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     cfg,
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
	q, err := buildQuery(input)
	if err != nil {
		return nil, err
	}

	result, err := h.archive.Search(ctx, q)
	if err != nil {
		switch {
		case stderrors.Is(err, archive.ErrIndexNotFound):
			return nil, errors.NewIndexNotFoundError(h.config.Index)
		case stderrors.Is(err, context.DeadlineExceeded), stderrors.Is(ctx.Err(), context.DeadlineExceeded):
			return nil, errors.NewSearchTimeoutError(h.config.Index)
		default:
			return nil, errors.NewSearchQueryFailedError(h.config.Index, err)
		}
	}

	docs := result.Documents
	if docs == nil {
		docs = []archive.Document{}
	}
	h.logger.Info("market signals queried", map[string]interface{}{
		"keywords":  q.Keywords,
		"category":  q.Category,
		"totalHits": result.TotalHits,
		"returned":  len(docs),
	})
	return &Output{
		Documents: docs,
		TotalHits: result.TotalHits,
		MaxScore:  result.MaxScore,
		TookMs:    result.Took,
	}, nil
}

func buildQuery(input *Input) (archive.SearchQuery, error) {
	q := archive.SearchQuery{
		Keywords:     strings.TrimSpace(input.Keywords),
		TransitionID: strings.TrimSpace(input.TransitionID),
		Category:     input.Category,
		Source:       strings.ToLower(strings.TrimSpace(input.Source)),
		From:         input.Pagination.From,
		Size:         input.Pagination.Size,
	}
	if q.Category != "" && !models.InsightCategory(q.Category).Valid() {
		return q, errors.NewInvalidInputError(fmt.Sprintf("unknown category %q", q.Category))
	}
	if q.From < 0 {
		return q, errors.NewInvalidInputError("pagination.from must not be negative")
	}
	if input.DateFrom != "" {
		from, err := parseDate(input.DateFrom)
		if err != nil {
			return q, errors.NewInvalidInputError(fmt.Sprintf("dateFrom: %v", err))
		}
		q.DateFrom = from
	}
	return q, nil
}

// parseDate accepts RFC3339 timestamps and plain YYYY-MM-DD dates.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected RFC3339 or YYYY-MM-DD, got %q", s)
	}
	return t, nil
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, camunda.ErrorCode(err)).Inc()
	h.errHandler.HandleJobError(ctx, client, job, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
