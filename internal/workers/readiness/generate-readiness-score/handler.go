package generatereadinessscore

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"readiness-workers/internal/common/camunda"
	"readiness-workers/internal/common/errors"
	"readiness-workers/internal/common/logger"
	"readiness-workers/internal/common/metrics"
	"readiness-workers/internal/common/validation"
	"readiness-workers/internal/models"
	"readiness-workers/internal/readiness/engine"
)

const TaskType = "generate-readiness-score"

type ScoreGenerator interface {
	GenerateScore(ctx context.Context, transitionID string) (*models.ReadinessScore, error)
}

type HandlerOptions struct {
	Config    *Config
	Engine    ScoreGenerator
	Validator *validation.Validator
	Logger    logger.Logger
}

type Handler struct {
	config     *Config
	engine     ScoreGenerator
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
		engine:     opts.Engine,
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

	score, err := h.engine.GenerateScore(ctx, id)
	switch {
	case err == nil:
	case stderrors.Is(err, engine.ErrTransitionNotFound):
		return nil, errors.NewTransitionNotFoundError(id)
	case stderrors.Is(err, engine.ErrScorePersist):
		return nil, errors.NewScorePersistFailedError(err)
	default:
		return nil, errors.NewQueryExecutionFailedError("get_transition", err)
	}

	h.logger.Info("readiness score generated", map[string]interface{}{
		"transitionId": id,
		"overall":      score.OverallScore,
	})
	return &Output{
		ReadinessScore: score,
		LowConfidence:  score.SubScores.AllNeutral(),
	}, nil
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, camunda.ErrorCode(err)).Inc()
	h.errHandler.HandleJobError(ctx, client, job, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
