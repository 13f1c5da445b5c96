package sendscoresummary

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	"readiness-workers/internal/common/camunda"
	"readiness-workers/internal/common/errors"
	"readiness-workers/internal/common/logger"
	"readiness-workers/internal/common/metrics"
	"readiness-workers/internal/common/validation"
	"readiness-workers/internal/models"
)

const TaskType = "send-score-summary"

type ScoreReader interface {
	GetScore(ctx context.Context, transitionID string) (*models.ReadinessScore, error)
}

type NotificationStore interface {
	SaveNotification(ctx context.Context, n *models.Notification) error
}

type Mailer interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

type HandlerOptions struct {
	Config        *Config
	Scores        ScoreReader
	Notifications NotificationStore
	Mailer        Mailer
	Validator     *validation.Validator
	Logger        logger.Logger
}

type Handler struct {
	config        *Config
	scores        ScoreReader
	notifications NotificationStore
	mailer        Mailer
	validator     *validation.Validator
	errHandler    *errors.ErrorHandler
	logger        logger.Logger
	now           func() time.Time
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
		config:        cfg,
		scores:        opts.Scores,
		notifications: opts.Notifications,
		mailer:        opts.Mailer,
		validator:     opts.Validator,
		errHandler:    errors.NewErrorHandler(log),
		logger:        log,
		now:           time.Now,
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
	recipient := strings.TrimSpace(input.RecipientEmail)
	if id == "" {
		return nil, errors.NewInvalidInputError("transitionId is required")
	}
	if !validation.ValidateEmail(recipient) {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("recipientEmail %q is not a valid address", recipient))
	}

	score, err := h.scores.GetScore(ctx, id)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("get_score", err)
	}
	if score == nil {
		return nil, errors.NewScoreNotFoundError(id)
	}

	s := newSummary(input.RecipientName, score)
	now := h.now().UTC()
	n := &models.Notification{
		ID:           uuid.New().String(),
		TransitionID: id,
		Recipient:    recipient,
		Type:         "score_summary",
		Channel:      "email",
		Payload: map[string]interface{}{
			"overallScore": score.OverallScore,
			"scoreId":      score.ID,
			"subject":      s.subject(),
		},
		CreatedAt: now,
	}
	out := &Output{NotificationID: n.ID, OverallScore: score.OverallScore}

	if !h.config.EmailEnabled || h.mailer == nil {
		n.Status = StatusDisabled
		out.Status = StatusDisabled
		h.record(ctx, n)
		h.logger.Info("email disabled, summary not sent", map[string]interface{}{"transitionId": id})
		return out, nil
	}

	text, html, err := s.render()
	if err != nil {
		return nil, errors.NewNotificationSendFailedError("email", err)
	}

	resp, err := h.mailer.SendEmail(ctx, &ses.SendEmailInput{
		Source:      aws.String(h.config.FromEmail),
		Destination: &types.Destination{ToAddresses: []string{recipient}},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(s.subject()), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(text), Charset: aws.String("UTF-8")},
				Html: &types.Content{Data: aws.String(html), Charset: aws.String("UTF-8")},
			},
		},
	})
	if err != nil {
		n.Status = StatusFailed
		n.Payload["error"] = err.Error()
		h.record(ctx, n)
		return nil, errors.NewNotificationSendFailedError("email", err)
	}

	n.Status = StatusSent
	n.SentAt = now
	if resp != nil && resp.MessageId != nil {
		out.MessageID = *resp.MessageId
		n.Payload["messageId"] = out.MessageID
	}
	h.record(ctx, n)

	out.Status = StatusSent
	h.logger.Info("score summary sent", map[string]interface{}{
		"transitionId":   id,
		"notificationId": n.ID,
		"messageId":      out.MessageID,
	})
	return out, nil
}

// record stores the notification row. A failure is logged only, since the
// email has already gone out and a retry would send it twice.
func (h *Handler) record(ctx context.Context, n *models.Notification) {
	if h.notifications == nil {
		return
	}
	if err := h.notifications.SaveNotification(ctx, n); err != nil {
		h.logger.Warn("failed to record notification", map[string]interface{}{
			"notificationId": n.ID,
			"status":         n.Status,
			"error":          err,
		})
	}
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, camunda.ErrorCode(err)).Inc()
	h.errHandler.HandleJobError(ctx, client, job, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
