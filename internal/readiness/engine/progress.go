package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	"readiness-workers/internal/common/logger"
	"readiness-workers/internal/models"
)

var ErrIllegalTransition = errors.New("ILLEGAL_PROGRESS_TRANSITION")

var allowedTransitions = map[models.ProgressState][]models.ProgressState{
	models.StateIdle:    {models.StateRunning},
	models.StateRunning: {models.StateComplete, models.StateFailed},
}

// Notifier receives every progress event. Delivery failures are logged by the
// tracker and never affect the generation.
type Notifier interface {
	Notify(ctx context.Context, event models.ProgressEvent) error
}

type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, models.ProgressEvent) error { return nil }

type Publisher interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

// SNSNotifier publishes progress events as JSON to a topic, grouped by
// transition for FIFO topics.
type SNSNotifier struct {
	publisher Publisher
	topicARN  string
	fifo      bool
}

func NewSNSNotifier(publisher Publisher, topicARN string) *SNSNotifier {
	return &SNSNotifier{
		publisher: publisher,
		topicARN:  topicARN,
		fifo:      len(topicARN) > 5 && topicARN[len(topicARN)-5:] == ".fifo",
	}
}

func (n *SNSNotifier) Notify(ctx context.Context, event models.ProgressEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode progress event: %w", err)
	}
	input := &sns.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"state": {DataType: aws.String("String"), StringValue: aws.String(string(event.State))},
		},
	}
	if n.fifo {
		input.MessageGroupId = aws.String(event.TransitionID)
		input.MessageDeduplicationId = aws.String(fmt.Sprintf("%s-%s-%d", event.TransitionID, event.State, event.At.UnixNano()))
	}
	if _, err := n.publisher.Publish(ctx, input); err != nil {
		return fmt.Errorf("publish progress event: %w", err)
	}
	return nil
}

// Tracker is the idle -> running -> complete|failed state machine of one
// score generation. Each accepted transition is emitted on the events channel
// (dropped if the channel is full) and to the notifier.
type Tracker struct {
	mu           sync.Mutex
	transitionID string
	state        models.ProgressState
	events       chan<- models.ProgressEvent
	notifier     Notifier
	logger       logger.Logger
	now          func() time.Time
}

func NewTracker(transitionID string, events chan<- models.ProgressEvent, notifier Notifier, log logger.Logger) *Tracker {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Tracker{
		transitionID: transitionID,
		state:        models.StateIdle,
		events:       events,
		notifier:     notifier,
		logger:       log,
		now:          time.Now,
	}
}

func (t *Tracker) State() models.ProgressState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Tracker) Advance(ctx context.Context, to models.ProgressState, message string) error {
	t.mu.Lock()
	if !allowed(t.state, to) {
		from := t.state
		t.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
	t.state = to
	event := models.ProgressEvent{
		TransitionID: t.transitionID,
		State:        to,
		Message:      message,
		At:           t.now().UTC(),
	}
	t.mu.Unlock()

	if t.events != nil {
		select {
		case t.events <- event:
		default:
			t.logger.Debug("progress channel full, event dropped", map[string]interface{}{"state": string(to)})
		}
	}
	if err := t.notifier.Notify(ctx, event); err != nil {
		t.logger.Warn("progress notification failed", map[string]interface{}{
			"state": string(to),
			"error": err,
		})
	}
	return nil
}

func allowed(from, to models.ProgressState) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
