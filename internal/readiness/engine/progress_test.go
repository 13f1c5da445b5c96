package engine

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readiness-workers/internal/common/logger"
	"readiness-workers/internal/models"
)

type fakePublisher struct {
	inputs []*sns.PublishInput
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, in *sns.PublishInput) (*sns.PublishOutput, error) {
	p.inputs = append(p.inputs, in)
	if p.err != nil {
		return nil, p.err
	}
	return &sns.PublishOutput{MessageId: aws.String("m-1")}, nil
}

type recordingNotifier struct {
	events []models.ProgressEvent
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, ev models.ProgressEvent) error {
	n.events = append(n.events, ev)
	return n.err
}

func TestTracker_Transitions(t *testing.T) {
	tests := []struct {
		name    string
		path    []models.ProgressState
		wantErr bool
		final   models.ProgressState
	}{
		{"complete", []models.ProgressState{models.StateRunning, models.StateComplete}, false, models.StateComplete},
		{"failed", []models.ProgressState{models.StateRunning, models.StateFailed}, false, models.StateFailed},
		{"skip running", []models.ProgressState{models.StateComplete}, true, models.StateIdle},
		{"restart after complete", []models.ProgressState{models.StateRunning, models.StateComplete, models.StateRunning}, true, models.StateComplete},
		{"complete twice", []models.ProgressState{models.StateRunning, models.StateComplete, models.StateComplete}, true, models.StateComplete},
		{"back to idle", []models.ProgressState{models.StateRunning, models.StateIdle}, true, models.StateRunning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker("t-1", nil, nil, logger.NewNoOpLogger())
			var err error
			for _, s := range tt.path {
				err = tr.Advance(context.Background(), s, "")
			}
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrIllegalTransition)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.final, tr.State())
		})
	}
}

func TestTracker_EventsAndNotifier(t *testing.T) {
	events := make(chan models.ProgressEvent, 1)
	notifier := &recordingNotifier{err: errors.New("topic unavailable")}
	tr := NewTracker("t-9", events, notifier, logger.NewTestLogger(t))
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return fixed }

	require.NoError(t, tr.Advance(context.Background(), models.StateRunning, "started"))
	// channel is full now; the second event is dropped, not blocked on
	require.NoError(t, tr.Advance(context.Background(), models.StateComplete, "done"))

	ev := <-events
	assert.Equal(t, models.ProgressEvent{TransitionID: "t-9", State: models.StateRunning, Message: "started", At: fixed}, ev)
	assert.Len(t, notifier.events, 2, "notifier errors do not stop the tracker")
	assert.Equal(t, models.StateComplete, tr.State())
}

func TestSNSNotifier(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	event := models.ProgressEvent{TransitionID: "t-1", State: models.StateComplete, Message: "overall score 72", At: at}

	t.Run("standard topic", func(t *testing.T) {
		pub := &fakePublisher{}
		n := NewSNSNotifier(pub, "arn:aws:sns:eu-west-1:123456789012:readiness-progress")
		require.NoError(t, n.Notify(context.Background(), event))

		require.Len(t, pub.inputs, 1)
		in := pub.inputs[0]
		assert.Nil(t, in.MessageGroupId)
		assert.Nil(t, in.MessageDeduplicationId)
		assert.Equal(t, "complete", aws.ToString(in.MessageAttributes["state"].StringValue))

		var decoded models.ProgressEvent
		require.NoError(t, json.Unmarshal([]byte(aws.ToString(in.Message)), &decoded))
		assert.Equal(t, event, decoded)
	})

	t.Run("fifo topic", func(t *testing.T) {
		pub := &fakePublisher{}
		n := NewSNSNotifier(pub, "arn:aws:sns:eu-west-1:123456789012:readiness-progress.fifo")
		require.NoError(t, n.Notify(context.Background(), event))

		in := pub.inputs[0]
		assert.Equal(t, "t-1", aws.ToString(in.MessageGroupId))
		assert.Contains(t, aws.ToString(in.MessageDeduplicationId), "t-1-complete-")
	})

	t.Run("publish failure", func(t *testing.T) {
		pub := &fakePublisher{err: errors.New("throttled")}
		err := NewSNSNotifier(pub, "arn:topic").Notify(context.Background(), event)
		assert.ErrorContains(t, err, "throttled")
	})
}
