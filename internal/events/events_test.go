package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	courseID, actorID := uuid.New(), uuid.New()
	pct := 92.5
	payload := SubmissionPayload{
		SubmissionID: uuid.New(),
		AssignmentID: uuid.New(),
		StudentID:    actorID,
		Late:         true,
		Attempt:      2,
		Percentage:   &pct,
	}
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.FixedZone("CET", 3600))

	event, err := NewEvent(TypeSubmissionGraded, courseID, actorID, payload, at)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, TypeSubmissionGraded, event.Type)
	assert.Equal(t, courseID, event.CourseID)
	assert.Equal(t, actorID, event.ActorID)
	assert.Equal(t, time.UTC, event.OccurredAt.Location())
	assert.True(t, at.Equal(event.OccurredAt))

	var decoded SubmissionPayload
	require.NoError(t, event.UnmarshalPayload(&decoded))
	assert.Equal(t, payload.SubmissionID, decoded.SubmissionID)
	assert.True(t, decoded.Late)
	assert.Equal(t, 2, decoded.Attempt)
	require.NotNil(t, decoded.Percentage)
	assert.InDelta(t, pct, *decoded.Percentage, 1e-9)
}

func TestNewEventRejectsUnencodablePayload(t *testing.T) {
	_, err := NewEvent(TypeCourseCreated, uuid.New(), uuid.New(), make(chan int), time.Now())
	assert.Error(t, err)
}

// MockEventHandler implements the EventHandler interface for testing
type MockEventHandler struct {
	// The last event received by this handler
	LastEvent *Event
	// Error to return from HandleEvent
	HandlerError error
	// Count of events handled
	HandledCount int
}

// HandleEvent implements the EventHandler interface
func (h *MockEventHandler) HandleEvent(ctx context.Context, event *Event) error {
	h.LastEvent = event
	h.HandledCount++
	return h.HandlerError
}

func TestHandlerFunc(t *testing.T) {
	var got *Event
	wantErr := errors.New("boom")
	h := HandlerFunc(func(_ context.Context, e *Event) error {
		got = e
		return wantErr
	})

	event, err := NewEvent(TypeCourseCreated, uuid.New(), uuid.New(), CoursePayload{Name: "Biology"}, time.Now())
	require.NoError(t, err)

	assert.ErrorIs(t, h.HandleEvent(context.Background(), event), wantErr)
	assert.Same(t, event, got)
}
