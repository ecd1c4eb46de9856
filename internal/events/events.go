package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	TypeCourseCreated        = "course.created"
	TypeCourseActivated      = "course.activated"
	TypeCourseArchived       = "course.archived"
	TypeEnrollmentCreated    = "enrollment.created"
	TypeAnnouncementPosted   = "announcement.posted"
	TypeMaterialAdded        = "material.added"
	TypeAssignmentCreated    = "assignment.created"
	TypeSubmissionCreated    = "submission.created"
	TypeSubmissionResubmitted = "submission.resubmitted"
	TypeSubmissionGraded     = "submission.graded"
	TypeSubmissionWithdrawn  = "submission.withdrawn"
)

// Event records something that happened in the classroom.
type Event struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`
	// Type is one of the Type* constants
	Type string `json:"type"`
	// CourseID is the course the event belongs to
	CourseID uuid.UUID `json:"course_id"`
	// ActorID is the person whose action produced the event
	ActorID uuid.UUID `json:"actor_id"`
	// Payload contains the type-specific data serialized as JSON
	Payload json.RawMessage `json:"payload"`
	// OccurredAt is the domain time of the action
	OccurredAt time.Time `json:"occurred_at"`
}

// SubmissionPayload is the payload of submission.* events.
type SubmissionPayload struct {
	SubmissionID uuid.UUID `json:"submission_id"`
	AssignmentID uuid.UUID `json:"assignment_id"`
	StudentID    uuid.UUID `json:"student_id"`
	Late         bool      `json:"late"`
	Attempt      int       `json:"attempt"`
	// Percentage is set on submission.graded.
	Percentage *float64 `json:"percentage,omitempty"`
}

// CoursePayload is the payload of course, enrollment and content events.
type CoursePayload struct {
	Name      string    `json:"name,omitempty"`
	PersonID  uuid.UUID `json:"person_id,omitempty"`
	ContentID uuid.UUID `json:"content_id,omitempty"`
}

// AssignmentPayload is the payload of assignment.created.
type AssignmentPayload struct {
	AssignmentID uuid.UUID `json:"assignment_id"`
	DueAt        time.Time `json:"due_at"`
	MaxPoints    float64   `json:"max_points"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *Event) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewEvent creates an Event with the given type and payload.
func NewEvent(
	eventType string,
	courseID, actorID uuid.UUID,
	payload interface{},
	occurredAt time.Time,
) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:         uuid.New(),
		Type:       eventType,
		CourseID:   courseID,
		ActorID:    actorID,
		Payload:    payloadBytes,
		OccurredAt: occurredAt.UTC(),
	}, nil
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	HandleEvent(ctx context.Context, event *Event) error
}

// HandlerFunc adapts an ordinary function to EventHandler.
type HandlerFunc func(ctx context.Context, event *Event) error

// HandleEvent implements EventHandler.
func (f HandlerFunc) HandleEvent(ctx context.Context, event *Event) error {
	return f(ctx, event)
}

// EventEmitter defines an interface for components that can emit events.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *Event) error
}
