package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/classroom/internal/domain"
	"github.com/phrazzld/classroom/internal/events"
	"github.com/phrazzld/classroom/internal/platform/logger"
	"github.com/phrazzld/classroom/internal/store"
)

// Operation outcomes reported to an Observer.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Observer is told how every use case ended. metrics.Recorder satisfies it.
type Observer interface {
	ObserveOperation(operation, outcome string, started time.Time)
}

// Outcome classifies the error returned by a use case. Domain rejections such
// as permission or deadline failures are OutcomeRejected; a ServiceError is
// OutcomeError.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case isRejection(err):
		return OutcomeRejected
	default:
		return OutcomeError
	}
}

// Option customizes a service.
type Option func(*base)

// WithEmitter sets where committed changes are announced.
func WithEmitter(emitter events.EventEmitter) Option {
	return func(b *base) {
		if emitter != nil {
			b.emitter = emitter
		}
	}
}

// WithObserver sets the observer notified after every operation.
func WithObserver(observer Observer) Option {
	return func(b *base) { b.observer = observer }
}

// WithClock replaces time.Now for operations whose request omits a timestamp.
func WithClock(now func() time.Time) Option {
	return func(b *base) {
		if now != nil {
			b.now = now
		}
	}
}

// base holds what every service shares.
type base struct {
	tx       store.Transactor
	emitter  events.EventEmitter
	observer Observer
	now      func() time.Time
	logger   *slog.Logger
}

func newBase(tx store.Transactor, log *slog.Logger, component string, opts []Option) (base, error) {
	if tx == nil {
		return base{}, domain.NewValidationError("tx", "cannot be nil", domain.ErrValidation)
	}
	if log == nil {
		log = slog.Default()
	}
	b := base{
		tx:      tx,
		emitter: events.NopEmitter{},
		now:     time.Now,
		logger:  log.With(slog.String("component", component)),
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b, nil
}

// log returns the request-scoped logger when the context carries one.
func (b *base) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOrDefault(ctx, b.logger)
}

// track reports the outcome of an operation started at started. It is
// deferred with a pointer to the named error result.
func (b *base) track(operation string, started time.Time, errp *error) {
	if b.observer != nil {
		b.observer.ObserveOperation(operation, Outcome(*errp), started)
	}
}

// isRejection reports whether err is an expected domain outcome rather than a
// failure of the service itself.
func isRejection(err error) bool {
	var se *ServiceError
	return err != nil && !errors.As(err, &se)
}

func logOutcome(log *slog.Logger, what string, err error) {
	if isRejection(err) {
		log.Info(what+" rejected", slog.String("reason", err.Error()))
		return
	}
	log.Error(what+" failed", slog.String("error", err.Error()))
}

// at returns t, or the service clock when t is zero.
func (b *base) at(t time.Time) time.Time {
	if t.IsZero() {
		return b.now().UTC()
	}
	return t.UTC()
}

// emit publishes an event for a change that has already committed. Failures
// are logged and never returned.
func (b *base) emit(
	ctx context.Context,
	eventType string,
	courseID, actorID uuid.UUID,
	payload interface{},
	at time.Time,
) {
	event, err := events.NewEvent(eventType, courseID, actorID, payload, at)
	if err != nil {
		b.log(ctx).Error("failed to build event",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()))
		return
	}
	if err := b.emitter.EmitEvent(ctx, event); err != nil {
		b.log(ctx).Warn("event handler failed",
			slog.String("event_type", eventType),
			slog.String("event_id", event.ID.String()),
			slog.String("error", err.Error()))
	}
}

// resolveActor loads the person and the role they hold in courseID.
func resolveActor(
	ctx context.Context,
	repos store.Repos,
	operation string,
	personID, courseID uuid.UUID,
) (domain.Actor, error) {
	person, err := repos.Persons.GetByID(ctx, personID)
	if err != nil {
		return domain.Actor{}, translateStoreError(operation, "load person", err)
	}
	role, err := repos.Enrollments.RoleOf(ctx, personID, courseID)
	if err != nil {
		return domain.Actor{}, translateStoreError(operation, "resolve role", err)
	}
	return domain.NewActor(person, courseID, role), nil
}

// requireTeacher resolves personID and fails with ErrPermission unless they
// teach courseID.
func requireTeacher(
	ctx context.Context,
	repos store.Repos,
	operation string,
	personID, courseID uuid.UUID,
) (domain.Actor, error) {
	actor, err := resolveActor(ctx, repos, operation, personID, courseID)
	if err != nil {
		return domain.Actor{}, err
	}
	if !actor.IsTeacherOf(courseID) {
		return domain.Actor{}, fmt.Errorf("%w: %s requires the teacher role", domain.ErrPermission, operation)
	}
	return actor, nil
}
