package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/classroom/internal/domain"
	"github.com/phrazzld/classroom/internal/redact"
	"github.com/phrazzld/classroom/internal/store"
)

// ErrEmailTaken is returned when registering an email that already belongs
// to someone. It wraps domain.ErrValidation.
var ErrEmailTaken = fmt.Errorf("%w: email already registered", domain.ErrValidation)

// PersonService registers and looks up people.
type PersonService interface {
	// Register creates a person with the given name and email.
	Register(ctx context.Context, name, email string) (*domain.Person, error)

	// Get retrieves a person by ID.
	Get(ctx context.Context, id uuid.UUID) (*domain.Person, error)

	// GetByEmail retrieves a person by email address.
	GetByEmail(ctx context.Context, email string) (*domain.Person, error)
}

type personServiceImpl struct {
	base
}

// NewPersonService creates a PersonService.
func NewPersonService(tx store.Transactor, logger *slog.Logger, opts ...Option) (PersonService, error) {
	b, err := newBase(tx, logger, "person_service", opts)
	if err != nil {
		return nil, err
	}
	return &personServiceImpl{base: b}, nil
}

// Register implements PersonService.Register.
func (s *personServiceImpl) Register(ctx context.Context, name, email string) (p *domain.Person, err error) {
	const op = "register_person"
	defer s.track(op, time.Now(), &err)

	log := s.log(ctx).With(slog.String("email", redact.Email(email)))

	p, err = domain.NewPerson(name, email)
	if err != nil {
		log.Debug("invalid person", slog.String("error", err.Error()))
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context, repos store.Repos) error {
		return repos.Persons.Create(ctx, p)
	})
	if err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			log.Debug("attempted to register existing email")
			return nil, ErrEmailTaken
		}
		log.Error("failed to save person", slog.String("error", err.Error()))
		return nil, NewServiceError(op, "failed to save person", err)
	}

	log.Info("person registered", slog.String("person_id", p.ID.String()))
	return p, nil
}

// Get implements PersonService.Get.
func (s *personServiceImpl) Get(ctx context.Context, id uuid.UUID) (p *domain.Person, err error) {
	err = s.tx.RunInTx(ctx, func(ctx context.Context, repos store.Repos) error {
		p, err = repos.Persons.GetByID(ctx, id)
		return translateStoreError("get_person", "load person", err)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetByEmail implements PersonService.GetByEmail.
func (s *personServiceImpl) GetByEmail(ctx context.Context, email string) (p *domain.Person, err error) {
	email = strings.TrimSpace(email)
	err = s.tx.RunInTx(ctx, func(ctx context.Context, repos store.Repos) error {
		p, err = repos.Persons.GetByEmail(ctx, email)
		return translateStoreError("get_person_by_email", "load person", err)
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.log(ctx).Debug("person not found by email", slog.String("email", redact.Email(email)))
		}
		return nil, err
	}
	return p, nil
}
