package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	db "github.com/azizikri/pawclub-functions/db/gen"
	"github.com/azizikri/pawclub-functions/internal/domain"
	"github.com/azizikri/pawclub-functions/internal/metrics"
	"github.com/azizikri/pawclub-functions/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

const (
	DefaultGracePeriod = 7 * 24 * time.Hour
	DefaultPageSize    = 1000

	// DeleteAllUsersConfirmation must be sent verbatim to delete-all-users.
	DeleteAllUsersConfirmation = "DELETE_ALL_USERS"

	verificationTTL  = 24 * time.Hour
	passwordResetTTL = time.Hour
)

type Options struct {
	GracePeriod time.Duration
	PageSize    int
	AppBaseURL  string
	Now         func() time.Time
}

type Service struct {
	store      repository.Store
	dispatcher Dispatcher
	opts       Options
}

func NewService(store repository.Store, dispatcher Dispatcher, opts Options) *Service {
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = DefaultGracePeriod
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{store: store, dispatcher: dispatcher, opts: opts}
}

func (s *Service) now() time.Time {
	return s.opts.Now().UTC()
}

// dispatch hands tasks to the dispatcher after the primary write committed.
// Failures are logged and counted, never returned.
func (s *Service) dispatch(ctx context.Context, operation string, tasks ...domain.Task) {
	logger := zerolog.Ctx(ctx)
	for _, task := range tasks {
		if err := s.dispatcher.Dispatch(ctx, task); err != nil {
			metrics.SideEffects.WithLabelValues(string(task.Kind), "failed").Inc()
			logger.Error().Err(err).
				Str("operation", operation).
				Str("kind", string(task.Kind)).
				Msg("side effect failed")
			continue
		}
		metrics.SideEffects.WithLabelValues(string(task.Kind), "dispatched").Inc()
	}
}

func parseID(value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q is not a valid id", domain.ErrInvalidInput, value)
	}
	return id, nil
}

func notFound(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return fmt.Errorf("load %s: %w", what, err)
}

// requireBusinessOwner checks, under the caller's own access, that the
// business exists and belongs to them.
func (s *Service) requireBusinessOwner(ctx context.Context, callerID, businessID uuid.UUID) (string, error) {
	var name string
	err := s.store.ExecTx(ctx, repository.AsUser(callerID), func(q repository.Querier) error {
		business, err := q.GetBusinessForOwner(ctx, db.GetBusinessForOwnerParams{
			ID:      businessID,
			OwnerID: callerID,
		})
		if err != nil {
			return err
		}
		name = business.BusinessName
		return nil
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("business %s: %w", businessID, domain.ErrForbidden)
		}
		return "", fmt.Errorf("check business owner: %w", err)
	}
	return name, nil
}
