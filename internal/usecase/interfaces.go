package usecase

import (
	"context"

	"github.com/azizikri/pawclub-functions/internal/domain"
)

// Dispatcher hands a deferred side effect to whatever executes it.
type Dispatcher interface {
	Dispatch(ctx context.Context, task domain.Task) error
}

type Mailer interface {
	Send(ctx context.Context, msg domain.Email) error
}
