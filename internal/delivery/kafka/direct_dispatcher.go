package kafka

import (
	"context"

	"github.com/azizikri/pawclub-functions/internal/domain"
	"github.com/azizikri/pawclub-functions/internal/usecase"
)

// Runner executes a single task.
type Runner interface {
	Run(ctx context.Context, task domain.Task) error
}

// DirectDispatcher runs tasks inline, for deployments without a broker.
type DirectDispatcher struct {
	runner Runner
}

func NewDirectDispatcher(runner Runner) usecase.Dispatcher {
	return &DirectDispatcher{runner: runner}
}

func (d *DirectDispatcher) Dispatch(ctx context.Context, task domain.Task) error {
	return d.runner.Run(ctx, task)
}
