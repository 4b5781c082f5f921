package usecase

import (
	"context"
	"fmt"

	db "github.com/azizikri/pawclub-functions/db/gen"
	"github.com/azizikri/pawclub-functions/internal/domain"
	"github.com/azizikri/pawclub-functions/internal/repository"
)

// TaskRunner executes deferred side effects. It is driven inline by the
// direct dispatcher or by the Kafka consumer.
type TaskRunner struct {
	store  repository.Store
	mailer Mailer
}

func NewTaskRunner(store repository.Store, mailer Mailer) *TaskRunner {
	return &TaskRunner{store: store, mailer: mailer}
}

func (r *TaskRunner) Run(ctx context.Context, task domain.Task) error {
	switch task.Kind {
	case domain.TaskNotify:
		return r.store.ExecTx(ctx, repository.AsService(), func(q repository.Querier) error {
			return q.InsertNotifications(ctx, notificationParams(task.Notifications))
		})
	case domain.TaskAnalytics:
		if task.Event == nil {
			return fmt.Errorf("analytics task without event")
		}
		return r.store.ExecTx(ctx, repository.AsService(), func(q repository.Querier) error {
			return q.InsertAnalyticsEvent(ctx, db.InsertAnalyticsEventParams{
				UserID:    task.Event.UserID,
				EventType: task.Event.EventType,
				EventData: task.Event.EventData,
			})
		})
	case domain.TaskEmail:
		if task.Email == nil {
			return fmt.Errorf("email task without message")
		}
		return r.mailer.Send(ctx, *task.Email)
	default:
		return fmt.Errorf("unknown task kind %q", task.Kind)
	}
}

func notificationParams(notifications []domain.Notification) []db.InsertNotificationParams {
	params := make([]db.InsertNotificationParams, 0, len(notifications))
	for _, n := range notifications {
		params = append(params, db.InsertNotificationParams{
			UserID:  n.UserID,
			Type:    n.Type,
			Title:   n.Title,
			Message: n.Message,
			Data:    n.Data,
		})
	}
	return params
}
