package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/azizikri/pawclub-functions/internal/domain"
	"github.com/azizikri/pawclub-functions/internal/usecase"
	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"
)

type producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Publisher produces side-effect tasks to the task topic. A consumer group
// executes them.
type Publisher struct {
	client producer
	now    func() time.Time
}

func NewPublisher(client *kgo.Client) *Publisher {
	return &Publisher{client: client, now: time.Now}
}

func (p *Publisher) Dispatch(ctx context.Context, task domain.Task) error {
	payload, err := json.Marshal(TaskPayload{
		SchemaVersion: SchemaVersion,
		TaskID:        uuid.NewString(),
		CreatedAt:     p.now().UTC(),
		Task:          task,
	})
	if err != nil {
		return fmt.Errorf("encode task: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, PublishTimeout)
	defer cancel()

	record := &kgo.Record{
		Topic: TopicTaskRequest,
		Key:   taskKey(task),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: AttemptsHeaderKey, Value: []byte("0")},
		},
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce %s task: %w", task.Kind, err)
	}
	return nil
}

// taskKey keeps one user's notifications on one partition.
func taskKey(task domain.Task) []byte {
	switch {
	case len(task.Notifications) > 0:
		return []byte(task.Notifications[0].UserID.String())
	case task.Event != nil && task.Event.UserID != nil:
		return []byte(task.Event.UserID.String())
	case task.Email != nil:
		return []byte(task.Email.To)
	default:
		return []byte(task.Kind)
	}
}

var _ usecase.Dispatcher = (*Publisher)(nil)
