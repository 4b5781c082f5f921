package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/azizikri/pawclub-functions/internal/domain"
	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"
)

type fakeProducer struct {
	mu      sync.Mutex
	records []*kgo.Record
	err     error
}

func (p *fakeProducer) ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	p.mu.Lock()
	defer p.mu.Unlock()
	results := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		if p.err == nil {
			p.records = append(p.records, r)
		}
		results = append(results, kgo.ProduceResult{Record: r, Err: p.err})
	}
	return results
}

type fakeRunner struct {
	runFn func(ctx context.Context, task domain.Task) error
	ran   []domain.Task
}

func (r *fakeRunner) Run(ctx context.Context, task domain.Task) error {
	r.ran = append(r.ran, task)
	if r.runFn != nil {
		return r.runFn(ctx, task)
	}
	return nil
}

var testNow = time.Date(2026, time.March, 14, 10, 30, 0, 0, time.UTC)

func newTestConsumer(runner Runner, producer *fakeProducer) *Consumer {
	return &Consumer{
		producer:    producer,
		runner:      runner,
		maxAttempts: 3,
		now:         func() time.Time { return testNow },
		ready:       make(chan struct{}),
	}
}

func taskRecord(t *testing.T, topic string, attempts string) *kgo.Record {
	t.Helper()
	value, err := json.Marshal(TaskPayload{
		SchemaVersion: SchemaVersion,
		TaskID:        "task-1",
		Task:          domain.NotifyTask(domain.Notification{UserID: uuid.New(), Type: domain.NotificationRedemption}),
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	record := &kgo.Record{Topic: topic, Key: []byte("k"), Value: value}
	if attempts != "" {
		record.Headers = []kgo.RecordHeader{{Key: AttemptsHeaderKey, Value: []byte(attempts)}}
	}
	return record
}

func TestProcessRecord_Success(t *testing.T) {
	producer := &fakeProducer{}
	runner := &fakeRunner{}
	c := newTestConsumer(runner, producer)

	c.processRecord(context.Background(), taskRecord(t, TopicTaskRequest, "0"))

	if len(runner.ran) != 1 || runner.ran[0].Kind != domain.TaskNotify {
		t.Fatalf("expected the task to run once, got %+v", runner.ran)
	}
	if len(producer.records) != 0 {
		t.Fatalf("expected nothing produced, got %d records", len(producer.records))
	}
}

func TestProcessRecord_FailureSchedulesRetry(t *testing.T) {
	producer := &fakeProducer{}
	runner := &fakeRunner{runFn: func(context.Context, domain.Task) error { return errors.New("db down") }}
	c := newTestConsumer(runner, producer)

	c.processRecord(context.Background(), taskRecord(t, TopicTaskRequest, "0"))

	if len(producer.records) != 1 {
		t.Fatalf("expected 1 retry record, got %d", len(producer.records))
	}
	retry := producer.records[0]
	if retry.Topic != TopicTaskRetry {
		t.Fatalf("expected retry topic, got %s", retry.Topic)
	}
	if attemptsOf(retry) != 1 {
		t.Fatalf("expected attempts 1, got %d", attemptsOf(retry))
	}
	nextAt, ok := retryNextAt(retry)
	if !ok || !nextAt.Equal(testNow.Add(RetryBaseDelay)) {
		t.Fatalf("unexpected next-at %v (ok=%v)", nextAt, ok)
	}
	if msg, _ := header(retry, ErrorHeaderKey); msg != "db down" {
		t.Fatalf("unexpected error header %q", msg)
	}
}

func TestProcessRecord_ExhaustedGoesToDLQ(t *testing.T) {
	producer := &fakeProducer{}
	runner := &fakeRunner{runFn: func(context.Context, domain.Task) error { return errors.New("smtp down") }}
	c := newTestConsumer(runner, producer)

	c.processRecord(context.Background(), taskRecord(t, TopicTaskRequest, "2"))

	if len(producer.records) != 1 || producer.records[0].Topic != TopicTaskRequest+TopicDLQSuffix {
		t.Fatalf("expected a DLQ record, got %+v", producer.records)
	}
}

func TestProcessRecord_InvalidPayloadGoesToDLQ(t *testing.T) {
	producer := &fakeProducer{}
	runner := &fakeRunner{}
	c := newTestConsumer(runner, producer)

	c.processRecord(context.Background(), &kgo.Record{Topic: TopicTaskRequest, Value: []byte("{nope")})

	if len(runner.ran) != 0 {
		t.Fatal("invalid payload must not run")
	}
	if len(producer.records) != 1 || producer.records[0].Topic != TopicTaskRequest+TopicDLQSuffix {
		t.Fatalf("expected a DLQ record, got %+v", producer.records)
	}
	if msg, _ := header(producer.records[0], ErrorHeaderKey); msg != "invalid task payload" {
		t.Fatalf("unexpected error header %q", msg)
	}
}

func TestRetryNextAt(t *testing.T) {
	record := &kgo.Record{Headers: []kgo.RecordHeader{{Key: RetryHeaderNextAt, Value: []byte("2026-03-14T10:30:05Z")}}}
	nextAt, ok := retryNextAt(record)
	if !ok || !nextAt.Equal(testNow.Add(5*time.Second)) {
		t.Fatalf("unexpected next-at %v (ok=%v)", nextAt, ok)
	}

	if _, ok := retryNextAt(&kgo.Record{}); ok {
		t.Fatal("expected no next-at without header")
	}
	bad := &kgo.Record{Headers: []kgo.RecordHeader{{Key: RetryHeaderNextAt, Value: []byte("soon")}}}
	if _, ok := retryNextAt(bad); ok {
		t.Fatal("expected malformed header to be ignored")
	}
}

func TestAttemptsOf(t *testing.T) {
	tests := []struct {
		value string
		want  int
	}{
		{"", 0},
		{"3", 3},
		{"-1", 0},
		{"x", 0},
	}
	for _, tt := range tests {
		record := &kgo.Record{}
		if tt.value != "" {
			record.Headers = []kgo.RecordHeader{{Key: AttemptsHeaderKey, Value: []byte(tt.value)}}
		}
		if got := attemptsOf(record); got != tt.want {
			t.Errorf("attemptsOf(%q) = %d, want %d", tt.value, got, tt.want)
		}
	}
}

func TestBackoff(t *testing.T) {
	if backoff(1) != time.Second || backoff(2) != 2*time.Second || backoff(4) != 8*time.Second {
		t.Fatal("expected doubling backoff")
	}
	if backoff(20) != RetryMaxDelay {
		t.Fatalf("expected cap at %v, got %v", RetryMaxDelay, backoff(20))
	}
}

func TestTopicNames(t *testing.T) {
	if mainTopic(TopicTaskRetry) != TopicTaskRequest {
		t.Fatalf("unexpected main topic %s", mainTopic(TopicTaskRetry))
	}
	if mainTopic(TopicTaskRequest) != TopicTaskRequest {
		t.Fatal("main topic must map to itself")
	}
	if retryTopic(TopicTaskRequest) != TopicTaskRetry {
		t.Fatalf("unexpected retry topic %s", retryTopic(TopicTaskRequest))
	}
}
