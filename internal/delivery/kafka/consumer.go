package kafka

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/azizikri/pawclub-functions/internal/metrics"
	"github.com/rs/zerolog"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Consumer executes tasks from the task topic. Failed tasks go to the retry
// topic with a backoff until they run out of attempts, then to the DLQ.
type Consumer struct {
	client      *kgo.Client
	producer    producer
	runner      Runner
	maxAttempts int
	now         func() time.Time
	ready       chan struct{}
}

func NewConsumer(client *kgo.Client, runner Runner, maxAttempts int) *Consumer {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &Consumer{
		client:      client,
		producer:    client,
		runner:      runner,
		maxAttempts: maxAttempts,
		now:         time.Now,
		ready:       make(chan struct{}),
	}
}

func (c *Consumer) Start(ctx context.Context) {
	close(c.ready)
	logger := zerolog.Ctx(ctx)
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return
		}
		if errs := fetches.Errors(); len(errs) > 0 {
			for _, e := range errs {
				logger.Error().Err(e.Err).Str("topic", e.Topic).Int32("partition", e.Partition).Msg("consumer poll error")
			}
		}

		iter := fetches.RecordIter()
		for !iter.Done() {
			record := iter.Next()
			c.processRecord(ctx, record)
		}

		if err := c.client.CommitRecords(ctx, fetches.Records()...); err != nil {
			logger.Error().Err(err).Msg("failed to commit records")
		}
	}
}

// StartRetry moves records from the retry topic back to the task topic once
// their x-next-at time has passed.
func (c *Consumer) StartRetry(ctx context.Context) {
	logger := zerolog.Ctx(ctx)
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return
		}
		iter := fetches.RecordIter()
		for !iter.Done() {
			record := iter.Next()

			if nextAt, ok := retryNextAt(record); ok && c.now().Before(nextAt) {
				select {
				case <-time.After(nextAt.Sub(c.now())):
				case <-ctx.Done():
					return
				}
			}

			newRecord := &kgo.Record{
				Topic:   mainTopic(record.Topic),
				Key:     record.Key,
				Value:   record.Value,
				Headers: record.Headers,
			}
			if err := c.producer.ProduceSync(ctx, newRecord).FirstErr(); err != nil {
				logger.Error().Err(err).Str("topic", newRecord.Topic).Msg("failed to requeue retry record")
			}
		}
		if err := c.client.CommitRecords(ctx, fetches.Records()...); err != nil {
			logger.Error().Err(err).Msg("failed to commit retry records")
		}
	}
}

func (c *Consumer) Ready() <-chan struct{} {
	return c.ready
}

func (c *Consumer) processRecord(ctx context.Context, record *kgo.Record) {
	var payload TaskPayload
	if err := json.Unmarshal(record.Value, &payload); err != nil {
		c.deadLetter(ctx, record, "unknown", "invalid task payload")
		return
	}

	kind := string(payload.Task.Kind)
	logger := zerolog.Ctx(ctx).With().Str("task_id", payload.TaskID).Str("kind", kind).Logger()

	err := c.runner.Run(ctx, payload.Task)
	if err == nil {
		metrics.SideEffects.WithLabelValues(kind, "executed").Inc()
		return
	}

	attempts := attemptsOf(record) + 1
	if attempts >= c.maxAttempts {
		logger.Error().Err(err).Int("attempts", attempts).Msg("task exhausted retries")
		c.deadLetter(ctx, record, kind, err.Error())
		return
	}

	logger.Warn().Err(err).Int("attempts", attempts).Msg("task failed, scheduling retry")
	retry := &kgo.Record{
		Topic: retryTopic(record.Topic),
		Key:   record.Key,
		Value: record.Value,
		Headers: []kgo.RecordHeader{
			{Key: AttemptsHeaderKey, Value: []byte(strconv.Itoa(attempts))},
			{Key: RetryHeaderNextAt, Value: []byte(c.now().Add(backoff(attempts)).UTC().Format(time.RFC3339))},
			{Key: ErrorHeaderKey, Value: []byte(err.Error())},
		},
	}
	if err := c.producer.ProduceSync(ctx, retry).FirstErr(); err != nil {
		logger.Error().Err(err).Msg("failed to produce retry record")
		return
	}
	metrics.SideEffects.WithLabelValues(kind, "retried").Inc()
}

func (c *Consumer) deadLetter(ctx context.Context, record *kgo.Record, kind, message string) {
	dlqRecord := &kgo.Record{
		Topic: mainTopic(record.Topic) + TopicDLQSuffix,
		Key:   record.Key,
		Value: record.Value,
		Headers: []kgo.RecordHeader{
			{Key: AttemptsHeaderKey, Value: []byte(strconv.Itoa(attemptsOf(record)))},
			{Key: ErrorHeaderKey, Value: []byte(message)},
		},
	}
	if err := c.producer.ProduceSync(ctx, dlqRecord).FirstErr(); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("topic", dlqRecord.Topic).Msg("failed to produce dead letter")
		return
	}
	metrics.SideEffects.WithLabelValues(kind, "dead_lettered").Inc()
}

func retryNextAt(record *kgo.Record) (time.Time, bool) {
	value, ok := header(record, RetryHeaderNextAt)
	if !ok {
		return time.Time{}, false
	}
	nextAt, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false
	}
	return nextAt, true
}

func attemptsOf(record *kgo.Record) int {
	value, ok := header(record, AttemptsHeaderKey)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func header(record *kgo.Record, key string) (string, bool) {
	for _, h := range record.Headers {
		if h.Key == key {
			return string(h.Value), true
		}
	}
	return "", false
}

// backoff doubles from RetryBaseDelay per attempt, capped at RetryMaxDelay.
func backoff(attempts int) time.Duration {
	d := RetryBaseDelay
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= RetryMaxDelay {
			return RetryMaxDelay
		}
	}
	return d
}

func mainTopic(topic string) string {
	if strings.HasSuffix(topic, TopicRetrySuffix) {
		return strings.TrimSuffix(topic, TopicRetrySuffix) + TopicRequestSuffix
	}
	return topic
}

func retryTopic(topic string) string {
	return strings.TrimSuffix(topic, TopicRequestSuffix) + TopicRetrySuffix
}
