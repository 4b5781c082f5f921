package kafka

import "time"

const (
	TopicTaskRequest   = "pawclub.tasks.req"
	TopicTaskRetry     = "pawclub.tasks.retry"
	TopicRequestSuffix = ".req"
	TopicRetrySuffix   = ".retry"
	TopicDLQSuffix     = ".dlq"

	PublishTimeout = 3 * time.Second

	RetryBaseDelay = time.Second
	RetryMaxDelay  = time.Minute

	RetryHeaderNextAt = "x-next-at"
	AttemptsHeaderKey = "x-attempts"
	ErrorHeaderKey    = "x-error"
)
