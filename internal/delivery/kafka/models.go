package kafka

import (
	"time"

	"github.com/azizikri/pawclub-functions/internal/domain"
)

const SchemaVersion = 1

// TaskPayload is the record value on the task topics.
type TaskPayload struct {
	SchemaVersion int         `json:"schema_version"`
	TaskID        string      `json:"task_id"`
	CreatedAt     time.Time   `json:"created_at"`
	Task          domain.Task `json:"task"`
}
