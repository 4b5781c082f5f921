package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const insertNotification = `-- name: InsertNotification :exec
INSERT INTO notifications (user_id, type, title, message, data)
VALUES ($1, $2, $3, $4, $5)
`

type InsertNotificationParams struct {
	UserID  uuid.UUID
	Type    string
	Title   string
	Message string
	Data    map[string]any
}

// InsertNotifications sends every row in a single batch round trip.
func (q *Queries) InsertNotifications(ctx context.Context, args []InsertNotificationParams) error {
	if len(args) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, arg := range args {
		data := arg.Data
		if data == nil {
			data = map[string]any{}
		}
		batch.Queue(insertNotification, arg.UserID, arg.Type, arg.Title, arg.Message, data)
	}
	results := q.db.SendBatch(ctx, batch)
	defer results.Close()
	for i := range args {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("notification %d: %w", i, err)
		}
	}
	return nil
}

const notificationSentSince = `-- name: NotificationSentSince :one
SELECT EXISTS (
    SELECT 1 FROM notifications
    WHERE user_id = $1 AND type = $2 AND data->>'ref_id' = $3 AND created_at >= $4
)
`

type NotificationSentSinceParams struct {
	UserID uuid.UUID
	Type   string
	RefID  string
	Since  time.Time
}

func (q *Queries) NotificationSentSince(ctx context.Context, arg NotificationSentSinceParams) (bool, error) {
	row := q.db.QueryRow(ctx, notificationSentSince, arg.UserID, arg.Type, arg.RefID, arg.Since)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const insertAnalyticsEvent = `-- name: InsertAnalyticsEvent :exec
INSERT INTO analytics_events (user_id, event_type, event_data)
VALUES ($1, $2, $3)
`

type InsertAnalyticsEventParams struct {
	UserID    *uuid.UUID
	EventType string
	EventData map[string]any
}

func (q *Queries) InsertAnalyticsEvent(ctx context.Context, arg InsertAnalyticsEventParams) error {
	data := arg.EventData
	if data == nil {
		data = map[string]any{}
	}
	_, err := q.db.Exec(ctx, insertAnalyticsEvent, arg.UserID, arg.EventType, data)
	return err
}
