package db

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const getPendingVerificationToken = `-- name: GetPendingVerificationToken :one
SELECT id, user_id, email, token, expires_at, verified_at
FROM email_verification_tokens
WHERE token = $1 AND verified_at IS NULL
`

func (q *Queries) GetPendingVerificationToken(ctx context.Context, token string) (EmailVerificationToken, error) {
	row := q.db.QueryRow(ctx, getPendingVerificationToken, token)
	var i EmailVerificationToken
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Email,
		&i.Token,
		&i.ExpiresAt,
		&i.VerifiedAt,
	)
	return i, err
}

const consumeVerificationToken = `-- name: ConsumeVerificationToken :execrows
UPDATE email_verification_tokens
SET verified_at = $2
WHERE id = $1 AND verified_at IS NULL AND expires_at > $2
`

type ConsumeVerificationTokenParams struct {
	ID  uuid.UUID
	Now time.Time
}

func (q *Queries) ConsumeVerificationToken(ctx context.Context, arg ConsumeVerificationTokenParams) (int64, error) {
	result, err := q.db.Exec(ctx, consumeVerificationToken, arg.ID, arg.Now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const insertVerificationToken = `-- name: InsertVerificationToken :exec
INSERT INTO email_verification_tokens (user_id, email, token, expires_at)
VALUES ($1, $2, $3, $4)
`

type InsertVerificationTokenParams struct {
	UserID    uuid.UUID
	Email     string
	Token     string
	ExpiresAt time.Time
}

func (q *Queries) InsertVerificationToken(ctx context.Context, arg InsertVerificationTokenParams) error {
	_, err := q.db.Exec(ctx, insertVerificationToken, arg.UserID, arg.Email, arg.Token, arg.ExpiresAt)
	return err
}

const insertPasswordResetToken = `-- name: InsertPasswordResetToken :exec
INSERT INTO password_reset_tokens (user_id, token, expires_at)
VALUES ($1, $2, $3)
`

type InsertPasswordResetTokenParams struct {
	UserID    uuid.UUID
	Token     string
	ExpiresAt time.Time
}

func (q *Queries) InsertPasswordResetToken(ctx context.Context, arg InsertPasswordResetTokenParams) error {
	_, err := q.db.Exec(ctx, insertPasswordResetToken, arg.UserID, arg.Token, arg.ExpiresAt)
	return err
}
