package db

import (
	"context"

	"github.com/google/uuid"
)

const getProfile = `-- name: GetProfile :one
SELECT id, full_name, email, email_verified FROM profiles WHERE id = $1
`

func (q *Queries) GetProfile(ctx context.Context, id uuid.UUID) (Profile, error) {
	row := q.db.QueryRow(ctx, getProfile, id)
	var i Profile
	err := row.Scan(&i.ID, &i.FullName, &i.Email, &i.EmailVerified)
	return i, err
}

const setEmailVerified = `-- name: SetEmailVerified :execrows
UPDATE profiles SET email_verified = true WHERE id = $1
`

func (q *Queries) SetEmailVerified(ctx context.Context, id uuid.UUID) (int64, error) {
	result, err := q.db.Exec(ctx, setEmailVerified, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const hasRole = `-- name: HasRole :one
SELECT EXISTS (SELECT 1 FROM user_roles WHERE user_id = $1 AND role = $2)
`

type HasRoleParams struct {
	UserID uuid.UUID
	Role   string
}

func (q *Queries) HasRole(ctx context.Context, arg HasRoleParams) (bool, error) {
	row := q.db.QueryRow(ctx, hasRole, arg.UserID, arg.Role)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const listUserIDsByRole = `-- name: ListUserIDsByRole :many
SELECT user_id FROM user_roles WHERE role = $1
`

func (q *Queries) ListUserIDsByRole(ctx context.Context, role string) ([]uuid.UUID, error) {
	rows, err := q.db.Query(ctx, listUserIDsByRole, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		items = append(items, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listUsers = `-- name: ListUsers :many
SELECT id, email, created_at FROM users ORDER BY created_at, id LIMIT $1 OFFSET $2
`

type ListUsersParams struct {
	Limit  int32
	Offset int32
}

func (q *Queries) ListUsers(ctx context.Context, arg ListUsersParams) ([]User, error) {
	rows, err := q.db.Query(ctx, listUsers, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []User
	for rows.Next() {
		var i User
		if err := rows.Scan(&i.ID, &i.Email, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getUserByEmail = `-- name: GetUserByEmail :one
SELECT id, email, created_at FROM users WHERE lower(email) = lower($1)
`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRow(ctx, getUserByEmail, email)
	var i User
	err := row.Scan(&i.ID, &i.Email, &i.CreatedAt)
	return i, err
}

const deleteUser = `-- name: DeleteUser :execrows
DELETE FROM users WHERE id = $1
`

func (q *Queries) DeleteUser(ctx context.Context, id uuid.UUID) (int64, error) {
	result, err := q.db.Exec(ctx, deleteUser, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
