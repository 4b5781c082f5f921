package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const membershipColumns = `id, user_id, is_active, plan_type, member_number, started_at, expires_at`

func scanMemberships(rows pgx.Rows) ([]Membership, error) {
	defer rows.Close()
	var items []Membership
	for rows.Next() {
		var i Membership
		if err := rows.Scan(
			&i.ID,
			&i.UserID,
			&i.IsActive,
			&i.PlanType,
			&i.MemberNumber,
			&i.StartedAt,
			&i.ExpiresAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getMembership = `-- name: GetMembership :one
SELECT ` + membershipColumns + ` FROM memberships WHERE id = $1
`

func (q *Queries) GetMembership(ctx context.Context, id uuid.UUID) (Membership, error) {
	row := q.db.QueryRow(ctx, getMembership, id)
	var i Membership
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.IsActive,
		&i.PlanType,
		&i.MemberNumber,
		&i.StartedAt,
		&i.ExpiresAt,
	)
	return i, err
}

const listExpiredMemberships = `-- name: ListExpiredMemberships :many
SELECT ` + membershipColumns + `
FROM memberships
WHERE is_active = true AND expires_at < $1
ORDER BY id
LIMIT $2 OFFSET $3
`

type ListExpiredMembershipsParams struct {
	Cutoff time.Time
	Limit  int32
	Offset int32
}

func (q *Queries) ListExpiredMemberships(ctx context.Context, arg ListExpiredMembershipsParams) ([]Membership, error) {
	rows, err := q.db.Query(ctx, listExpiredMemberships, arg.Cutoff, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return scanMemberships(rows)
}

const deactivateMemberships = `-- name: DeactivateMemberships :execrows
UPDATE memberships SET is_active = false
WHERE id = ANY($1::uuid[]) AND is_active = true
`

func (q *Queries) DeactivateMemberships(ctx context.Context, ids []string) (int64, error) {
	result, err := q.db.Exec(ctx, deactivateMemberships, ids)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const listAnniversaryMemberships = `-- name: ListAnniversaryMemberships :many
SELECT ` + membershipColumns + `
FROM memberships
WHERE is_active = true
  AND (
    (EXTRACT(MONTH FROM started_at AT TIME ZONE 'UTC') = $1
      AND EXTRACT(DAY FROM started_at AT TIME ZONE 'UTC') = $2)
    OR ($3::boolean
      AND EXTRACT(MONTH FROM started_at AT TIME ZONE 'UTC') = 2
      AND EXTRACT(DAY FROM started_at AT TIME ZONE 'UTC') = 29)
  )
  AND started_at < $4
ORDER BY id
LIMIT $5 OFFSET $6
`

// ListAnniversaryMembershipsParams matches on the UTC calendar date. LeapDay
// also matches memberships started on February 29.
type ListAnniversaryMembershipsParams struct {
	Month   int32
	Day     int32
	LeapDay bool
	Before  time.Time
	Limit   int32
	Offset  int32
}

func (q *Queries) ListAnniversaryMemberships(ctx context.Context, arg ListAnniversaryMembershipsParams) ([]Membership, error) {
	rows, err := q.db.Query(ctx, listAnniversaryMemberships,
		arg.Month,
		arg.Day,
		arg.LeapDay,
		arg.Before,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	return scanMemberships(rows)
}

const listBirthdayPets = `-- name: ListBirthdayPets :many
SELECT id, membership_id, owner_id, pet_name, birthday
FROM pets
WHERE birthday IS NOT NULL
  AND (
    (EXTRACT(MONTH FROM birthday) = $1 AND EXTRACT(DAY FROM birthday) = $2)
    OR ($3::boolean AND EXTRACT(MONTH FROM birthday) = 2 AND EXTRACT(DAY FROM birthday) = 29)
  )
ORDER BY id
LIMIT $4 OFFSET $5
`

type ListBirthdayPetsParams struct {
	Month   int32
	Day     int32
	LeapDay bool
	Limit   int32
	Offset  int32
}

func (q *Queries) ListBirthdayPets(ctx context.Context, arg ListBirthdayPetsParams) ([]Pet, error) {
	rows, err := q.db.Query(ctx, listBirthdayPets, arg.Month, arg.Day, arg.LeapDay, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Pet
	for rows.Next() {
		var i Pet
		if err := rows.Scan(&i.ID, &i.MembershipID, &i.OwnerID, &i.PetName, &i.Birthday); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
