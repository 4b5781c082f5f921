package db

import (
	"context"

	"github.com/google/uuid"
)

const getBusinessForOwner = `-- name: GetBusinessForOwner :one
SELECT id, owner_id, business_name, verification_status
FROM businesses
WHERE id = $1 AND owner_id = $2
`

type GetBusinessForOwnerParams struct {
	ID      uuid.UUID
	OwnerID uuid.UUID
}

func (q *Queries) GetBusinessForOwner(ctx context.Context, arg GetBusinessForOwnerParams) (Business, error) {
	row := q.db.QueryRow(ctx, getBusinessForOwner, arg.ID, arg.OwnerID)
	var i Business
	err := row.Scan(&i.ID, &i.OwnerID, &i.BusinessName, &i.VerificationStatus)
	return i, err
}

const getOffer = `-- name: GetOffer :one
SELECT id, business_id, title, discount_value::float8, discount_type
FROM offers
WHERE id = $1
`

func (q *Queries) GetOffer(ctx context.Context, id uuid.UUID) (Offer, error) {
	row := q.db.QueryRow(ctx, getOffer, id)
	var i Offer
	err := row.Scan(&i.ID, &i.BusinessID, &i.Title, &i.DiscountValue, &i.DiscountType)
	return i, err
}

const listPetNamesByMembership = `-- name: ListPetNamesByMembership :many
SELECT pet_name FROM pets WHERE membership_id = $1 ORDER BY pet_name
`

func (q *Queries) ListPetNamesByMembership(ctx context.Context, membershipID uuid.UUID) ([]string, error) {
	rows, err := q.db.Query(ctx, listPetNamesByMembership, membershipID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		items = append(items, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const redemptionExists = `-- name: RedemptionExists :one
SELECT EXISTS (
    SELECT 1 FROM redemptions WHERE membership_id = $1 AND offer_id = $2
)
`

type RedemptionExistsParams struct {
	MembershipID uuid.UUID
	OfferID      uuid.UUID
}

func (q *Queries) RedemptionExists(ctx context.Context, arg RedemptionExistsParams) (bool, error) {
	row := q.db.QueryRow(ctx, redemptionExists, arg.MembershipID, arg.OfferID)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const insertRedemption = `-- name: InsertRedemption :one
INSERT INTO redemptions (membership_id, offer_id, business_id, redeemed_by_user_id)
VALUES ($1, $2, $3, $4)
ON CONFLICT (membership_id, offer_id) DO NOTHING
RETURNING id, membership_id, offer_id, business_id, redeemed_by_user_id, redeemed_at
`

type InsertRedemptionParams struct {
	MembershipID     uuid.UUID
	OfferID          uuid.UUID
	BusinessID       uuid.UUID
	RedeemedByUserID uuid.UUID
}

// InsertRedemption returns pgx.ErrNoRows when the (membership, offer) pair
// was already redeemed.
func (q *Queries) InsertRedemption(ctx context.Context, arg InsertRedemptionParams) (Redemption, error) {
	row := q.db.QueryRow(ctx, insertRedemption,
		arg.MembershipID,
		arg.OfferID,
		arg.BusinessID,
		arg.RedeemedByUserID,
	)
	var i Redemption
	err := row.Scan(
		&i.ID,
		&i.MembershipID,
		&i.OfferID,
		&i.BusinessID,
		&i.RedeemedByUserID,
		&i.RedeemedAt,
	)
	return i, err
}

const getBirthdayOffer = `-- name: GetBirthdayOffer :one
SELECT id, business_id, owner_user_id, pet_name, discount_value::float8, discount_type,
       redeemed_at, redeemed_by_business_id
FROM sent_birthday_offers
WHERE id = $1
`

func (q *Queries) GetBirthdayOffer(ctx context.Context, id uuid.UUID) (SentBirthdayOffer, error) {
	row := q.db.QueryRow(ctx, getBirthdayOffer, id)
	var i SentBirthdayOffer
	err := row.Scan(
		&i.ID,
		&i.BusinessID,
		&i.OwnerUserID,
		&i.PetName,
		&i.DiscountValue,
		&i.DiscountType,
		&i.RedeemedAt,
		&i.RedeemedByBusinessID,
	)
	return i, err
}

const markBirthdayOfferRedeemed = `-- name: MarkBirthdayOfferRedeemed :one
UPDATE sent_birthday_offers
SET redeemed_at = now(), redeemed_by_business_id = $2
WHERE id = $1 AND redeemed_at IS NULL
RETURNING id, business_id, owner_user_id, pet_name, discount_value::float8, discount_type,
          redeemed_at, redeemed_by_business_id
`

type MarkBirthdayOfferRedeemedParams struct {
	ID         uuid.UUID
	BusinessID uuid.UUID
}

// MarkBirthdayOfferRedeemed returns pgx.ErrNoRows when the offer is missing or
// was redeemed concurrently.
func (q *Queries) MarkBirthdayOfferRedeemed(ctx context.Context, arg MarkBirthdayOfferRedeemedParams) (SentBirthdayOffer, error) {
	row := q.db.QueryRow(ctx, markBirthdayOfferRedeemed, arg.ID, arg.BusinessID)
	var i SentBirthdayOffer
	err := row.Scan(
		&i.ID,
		&i.BusinessID,
		&i.OwnerUserID,
		&i.PetName,
		&i.DiscountValue,
		&i.DiscountType,
		&i.RedeemedAt,
		&i.RedeemedByBusinessID,
	)
	return i, err
}
