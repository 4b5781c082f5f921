package db

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID        uuid.UUID
	Email     string
	CreatedAt time.Time
}

type Profile struct {
	ID            uuid.UUID
	FullName      *string
	Email         string
	EmailVerified bool
}

type Membership struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	IsActive     bool
	PlanType     string
	MemberNumber string
	StartedAt    time.Time
	ExpiresAt    *time.Time
}

type Business struct {
	ID                 uuid.UUID
	OwnerID            uuid.UUID
	BusinessName       string
	VerificationStatus string
}

type Offer struct {
	ID            uuid.UUID
	BusinessID    uuid.UUID
	Title         string
	DiscountValue float64
	DiscountType  string
}

type Pet struct {
	ID           uuid.UUID
	MembershipID uuid.UUID
	OwnerID      uuid.UUID
	PetName      string
	Birthday     *time.Time
}

type Redemption struct {
	ID               uuid.UUID
	MembershipID     uuid.UUID
	OfferID          uuid.UUID
	BusinessID       uuid.UUID
	RedeemedByUserID uuid.UUID
	RedeemedAt       time.Time
}

type SentBirthdayOffer struct {
	ID                   uuid.UUID
	BusinessID           uuid.UUID
	OwnerUserID          uuid.UUID
	PetName              string
	DiscountValue        float64
	DiscountType         string
	RedeemedAt           *time.Time
	RedeemedByBusinessID *uuid.UUID
}

type EmailVerificationToken struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Email      string
	Token      string
	ExpiresAt  time.Time
	VerifiedAt *time.Time
}
