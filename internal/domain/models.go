package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUnauthenticated  = errors.New("authentication required")
	ErrForbidden        = errors.New("caller is not allowed to perform this action")
	ErrMissingFields    = errors.New("missing required fields")
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotFound         = errors.New("not found")
	ErrAlreadyRedeemed  = errors.New("offer has already been redeemed")
	ErrWriteFailed      = errors.New("write failed")
	ErrInvalidToken     = errors.New("invalid or expired verification token")
	ErrTokenExpired     = errors.New("verification token has expired")
	ErrBadConfirmation  = errors.New("invalid confirmation token")
	ErrNoEmailOnAccount = errors.New("no email address on account")
)

const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"

	RoleAdmin = "admin"
	PlanFree  = "free"

	NotificationRedemption            = "redemption"
	NotificationBirthdayRedeemed      = "birthday_offer_redeemed"
	NotificationMembershipExpired     = "membership_expired"
	NotificationPetBirthday           = "pet_birthday"
	NotificationMembershipAnniversary = "membership_anniversary"

	EventBirthdayOfferRedeemed = "birthday_offer_redeemed"
)

type Redemption struct {
	ID           uuid.UUID
	OfferTitle   string
	Discount     string
	BusinessName string
	RedeemedAt   time.Time
	MemberName   string
	PetNames     []string
	MemberNumber string
	RedeemedByID uuid.UUID
}

type BirthdayRedemption struct {
	ID           uuid.UUID
	PetName      string
	Discount     string
	BusinessName string
	RedeemedAt   time.Time
}

type ExpiredMembership struct {
	ID           uuid.UUID `json:"id"`
	MemberNumber string    `json:"member_number"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type ExpiryResult struct {
	Count       int
	Deactivated []ExpiredMembership
}

type DeleteUsersResult struct {
	Deleted       int
	DeletedEmails []string
	Errors        []string
	SkippedAdmins int
	InitiatedBy   string
}

type ReminderResult struct {
	Birthdays     int
	Anniversaries int
}

type Verification struct {
	Email string
}

// TaskKind selects how a deferred side effect is executed.
type TaskKind string

const (
	TaskNotify    TaskKind = "notify"
	TaskAnalytics TaskKind = "analytics"
	TaskEmail     TaskKind = "email"
)

type Notification struct {
	UserID  uuid.UUID      `json:"user_id"`
	Type    string         `json:"type"`
	Title   string         `json:"title"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

type AnalyticsEvent struct {
	UserID    *uuid.UUID     `json:"user_id,omitempty"`
	EventType string         `json:"event_type"`
	EventData map[string]any `json:"event_data,omitempty"`
}

const (
	EmailWelcome       = "welcome"
	EmailVerify        = "verify_email"
	EmailPasswordReset = "password_reset"
)

type Email struct {
	Template string `json:"template"`
	To       string `json:"to"`
	Name     string `json:"name,omitempty"`
	Link     string `json:"link,omitempty"`
}

// Task is a side effect deferred until after the primary write committed.
type Task struct {
	Kind          TaskKind        `json:"kind"`
	Notifications []Notification  `json:"notifications,omitempty"`
	Event         *AnalyticsEvent `json:"event,omitempty"`
	Email         *Email          `json:"email,omitempty"`
}

func NotifyTask(notifications ...Notification) Task {
	return Task{Kind: TaskNotify, Notifications: notifications}
}

func AnalyticsTask(event AnalyticsEvent) Task {
	return Task{Kind: TaskAnalytics, Event: &event}
}

func EmailTask(email Email) Task {
	return Task{Kind: TaskEmail, Email: &email}
}
