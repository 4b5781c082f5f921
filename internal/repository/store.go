package repository

import (
	"context"
	"errors"
	"fmt"

	db "github.com/azizikri/pawclub-functions/db/gen"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNoAccess          = errors.New("repository: access not specified")
	ErrScopedRoleMissing = errors.New("repository: scoped role not granted to connecting user")
)

type Store interface {
	ExecTx(ctx context.Context, access Access, fn func(Querier) error) error
}

type Querier interface {
	GetBusinessForOwner(ctx context.Context, arg db.GetBusinessForOwnerParams) (db.Business, error)
	GetOffer(ctx context.Context, id uuid.UUID) (db.Offer, error)
	ListPetNamesByMembership(ctx context.Context, membershipID uuid.UUID) ([]string, error)
	RedemptionExists(ctx context.Context, arg db.RedemptionExistsParams) (bool, error)
	InsertRedemption(ctx context.Context, arg db.InsertRedemptionParams) (db.Redemption, error)
	GetBirthdayOffer(ctx context.Context, id uuid.UUID) (db.SentBirthdayOffer, error)
	MarkBirthdayOfferRedeemed(ctx context.Context, arg db.MarkBirthdayOfferRedeemedParams) (db.SentBirthdayOffer, error)

	GetMembership(ctx context.Context, id uuid.UUID) (db.Membership, error)
	ListExpiredMemberships(ctx context.Context, arg db.ListExpiredMembershipsParams) ([]db.Membership, error)
	DeactivateMemberships(ctx context.Context, ids []string) (int64, error)
	ListAnniversaryMemberships(ctx context.Context, arg db.ListAnniversaryMembershipsParams) ([]db.Membership, error)
	ListBirthdayPets(ctx context.Context, arg db.ListBirthdayPetsParams) ([]db.Pet, error)

	GetProfile(ctx context.Context, id uuid.UUID) (db.Profile, error)
	SetEmailVerified(ctx context.Context, id uuid.UUID) (int64, error)
	HasRole(ctx context.Context, arg db.HasRoleParams) (bool, error)
	ListUserIDsByRole(ctx context.Context, role string) ([]uuid.UUID, error)
	ListUsers(ctx context.Context, arg db.ListUsersParams) ([]db.User, error)
	GetUserByEmail(ctx context.Context, email string) (db.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) (int64, error)

	GetPendingVerificationToken(ctx context.Context, token string) (db.EmailVerificationToken, error)
	ConsumeVerificationToken(ctx context.Context, arg db.ConsumeVerificationTokenParams) (int64, error)
	InsertVerificationToken(ctx context.Context, arg db.InsertVerificationTokenParams) error
	InsertPasswordResetToken(ctx context.Context, arg db.InsertPasswordResetTokenParams) error

	InsertNotifications(ctx context.Context, args []db.InsertNotificationParams) error
	NotificationSentSince(ctx context.Context, arg db.NotificationSentSinceParams) (bool, error)
	InsertAnalyticsEvent(ctx context.Context, arg db.InsertAnalyticsEventParams) error
}

var _ Querier = (*db.Queries)(nil)

type store struct {
	pool        *pgxpool.Pool
	queries     *db.Queries
	scopedRole  string
	claimSubKey string
}

func New(pool *pgxpool.Pool, scopedRole string) Store {
	return &store{
		pool:        pool,
		queries:     db.New(pool),
		scopedRole:  scopedRole,
		claimSubKey: "request.jwt.claim.sub",
	}
}

const scopedRoleGranted = `SELECT EXISTS (
    SELECT 1 FROM pg_roles r
    WHERE r.rolname = $1 AND pg_has_role(current_user, r.oid, 'MEMBER')
)`

// CheckScopedRole fails when the connecting user cannot assume role, which
// would make every scoped transaction fail.
func CheckScopedRole(ctx context.Context, pool *pgxpool.Pool, role string) error {
	var granted bool
	if err := pool.QueryRow(ctx, scopedRoleGranted, role).Scan(&granted); err != nil {
		return fmt.Errorf("check scoped role: %w", err)
	}
	if !granted {
		return fmt.Errorf("%w: %q", ErrScopedRoleMissing, role)
	}
	return nil
}

const setScopedClaims = `SELECT set_config('role', $1, true), set_config($2, $3, true)`

func (s *store) ExecTx(ctx context.Context, access Access, fn func(Querier) error) error {
	if !access.valid() {
		return ErrNoAccess
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if !access.Privileged() {
		if _, err := tx.Exec(ctx, setScopedClaims, s.scopedRole, s.claimSubKey, access.UserID().String()); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("set scoped claims: %w", err)
		}
	}

	q := s.queries.WithTx(tx)
	if err := fn(q); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("tx err: %w, rollback err: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
