package usecase

import (
	"time"

	db "github.com/azizikri/pawclub-functions/db/gen"
	"github.com/google/uuid"
)

var fixedNow = time.Date(2026, time.March, 14, 10, 30, 0, 0, time.UTC)

type fixture struct {
	store      *memStore
	dispatcher *recordingDispatcher
	mailer     *recordingMailer
	svc        *Service

	owner      uuid.UUID
	business   uuid.UUID
	member     uuid.UUID
	membership uuid.UUID
	offer      uuid.UUID
}

func newFixture() *fixture {
	store := newMemStore()
	store.now = func() time.Time { return fixedNow }
	mailer := &recordingMailer{}
	dispatcher := &recordingDispatcher{runner: NewTaskRunner(store, mailer)}

	f := &fixture{
		store:      store,
		dispatcher: dispatcher,
		mailer:     mailer,
		svc: NewService(store, dispatcher, Options{
			PageSize:   2,
			AppBaseURL: "https://app.pawclub.test/",
			Now:        func() time.Time { return fixedNow },
		}),
		owner:      uuid.New(),
		business:   uuid.New(),
		member:     uuid.New(),
		membership: uuid.New(),
		offer:      uuid.New(),
	}

	store.users[f.owner] = db.User{ID: f.owner, Email: "owner@groomers.test"}
	store.users[f.member] = db.User{ID: f.member, Email: "ana@example.com"}
	store.profiles[f.member] = db.Profile{ID: f.member, FullName: ptr("Ana Silva"), Email: "ana@example.com"}
	store.businesses[f.business] = db.Business{ID: f.business, OwnerID: f.owner, BusinessName: "Happy Groomers", VerificationStatus: "verified"}
	store.memberships[f.membership] = db.Membership{
		ID:           f.membership,
		UserID:       f.member,
		IsActive:     true,
		PlanType:     "premium",
		MemberNumber: "PC-000123",
		StartedAt:    fixedNow.AddDate(-1, 0, 0),
		ExpiresAt:    ptr(fixedNow.AddDate(0, 6, 0)),
	}
	store.offers[f.offer] = db.Offer{ID: f.offer, BusinessID: f.business, Title: "Full groom", DiscountValue: 20, DiscountType: "percentage"}
	store.pets = append(store.pets,
		db.Pet{ID: uuid.New(), MembershipID: f.membership, OwnerID: f.member, PetName: "Rex"},
		db.Pet{ID: uuid.New(), MembershipID: f.membership, OwnerID: f.member, PetName: "Mochi"},
	)
	return f
}

func (f *fixture) addMembership(userID uuid.UUID, number string, active bool, expiresAt time.Time) uuid.UUID {
	id := uuid.New()
	f.store.memberships[id] = db.Membership{
		ID:           id,
		UserID:       userID,
		IsActive:     active,
		PlanType:     "premium",
		MemberNumber: number,
		StartedAt:    expiresAt.AddDate(-1, 0, 0),
		ExpiresAt:    &expiresAt,
	}
	return id
}
