package usecase

import (
	"context"
	"errors"
	"testing"

	db "github.com/azizikri/pawclub-functions/db/gen"
	"github.com/azizikri/pawclub-functions/internal/domain"
	"github.com/google/uuid"
)

func (f *fixture) addBirthdayOffer() uuid.UUID {
	id := uuid.New()
	f.store.birthdayOffers[id] = db.SentBirthdayOffer{
		ID:            id,
		BusinessID:    f.business,
		OwnerUserID:   f.member,
		PetName:       "Rex",
		DiscountValue: 10,
		DiscountType:  "fixed",
	}
	return id
}

func TestRedeemBirthdayOffer_Success(t *testing.T) {
	f := newFixture()
	id := f.addBirthdayOffer()

	got, err := f.svc.RedeemBirthdayOffer(context.Background(), f.owner, RedeemBirthdayOfferInput{
		BirthdayOfferID: id.String(),
		BusinessID:      f.business.String(),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.PetName != "Rex" || got.Discount != "$10.00 off" || got.BusinessName != "Happy Groomers" {
		t.Fatalf("unexpected result: %+v", got)
	}

	row := f.store.birthdayOffers[id]
	if row.RedeemedAt == nil || row.RedeemedByBusinessID == nil || *row.RedeemedByBusinessID != f.business {
		t.Fatalf("expected offer marked redeemed by business, got %+v", row)
	}
	if n := f.store.notificationsOfType(f.member, domain.NotificationBirthdayRedeemed); n != 1 {
		t.Fatalf("expected 1 notification, got %d", n)
	}
	if len(f.store.events) != 1 || f.store.events[0].EventType != domain.EventBirthdayOfferRedeemed {
		t.Fatalf("expected 1 analytics event, got %+v", f.store.events)
	}
}

func TestRedeemBirthdayOffer_AlreadyRedeemedNeverMutates(t *testing.T) {
	f := newFixture()
	id := f.addBirthdayOffer()
	first := uuid.New()
	row := f.store.birthdayOffers[id]
	row.RedeemedAt = ptr(fixedNow.AddDate(0, 0, -1))
	row.RedeemedByBusinessID = &first
	f.store.birthdayOffers[id] = row

	_, err := f.svc.RedeemBirthdayOffer(context.Background(), f.owner, RedeemBirthdayOfferInput{
		BirthdayOfferID: id.String(),
		BusinessID:      f.business.String(),
	})
	if !errors.Is(err, domain.ErrAlreadyRedeemed) {
		t.Fatalf("expected ErrAlreadyRedeemed, got %v", err)
	}
	if got := f.store.birthdayOffers[id].RedeemedByBusinessID; got == nil || *got != first {
		t.Fatalf("redeemed_by_business_id must not change, got %v", got)
	}
	if len(f.store.accessFor("MarkBirthdayOfferRedeemed")) != 0 {
		t.Fatal("no update should be attempted for a redeemed offer")
	}
}

func TestRedeemBirthdayOffer_Validation(t *testing.T) {
	f := newFixture()
	id := f.addBirthdayOffer()

	tests := []struct {
		name   string
		caller uuid.UUID
		in     RedeemBirthdayOfferInput
		want   error
	}{
		{"no caller", uuid.Nil, RedeemBirthdayOfferInput{BirthdayOfferID: id.String(), BusinessID: f.business.String()}, domain.ErrUnauthenticated},
		{"missing business", f.owner, RedeemBirthdayOfferInput{BirthdayOfferID: id.String()}, domain.ErrMissingFields},
		{"malformed offer id", f.owner, RedeemBirthdayOfferInput{BirthdayOfferID: "42", BusinessID: f.business.String()}, domain.ErrInvalidInput},
		{"malformed business id", f.owner, RedeemBirthdayOfferInput{BirthdayOfferID: id.String(), BusinessID: "x"}, domain.ErrInvalidInput},
		{"not owner", uuid.New(), RedeemBirthdayOfferInput{BirthdayOfferID: id.String(), BusinessID: f.business.String()}, domain.ErrForbidden},
		{"unknown offer", f.owner, RedeemBirthdayOfferInput{BirthdayOfferID: uuid.NewString(), BusinessID: f.business.String()}, domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.RedeemBirthdayOffer(context.Background(), tt.caller, tt.in)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestRedeemBirthdayOffer_MalformedIDSkipsStore(t *testing.T) {
	f := newFixture()

	_, err := f.svc.RedeemBirthdayOffer(context.Background(), f.owner, RedeemBirthdayOfferInput{
		BirthdayOfferID: "not-a-uuid",
		BusinessID:      f.business.String(),
	})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if len(f.store.calls) != 0 {
		t.Fatalf("expected no datastore calls, got %d", len(f.store.calls))
	}
}

func TestRedeemBirthdayOffer_SideEffectFailureIsSoft(t *testing.T) {
	f := newFixture()
	id := f.addBirthdayOffer()
	f.store.failOn["InsertAnalyticsEvent"] = errBoom

	if _, err := f.svc.RedeemBirthdayOffer(context.Background(), f.owner, RedeemBirthdayOfferInput{
		BirthdayOfferID: id.String(),
		BusinessID:      f.business.String(),
	}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if f.store.birthdayOffers[id].RedeemedAt == nil {
		t.Fatal("expected offer to stay redeemed")
	}
}
