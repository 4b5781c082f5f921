package usecase

import (
	"context"
	"errors"
	"fmt"

	db "github.com/azizikri/pawclub-functions/db/gen"
	"github.com/azizikri/pawclub-functions/internal/domain"
	"github.com/azizikri/pawclub-functions/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type RedeemBirthdayOfferInput struct {
	BirthdayOfferID string
	BusinessID      string
}

// RedeemBirthdayOffer moves a birthday offer from unredeemed to redeemed.
// The transition is one-way.
func (s *Service) RedeemBirthdayOffer(ctx context.Context, callerID uuid.UUID, in RedeemBirthdayOfferInput) (*domain.BirthdayRedemption, error) {
	if callerID == uuid.Nil {
		return nil, domain.ErrUnauthenticated
	}
	if in.BirthdayOfferID == "" || in.BusinessID == "" {
		return nil, domain.ErrMissingFields
	}
	offerID, err := parseID(in.BirthdayOfferID)
	if err != nil {
		return nil, err
	}
	businessID, err := parseID(in.BusinessID)
	if err != nil {
		return nil, err
	}

	businessName, err := s.requireBusinessOwner(ctx, callerID, businessID)
	if err != nil {
		return nil, err
	}

	var offer db.SentBirthdayOffer
	err = s.store.ExecTx(ctx, repository.AsService(), func(q repository.Querier) error {
		current, err := q.GetBirthdayOffer(ctx, offerID)
		if err != nil {
			return notFound(err, "birthday offer")
		}
		if current.BusinessID != businessID {
			return fmt.Errorf("birthday offer %s at business %s: %w", offerID, businessID, domain.ErrNotFound)
		}
		if current.RedeemedAt != nil {
			return domain.ErrAlreadyRedeemed
		}

		offer, err = q.MarkBirthdayOfferRedeemed(ctx, db.MarkBirthdayOfferRedeemedParams{
			ID:         offerID,
			BusinessID: businessID,
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrAlreadyRedeemed
			}
			return fmt.Errorf("%w: mark birthday offer redeemed: %v", domain.ErrWriteFailed, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	discount := domain.FormatDiscount(offer.DiscountValue, offer.DiscountType)
	owner := offer.OwnerUserID
	s.dispatch(ctx, "redeem-birthday-offer",
		domain.NotifyTask(domain.Notification{
			UserID:  owner,
			Type:    domain.NotificationBirthdayRedeemed,
			Title:   fmt.Sprintf("%s's birthday treat was redeemed", offer.PetName),
			Message: fmt.Sprintf("%s redeemed %s's birthday offer (%s).", businessName, offer.PetName, discount),
			Data: map[string]any{
				"ref_id":            offerID.String(),
				"birthday_offer_id": offerID.String(),
				"business_id":       businessID.String(),
			},
		}),
		domain.AnalyticsTask(domain.AnalyticsEvent{
			UserID:    &owner,
			EventType: domain.EventBirthdayOfferRedeemed,
			EventData: map[string]any{
				"birthday_offer_id": offerID.String(),
				"business_id":       businessID.String(),
				"redeemed_by":       callerID.String(),
				"discount_value":    offer.DiscountValue,
				"discount_type":     offer.DiscountType,
			},
		}),
	)

	redeemedAt := s.now()
	if offer.RedeemedAt != nil {
		redeemedAt = *offer.RedeemedAt
	}
	return &domain.BirthdayRedemption{
		ID:           offer.ID,
		PetName:      offer.PetName,
		Discount:     discount,
		BusinessName: businessName,
		RedeemedAt:   redeemedAt,
	}, nil
}
