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
	"github.com/rs/zerolog"
)

type ConfirmRedemptionInput struct {
	MembershipID string
	OfferID      string
	BusinessID   string
}

// ConfirmRedemption records that a member redeemed an offer at the caller's
// business. A (membership, offer) pair can be redeemed at most once; a retry
// is rejected with domain.ErrAlreadyRedeemed.
func (s *Service) ConfirmRedemption(ctx context.Context, callerID uuid.UUID, in ConfirmRedemptionInput) (*domain.Redemption, error) {
	if callerID == uuid.Nil {
		return nil, domain.ErrUnauthenticated
	}
	if in.MembershipID == "" || in.OfferID == "" || in.BusinessID == "" {
		return nil, domain.ErrMissingFields
	}
	membershipID, err := parseID(in.MembershipID)
	if err != nil {
		return nil, err
	}
	offerID, err := parseID(in.OfferID)
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

	// The membership belongs to another user, so it is read with service access.
	var membership db.Membership
	var offer db.Offer
	err = s.store.ExecTx(ctx, repository.AsService(), func(q repository.Querier) error {
		var err error
		if membership, err = q.GetMembership(ctx, membershipID); err != nil {
			return notFound(err, "membership")
		}
		if offer, err = q.GetOffer(ctx, offerID); err != nil {
			return notFound(err, "offer")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if offer.BusinessID != businessID {
		return nil, fmt.Errorf("offer %s at business %s: %w", offerID, businessID, domain.ErrNotFound)
	}

	memberName, petNames := s.memberDisplay(ctx, membership)

	var row db.Redemption
	err = s.store.ExecTx(ctx, repository.AsService(), func(q repository.Querier) error {
		exists, err := q.RedemptionExists(ctx, db.RedemptionExistsParams{
			MembershipID: membershipID,
			OfferID:      offerID,
		})
		if err != nil {
			return fmt.Errorf("%w: check redemption: %v", domain.ErrWriteFailed, err)
		}
		if exists {
			return domain.ErrAlreadyRedeemed
		}

		row, err = q.InsertRedemption(ctx, db.InsertRedemptionParams{
			MembershipID:     membershipID,
			OfferID:          offerID,
			BusinessID:       businessID,
			RedeemedByUserID: callerID,
		})
		if err != nil {
			// The unique (membership, offer) constraint lost a race to a
			// concurrent confirm.
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrAlreadyRedeemed
			}
			return fmt.Errorf("%w: insert redemption: %v", domain.ErrWriteFailed, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	discount := domain.FormatDiscount(offer.DiscountValue, offer.DiscountType)
	s.dispatch(ctx, "confirm-redemption", domain.NotifyTask(domain.Notification{
		UserID:  membership.UserID,
		Type:    domain.NotificationRedemption,
		Title:   "Offer redeemed",
		Message: fmt.Sprintf("You saved %s on %s at %s.", discount, offer.Title, businessName),
		Data: map[string]any{
			"ref_id":        row.ID.String(),
			"redemption_id": row.ID.String(),
			"offer_id":      offerID.String(),
			"business_id":   businessID.String(),
			"discount":      discount,
		},
	}))

	return &domain.Redemption{
		ID:           row.ID,
		OfferTitle:   offer.Title,
		Discount:     discount,
		BusinessName: businessName,
		RedeemedAt:   row.RedeemedAt,
		MemberName:   memberName,
		PetNames:     petNames,
		MemberNumber: membership.MemberNumber,
		RedeemedByID: row.RedeemedByUserID,
	}, nil
}

// memberDisplay loads names for the receipt. Failures only degrade the
// response.
func (s *Service) memberDisplay(ctx context.Context, membership db.Membership) (string, []string) {
	memberName := "Member"
	petNames := []string{}

	err := s.store.ExecTx(ctx, repository.AsService(), func(q repository.Querier) error {
		names, err := q.ListPetNamesByMembership(ctx, membership.ID)
		if err != nil {
			return fmt.Errorf("list pets: %w", err)
		}
		if names != nil {
			petNames = names
		}
		profile, err := q.GetProfile(ctx, membership.UserID)
		if err != nil {
			return fmt.Errorf("get profile: %w", err)
		}
		if profile.FullName != nil && *profile.FullName != "" {
			memberName = *profile.FullName
		}
		return nil
	})
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).
			Str("membership_id", membership.ID.String()).
			Msg("member display data unavailable")
	}
	return memberName, petNames
}
