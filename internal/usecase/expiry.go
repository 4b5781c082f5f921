package usecase

import (
	"context"
	"fmt"

	db "github.com/azizikri/pawclub-functions/db/gen"
	"github.com/azizikri/pawclub-functions/internal/domain"
	"github.com/azizikri/pawclub-functions/internal/metrics"
	"github.com/azizikri/pawclub-functions/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ExpireMemberships deactivates every active membership that expired more
// than the grace period ago and notifies each owner once. Running it again
// finds nothing to do.
func (s *Service) ExpireMemberships(ctx context.Context) (*domain.ExpiryResult, error) {
	cutoff := s.now().Add(-s.opts.GracePeriod)

	var expired []db.Membership
	err := s.store.ExecTx(ctx, repository.AsService(), func(q repository.Querier) error {
		limit := int32(s.opts.PageSize)
		for offset := int32(0); ; offset += limit {
			page, err := q.ListExpiredMemberships(ctx, db.ListExpiredMembershipsParams{
				Cutoff: cutoff,
				Limit:  limit,
				Offset: offset,
			})
			if err != nil {
				return fmt.Errorf("list expired memberships at offset %d: %w", offset, err)
			}
			expired = append(expired, page...)
			if len(page) < int(limit) {
				return nil
			}
		}
	})
	if err != nil {
		return nil, err
	}

	result := &domain.ExpiryResult{Deactivated: []domain.ExpiredMembership{}}
	if len(expired) == 0 {
		return result, nil
	}

	ids := make([]string, 0, len(expired))
	for _, m := range expired {
		ids = append(ids, m.ID.String())
	}

	var affected int64
	err = s.store.ExecTx(ctx, repository.AsService(), func(q repository.Querier) error {
		var err error
		affected, err = q.DeactivateMemberships(ctx, ids)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: deactivate memberships: %v", domain.ErrWriteFailed, err)
	}
	metrics.Affected.WithLabelValues("expire-memberships").Add(float64(affected))

	notified := make(map[uuid.UUID]bool, len(expired))
	notifications := make([]domain.Notification, 0, len(expired))
	for _, m := range expired {
		expiresAt := cutoff
		if m.ExpiresAt != nil {
			expiresAt = *m.ExpiresAt
		}
		result.Deactivated = append(result.Deactivated, domain.ExpiredMembership{
			ID:           m.ID,
			MemberNumber: m.MemberNumber,
			ExpiresAt:    expiresAt,
		})

		if notified[m.UserID] {
			continue
		}
		notified[m.UserID] = true
		notifications = append(notifications, domain.Notification{
			UserID:  m.UserID,
			Type:    domain.NotificationMembershipExpired,
			Title:   "Your membership has expired",
			Message: fmt.Sprintf("Membership %s expired on %s. Your account is now on the free plan; renew to keep your member discounts.", m.MemberNumber, expiresAt.Format("January 2, 2006")),
			Data: map[string]any{
				"ref_id":        m.ID.String(),
				"membership_id": m.ID.String(),
				"member_number": m.MemberNumber,
				"expired_at":    expiresAt,
				"new_plan":      domain.PlanFree,
			},
		})
	}
	result.Count = len(result.Deactivated)

	zerolog.Ctx(ctx).Info().
		Int("count", result.Count).
		Int64("affected", affected).
		Time("cutoff", cutoff).
		Msg("memberships expired")

	s.dispatch(ctx, "expire-memberships", domain.NotifyTask(notifications...))
	return result, nil
}
