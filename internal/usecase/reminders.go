package usecase

import (
	"context"
	"fmt"
	"time"

	db "github.com/azizikri/pawclub-functions/db/gen"
	"github.com/azizikri/pawclub-functions/internal/domain"
	"github.com/azizikri/pawclub-functions/internal/metrics"
	"github.com/azizikri/pawclub-functions/internal/repository"
	"github.com/rs/zerolog"
)

// SendReminders notifies owners of pets with a birthday today and of active
// memberships reaching an anniversary today. A reminder already sent today
// is not repeated.
func (s *Service) SendReminders(ctx context.Context) (*domain.ReminderResult, error) {
	now := s.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	month, day := int32(now.Month()), int32(now.Day())
	leapDay := observesLeapDay(startOfDay)
	limit := int32(s.opts.PageSize)

	result := &domain.ReminderResult{}
	err := s.store.ExecTx(ctx, repository.AsService(), func(q repository.Querier) error {
		var pending []db.InsertNotificationParams

		for offset := int32(0); ; offset += limit {
			pets, err := q.ListBirthdayPets(ctx, db.ListBirthdayPetsParams{Month: month, Day: day, LeapDay: leapDay, Limit: limit, Offset: offset})
			if err != nil {
				return fmt.Errorf("list birthday pets: %w", err)
			}
			for _, pet := range pets {
				sent, err := q.NotificationSentSince(ctx, db.NotificationSentSinceParams{
					UserID: pet.OwnerID,
					Type:   domain.NotificationPetBirthday,
					RefID:  pet.ID.String(),
					Since:  startOfDay,
				})
				if err != nil {
					return fmt.Errorf("check birthday reminder: %w", err)
				}
				if sent {
					continue
				}
				pending = append(pending, db.InsertNotificationParams{
					UserID:  pet.OwnerID,
					Type:    domain.NotificationPetBirthday,
					Title:   fmt.Sprintf("Happy birthday, %s!", pet.PetName),
					Message: fmt.Sprintf("%s has a birthday today. Check your offers for birthday treats from partner businesses.", pet.PetName),
					Data:    map[string]any{"ref_id": pet.ID.String(), "pet_id": pet.ID.String()},
				})
				result.Birthdays++
			}
			if len(pets) < int(limit) {
				break
			}
		}

		for offset := int32(0); ; offset += limit {
			memberships, err := q.ListAnniversaryMemberships(ctx, db.ListAnniversaryMembershipsParams{
				Month:   month,
				Day:     day,
				LeapDay: leapDay,
				Before:  startOfDay,
				Limit:   limit,
				Offset:  offset,
			})
			if err != nil {
				return fmt.Errorf("list anniversary memberships: %w", err)
			}
			for _, m := range memberships {
				sent, err := q.NotificationSentSince(ctx, db.NotificationSentSinceParams{
					UserID: m.UserID,
					Type:   domain.NotificationMembershipAnniversary,
					RefID:  m.ID.String(),
					Since:  startOfDay,
				})
				if err != nil {
					return fmt.Errorf("check anniversary reminder: %w", err)
				}
				if sent {
					continue
				}
				years := now.Year() - m.StartedAt.Year()
				pending = append(pending, db.InsertNotificationParams{
					UserID:  m.UserID,
					Type:    domain.NotificationMembershipAnniversary,
					Title:   "Happy PawClub anniversary!",
					Message: fmt.Sprintf("You have been a member for %d %s. Thanks for being part of the club.", years, plural(years, "year", "years")),
					Data:    map[string]any{"ref_id": m.ID.String(), "membership_id": m.ID.String(), "years": years},
				})
				result.Anniversaries++
			}
			if len(memberships) < int(limit) {
				break
			}
		}

		return q.InsertNotifications(ctx, pending)
	})
	if err != nil {
		return nil, err
	}

	metrics.Affected.WithLabelValues("send-reminders").Add(float64(result.Birthdays + result.Anniversaries))
	zerolog.Ctx(ctx).Info().
		Int("birthdays", result.Birthdays).
		Int("anniversaries", result.Anniversaries).
		Msg("reminders sent")
	return result, nil
}

// observesLeapDay reports whether February 29 dates are celebrated on day.
// In years without a February 29 they fall on February 28.
func observesLeapDay(day time.Time) bool {
	if day.Month() != time.February || day.Day() != 28 {
		return false
	}
	return day.AddDate(0, 0, 1).Month() == time.March
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
