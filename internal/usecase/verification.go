package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"

	db "github.com/azizikri/pawclub-functions/db/gen"
	"github.com/azizikri/pawclub-functions/internal/domain"
	"github.com/azizikri/pawclub-functions/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// VerifyEmailToken consumes a single-use verification token, marks the
// owner's email verified and queues the welcome email.
//
// Unknown and already-consumed tokens both yield domain.ErrInvalidToken;
// a pending token past its expiry yields domain.ErrTokenExpired.
func (s *Service) VerifyEmailToken(ctx context.Context, token string) (*domain.Verification, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.ErrMissingFields
	}

	now := s.now()
	var row db.EmailVerificationToken
	err := s.store.ExecTx(ctx, repository.AsService(), func(q repository.Querier) error {
		var err error
		row, err = q.GetPendingVerificationToken(ctx, token)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrInvalidToken
			}
			return fmt.Errorf("load token: %w", err)
		}
		if !now.Before(row.ExpiresAt) {
			return domain.ErrTokenExpired
		}

		consumed, err := q.ConsumeVerificationToken(ctx, db.ConsumeVerificationTokenParams{ID: row.ID, Now: now})
		if err != nil {
			return fmt.Errorf("%w: consume token: %v", domain.ErrWriteFailed, err)
		}
		if consumed == 0 {
			return domain.ErrInvalidToken
		}

		if _, err := q.SetEmailVerified(ctx, row.UserID); err != nil {
			return fmt.Errorf("%w: set email verified: %v", domain.ErrWriteFailed, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	name := ""
	err = s.store.ExecTx(ctx, repository.AsService(), func(q repository.Querier) error {
		profile, err := q.GetProfile(ctx, row.UserID)
		if err != nil {
			return err
		}
		if profile.FullName != nil {
			name = *profile.FullName
		}
		return nil
	})
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("user_id", row.UserID.String()).Msg("profile unavailable for welcome email")
	}

	s.dispatch(ctx, "verify-email-token", domain.EmailTask(domain.Email{
		Template: domain.EmailWelcome,
		To:       row.Email,
		Name:     name,
	}))

	return &domain.Verification{Email: row.Email}, nil
}

// SendVerificationEmail issues a fresh verification token for the caller and
// queues the email carrying the link.
func (s *Service) SendVerificationEmail(ctx context.Context, callerID uuid.UUID, address string) error {
	if callerID == uuid.Nil {
		return domain.ErrUnauthenticated
	}

	token, err := newToken()
	if err != nil {
		return err
	}

	name := ""
	err = s.store.ExecTx(ctx, repository.AsUser(callerID), func(q repository.Querier) error {
		profile, err := q.GetProfile(ctx, callerID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("load profile: %w", err)
		}
		if err == nil {
			if address == "" {
				address = profile.Email
			}
			if profile.FullName != nil {
				name = *profile.FullName
			}
		}
		if address == "" {
			return domain.ErrNoEmailOnAccount
		}

		if err := q.InsertVerificationToken(ctx, db.InsertVerificationTokenParams{
			UserID:    callerID,
			Email:     address,
			Token:     token,
			ExpiresAt: s.now().Add(verificationTTL),
		}); err != nil {
			return fmt.Errorf("%w: insert verification token: %v", domain.ErrWriteFailed, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.dispatch(ctx, "send-verification-email", domain.EmailTask(domain.Email{
		Template: domain.EmailVerify,
		To:       address,
		Name:     name,
		Link:     s.link("/verify-email", token),
	}))
	return nil
}

// RequestPasswordReset queues a reset email when the address belongs to an
// account. Callers must not surface the returned error: the endpoint answers
// the same way whether or not the account exists.
func (s *Service) RequestPasswordReset(ctx context.Context, address string) error {
	address = strings.TrimSpace(address)
	if address == "" {
		return domain.ErrMissingFields
	}

	token, err := newToken()
	if err != nil {
		return err
	}

	var found bool
	err = s.store.ExecTx(ctx, repository.AsService(), func(q repository.Querier) error {
		user, err := q.GetUserByEmail(ctx, address)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return fmt.Errorf("load user: %w", err)
		}
		found = true
		return q.InsertPasswordResetToken(ctx, db.InsertPasswordResetTokenParams{
			UserID:    user.ID,
			Token:     token,
			ExpiresAt: s.now().Add(passwordResetTTL),
		})
	})
	if err != nil {
		return err
	}
	if !found {
		zerolog.Ctx(ctx).Debug().Msg("password reset requested for unknown address")
		return nil
	}

	s.dispatch(ctx, "request-password-reset", domain.EmailTask(domain.Email{
		Template: domain.EmailPasswordReset,
		To:       address,
		Link:     s.link("/reset-password", token),
	}))
	return nil
}

func (s *Service) link(path, token string) string {
	return strings.TrimRight(s.opts.AppBaseURL, "/") + path + "?token=" + url.QueryEscape(token)
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
