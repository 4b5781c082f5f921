package usecase

import (
	"context"
	"fmt"

	db "github.com/azizikri/pawclub-functions/db/gen"
	"github.com/azizikri/pawclub-functions/internal/domain"
	"github.com/azizikri/pawclub-functions/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type DeleteAllUsersInput struct {
	InitiatorEmail    string
	ConfirmationToken string
	IncludeAdmins     bool
}

// DeleteAllUsers removes every account, excluding administrators unless
// IncludeAdmins is set. The caller must hold the admin role and send the
// literal confirmation token. Per-user failures are collected, not fatal.
func (s *Service) DeleteAllUsers(ctx context.Context, callerID uuid.UUID, in DeleteAllUsersInput) (*domain.DeleteUsersResult, error) {
	if callerID == uuid.Nil {
		return nil, domain.ErrUnauthenticated
	}

	logger := zerolog.Ctx(ctx).With().Str("initiated_by", callerID.String()).Logger()

	var isAdmin bool
	err := s.store.ExecTx(ctx, repository.AsService(), func(q repository.Querier) error {
		var err error
		isAdmin, err = q.HasRole(ctx, db.HasRoleParams{UserID: callerID, Role: domain.RoleAdmin})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("check admin role: %w", err)
	}
	if !isAdmin {
		logger.Warn().Msg("delete-all-users rejected: caller is not an admin")
		return nil, domain.ErrForbidden
	}

	if in.ConfirmationToken != DeleteAllUsersConfirmation {
		logger.Warn().Msg("delete-all-users rejected: bad confirmation token")
		return nil, domain.ErrBadConfirmation
	}

	excluded := map[uuid.UUID]bool{}
	var users []db.User
	err = s.store.ExecTx(ctx, repository.AsService(), func(q repository.Querier) error {
		if !in.IncludeAdmins {
			admins, err := q.ListUserIDsByRole(ctx, domain.RoleAdmin)
			if err != nil {
				return fmt.Errorf("list admins: %w", err)
			}
			for _, id := range admins {
				excluded[id] = true
			}
		}

		limit := int32(s.opts.PageSize)
		for offset := int32(0); ; offset += limit {
			page, err := q.ListUsers(ctx, db.ListUsersParams{Limit: limit, Offset: offset})
			if err != nil {
				return fmt.Errorf("list users at offset %d: %w", offset, err)
			}
			users = append(users, page...)
			if len(page) < int(limit) {
				return nil
			}
		}
	})
	if err != nil {
		return nil, err
	}

	initiator := in.InitiatorEmail
	if initiator == "" {
		initiator = callerID.String()
	}
	result := &domain.DeleteUsersResult{
		DeletedEmails: []string{},
		Errors:        []string{},
		InitiatedBy:   initiator,
	}

	logger.Warn().Int("users", len(users)).Bool("include_admins", in.IncludeAdmins).Msg("delete-all-users started")

	for _, u := range users {
		if excluded[u.ID] {
			result.SkippedAdmins++
			continue
		}

		var affected int64
		err := s.store.ExecTx(ctx, repository.AsService(), func(q repository.Querier) error {
			var err error
			affected, err = q.DeleteUser(ctx, u.ID)
			return err
		})
		switch {
		case err != nil:
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", u.Email, err))
		case affected == 0:
			result.Errors = append(result.Errors, fmt.Sprintf("%s: already deleted", u.Email))
		default:
			result.Deleted++
			result.DeletedEmails = append(result.DeletedEmails, u.Email)
		}
	}

	logger.Warn().
		Str("initiator", initiator).
		Int("deleted", result.Deleted).
		Int("skipped_admins", result.SkippedAdmins).
		Int("errors", len(result.Errors)).
		Strs("deleted_emails", result.DeletedEmails).
		Strs("failures", result.Errors).
		Msg("delete-all-users finished")

	return result, nil
}
