package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/azizikri/pawclub-functions/internal/auth"
	"github.com/azizikri/pawclub-functions/internal/domain"
	"github.com/azizikri/pawclub-functions/internal/usecase"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Service is the set of operations exposed over HTTP.
type Service interface {
	ConfirmRedemption(ctx context.Context, callerID uuid.UUID, in usecase.ConfirmRedemptionInput) (*domain.Redemption, error)
	RedeemBirthdayOffer(ctx context.Context, callerID uuid.UUID, in usecase.RedeemBirthdayOfferInput) (*domain.BirthdayRedemption, error)
	ExpireMemberships(ctx context.Context) (*domain.ExpiryResult, error)
	DeleteAllUsers(ctx context.Context, callerID uuid.UUID, in usecase.DeleteAllUsersInput) (*domain.DeleteUsersResult, error)
	VerifyEmailToken(ctx context.Context, token string) (*domain.Verification, error)
	SendVerificationEmail(ctx context.Context, callerID uuid.UUID, address string) error
	RequestPasswordReset(ctx context.Context, address string) error
	SendReminders(ctx context.Context) (*domain.ReminderResult, error)
}

const (
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeMissingFields   = "MISSING_FIELDS"
	CodeInvalidInput    = "INVALID_INPUT"
	CodeNotFound        = "NOT_FOUND"
	CodeAlreadyRedeemed = "ALREADY_REDEEMED"
	CodeInsertFailed    = "INSERT_FAILED"
	CodeUpdateFailed    = "UPDATE_FAILED"
	CodeInternalError   = "INTERNAL_ERROR"
)

type ConfirmRedemptionRequest struct {
	MembershipID string `json:"membershipId"`
	OfferID      string `json:"offerId"`
	BusinessID   string `json:"businessId"`
}

type RedemptionResponse struct {
	ID           string    `json:"id"`
	OfferTitle   string    `json:"offerTitle"`
	Discount     string    `json:"discount"`
	BusinessName string    `json:"businessName"`
	RedeemedAt   time.Time `json:"redeemedAt"`
	MemberName   string    `json:"memberName"`
	PetNames     []string  `json:"petNames"`
	MemberNumber string    `json:"memberNumber"`
	RedeemedBy   string    `json:"redeemedByUserId"`
}

type RedeemBirthdayOfferRequest struct {
	BirthdayOfferID string `json:"birthdayOfferId"`
	BusinessID      string `json:"businessId"`
}

type BirthdayRedemptionResponse struct {
	ID           string    `json:"id"`
	PetName      string    `json:"petName"`
	Discount     string    `json:"discount"`
	BusinessName string    `json:"businessName"`
	RedeemedAt   time.Time `json:"redeemedAt"`
}

type ExpireMembershipsResponse struct {
	Success     bool                       `json:"success"`
	Message     string                     `json:"message"`
	Count       int                        `json:"count"`
	Deactivated []domain.ExpiredMembership `json:"deactivated"`
}

type DeleteAllUsersRequest struct {
	ConfirmationToken string `json:"confirmationToken"`
	IncludeAdmins     bool   `json:"includeAdmins"`
}

type DeleteAllUsersResponse struct {
	Success       bool     `json:"success"`
	Deleted       int      `json:"deleted"`
	DeletedEmails []string `json:"deletedEmails"`
	Errors        []string `json:"errors"`
	SkippedAdmins int      `json:"skippedAdmins"`
	InitiatedBy   string   `json:"initiatedBy"`
}

type TokenRequest struct {
	Token string `json:"token"`
}

type EmailRequest struct {
	Email string `json:"email"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Email   string `json:"email,omitempty"`
}

type RemindersResponse struct {
	Success       bool `json:"success"`
	Birthdays     int  `json:"birthdays"`
	Anniversaries int  `json:"anniversaries"`
}

const passwordResetMessage = "If an account exists for that email, a password reset link has been sent."

type Handler struct {
	service    Service
	verifier   *auth.Verifier
	cronSecret string
}

func NewHandler(service Service, verifier *auth.Verifier, cronSecret string) *Handler {
	return &Handler{service: service, verifier: verifier, cronSecret: cronSecret}
}

func (h *Handler) Routes(r chi.Router) {
	r.Route("/functions/v1", func(r chi.Router) {
		r.Use(CORS)
		r.Use(Authenticate(h.verifier))

		r.Post("/confirm-redemption", h.ConfirmRedemption)
		r.Post("/redeem-birthday-offer", h.RedeemBirthdayOffer)
		r.Post("/delete-all-users", h.DeleteAllUsers)
		r.Post("/verify-email-token", h.VerifyEmailToken)
		r.Post("/send-verification-email", h.SendVerificationEmail)
		r.Post("/request-password-reset", h.RequestPasswordReset)

		r.Group(func(r chi.Router) {
			r.Use(RequireCronSecret(h.cronSecret))
			r.Post("/expire-memberships", h.ExpireMemberships)
			r.Post("/send-reminders", h.SendReminders)
		})
	})
}

func (h *Handler) ConfirmRedemption(w http.ResponseWriter, r *http.Request) {
	const op = "confirm-redemption"

	callerID, ok := auth.UserID(r.Context())
	if !ok {
		fail(w, r, op, http.StatusUnauthorized, "Unauthorized", CodeUnauthorized, domain.ErrUnauthenticated)
		return
	}

	var req ConfirmRedemptionRequest
	if err := decode(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		fail(w, r, op, http.StatusBadRequest, "Invalid request body", CodeInvalidInput, err)
		return
	}

	redemption, err := h.service.ConfirmRedemption(r.Context(), callerID, usecase.ConfirmRedemptionInput{
		MembershipID: req.MembershipID,
		OfferID:      req.OfferID,
		BusinessID:   req.BusinessID,
	})
	if err != nil {
		status, message, code := redemptionError(err, CodeInsertFailed)
		fail(w, r, op, status, message, code, err)
		return
	}

	petNames := redemption.PetNames
	if petNames == nil {
		petNames = []string{}
	}
	respond(w, op, map[string]any{
		"success": true,
		"redemption": RedemptionResponse{
			ID:           redemption.ID.String(),
			OfferTitle:   redemption.OfferTitle,
			Discount:     redemption.Discount,
			BusinessName: redemption.BusinessName,
			RedeemedAt:   redemption.RedeemedAt,
			MemberName:   redemption.MemberName,
			PetNames:     petNames,
			MemberNumber: redemption.MemberNumber,
			RedeemedBy:   redemption.RedeemedByID.String(),
		},
	})
}

func (h *Handler) RedeemBirthdayOffer(w http.ResponseWriter, r *http.Request) {
	const op = "redeem-birthday-offer"

	callerID, ok := auth.UserID(r.Context())
	if !ok {
		fail(w, r, op, http.StatusUnauthorized, "Unauthorized", CodeUnauthorized, domain.ErrUnauthenticated)
		return
	}

	var req RedeemBirthdayOfferRequest
	if err := decode(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		fail(w, r, op, http.StatusBadRequest, "Invalid request body", CodeInvalidInput, err)
		return
	}

	redemption, err := h.service.RedeemBirthdayOffer(r.Context(), callerID, usecase.RedeemBirthdayOfferInput{
		BirthdayOfferID: req.BirthdayOfferID,
		BusinessID:      req.BusinessID,
	})
	if err != nil {
		status, message, code := redemptionError(err, CodeUpdateFailed)
		fail(w, r, op, status, message, code, err)
		return
	}

	respond(w, op, map[string]any{
		"success": true,
		"redemption": BirthdayRedemptionResponse{
			ID:           redemption.ID.String(),
			PetName:      redemption.PetName,
			Discount:     redemption.Discount,
			BusinessName: redemption.BusinessName,
			RedeemedAt:   redemption.RedeemedAt,
		},
	})
}

// redemptionError maps use case errors to status, message and code for the
// redemption operations. writeCode names the failed write.
func redemptionError(err error, writeCode string) (int, string, string) {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, "Unauthorized", CodeUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "You are not authorized to redeem offers for this business", CodeUnauthorized
	case errors.Is(err, domain.ErrMissingFields):
		return http.StatusBadRequest, "Missing required fields", CodeMissingFields
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "Invalid identifier format", CodeInvalidInput
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "Membership or offer not found", CodeNotFound
	case errors.Is(err, domain.ErrAlreadyRedeemed):
		return http.StatusConflict, "This offer has already been redeemed", CodeAlreadyRedeemed
	case errors.Is(err, domain.ErrWriteFailed):
		return http.StatusInternalServerError, "Failed to record redemption", writeCode
	default:
		return http.StatusInternalServerError, "Internal server error", CodeInternalError
	}
}

func (h *Handler) ExpireMemberships(w http.ResponseWriter, r *http.Request) {
	const op = "expire-memberships"

	result, err := h.service.ExpireMemberships(r.Context())
	if err != nil {
		fail(w, r, op, http.StatusInternalServerError, "Failed to expire memberships", "", err)
		return
	}

	message := "No memberships to expire"
	if result.Count > 0 {
		message = fmt.Sprintf("Deactivated %d expired memberships", result.Count)
	}
	deactivated := result.Deactivated
	if deactivated == nil {
		deactivated = []domain.ExpiredMembership{}
	}
	respond(w, op, ExpireMembershipsResponse{
		Success:     true,
		Message:     message,
		Count:       result.Count,
		Deactivated: deactivated,
	})
}

func (h *Handler) DeleteAllUsers(w http.ResponseWriter, r *http.Request) {
	const op = "delete-all-users"

	identity, ok := auth.FromContext(r.Context())
	if !ok || identity.UserID == uuid.Nil {
		fail(w, r, op, http.StatusUnauthorized, "Unauthorized", "", domain.ErrUnauthenticated)
		return
	}

	var req DeleteAllUsersRequest
	if err := decode(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		fail(w, r, op, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}

	result, err := h.service.DeleteAllUsers(r.Context(), identity.UserID, usecase.DeleteAllUsersInput{
		InitiatorEmail:    identity.Email,
		ConfirmationToken: req.ConfirmationToken,
		IncludeAdmins:     req.IncludeAdmins,
	})
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		fail(w, r, op, http.StatusUnauthorized, "Unauthorized", "", err)
		return
	case errors.Is(err, domain.ErrForbidden):
		fail(w, r, op, http.StatusForbidden, "Admin access required", "", err)
		return
	case errors.Is(err, domain.ErrBadConfirmation):
		fail(w, r, op, http.StatusBadRequest, fmt.Sprintf("Invalid confirmation token. Send confirmationToken: %q to proceed.", usecase.DeleteAllUsersConfirmation), "", err)
		return
	case err != nil:
		fail(w, r, op, http.StatusInternalServerError, "Failed to delete users", "", err)
		return
	}

	respond(w, op, DeleteAllUsersResponse{
		Success:       true,
		Deleted:       result.Deleted,
		DeletedEmails: result.DeletedEmails,
		Errors:        result.Errors,
		SkippedAdmins: result.SkippedAdmins,
		InitiatedBy:   result.InitiatedBy,
	})
}

func (h *Handler) VerifyEmailToken(w http.ResponseWriter, r *http.Request) {
	const op = "verify-email-token"

	var req TokenRequest
	if err := decode(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		fail(w, r, op, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}

	verification, err := h.service.VerifyEmailToken(r.Context(), req.Token)
	switch {
	case errors.Is(err, domain.ErrMissingFields):
		fail(w, r, op, http.StatusBadRequest, "Token is required", "", err)
		return
	case errors.Is(err, domain.ErrInvalidToken):
		fail(w, r, op, http.StatusBadRequest, "Invalid or expired verification token", "", err)
		return
	case errors.Is(err, domain.ErrTokenExpired):
		fail(w, r, op, http.StatusBadRequest, "Verification token has expired. Please request a new one.", "", err)
		return
	case err != nil:
		fail(w, r, op, http.StatusInternalServerError, "Failed to verify email", "", err)
		return
	}

	respond(w, op, MessageResponse{
		Success: true,
		Message: "Email verified successfully",
		Email:   verification.Email,
	})
}

func (h *Handler) SendVerificationEmail(w http.ResponseWriter, r *http.Request) {
	const op = "send-verification-email"

	callerID, ok := auth.UserID(r.Context())
	if !ok {
		fail(w, r, op, http.StatusUnauthorized, "Unauthorized", "", domain.ErrUnauthenticated)
		return
	}

	var req EmailRequest
	if err := decode(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		fail(w, r, op, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}

	err := h.service.SendVerificationEmail(r.Context(), callerID, req.Email)
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		fail(w, r, op, http.StatusUnauthorized, "Unauthorized", "", err)
		return
	case errors.Is(err, domain.ErrNoEmailOnAccount):
		fail(w, r, op, http.StatusBadRequest, "No email address on account", "", err)
		return
	case err != nil:
		fail(w, r, op, http.StatusInternalServerError, "Failed to send verification email", "", err)
		return
	}

	respond(w, op, MessageResponse{Success: true, Message: "Verification email sent"})
}

// RequestPasswordReset answers the same way whether or not the address
// belongs to an account.
func (h *Handler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	const op = "request-password-reset"

	var req EmailRequest
	if err := decode(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		fail(w, r, op, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}

	if err := h.service.RequestPasswordReset(r.Context(), req.Email); err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("password reset request not completed")
	}
	respond(w, op, MessageResponse{Success: true, Message: passwordResetMessage})
}

func (h *Handler) SendReminders(w http.ResponseWriter, r *http.Request) {
	const op = "send-reminders"

	result, err := h.service.SendReminders(r.Context())
	if err != nil {
		fail(w, r, op, http.StatusInternalServerError, "Failed to send reminders", "", err)
		return
	}
	respond(w, op, RemindersResponse{
		Success:       true,
		Birthdays:     result.Birthdays,
		Anniversaries: result.Anniversaries,
	})
}
