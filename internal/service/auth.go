package service

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"felicity/cmd/middleware"
	"felicity/internal/dto"
	"felicity/internal/model"
	"felicity/internal/repo"
	"felicity/pkg/validator"

	"github.com/wb-go/wbf/ginext"
)

const tokenTTL = 72 * time.Hour

func (s *service) Signup(c *ginext.Context) {
	var req dto.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.log.Error().Err(err).Msg("failed to parse signup request")
		dto.BadResponseError(c, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(c, req); verr != nil {
		dto.BadResponseError(c, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to hash password")
		dto.InternalServerError(c)
		return
	}

	now := time.Now()
	participant := &model.Participant{
		FName:           req.FName,
		LName:           req.LName,
		Email:           req.Email,
		Password:        string(hash),
		ParticipantType: req.ParticipantType,
		Organization:    req.Organization,
		Contact:         req.Contact,
		Role:            model.RoleParticipant,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	id, err := s.repo.CreateParticipant(c.Request.Context(), participant)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			dto.BadResponseError(c, dto.EmailExists, "An account with this email already exists")
			return
		}
		s.log.Error().Err(err).Msg("failed to create participant")
		dto.InternalServerError(c)
		return
	}

	token, err := middleware.NewToken(s.jwtSecret, id.Hex(), model.RoleParticipant, tokenTTL)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to sign token")
		dto.InternalServerError(c)
		return
	}

	s.log.Info().Str("participant_id", id.Hex()).Msg("participant signed up")
	dto.SuccessCreatedResponse(c, dto.TokenResponse{Token: token, Role: string(model.RoleParticipant)})
}

func (s *service) Login(c *ginext.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(c, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(c, req); verr != nil {
		dto.BadResponseError(c, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	role, err := model.ParseRole(req.Role)
	if err != nil {
		dto.BadResponseError(c, dto.FieldIncorrect, "Unknown role")
		return
	}

	ctx := c.Request.Context()
	var (
		id   string
		hash string
	)

	switch role {
	case model.RoleParticipant:
		p, err := s.repo.GetParticipantByEmail(ctx, req.Email)
		if err != nil {
			s.rejectLogin(c, err)
			return
		}
		id, hash = p.ID.Hex(), p.Password

	case model.RoleOrganizer:
		o, err := s.repo.GetOrganizerByEmail(ctx, req.Email)
		if err != nil {
			s.rejectLogin(c, err)
			return
		}
		if !o.Valid {
			dto.ForbiddenError(c, dto.AccountSuspended, "This account has been suspended")
			return
		}
		id, hash = o.ID.Hex(), o.Password

	case model.RoleAdmin:
		a, err := s.repo.GetAdminByUsername(ctx, req.Email)
		if err != nil {
			s.rejectLogin(c, err)
			return
		}
		id, hash = a.ID.Hex(), a.Password
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)); err != nil {
		dto.UnauthorizedError(c, "Invalid email or password")
		return
	}

	token, err := middleware.NewToken(s.jwtSecret, id, role, tokenTTL)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to sign token")
		dto.InternalServerError(c)
		return
	}

	dto.SuccessResponse(c, dto.TokenResponse{Token: token, Role: string(role)})
}

// Role echoes the verified principal's role so clients can restore their
// session view from a stored token.
func (s *service) Role(c *ginext.Context) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		dto.UnauthorizedError(c, "Not authenticated")
		return
	}
	dto.SuccessResponse(c, dto.RoleResponse{Role: string(p.Role)})
}

// ChangePassword rotates the participant's own password after verifying the
// current one.
func (s *service) ChangePassword(c *ginext.Context) {
	participantID, ok := s.principalID(c)
	if !ok {
		return
	}

	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(c, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(c, req); verr != nil {
		dto.BadResponseError(c, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	ctx := c.Request.Context()
	p, err := s.repo.GetParticipantByID(ctx, participantID)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to get participant for password change")
		dto.InternalServerError(c)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(p.Password), []byte(req.OldPassword)); err != nil {
		dto.BadResponseError(c, dto.InvalidCredentials, "Current password is incorrect")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to hash new password")
		dto.InternalServerError(c)
		return
	}

	p.Password = string(hash)
	p.UpdatedAt = time.Now()
	if err := s.repo.SaveParticipant(ctx, p); err != nil {
		s.log.Error().Err(err).Msg("failed to save new password")
		dto.InternalServerError(c)
		return
	}

	s.log.Info().Str("participant_id", participantID.Hex()).Msg("password changed")
	dto.SuccessResponse(c, nil)
}

// rejectLogin answers account lookups uniformly so login probes cannot tell
// a missing account from a wrong password.
func (s *service) rejectLogin(c *ginext.Context, err error) {
	switch {
	case errors.Is(err, repo.ErrParticipantNotFound),
		errors.Is(err, repo.ErrOrganizerNotFound),
		errors.Is(err, repo.ErrAdminNotFound):
		dto.UnauthorizedError(c, "Invalid email or password")
	default:
		s.log.Error().Err(err).Msg("failed to look up account")
		dto.InternalServerError(c)
	}
}
