package service

import (
	"fmt"
	"time"

	"github.com/wb-go/wbf/ginext"

	"felicity/internal/dto"
	"felicity/internal/model"
	"felicity/pkg/validator"
)

func (s *service) OrganizerProfile(c *ginext.Context) {
	organizerID, ok := s.principalID(c)
	if !ok {
		return
	}
	org, err := s.repo.GetOrganizerByID(c.Request.Context(), organizerID)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to get organizer profile")
		dto.InternalServerError(c)
		return
	}
	dto.SuccessResponse(c, org)
}

// UpdateOrganizerProfile lets a club edit its public card. Name and email
// stay admin-controlled.
func (s *service) UpdateOrganizerProfile(c *ginext.Context) {
	organizerID, ok := s.principalID(c)
	if !ok {
		return
	}

	var req dto.OrganizerProfileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(c, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(c, req); verr != nil {
		dto.BadResponseError(c, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	ctx := c.Request.Context()
	org, err := s.repo.GetOrganizerByID(ctx, organizerID)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to get organizer")
		dto.InternalServerError(c)
		return
	}

	if req.Desc != nil {
		org.Desc = *req.Desc
	}
	if req.Category != nil {
		org.Category = *req.Category
	}
	if req.Contact != nil {
		org.Contact = *req.Contact
	}
	if req.Discord != nil {
		org.Discord = *req.Discord
	}
	org.UpdatedAt = time.Now()

	if err := s.repo.SaveOrganizer(ctx, org); err != nil {
		s.log.Error().Err(err).Msg("failed to save organizer profile")
		dto.InternalServerError(c)
		return
	}
	dto.SuccessResponse(c, org)
}

// RequestReset files a password-reset ticket for an admin to decide; the
// organizer cannot reset its own password directly.
func (s *service) RequestReset(c *ginext.Context) {
	organizerID, ok := s.principalID(c)
	if !ok {
		return
	}

	var req dto.ResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(c, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(c, req); verr != nil {
		dto.BadResponseError(c, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	now := time.Now()
	reset := &model.PasswordReset{
		Organizer: organizerID,
		Reason:    req.Reason,
		Status:    model.ResetPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	id, err := s.repo.CreateReset(c.Request.Context(), reset)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to create password reset request")
		dto.InternalServerError(c)
		return
	}
	reset.ID = id

	s.log.Info().Str("organizer_id", organizerID.Hex()).Msg("password reset requested")
	dto.SuccessCreatedResponse(c, reset)
}

// MyResets lists the caller's own reset tickets, newest first.
func (s *service) MyResets(c *ginext.Context) {
	organizerID, ok := s.principalID(c)
	if !ok {
		return
	}

	resets, err := s.repo.ListResetsByOrganizer(c.Request.Context(), organizerID)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list own password resets")
		dto.InternalServerError(c)
		return
	}
	if resets == nil {
		resets = []model.PasswordReset{}
	}
	dto.SuccessResponse(c, resets)
}
