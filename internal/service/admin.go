package service

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/wb-go/wbf/ginext"
	"go.mongodb.org/mongo-driver/v2/bson"
	"golang.org/x/crypto/bcrypt"

	"felicity/internal/dto"
	"felicity/internal/model"
	"felicity/internal/repo"
	"felicity/pkg/validator"
)

// AdminOrganizers lists every club account, suspended ones included.
func (s *service) AdminOrganizers(c *ginext.Context) {
	organizers, err := s.repo.ListOrganizers(c.Request.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list organizers")
		dto.InternalServerError(c)
		return
	}
	if organizers == nil {
		organizers = []model.Organizer{}
	}
	dto.SuccessResponse(c, organizers)
}

type provisionedOrganizer struct {
	Organizer *model.Organizer `json:"organizer"`
	Email     string           `json:"email"`
	Password  string           `json:"password"`
}

// AddOrganizer provisions a club account with a generated login. The
// plaintext password appears in this response and nowhere else.
func (s *service) AddOrganizer(c *ginext.Context) {
	var req dto.AddOrganizerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(c, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(c, req); verr != nil {
		dto.BadResponseError(c, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	email, err := generateOrganizerEmail(req.Name)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to generate organizer email")
		dto.InternalServerError(c)
		return
	}
	password, err := generatePassword()
	if err != nil {
		s.log.Error().Err(err).Msg("failed to generate organizer password")
		dto.InternalServerError(c)
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to hash organizer password")
		dto.InternalServerError(c)
		return
	}

	now := time.Now()
	org := &model.Organizer{
		Name:      req.Name,
		Email:     email,
		Password:  string(hash),
		Desc:      req.Desc,
		Category:  req.Category,
		Role:      model.RoleOrganizer,
		Valid:     true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	id, err := s.repo.CreateOrganizer(c.Request.Context(), org)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			dto.BadResponseError(c, dto.EmailExists, "Generated email collided, please retry")
			return
		}
		s.log.Error().Err(err).Msg("failed to create organizer")
		dto.InternalServerError(c)
		return
	}
	org.ID = id

	s.log.Info().Str("organizer_id", id.Hex()).Str("email", email).Msg("organizer provisioned")
	dto.SuccessCreatedResponse(c, provisionedOrganizer{
		Organizer: org,
		Email:     email,
		Password:  password,
	})
}

func (s *service) SuspendOrganizer(c *ginext.Context) {
	s.setOrganizerValid(c, false)
}

func (s *service) EnableOrganizer(c *ginext.Context) {
	s.setOrganizerValid(c, true)
}

func (s *service) setOrganizerValid(c *ginext.Context, valid bool) {
	organizerID, ok := pathID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	org, err := s.repo.GetOrganizerByID(ctx, organizerID)
	if err != nil {
		if errors.Is(err, repo.ErrOrganizerNotFound) {
			dto.NotFoundError(c, dto.OrganizerNotFound, "Organizer not found")
			return
		}
		s.log.Error().Err(err).Msg("failed to get organizer")
		dto.InternalServerError(c)
		return
	}

	org.Valid = valid
	org.UpdatedAt = time.Now()
	if err := s.repo.SaveOrganizer(ctx, org); err != nil {
		s.log.Error().Err(err).Msg("failed to save organizer validity")
		dto.InternalServerError(c)
		return
	}

	s.log.Info().
		Str("organizer_id", organizerID.Hex()).
		Bool("valid", valid).
		Msg("organizer validity changed")
	dto.SuccessResponse(c, org)
}

func (s *service) RemoveOrganizer(c *ginext.Context) {
	organizerID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := s.repo.DeleteOrganizer(c.Request.Context(), organizerID); err != nil {
		if errors.Is(err, repo.ErrOrganizerNotFound) {
			dto.NotFoundError(c, dto.OrganizerNotFound, "Organizer not found")
			return
		}
		s.log.Error().Err(err).Msg("failed to delete organizer")
		dto.InternalServerError(c)
		return
	}

	s.log.Info().Str("organizer_id", organizerID.Hex()).Msg("organizer deleted")
	dto.SuccessResponse(c, nil)
}

type resetRow struct {
	Reset     model.PasswordReset `json:"reset"`
	Organizer string              `json:"organizerName,omitempty"`
}

func (s *service) ListResets(c *ginext.Context) {
	ctx := c.Request.Context()

	resets, err := s.repo.ListResets(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list password resets")
		dto.InternalServerError(c)
		return
	}

	rows := make([]resetRow, 0, len(resets))
	for i := range resets {
		row := resetRow{Reset: resets[i]}
		if org, err := s.repo.GetOrganizerByID(ctx, resets[i].Organizer); err == nil {
			row.Organizer = org.Name
		}
		rows = append(rows, row)
	}
	dto.SuccessResponse(c, rows)
}

type resetDecisionView struct {
	Reset       *model.PasswordReset `json:"reset"`
	NewPassword string               `json:"newPassword,omitempty"`
}

// DecideReset resolves a pending reset ticket. Approval rotates the
// organizer's password and returns the new one exactly once.
func (s *service) DecideReset(c *ginext.Context) {
	var req dto.ResetDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(c, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(c, req); verr != nil {
		dto.BadResponseError(c, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	resetID, err := bson.ObjectIDFromHex(req.ID)
	if err != nil {
		dto.BadResponseError(c, dto.FieldBadFormat, "Invalid reset id")
		return
	}
	ctx := c.Request.Context()

	reset, err := s.repo.GetResetByID(ctx, resetID)
	if err != nil {
		if errors.Is(err, repo.ErrResetNotFound) {
			dto.NotFoundError(c, dto.ResetNotFound, "Reset request not found")
			return
		}
		s.log.Error().Err(err).Msg("failed to get password reset")
		dto.InternalServerError(c)
		return
	}
	if reset.Status != model.ResetPending {
		dto.BadResponseError(c, dto.FieldIncorrect, "Reset request has already been decided")
		return
	}

	view := resetDecisionView{Reset: reset}

	if req.Status == model.ResetApproved {
		org, err := s.repo.GetOrganizerByID(ctx, reset.Organizer)
		if err != nil {
			s.log.Error().Err(err).Msg("failed to get organizer for reset")
			dto.InternalServerError(c)
			return
		}

		password, err := generatePassword()
		if err != nil {
			s.log.Error().Err(err).Msg("failed to generate new password")
			dto.InternalServerError(c)
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			s.log.Error().Err(err).Msg("failed to hash new password")
			dto.InternalServerError(c)
			return
		}

		org.Password = string(hash)
		org.UpdatedAt = time.Now()
		if err := s.repo.SaveOrganizer(ctx, org); err != nil {
			s.log.Error().Err(err).Msg("failed to save rotated password")
			dto.InternalServerError(c)
			return
		}
		view.NewPassword = password
	}

	reset.Status = req.Status
	reset.Comments = req.Comments
	reset.UpdatedAt = time.Now()
	if err := s.repo.SaveReset(ctx, reset); err != nil {
		s.log.Error().Err(err).Msg("failed to save reset decision")
		dto.InternalServerError(c)
		return
	}

	s.log.Info().
		Str("reset_id", resetID.Hex()).
		Str("status", string(req.Status)).
		Msg("password reset decided")
	dto.SuccessResponse(c, view)
}

func generateOrganizerEmail(name string) (string, error) {
	slug := strings.ToLower(strings.ReplaceAll(name, " ", ""))
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%d@felicity.iiit.ac.in", slug, n.Int64()), nil
}

func generatePassword() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
