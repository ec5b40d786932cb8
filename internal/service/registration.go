package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/wb-go/wbf/ginext"
	"go.mongodb.org/mongo-driver/v2/bson"

	"felicity/internal/dto"
	"felicity/internal/lifecycle"
	"felicity/internal/model"
	"felicity/internal/repo"
	"felicity/pkg/validator"
)

// RegistrationForm is the pre-commit view: the custom form plus, for
// merchandise, the purchase constraints. Admission rules run here too so the
// client learns about a closed gate before the user fills anything in.
func (s *service) RegistrationForm(c *ginext.Context) {
	participantID, ok := s.principalID(c)
	if !ok {
		return
	}
	eventID, ok := pathID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	ev, participant, ok := s.loadAdmissionPair(c, eventID, participantID)
	if !ok {
		return
	}

	registered, err := s.hasRegistration(ctx, participantID, eventID)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to check existing registration")
		dto.InternalServerError(c)
		return
	}

	if err := lifecycle.CheckAdmission(ev, participant, registered, time.Now()); err != nil {
		s.admissionError(c, err)
		return
	}

	view := dto.RegistrationFormView{
		Name:  ev.Name,
		Price: ev.Price,
		Form:  ev.CustomForm,
	}
	if ev.EventType == model.EventMerchandise {
		view.Variants = ev.Variants
		view.StockQuantity = &ev.StockQuantity
		view.PurchaseLimit = &ev.PurchaseLimit
	}
	dto.SuccessResponse(c, view)
}

// Register commits a registration. Admission is re-checked at commit time;
// the unique (participant, event) index catches the race two concurrent
// commits can slip through.
func (s *service) Register(c *ginext.Context) {
	participantID, ok := s.principalID(c)
	if !ok {
		return
	}
	eventID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(c, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(c, req); verr != nil {
		dto.BadResponseError(c, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	ctx := c.Request.Context()
	ev, participant, ok := s.loadAdmissionPair(c, eventID, participantID)
	if !ok {
		return
	}

	registered, err := s.hasRegistration(ctx, participantID, eventID)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to check existing registration")
		dto.InternalServerError(c)
		return
	}

	now := time.Now()
	if err := lifecycle.CheckAdmission(ev, participant, registered, now); err != nil {
		s.admissionError(c, err)
		return
	}

	reg, err := lifecycle.NewRegistration(ev, participantID, req.FormResponses, req.Amount, now)
	if err != nil {
		s.admissionError(c, err)
		return
	}

	regID, err := s.repo.CreateRegistration(ctx, reg)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicateRegistration) {
			dto.BadResponseError(c, dto.RegistrationDuplicate, "Already registered for this event")
			return
		}
		s.log.Error().Err(err).Msg("failed to create registration")
		dto.InternalServerError(c)
		return
	}
	reg.ID = regID

	if err := s.repo.AppendRegistration(ctx, eventID, regID); err != nil {
		s.log.Error().Err(err).Msg("failed to append registration to event")
	}

	// Normal tickets are valid immediately; merchandise tickets only become
	// valid at payment approval, which sends its own notification.
	if ev.EventType != model.EventMerchandise {
		s.notifyTicket(participant.Email, ev, reg.TicketID)
	}

	s.log.Info().
		Str("registration_id", regID.Hex()).
		Str("event_id", eventID.Hex()).
		Msg("registration created")

	dto.SuccessCreatedResponse(c, dto.RegisterResponse{
		Message:        "Registered successfully",
		TicketID:       reg.TicketID,
		RegistrationID: regID.Hex(),
	})
}

func (s *service) loadAdmissionPair(c *ginext.Context, eventID, participantID bson.ObjectID) (*model.Event, *model.Participant, bool) {
	ctx := c.Request.Context()

	ev, err := s.repo.GetEventByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repo.ErrEventNotFound) {
			dto.EventNotFoundError(c)
			return nil, nil, false
		}
		s.log.Error().Err(err).Msg("failed to get event")
		dto.InternalServerError(c)
		return nil, nil, false
	}

	participant, err := s.repo.GetParticipantByID(ctx, participantID)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to get participant")
		dto.InternalServerError(c)
		return nil, nil, false
	}
	return ev, participant, true
}

func (s *service) hasRegistration(ctx context.Context, participantID, eventID bson.ObjectID) (bool, error) {
	_, err := s.repo.FindRegistration(ctx, participantID, eventID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, repo.ErrRegistrationNotFound) {
		return false, nil
	}
	return false, err
}

func (s *service) admissionError(c *ginext.Context, err error) {
	switch {
	case errors.Is(err, lifecycle.ErrNotAcceptingRegistrations):
		dto.BadResponseError(c, dto.RegistrationClosed, "Event is not accepting registrations")
	case errors.Is(err, lifecycle.ErrDeadlinePassed):
		dto.BadResponseError(c, dto.DeadlinePassed, "Registration deadline has passed")
	case errors.Is(err, lifecycle.ErrCapacityReached):
		dto.BadResponseError(c, dto.CapacityReached, "Registration limit reached")
	case errors.Is(err, lifecycle.ErrNotEligible):
		dto.ForbiddenError(c, dto.NotEligible, "You are not eligible for this event")
	case errors.Is(err, lifecycle.ErrAlreadyRegistered):
		dto.BadResponseError(c, dto.RegistrationDuplicate, "Already registered for this event")
	case errors.Is(err, lifecycle.ErrInvalidAmount):
		dto.BadResponseError(c, dto.InvalidAmount, "Purchase amount exceeds the per-person limit")
	case errors.Is(err, lifecycle.ErrInsufficientStock):
		dto.BadResponseError(c, dto.OutOfStock, "Not enough stock available")
	default:
		s.log.Error().Err(err).Msg("admission check failed")
		dto.InternalServerError(c)
	}
}

// notifyTicket enqueues the confirmation email. Delivery is best effort; a
// broken broker never fails the registration.
func (s *service) notifyTicket(email string, ev *model.Event, ticketID string) {
	msg := dto.TicketNotification{
		Email:          email,
		EventName:      ev.Name,
		EventStartDate: ev.EventStartDate,
		EventEndDate:   ev.EventEndDate,
		TicketID:       ticketID,
	}
	body, err := json.Marshal(msg)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to marshal ticket notification")
		return
	}
	if err := s.rbt.Publish(body); err != nil {
		s.log.Warn().Err(err).Str("ticket_id", ticketID).Msg("failed to enqueue ticket notification")
	}
}

type registrationView struct {
	Registration model.Registration `json:"registration"`
	EventName    string             `json:"eventName"`
	EventStatus  model.EventStatus  `json:"eventStatus"`
	EventType    model.EventType    `json:"eventType"`
	Price        int                `json:"price"`
}

// MyRegistrations lists the caller's registrations, newest first. The
// optional filter splits upcoming events from past ones by end date.
func (s *service) MyRegistrations(c *ginext.Context) {
	participantID, ok := s.principalID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	regs, err := s.repo.ListRegistrationsByParticipant(ctx, participantID)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list registrations")
		dto.InternalServerError(c)
		return
	}

	filter := c.Query("filter")
	now := time.Now()

	views := make([]registrationView, 0, len(regs))
	for i := range regs {
		view := registrationView{Registration: regs[i]}
		ev, err := s.repo.GetEventByID(ctx, regs[i].Event)
		if err == nil {
			view.EventName = ev.Name
			view.EventStatus = ev.Status
			view.EventType = ev.EventType
			view.Price = ev.Price
		}

		if ev != nil && ev.EventEndDate != nil {
			past := ev.EventEndDate.Before(now)
			if filter == "upcoming" && past {
				continue
			}
			if filter == "history" && !past {
				continue
			}
		}
		views = append(views, view)
	}
	dto.SuccessResponse(c, views)
}

func (s *service) RegistrationDetail(c *ginext.Context) {
	reg, ok := s.ownedRegistration(c)
	if !ok {
		return
	}

	view := registrationView{Registration: *reg}
	if ev, err := s.repo.GetEventByID(c.Request.Context(), reg.Event); err == nil {
		view.EventName = ev.Name
		view.EventStatus = ev.Status
		view.EventType = ev.EventType
		view.Price = ev.Price
	}
	dto.SuccessResponse(c, view)
}

// CancelRegistration voids the caller's own ticket. A ticket that has
// already been scanned stays Attended.
func (s *service) CancelRegistration(c *ginext.Context) {
	reg, ok := s.ownedRegistration(c)
	if !ok {
		return
	}

	if reg.RegistrationStatus == model.RegAttended {
		dto.BadResponseError(c, dto.AlreadyAdmitted, "Ticket has already been used")
		return
	}
	if reg.RegistrationStatus == model.RegCancelled {
		dto.SuccessResponse(c, reg)
		return
	}

	reg.RegistrationStatus = model.RegCancelled
	reg.UpdatedAt = time.Now()
	if err := s.repo.SaveRegistration(c.Request.Context(), reg); err != nil {
		s.log.Error().Err(err).Msg("failed to cancel registration")
		dto.InternalServerError(c)
		return
	}
	dto.SuccessResponse(c, reg)
}

// UploadPaymentProof attaches a payment screenshot to a pending merchandise
// order, which is what puts it in the organizer's approval queue.
func (s *service) UploadPaymentProof(c *ginext.Context) {
	reg, ok := s.ownedRegistration(c)
	if !ok {
		return
	}

	if reg.Payment != model.PaymentPending || reg.RegistrationStatus != model.RegPending {
		dto.BadResponseError(c, dto.PaymentNotPending, "This order is not awaiting payment")
		return
	}

	fileHeader, err := c.FormFile("proof")
	if err != nil {
		dto.BadResponseError(c, dto.FieldIncorrect, "Missing 'proof' file")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		s.log.Error().Err(err).Msg("failed to open uploaded proof")
		dto.InternalServerError(c)
		return
	}
	defer file.Close()

	url, err := s.store.Save(file, fileHeader.Filename)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to store payment proof")
		dto.InternalServerError(c)
		return
	}

	reg.Merchandise.PaymentProof = url
	reg.UpdatedAt = time.Now()
	if err := s.repo.SaveRegistration(c.Request.Context(), reg); err != nil {
		s.log.Error().Err(err).Msg("failed to save payment proof")
		dto.InternalServerError(c)
		return
	}

	dto.SuccessResponse(c, reg)
}

func (s *service) ownedRegistration(c *ginext.Context) (*model.Registration, bool) {
	participantID, ok := s.principalID(c)
	if !ok {
		return nil, false
	}
	regID, ok := pathID(c, "id")
	if !ok {
		return nil, false
	}

	reg, err := s.repo.GetRegistrationByID(c.Request.Context(), regID)
	if err != nil {
		if errors.Is(err, repo.ErrRegistrationNotFound) {
			dto.RegistrationNotFoundError(c)
			return nil, false
		}
		s.log.Error().Err(err).Msg("failed to get registration")
		dto.InternalServerError(c)
		return nil, false
	}
	if reg.Participant != participantID {
		dto.RegistrationNotFoundError(c)
		return nil, false
	}
	return reg, true
}

func (s *service) Profile(c *ginext.Context) {
	participantID, ok := s.principalID(c)
	if !ok {
		return
	}
	p, err := s.repo.GetParticipantByID(c.Request.Context(), participantID)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to get participant profile")
		dto.InternalServerError(c)
		return
	}
	dto.SuccessResponse(c, p)
}

func (s *service) UpdateProfile(c *ginext.Context) {
	participantID, ok := s.principalID(c)
	if !ok {
		return
	}

	var req dto.ProfileUpdateRequest
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
		s.log.Error().Err(err).Msg("failed to get participant")
		dto.InternalServerError(c)
		return
	}

	if req.FName != nil {
		p.FName = *req.FName
	}
	if req.LName != nil {
		p.LName = *req.LName
	}
	if req.Email != nil {
		p.Email = *req.Email
	}
	if req.Contact != nil {
		p.Contact = *req.Contact
	}
	if req.Organization != nil {
		p.Organization = *req.Organization
	}
	if req.Interests != nil {
		p.Interests = *req.Interests
	}
	if req.Following != nil {
		following := make([]bson.ObjectID, 0, len(*req.Following))
		for _, raw := range *req.Following {
			id, err := bson.ObjectIDFromHex(raw)
			if err != nil {
				dto.BadResponseError(c, dto.FieldBadFormat, "Invalid organizer id in following")
				return
			}
			following = append(following, id)
		}
		p.Following = following
	}
	p.UpdatedAt = time.Now()

	if err := s.repo.SaveParticipant(ctx, p); err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			dto.BadResponseError(c, dto.EmailExists, "An account with this email already exists")
			return
		}
		s.log.Error().Err(err).Msg("failed to save participant profile")
		dto.InternalServerError(c)
		return
	}
	dto.SuccessResponse(c, p)
}
