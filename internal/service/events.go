package service

import (
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

// CreateDraft opens a new event in Draft with just a name. Everything else
// is filled in through edits before publishing.
func (s *service) CreateDraft(c *ginext.Context) {
	organizerID, ok := s.principalID(c)
	if !ok {
		return
	}

	var req dto.CreateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(c, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(c, req); verr != nil {
		dto.BadResponseError(c, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	now := time.Now()
	ev := &model.Event{
		Name:             req.Name,
		Desc:             req.Desc,
		Organizer:        organizerID,
		Status:           model.StatusDraft,
		RegistrationList: []bson.ObjectID{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	id, err := s.repo.CreateEvent(c.Request.Context(), ev)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to create draft event")
		dto.InternalServerError(c)
		return
	}
	ev.ID = id

	s.log.Info().Str("event_id", id.Hex()).Msg("draft event created")
	dto.SuccessCreatedResponse(c, ev)
}

func (s *service) MyEvents(c *ginext.Context) {
	organizerID, ok := s.principalID(c)
	if !ok {
		return
	}

	events, err := s.repo.ListEventsByOrganizer(c.Request.Context(), organizerID)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list organizer events")
		dto.InternalServerError(c)
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	dto.SuccessResponse(c, events)
}

func (s *service) GetEvent(c *ginext.Context) {
	ev, ok := s.ownedEvent(c)
	if !ok {
		return
	}
	dto.SuccessResponse(c, ev)
}

// EditEvent applies a partial update. What the update may touch depends on
// the event's status; out-of-scope fields are dropped silently, while rule
// violations refuse the whole request.
func (s *service) EditEvent(c *ginext.Context) {
	ev, ok := s.ownedEvent(c)
	if !ok {
		return
	}

	var req dto.EditEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(c, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(c, req); verr != nil {
		dto.BadResponseError(c, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	edit := lifecycle.EditRequest{
		Name:                 req.Name,
		Desc:                 req.Desc,
		EventType:            req.EventType,
		Eligibility:          req.Eligibility,
		RegistrationDeadline: req.RegistrationDeadline,
		EventStartDate:       req.EventStartDate,
		EventEndDate:         req.EventEndDate,
		RegistrationLimit:    req.RegistrationLimit,
		EventTags:            req.EventTags,
		Price:                req.Price,
		StockQuantity:        req.StockQuantity,
		PurchaseLimit:        req.PurchaseLimit,
		Variants:             req.Variants,
		CustomForm:           req.CustomForm,
		Status:               req.Status,
	}

	if err := lifecycle.ApplyEdit(ev, edit); err != nil {
		s.editError(c, err)
		return
	}
	ev.UpdatedAt = time.Now()

	if err := s.repo.SaveEvent(c.Request.Context(), ev); err != nil {
		s.log.Error().Err(err).Msg("failed to save edited event")
		dto.InternalServerError(c)
		return
	}

	s.log.Info().
		Str("event_id", ev.ID.Hex()).
		Str("status", string(ev.Status)).
		Msg("event updated")
	dto.SuccessResponse(c, ev)
}

func (s *service) editError(c *ginext.Context, err error) {
	switch {
	case errors.Is(err, lifecycle.ErrFormLocked):
		dto.BadResponseError(c, dto.FormLocked, "Custom form is locked once registrations exist")
	case errors.Is(err, lifecycle.ErrDeadlineNotExtended):
		dto.BadResponseError(c, dto.DeadlineNotExtended, "Deadline can only be extended")
	case errors.Is(err, lifecycle.ErrLimitNotRaised):
		dto.BadResponseError(c, dto.LimitNotRaised, "Registration limit can only be increased")
	case errors.Is(err, lifecycle.ErrBadTransition):
		dto.BadResponseError(c, dto.BadTransition, "Status transition not allowed")
	case errors.Is(err, lifecycle.ErrPublishIncomplete):
		dto.BadResponseError(c, dto.PublishIncomplete, "Event is missing fields required for publishing")
	case errors.Is(err, lifecycle.ErrEventLocked):
		dto.ForbiddenError(c, dto.EditForbidden, "Event can no longer be edited")
	default:
		s.log.Error().Err(err).Msg("edit check failed")
		dto.InternalServerError(c)
	}
}

type registrantRow struct {
	Registration model.Registration `json:"registration"`
	Name         string             `json:"name"`
	Email        string             `json:"email"`
}

type followerRow struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type eventStatsView struct {
	Event       *model.Event    `json:"event"`
	Stats       lifecycle.Stats `json:"stats"`
	Registrants []registrantRow `json:"registrants"`
	Followers   []followerRow   `json:"followers"`
}

// ViewEvent is the organizer's per-event console: live stats plus the full
// registrant roster.
func (s *service) ViewEvent(c *ginext.Context) {
	ev, ok := s.ownedEvent(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	regs, err := s.repo.ListRegistrationsByEvent(ctx, ev.ID)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list event registrations")
		dto.InternalServerError(c)
		return
	}

	view := eventStatsView{
		Event:       ev,
		Stats:       lifecycle.Aggregate(ev, regs),
		Registrants: make([]registrantRow, 0, len(regs)),
		Followers:   []followerRow{},
	}
	for i := range regs {
		row := registrantRow{Registration: regs[i]}
		if p, err := s.repo.GetParticipantByID(ctx, regs[i].Participant); err == nil {
			row.Name = p.FName + " " + p.LName
			row.Email = p.Email
		}
		view.Registrants = append(view.Registrants, row)
	}

	followers, err := s.repo.ListFollowers(ctx, ev.Organizer)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to list followers")
	}
	for i := range followers {
		view.Followers = append(view.Followers, followerRow{
			Name:  followers[i].FName + " " + followers[i].LName,
			Email: followers[i].Email,
		})
	}

	dto.SuccessResponse(c, view)
}

type dashboardRow struct {
	Event model.Event     `json:"event"`
	Stats lifecycle.Stats `json:"stats"`
}

// Dashboard aggregates the organizer's finished events.
func (s *service) Dashboard(c *ginext.Context) {
	organizerID, ok := s.principalID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	events, err := s.repo.ListEventsByOrganizer(ctx, organizerID,
		model.StatusClosed, model.StatusCompleted)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list finished events")
		dto.InternalServerError(c)
		return
	}

	rows := make([]dashboardRow, 0, len(events))
	for i := range events {
		regs, err := s.repo.ListRegistrationsByEvent(ctx, events[i].ID)
		if err != nil {
			s.log.Error().Err(err).Msg("failed to list registrations for dashboard")
			dto.InternalServerError(c)
			return
		}
		rows = append(rows, dashboardRow{
			Event: events[i],
			Stats: lifecycle.Aggregate(&events[i], regs),
		})
	}
	dto.SuccessResponse(c, rows)
}

// OngoingEvents lists the events whose gates are live, i.e. the ones a
// scanning station may operate on.
func (s *service) OngoingEvents(c *ginext.Context) {
	organizerID, ok := s.principalID(c)
	if !ok {
		return
	}

	events, err := s.repo.ListEventsByOrganizer(c.Request.Context(), organizerID,
		model.StatusPublished, model.StatusOngoing)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list ongoing events")
		dto.InternalServerError(c)
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	dto.SuccessResponse(c, events)
}

// ScanTicket admits a ticket at the gate. The lookup is scoped to the event
// in the path, so a ticket from another event reads as not found here.
func (s *service) ScanTicket(c *ginext.Context) {
	ev, ok := s.ownedEvent(c)
	if !ok {
		return
	}

	var req dto.ScanTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(c, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(c, req); verr != nil {
		dto.BadResponseError(c, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	ctx := c.Request.Context()
	reg, err := s.repo.FindRegistrationByTicket(ctx, ev.ID, req.TicketID)
	if err != nil {
		if errors.Is(err, repo.ErrRegistrationNotFound) {
			dto.NotFoundError(c, dto.WrongEvent, "Ticket does not belong to this event")
			return
		}
		s.log.Error().Err(err).Msg("failed to look up ticket")
		dto.InternalServerError(c)
		return
	}

	if err := lifecycle.Scan(reg, time.Now()); err != nil {
		switch {
		case errors.Is(err, lifecycle.ErrAlreadyAdmitted):
			dto.BadResponseError(c, dto.AlreadyAdmitted, "Ticket has already been admitted")
		case errors.Is(err, lifecycle.ErrTicketCancelled):
			dto.BadResponseError(c, dto.TicketCancelled, "Ticket has been cancelled")
		default:
			s.log.Error().Err(err).Msg("scan failed")
			dto.InternalServerError(c)
		}
		return
	}

	if err := s.repo.SaveRegistration(ctx, reg); err != nil {
		s.log.Error().Err(err).Msg("failed to save scanned registration")
		dto.InternalServerError(c)
		return
	}

	s.log.Info().
		Str("ticket_id", req.TicketID).
		Str("event_id", ev.ID.Hex()).
		Msg("ticket admitted")
	dto.SuccessResponse(c, reg)
}

// ownedEvent loads the :id event and enforces that the caller organizes it.
// Foreign events read as not found so ownership cannot be probed.
func (s *service) ownedEvent(c *ginext.Context) (*model.Event, bool) {
	organizerID, ok := s.principalID(c)
	if !ok {
		return nil, false
	}
	eventID, ok := pathID(c, "id")
	if !ok {
		return nil, false
	}

	ev, err := s.repo.GetEventByID(c.Request.Context(), eventID)
	if err != nil {
		if errors.Is(err, repo.ErrEventNotFound) {
			dto.EventNotFoundError(c)
			return nil, false
		}
		s.log.Error().Err(err).Msg("failed to get event")
		dto.InternalServerError(c)
		return nil, false
	}
	if ev.Organizer != organizerID {
		dto.EventNotFoundError(c)
		return nil, false
	}
	return ev, true
}
