package service

import (
	"errors"
	"time"

	"github.com/wb-go/wbf/ginext"
	"go.mongodb.org/mongo-driver/v2/bson"

	"felicity/internal/dto"
	"felicity/internal/lifecycle"
	"felicity/internal/model"
	"felicity/internal/repo"
)

type pendingPaymentRow struct {
	Registration model.Registration `json:"registration"`
	EventName    string             `json:"eventName"`
	Buyer        string             `json:"buyer"`
	Email        string             `json:"email"`
}

// PendingPayments is the organizer's approval queue: merchandise orders with
// an uploaded proof, across all of the organizer's events.
func (s *service) PendingPayments(c *ginext.Context) {
	organizerID, ok := s.principalID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	events, err := s.repo.ListEventsByOrganizer(ctx, organizerID)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list organizer events")
		dto.InternalServerError(c)
		return
	}

	names := make(map[bson.ObjectID]string, len(events))
	ids := make([]bson.ObjectID, 0, len(events))
	for i := range events {
		ids = append(ids, events[i].ID)
		names[events[i].ID] = events[i].Name
	}

	regs, err := s.repo.ListPendingPayments(ctx, ids)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list pending payments")
		dto.InternalServerError(c)
		return
	}

	rows := make([]pendingPaymentRow, 0, len(regs))
	for i := range regs {
		row := pendingPaymentRow{
			Registration: regs[i],
			EventName:    names[regs[i].Event],
		}
		if p, err := s.repo.GetParticipantByID(ctx, regs[i].Participant); err == nil {
			row.Buyer = p.FName + " " + p.LName
			row.Email = p.Email
		}
		rows = append(rows, row)
	}
	dto.SuccessResponse(c, rows)
}

// ApprovePayment confirms a merchandise order. Stock is decremented here,
// the event is persisted before the registration, and the buyer gets the
// ticket email once both writes land.
func (s *service) ApprovePayment(c *ginext.Context) {
	reg, ev, organizerID, ok := s.paymentPair(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if err := lifecycle.ApprovePayment(ev, reg, organizerID, time.Now()); err != nil {
		s.paymentError(c, err)
		return
	}

	if err := s.repo.SaveEvent(ctx, ev); err != nil {
		s.log.Error().Err(err).Msg("failed to save event stock")
		dto.InternalServerError(c)
		return
	}
	if err := s.repo.SaveRegistration(ctx, reg); err != nil {
		s.log.Error().Err(err).Msg("failed to save approved registration")
		dto.InternalServerError(c)
		return
	}

	if p, err := s.repo.GetParticipantByID(ctx, reg.Participant); err == nil {
		s.notifyTicket(p.Email, ev, reg.TicketID)
	}

	s.log.Info().
		Str("registration_id", reg.ID.Hex()).
		Int("remaining_stock", ev.StockQuantity).
		Msg("payment approved")
	dto.SuccessResponse(c, reg)
}

// RejectPayment fails a pending order. Stock was never reserved, so nothing
// is returned to it.
func (s *service) RejectPayment(c *ginext.Context) {
	reg, ev, organizerID, ok := s.paymentPair(c)
	if !ok {
		return
	}

	if err := lifecycle.RejectPayment(ev, reg, organizerID, time.Now()); err != nil {
		s.paymentError(c, err)
		return
	}

	if err := s.repo.SaveRegistration(c.Request.Context(), reg); err != nil {
		s.log.Error().Err(err).Msg("failed to save rejected registration")
		dto.InternalServerError(c)
		return
	}

	s.log.Info().Str("registration_id", reg.ID.Hex()).Msg("payment rejected")
	dto.SuccessResponse(c, reg)
}

func (s *service) paymentPair(c *ginext.Context) (*model.Registration, *model.Event, bson.ObjectID, bool) {
	organizerID, ok := s.principalID(c)
	if !ok {
		return nil, nil, bson.ObjectID{}, false
	}
	regID, ok := pathID(c, "id")
	if !ok {
		return nil, nil, bson.ObjectID{}, false
	}
	ctx := c.Request.Context()

	reg, err := s.repo.GetRegistrationByID(ctx, regID)
	if err != nil {
		if errors.Is(err, repo.ErrRegistrationNotFound) {
			dto.RegistrationNotFoundError(c)
			return nil, nil, bson.ObjectID{}, false
		}
		s.log.Error().Err(err).Msg("failed to get registration")
		dto.InternalServerError(c)
		return nil, nil, bson.ObjectID{}, false
	}

	ev, err := s.repo.GetEventByID(ctx, reg.Event)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to get event for payment decision")
		dto.InternalServerError(c)
		return nil, nil, bson.ObjectID{}, false
	}
	return reg, ev, organizerID, true
}

func (s *service) paymentError(c *ginext.Context, err error) {
	switch {
	case errors.Is(err, lifecycle.ErrNotOwner):
		dto.ForbiddenError(c, dto.Forbidden, "This order belongs to another organizer's event")
	case errors.Is(err, lifecycle.ErrNotPending):
		dto.BadResponseError(c, dto.PaymentNotPending, "This order is not awaiting a decision")
	case errors.Is(err, lifecycle.ErrInsufficientStock):
		dto.BadResponseError(c, dto.OutOfStock, "Not enough stock left for this order")
	default:
		s.log.Error().Err(err).Msg("payment decision failed")
		dto.InternalServerError(c)
	}
}
