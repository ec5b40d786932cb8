package lifecycle

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"felicity/internal/model"
)

// CheckAdmission evaluates the registration preconditions in their fixed
// order; the first failing one wins. alreadyRegistered is the caller's
// existence check for a (participant, event) registration — the lookup is
// I/O, so it happens outside.
func CheckAdmission(ev *model.Event, p *model.Participant, alreadyRegistered bool, now time.Time) error {
	if ev.Status != model.StatusPublished {
		return ErrNotAcceptingRegistrations
	}
	if ev.RegistrationDeadline != nil && now.After(*ev.RegistrationDeadline) {
		return ErrDeadlinePassed
	}
	// Merchandise events are gated by stock at payment approval, not by a
	// head-count limit.
	if ev.EventType != model.EventMerchandise &&
		ev.RegistrationLimit > 0 && len(ev.RegistrationList) >= ev.RegistrationLimit {
		return ErrCapacityReached
	}
	if !ev.Eligibility.Admits(p.ParticipantType) {
		return ErrNotEligible
	}
	if alreadyRegistered {
		return ErrAlreadyRegistered
	}
	return nil
}

// NewRegistration builds the registration document for an admitted
// participant. For merchandise events the amount is clamped into
// [1, purchaseLimit] with an error, stock is checked but NOT decremented —
// the decrement happens at payment approval, which is the real inventory
// admission point. amount <= 0 means "not supplied" and defaults to 1.
func NewRegistration(ev *model.Event, participantID bson.ObjectID, form []model.FormResponse, amount int, now time.Time) (*model.Registration, error) {
	reg := &model.Registration{
		Participant:        participantID,
		Event:              ev.ID,
		TicketID:           model.NewTicketID(ev.ID, now),
		FormResponses:      form,
		RegistrationStatus: model.RegRegistered,
		Payment:            model.PaymentPending,
		Merchandise:        model.Merchandise{Amount: 1},
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if ev.EventType == model.EventMerchandise {
		if amount <= 0 {
			amount = 1
		}
		if amount > ev.PurchaseLimit {
			return nil, ErrInvalidAmount
		}
		if ev.StockQuantity < amount {
			return nil, ErrInsufficientStock
		}
		reg.Merchandise.Amount = amount
		reg.RegistrationStatus = model.RegPending
		reg.Payment = model.PaymentPending
	}

	return reg, nil
}
