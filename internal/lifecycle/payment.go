package lifecycle

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"felicity/internal/model"
)

// ApprovePayment flips a pending merchandise registration to paid and
// decrements the event's stock by the purchased amount. The stock check here
// is the only enforcement point: concurrent approvals race for scarce stock
// and the loser gets ErrInsufficientStock. Both documents are mutated in
// memory; the caller persists the event first, then the registration.
func ApprovePayment(ev *model.Event, reg *model.Registration, actingOrganizer bson.ObjectID, now time.Time) error {
	if ev.Organizer != actingOrganizer {
		return ErrNotOwner
	}
	if reg.Payment != model.PaymentPending || reg.RegistrationStatus != model.RegPending {
		return ErrNotPending
	}

	amount := reg.Merchandise.Amount
	if amount <= 0 {
		amount = 1
	}
	if ev.StockQuantity < amount {
		return ErrInsufficientStock
	}

	ev.StockQuantity -= amount
	ev.UpdatedAt = now
	reg.Payment = model.PaymentCompleted
	reg.RegistrationStatus = model.RegRegistered
	reg.UpdatedAt = now

	return nil
}

// RejectPayment fails a pending merchandise registration. Stock is untouched
// because it was never reserved.
func RejectPayment(ev *model.Event, reg *model.Registration, actingOrganizer bson.ObjectID, now time.Time) error {
	if ev.Organizer != actingOrganizer {
		return ErrNotOwner
	}
	if reg.Payment != model.PaymentPending || reg.RegistrationStatus != model.RegPending {
		return ErrNotPending
	}

	reg.Payment = model.PaymentFailed
	reg.RegistrationStatus = model.RegCancelled
	reg.UpdatedAt = now

	return nil
}
