package lifecycle

import "felicity/internal/model"

// Stats is the derived registrations/attendance/revenue view of an event.
// It is recomputed from the registration set on every read.
type Stats struct {
	Registrations int `json:"registrations"`
	Attendance    int `json:"attendance"`
	Revenue       int `json:"revenue"`
}

// Aggregate computes stats over the event's registrations. Normal events
// earn price per completed payment; merchandise events earn price per item
// across completed payments.
func Aggregate(ev *model.Event, regs []model.Registration) Stats {
	var s Stats
	s.Registrations = len(regs)

	items := 0
	for i := range regs {
		if regs[i].RegistrationStatus == model.RegAttended {
			s.Attendance++
		}
		if regs[i].Payment != model.PaymentCompleted {
			continue
		}
		if ev.EventType == model.EventMerchandise {
			qty := regs[i].Merchandise.Amount
			if qty <= 0 {
				qty = 1
			}
			items += qty
		} else {
			items++
		}
	}
	s.Revenue = items * ev.Price

	return s
}
