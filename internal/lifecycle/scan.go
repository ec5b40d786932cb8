package lifecycle

import (
	"time"

	"felicity/internal/model"
)

// Scan admits a ticket at the venue. The caller must have located the
// registration by exact (event, ticketID) match, which is what stops a ticket
// from being replayed against a different event. A second scan of the same
// ticket is refused without mutation; there is no way back from Attended.
func Scan(reg *model.Registration, now time.Time) error {
	switch reg.RegistrationStatus {
	case model.RegAttended:
		return ErrAlreadyAdmitted
	case model.RegCancelled:
		return ErrTicketCancelled
	}

	reg.RegistrationStatus = model.RegAttended
	reg.AttendanceDate = &now
	reg.UpdatedAt = now

	return nil
}
