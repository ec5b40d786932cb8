// Package lifecycle holds the event state machine and the registration
// engine: which fields an edit may touch per status, when an event may be
// published, who may register, and how merchandise payments reconcile with
// stock. The functions operate on in-memory documents; callers fetch and
// persist around them.
package lifecycle

import "errors"

var (
	// Edit / transition rule violations.
	ErrDeadlineNotExtended = errors.New("deadline can only be extended, not shortened")
	ErrLimitNotRaised      = errors.New("registration limit can only be increased")
	ErrFormLocked          = errors.New("custom form is locked because registrations have already started")
	ErrEventLocked         = errors.New("event can no longer be edited")
	ErrBadTransition       = errors.New("status transition not allowed")
	ErrPublishIncomplete   = errors.New("event is missing fields required for publishing")

	// Registration admission refusals, in precondition order.
	ErrNotAcceptingRegistrations = errors.New("event is not accepting registration")
	ErrDeadlinePassed            = errors.New("registration deadline has passed")
	ErrCapacityReached           = errors.New("registration limit reached")
	ErrNotEligible               = errors.New("not eligible to register for this event")
	ErrAlreadyRegistered         = errors.New("already registered for this event")

	// Merchandise refusals.
	ErrInvalidAmount     = errors.New("invalid purchase amount")
	ErrInsufficientStock = errors.New("not enough stock available")
	ErrNotPending        = errors.New("registration is not pending")

	// Scan refusals.
	ErrAlreadyAdmitted = errors.New("ticket has already been admitted")
	ErrTicketCancelled = errors.New("ticket has been cancelled")

	ErrNotOwner = errors.New("organizer does not own this event")
)
