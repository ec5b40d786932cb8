package lifecycle

import (
	"time"

	"felicity/internal/model"
)

// EditRequest carries the fields of a partial event update. Nil means the
// field was absent from the request; the zero value of a pointed-to field is
// still an explicit value.
type EditRequest struct {
	Name                 *string
	Desc                 *string
	EventType            *model.EventType
	Eligibility          *model.Eligibility
	RegistrationDeadline *time.Time
	EventStartDate       *time.Time
	EventEndDate         *time.Time
	RegistrationLimit    *int
	EventTags            *[]string
	Price                *int
	StockQuantity        *int
	PurchaseLimit        *int
	Variants             *[]model.Variant
	CustomForm           *[]model.FormField
	Status               *model.EventStatus
}

func (r EditRequest) hasNonStatusFields() bool {
	return r.Name != nil || r.Desc != nil || r.EventType != nil || r.Eligibility != nil ||
		r.RegistrationDeadline != nil || r.EventStartDate != nil || r.EventEndDate != nil ||
		r.RegistrationLimit != nil || r.EventTags != nil || r.Price != nil ||
		r.StockQuantity != nil || r.PurchaseLimit != nil || r.Variants != nil ||
		r.CustomForm != nil
}

// legalTransitions maps a current status to the statuses an edit may move it to.
var legalTransitions = map[model.EventStatus][]model.EventStatus{
	model.StatusDraft:     {model.StatusPublished},
	model.StatusPublished: {model.StatusOngoing, model.StatusClosed},
	model.StatusOngoing:   {model.StatusCompleted, model.StatusClosed},
}

func transitionAllowed(from, to model.EventStatus) bool {
	for _, s := range legalTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ApplyEdit mutates ev with the subset of req permitted by the event's
// current status. Fields outside that subset are dropped silently; the API
// stays permissive for partial updates. Tightening the deadline or the
// registration limit of a Published event is an explicit error, as is an
// illegal status transition, and in either case ev is left untouched.
// Re-sending the current status is a no-op, so client retries stay
// idempotent.
func ApplyEdit(ev *model.Event, req EditRequest) error {
	if req.Status != nil && *req.Status == ev.Status {
		req.Status = nil
	}

	if err := checkEdit(ev, req); err != nil {
		return err
	}

	if req.CustomForm != nil && ev.Status == model.StatusDraft {
		ev.CustomForm = *req.CustomForm
	}

	switch ev.Status {
	case model.StatusDraft:
		applyDraftEdit(ev, req)
	case model.StatusPublished:
		if req.Desc != nil {
			ev.Desc = *req.Desc
		}
		if req.RegistrationDeadline != nil {
			ev.RegistrationDeadline = req.RegistrationDeadline
		}
		if req.RegistrationLimit != nil {
			ev.RegistrationLimit = *req.RegistrationLimit
		}
	}

	if req.Status != nil {
		ev.Status = *req.Status
	}

	return nil
}

// checkEdit validates the whole request before anything is applied, so a
// refused edit never partially mutates the event.
func checkEdit(ev *model.Event, req EditRequest) error {
	if req.CustomForm != nil && len(ev.RegistrationList) > 0 {
		return ErrFormLocked
	}

	if req.Status != nil {
		if !transitionAllowed(ev.Status, *req.Status) {
			return ErrBadTransition
		}
		if ev.Status == model.StatusDraft && *req.Status == model.StatusPublished {
			// Validate against the event as it would look with the draft
			// edits applied, so publish-with-final-fields in one request works.
			draft := *ev
			applyDraftEdit(&draft, req)
			if err := ValidateForPublish(&draft); err != nil {
				return err
			}
		}
	}

	switch ev.Status {
	case model.StatusPublished:
		if req.RegistrationDeadline != nil {
			if ev.RegistrationDeadline != nil && !req.RegistrationDeadline.After(*ev.RegistrationDeadline) {
				return ErrDeadlineNotExtended
			}
		}
		if req.RegistrationLimit != nil && *req.RegistrationLimit < ev.RegistrationLimit {
			return ErrLimitNotRaised
		}
	case model.StatusOngoing, model.StatusClosed, model.StatusCompleted:
		if req.Status == nil && req.hasNonStatusFields() {
			return ErrEventLocked
		}
	}

	return nil
}

func applyDraftEdit(ev *model.Event, req EditRequest) {
	if req.Name != nil {
		ev.Name = *req.Name
	}
	if req.Desc != nil {
		ev.Desc = *req.Desc
	}
	if req.EventType != nil {
		ev.EventType = *req.EventType
	}
	if req.Eligibility != nil {
		ev.Eligibility = *req.Eligibility
	}
	if req.RegistrationDeadline != nil {
		ev.RegistrationDeadline = req.RegistrationDeadline
	}
	if req.EventStartDate != nil {
		ev.EventStartDate = req.EventStartDate
	}
	if req.EventEndDate != nil {
		ev.EventEndDate = req.EventEndDate
	}
	if req.RegistrationLimit != nil {
		ev.RegistrationLimit = *req.RegistrationLimit
	}
	if req.EventTags != nil {
		ev.EventTags = *req.EventTags
	}
	if req.Price != nil {
		ev.Price = *req.Price
	}

	merch := ev.EventType == model.EventMerchandise ||
		(req.EventType != nil && *req.EventType == model.EventMerchandise)
	if merch {
		if req.StockQuantity != nil {
			ev.StockQuantity = *req.StockQuantity
		}
		if req.PurchaseLimit != nil {
			ev.PurchaseLimit = *req.PurchaseLimit
		}
		if req.Variants != nil {
			ev.Variants = *req.Variants
		}
	}
}

// ValidateForPublish enforces the fields that become required once an event
// leaves Draft. The schema keeps them optional so drafts can be saved
// half-filled; this is the single enforcement point.
func ValidateForPublish(ev *model.Event) error {
	if ev.EventType == "" || ev.Eligibility == "" {
		return ErrPublishIncomplete
	}
	if ev.RegistrationDeadline == nil || ev.EventStartDate == nil || ev.EventEndDate == nil {
		return ErrPublishIncomplete
	}
	switch ev.EventType {
	case model.EventNormal:
		if ev.RegistrationLimit <= 0 {
			return ErrPublishIncomplete
		}
	case model.EventMerchandise:
		if ev.StockQuantity <= 0 || ev.PurchaseLimit <= 0 {
			return ErrPublishIncomplete
		}
	}
	return nil
}
