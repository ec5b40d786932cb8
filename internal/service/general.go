package service

import (
	"errors"
	"strings"
	"time"

	"github.com/wb-go/wbf/ginext"
	"go.mongodb.org/mongo-driver/v2/bson"

	"felicity/cmd/middleware"
	"felicity/internal/dto"
	"felicity/internal/lifecycle"
	"felicity/internal/model"
	"felicity/internal/repo"
)

// AllEvents is the public catalogue. Drafts never show up; everything else
// is filterable by name, type, eligibility, status and start-date window.
// followed=true narrows the listing to clubs the caller follows.
func (s *service) AllEvents(c *ginext.Context) {
	ctx := c.Request.Context()

	filter := repo.EventFilter{
		NameSearch:  c.Query("search"),
		EventType:   model.EventType(c.Query("eventType")),
		Eligibility: model.Eligibility(c.Query("eligibility")),
		Status:      model.EventStatus(c.Query("status")),
	}

	if from := c.Query("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			dto.BadResponseError(c, dto.FieldBadFormat, "Invalid 'from' date")
			return
		}
		filter.StartFrom = &t
	}
	if to := c.Query("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			dto.BadResponseError(c, dto.FieldBadFormat, "Invalid 'to' date")
			return
		}
		filter.StartTo = &t
	}

	followedOnly := c.Query("followed") == "true"
	if followedOnly {
		participantID, ok := s.principalID(c)
		if !ok {
			return
		}
		p, err := s.repo.GetParticipantByID(ctx, participantID)
		if err != nil {
			s.log.Error().Err(err).Msg("failed to load participant for followed filter")
			dto.InternalServerError(c)
			return
		}
		if len(p.Following) == 0 {
			dto.SuccessResponse(c, []model.Event{})
			return
		}
		// The name search stays a post-filter here so it cannot widen the
		// followed-only restriction.
		filter.OrganizerIn = p.Following
		filter.NameSearch = ""
	} else if filter.NameSearch != "" {
		// A free-text search matches event names and club names alike.
		ids, err := s.repo.FindOrganizerIDsByName(ctx, filter.NameSearch)
		if err != nil {
			s.log.Error().Err(err).Msg("failed to search organizers by name")
			dto.InternalServerError(c)
			return
		}
		filter.OrganizerIn = ids
	}

	events, err := s.repo.ListEvents(ctx, filter)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list events")
		dto.InternalServerError(c)
		return
	}

	if followedOnly {
		if search := c.Query("search"); search != "" {
			filtered := events[:0]
			for _, ev := range events {
				if strings.Contains(strings.ToLower(ev.Name), strings.ToLower(search)) {
					filtered = append(filtered, ev)
				}
			}
			events = filtered
		}
	}

	if events == nil {
		events = []model.Event{}
	}
	dto.SuccessResponse(c, events)
}

type eventDetailView struct {
	Event       *model.Event `json:"event"`
	Organizer   string       `json:"organizerName,omitempty"`
	Registered  bool         `json:"registered"`
	CanRegister bool         `json:"canRegister"`
}

// EventDetail shows one event to a participant, with flags telling the
// client whether the caller already holds a registration and whether a new
// one would currently be admitted. Each view counts as a visit.
func (s *service) EventDetail(c *ginext.Context) {
	eventID, ok := pathID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	ev, err := s.repo.GetEventByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repo.ErrEventNotFound) {
			dto.EventNotFoundError(c)
			return
		}
		s.log.Error().Err(err).Msg("failed to get event")
		dto.InternalServerError(c)
		return
	}
	if ev.Status == model.StatusDraft {
		dto.EventNotFoundError(c)
		return
	}

	if err := s.repo.IncrementVisits(ctx, eventID); err != nil {
		s.log.Warn().Err(err).Str("event_id", eventID.Hex()).Msg("failed to count visit")
	}

	view := eventDetailView{Event: ev}
	if org, err := s.repo.GetOrganizerByID(ctx, ev.Organizer); err == nil {
		view.Organizer = org.Name
	}

	if p, ok := middleware.PrincipalFrom(c); ok && p.Role == model.RoleParticipant {
		if participantID, err := bson.ObjectIDFromHex(p.ID); err == nil {
			view.Registered, view.CanRegister = s.registrationFlags(c, ev, participantID)
		}
	}

	dto.SuccessResponse(c, view)
}

func (s *service) registrationFlags(c *ginext.Context, ev *model.Event, participantID bson.ObjectID) (registered, canRegister bool) {
	ctx := c.Request.Context()

	_, err := s.repo.FindRegistration(ctx, participantID, ev.ID)
	switch {
	case err == nil:
		registered = true
	case !errors.Is(err, repo.ErrRegistrationNotFound):
		s.log.Warn().Err(err).Msg("failed to check existing registration")
		return false, false
	}

	participant, err := s.repo.GetParticipantByID(ctx, participantID)
	if err != nil {
		return registered, false
	}
	canRegister = lifecycle.CheckAdmission(ev, participant, registered, time.Now()) == nil
	return registered, canRegister
}

type organizerView struct {
	ID        bson.ObjectID `json:"id"`
	Name      string        `json:"name"`
	Desc      string        `json:"desc,omitempty"`
	Category  string        `json:"category,omitempty"`
	Contact   string        `json:"contact,omitempty"`
	Discord   string        `json:"discord,omitempty"`
	Followers int           `json:"followers"`
}

func publicOrganizer(o *model.Organizer) organizerView {
	return organizerView{
		ID:        o.ID,
		Name:      o.Name,
		Desc:      o.Desc,
		Category:  o.Category,
		Contact:   o.Contact,
		Discord:   o.Discord,
		Followers: len(o.Followers),
	}
}

func (s *service) AllOrganizers(c *ginext.Context) {
	organizers, err := s.repo.ListOrganizers(c.Request.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list organizers")
		dto.InternalServerError(c)
		return
	}

	views := make([]organizerView, 0, len(organizers))
	for i := range organizers {
		if !organizers[i].Valid {
			continue
		}
		views = append(views, publicOrganizer(&organizers[i]))
	}
	dto.SuccessResponse(c, views)
}

type organizerDetailView struct {
	organizerView
	Events []model.Event `json:"events"`
}

func (s *service) OrganizerDetail(c *ginext.Context) {
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

	events, err := s.repo.ListEventsByOrganizer(ctx, organizerID,
		model.StatusPublished, model.StatusOngoing, model.StatusClosed, model.StatusCompleted)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list organizer events")
		dto.InternalServerError(c)
		return
	}
	if events == nil {
		events = []model.Event{}
	}

	dto.SuccessResponse(c, organizerDetailView{
		organizerView: publicOrganizer(org),
		Events:        events,
	})
}

func (s *service) Follow(c *ginext.Context) {
	s.setFollowing(c, true)
}

func (s *service) Unfollow(c *ginext.Context) {
	s.setFollowing(c, false)
}

func (s *service) setFollowing(c *ginext.Context, follow bool) {
	participantID, ok := s.principalID(c)
	if !ok {
		return
	}
	organizerID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var err error
	if follow {
		err = s.repo.Follow(c.Request.Context(), participantID, organizerID)
	} else {
		err = s.repo.Unfollow(c.Request.Context(), participantID, organizerID)
	}
	if err != nil {
		if errors.Is(err, repo.ErrOrganizerNotFound) {
			dto.NotFoundError(c, dto.OrganizerNotFound, "Organizer not found")
			return
		}
		s.log.Error().Err(err).Msg("failed to update following")
		dto.InternalServerError(c)
		return
	}

	dto.SuccessResponse(c, nil)
}
