package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"felicity/internal/model"
)

func ptr[T any](v T) *T { return &v }

func draftEvent() *model.Event {
	return &model.Event{
		ID:        bson.NewObjectID(),
		Name:      "Hack Night",
		Organizer: bson.NewObjectID(),
		Status:    model.StatusDraft,
	}
}

func publishedEvent(deadline time.Time) *model.Event {
	start := deadline.Add(24 * time.Hour)
	end := start.Add(8 * time.Hour)
	ev := draftEvent()
	ev.EventType = model.EventNormal
	ev.Eligibility = model.EligibilityBoth
	ev.RegistrationDeadline = &deadline
	ev.EventStartDate = &start
	ev.EventEndDate = &end
	ev.RegistrationLimit = 100
	ev.Price = 100
	ev.Status = model.StatusPublished
	return ev
}

func TestApplyEditDraftAllowsAllFields(t *testing.T) {
	ev := draftEvent()
	deadline := time.Now().Add(48 * time.Hour)

	err := ApplyEdit(ev, EditRequest{
		Name:                 ptr("Merch Drop"),
		Desc:                 ptr("limited run"),
		EventType:            ptr(model.EventMerchandise),
		Eligibility:          ptr(model.EligibilityIIITH),
		RegistrationDeadline: &deadline,
		Price:                ptr(250),
		StockQuantity:        ptr(40),
		PurchaseLimit:        ptr(4),
		EventTags:            ptr([]string{"merch"}),
	})
	require.NoError(t, err)

	assert.Equal(t, "Merch Drop", ev.Name)
	assert.Equal(t, model.EventMerchandise, ev.EventType)
	assert.Equal(t, 40, ev.StockQuantity)
	assert.Equal(t, 4, ev.PurchaseLimit)
	assert.Equal(t, 250, ev.Price)
	assert.Equal(t, model.StatusDraft, ev.Status)
}

func TestApplyEditDraftIgnoresMerchFieldsForNormalEvents(t *testing.T) {
	ev := draftEvent()
	ev.EventType = model.EventNormal

	require.NoError(t, ApplyEdit(ev, EditRequest{StockQuantity: ptr(99), PurchaseLimit: ptr(3)}))
	assert.Zero(t, ev.StockQuantity)
	assert.Zero(t, ev.PurchaseLimit)
}

func TestApplyEditPublishedDropsLockedFieldsSilently(t *testing.T) {
	ev := publishedEvent(time.Now().Add(24 * time.Hour))

	// Price is not editable once Published: dropped, not errored.
	require.NoError(t, ApplyEdit(ev, EditRequest{Price: ptr(999), Desc: ptr("new copy")}))
	assert.Equal(t, 100, ev.Price)
	assert.Equal(t, "new copy", ev.Desc)
}

func TestApplyEditPublishedDeadlineMonotonic(t *testing.T) {
	deadline := time.Now().Add(24 * time.Hour)
	ev := publishedEvent(deadline)

	shorter := deadline.Add(-time.Hour)
	err := ApplyEdit(ev, EditRequest{RegistrationDeadline: &shorter})
	assert.ErrorIs(t, err, ErrDeadlineNotExtended)
	assert.True(t, ev.RegistrationDeadline.Equal(deadline), "refused edit must not mutate")

	same := deadline
	assert.ErrorIs(t, ApplyEdit(ev, EditRequest{RegistrationDeadline: &same}), ErrDeadlineNotExtended)

	longer := deadline.Add(time.Hour)
	require.NoError(t, ApplyEdit(ev, EditRequest{RegistrationDeadline: &longer}))
	assert.True(t, ev.RegistrationDeadline.Equal(longer))
}

func TestApplyEditPublishedLimitRaiseOnly(t *testing.T) {
	ev := publishedEvent(time.Now().Add(24 * time.Hour))

	assert.ErrorIs(t, ApplyEdit(ev, EditRequest{RegistrationLimit: ptr(99)}), ErrLimitNotRaised)
	assert.Equal(t, 100, ev.RegistrationLimit)

	require.NoError(t, ApplyEdit(ev, EditRequest{RegistrationLimit: ptr(100)}))
	require.NoError(t, ApplyEdit(ev, EditRequest{RegistrationLimit: ptr(150)}))
	assert.Equal(t, 150, ev.RegistrationLimit)
}

func TestApplyEditCustomFormLockedAfterFirstRegistration(t *testing.T) {
	ev := draftEvent()
	ev.RegistrationList = []bson.ObjectID{bson.NewObjectID()}

	err := ApplyEdit(ev, EditRequest{CustomForm: ptr([]model.FormField{{Label: "size"}})})
	assert.ErrorIs(t, err, ErrFormLocked)
	assert.Empty(t, ev.CustomForm)
}

func TestApplyEditStatusTransitions(t *testing.T) {
	tests := []struct {
		name string
		from model.EventStatus
		to   model.EventStatus
		ok   bool
	}{
		{"draft to published", model.StatusDraft, model.StatusPublished, true},
		{"draft to ongoing", model.StatusDraft, model.StatusOngoing, false},
		{"published to ongoing", model.StatusPublished, model.StatusOngoing, true},
		{"published to closed", model.StatusPublished, model.StatusClosed, true},
		{"published to completed", model.StatusPublished, model.StatusCompleted, false},
		{"ongoing to completed", model.StatusOngoing, model.StatusCompleted, true},
		{"ongoing to closed", model.StatusOngoing, model.StatusClosed, true},
		{"closed is terminal", model.StatusClosed, model.StatusOngoing, false},
		{"completed is terminal", model.StatusCompleted, model.StatusClosed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := publishedEvent(time.Now().Add(24 * time.Hour))
			ev.Status = tt.from
			err := ApplyEdit(ev, EditRequest{Status: &tt.to})
			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, tt.to, ev.Status)
			} else {
				assert.ErrorIs(t, err, ErrBadTransition)
				assert.Equal(t, tt.from, ev.Status)
			}
		})
	}
}

func TestApplyEditSameStatusIsNoOp(t *testing.T) {
	for _, status := range []model.EventStatus{
		model.StatusDraft, model.StatusPublished, model.StatusOngoing,
		model.StatusClosed, model.StatusCompleted,
	} {
		ev := publishedEvent(time.Now().Add(24 * time.Hour))
		ev.Status = status
		require.NoError(t, ApplyEdit(ev, EditRequest{Status: &status}), string(status))
		assert.Equal(t, status, ev.Status)
	}

	// Re-sending the status does not unlock field edits the status forbids.
	ev := publishedEvent(time.Now().Add(24 * time.Hour))
	ev.Status = model.StatusOngoing
	err := ApplyEdit(ev, EditRequest{Status: ptr(model.StatusOngoing), Name: ptr("renamed")})
	assert.ErrorIs(t, err, ErrEventLocked)
	assert.Equal(t, "Hack Night", ev.Name)

	// But a Published event still accepts its editable fields alongside it.
	ev = publishedEvent(time.Now().Add(24 * time.Hour))
	require.NoError(t, ApplyEdit(ev, EditRequest{Status: ptr(model.StatusPublished), Desc: ptr("new copy")}))
	assert.Equal(t, "new copy", ev.Desc)
	assert.Equal(t, model.StatusPublished, ev.Status)
}

func TestApplyEditTerminalStatesRefuseFieldEdits(t *testing.T) {
	for _, status := range []model.EventStatus{model.StatusOngoing, model.StatusClosed, model.StatusCompleted} {
		ev := publishedEvent(time.Now().Add(24 * time.Hour))
		ev.Status = status
		assert.ErrorIs(t, ApplyEdit(ev, EditRequest{Desc: ptr("nope")}), ErrEventLocked, string(status))
	}
}

func TestPublishValidatesRequiredFields(t *testing.T) {
	ev := draftEvent()
	err := ApplyEdit(ev, EditRequest{Status: ptr(model.StatusPublished)})
	assert.ErrorIs(t, err, ErrPublishIncomplete)
	assert.Equal(t, model.StatusDraft, ev.Status)

	// Supplying the required fields in the same request publishes in one go.
	deadline := time.Now().Add(24 * time.Hour)
	start := deadline.Add(24 * time.Hour)
	end := start.Add(2 * time.Hour)
	err = ApplyEdit(ev, EditRequest{
		EventType:            ptr(model.EventNormal),
		Eligibility:          ptr(model.EligibilityBoth),
		RegistrationDeadline: &deadline,
		EventStartDate:       &start,
		EventEndDate:         &end,
		RegistrationLimit:    ptr(50),
		Status:               ptr(model.StatusPublished),
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPublished, ev.Status)
}

func TestPublishMerchandiseRequiresStockAndLimit(t *testing.T) {
	deadline := time.Now().Add(24 * time.Hour)
	start := deadline.Add(time.Hour)
	end := start.Add(time.Hour)
	ev := draftEvent()
	ev.EventType = model.EventMerchandise
	ev.Eligibility = model.EligibilityBoth
	ev.RegistrationDeadline = &deadline
	ev.EventStartDate = &start
	ev.EventEndDate = &end

	assert.ErrorIs(t, ValidateForPublish(ev), ErrPublishIncomplete)

	ev.StockQuantity = 20
	ev.PurchaseLimit = 2
	assert.NoError(t, ValidateForPublish(ev))
}
