package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"felicity/internal/model"
)

func participant(pt model.ParticipantType) *model.Participant {
	return &model.Participant{ID: bson.NewObjectID(), ParticipantType: pt}
}

func merchEvent(stock, purchaseLimit int) *model.Event {
	deadline := time.Now().Add(24 * time.Hour)
	ev := publishedEvent(deadline)
	ev.EventType = model.EventMerchandise
	ev.RegistrationLimit = 0
	ev.StockQuantity = stock
	ev.PurchaseLimit = purchaseLimit
	ev.Price = 50
	return ev
}

func TestCheckAdmissionOrderedPreconditions(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	p := participant(model.ParticipantIIITH)

	t.Run("not published", func(t *testing.T) {
		ev := publishedEvent(now.Add(time.Hour))
		for _, s := range []model.EventStatus{model.StatusDraft, model.StatusOngoing, model.StatusClosed, model.StatusCompleted} {
			ev.Status = s
			assert.ErrorIs(t, CheckAdmission(ev, p, false, now), ErrNotAcceptingRegistrations, string(s))
		}
	})

	t.Run("deadline passed", func(t *testing.T) {
		ev := publishedEvent(past)
		assert.ErrorIs(t, CheckAdmission(ev, p, false, now), ErrDeadlinePassed)
	})

	t.Run("capacity reached", func(t *testing.T) {
		ev := publishedEvent(now.Add(time.Hour))
		ev.RegistrationLimit = 2
		ev.RegistrationList = []bson.ObjectID{bson.NewObjectID(), bson.NewObjectID()}
		assert.ErrorIs(t, CheckAdmission(ev, p, false, now), ErrCapacityReached)

		ev.RegistrationList = ev.RegistrationList[:1]
		assert.NoError(t, CheckAdmission(ev, p, false, now))
	})

	t.Run("capacity does not gate merchandise", func(t *testing.T) {
		ev := merchEvent(5, 2)
		ev.RegistrationLimit = 1
		ev.RegistrationList = []bson.ObjectID{bson.NewObjectID(), bson.NewObjectID()}
		assert.NoError(t, CheckAdmission(ev, p, false, now))
	})

	t.Run("eligibility", func(t *testing.T) {
		ev := publishedEvent(now.Add(time.Hour))
		ev.Eligibility = model.EligibilityIIITH
		assert.NoError(t, CheckAdmission(ev, participant(model.ParticipantIIITH), false, now))
		assert.ErrorIs(t, CheckAdmission(ev, participant(model.ParticipantNonIIITH), false, now), ErrNotEligible)

		ev.Eligibility = model.EligibilityBoth
		assert.NoError(t, CheckAdmission(ev, participant(model.ParticipantNonIIITH), false, now))
	})

	t.Run("no double registration", func(t *testing.T) {
		ev := publishedEvent(now.Add(time.Hour))
		assert.ErrorIs(t, CheckAdmission(ev, p, true, now), ErrAlreadyRegistered)
	})
}

func TestNewRegistrationNormal(t *testing.T) {
	now := time.Now()
	ev := publishedEvent(now.Add(time.Hour))

	reg, err := NewRegistration(ev, bson.NewObjectID(), []model.FormResponse{{QuestionLabel: "team", Answer: "solo"}}, 0, now)
	require.NoError(t, err)

	assert.Equal(t, model.RegRegistered, reg.RegistrationStatus)
	assert.Equal(t, ev.ID, reg.Event)
	assert.Regexp(t, `^FELICITY-[0-9a-f]{24}-\d+-\d{1,3}$`, reg.TicketID)
	assert.Equal(t, 1, reg.Merchandise.Amount)
}

func TestNewRegistrationMerchandise(t *testing.T) {
	now := time.Now()
	ev := merchEvent(5, 3)

	t.Run("commit does not touch stock", func(t *testing.T) {
		reg, err := NewRegistration(ev, bson.NewObjectID(), nil, 3, now)
		require.NoError(t, err)
		assert.Equal(t, model.RegPending, reg.RegistrationStatus)
		assert.Equal(t, model.PaymentPending, reg.Payment)
		assert.Equal(t, 3, reg.Merchandise.Amount)
		assert.Equal(t, 5, ev.StockQuantity)
	})

	t.Run("amount defaults to one", func(t *testing.T) {
		reg, err := NewRegistration(ev, bson.NewObjectID(), nil, 0, now)
		require.NoError(t, err)
		assert.Equal(t, 1, reg.Merchandise.Amount)
	})

	t.Run("amount above purchase limit", func(t *testing.T) {
		_, err := NewRegistration(ev, bson.NewObjectID(), nil, 4, now)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("amount above stock", func(t *testing.T) {
		low := merchEvent(2, 10)
		_, err := NewRegistration(low, bson.NewObjectID(), nil, 3, now)
		assert.ErrorIs(t, err, ErrInsufficientStock)
	})
}

func TestPaymentApprovalDecrementsStock(t *testing.T) {
	now := time.Now()
	ev := merchEvent(5, 3)

	reg, err := NewRegistration(ev, bson.NewObjectID(), nil, 3, now)
	require.NoError(t, err)

	require.NoError(t, ApprovePayment(ev, reg, ev.Organizer, now))
	assert.Equal(t, 2, ev.StockQuantity)
	assert.Equal(t, model.PaymentCompleted, reg.Payment)
	assert.Equal(t, model.RegRegistered, reg.RegistrationStatus)

	// Approving twice is refused.
	assert.ErrorIs(t, ApprovePayment(ev, reg, ev.Organizer, now), ErrNotPending)
}

func TestPaymentApprovalRefusals(t *testing.T) {
	now := time.Now()
	ev := merchEvent(2, 5)

	reg, err := NewRegistration(ev, bson.NewObjectID(), nil, 2, now)
	require.NoError(t, err)

	t.Run("wrong organizer", func(t *testing.T) {
		assert.ErrorIs(t, ApprovePayment(ev, reg, bson.NewObjectID(), now), ErrNotOwner)
	})

	t.Run("stock drained between commit and approval", func(t *testing.T) {
		ev.StockQuantity = 1
		assert.ErrorIs(t, ApprovePayment(ev, reg, ev.Organizer, now), ErrInsufficientStock)
		assert.Equal(t, 1, ev.StockQuantity)
		assert.Equal(t, model.PaymentPending, reg.Payment)
	})
}

func TestPaymentRejectionLeavesStock(t *testing.T) {
	now := time.Now()
	ev := merchEvent(5, 3)

	reg, err := NewRegistration(ev, bson.NewObjectID(), nil, 2, now)
	require.NoError(t, err)

	require.NoError(t, RejectPayment(ev, reg, ev.Organizer, now))
	assert.Equal(t, 5, ev.StockQuantity)
	assert.Equal(t, model.PaymentFailed, reg.Payment)
	assert.Equal(t, model.RegCancelled, reg.RegistrationStatus)

	assert.ErrorIs(t, RejectPayment(ev, reg, ev.Organizer, now), ErrNotPending)
}

func TestScanLifecycle(t *testing.T) {
	now := time.Now()
	ev := publishedEvent(now.Add(time.Hour))

	reg, err := NewRegistration(ev, bson.NewObjectID(), nil, 0, now)
	require.NoError(t, err)

	require.NoError(t, Scan(reg, now))
	assert.Equal(t, model.RegAttended, reg.RegistrationStatus)
	require.NotNil(t, reg.AttendanceDate)
	assert.True(t, reg.AttendanceDate.Equal(now))

	// Second scan is an idempotent rejection: refused, nothing mutated.
	first := *reg.AttendanceDate
	assert.ErrorIs(t, Scan(reg, now.Add(time.Minute)), ErrAlreadyAdmitted)
	assert.True(t, reg.AttendanceDate.Equal(first))

	cancelled := &model.Registration{RegistrationStatus: model.RegCancelled}
	assert.ErrorIs(t, Scan(cancelled, now), ErrTicketCancelled)
}

func TestAggregateNormalRevenue(t *testing.T) {
	ev := publishedEvent(time.Now().Add(time.Hour))
	ev.Price = 100

	regs := []model.Registration{
		{RegistrationStatus: model.RegRegistered, Payment: model.PaymentCompleted},
		{RegistrationStatus: model.RegAttended, Payment: model.PaymentCompleted},
		{RegistrationStatus: model.RegRegistered, Payment: model.PaymentCompleted},
		{RegistrationStatus: model.RegPending, Payment: model.PaymentPending},
	}

	s := Aggregate(ev, regs)
	assert.Equal(t, 4, s.Registrations)
	assert.Equal(t, 1, s.Attendance)
	assert.Equal(t, 300, s.Revenue)
}

func TestAggregateMerchandiseRevenue(t *testing.T) {
	ev := merchEvent(10, 5)
	ev.Price = 50

	regs := []model.Registration{
		{RegistrationStatus: model.RegRegistered, Payment: model.PaymentCompleted, Merchandise: model.Merchandise{Amount: 4}},
		{RegistrationStatus: model.RegPending, Payment: model.PaymentPending, Merchandise: model.Merchandise{Amount: 2}},
	}

	s := Aggregate(ev, regs)
	assert.Equal(t, 2, s.Registrations)
	assert.Equal(t, 0, s.Attendance)
	assert.Equal(t, 200, s.Revenue)
}
