package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/ginext"
	"go.mongodb.org/mongo-driver/v2/bson"
	"golang.org/x/crypto/bcrypt"

	"felicity/cmd/middleware"
	"felicity/internal/model"
	"felicity/internal/repo"
)

const testSecret = "test-secret"

// stubRepo embeds the Repository interface so each test overrides only the
// methods its handler touches; anything else panics loudly.
type stubRepo struct {
	repo.Repository

	participant      *model.Participant
	savedParticipant *model.Participant
	resets           []model.PasswordReset
	resetsQueriedBy  bson.ObjectID
	event            *model.Event
	registrations    []model.Registration
	followers        []model.Participant
}

func (s *stubRepo) GetParticipantByID(ctx context.Context, id bson.ObjectID) (*model.Participant, error) {
	if s.participant == nil {
		return nil, repo.ErrParticipantNotFound
	}
	return s.participant, nil
}

func (s *stubRepo) SaveParticipant(ctx context.Context, p *model.Participant) error {
	s.savedParticipant = p
	return nil
}

func (s *stubRepo) ListResetsByOrganizer(ctx context.Context, organizerID bson.ObjectID) ([]model.PasswordReset, error) {
	s.resetsQueriedBy = organizerID
	return s.resets, nil
}

func (s *stubRepo) GetEventByID(ctx context.Context, id bson.ObjectID) (*model.Event, error) {
	if s.event == nil {
		return nil, repo.ErrEventNotFound
	}
	return s.event, nil
}

func (s *stubRepo) ListRegistrationsByEvent(ctx context.Context, eventID bson.ObjectID) ([]model.Registration, error) {
	return s.registrations, nil
}

func (s *stubRepo) ListFollowers(ctx context.Context, organizerID bson.ObjectID) ([]model.Participant, error) {
	return s.followers, nil
}

func newTestRouter(stub *stubRepo) *ginext.Engine {
	log := zerolog.Nop()
	svc := NewService(stub, &log, nil, nil, testSecret)

	app := ginext.New("release")
	auth := middleware.Authenticate(testSecret)
	app.GET("/auth/role", auth, svc.Role)
	app.GET("/organizer/reset", auth, svc.MyResets)
	app.POST("/profile/password", auth, svc.ChangePassword)
	app.GET("/organizer/events/:id/view", auth, svc.ViewEvent)
	return app
}

func doRequest(t *testing.T, app *ginext.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(method, path, strings.NewReader(body))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	return rec
}

func TestRoleEchoesAuthenticatedPrincipal(t *testing.T) {
	app := newTestRouter(&stubRepo{})

	token, err := middleware.NewToken(testSecret, bson.NewObjectID().Hex(), model.RoleOrganizer, time.Hour)
	require.NoError(t, err)

	rec := doRequest(t, app, http.MethodGet, "/auth/role", token, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"role":"organizer"`)
}

func TestRoleRejectsMissingToken(t *testing.T) {
	app := newTestRouter(&stubRepo{})

	rec := doRequest(t, app, http.MethodGet, "/auth/role", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMyResetsScopedToCaller(t *testing.T) {
	organizerID := bson.NewObjectID()
	stub := &stubRepo{
		resets: []model.PasswordReset{{
			ID:        bson.NewObjectID(),
			Organizer: organizerID,
			Reason:    "forgot after handover",
			Status:    model.ResetPending,
		}},
	}
	app := newTestRouter(stub)

	token, err := middleware.NewToken(testSecret, organizerID.Hex(), model.RoleOrganizer, time.Hour)
	require.NoError(t, err)

	rec := doRequest(t, app, http.MethodGet, "/organizer/reset", token, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "forgot after handover")
	assert.Equal(t, organizerID, stub.resetsQueriedBy)
}

func TestChangePasswordVerifiesCurrentPassword(t *testing.T) {
	participantID := bson.NewObjectID()
	hash, err := bcrypt.GenerateFromPassword([]byte("old-secret-1"), bcrypt.MinCost)
	require.NoError(t, err)

	stub := &stubRepo{participant: &model.Participant{
		ID:       participantID,
		Password: string(hash),
	}}
	app := newTestRouter(stub)

	token, err := middleware.NewToken(testSecret, participantID.Hex(), model.RoleParticipant, time.Hour)
	require.NoError(t, err)

	rec := doRequest(t, app, http.MethodPost, "/profile/password", token,
		`{"oldPassword":"wrong-guess","newPassword":"brand-new-secret"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_CREDENTIALS")
	assert.Nil(t, stub.savedParticipant)

	rec = doRequest(t, app, http.MethodPost, "/profile/password", token,
		`{"oldPassword":"old-secret-1","newPassword":"brand-new-secret"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, stub.savedParticipant)
	assert.NoError(t, bcrypt.CompareHashAndPassword(
		[]byte(stub.savedParticipant.Password), []byte("brand-new-secret")))
}

func TestViewEventIncludesFollowerRoster(t *testing.T) {
	organizerID := bson.NewObjectID()
	eventID := bson.NewObjectID()
	stub := &stubRepo{
		event: &model.Event{
			ID:        eventID,
			Name:      "Hack Night",
			Organizer: organizerID,
			Status:    model.StatusPublished,
		},
		followers: []model.Participant{{
			FName: "Asha",
			LName: "Rao",
			Email: "asha@example.com",
		}},
	}
	app := newTestRouter(stub)

	token, err := middleware.NewToken(testSecret, organizerID.Hex(), model.RoleOrganizer, time.Hour)
	require.NoError(t, err)

	rec := doRequest(t, app, http.MethodGet, "/organizer/events/"+eventID.Hex()+"/view", token, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "asha@example.com")
	assert.Contains(t, rec.Body.String(), "Asha Rao")
}
