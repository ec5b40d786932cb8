package service

import (
	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/ginext"
	"go.mongodb.org/mongo-driver/v2/bson"

	"felicity/cmd/middleware"
	"felicity/internal/dto"
	"felicity/internal/rabbit"
	"felicity/internal/repo"
	"felicity/internal/storage"
)

type Service interface {
	// Auth.
	Signup(c *ginext.Context)
	Login(c *ginext.Context)
	Role(c *ginext.Context)

	// Public / participant browsing.
	AllEvents(c *ginext.Context)
	EventDetail(c *ginext.Context)
	AllOrganizers(c *ginext.Context)
	OrganizerDetail(c *ginext.Context)
	Follow(c *ginext.Context)
	Unfollow(c *ginext.Context)

	// Participant registrations and profile.
	RegistrationForm(c *ginext.Context)
	Register(c *ginext.Context)
	MyRegistrations(c *ginext.Context)
	RegistrationDetail(c *ginext.Context)
	CancelRegistration(c *ginext.Context)
	UploadPaymentProof(c *ginext.Context)
	Profile(c *ginext.Context)
	UpdateProfile(c *ginext.Context)
	ChangePassword(c *ginext.Context)

	// Organizer console.
	CreateDraft(c *ginext.Context)
	MyEvents(c *ginext.Context)
	GetEvent(c *ginext.Context)
	EditEvent(c *ginext.Context)
	ViewEvent(c *ginext.Context)
	Dashboard(c *ginext.Context)
	OngoingEvents(c *ginext.Context)
	ScanTicket(c *ginext.Context)
	PendingPayments(c *ginext.Context)
	ApprovePayment(c *ginext.Context)
	RejectPayment(c *ginext.Context)
	OrganizerProfile(c *ginext.Context)
	UpdateOrganizerProfile(c *ginext.Context)
	RequestReset(c *ginext.Context)
	MyResets(c *ginext.Context)

	// Admin console.
	AdminOrganizers(c *ginext.Context)
	AddOrganizer(c *ginext.Context)
	SuspendOrganizer(c *ginext.Context)
	EnableOrganizer(c *ginext.Context)
	RemoveOrganizer(c *ginext.Context)
	ListResets(c *ginext.Context)
	DecideReset(c *ginext.Context)
}

type service struct {
	repo      repo.Repository
	log       *zerolog.Logger
	rbt       *rabbit.Client
	store     *storage.Store
	jwtSecret string
}

func NewService(repo repo.Repository, logger *zerolog.Logger, rbt *rabbit.Client, store *storage.Store, jwtSecret string) Service {
	return &service{
		repo:      repo,
		log:       logger,
		rbt:       rbt,
		store:     store,
		jwtSecret: jwtSecret,
	}
}

// principalID extracts the authenticated caller's object ID. Routes behind
// the auth middleware always have one; a miss means a wiring bug, answered
// with 401 rather than a panic.
func (s *service) principalID(c *ginext.Context) (bson.ObjectID, bool) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		dto.UnauthorizedError(c, "Not authenticated")
		return bson.ObjectID{}, false
	}
	id, err := bson.ObjectIDFromHex(p.ID)
	if err != nil {
		dto.UnauthorizedError(c, "Invalid principal")
		return bson.ObjectID{}, false
	}
	return id, true
}

// pathID parses the :id route parameter as an object ID.
func pathID(c *ginext.Context, name string) (bson.ObjectID, bool) {
	id, err := bson.ObjectIDFromHex(c.Param(name))
	if err != nil {
		dto.BadResponseError(c, dto.FieldBadFormat, "Invalid "+name)
		return bson.ObjectID{}, false
	}
	return id, true
}
