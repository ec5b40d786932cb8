package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"felicity/internal/model"
)

var (
	ErrEventNotFound         = errors.New("event not found")
	ErrRegistrationNotFound  = errors.New("registration not found")
	ErrParticipantNotFound   = errors.New("participant not found")
	ErrOrganizerNotFound     = errors.New("organizer not found")
	ErrAdminNotFound         = errors.New("admin not found")
	ErrResetNotFound         = errors.New("password reset request not found")
	ErrMessageNotFound       = errors.New("message not found")
	ErrDuplicateEmail        = errors.New("email already registered")
	ErrDuplicateRegistration = errors.New("duplicate registration")
)

// EventFilter narrows the public event listing. Zero values mean "no filter".
type EventFilter struct {
	NameSearch  string
	EventType   model.EventType
	Eligibility model.Eligibility
	Status      model.EventStatus
	StartFrom   *time.Time
	StartTo     *time.Time
	OrganizerIn []bson.ObjectID
}

type Repository interface {
	EnsureIndexes(ctx context.Context) error

	CreateEvent(ctx context.Context, e *model.Event) (bson.ObjectID, error)
	GetEventByID(ctx context.Context, id bson.ObjectID) (*model.Event, error)
	SaveEvent(ctx context.Context, e *model.Event) error
	ListEventsByOrganizer(ctx context.Context, organizerID bson.ObjectID, statuses ...model.EventStatus) ([]model.Event, error)
	ListEvents(ctx context.Context, f EventFilter) ([]model.Event, error)
	AppendRegistration(ctx context.Context, eventID, regID bson.ObjectID) error
	IncrementVisits(ctx context.Context, eventID bson.ObjectID) error

	CreateRegistration(ctx context.Context, reg *model.Registration) (bson.ObjectID, error)
	GetRegistrationByID(ctx context.Context, id bson.ObjectID) (*model.Registration, error)
	SaveRegistration(ctx context.Context, reg *model.Registration) error
	FindRegistration(ctx context.Context, participantID, eventID bson.ObjectID) (*model.Registration, error)
	FindRegistrationByTicket(ctx context.Context, eventID bson.ObjectID, ticketID string) (*model.Registration, error)
	ListRegistrationsByEvent(ctx context.Context, eventID bson.ObjectID) ([]model.Registration, error)
	ListRegistrationsByParticipant(ctx context.Context, participantID bson.ObjectID) ([]model.Registration, error)
	ListPendingPayments(ctx context.Context, eventIDs []bson.ObjectID) ([]model.Registration, error)

	CreateParticipant(ctx context.Context, p *model.Participant) (bson.ObjectID, error)
	GetParticipantByID(ctx context.Context, id bson.ObjectID) (*model.Participant, error)
	GetParticipantByEmail(ctx context.Context, email string) (*model.Participant, error)
	SaveParticipant(ctx context.Context, p *model.Participant) error
	ListFollowers(ctx context.Context, organizerID bson.ObjectID) ([]model.Participant, error)

	CreateOrganizer(ctx context.Context, o *model.Organizer) (bson.ObjectID, error)
	GetOrganizerByID(ctx context.Context, id bson.ObjectID) (*model.Organizer, error)
	GetOrganizerByEmail(ctx context.Context, email string) (*model.Organizer, error)
	SaveOrganizer(ctx context.Context, o *model.Organizer) error
	DeleteOrganizer(ctx context.Context, id bson.ObjectID) error
	ListOrganizers(ctx context.Context) ([]model.Organizer, error)
	FindOrganizerIDsByName(ctx context.Context, search string) ([]bson.ObjectID, error)
	Follow(ctx context.Context, participantID, organizerID bson.ObjectID) error
	Unfollow(ctx context.Context, participantID, organizerID bson.ObjectID) error

	GetAdminByUsername(ctx context.Context, username string) (*model.Admin, error)

	CreateReset(ctx context.Context, r *model.PasswordReset) (bson.ObjectID, error)
	GetResetByID(ctx context.Context, id bson.ObjectID) (*model.PasswordReset, error)
	SaveReset(ctx context.Context, r *model.PasswordReset) error
	ListResets(ctx context.Context) ([]model.PasswordReset, error)
	ListResetsByOrganizer(ctx context.Context, organizerID bson.ObjectID) ([]model.PasswordReset, error)

	CreateMessage(ctx context.Context, m *model.Message) (bson.ObjectID, error)
	ListMessagesByEvent(ctx context.Context, eventID bson.ObjectID) ([]model.Message, error)
	AddMessageReference(ctx context.Context, parentID, childID bson.ObjectID) error
	SetMessageStatus(ctx context.Context, id bson.ObjectID, status model.MessageStatus) error
}

type repository struct {
	db  *mongo.Database
	log *zerolog.Logger

	events        *mongo.Collection
	registrations *mongo.Collection
	participants  *mongo.Collection
	organizers    *mongo.Collection
	admins        *mongo.Collection
	resets        *mongo.Collection
	messages      *mongo.Collection
}

// Connect dials MongoDB and verifies the connection.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return client, nil
}

func NewRepository(client *mongo.Client, dbName string, log *zerolog.Logger) (Repository, error) {
	if client == nil {
		return nil, fmt.Errorf("mongo client cannot be nil")
	}
	db := client.Database(dbName)
	return &repository{
		db:            db,
		log:           log,
		events:        db.Collection("events"),
		registrations: db.Collection("registrations"),
		participants:  db.Collection("participants"),
		organizers:    db.Collection("organizers"),
		admins:        db.Collection("admins"),
		resets:        db.Collection("resets"),
		messages:      db.Collection("messages"),
	}, nil
}

// EnsureIndexes creates the uniqueness constraints the business rules lean
// on: one registration per (participant, event), globally unique ticket IDs,
// unique account emails.
func (r *repository) EnsureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)

	if _, err := r.registrations.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "participant", Value: 1}, {Key: "event", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "ticketID", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "event", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("failed to create registration indexes: %w", err)
	}

	if _, err := r.participants.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}}, Options: unique,
	}); err != nil {
		return fmt.Errorf("failed to create participant indexes: %w", err)
	}

	if _, err := r.organizers.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}}, Options: unique,
	}); err != nil {
		return fmt.Errorf("failed to create organizer indexes: %w", err)
	}

	if _, err := r.events.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "organizer", Value: 1}},
	}); err != nil {
		return fmt.Errorf("failed to create event indexes: %w", err)
	}

	if _, err := r.messages.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "eventId", Value: 1}, {Key: "createdAt", Value: 1}},
	}); err != nil {
		return fmt.Errorf("failed to create message indexes: %w", err)
	}

	r.log.Info().Msg("MongoDB indexes ensured")
	return nil
}

func insertedID(res *mongo.InsertOneResult) (bson.ObjectID, error) {
	id, ok := res.InsertedID.(bson.ObjectID)
	if !ok {
		return bson.ObjectID{}, fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	return id, nil
}
