package repo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"felicity/internal/model"
)

func (r *repository) CreateRegistration(ctx context.Context, reg *model.Registration) (bson.ObjectID, error) {
	res, err := r.registrations.InsertOne(ctx, reg)
	if err != nil {
		// The unique (participant, event) index catches the commit race the
		// existence check cannot.
		if mongo.IsDuplicateKeyError(err) {
			return bson.ObjectID{}, ErrDuplicateRegistration
		}
		return bson.ObjectID{}, fmt.Errorf("failed to insert registration: %w", err)
	}
	return insertedID(res)
}

func (r *repository) GetRegistrationByID(ctx context.Context, id bson.ObjectID) (*model.Registration, error) {
	var reg model.Registration
	if err := r.registrations.FindOne(ctx, bson.M{"_id": id}).Decode(&reg); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to get registration: %w", err)
	}
	return &reg, nil
}

func (r *repository) SaveRegistration(ctx context.Context, reg *model.Registration) error {
	res, err := r.registrations.ReplaceOne(ctx, bson.M{"_id": reg.ID}, reg)
	if err != nil {
		return fmt.Errorf("failed to save registration: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrRegistrationNotFound
	}
	return nil
}

func (r *repository) FindRegistration(ctx context.Context, participantID, eventID bson.ObjectID) (*model.Registration, error) {
	var reg model.Registration
	err := r.registrations.FindOne(ctx, bson.M{"participant": participantID, "event": eventID}).Decode(&reg)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to find registration: %w", err)
	}
	return &reg, nil
}

// FindRegistrationByTicket matches on both event and ticket so a ticket
// scanned against another event's gate never resolves.
func (r *repository) FindRegistrationByTicket(ctx context.Context, eventID bson.ObjectID, ticketID string) (*model.Registration, error) {
	var reg model.Registration
	err := r.registrations.FindOne(ctx, bson.M{"event": eventID, "ticketID": ticketID}).Decode(&reg)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to find registration by ticket: %w", err)
	}
	return &reg, nil
}

func (r *repository) ListRegistrationsByEvent(ctx context.Context, eventID bson.ObjectID) ([]model.Registration, error) {
	cursor, err := r.registrations.Find(ctx, bson.M{"event": eventID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}

	var regs []model.Registration
	if err := cursor.All(ctx, &regs); err != nil {
		return nil, fmt.Errorf("failed to decode registrations: %w", err)
	}
	return regs, nil
}

func (r *repository) ListRegistrationsByParticipant(ctx context.Context, participantID bson.ObjectID) ([]model.Registration, error) {
	cursor, err := r.registrations.Find(ctx, bson.M{"participant": participantID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list participant registrations: %w", err)
	}

	var regs []model.Registration
	if err := cursor.All(ctx, &regs); err != nil {
		return nil, fmt.Errorf("failed to decode participant registrations: %w", err)
	}
	return regs, nil
}

// ListPendingPayments returns merchandise registrations awaiting an approval
// decision for the given events. Only registrations with an uploaded proof
// show up in the queue.
func (r *repository) ListPendingPayments(ctx context.Context, eventIDs []bson.ObjectID) ([]model.Registration, error) {
	if len(eventIDs) == 0 {
		return nil, nil
	}

	filter := bson.M{
		"event":                    bson.M{"$in": eventIDs},
		"payment":                  model.PaymentPending,
		"registrationStatus":       model.RegPending,
		"merchandise.paymentProof": bson.M{"$ne": ""},
	}
	cursor, err := r.registrations.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list pending payments: %w", err)
	}

	var regs []model.Registration
	if err := cursor.All(ctx, &regs); err != nil {
		return nil, fmt.Errorf("failed to decode pending payments: %w", err)
	}
	return regs, nil
}
