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

func (r *repository) CreateEvent(ctx context.Context, e *model.Event) (bson.ObjectID, error) {
	res, err := r.events.InsertOne(ctx, e)
	if err != nil {
		return bson.ObjectID{}, fmt.Errorf("failed to insert event: %w", err)
	}
	return insertedID(res)
}

func (r *repository) GetEventByID(ctx context.Context, id bson.ObjectID) (*model.Event, error) {
	var e model.Event
	if err := r.events.FindOne(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return &e, nil
}

// SaveEvent persists the full document. Together with GetEventByID it forms
// the fetch/save pair every mutation goes through; the pair is not atomic.
func (r *repository) SaveEvent(ctx context.Context, e *model.Event) error {
	res, err := r.events.ReplaceOne(ctx, bson.M{"_id": e.ID}, e)
	if err != nil {
		return fmt.Errorf("failed to save event: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (r *repository) ListEventsByOrganizer(ctx context.Context, organizerID bson.ObjectID, statuses ...model.EventStatus) ([]model.Event, error) {
	filter := bson.M{"organizer": organizerID}
	if len(statuses) > 0 {
		filter["status"] = bson.M{"$in": statuses}
	}

	cursor, err := r.events.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list organizer events: %w", err)
	}

	var events []model.Event
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode organizer events: %w", err)
	}
	return events, nil
}

func (r *repository) ListEvents(ctx context.Context, f EventFilter) ([]model.Event, error) {
	filter := bson.M{}

	if f.NameSearch != "" {
		or := []bson.M{
			{"name": bson.M{"$regex": f.NameSearch, "$options": "i"}},
		}
		if len(f.OrganizerIn) > 0 {
			or = append(or, bson.M{"organizer": bson.M{"$in": f.OrganizerIn}})
		}
		filter["$or"] = or
	} else if len(f.OrganizerIn) > 0 {
		filter["organizer"] = bson.M{"$in": f.OrganizerIn}
	}

	if f.EventType != "" {
		filter["eventType"] = f.EventType
	}
	if f.Eligibility != "" {
		filter["eligibility"] = f.Eligibility
	}
	if f.Status != "" {
		filter["status"] = f.Status
	} else {
		// Drafts are never listed publicly.
		filter["status"] = bson.M{"$ne": model.StatusDraft}
	}

	if f.StartFrom != nil || f.StartTo != nil {
		rangeFilter := bson.M{}
		if f.StartFrom != nil {
			rangeFilter["$gte"] = *f.StartFrom
		}
		if f.StartTo != nil {
			rangeFilter["$lte"] = *f.StartTo
		}
		filter["eventStartDate"] = rangeFilter
	}

	cursor, err := r.events.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	var events []model.Event
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}
	return events, nil
}

func (r *repository) AppendRegistration(ctx context.Context, eventID, regID bson.ObjectID) error {
	res, err := r.events.UpdateByID(ctx, eventID, bson.M{"$push": bson.M{"registrationList": regID}})
	if err != nil {
		return fmt.Errorf("failed to append registration to event: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (r *repository) IncrementVisits(ctx context.Context, eventID bson.ObjectID) error {
	res, err := r.events.UpdateByID(ctx, eventID, bson.M{"$inc": bson.M{"visits": 1}})
	if err != nil {
		return fmt.Errorf("failed to increment visits: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrEventNotFound
	}
	return nil
}
