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

func (r *repository) CreateParticipant(ctx context.Context, p *model.Participant) (bson.ObjectID, error) {
	res, err := r.participants.InsertOne(ctx, p)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return bson.ObjectID{}, ErrDuplicateEmail
		}
		return bson.ObjectID{}, fmt.Errorf("failed to insert participant: %w", err)
	}
	return insertedID(res)
}

func (r *repository) GetParticipantByID(ctx context.Context, id bson.ObjectID) (*model.Participant, error) {
	var p model.Participant
	if err := r.participants.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	return &p, nil
}

func (r *repository) GetParticipantByEmail(ctx context.Context, email string) (*model.Participant, error) {
	var p model.Participant
	if err := r.participants.FindOne(ctx, bson.M{"email": email}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to get participant by email: %w", err)
	}
	return &p, nil
}

func (r *repository) SaveParticipant(ctx context.Context, p *model.Participant) error {
	res, err := r.participants.ReplaceOne(ctx, bson.M{"_id": p.ID}, p)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to save participant: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrParticipantNotFound
	}
	return nil
}

func (r *repository) ListFollowers(ctx context.Context, organizerID bson.ObjectID) ([]model.Participant, error) {
	cursor, err := r.participants.Find(ctx, bson.M{"following": organizerID})
	if err != nil {
		return nil, fmt.Errorf("failed to list followers: %w", err)
	}

	var followers []model.Participant
	if err := cursor.All(ctx, &followers); err != nil {
		return nil, fmt.Errorf("failed to decode followers: %w", err)
	}
	return followers, nil
}

func (r *repository) CreateOrganizer(ctx context.Context, o *model.Organizer) (bson.ObjectID, error) {
	res, err := r.organizers.InsertOne(ctx, o)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return bson.ObjectID{}, ErrDuplicateEmail
		}
		return bson.ObjectID{}, fmt.Errorf("failed to insert organizer: %w", err)
	}
	return insertedID(res)
}

func (r *repository) GetOrganizerByID(ctx context.Context, id bson.ObjectID) (*model.Organizer, error) {
	var o model.Organizer
	if err := r.organizers.FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrganizerNotFound
		}
		return nil, fmt.Errorf("failed to get organizer: %w", err)
	}
	return &o, nil
}

func (r *repository) GetOrganizerByEmail(ctx context.Context, email string) (*model.Organizer, error) {
	var o model.Organizer
	if err := r.organizers.FindOne(ctx, bson.M{"email": email}).Decode(&o); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrganizerNotFound
		}
		return nil, fmt.Errorf("failed to get organizer by email: %w", err)
	}
	return &o, nil
}

func (r *repository) SaveOrganizer(ctx context.Context, o *model.Organizer) error {
	res, err := r.organizers.ReplaceOne(ctx, bson.M{"_id": o.ID}, o)
	if err != nil {
		return fmt.Errorf("failed to save organizer: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrOrganizerNotFound
	}
	return nil
}

func (r *repository) DeleteOrganizer(ctx context.Context, id bson.ObjectID) error {
	res, err := r.organizers.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete organizer: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrOrganizerNotFound
	}
	return nil
}

func (r *repository) ListOrganizers(ctx context.Context) ([]model.Organizer, error) {
	cursor, err := r.organizers.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list organizers: %w", err)
	}

	var organizers []model.Organizer
	if err := cursor.All(ctx, &organizers); err != nil {
		return nil, fmt.Errorf("failed to decode organizers: %w", err)
	}
	return organizers, nil
}

func (r *repository) FindOrganizerIDsByName(ctx context.Context, search string) ([]bson.ObjectID, error) {
	cursor, err := r.organizers.Find(ctx,
		bson.M{"name": bson.M{"$regex": search, "$options": "i"}},
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("failed to search organizers: %w", err)
	}

	var docs []struct {
		ID bson.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode organizer ids: %w", err)
	}

	ids := make([]bson.ObjectID, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	return ids, nil
}

// Follow links both sides of the participant/organizer relation. The two
// updates are independent document writes; $addToSet keeps them idempotent.
func (r *repository) Follow(ctx context.Context, participantID, organizerID bson.ObjectID) error {
	res, err := r.organizers.UpdateByID(ctx, organizerID, bson.M{"$addToSet": bson.M{"followers": participantID}})
	if err != nil {
		return fmt.Errorf("failed to add follower: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrOrganizerNotFound
	}

	if _, err := r.participants.UpdateByID(ctx, participantID, bson.M{"$addToSet": bson.M{"following": organizerID}}); err != nil {
		return fmt.Errorf("failed to add following: %w", err)
	}
	return nil
}

func (r *repository) Unfollow(ctx context.Context, participantID, organizerID bson.ObjectID) error {
	res, err := r.organizers.UpdateByID(ctx, organizerID, bson.M{"$pull": bson.M{"followers": participantID}})
	if err != nil {
		return fmt.Errorf("failed to remove follower: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrOrganizerNotFound
	}

	if _, err := r.participants.UpdateByID(ctx, participantID, bson.M{"$pull": bson.M{"following": organizerID}}); err != nil {
		return fmt.Errorf("failed to remove following: %w", err)
	}
	return nil
}

func (r *repository) GetAdminByUsername(ctx context.Context, username string) (*model.Admin, error) {
	var a model.Admin
	if err := r.admins.FindOne(ctx, bson.M{"username": username}).Decode(&a); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrAdminNotFound
		}
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}
	return &a, nil
}
