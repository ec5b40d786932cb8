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

func (r *repository) CreateReset(ctx context.Context, reset *model.PasswordReset) (bson.ObjectID, error) {
	res, err := r.resets.InsertOne(ctx, reset)
	if err != nil {
		return bson.ObjectID{}, fmt.Errorf("failed to insert password reset: %w", err)
	}
	return insertedID(res)
}

func (r *repository) GetResetByID(ctx context.Context, id bson.ObjectID) (*model.PasswordReset, error) {
	var reset model.PasswordReset
	if err := r.resets.FindOne(ctx, bson.M{"_id": id}).Decode(&reset); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrResetNotFound
		}
		return nil, fmt.Errorf("failed to get password reset: %w", err)
	}
	return &reset, nil
}

func (r *repository) SaveReset(ctx context.Context, reset *model.PasswordReset) error {
	res, err := r.resets.ReplaceOne(ctx, bson.M{"_id": reset.ID}, reset)
	if err != nil {
		return fmt.Errorf("failed to save password reset: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrResetNotFound
	}
	return nil
}

func (r *repository) ListResets(ctx context.Context) ([]model.PasswordReset, error) {
	return r.listResets(ctx, bson.M{})
}

func (r *repository) ListResetsByOrganizer(ctx context.Context, organizerID bson.ObjectID) ([]model.PasswordReset, error) {
	return r.listResets(ctx, bson.M{"organizer": organizerID})
}

func (r *repository) listResets(ctx context.Context, filter bson.M) ([]model.PasswordReset, error) {
	cursor, err := r.resets.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list password resets: %w", err)
	}

	var resets []model.PasswordReset
	if err := cursor.All(ctx, &resets); err != nil {
		return nil, fmt.Errorf("failed to decode password resets: %w", err)
	}
	return resets, nil
}
