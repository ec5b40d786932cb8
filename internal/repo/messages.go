package repo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"felicity/internal/model"
)

func (r *repository) CreateMessage(ctx context.Context, m *model.Message) (bson.ObjectID, error) {
	res, err := r.messages.InsertOne(ctx, m)
	if err != nil {
		return bson.ObjectID{}, fmt.Errorf("failed to insert message: %w", err)
	}
	return insertedID(res)
}

func (r *repository) ListMessagesByEvent(ctx context.Context, eventID bson.ObjectID) ([]model.Message, error) {
	cursor, err := r.messages.Find(ctx, bson.M{"eventId": eventID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	var messages []model.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}
	return messages, nil
}

// AddMessageReference back-links a reply onto the message it responds to.
func (r *repository) AddMessageReference(ctx context.Context, parentID, childID bson.ObjectID) error {
	res, err := r.messages.UpdateByID(ctx, parentID, bson.M{"$push": bson.M{"referencedBy": childID}})
	if err != nil {
		return fmt.Errorf("failed to add message reference: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrMessageNotFound
	}
	return nil
}

func (r *repository) SetMessageStatus(ctx context.Context, id bson.ObjectID, status model.MessageStatus) error {
	res, err := r.messages.UpdateByID(ctx, id, bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		return fmt.Errorf("failed to set message status: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrMessageNotFound
	}
	return nil
}
