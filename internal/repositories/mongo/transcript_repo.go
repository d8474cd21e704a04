package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/yoockh/bikeshop-agent/internal/models"
	"github.com/yoockh/bikeshop-agent/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type TranscriptRepository interface {
	Upsert(ctx context.Context, t *models.Transcript) error
	GetBySessionID(ctx context.Context, sessionID string) (*models.Transcript, error)
	ListByUser(ctx context.Context, userID string, limit int64) ([]models.Transcript, error)
	CountLeads(ctx context.Context, since time.Time) (int64, error)
}

type transcriptRepo struct {
	col *mongo.Collection
}

func NewTranscriptRepo(col *mongo.Collection) TranscriptRepository {
	return &transcriptRepo{col: col}
}

// Upsert replaces the messages and state of a session's transcript,
// creating the document on the first turn.
func (r *transcriptRepo) Upsert(ctx context.Context, t *models.Transcript) error {
	now := time.Now().UTC()
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = now
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}

	_, err := r.col.UpdateOne(ctx,
		bson.M{"session_id": t.SessionID},
		bson.M{
			"$set": bson.M{
				"user_id":      t.UserID,
				"state":        t.State,
				"lead_created": t.LeadCreated,
				"messages":     t.Messages,
				"updated_at":   t.UpdatedAt,
				"expires_at":   t.ExpiresAt,
			},
			"$setOnInsert": bson.M{"created_at": t.CreatedAt},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

func (r *transcriptRepo) GetBySessionID(ctx context.Context, sessionID string) (*models.Transcript, error) {
	var t models.Transcript
	err := r.col.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return &t, err
}

func (r *transcriptRepo) ListByUser(ctx context.Context, userID string, limit int64) ([]models.Transcript, error) {
	if limit <= 0 {
		limit = 20
	}

	cur, err := r.col.Find(ctx,
		bson.M{"user_id": userID},
		options.Find().
			SetSort(bson.D{{Key: "updated_at", Value: -1}}).
			SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Transcript
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *transcriptRepo) CountLeads(ctx context.Context, since time.Time) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{
		"lead_created": true,
		"updated_at":   bson.M{"$gte": since.UTC()},
	})
}
