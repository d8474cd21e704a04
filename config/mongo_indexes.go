package config

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// transcriptIndexes back the archive: expiry by expires_at, one document per
// session, and the admin lookups by customer and by lead outcome.
var transcriptIndexes = []mongo.IndexModel{
	{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetName("ttl_expires_at").SetExpireAfterSeconds(0),
	},
	{
		Keys:    bson.D{{Key: "session_id", Value: 1}},
		Options: options.Index().SetName("uniq_session_id").SetUnique(true),
	},
	{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "updated_at", Value: -1}},
		Options: options.Index().SetName("by_user_updated").SetSparse(true),
	},
	{
		Keys:    bson.D{{Key: "lead_created", Value: 1}, {Key: "updated_at", Value: -1}},
		Options: options.Index().SetName("by_lead_updated"),
	},
}

func EnsureMongoIndexes(ctx context.Context) error {
	if MongoClient == nil {
		return errors.New("mongo: client not initialised, call InitMongo first")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := TranscriptsCollection().Indexes().CreateMany(ctx, transcriptIndexes)
	return err
}
