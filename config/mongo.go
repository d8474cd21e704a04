package config

import (
	"context"
	"errors"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const defaultMongoDB = "bikeshop"

var MongoClient *mongo.Client

// MongoConfigured reports whether the transcript archive is enabled.
func MongoConfigured() bool { return os.Getenv("MONGO_URI") != "" }

// MongoDBName is the database the transcript archive lives in.
func MongoDBName() string {
	if name := os.Getenv("MONGO_DB"); name != "" {
		return name
	}
	return defaultMongoDB
}

// TranscriptsCollection returns the archive collection. InitMongo must have succeeded.
func TranscriptsCollection() *mongo.Collection {
	return MongoClient.Database(MongoDBName()).Collection("transcripts")
}

// InitMongo connects the transcript archive. Archiving is append-mostly and
// small, so the pool is kept narrow.
func InitMongo(ctx context.Context) error {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		return errors.New("MONGO_URI environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	opts := options.Client().ApplyURI(uri).
		SetAppName("bikeshop-agent").
		SetServerSelectionTimeout(15 * time.Second).
		SetConnectTimeout(10 * time.Second).
		SetMaxPoolSize(10).
		SetMinPoolSize(1).
		SetRetryWrites(true)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return err
	}

	MongoClient = client
	return nil
}
