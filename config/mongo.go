package config

import (
	"context"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var MongoClient *mongo.Client

// InitMongo connects when MONGO_URI is set. Mongo is optional: without it
// session records and the live utterance feed are disabled.
func InitMongo() (bool, error) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		return false, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	clientOpts := options.Client().ApplyURI(uri).
		SetServerSelectionTimeout(20 * time.Second).
		SetConnectTimeout(15 * time.Second).
		SetMaxPoolSize(10).
		SetMinPoolSize(1)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return false, err
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return false, err
	}

	MongoClient = client
	return true, nil
}

// MongoDatabase returns the configured application database.
func MongoDatabase() *mongo.Database {
	if MongoClient == nil {
		return nil
	}
	name := os.Getenv("MONGO_DB")
	if name == "" {
		name = "voicecopilot"
	}
	return MongoClient.Database(name)
}
