package repository

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func SetupIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	notes := db.Collection(notesCollection)

	noteIndexes := []mongo.IndexModel{
		// Listing order
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().
				SetName("user_notes_date").
				SetUnique(false),
		},
		// (user_id, slug) is the by-slug lookup and must stay unique per user
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "slug", Value: 1},
			},
			Options: options.Index().
				SetName("user_slug_unique").
				SetUnique(true),
		},
	}

	if _, err := notes.Indexes().CreateMany(ctx, noteIndexes); err != nil {
		return fmt.Errorf("failed to create notes indexes: %w", err)
	}

	log.Println("Successfully created notes indexes")
	return nil
}
