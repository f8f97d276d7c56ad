package utils

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"notesync/metrics"
)

// ConnectMongo dials uri, verifies the primary answers and reports pool
// activity to the connection gauge.
func ConnectMongo(ctx context.Context, uri string, maxPool uint64) (*mongo.Client, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo uri is not set")
	}

	opts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(maxPool).
		SetPoolMonitor(poolMonitor())

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	return client, nil
}

func poolMonitor() *event.PoolMonitor {
	return &event.PoolMonitor{
		Event: func(evt *event.PoolEvent) {
			switch evt.Type {
			case event.ConnectionCreated:
				metrics.MongoConnections.Inc()
			case event.ConnectionClosed:
				metrics.MongoConnections.Dec()
			}
		},
	}
}
