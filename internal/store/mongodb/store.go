// Package mongodb implements the document store on MongoDB.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readconcern"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.mongodb.org/mongo-driver/v2/mongo/writeconcern"

	"github.com/digitalrsvp/rsvp-server/internal/domain"
	"github.com/digitalrsvp/rsvp-server/internal/store"
)

// BackendMongoDB is the name of the MongoDB backend.
const BackendMongoDB = "mongodb"

const connectTimeout = 10 * time.Second

// Store provides MongoDB-backed persistence.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	logger *slog.Logger

	Events      *Collection[domain.Event]
	Invitations *Collection[domain.Invitation]
	Guests      *Collection[domain.Guest]
}

// Open connects to MongoDB, verifies the connection and ensures indexes.
func Open(ctx context.Context, uri, dbName string, logger *slog.Logger) (*Store, error) {
	if dbName == "" {
		return nil, errors.New("missing database name")
	}

	opts := options.Client().ApplyURI(uri)
	opts.SetWriteConcern(writeconcern.Majority())
	opts.SetReadConcern(readconcern.Majority())
	opts.SetReadPreference(readpref.Primary())

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("could not connect to DB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("could not connect to MongoDB: %w", err)
	}

	db := client.Database(dbName)
	s := &Store{
		client:      client,
		db:          db,
		logger:      logger,
		Events:      newCollection[domain.Event](db.Collection(store.CollectionEvents)),
		Invitations: newCollection[domain.Invitation](db.Collection(store.CollectionInvitations)),
		Guests:      newCollection[domain.Guest](db.Collection(store.CollectionGuests)),
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	if logger != nil {
		logger.Info("MongoDB connected", "database", dbName)
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	indexes := []struct {
		coll  *mongo.Collection
		model mongo.IndexModel
	}{
		{s.Events.c, mongo.IndexModel{Keys: bson.D{{Key: store.FieldShareCode, Value: 1}}, Options: unique}},
		{s.Invitations.c, mongo.IndexModel{Keys: bson.D{{Key: store.FieldShareCode, Value: 1}}, Options: unique}},
		{s.Invitations.c, mongo.IndexModel{Keys: bson.D{{Key: store.FieldEventID, Value: 1}}}},
		{s.Guests.c, mongo.IndexModel{Keys: bson.D{{Key: store.FieldEventID, Value: 1}}}},
		{s.Guests.c, mongo.IndexModel{Keys: bson.D{{Key: store.FieldInvitationID, Value: 1}}}},
	}

	for _, idx := range indexes {
		if _, err := idx.coll.Indexes().CreateOne(ctx, idx.model); err != nil {
			return fmt.Errorf("could not create index on %s: %w", idx.coll.Name(), err)
		}
	}
	return nil
}

// Name implements store.Backend.
func (s *Store) Name() string { return BackendMongoDB }

// Collections implements store.Backend.
func (s *Store) Collections() *store.Collections {
	return &store.Collections{
		Events:      s.Events,
		Invitations: s.Invitations,
		Guests:      s.Guests,
	}
}

// Ping implements store.Backend.
func (s *Store) Ping(ctx context.Context) error {
	return mapError(s.client.Ping(ctx, readpref.Primary()))
}

// Close disconnects the client.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("Closing database connection")
	}
	return s.client.Disconnect(context.Background())
}

// Drop removes the whole database. Used by tests.
func (s *Store) Drop(ctx context.Context) error {
	return s.db.Drop(ctx)
}

// mapError translates driver errors into store errors.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return store.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return store.ErrAlreadyExists.WithCause(err)
	case mongo.IsNetworkError(err),
		mongo.IsTimeout(err),
		errors.Is(err, mongo.ErrClientDisconnected):
		return store.ErrUnavailable.WithCause(err)
	}
	return err
}
