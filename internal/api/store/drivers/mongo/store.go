// Package mongo implements the store contract on MongoDB. Documents use the
// app-generated ULID as their _id, so ids stay opaque strings end to end.
package mongo

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	mdb "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nidohq/nido/internal/api/store"
)

const connectTimeout = 10 * time.Second

type Store struct {
	client *mdb.Client
	db     *mdb.Database
}

func NewStore(ctx context.Context, uri, dbName string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mdb.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	return &Store{
		client: client,
		db:     client.Database(dbName),
	}, nil
}

func (s *Store) Users() store.Users       { return &usersRepo{col: s.db.Collection("users")} }
func (s *Store) Listings() store.Listings { return &listingsRepo{col: s.db.Collection("listings")} }

// EnsureIndexes creates the unique indexes the auth flows rely on. google_id
// is sparse so password-only accounts don't collide on the empty value.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	users := s.db.Collection("users")
	_, err := users.Indexes().CreateMany(ctx, []mdb.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_email"),
		},
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_username"),
		},
		{
			Keys:    bson.D{{Key: "google_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true).SetName("uniq_google_id"),
		},
	})
	if err != nil {
		return err
	}

	listings := s.db.Collection("listings")
	_, err = listings.Indexes().CreateMany(ctx, []mdb.IndexModel{
		{
			Keys:    bson.D{{Key: "owner_ref", Value: 1}},
			Options: options.Index().SetName("idx_owner_ref"),
		},
		{
			Keys:    bson.D{{Key: "name", Value: "text"}, {Key: "description", Value: "text"}},
			Options: options.Index().SetName("txt_name_description"),
		},
	})
	return err
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// duplicateField extracts the colliding index field from a mongo duplicate
// key error (code 11000), or "" when err is not a duplicate.
func duplicateField(err error) string {
	if !mdb.IsDuplicateKeyError(err) {
		return ""
	}
	var we mdb.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			switch {
			case strings.Contains(e.Message, "uniq_email"):
				return "email"
			case strings.Contains(e.Message, "uniq_username"):
				return "username"
			case strings.Contains(e.Message, "uniq_google_id"):
				return "google_id"
			}
		}
	}
	return "email"
}
