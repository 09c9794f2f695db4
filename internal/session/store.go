package session

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store persists visitor sessions in the sessions collection. A TTL
// index on expiresAt reaps abandoned carts.
type Store struct {
	db  *mongo.Database
	ttl time.Duration
}

type sessionDocument struct {
	ID        string    `bson:"_id"`
	Values    bson.M    `bson:"values"`
	UpdatedAt time.Time `bson:"updatedAt"`
	ExpiresAt time.Time `bson:"expiresAt"`
}

func NewStore(db *mongo.Database, ttl time.Duration) *Store {
	return &Store{db: db, ttl: ttl}
}

// Load returns the stored session, or a fresh clean one when the id is
// unknown or expired.
func (s *Store) Load(ctx context.Context, id string) (*Session, error) {
	var doc sessionDocument
	err := s.db.Collection("sessions").FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return New(id), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "load session")
	}

	sess := New(id)
	if doc.Values != nil {
		sess.values = doc.Values
	}
	return sess, nil
}

// Save writes the session back and resets its dirty flag.
func (s *Store) Save(ctx context.Context, sess *Session) error {
	now := time.Now()
	doc := sessionDocument{
		ID:        sess.ID,
		Values:    sess.values,
		UpdatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	_, err := s.db.Collection("sessions").ReplaceOne(
		ctx,
		bson.M{"_id": sess.ID},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return errors.Wrap(err, "save session")
	}

	sess.dirty = false
	return nil
}
