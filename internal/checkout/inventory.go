package checkout

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/models"
)

// MongoInventory runs the checkout's stock reads and writes against the
// products and orders collections.
type MongoInventory struct {
	db *mongo.Database
}

func NewInventory(db *mongo.Database) *MongoInventory {
	return &MongoInventory{db: db}
}

func (s *MongoInventory) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := s.db.Client().StartSession()
	if err != nil {
		return errors.Wrap(err, "start transaction session")
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
}

// ProductForUpdate reads a line's product inside the transaction. A
// missing or deactivated product comes back as (nil, nil).
func (s *MongoInventory) ProductForUpdate(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var product models.Product
	err := s.db.Collection("products").FindOne(ctx, bson.M{
		"_id":      id,
		"isActive": bson.M{"$ne": false},
	}).Decode(&product)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "load product for checkout")
	}
	return &product, nil
}

// DecrementStock applies the conditional decrement. A false return
// means the stock guard rejected the update.
func (s *MongoInventory) DecrementStock(ctx context.Context, id primitive.ObjectID, quantity int) (bool, error) {
	res, err := s.db.Collection("products").UpdateOne(
		ctx,
		decrementFilter(id, quantity),
		decrementUpdate(quantity),
	)
	if err != nil {
		return false, errors.Wrap(err, "decrement stock")
	}
	return res.MatchedCount > 0, nil
}

func (s *MongoInventory) InsertOrder(ctx context.Context, order models.Order) (primitive.ObjectID, error) {
	res, err := s.db.Collection("orders").InsertOne(ctx, order)
	if err != nil {
		return primitive.NilObjectID, errors.Wrap(err, "insert order")
	}
	id, _ := res.InsertedID.(primitive.ObjectID)
	return id, nil
}

func decrementFilter(productID primitive.ObjectID, quantity int) bson.M {
	return bson.M{
		"_id":      productID,
		"isActive": bson.M{"$ne": false},
		"stock":    bson.M{"$gte": quantity},
	}
}

func decrementUpdate(quantity int) bson.M {
	return bson.M{"$inc": bson.M{"stock": -quantity}}
}
