package cart

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
)

// MongoItemStore keeps the cart_items collection in step with the
// session cart. One row per (user, product), enforced by a unique
// index.
type MongoItemStore struct {
	db *mongo.Database
}

func NewItemStore(db *mongo.Database) *MongoItemStore {
	return &MongoItemStore{db: db}
}

func (s *MongoItemStore) ListItems(ctx context.Context, userID primitive.ObjectID) ([]models.CartItem, error) {
	cursor, err := s.db.Collection("cart_items").Find(ctx, bson.M{"userId": userID})
	if err != nil {
		return nil, errors.Wrap(err, "list cart items")
	}
	defer cursor.Close(ctx)

	items := make([]models.CartItem, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, errors.Wrap(err, "decode cart items")
	}
	return items, nil
}

func (s *MongoItemStore) UpsertItem(ctx context.Context, userID, productID primitive.ObjectID, quantity int) error {
	filter := bson.M{"userId": userID, "productId": productID}
	update := bson.M{"$set": bson.M{
		"quantity":  quantity,
		"updatedAt": time.Now(),
	}}

	_, err := s.db.Collection("cart_items").UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return errors.Wrap(err, "upsert cart item")
}

// DeleteItemsExcept removes every row of the user whose product is not
// in keep. With an empty keep it clears the user's rows entirely.
func (s *MongoItemStore) DeleteItemsExcept(ctx context.Context, userID primitive.ObjectID, keep []primitive.ObjectID) error {
	filter := bson.M{
		"userId":    userID,
		"productId": bson.M{"$nin": keep},
	}
	_, err := s.db.Collection("cart_items").DeleteMany(ctx, filter)
	return errors.Wrap(err, "reconcile cart items")
}

func (s *MongoItemStore) ClearItems(ctx context.Context, userID primitive.ObjectID) error {
	_, err := s.db.Collection("cart_items").DeleteMany(ctx, bson.M{"userId": userID})
	return errors.Wrap(err, "clear cart items")
}
