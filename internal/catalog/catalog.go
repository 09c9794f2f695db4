package catalog

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

// ErrProductNotFound is returned when a product does not exist or is no
// longer active.
var ErrProductNotFound = errors.New("product not found")

// ErrCategoryNotFound is returned when a category does not exist.
var ErrCategoryNotFound = errors.New("category not found")

// Store provides read-only access to products and categories.
type Store struct {
	db *mongo.Database
}

func NewStore(db *mongo.Database) *Store {
	return &Store{db: db}
}

// ProductFilters narrows ListProducts. CategoryIDs usually comes from a
// resolved category subtree.
type ProductFilters struct {
	CategoryIDs []primitive.ObjectID
	Search      string
	OffersOnly  bool
}

func activeProductFilter() bson.M {
	return bson.M{"isActive": bson.M{"$ne": false}}
}

// decorate fills the derived display fields after decoding.
func decorate(p *models.Product) {
	p.InStock = p.Stock > 0
	p.CurrentPrice = p.FinalPrice()
}

func (s *Store) ProductByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	filter := activeProductFilter()
	filter["_id"] = id
	return s.findProduct(ctx, filter)
}

func (s *Store) ProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	filter := activeProductFilter()
	filter["slug"] = slug
	return s.findProduct(ctx, filter)
}

func (s *Store) findProduct(ctx context.Context, filter bson.M) (*models.Product, error) {
	var product models.Product
	err := s.db.Collection("products").FindOne(ctx, filter).Decode(&product)
	if err == mongo.ErrNoDocuments {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "find product")
	}
	decorate(&product)
	return &product, nil
}

// ProductsByID bulk-loads products for a cart join. Missing or inactive
// products are simply absent from the result.
func (s *Store) ProductsByID(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error) {
	result := make(map[primitive.ObjectID]models.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	filter := activeProductFilter()
	filter["_id"] = bson.M{"$in": ids}

	cursor, err := s.db.Collection("products").Find(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "find products by id")
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var product models.Product
		if err := cursor.Decode(&product); err != nil {
			return nil, errors.Wrap(err, "decode product")
		}
		decorate(&product)
		result[product.ID] = product
	}
	if err := cursor.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate products")
	}
	return result, nil
}

// ListProducts returns active products matching the filters, newest
// first, plus the total count before pagination.
func (s *Store) ListProducts(ctx context.Context, filters ProductFilters, skip, limit int64) ([]models.Product, int64, error) {
	filter := activeProductFilter()
	if len(filters.CategoryIDs) > 0 {
		filter["categoryId"] = bson.M{"$in": filters.CategoryIDs}
	}
	if filters.Search != "" {
		filter["name"] = bson.M{"$regex": filters.Search, "$options": "i"}
	}

	sort := bson.D{{Key: "createdAt", Value: -1}}
	if filters.OffersOnly {
		filter["discountPercentage"] = bson.M{"$gt": 0}
		sort = bson.D{{Key: "discountPercentage", Value: -1}}
	}

	collection := s.db.Collection("products")

	total, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, errors.Wrap(err, "count products")
	}

	findOptions := options.Find().SetSort(sort)
	if limit > 0 {
		findOptions.SetSkip(skip).SetLimit(limit)
	}

	cursor, err := collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, errors.Wrap(err, "find products")
	}
	defer cursor.Close(ctx)

	products := make([]models.Product, 0)
	for cursor.Next(ctx) {
		var product models.Product
		if err := cursor.Decode(&product); err != nil {
			return nil, 0, errors.Wrap(err, "decode product")
		}
		decorate(&product)
		products = append(products, product)
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, errors.Wrap(err, "iterate products")
	}

	return products, total, nil
}

// FeaturedProducts feeds the homepage slider.
func (s *Store) FeaturedProducts(ctx context.Context, limit int64) ([]models.Product, error) {
	filter := activeProductFilter()
	filter["isFeatured"] = true

	findOptions := options.Find().
		SetSort(bson.D{{Key: "updatedAt", Value: -1}}).
		SetLimit(limit)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := s.db.Collection("products").Find(ctx, filter, findOptions)
	if err != nil {
		return nil, errors.Wrap(err, "find featured products")
	}
	defer cursor.Close(ctx)

	products := make([]models.Product, 0)
	if err := cursor.All(ctx, &products); err != nil {
		return nil, errors.Wrap(err, "decode featured products")
	}
	for i := range products {
		decorate(&products[i])
	}
	return products, nil
}
