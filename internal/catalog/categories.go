package catalog

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/models"
)

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	cursor, err := s.db.Collection("categories").Find(ctx, bson.M{})
	if err != nil {
		return nil, errors.Wrap(err, "find categories")
	}
	defer cursor.Close(ctx)

	categories := make([]models.Category, 0)
	if err := cursor.All(ctx, &categories); err != nil {
		return nil, errors.Wrap(err, "decode categories")
	}
	return categories, nil
}

// RootCategories returns the top-level categories shown in navigation.
func (s *Store) RootCategories(ctx context.Context) ([]models.Category, error) {
	cursor, err := s.db.Collection("categories").Find(ctx, bson.M{"parentId": nil})
	if err != nil {
		return nil, errors.Wrap(err, "find root categories")
	}
	defer cursor.Close(ctx)

	categories := make([]models.Category, 0)
	if err := cursor.All(ctx, &categories); err != nil {
		return nil, errors.Wrap(err, "decode root categories")
	}
	return categories, nil
}

func (s *Store) CategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var category models.Category
	err := s.db.Collection("categories").FindOne(ctx, bson.M{"slug": slug}).Decode(&category)
	if err == mongo.ErrNoDocuments {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "find category")
	}
	return &category, nil
}

// ResolveCategorySubtree returns the ids of a category and all of its
// descendants, used to scope product listings.
func (s *Store) ResolveCategorySubtree(ctx context.Context, rootID primitive.ObjectID) ([]primitive.ObjectID, error) {
	categories, err := s.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	return SubtreeIDs(categories, rootID), nil
}

// SubtreeIDs walks the adjacency list breadth-first from rootID. The
// visited set bounds the walk, so a malformed parent chain that forms a
// cycle cannot loop it forever.
func SubtreeIDs(categories []models.Category, rootID primitive.ObjectID) []primitive.ObjectID {
	children := make(map[primitive.ObjectID][]primitive.ObjectID, len(categories))
	for _, category := range categories {
		if category.ParentID != nil {
			children[*category.ParentID] = append(children[*category.ParentID], category.ID)
		}
	}

	visited := make(map[primitive.ObjectID]bool)
	ids := make([]primitive.ObjectID, 0, 1)
	queue := []primitive.ObjectID{rootID}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true
		ids = append(ids, id)
		queue = append(queue, children[id]...)
	}

	return ids
}
