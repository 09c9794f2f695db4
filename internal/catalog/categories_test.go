package catalog

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

func category(id primitive.ObjectID, parent *primitive.ObjectID) models.Category {
	return models.Category{ID: id, ParentID: parent}
}

func TestSubtreeIDsCollectsDescendants(t *testing.T) {
	root := primitive.NewObjectID()
	childA := primitive.NewObjectID()
	childB := primitive.NewObjectID()
	grandchild := primitive.NewObjectID()
	unrelated := primitive.NewObjectID()

	categories := []models.Category{
		category(root, nil),
		category(childA, &root),
		category(childB, &root),
		category(grandchild, &childA),
		category(unrelated, nil),
	}

	ids := SubtreeIDs(categories, root)
	if len(ids) != 4 {
		t.Fatalf("expected 4 ids, got %d", len(ids))
	}

	found := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		found[id] = true
	}
	for _, want := range []primitive.ObjectID{root, childA, childB, grandchild} {
		if !found[want] {
			t.Fatalf("missing id %s", want.Hex())
		}
	}
	if found[unrelated] {
		t.Fatal("unrelated root leaked into the subtree")
	}
}

func TestSubtreeIDsLeafOnly(t *testing.T) {
	leaf := primitive.NewObjectID()
	ids := SubtreeIDs([]models.Category{category(leaf, nil)}, leaf)
	if len(ids) != 1 || ids[0] != leaf {
		t.Fatalf("expected just the leaf, got %v", ids)
	}
}

func TestSubtreeIDsUnknownRoot(t *testing.T) {
	known := primitive.NewObjectID()
	unknown := primitive.NewObjectID()

	ids := SubtreeIDs([]models.Category{category(known, nil)}, unknown)
	if len(ids) != 1 || ids[0] != unknown {
		t.Fatalf("unknown root should still scope to itself, got %v", ids)
	}
}

func TestSubtreeIDsSurvivesCycle(t *testing.T) {
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()

	// a and b point at each other; the walk must still terminate.
	categories := []models.Category{
		category(a, &b),
		category(b, &a),
	}

	ids := SubtreeIDs(categories, a)
	if len(ids) != 2 {
		t.Fatalf("expected both cycle members exactly once, got %v", ids)
	}
}

func TestSubtreeIDsDeepChain(t *testing.T) {
	const depth = 50
	ids := make([]primitive.ObjectID, depth)
	categories := make([]models.Category, depth)
	for i := range ids {
		ids[i] = primitive.NewObjectID()
	}
	categories[0] = category(ids[0], nil)
	for i := 1; i < depth; i++ {
		categories[i] = category(ids[i], &ids[i-1])
	}

	got := SubtreeIDs(categories, ids[0])
	if len(got) != depth {
		t.Fatalf("expected %d ids, got %d", depth, len(got))
	}
}
