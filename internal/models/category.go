package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category is a node in the category tree. A nil ParentID marks a root
// category; the data model forbids cycles but traversal guards against
// them anyway.
type Category struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name      string              `bson:"name" json:"name"`
	Slug      string              `bson:"slug" json:"slug"`
	ParentID  *primitive.ObjectID `bson:"parentId,omitempty" json:"parentId,omitempty"`
	Image     string              `bson:"image,omitempty" json:"image,omitempty"`
	CreatedAt time.Time           `bson:"createdAt" json:"createdAt"`
}
