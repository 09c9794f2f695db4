package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartItem mirrors one session cart line for an authenticated user so
// the cart survives logins and devices. Quantity is the only field the
// cart engine updates; the price snapshot lives in the session.
type CartItem struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
