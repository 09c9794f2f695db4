package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order status lifecycle. An order is created pending at checkout and
// only staff move it afterwards.
const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// OrderItem represents a single product entry within an order. Price is
// the unit price frozen when the line was added to the cart, not the
// live catalog price. ProductID goes nil if the product is later
// deleted.
type OrderItem struct {
	ProductID *primitive.ObjectID `bson:"productId" json:"productId"`
	Name      string              `bson:"name" json:"name"`
	Price     Money               `bson:"price" json:"price"`
	Quantity  int                 `bson:"quantity" json:"quantity"`
}

// LineTotal is the frozen unit price times the quantity.
func (i OrderItem) LineTotal() Money {
	return i.Price.MulQuantity(i.Quantity)
}

// OrderCustomer captures the contact details collected at checkout.
type OrderCustomer struct {
	FullName string `bson:"fullName" json:"fullName"`
	Phone    string `bson:"phone" json:"phone"`
	Address  string `bson:"address" json:"address"`
}

// Order defines the persisted order document. DiscountAmount is
// snapshotted at checkout and never recomputed, even if the coupon
// later changes.
type Order struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID         *primitive.ObjectID `bson:"userId" json:"userId"`
	Items          []OrderItem         `bson:"items" json:"items"`
	Customer       OrderCustomer       `bson:"customer" json:"customer"`
	TotalAmount    Money               `bson:"totalAmount" json:"totalAmount"`
	DeliveryFee    Money               `bson:"deliveryFee" json:"deliveryFee"`
	CouponID       *primitive.ObjectID `bson:"couponId,omitempty" json:"couponId,omitempty"`
	CouponCode     string              `bson:"couponCode,omitempty" json:"couponCode,omitempty"`
	DiscountAmount Money               `bson:"discountAmount" json:"discountAmount"`
	Status         string              `bson:"status" json:"status"`
	CreatedAt      time.Time           `bson:"createdAt" json:"createdAt"`
}

// Subtotal reconstructs the goods total before discount and delivery:
// totalAmount = subtotal - discountAmount + deliveryFee.
func (o Order) Subtotal() Money {
	return o.TotalAmount.Sub(o.DeliveryFee).Add(o.DiscountAmount)
}
