package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Coupon is a percentage discount code honored inside its validity
// window. Codes match case-insensitively.
type Coupon struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Code      string             `bson:"code" json:"code"`
	Discount  int                `bson:"discount" json:"discount"`
	Active    bool               `bson:"active" json:"active"`
	ValidFrom time.Time          `bson:"validFrom" json:"validFrom"`
	ValidTo   time.Time          `bson:"validTo" json:"validTo"`
}

// IsValidAt reports whether the coupon can be redeemed at the given
// time. Both window boundaries are inclusive.
func (c Coupon) IsValidAt(at time.Time) bool {
	return c.Active && !at.Before(c.ValidFrom) && !at.After(c.ValidTo)
}

// DiscountOn computes the amount this coupon takes off the given total.
func (c Coupon) DiscountOn(amount Money) Money {
	return NewMoney(amount.Decimal.
		Mul(decimal.NewFromInt(int64(c.Discount))).
		Div(decimal.NewFromInt(100)))
}
