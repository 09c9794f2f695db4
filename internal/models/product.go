package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product is a catalog item. Price is the base price; the storefront
// shows FinalPrice once the percentage discount is applied.
type Product struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CategoryID         primitive.ObjectID `bson:"categoryId" json:"categoryId"`
	Name               string             `bson:"name" json:"name"`
	Slug               string             `bson:"slug" json:"slug"`
	Description        string             `bson:"description,omitempty" json:"description,omitempty"`
	Price              Money              `bson:"price" json:"price"`
	DiscountPercentage int                `bson:"discountPercentage" json:"discountPercentage"`
	Stock              int                `bson:"stock" json:"stock"`
	MainImage          string             `bson:"mainImage,omitempty" json:"mainImage,omitempty"`
	IsActive           bool               `bson:"isActive" json:"isActive"`
	IsFeatured         bool               `bson:"isFeatured" json:"isFeatured"`
	InStock            bool               `bson:"-" json:"inStock"`
	CurrentPrice       Money              `bson:"-" json:"finalPrice"`
	CreatedAt          time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// FinalPrice applies the percentage discount to the base price. The
// discount is computed before rounding and the result is truncated to
// two decimal places, so FinalPrice never exceeds Price.
func (p Product) FinalPrice() Money {
	if p.DiscountPercentage <= 0 {
		return p.Price
	}
	discount := p.Price.Decimal.
		Mul(decimal.NewFromInt(int64(p.DiscountPercentage))).
		Div(decimal.NewFromInt(100))
	return NewMoney(p.Price.Decimal.Sub(discount))
}
