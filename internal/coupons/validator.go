package coupons

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
)

// ErrInvalidCoupon is returned for unknown, inactive or expired codes.
// The caller shows a rejection message; the shopper may retry.
var ErrInvalidCoupon = errors.New("invalid or expired coupon")

// Validator resolves discount codes. It is a pure lookup: session state
// stays with the caller.
type Validator struct {
	db *mongo.Database
}

func NewValidator(db *mongo.Database) *Validator {
	return &Validator{db: db}
}

// Validate matches the code case-insensitively and checks the active
// flag and the [validFrom, validTo] window, both ends inclusive.
func (v *Validator) Validate(ctx context.Context, code string, at time.Time) (*models.Coupon, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrInvalidCoupon
	}

	findOptions := options.FindOne().
		SetCollation(&options.Collation{Locale: "en", Strength: 2})

	var coupon models.Coupon
	err := v.db.Collection("coupons").FindOne(ctx, bson.M{"code": code}, findOptions).Decode(&coupon)
	if err == mongo.ErrNoDocuments {
		return nil, ErrInvalidCoupon
	}
	if err != nil {
		return nil, errors.Wrap(err, "find coupon")
	}

	if !coupon.IsValidAt(at) {
		return nil, ErrInvalidCoupon
	}
	return &coupon, nil
}

// CouponByID backs the cart's lazy re-validation. A coupon that no
// longer exists yields (nil, nil): the cart fails open to "no discount"
// instead of erroring.
func (v *Validator) CouponByID(ctx context.Context, id primitive.ObjectID) (*models.Coupon, error) {
	var coupon models.Coupon
	err := v.db.Collection("coupons").FindOne(ctx, bson.M{"_id": id}).Decode(&coupon)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "find coupon by id")
	}
	return &coupon, nil
}
