package models

import (
	"testing"
	"time"
)

func TestCouponWindowBoundariesAreInclusive(t *testing.T) {
	now := time.Now()
	coupon := Coupon{
		Active:    true,
		ValidFrom: now.Add(-time.Hour),
		ValidTo:   now,
	}

	if !coupon.IsValidAt(now) {
		t.Fatal("coupon with validTo == now must be valid")
	}

	coupon.ValidTo = now.Add(-time.Second)
	if coupon.IsValidAt(now) {
		t.Fatal("coupon expired one second ago must be invalid")
	}

	coupon.ValidFrom = now
	coupon.ValidTo = now.Add(time.Hour)
	if !coupon.IsValidAt(now) {
		t.Fatal("coupon with validFrom == now must be valid")
	}
}

func TestInactiveCouponNeverValid(t *testing.T) {
	now := time.Now()
	coupon := Coupon{
		Active:    false,
		ValidFrom: now.Add(-time.Hour),
		ValidTo:   now.Add(time.Hour),
	}
	if coupon.IsValidAt(now) {
		t.Fatal("inactive coupon must be invalid inside its window")
	}
}

func TestDiscountOn(t *testing.T) {
	coupon := Coupon{Discount: 10}
	if got := coupon.DiscountOn(money(t, "250.00")); got.String() != "25" {
		t.Fatalf("expected 25, got %s", got)
	}

	coupon.Discount = 0
	if got := coupon.DiscountOn(money(t, "250.00")); !got.IsZero() {
		t.Fatalf("expected zero discount, got %s", got)
	}
}
