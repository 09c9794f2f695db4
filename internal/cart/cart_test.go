package cart

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/catalog"
	"storefront/internal/models"
	"storefront/internal/session"
)

// --- fakes ---

type fakeCatalog struct {
	products map[primitive.ObjectID]models.Product
}

func (f *fakeCatalog) ProductByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	product, ok := f.products[id]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	return &product, nil
}

func (f *fakeCatalog) ProductsByID(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error) {
	result := make(map[primitive.ObjectID]models.Product)
	for _, id := range ids {
		if product, ok := f.products[id]; ok {
			result[id] = product
		}
	}
	return result, nil
}

type fakeCoupons struct {
	coupons map[primitive.ObjectID]models.Coupon
}

func (f *fakeCoupons) CouponByID(_ context.Context, id primitive.ObjectID) (*models.Coupon, error) {
	coupon, ok := f.coupons[id]
	if !ok {
		return nil, nil
	}
	return &coupon, nil
}

type fakeItemStore struct {
	rows       map[primitive.ObjectID]int
	clearCalls int
}

func newFakeItemStore() *fakeItemStore {
	return &fakeItemStore{rows: make(map[primitive.ObjectID]int)}
}

func (f *fakeItemStore) ListItems(_ context.Context, userID primitive.ObjectID) ([]models.CartItem, error) {
	items := make([]models.CartItem, 0, len(f.rows))
	for productID, quantity := range f.rows {
		items = append(items, models.CartItem{UserID: userID, ProductID: productID, Quantity: quantity})
	}
	return items, nil
}

func (f *fakeItemStore) UpsertItem(_ context.Context, _, productID primitive.ObjectID, quantity int) error {
	f.rows[productID] = quantity
	return nil
}

func (f *fakeItemStore) DeleteItemsExcept(_ context.Context, _ primitive.ObjectID, keep []primitive.ObjectID) error {
	keepSet := make(map[primitive.ObjectID]bool, len(keep))
	for _, id := range keep {
		keepSet[id] = true
	}
	for id := range f.rows {
		if !keepSet[id] {
			delete(f.rows, id)
		}
	}
	return nil
}

func (f *fakeItemStore) ClearItems(_ context.Context, _ primitive.ObjectID) error {
	f.rows = make(map[primitive.ObjectID]int)
	f.clearCalls++
	return nil
}

// --- helpers ---

func mustMoney(t *testing.T, value string) models.Money {
	t.Helper()
	m, err := models.MoneyFromString(value)
	require.NoError(t, err)
	return m
}

func testProduct(t *testing.T, price string) models.Product {
	t.Helper()
	return models.Product{
		ID:       primitive.NewObjectID(),
		Name:     "منتج " + price,
		Slug:     "product-" + price,
		Price:    mustMoney(t, price),
		Stock:    100,
		IsActive: true,
	}
}

func guestCart(t *testing.T, cat *fakeCatalog, coup *fakeCoupons) *Cart {
	t.Helper()
	c, err := New(context.Background(), session.New("test"), nil, cat, coup, nil)
	require.NoError(t, err)
	return c
}

// --- tests ---

func TestAddIncrementsThenReplaces(t *testing.T) {
	productA := testProduct(t, "100.00")
	cat := &fakeCatalog{products: map[primitive.ObjectID]models.Product{productA.ID: productA}}
	c := guestCart(t, cat, &fakeCoupons{})
	ctx := context.Background()

	require.NoError(t, c.Add(ctx, &productA, 2, false))
	require.NoError(t, c.Add(ctx, &productA, 3, false))
	assert.Equal(t, 5, c.Len())

	require.NoError(t, c.Add(ctx, &productA, 1, true))
	assert.Equal(t, 1, c.Len())
}

func TestRemoveIsNoOpWhenAbsent(t *testing.T) {
	c := guestCart(t, &fakeCatalog{}, &fakeCoupons{})
	sessBefore := c.sess.Dirty()

	require.NoError(t, c.Remove(context.Background(), primitive.NewObjectID()))
	assert.Equal(t, sessBefore, c.sess.Dirty(), "removing a missing line must not dirty the session")
}

func TestPriceSnapshotStability(t *testing.T) {
	productA := testProduct(t, "100.00")
	cat := &fakeCatalog{products: map[primitive.ObjectID]models.Product{productA.ID: productA}}
	c := guestCart(t, cat, &fakeCoupons{})
	ctx := context.Background()

	require.NoError(t, c.Add(ctx, &productA, 2, false))
	assert.True(t, c.Subtotal().Equal(mustMoney(t, "200.00")))

	// A live price change must not move the subtotal.
	updated := productA
	updated.Price = mustMoney(t, "150.00")
	cat.products[productA.ID] = updated

	require.NoError(t, c.Add(ctx, &updated, 1, false))
	assert.True(t, c.Subtotal().Equal(mustMoney(t, "300.00")),
		"existing line keeps its snapshot price, got %s", c.Subtotal())

	// Re-adding after removal picks up the new price.
	require.NoError(t, c.Remove(ctx, productA.ID))
	require.NoError(t, c.Add(ctx, &updated, 1, false))
	assert.True(t, c.Subtotal().Equal(mustMoney(t, "150.00")))
}

func TestMergePrefersSessionOnConflict(t *testing.T) {
	productA := testProduct(t, "100.00")
	productB := testProduct(t, "50.00")
	cat := &fakeCatalog{products: map[primitive.ObjectID]models.Product{
		productA.ID: productA,
		productB.ID: productB,
	}}
	userID := primitive.NewObjectID()
	ctx := context.Background()

	// Anonymous session already holds product A at quantity 3.
	sess := session.New("test")
	anon, err := New(ctx, sess, nil, cat, &fakeCoupons{}, nil)
	require.NoError(t, err)
	require.NoError(t, anon.Add(ctx, &productA, 3, false))

	// The user's stored cart says A=5 and B=2.
	items := newFakeItemStore()
	items.rows[productA.ID] = 5
	items.rows[productB.ID] = 2

	merged, err := New(ctx, sess, &userID, cat, &fakeCoupons{}, items)
	require.NoError(t, err)

	views, err := merged.Items(ctx)
	require.NoError(t, err)
	require.Len(t, views, 2)

	quantities := map[primitive.ObjectID]int{}
	for _, view := range views {
		quantities[view.Product.ID] = view.Quantity
	}
	assert.Equal(t, 3, quantities[productA.ID], "session quantity must win")
	assert.Equal(t, 2, quantities[productB.ID], "stored-only line must be added")

	// The merge syncs the winning state back to the rows.
	assert.Equal(t, 3, items.rows[productA.ID])
}

func TestMergeIsIdempotent(t *testing.T) {
	productA := testProduct(t, "100.00")
	cat := &fakeCatalog{products: map[primitive.ObjectID]models.Product{productA.ID: productA}}
	userID := primitive.NewObjectID()
	ctx := context.Background()

	items := newFakeItemStore()
	items.rows[productA.ID] = 2

	sess := session.New("test")
	first, err := New(ctx, sess, &userID, cat, &fakeCoupons{}, items)
	require.NoError(t, err)
	firstLen := first.Len()
	firstSubtotal := first.Subtotal()

	second, err := New(ctx, sess, &userID, cat, &fakeCoupons{}, items)
	require.NoError(t, err)

	assert.Equal(t, firstLen, second.Len())
	assert.True(t, firstSubtotal.Equal(second.Subtotal()))
}

func TestMergeSkipsVanishedProducts(t *testing.T) {
	cat := &fakeCatalog{products: map[primitive.ObjectID]models.Product{}}
	userID := primitive.NewObjectID()

	items := newFakeItemStore()
	items.rows[primitive.NewObjectID()] = 4

	c, err := New(context.Background(), session.New("test"), &userID, cat, &fakeCoupons{}, items)
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
	assert.Empty(t, items.rows, "row for a vanished product must be deleted")
}

func TestMergeReconcilesStoredQuantityConflict(t *testing.T) {
	productA := testProduct(t, "100.00")
	cat := &fakeCatalog{products: map[primitive.ObjectID]models.Product{productA.ID: productA}}
	userID := primitive.NewObjectID()
	ctx := context.Background()

	// The session says 3, the stored row says 5 and nothing else
	// differs. The row must still follow the session immediately.
	sess := session.New("test")
	anon, err := New(ctx, sess, nil, cat, &fakeCoupons{}, nil)
	require.NoError(t, err)
	require.NoError(t, anon.Add(ctx, &productA, 3, false))

	items := newFakeItemStore()
	items.rows[productA.ID] = 5

	merged, err := New(ctx, sess, &userID, cat, &fakeCoupons{}, items)
	require.NoError(t, err)

	assert.Equal(t, 3, merged.Len())
	assert.Equal(t, 3, items.rows[productA.ID],
		"stored row must be reconciled to the session quantity")
}

func TestMergePersistsSessionOnlyLines(t *testing.T) {
	productA := testProduct(t, "100.00")
	cat := &fakeCatalog{products: map[primitive.ObjectID]models.Product{productA.ID: productA}}
	userID := primitive.NewObjectID()
	ctx := context.Background()

	sess := session.New("test")
	anon, err := New(ctx, sess, nil, cat, &fakeCoupons{}, nil)
	require.NoError(t, err)
	require.NoError(t, anon.Add(ctx, &productA, 2, false))

	items := newFakeItemStore()
	_, err = New(ctx, sess, &userID, cat, &fakeCoupons{}, items)
	require.NoError(t, err)

	assert.Equal(t, 2, items.rows[productA.ID],
		"anonymous lines must be persisted on login")
}

func TestSubtotalDiscountTotal(t *testing.T) {
	productA := testProduct(t, "100.00")
	productB := testProduct(t, "50.00")
	cat := &fakeCatalog{products: map[primitive.ObjectID]models.Product{
		productA.ID: productA,
		productB.ID: productB,
	}}

	coupon := models.Coupon{
		ID:        primitive.NewObjectID(),
		Code:      "SAVE10",
		Discount:  10,
		Active:    true,
		ValidFrom: time.Now().Add(-time.Hour),
		ValidTo:   time.Now().Add(time.Hour),
	}
	coup := &fakeCoupons{coupons: map[primitive.ObjectID]models.Coupon{coupon.ID: coupon}}

	c := guestCart(t, cat, coup)
	ctx := context.Background()

	require.NoError(t, c.Add(ctx, &productA, 2, false))
	require.NoError(t, c.Add(ctx, &productB, 1, false))

	assert.True(t, c.Subtotal().Equal(mustMoney(t, "250.00")))

	discount, err := c.Discount(ctx)
	require.NoError(t, err)
	assert.True(t, discount.IsZero(), "no coupon applied yet")

	c.ApplyCoupon(&coupon)

	discount, err = c.Discount(ctx)
	require.NoError(t, err)
	assert.True(t, discount.Equal(mustMoney(t, "25.00")), "got %s", discount)

	total, err := c.Total(ctx)
	require.NoError(t, err)
	assert.True(t, total.Equal(mustMoney(t, "225.00")), "got %s", total)
}

func TestDiscountMonotonicity(t *testing.T) {
	productA := testProduct(t, "33.33")
	cat := &fakeCatalog{products: map[primitive.ObjectID]models.Product{productA.ID: productA}}
	ctx := context.Background()
	tolerance := decimal.NewFromFloat(0.01)

	for d := 0; d <= 100; d++ {
		coupon := models.Coupon{
			ID:        primitive.NewObjectID(),
			Discount:  d,
			Active:    true,
			ValidFrom: time.Now().Add(-time.Hour),
			ValidTo:   time.Now().Add(time.Hour),
		}
		coup := &fakeCoupons{coupons: map[primitive.ObjectID]models.Coupon{coupon.ID: coupon}}

		c := guestCart(t, cat, coup)
		require.NoError(t, c.Add(ctx, &productA, 3, false))
		c.ApplyCoupon(&coupon)

		total, err := c.Total(ctx)
		require.NoError(t, err)

		expected := c.Subtotal().Decimal.
			Mul(decimal.NewFromInt(int64(100 - d))).
			Div(decimal.NewFromInt(100))
		diff := expected.Sub(total.Decimal).Abs()
		assert.True(t, diff.LessThanOrEqual(tolerance),
			"discount %d%%: total %s, expected about %s", d, total, expected)
	}
}

func TestActiveCouponFailsOpen(t *testing.T) {
	coup := &fakeCoupons{}
	c := guestCart(t, &fakeCatalog{}, coup)

	// Stored coupon id that no longer resolves.
	c.sess.Set("couponId", primitive.NewObjectID().Hex())

	coupon, err := c.ActiveCoupon(context.Background())
	require.NoError(t, err)
	assert.Nil(t, coupon)

	discount, err := c.Discount(context.Background())
	require.NoError(t, err)
	assert.True(t, discount.IsZero())
}

func TestActiveCouponDropsExpired(t *testing.T) {
	expired := models.Coupon{
		ID:        primitive.NewObjectID(),
		Discount:  20,
		Active:    true,
		ValidFrom: time.Now().Add(-2 * time.Hour),
		ValidTo:   time.Now().Add(-time.Hour),
	}
	coup := &fakeCoupons{coupons: map[primitive.ObjectID]models.Coupon{expired.ID: expired}}

	c := guestCart(t, &fakeCatalog{}, coup)
	c.ApplyCoupon(&expired)

	coupon, err := c.ActiveCoupon(context.Background())
	require.NoError(t, err)
	assert.Nil(t, coupon, "expired coupon must fail open to no discount")
}

func TestSyncReconcilesRemovedLines(t *testing.T) {
	productA := testProduct(t, "100.00")
	productB := testProduct(t, "50.00")
	cat := &fakeCatalog{products: map[primitive.ObjectID]models.Product{
		productA.ID: productA,
		productB.ID: productB,
	}}
	userID := primitive.NewObjectID()
	items := newFakeItemStore()
	ctx := context.Background()

	c, err := New(ctx, session.New("test"), &userID, cat, &fakeCoupons{}, items)
	require.NoError(t, err)

	require.NoError(t, c.Add(ctx, &productA, 1, false))
	require.NoError(t, c.Add(ctx, &productB, 2, false))
	assert.Len(t, items.rows, 2)

	require.NoError(t, c.Remove(ctx, productA.ID))
	assert.Len(t, items.rows, 1)
	assert.Equal(t, 2, items.rows[productB.ID])
}

func TestClearEmptiesEverything(t *testing.T) {
	productA := testProduct(t, "100.00")
	cat := &fakeCatalog{products: map[primitive.ObjectID]models.Product{productA.ID: productA}}
	userID := primitive.NewObjectID()
	items := newFakeItemStore()
	ctx := context.Background()

	coupon := models.Coupon{ID: primitive.NewObjectID(), Discount: 5, Active: true,
		ValidFrom: time.Now().Add(-time.Hour), ValidTo: time.Now().Add(time.Hour)}

	c, err := New(ctx, session.New("test"), &userID, cat, &fakeCoupons{}, items)
	require.NoError(t, err)
	require.NoError(t, c.Add(ctx, &productA, 2, false))
	c.ApplyCoupon(&coupon)

	require.NoError(t, c.Clear(ctx))

	assert.Equal(t, 0, c.Len())
	assert.True(t, c.Subtotal().IsZero())
	assert.Equal(t, 1, items.clearCalls)

	active, err := c.ActiveCoupon(ctx)
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestItemsIsRestartable(t *testing.T) {
	productA := testProduct(t, "100.00")
	cat := &fakeCatalog{products: map[primitive.ObjectID]models.Product{productA.ID: productA}}
	c := guestCart(t, cat, &fakeCoupons{})
	ctx := context.Background()

	require.NoError(t, c.Add(ctx, &productA, 1, false))

	first, err := c.Items(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)

	require.NoError(t, c.Add(ctx, &productA, 1, false))

	second, err := c.Items(ctx)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, 2, second[0].Quantity, "iteration re-reads current state")
}
