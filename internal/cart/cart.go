package cart

import (
	"context"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/session"
)

const (
	sessionKeyLines  = "cart"
	sessionKeyCoupon = "couponId"
)

// Line is one session cart entry: a quantity plus the unit price frozen
// when the product was added. The price is deliberately not re-fetched
// from the catalog afterwards.
type Line struct {
	Quantity  int
	UnitPrice models.Money
}

// ItemView is an enriched line joined against the catalog.
type ItemView struct {
	Product   models.Product
	Quantity  int
	UnitPrice models.Money
	LineTotal models.Money
}

// ProductFinder is the slice of the catalog the cart needs.
type ProductFinder interface {
	ProductByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	ProductsByID(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error)
}

// CouponFinder resolves the session's stored coupon id. A missing
// coupon comes back as (nil, nil).
type CouponFinder interface {
	CouponByID(ctx context.Context, id primitive.ObjectID) (*models.Coupon, error)
}

// ItemStore mirrors the cart for authenticated users.
type ItemStore interface {
	ListItems(ctx context.Context, userID primitive.ObjectID) ([]models.CartItem, error)
	UpsertItem(ctx context.Context, userID, productID primitive.ObjectID, quantity int) error
	DeleteItemsExcept(ctx context.Context, userID primitive.ObjectID, keep []primitive.ObjectID) error
	ClearItems(ctx context.Context, userID primitive.ObjectID) error
}

// Cart presents one unified view of a shopper's line items regardless
// of authentication state. After New returns, the session is the source
// of truth; the persisted rows follow it.
type Cart struct {
	sess    *session.Session
	userID  *primitive.ObjectID
	lines   map[string]Line
	catalog ProductFinder
	coupons CouponFinder
	items   ItemStore
	now     func() time.Time
}

// New builds the cart from the session. For an authenticated user any
// persisted lines are merged in first: the session wins on conflict, so
// quantity edits made while anonymous survive the login.
func New(ctx context.Context, sess *session.Session, userID *primitive.ObjectID, catalog ProductFinder, coupons CouponFinder, items ItemStore) (*Cart, error) {
	c := &Cart{
		sess:    sess,
		userID:  userID,
		lines:   make(map[string]Line),
		catalog: catalog,
		coupons: coupons,
		items:   items,
		now:     time.Now,
	}

	if raw, ok := sess.Get(sessionKeyLines); ok {
		c.lines = decodeLines(raw)
	}

	if userID != nil {
		if err := c.mergePersisted(ctx); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// mergePersisted unions the user's stored cart rows into the session:
// entries missing from the session are added at the product's current
// final price, existing entries keep their session quantity. Any drift
// between the stored rows and the merged result is reconciled right
// away, so a stale row can never resurrect an old quantity on a later
// login.
func (c *Cart) mergePersisted(ctx context.Context) error {
	stored, err := c.items.ListItems(ctx, *c.userID)
	if err != nil {
		return err
	}

	added := 0
	drift := false
	storedQuantities := make(map[string]int, len(stored))
	for _, item := range stored {
		key := item.ProductID.Hex()
		storedQuantities[key] = item.Quantity
		if _, ok := c.lines[key]; ok {
			continue
		}
		product, err := c.catalog.ProductByID(ctx, item.ProductID)
		if err != nil {
			// Product gone or deactivated since it was stored; the row
			// has to go.
			drift = true
			continue
		}
		c.lines[key] = Line{Quantity: item.Quantity, UnitPrice: product.FinalPrice()}
		added++
	}

	for key, line := range c.lines {
		if quantity, ok := storedQuantities[key]; !ok || quantity != line.Quantity {
			drift = true
			break
		}
	}

	if added == 0 && !drift {
		return nil
	}
	return c.save(ctx)
}

// Add puts quantity units of the product in the cart. With replace the
// quantity is set outright, otherwise it increments the existing line.
// The unit price snapshot is taken only when the line first appears.
func (c *Cart) Add(ctx context.Context, product *models.Product, quantity int, replace bool) error {
	key := product.ID.Hex()
	line, ok := c.lines[key]
	if !ok {
		line = Line{UnitPrice: product.FinalPrice()}
	}

	if replace {
		line.Quantity = quantity
	} else {
		line.Quantity += quantity
	}
	c.lines[key] = line

	return c.save(ctx)
}

// Remove deletes the line entirely; it is a no-op when absent.
func (c *Cart) Remove(ctx context.Context, productID primitive.ObjectID) error {
	key := productID.Hex()
	if _, ok := c.lines[key]; !ok {
		return nil
	}
	delete(c.lines, key)
	return c.save(ctx)
}

// Items re-reads the current lines and joins them against the catalog.
// Lines whose product has vanished are skipped, not errored.
func (c *Cart) Items(ctx context.Context) ([]ItemView, error) {
	ids := make([]primitive.ObjectID, 0, len(c.lines))
	for key := range c.lines {
		id, err := primitive.ObjectIDFromHex(key)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}

	products, err := c.catalog.ProductsByID(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]ItemView, 0, len(c.lines))
	for key, line := range c.lines {
		id, err := primitive.ObjectIDFromHex(key)
		if err != nil {
			continue
		}
		product, ok := products[id]
		if !ok {
			continue
		}
		views = append(views, ItemView{
			Product:   product,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			LineTotal: line.UnitPrice.MulQuantity(line.Quantity),
		})
	}

	sort.Slice(views, func(i, j int) bool {
		return views[i].Product.Name < views[j].Product.Name
	})
	return views, nil
}

// Len is the total unit count, not the number of distinct products.
func (c *Cart) Len() int {
	total := 0
	for _, line := range c.lines {
		total += line.Quantity
	}
	return total
}

// Subtotal sums the snapshotted unit prices, never live catalog prices.
func (c *Cart) Subtotal() models.Money {
	var subtotal models.Money
	for _, line := range c.lines {
		subtotal = subtotal.Add(line.UnitPrice.MulQuantity(line.Quantity))
	}
	return subtotal
}

// ApplyCoupon stores the coupon reference in the session. Validation
// happened in the caller; ActiveCoupon re-checks on every read anyway.
func (c *Cart) ApplyCoupon(coupon *models.Coupon) {
	c.sess.Set(sessionKeyCoupon, coupon.ID.Hex())
}

func (c *Cart) RemoveCoupon() {
	c.sess.Delete(sessionKeyCoupon)
}

// ActiveCoupon lazily re-validates the stored coupon. A coupon that no
// longer exists or is no longer redeemable yields nil: the cart fails
// open to "no discount" rather than erroring.
func (c *Cart) ActiveCoupon(ctx context.Context) (*models.Coupon, error) {
	raw, ok := c.sess.Get(sessionKeyCoupon)
	if !ok {
		return nil, nil
	}
	hex, ok := raw.(string)
	if !ok {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return nil, nil
	}

	coupon, err := c.coupons.CouponByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if coupon == nil || !coupon.IsValidAt(c.now()) {
		return nil, nil
	}
	return coupon, nil
}

// Discount is coupon.discount% of the subtotal, or zero without an
// active coupon.
func (c *Cart) Discount(ctx context.Context) (models.Money, error) {
	coupon, err := c.ActiveCoupon(ctx)
	if err != nil {
		return models.Money{}, err
	}
	if coupon == nil {
		return models.Money{}, nil
	}
	return coupon.DiscountOn(c.Subtotal()), nil
}

// Total is the subtotal minus the discount. The delivery fee is added
// later, at checkout.
func (c *Cart) Total(ctx context.Context) (models.Money, error) {
	discount, err := c.Discount(ctx)
	if err != nil {
		return models.Money{}, err
	}
	return c.Subtotal().Sub(discount), nil
}

// Clear removes all lines and the coupon reference, and for an
// authenticated user deletes the persisted rows too.
func (c *Cart) Clear(ctx context.Context) error {
	c.lines = make(map[string]Line)
	c.sess.Delete(sessionKeyLines)
	c.sess.Delete(sessionKeyCoupon)
	c.sess.MarkDirty()

	if c.userID == nil {
		return nil
	}
	return c.items.ClearItems(ctx, *c.userID)
}

// save writes the lines into the session and, for an authenticated
// user, reconciles the persisted rows in full: present lines are
// upserted, absent ones deleted. Persisted state never drifts from the
// session this way, at the cost of touching every row per save.
func (c *Cart) save(ctx context.Context) error {
	c.sess.Set(sessionKeyLines, encodeLines(c.lines))

	if c.userID == nil {
		return nil
	}

	keep := make([]primitive.ObjectID, 0, len(c.lines))
	for key, line := range c.lines {
		productID, err := primitive.ObjectIDFromHex(key)
		if err != nil {
			continue
		}
		if err := c.items.UpsertItem(ctx, *c.userID, productID, line.Quantity); err != nil {
			return err
		}
		keep = append(keep, productID)
	}
	return c.items.DeleteItemsExcept(ctx, *c.userID, keep)
}
