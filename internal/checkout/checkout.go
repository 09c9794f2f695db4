package checkout

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/cart"
	"storefront/internal/models"
)

// ErrEmptyCart rejects a checkout attempt before anything is written.
var ErrEmptyCart = errors.New("cart is empty")

// OutOfStockError reports the first line whose requested quantity
// exceeds the available stock. The whole attempt is rolled back.
type OutOfStockError struct {
	ProductID primitive.ObjectID
	Name      string
	Available int
	Requested int
}

func (e OutOfStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s", e.ProductID.Hex())
}

// ProductUnavailableError reports a cart line whose product disappeared
// between cart review and checkout.
type ProductUnavailableError struct {
	ProductID primitive.ObjectID
}

func (e ProductUnavailableError) Error() string {
	return fmt.Sprintf("product %s is no longer available", e.ProductID.Hex())
}

// CustomerInfo is the contact block collected by the checkout form.
type CustomerInfo struct {
	FullName string `json:"fullName" binding:"required"`
	Phone    string `json:"phone" binding:"required"`
	Address  string `json:"address" binding:"required"`
}

// Notifier delivers the order confirmation out-of-band. Failures are
// logged, never surfaced to the shopper.
type Notifier interface {
	Notify(order *models.Order) error
}

// Inventory is the slice of persistence checkout needs: product reads,
// conditional stock decrements and the order insert, all executed
// inside one WithTransaction callback that rolls back on error.
type Inventory interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	ProductForUpdate(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	DecrementStock(ctx context.Context, id primitive.ObjectID, quantity int) (bool, error)
	InsertOrder(ctx context.Context, order models.Order) (primitive.ObjectID, error)
}

// Orchestrator converts a finalized cart into a persisted order inside
// one transaction that also validates and decrements stock.
type Orchestrator struct {
	inventory   Inventory
	notifier    Notifier
	deliveryFee models.Money
}

func NewOrchestrator(inventory Inventory, notifier Notifier, deliveryFee models.Money) *Orchestrator {
	return &Orchestrator{inventory: inventory, notifier: notifier, deliveryFee: deliveryFee}
}

// SubmitOrder validates stock and commits the order atomically. Either
// the order exists with every stock decrement applied, or nothing
// changed at all. On success the cart is cleared and the confirmation
// is dispatched fire-and-forget.
func (o *Orchestrator) SubmitOrder(ctx context.Context, shopperCart *cart.Cart, userID *primitive.ObjectID, info CustomerInfo) (*models.Order, error) {
	items, err := shopperCart.Items(ctx)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	coupon, err := shopperCart.ActiveCoupon(ctx)
	if err != nil {
		return nil, err
	}

	order := buildOrder(items, info, userID, coupon, o.deliveryFee, time.Now())

	var orderID primitive.ObjectID
	err = o.inventory.WithTransaction(ctx, func(txCtx context.Context) error {
		for _, item := range order.Items {
			productID := *item.ProductID

			product, err := o.inventory.ProductForUpdate(txCtx, productID)
			if err != nil {
				return err
			}
			if product == nil {
				return ProductUnavailableError{ProductID: productID}
			}

			if product.Stock < item.Quantity {
				return OutOfStockError{
					ProductID: productID,
					Name:      product.Name,
					Available: product.Stock,
					Requested: item.Quantity,
				}
			}

			// The decrement re-checks stock under the transaction, so a
			// concurrent decrement between the read above and this
			// write cannot drive stock negative.
			matched, err := o.inventory.DecrementStock(txCtx, productID, item.Quantity)
			if err != nil {
				return err
			}
			if !matched {
				return OutOfStockError{
					ProductID: productID,
					Name:      product.Name,
					Available: product.Stock,
					Requested: item.Quantity,
				}
			}
		}

		id, err := o.inventory.InsertOrder(txCtx, order)
		if err != nil {
			return err
		}
		orderID = id
		return nil
	})
	if err != nil {
		return nil, err
	}
	order.ID = orderID

	// The order is committed; a stale cart is recoverable, so a clear
	// failure is logged rather than returned.
	if err := shopperCart.Clear(ctx); err != nil {
		log.Println("[CHECKOUT] [ERROR] cart clear after commit failed:", err)
	}

	o.dispatchNotification(&order)

	return &order, nil
}

// buildOrder computes the order header and lines from a cart snapshot:
// totalAmount = subtotal - discount + deliveryFee, with every line
// carrying its frozen add-time unit price.
func buildOrder(items []cart.ItemView, info CustomerInfo, userID *primitive.ObjectID, coupon *models.Coupon, deliveryFee models.Money, now time.Time) models.Order {
	var subtotal models.Money
	orderItems := make([]models.OrderItem, 0, len(items))

	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal)
		productID := item.Product.ID
		orderItems = append(orderItems, models.OrderItem{
			ProductID: &productID,
			Name:      item.Product.Name,
			Price:     item.UnitPrice,
			Quantity:  item.Quantity,
		})
	}

	var discount models.Money
	var couponID *primitive.ObjectID
	couponCode := ""
	if coupon != nil {
		discount = coupon.DiscountOn(subtotal)
		id := coupon.ID
		couponID = &id
		couponCode = coupon.Code
	}

	return models.Order{
		UserID:         userID,
		Items:          orderItems,
		Customer:       models.OrderCustomer(info),
		TotalAmount:    subtotal.Sub(discount).Add(deliveryFee),
		DeliveryFee:    deliveryFee,
		CouponID:       couponID,
		CouponCode:     couponCode,
		DiscountAmount: discount,
		Status:         models.OrderStatusPending,
		CreatedAt:      now,
	}
}

// dispatchNotification fires the confirmation without blocking or
// failing the checkout response. Best-effort, at-most-once.
func (o *Orchestrator) dispatchNotification(order *models.Order) {
	if o.notifier == nil {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Println("[CHECKOUT] [ERROR] notify panic recovered:", r)
			}
		}()
		if err := o.notifier.Notify(order); err != nil {
			log.Println("[CHECKOUT] [ERROR] notify failed:", err)
		}
	}()
}
