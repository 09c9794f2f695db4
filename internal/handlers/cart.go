package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/coupons"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/session"
)

type cartLineView struct {
	ProductID string       `json:"productId"`
	Name      string       `json:"name"`
	Slug      string       `json:"slug"`
	MainImage string       `json:"mainImage,omitempty"`
	UnitPrice models.Money `json:"unitPrice"`
	Quantity  int          `json:"quantity"`
	LineTotal models.Money `json:"lineTotal"`
}

type cartView struct {
	Items     []cartLineView `json:"items"`
	ItemCount int            `json:"itemCount"`
	Subtotal  models.Money   `json:"subtotal"`
	Discount  models.Money   `json:"discount"`
	Total     models.Money   `json:"total"`
	Coupon    string         `json:"coupon,omitempty"`
}

// requestCart reconstructs the shopper's cart for this request, merging
// persisted lines when the request carries a valid identity.
func requestCart(c *gin.Context, store *catalog.Store, validator *coupons.Validator, items cart.ItemStore) (*cart.Cart, error) {
	sess := session.FromContext(c)
	userID := middleware.UserIDFromContext(c)
	return cart.New(c.Request.Context(), sess, userID, store, validator, items)
}

func buildCartView(ctx context.Context, shopperCart *cart.Cart) (cartView, error) {
	items, err := shopperCart.Items(ctx)
	if err != nil {
		return cartView{}, err
	}

	lines := make([]cartLineView, 0, len(items))
	for _, item := range items {
		lines = append(lines, cartLineView{
			ProductID: item.Product.ID.Hex(),
			Name:      item.Product.Name,
			Slug:      item.Product.Slug,
			MainImage: item.Product.MainImage,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal,
		})
	}

	discount, err := shopperCart.Discount(ctx)
	if err != nil {
		return cartView{}, err
	}
	total, err := shopperCart.Total(ctx)
	if err != nil {
		return cartView{}, err
	}
	coupon, err := shopperCart.ActiveCoupon(ctx)
	if err != nil {
		return cartView{}, err
	}

	view := cartView{
		Items:     lines,
		ItemCount: shopperCart.Len(),
		Subtotal:  shopperCart.Subtotal(),
		Discount:  discount,
		Total:     total,
	}
	if coupon != nil {
		view.Coupon = coupon.Code
	}
	return view, nil
}

func respondWithCart(c *gin.Context, route string, shopperCart *cart.Cart) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	view, err := buildCartView(ctx, shopperCart)
	if err != nil {
		log.Printf("[%s] cart view failed: %v", route, err)
		respondWithError(c, http.StatusInternalServerError, route, "db error")
		return
	}
	c.JSON(http.StatusOK, view)
}

func ViewCart(store *catalog.Store, validator *coupons.Validator, items cart.ItemStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /cart"
		defer handlePanic(c, route)

		shopperCart, err := requestCart(c, store, validator, items)
		if err != nil {
			log.Printf("[%s] cart load failed: %v", route, err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		respondWithCart(c, route, shopperCart)
	}
}

type addToCartRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity"`
	Replace   bool   `json:"replace"`
}

// normalized parses the product id and defaults the quantity to one.
func (r addToCartRequest) normalized() (primitive.ObjectID, int, error) {
	productID, err := primitive.ObjectIDFromHex(r.ProductID)
	if err != nil {
		return primitive.NilObjectID, 0, errors.New("invalid productId")
	}

	quantity := r.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 {
		return primitive.NilObjectID, 0, errors.New("quantity must be greater than zero")
	}
	return productID, quantity, nil
}

func AddToCart(store *catalog.Store, validator *coupons.Validator, items cart.ItemStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /cart/items"
		defer handlePanic(c, route)

		var req addToCartRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		productID, quantity, err := req.normalized()
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		product, err := store.ProductByID(ctx, productID)
		if errors.Is(err, catalog.ErrProductNotFound) {
			respondWithError(c, http.StatusNotFound, route, "product not available")
			return
		}
		if err != nil {
			log.Printf("[%s] product lookup failed: %v", route, err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		shopperCart, err := requestCart(c, store, validator, items)
		if err != nil {
			log.Printf("[%s] cart load failed: %v", route, err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if err := shopperCart.Add(ctx, product, quantity, req.Replace); err != nil {
			log.Printf("[%s] cart add failed: %v", route, err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		respondWithCart(c, route, shopperCart)
	}
}

func RemoveFromCart(store *catalog.Store, validator *coupons.Validator, items cart.ItemStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /cart/items/:productId"
		defer handlePanic(c, route)

		productID, err := primitive.ObjectIDFromHex(c.Param("productId"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid productId")
			return
		}

		shopperCart, err := requestCart(c, store, validator, items)
		if err != nil {
			log.Printf("[%s] cart load failed: %v", route, err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if err := shopperCart.Remove(ctx, productID); err != nil {
			log.Printf("[%s] cart remove failed: %v", route, err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		respondWithCart(c, route, shopperCart)
	}
}

type applyCouponRequest struct {
	Code string `json:"code" binding:"required"`
}

func ApplyCoupon(store *catalog.Store, validator *coupons.Validator, items cart.ItemStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /cart/coupon"
		defer handlePanic(c, route)

		var req applyCouponRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		shopperCart, err := requestCart(c, store, validator, items)
		if err != nil {
			log.Printf("[%s] cart load failed: %v", route, err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		coupon, err := validator.Validate(ctx, req.Code, time.Now())
		if errors.Is(err, coupons.ErrInvalidCoupon) {
			// An invalid code also clears whatever coupon was applied
			// before, matching the storefront's form behavior.
			shopperCart.RemoveCoupon()
			respondWithError(c, http.StatusBadRequest, route, "invalid or expired coupon")
			return
		}
		if err != nil {
			log.Printf("[%s] coupon lookup failed: %v", route, err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		shopperCart.ApplyCoupon(coupon)
		respondWithCart(c, route, shopperCart)
	}
}

func RemoveCoupon(store *catalog.Store, validator *coupons.Validator, items cart.ItemStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /cart/coupon"
		defer handlePanic(c, route)

		shopperCart, err := requestCart(c, store, validator, items)
		if err != nil {
			log.Printf("[%s] cart load failed: %v", route, err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		shopperCart.RemoveCoupon()
		respondWithCart(c, route, shopperCart)
	}
}
