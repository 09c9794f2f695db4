package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/checkout"
	"storefront/internal/coupons"
	"storefront/internal/middleware"
)

/*
POST /checkout
Converts the session cart into an order. The orchestrator owns the
transaction; this handler only binds input and maps typed failures to
status codes.
*/
func Checkout(store *catalog.Store, couponValidator *coupons.Validator, items cart.ItemStore, orchestrator *checkout.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /checkout"
		defer handlePanic(c, route)

		var info checkout.CustomerInfo
		if err := c.ShouldBindJSON(&info); err != nil {
			if respondWithFieldErrors(c, route, err) {
				return
			}
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		shopperCart, err := requestCart(c, store, couponValidator, items)
		if err != nil {
			log.Printf("[%s] cart load failed: %v", route, err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		order, err := orchestrator.SubmitOrder(ctx, shopperCart, middleware.UserIDFromContext(c), info)
		if err != nil {
			var stockErr checkout.OutOfStockError
			if errors.As(err, &stockErr) {
				c.JSON(http.StatusConflict, gin.H{
					"error":     "insufficient stock",
					"productId": stockErr.ProductID.Hex(),
					"name":      stockErr.Name,
					"available": stockErr.Available,
					"requested": stockErr.Requested,
				})
				return
			}
			var goneErr checkout.ProductUnavailableError
			if errors.As(err, &goneErr) {
				c.JSON(http.StatusConflict, gin.H{
					"error":     "product no longer available",
					"productId": goneErr.ProductID.Hex(),
				})
				return
			}
			if errors.Is(err, checkout.ErrEmptyCart) {
				respondWithError(c, http.StatusBadRequest, route, "cart is empty")
				return
			}

			// Transaction failures roll back completely; the shopper
			// gets a generic retryable message, the log keeps the rest.
			log.Printf("[%s] checkout failed: %v", route, err)
			respondWithError(c, http.StatusInternalServerError, route, "order could not be processed, please try again")
			return
		}

		if order.UserID != nil {
			log.Printf("[%s] order %s created for user %s", route, order.ID.Hex(), order.UserID.Hex())
		} else {
			log.Printf("[%s] guest order %s created", route, order.ID.Hex())
		}

		c.JSON(http.StatusCreated, order)
	}
}
