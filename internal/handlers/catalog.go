package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"storefront/internal/catalog"
)

/*
GET /products
- optional category (slug, scopes to the category and all descendants)
- optional search (name, case-insensitive)
- pagination applied only when page + limit are both present
*/
func GetProducts(store *catalog.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /products"
		defer handlePanic(c, route)

		log.Printf(
			"[%s] hit page=%s limit=%s category=%s search=%s",
			route,
			c.Query("page"),
			c.Query("limit"),
			c.Query("category"),
			c.Query("search"),
		)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		filters := catalog.ProductFilters{
			Search: strings.TrimSpace(c.Query("search")),
		}

		if slug := strings.TrimSpace(c.Query("category")); slug != "" {
			category, err := store.CategoryBySlug(ctx, slug)
			if errors.Is(err, catalog.ErrCategoryNotFound) {
				respondWithError(c, http.StatusNotFound, route, "category not found")
				return
			}
			if err != nil {
				respondWithError(c, http.StatusInternalServerError, route, "db error")
				return
			}

			filters.CategoryIDs, err = store.ResolveCategorySubtree(ctx, category.ID)
			if err != nil {
				respondWithError(c, http.StatusInternalServerError, route, "db error")
				return
			}
		}

		var skip, limit int64
		pageStr := c.Query("page")
		limitStr := c.Query("limit")
		if pageStr != "" && limitStr != "" {
			page, parsedLimit, err := parsePaginationParams(pageStr, limitStr)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, "invalid pagination params")
				return
			}
			skip = (page - 1) * parsedLimit
			limit = parsedLimit
		}

		products, total, err := store.ListProducts(ctx, filters, skip, limit)
		if err != nil {
			log.Printf("[%s] list failed: %v", route, err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"total":    total,
			"products": products,
		})
	}
}

func GetProduct(store *catalog.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /products/:slug"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		product, err := store.ProductBySlug(ctx, c.Param("slug"))
		if errors.Is(err, catalog.ErrProductNotFound) {
			respondWithError(c, http.StatusNotFound, route, "product not available")
			return
		}
		if err != nil {
			log.Printf("[%s] lookup failed: %v", route, err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, product)
	}
}

// GetOffers lists discounted products, biggest discount first.
func GetOffers(store *catalog.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /products/offers"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		products, total, err := store.ListProducts(ctx, catalog.ProductFilters{OffersOnly: true}, 0, 0)
		if err != nil {
			log.Printf("[%s] list failed: %v", route, err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"total":    total,
			"products": products,
		})
	}
}

// GetFeatured feeds the homepage slider.
func GetFeatured(store *catalog.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /products/featured"
		defer handlePanic(c, route)

		products, err := store.FeaturedProducts(c.Request.Context(), 5)
		if err != nil {
			log.Printf("[%s] list failed: %v", route, err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, products)
	}
}

// GetCategories returns root categories by default, or the full tree
// with ?all=true.
func GetCategories(store *catalog.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /categories"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var err error
		var categories interface{}
		if c.Query("all") == "true" {
			categories, err = store.ListCategories(ctx)
		} else {
			categories, err = store.RootCategories(ctx)
		}
		if err != nil {
			log.Printf("[%s] list failed: %v", route, err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, categories)
	}
}
