package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

func handlePanic(c *gin.Context, route string) {
	if r := recover(); r != nil {
		log.Printf("[%s] panic recovered: %v", route, r)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func ensureDBConnection(ctx context.Context, db *mongo.Database) error {
	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return db.Client().Ping(checkCtx, readpref.Primary())
}

func respondWithError(c *gin.Context, status int, route string, message string) {
	log.Printf("[%s] returning error %d: %s", route, status, message)
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// respondWithFieldErrors maps binding failures onto a field -> rule
// object so the storefront form can annotate individual inputs. It
// reports whether the error was a validation error; other bind errors
// are left to the caller.
func respondWithFieldErrors(c *gin.Context, route string, err error) bool {
	var bindingErrors validator.ValidationErrors
	if !errors.As(err, &bindingErrors) {
		return false
	}

	fields := gin.H{}
	for _, fieldError := range bindingErrors {
		fields[fieldError.Field()] = fieldError.Tag()
	}

	log.Printf("[%s] returning validation errors: %v", route, err)
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"error":  "validation failed",
		"fields": fields,
	})
	return true
}
