// Package httperror renders domain errors as JSON responses.
package httperror

import (
	"errors"
	"net/http"

	custom_error "assettracker/pkg/errors"

	"github.com/gin-gonic/gin"
)

var statusByKind = map[custom_error.Kind]int{
	custom_error.KindValidation:            http.StatusUnprocessableEntity,
	custom_error.KindJustificationTooShort: http.StatusUnprocessableEntity,
	custom_error.KindCollision:             http.StatusConflict,
	custom_error.KindCategoryImmutable:     http.StatusConflict,
	custom_error.KindNotFound:              http.StatusNotFound,
	custom_error.KindCancelled:             http.StatusConflict,
	custom_error.KindInvalidTransition:     http.StatusConflict,
	custom_error.KindNetwork:               http.StatusGatewayTimeout,
	custom_error.KindPersistence:           http.StatusInternalServerError,
}

func Status(err error) int {
	if status, ok := statusByKind[custom_error.KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Abort writes {"error", "code", "details"} plus the field list of a
// validation error or the suggestion of a collision.
func Abort(c *gin.Context, message string, err error) {
	kind := custom_error.KindOf(err)
	body := gin.H{
		"error":   message,
		"code":    kind,
		"details": err.Error(),
	}

	var validationErr *custom_error.ValidationError
	if errors.As(err, &validationErr) {
		body["fields"] = validationErr.Fields
	}
	var collisionErr *custom_error.CollisionError
	if errors.As(err, &collisionErr) {
		body["suggestion"] = collisionErr.Suggestion
	}

	c.AbortWithStatusJSON(Status(err), body)
}
