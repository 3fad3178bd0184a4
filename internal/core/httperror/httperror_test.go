package httperror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	custom_error "assettracker/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		err      error
		expected int
	}{
		{custom_error.NewValidationError(custom_error.FieldError{Field: "name", Message: "required"}), http.StatusUnprocessableEntity},
		{fmt.Errorf("wrap: %w", custom_error.ErrJustificationTooShort), http.StatusUnprocessableEntity},
		{&custom_error.CollisionError{Code: "LPT-0001"}, http.StatusConflict},
		{custom_error.ErrAssetNotFound, http.StatusNotFound},
		{&custom_error.NetworkError{Op: "list", Err: errors.New("timeout")}, http.StatusGatewayTimeout},
		{errors.New("unexpected"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.expected, Status(tt.err))
		})
	}
}

func TestAbortIncludesSuggestion(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Abort(c, "Transfer blocked", &custom_error.CollisionError{Code: "LPT-0001", Suggestion: "LPT-0004", LocationID: 2})

	assert.Equal(t, http.StatusConflict, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Transfer blocked", body["error"])
	assert.Equal(t, "collision", body["code"])
	assert.Equal(t, "LPT-0004", body["suggestion"])
}
