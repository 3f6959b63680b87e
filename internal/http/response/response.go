// Package response provides shared HTTP response helpers, including the
// mapping from domain errors to transport status codes.
package response

import (
	"errors"
	"net/http"

	"accountd/platform/apperr"

	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func OK(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusOK, payload)
}

func Created(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusCreated, payload)
}

func Error(c *gin.Context, status int, code, message string) {
	c.JSON(status, ErrorResponse{Code: code, Error: message})
}

// DomainError maps an *apperr.Error onto its status and stable code. The
// internal detail of provider and store failures never reaches the client.
func DomainError(c *gin.Context, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
		return
	}

	message := appErr.Message
	switch appErr.Kind {
	case apperr.KindProviderFailure:
		message = "identity provider unavailable"
	case apperr.KindStoreFailure:
		message = "internal error"
	}

	Error(c, appErr.HTTPStatus(), appErr.Code(), message)
}
