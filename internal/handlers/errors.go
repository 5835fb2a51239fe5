package handlers

import (
	"net/http"

	"github.com/01moynul/recipeshop-checkout/internal/apperror"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

var statusByKind = map[apperror.Kind]int{
	apperror.KindInvalidInput:       http.StatusBadRequest,
	apperror.KindUnauthorized:       http.StatusUnauthorized,
	apperror.KindForbidden:          http.StatusForbidden,
	apperror.KindNotFound:           http.StatusNotFound,
	apperror.KindNotFoundYet:        http.StatusNotFound,
	apperror.KindOutOfStock:         http.StatusBadRequest,
	apperror.KindInsufficientStock:  http.StatusBadRequest,
	apperror.KindEmptyCart:          http.StatusBadRequest,
	apperror.KindNotConfigured:      http.StatusBadRequest,
	apperror.KindPaymentProvider:    http.StatusInternalServerError,
	apperror.KindInvalidTransaction: http.StatusBadRequest,
	apperror.KindInvalidToken:       http.StatusNotFound,
	apperror.KindInternal:           http.StatusInternalServerError,
}

// respondError maps a core error to its status and a {"error", "code"} body.
func respondError(c *gin.Context, err error) {
	e, ok := apperror.As(err)
	if !ok {
		e = apperror.Wrap(apperror.KindInternal, err, "unexpected error")
	}
	status, ok := statusByKind[e.Kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	body := gin.H{"error": e.Message, "code": e.Kind}
	switch e.Kind {
	case apperror.KindInternal:
		body["error"] = "Internal server error"
	case apperror.KindOutOfStock, apperror.KindInsufficientStock:
		body["productId"] = e.ProductID
		body["available"] = e.Available
	case apperror.KindPaymentProvider:
		if e.Detail != "" {
			body["detail"] = e.Detail
		}
	}

	if status >= http.StatusInternalServerError {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("code", string(e.Kind)).Msg("request failed")
	}
	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error(), "code": apperror.KindInvalidInput})
}
