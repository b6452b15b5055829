package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
)

// errorStatus maps the error taxonomy to an HTTP status and a client message.
func errorStatus(err error) (int, string) {
	var verr *errors.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Error()
	case errors.Is(err, errors.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, errors.ErrNotAuthenticated):
		return http.StatusUnauthorized, "not authenticated"
	case errors.Is(err, errors.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, errors.ErrCheckoutInFlight):
		return http.StatusConflict, "checkout request in flight"
	case errors.Is(err, errors.ErrInvalidTransition):
		return http.StatusConflict, err.Error()
	case errors.Is(err, errors.ErrGatewayRejected):
		return http.StatusPaymentRequired, "payment rejected"
	case errors.Is(err, errors.ErrGatewayUnavailable):
		return http.StatusBadGateway, "payment gateway unavailable"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func handleError(c *gin.Context, err error) {
	status, message := errorStatus(err)
	_ = c.Error(err)

	body := gin.H{"error": message}
	var verr *errors.ValidationError
	if errors.As(err, &verr) {
		body["field"] = verr.Field
	}
	c.JSON(status, body)
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}

// productIDParam parses the :id path parameter.
func productIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid product ID")
		return 0, false
	}
	return id, true
}

// queryInt reads an optional integer query parameter.
func queryInt(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return n, true
}
