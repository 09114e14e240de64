// Package handler exposes the HTTP handlers of the reservation API.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/hotel-reservation/internal/middleware"
	"github.com/iliyamo/hotel-reservation/internal/model"
	"github.com/iliyamo/hotel-reservation/internal/service"
)

// getUserID returns the authenticated caller set by middleware.JWTAuth.
func getUserID(c echo.Context) (uint64, error) {
	id, ok := middleware.UserID(c)
	if !ok {
		return 0, errors.New("invalid user_id in context")
	}
	return id, nil
}

func parseID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

// bind decodes the request body into v and validates it.
func bind(c echo.Context, v interface{}) error {
	if err := c.Bind(v); err != nil {
		return errInvalidBody
	}
	return c.Validate(v)
}

var errInvalidBody = errors.New("invalid request body")

// statusOf maps domain errors onto HTTP status codes.
func statusOf(err error) int {
	var verr validator.ValidationErrors
	switch {
	case errors.As(err, &verr), errors.Is(err, errInvalidBody):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrRoomNotFound),
		errors.Is(err, model.ErrBookingNotFound),
		errors.Is(err, model.ErrCartNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrInvalidWindow),
		errors.Is(err, model.ErrInvalidInput),
		errors.Is(err, model.ErrCartEmpty),
		errors.Is(err, model.ErrInvalidPaymentStatus):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrInsufficientCapacity),
		errors.Is(err, model.ErrAlreadyCancelled),
		errors.Is(err, model.ErrAlreadyRefunded),
		errors.Is(err, model.ErrNoRefundPending),
		errors.Is(err, model.ErrInvalidTransition),
		errors.Is(err, model.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, model.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrLockTimeout):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// respondError writes err as {"error": "..."}. Unexpected errors are
// logged and hidden from the client.
func respondError(c echo.Context, log *zap.Logger, err error) error {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
		return c.JSON(status, echo.Map{"error": "internal error"})
	}
	return c.JSON(status, echo.Map{"error": err.Error()})
}
