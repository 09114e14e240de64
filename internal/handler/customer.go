package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/hotel-reservation/internal/model"
	"github.com/iliyamo/hotel-reservation/internal/payment"
	"github.com/iliyamo/hotel-reservation/internal/service"
)

// CustomerHandler serves the cart, payment and booking endpoints of an
// authenticated customer. Every method acts for the user in the token.
type CustomerHandler struct {
	Carts    *service.CartService
	Bookings *service.BookingService
	Gateway  payment.Gateway
	Currency string
	Log      *zap.Logger
}

// NewCustomerHandler returns a CustomerHandler. All dependencies must be
// non-nil.
func NewCustomerHandler(carts *service.CartService, bookings *service.BookingService, gw payment.Gateway, currency string, log *zap.Logger) *CustomerHandler {
	if carts == nil || bookings == nil || gw == nil {
		panic("nil dependency passed to NewCustomerHandler")
	}
	return &CustomerHandler{Carts: carts, Bookings: bookings, Gateway: gw, Currency: currency, Log: log}
}

// SaveCart handles POST /v1/cart. The body replaces the whole cart; an
// empty rooms list clears it.
func (h *CustomerHandler) SaveCart(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var in service.SaveCartInput
	if err := bind(c, &in); err != nil {
		return respondError(c, h.Log, err)
	}
	cart, err := h.Carts.Save(c.Request().Context(), userID, in)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, cart)
}

// GetCart handles GET /v1/cart.
func (h *CustomerHandler) GetCart(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	cart, err := h.Carts.Get(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, cart)
}

// ClearCart handles DELETE /v1/cart.
func (h *CustomerHandler) ClearCart(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	if err := h.Carts.Clear(c.Request().Context(), userID); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// RemoveCartRoom handles DELETE /v1/cart/rooms/:roomId.
func (h *CustomerHandler) RemoveCartRoom(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	roomID, err := parseID(c, "roomId")
	if err != nil {
		return badRequest(c, err.Error())
	}
	cart, err := h.Carts.RemoveLine(c.Request().Context(), userID, roomID)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, cart)
}

type intentRequest struct {
	BookingID uint64 `json:"booking_id" validate:"required"`
}

// CreatePaymentIntent handles POST /v1/payments/intent. The amount is
// the grand total of the caller's pending booking.
func (h *CustomerHandler) CreatePaymentIntent(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var in intentRequest
	if err := bind(c, &in); err != nil {
		return respondError(c, h.Log, err)
	}
	ctx := c.Request().Context()
	b, err := h.Bookings.Get(ctx, in.BookingID, service.Actor{UserID: userID})
	if err != nil {
		return respondError(c, h.Log, err)
	}
	if b.Status != model.StatusPending {
		return c.JSON(http.StatusConflict, echo.Map{"error": "booking is " + b.Status})
	}
	intent, err := h.Gateway.CreateIntent(ctx, b.GrandTotal, h.Currency)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, intent)
}

// Checkout handles POST /v1/bookings/checkout. Without booking_id a new
// pending booking is created (201); with it the caller's pending booking
// is refreshed from the cart (200).
func (h *CustomerHandler) Checkout(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var in service.CheckoutInput
	if err := bind(c, &in); err != nil {
		return respondError(c, h.Log, err)
	}
	b, err := h.Bookings.CreateOrUpdatePending(c.Request().Context(), userID, in)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	status := http.StatusCreated
	if in.BookingID != 0 {
		status = http.StatusOK
	}
	return c.JSON(status, b)
}

type confirmRequest struct {
	PaymentReference string `json:"payment_reference" validate:"required"`
}

// Confirm handles PUT /v1/bookings/:id/confirm after a successful payment.
func (h *CustomerHandler) Confirm(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	var in confirmRequest
	if err := bind(c, &in); err != nil {
		return respondError(c, h.Log, err)
	}
	b, err := h.Bookings.Confirm(c.Request().Context(), userID, id, in.PaymentReference)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, b)
}

// Cancel handles PUT /v1/bookings/:id/cancel for the booking owner.
func (h *CustomerHandler) Cancel(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	b, err := h.Bookings.Cancel(c.Request().Context(), id, service.Actor{UserID: userID})
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, b)
}

// MyBookings handles GET /v1/bookings/my.
func (h *CustomerHandler) MyBookings(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	list, err := h.Bookings.ListMine(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	if list == nil {
		list = []model.Booking{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": list})
}

// GetBooking handles GET /v1/bookings/:id.
func (h *CustomerHandler) GetBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	b, err := h.Bookings.Get(c.Request().Context(), id, service.Actor{UserID: userID})
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, b)
}
