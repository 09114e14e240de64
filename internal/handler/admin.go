package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/hotel-reservation/internal/inventory"
	"github.com/iliyamo/hotel-reservation/internal/model"
	"github.com/iliyamo/hotel-reservation/internal/payment"
	"github.com/iliyamo/hotel-reservation/internal/service"
)

// AdminHandler serves room administration and booking management.
type AdminHandler struct {
	Rooms    *service.RoomService
	Bookings *service.BookingService
	Gateway  payment.Gateway
	Now      func() time.Time
	Log      *zap.Logger
}

// NewAdminHandler returns an AdminHandler. All dependencies must be
// non-nil.
func NewAdminHandler(rooms *service.RoomService, bookings *service.BookingService, gw payment.Gateway, log *zap.Logger) *AdminHandler {
	if rooms == nil || bookings == nil || gw == nil {
		panic("nil dependency passed to NewAdminHandler")
	}
	return &AdminHandler{Rooms: rooms, Bookings: bookings, Gateway: gw, Now: time.Now, Log: log}
}

var adminActor = service.Actor{Admin: true}

// ListRooms handles GET /v1/admin/rooms. Unlike the public listing it
// keeps full room types and shows committed and held units; pass
// adminView=false for the guest filter.
func (h *AdminHandler) ListRooms(c echo.Context) error {
	w, err := inventory.ParseWindow(c.QueryParam("checkIn"), c.QueryParam("checkOut"), h.Now())
	if err != nil {
		return respondError(c, h.Log, err)
	}
	f := inventory.ListFilter{AdminView: true}
	if v := c.QueryParam("adminView"); v != "" {
		if f.AdminView, err = strconv.ParseBool(v); err != nil {
			return badRequest(c, "invalid adminView")
		}
	}
	list, err := h.Rooms.Availability(c.Request().Context(), w, f)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": list})
}

// CreateRoom handles POST /v1/admin/rooms. Posting an existing name adds
// units to that type (200) instead of creating one (201).
func (h *AdminHandler) CreateRoom(c echo.Context) error {
	var in service.RoomTypeInput
	if err := bind(c, &in); err != nil {
		return respondError(c, h.Log, err)
	}
	rt, created, err := h.Rooms.Create(c.Request().Context(), in)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	if created {
		return c.JSON(http.StatusCreated, rt)
	}
	return c.JSON(http.StatusOK, rt)
}

// UpdateRoom handles PATCH /v1/admin/rooms/:id.
func (h *AdminHandler) UpdateRoom(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	var p service.RoomTypePatch
	if err := bind(c, &p); err != nil {
		return respondError(c, h.Log, err)
	}
	rt, err := h.Rooms.Update(c.Request().Context(), id, p)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, rt)
}

type unitsRequest struct {
	TotalUnits *int `json:"total_units" validate:"required,gte=0"`
}

// SetUnits handles PUT /v1/admin/rooms/:id/units.
func (h *AdminHandler) SetUnits(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	var in unitsRequest
	if err := bind(c, &in); err != nil {
		return respondError(c, h.Log, err)
	}
	rt, err := h.Rooms.SetTotalUnits(c.Request().Context(), id, *in.TotalUnits)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, rt)
}

// RemoveUnits handles DELETE /v1/admin/rooms/:id/units?count=N. Count
// defaults to one.
func (h *AdminHandler) RemoveUnits(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	count := 1
	if v := c.QueryParam("count"); v != "" {
		if count, err = strconv.Atoi(v); err != nil || count < 1 {
			return badRequest(c, "invalid count")
		}
	}
	rt, err := h.Rooms.RemoveUnits(c.Request().Context(), id, count)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, rt)
}

// ListBookings handles GET /v1/admin/bookings with the optional filters
// email, status, paymentStatus, guests, date (in-house on that day),
// page and perPage.
func (h *AdminHandler) ListBookings(c echo.Context) error {
	f := model.BookingFilter{
		Email:         strings.TrimSpace(c.QueryParam("email")),
		Status:        c.QueryParam("status"),
		PaymentStatus: c.QueryParam("paymentStatus"),
	}
	var err error
	if f.Guests, err = queryInt(c, "guests"); err != nil {
		return badRequest(c, "invalid guests")
	}
	if f.Page, err = queryInt(c, "page"); err != nil {
		return badRequest(c, "invalid page")
	}
	if f.PerPage, err = queryInt(c, "perPage"); err != nil {
		return badRequest(c, "invalid perPage")
	}
	if v := c.QueryParam("date"); v != "" {
		d, err := inventory.ParseDate(v)
		if err != nil {
			return badRequest(c, "invalid date")
		}
		f.Date = &d
	}
	page, err := h.Bookings.ListAll(c.Request().Context(), f)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	if page.Bookings == nil {
		page.Bookings = []model.Booking{}
	}
	return c.JSON(http.StatusOK, page)
}

// CancelBooking handles PUT /v1/admin/bookings/:id/cancel.
func (h *AdminHandler) CancelBooking(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	b, err := h.Bookings.Cancel(c.Request().Context(), id, adminActor)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, b)
}

type paymentStatusRequest struct {
	PaymentStatus string `json:"payment_status" validate:"required"`
}

// SetPaymentStatus handles PUT /v1/admin/bookings/:id/payment.
func (h *AdminHandler) SetPaymentStatus(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	var in paymentStatusRequest
	if err := bind(c, &in); err != nil {
		return respondError(c, h.Log, err)
	}
	b, err := h.Bookings.SetPaymentStatus(c.Request().Context(), id, in.PaymentStatus)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, b)
}

// RefundBooking handles PUT /v1/admin/bookings/:id/refund.
func (h *AdminHandler) RefundBooking(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	b, err := h.Bookings.Refund(c.Request().Context(), id, h.Gateway)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, b)
}

// DeleteBooking handles DELETE /v1/admin/bookings/:id.
func (h *AdminHandler) DeleteBooking(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	if err := h.Bookings.Delete(c.Request().Context(), id); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
