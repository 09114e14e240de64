package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/hotel-reservation/internal/inventory"
	"github.com/iliyamo/hotel-reservation/internal/model"
	"github.com/iliyamo/hotel-reservation/internal/service"
)

// PublicHandler serves the unauthenticated room browser.
type PublicHandler struct {
	Rooms *service.RoomService
	Now   func() time.Time
	Log   *zap.Logger
}

// NewPublicHandler returns a PublicHandler.
func NewPublicHandler(rooms *service.RoomService, log *zap.Logger) *PublicHandler {
	if rooms == nil {
		panic("nil room service passed to NewPublicHandler")
	}
	return &PublicHandler{Rooms: rooms, Now: time.Now, Log: log}
}

// RoomInfo is the guest-facing description of a room type.
type RoomInfo struct {
	ID          uint64          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       model.Money     `json:"price"`
	Capacity    int             `json:"capacity"`
	LunchPrice  model.Money     `json:"lunch_price"`
	DinnerPrice model.Money     `json:"dinner_price"`
	Amenities   model.Amenities `json:"amenities"`
	Images      []string        `json:"images"`
}

// PublicRoom is a room type with its availability for a stay.
type PublicRoom struct {
	RoomInfo
	AvailableUnits int `json:"available_units"`
}

// CatalogRoom is a room type with its unit count.
type CatalogRoom struct {
	RoomInfo
	TotalUnits int `json:"total_units"`
}

func roomInfo(rt model.RoomType) RoomInfo {
	return RoomInfo{
		ID:          rt.ID,
		Name:        rt.Name,
		Description: rt.Description,
		Price:       rt.Price,
		Capacity:    rt.Capacity,
		LunchPrice:  rt.LunchPrice,
		DinnerPrice: rt.DinnerPrice,
		Amenities:   rt.Amenities,
		Images:      rt.Images,
	}
}

func publicRoom(av model.Availability) PublicRoom {
	return PublicRoom{RoomInfo: roomInfo(av.RoomType), AvailableUnits: av.AvailableUnits}
}

// queryInt reads a non-negative integer query parameter; missing means 0.
func queryInt(c echo.Context, name string) (int, error) {
	s := c.QueryParam(name)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return n, nil
}

func (h *PublicHandler) window(c echo.Context) (model.Window, error) {
	return inventory.ParseWindow(c.QueryParam("checkIn"), c.QueryParam("checkOut"), h.Now())
}

// ListRooms handles GET /v1/rooms. Room types that cannot serve the stay
// are left out.
func (h *PublicHandler) ListRooms(c echo.Context) error {
	w, err := h.window(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	guests, err := queryInt(c, "guests")
	if err != nil {
		return badRequest(c, "invalid guests")
	}
	maxPrice, err := queryInt(c, "maxPrice")
	if err != nil {
		return badRequest(c, "invalid maxPrice")
	}
	list, err := h.Rooms.Availability(c.Request().Context(), w,
		inventory.ListFilter{Guests: guests, MaxPrice: model.Money(maxPrice)})
	if err != nil {
		return respondError(c, h.Log, err)
	}
	out := make([]PublicRoom, 0, len(list))
	for _, av := range list {
		out = append(out, publicRoom(av))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"check_in":  w.CheckIn.Format(time.DateOnly),
		"check_out": w.CheckOut.Format(time.DateOnly),
		"items":     out,
	})
}

// GetRoom handles GET /v1/rooms/:id.
func (h *PublicHandler) GetRoom(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	w, err := h.window(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	av, err := h.Rooms.AvailabilityOf(c.Request().Context(), id, w)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, publicRoom(*av))
}

// Catalog handles GET /v1/catalog: every room type without availability.
// Its answer only changes with admin edits, so it may be cached.
func (h *PublicHandler) Catalog(c echo.Context) error {
	rts, err := h.Rooms.Catalog(c.Request().Context())
	if err != nil {
		return respondError(c, h.Log, err)
	}
	out := make([]CatalogRoom, 0, len(rts))
	for _, rt := range rts {
		out = append(out, CatalogRoom{RoomInfo: roomInfo(rt), TotalUnits: rt.TotalUnits})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}
