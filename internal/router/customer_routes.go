package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-reservation/internal/handler"
	"github.com/iliyamo/hotel-reservation/internal/middleware"
	"github.com/iliyamo/hotel-reservation/internal/utils"
)

// RegisterCustomer registers the cart, payment and booking endpoints
// under /v1. All routes require a valid JWT; admins may use them for
// their own account too.
func RegisterCustomer(e *echo.Echo, h *handler.CustomerHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(utils.RoleCustomer, utils.RoleAdmin),
	)
	g.POST("/cart", h.SaveCart)
	g.GET("/cart", h.GetCart)
	g.DELETE("/cart", h.ClearCart)
	g.DELETE("/cart/rooms/:roomId", h.RemoveCartRoom)

	g.POST("/payments/intent", h.CreatePaymentIntent)

	// /bookings/my is registered before /bookings/:id; echo prefers static
	// segments anyway.
	g.POST("/bookings/checkout", h.Checkout)
	g.GET("/bookings/my", h.MyBookings)
	g.GET("/bookings/:id", h.GetBooking)
	g.PUT("/bookings/:id/confirm", h.Confirm)
	g.PUT("/bookings/:id/cancel", h.Cancel)
}
