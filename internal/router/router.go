// Package router wires handlers and middleware onto echo routes.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-reservation/internal/handler"
	"github.com/iliyamo/hotel-reservation/internal/middleware"
	"github.com/iliyamo/hotel-reservation/internal/utils"
)

// RegisterRoutes registers routes that need no authentication and no
// database.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers the guest room browser. cache wraps the
// static catalog only; availability is always computed live.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache echo.MiddlewareFunc) {
	e.GET("/v1/rooms", p.ListRooms)
	e.GET("/v1/rooms/:id", p.GetRoom)
	e.GET("/v1/catalog", p.Catalog, cache)
}

// RegisterAdmin registers room and booking administration under
// /v1/admin. Every route requires the ADMIN role.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string) {
	g := e.Group("/v1/admin", middleware.JWTAuth(jwtSecret), middleware.RequireRole(utils.RoleAdmin))

	g.GET("/rooms", h.ListRooms)
	g.POST("/rooms", h.CreateRoom)
	g.PATCH("/rooms/:id", h.UpdateRoom)
	g.PUT("/rooms/:id/units", h.SetUnits)
	g.DELETE("/rooms/:id/units", h.RemoveUnits)

	g.GET("/bookings", h.ListBookings)
	g.PUT("/bookings/:id/cancel", h.CancelBooking)
	g.PUT("/bookings/:id/payment", h.SetPaymentStatus)
	g.PUT("/bookings/:id/refund", h.RefundBooking)
	g.DELETE("/bookings/:id", h.DeleteBooking)
}
