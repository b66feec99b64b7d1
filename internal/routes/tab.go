package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/caderneta/caderneta/internal/tab"
)

// RegisterTabRoutes wires transaction recording and customer endpoints.
func RegisterTabRoutes(r fiber.Router, h *tab.Handler, rateLimiter fiber.Handler) {
	r.Post("/transactions", rateLimiter, h.Record)
	r.Get("/customers", h.Customers)
	r.Get("/customers/:customerId/ledger", h.Ledger)
	r.Get("/customers/:customerId/balance", h.Balance)
	r.Put("/customers/:customerId/name", h.Rename)
}
