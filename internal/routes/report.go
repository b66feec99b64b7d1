package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/caderneta/caderneta/internal/report"
)

// RegisterReportRoutes wires the aggregate report endpoints.
func RegisterReportRoutes(r fiber.Router, h *report.Handler) {
	r.Get("/debtors", h.Debtors)
	r.Get("/customers/balances", h.Balances)
	r.Get("/reports/transactions", h.Transactions)
}
