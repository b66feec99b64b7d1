package report

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes report HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a report HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type debtorResponse struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Balance        float64    `json:"balance"`
	LastCreditSale *time.Time `json:"last_credit_sale,omitempty"`
}

// Debtors lists customers with outstanding debt, highest balance first.
func (h *Handler) Debtors(c *fiber.Ctx) error {
	debtors, err := h.service.Debtors(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	resp := make([]debtorResponse, 0, len(debtors))
	for _, d := range debtors {
		item := debtorResponse{ID: d.ID, Name: d.Name, Balance: d.Balance}
		if !d.LastCreditSale.IsZero() {
			last := d.LastCreditSale
			item.LastCreditSale = &last
		}
		resp = append(resp, item)
	}
	return c.Status(http.StatusOK).JSON(resp)
}

// Balances lists every customer with their current balance.
func (h *Handler) Balances(c *fiber.Ctx) error {
	balances, err := h.service.CustomerBalances(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	resp := make([]fiber.Map, 0, len(balances))
	for _, b := range balances {
		resp = append(resp, fiber.Map{
			"id":      b.ID,
			"name":    b.Name,
			"balance": b.Balance,
		})
	}
	return c.Status(http.StatusOK).JSON(resp)
}

// Transactions returns the merged sales/payments view, newest first.
func (h *Handler) Transactions(c *fiber.Ctx) error {
	transactions, err := h.service.Transactions(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	resp := make([]fiber.Map, 0, len(transactions))
	for _, t := range transactions {
		item := fiber.Map{
			"id":            t.ID,
			"kind":          string(t.Kind),
			"amount":        t.Amount,
			"occurred_at":   t.OccurredAt,
			"customer_name": t.CustomerName,
		}
		if t.CustomerID != "" {
			item["customer_id"] = t.CustomerID
		}
		resp = append(resp, item)
	}
	return c.Status(http.StatusOK).JSON(resp)
}
