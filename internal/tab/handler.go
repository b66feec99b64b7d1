package tab

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/caderneta/caderneta/internal/ledger"
)

// Handler exposes tab HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a tab HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type recordRequest struct {
	Kind         string    `json:"kind"`
	CustomerName string    `json:"customer_name"`
	Amount       float64   `json:"amount"`
	OccurredAt   time.Time `json:"occurred_at"`
}

type entryResponse struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Amount     float64   `json:"amount"`
	OccurredAt time.Time `json:"occurred_at"`
}

type customerResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Record commits a credit sale or payment.
func (h *Handler) Record(c *fiber.Ctx) error {
	var req recordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	out, err := h.service.Record(c.UserContext(), Transaction{
		Kind:         ledger.Kind(req.Kind),
		CustomerName: req.CustomerName,
		Amount:       req.Amount,
		OccurredAt:   req.OccurredAt,
	})
	if err != nil {
		return statusError(err)
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"customer_id":   out.CustomerID,
		"customer_name": out.CustomerName,
		"settled":       out.Settled,
		"balance":       out.Balance,
	})
}

// Ledger returns a customer and their entries, newest first.
func (h *Handler) Ledger(c *fiber.Ctx) error {
	view, err := h.service.Ledger(c.UserContext(), c.Params("customerId"))
	if err != nil {
		return statusError(err)
	}

	entries := make([]entryResponse, 0, len(view.Entries))
	for _, e := range view.Entries {
		entries = append(entries, entryResponse{
			ID:         e.ID,
			Kind:       string(e.Kind),
			Amount:     e.Amount,
			OccurredAt: e.OccurredAt,
		})
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"customer": customerResponse{
			ID:        view.Customer.ID,
			Name:      view.Customer.Name,
			CreatedAt: view.Customer.CreatedAt,
		},
		"entries": entries,
	})
}

// Balance returns the customer's derived balance.
func (h *Handler) Balance(c *fiber.Ctx) error {
	customerID := c.Params("customerId")
	summary, err := h.service.Balance(c.UserContext(), customerID)
	if err != nil {
		return statusError(err)
	}

	resp := fiber.Map{
		"customer_id": customerID,
		"balance":     summary.Balance,
	}
	if !summary.LastCreditSale.IsZero() {
		resp["last_credit_sale"] = summary.LastCreditSale
	}
	return c.Status(http.StatusOK).JSON(resp)
}

// Customers lists every customer ordered by name.
func (h *Handler) Customers(c *fiber.Ctx) error {
	customers, err := h.service.Customers(c.UserContext())
	if err != nil {
		return statusError(err)
	}

	resp := make([]customerResponse, 0, len(customers))
	for _, customer := range customers {
		resp = append(resp, customerResponse{
			ID:        customer.ID,
			Name:      customer.Name,
			CreatedAt: customer.CreatedAt,
		})
	}
	return c.Status(http.StatusOK).JSON(resp)
}

type renameRequest struct {
	Name string `json:"name"`
}

// Rename updates a customer's display name.
func (h *Handler) Rename(c *fiber.Ctx) error {
	var req renameRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	if err := h.service.Rename(c.UserContext(), c.Params("customerId"), req.Name); err != nil {
		return statusError(err)
	}
	return c.SendStatus(http.StatusNoContent)
}

func statusError(err error) error {
	switch {
	case errors.Is(err, ErrValidation):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrCustomerNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNameTaken):
		return fiber.NewError(http.StatusConflict, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
