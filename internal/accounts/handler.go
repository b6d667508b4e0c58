package accounts

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/curation-ledger/curation_ledger/internal/amount"
	"github.com/curation-ledger/curation_ledger/internal/ledger"
)

const maxHistoryLimit = 500

// Handler exposes read-only ledger endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds an accounts HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Token returns token metadata.
func (h *Handler) Token(c *fiber.Ctx) error {
	return c.Status(http.StatusOK).JSON(h.service.Token())
}

// Supply returns the total share supply.
func (h *Handler) Supply(c *fiber.Ctx) error {
	supply, err := h.service.TotalSupply(c.UserContext())
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"total_supply": amount.Format(supply)})
}

// Get returns the balance and deposit of an account.
func (h *Handler) Get(c *fiber.Ctx) error {
	addr, err := ledger.ParseAddress(c.Params("address"))
	if err != nil {
		return err
	}
	summary, err := h.service.Summary(c.UserContext(), addr)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(NewAccountView(summary))
}

// Value returns the deposit attributable to ?amount= shares of the account.
func (h *Handler) Value(c *fiber.Ctx) error {
	addr, err := ledger.ParseAddress(c.Params("address"))
	if err != nil {
		return err
	}
	amt, err := amount.Parse(c.Query("amount"))
	if err != nil {
		return err
	}
	value, err := h.service.ValueOf(c.UserContext(), addr, amt)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"address": addr.Hex(),
		"amount":  amount.Format(amt),
		"value":   amount.Format(value),
	})
}

// Transfers lists the account's Transfer events, newest first.
func (h *Handler) Transfers(c *fiber.Ctx) error {
	addr, err := ledger.ParseAddress(c.Params("address"))
	if err != nil {
		return err
	}
	limit := c.QueryInt("limit", 0)
	if limit < 0 || limit > maxHistoryLimit {
		return fiber.NewError(http.StatusBadRequest, "limit must be between 0 and 500")
	}
	events, err := h.service.History(c.UserContext(), addr, limit)
	if err != nil {
		return err
	}
	views := make([]EventView, 0, len(events))
	for _, ev := range events {
		views = append(views, NewEventView(ev))
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"address": addr.Hex(), "transfers": views})
}

// Allowance returns how many shares spender may move out of owner.
func (h *Handler) Allowance(c *fiber.Ctx) error {
	owner, err := ledger.ParseAddress(c.Params("owner"))
	if err != nil {
		return err
	}
	spender, err := ledger.ParseAddress(c.Params("spender"))
	if err != nil {
		return err
	}
	value, err := h.service.Allowance(c.UserContext(), owner, spender)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"owner":     owner.Hex(),
		"spender":   spender.Hex(),
		"allowance": amount.Format(value),
	})
}

// Register mounts the handler on router.
func (h *Handler) Register(router fiber.Router) {
	router.Get("/token", h.Token)
	router.Get("/supply", h.Supply)
	router.Get("/accounts/:address", h.Get)
	router.Get("/accounts/:address/value", h.Value)
	router.Get("/accounts/:address/transfers", h.Transfers)
	router.Get("/accounts/:owner/allowances/:spender", h.Allowance)
}
