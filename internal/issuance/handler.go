package issuance

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v2"

	"github.com/curation-ledger/curation_ledger/internal/accounts"
	"github.com/curation-ledger/curation_ledger/internal/amount"
	"github.com/curation-ledger/curation_ledger/internal/auth"
	"github.com/curation-ledger/curation_ledger/internal/ledger"
)

// Handler exposes governor mint and burn endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs an issuance handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Mint issues shares. Callers other than the governor get 403.
func (h *Handler) Mint(c *fiber.Ctx) error {
	caller, ok := c.Locals(auth.AccountLocal).(common.Address)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "missing caller")
	}
	var req MintRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	account, err := ledger.ParseAddress(req.Account)
	if err != nil {
		return err
	}
	amt, err := amount.Parse(req.Amount)
	if err != nil {
		return err
	}
	deposit, err := amount.Parse(req.Deposit)
	if err != nil {
		return err
	}

	res, err := h.service.Mint(c.UserContext(), MintInput{Caller: caller, Account: account, Amount: amt, Deposit: deposit})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(toResponse(res))
}

// Burn destroys shares. Callers other than the governor get 403.
func (h *Handler) Burn(c *fiber.Ctx) error {
	caller, ok := c.Locals(auth.AccountLocal).(common.Address)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "missing caller")
	}
	var req BurnRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	account, err := ledger.ParseAddress(req.Account)
	if err != nil {
		return err
	}
	amt, err := amount.Parse(req.Amount)
	if err != nil {
		return err
	}

	res, err := h.service.Burn(c.UserContext(), BurnInput{Caller: caller, Account: account, Amount: amt})
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(toResponse(res))
}

// Register mounts the handler on an authenticated router.
func (h *Handler) Register(router fiber.Router) {
	router.Post("/mint", h.Mint)
	router.Post("/burn", h.Burn)
}

func toResponse(res Result) IssuanceResponse {
	out := IssuanceResponse{
		Transfer:    accounts.NewEventView(res.Event),
		TotalSupply: amount.Format(res.TotalSupply),
	}
	holder := res.Event.To
	if res.Event.To == ledger.ZeroAddress {
		holder = res.Event.From
		out.Released = amount.Format(res.Released)
	}
	out.Account = accounts.NewAccountView(accounts.Summary{Address: holder, Account: res.Account, AsOf: res.CompletedAt})
	return out
}
