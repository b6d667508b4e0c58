package transfers

import (
	"context"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v2"
	"github.com/holiman/uint256"

	"github.com/curation-ledger/curation_ledger/internal/accounts"
	"github.com/curation-ledger/curation_ledger/internal/amount"
	"github.com/curation-ledger/curation_ledger/internal/auth"
	"github.com/curation-ledger/curation_ledger/internal/ledger"
)

// Handler exposes holder transfer and allowance endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a transfer handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type transferRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

type allowanceRequest struct {
	Spender string `json:"spender"`
	Amount  string `json:"amount"`
}

type transferResponse struct {
	Transfer accounts.EventView   `json:"transfer"`
	From     accounts.AccountView `json:"from"`
	To       accounts.AccountView `json:"to"`
}

func caller(c *fiber.Ctx) (common.Address, error) {
	account, ok := c.Locals(auth.AccountLocal).(common.Address)
	if !ok {
		return common.Address{}, fiber.NewError(http.StatusUnauthorized, "missing caller")
	}
	return account, nil
}

// Transfer moves shares out of the caller's account.
func (h *Handler) Transfer(c *fiber.Ctx) error {
	from, err := caller(c)
	if err != nil {
		return err
	}
	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	to, err := ledger.ParseAddress(req.To)
	if err != nil {
		return err
	}
	amt, err := amount.Parse(req.Amount)
	if err != nil {
		return err
	}

	res, err := h.service.Transfer(c.UserContext(), TransferInput{Caller: from, To: to, Amount: amt})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(newTransferResponse(res))
}

// TransferFrom spends the caller's allowance over another holder.
func (h *Handler) TransferFrom(c *fiber.Ctx) error {
	spender, err := caller(c)
	if err != nil {
		return err
	}
	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	from, err := ledger.ParseAddress(req.From)
	if err != nil {
		return err
	}
	to, err := ledger.ParseAddress(req.To)
	if err != nil {
		return err
	}
	amt, err := amount.Parse(req.Amount)
	if err != nil {
		return err
	}

	res, err := h.service.TransferFrom(c.UserContext(), DelegatedTransferInput{Caller: spender, From: from, To: to, Amount: amt})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(newTransferResponse(res))
}

// Approve sets the allowance the caller grants a spender.
func (h *Handler) Approve(c *fiber.Ctx) error {
	return h.allowance(c, h.service.Approve)
}

// IncreaseAllowance raises the allowance the caller grants a spender.
func (h *Handler) IncreaseAllowance(c *fiber.Ctx) error {
	return h.allowance(c, h.service.IncreaseAllowance)
}

// DecreaseAllowance lowers the allowance the caller grants a spender.
func (h *Handler) DecreaseAllowance(c *fiber.Ctx) error {
	return h.allowance(c, h.service.DecreaseAllowance)
}

func (h *Handler) allowance(c *fiber.Ctx, apply func(ctx context.Context, in AllowanceInput) (uint256.Int, error)) error {
	owner, err := caller(c)
	if err != nil {
		return err
	}
	var req allowanceRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	spender, err := ledger.ParseAddress(req.Spender)
	if err != nil {
		return err
	}
	amt, err := amount.Parse(req.Amount)
	if err != nil {
		return err
	}

	value, err := apply(c.UserContext(), AllowanceInput{Owner: owner, Spender: spender, Amount: amt})
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"owner":     owner.Hex(),
		"spender":   spender.Hex(),
		"allowance": amount.Format(value),
	})
}

// Register mounts the handler on an authenticated router.
func (h *Handler) Register(router fiber.Router) {
	router.Post("/transfers", h.Transfer)
	router.Post("/transfers/delegated", h.TransferFrom)
	router.Post("/approvals", h.Approve)
	router.Post("/approvals/increase", h.IncreaseAllowance)
	router.Post("/approvals/decrease", h.DecreaseAllowance)
}

func newTransferResponse(res Result) transferResponse {
	return transferResponse{
		Transfer: accounts.NewEventView(res.Event),
		From:     accounts.NewAccountView(accounts.Summary{Address: res.Event.From, Account: res.From, AsOf: res.CompletedAt}),
		To:       accounts.NewAccountView(accounts.Summary{Address: res.Event.To, Account: res.To, AsOf: res.CompletedAt}),
	}
}
