package identity

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/curation-ledger/curation_ledger/internal/ledger"
)

// Handler exposes identity endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs an identity HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type registerRequest struct {
	Address   string `json:"address"`
	Secret    string `json:"secret"`
	Signature string `json:"signature"`
}

type principalResponse struct {
	ID        string    `json:"id"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

// Register handles principal onboarding. The body carries the address, the
// login secret and a personal_sign signature over RegistrationMessage.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	p, err := h.service.Register(c.UserContext(), Registration{
		Credentials: Credentials{Address: req.Address, Secret: req.Secret},
		Signature:   req.Signature,
	})
	switch {
	case errors.Is(err, ErrPrincipalExists):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrReservedAddress), errors.Is(err, ErrOwnershipProof):
		return fiber.NewError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrWeakSecret), errors.Is(err, ledger.ErrInvalidAccount):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case err != nil:
		return err
	}
	return c.Status(http.StatusCreated).JSON(principalResponse{ID: p.ID, Address: p.Address.Hex(), CreatedAt: p.CreatedAt})
}
