package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/curation-ledger/curation_ledger/internal/identity"
)

// RegisterIdentityRoutes wires principal registration.
func RegisterIdentityRoutes(r fiber.Router, h *identity.Handler) {
	r.Post("/principals", h.Register)
}
