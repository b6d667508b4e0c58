package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/curation-ledger/curation_ledger/internal/amount"
	"github.com/curation-ledger/curation_ledger/internal/ledger"
)

// ErrorHandler renders every handler error as {"error": message}, mapping
// ledger failures to client statuses.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, message := classify(err)
		if status >= http.StatusInternalServerError {
			logger.Error("request failed",
				slog.String("path", c.Path()),
				slog.String("request_id", RequestIDFrom(c)),
				slog.Any("error", err),
			)
		}
		return c.Status(status).JSON(fiber.Map{"error": message})
	}
}

func classify(err error) (int, string) {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code, fe.Message
	case errors.Is(err, ledger.ErrUnauthorized):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, ledger.ErrInsufficientBalance),
		errors.Is(err, ledger.ErrInsufficientAllowance):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, ledger.ErrInvalidAccount),
		errors.Is(err, ledger.ErrDepositWithoutBalance),
		errors.Is(err, ledger.ErrAmountOverflow),
		errors.Is(err, amount.ErrInvalid),
		errors.Is(err, amount.ErrOverflow):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
