package metrics

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curation-ledger/curation_ledger/internal/ledger"
	"github.com/curation-ledger/curation_ledger/internal/logging"
	"github.com/curation-ledger/curation_ledger/internal/middleware"
)

func TestOperationsAndRequestsExposed(t *testing.T) {
	m := New()
	m.ObserveOperation("mint", nil)
	m.ObserveOperation("mint", errors.New("only governor can call"))
	m.ObserveOperation("transfer", nil)

	app := fiber.New()
	app.Use(m.Middleware())
	app.Get("/metrics", m.Handler())
	app.Get("/api/v1/accounts/:address", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/accounts/0xabc", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(body)

	assert.Contains(t, text, `curation_ledger_operations_total{operation="mint",outcome="ok"} 1`)
	assert.Contains(t, text, `curation_ledger_operations_total{operation="mint",outcome="error"} 1`)
	assert.Contains(t, text, `curation_ledger_operations_total{operation="transfer",outcome="ok"} 1`)
	assert.Contains(t, text, `curation_ledger_http_requests_total{method="GET",route="/api/v1/accounts/:address",status="200"} 1`)
}

func TestRequestStatusMatchesRenderedError(t *testing.T) {
	m := New()
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(logging.Discard())})
	app.Use(m.Middleware())
	app.Get("/metrics", m.Handler())
	app.Post("/api/v1/mint", func(c *fiber.Ctx) error {
		return fmt.Errorf("mint: %w", ledger.ErrUnauthorized)
	})
	app.Post("/api/v1/transfers", func(c *fiber.Ctx) error {
		return ledger.ErrInsufficientBalance
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/mint", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/transfers", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(body)

	assert.Contains(t, text, `curation_ledger_http_requests_total{method="POST",route="/api/v1/mint",status="403"} 1`)
	assert.Contains(t, text, `curation_ledger_http_requests_total{method="POST",route="/api/v1/transfers",status="422"} 1`)
	assert.NotContains(t, text, `status="500"`)
}
