package server

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curation-ledger/curation_ledger/internal/config"
	"github.com/curation-ledger/curation_ledger/internal/identity"
	"github.com/curation-ledger/curation_ledger/internal/logging"
)

const (
	governorAddr = "0x00000000000000000000000000000000000000Aa"
	otherAddr    = "0x0000000000000000000000000000000000000002"
)

type harness struct {
	t     *testing.T
	srv   *Server
	cache *redis.Client
}

func newHarness(t *testing.T, opts ...func(*config.Config)) *harness {
	t.Helper()
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = cache.Close() })

	cfg := config.Config{
		AppName:         "CurationLedgerTest",
		Env:             "test",
		Port:            "0",
		IdempotencyTTL:  time.Minute,
		JWTSecret:       "access",
		RefreshSecret:   "refresh",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
		GovernorAddress: governorAddr,
		GovernorSecret:  "governor secret",
		TokenName:       "Graph Curation Share",
		TokenSymbol:     "GCS",
		EventStream:     "ledger:transfers",
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	srv, err := New(cfg, nil, cache, logging.Discard())
	require.NoError(t, err)
	return &harness{t: t, srv: srv, cache: cache}
}

func (h *harness) call(method, path, token, body string) (int, map[string]any) {
	h.t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", uuid.NewString())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := h.srv.App().Test(req, -1)
	require.NoError(h.t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(h.t, err)
	out := map[string]any{}
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(h.t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func (h *harness) login(address, secret string) string {
	h.t.Helper()
	status, body := h.call(http.MethodPost, "/api/v1/auth/login", "", `{"address":"`+address+`","secret":"`+secret+`"}`)
	require.Equal(h.t, http.StatusOK, status, body)
	return body["access_token"].(string)
}

func newAccountKey(t *testing.T) (*ecdsa.PrivateKey, string) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return key, crypto.PubkeyToAddress(key.PublicKey).Hex()
}

// register claims address with a signature made by key.
func (h *harness) register(key *ecdsa.PrivateKey, address, secret string) (int, map[string]any) {
	h.t.Helper()
	sig, err := identity.SignRegistration(key, secret)
	require.NoError(h.t, err)
	return h.call(http.MethodPost, "/api/v1/principals", "",
		`{"address":"`+address+`","secret":"`+secret+`","signature":"`+sig+`"}`)
}

func TestCurationLifecycle(t *testing.T) {
	h := newHarness(t)
	curatorKey, curatorAddr := newAccountKey(t)

	status, body := h.register(curatorKey, curatorAddr, "curator secret")
	require.Equal(t, http.StatusCreated, status, body)

	governor := h.login(governorAddr, "governor secret")
	curator := h.login(curatorAddr, "curator secret")

	status, body = h.call(http.MethodPost, "/api/v1/mint", governor, `{"account":"`+curatorAddr+`","amount":"100","deposit":"10"}`)
	require.Equal(t, http.StatusCreated, status, body)

	status, body = h.call(http.MethodPost, "/api/v1/mint", curator, `{"account":"`+curatorAddr+`","amount":"100","deposit":"10"}`)
	assert.Equal(t, http.StatusForbidden, status, body)

	status, body = h.call(http.MethodPost, "/api/v1/transfers", curator, `{"to":"`+otherAddr+`","amount":"50"}`)
	require.Equal(t, http.StatusCreated, status, body)

	status, body = h.call(http.MethodGet, "/api/v1/accounts/"+otherAddr, "", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "50", body["balance"])
	assert.Equal(t, "5", body["deposit"])

	status, body = h.call(http.MethodGet, "/api/v1/accounts/"+curatorAddr+"/value?amount=33", "", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "3.3", body["value"])

	status, body = h.call(http.MethodPost, "/api/v1/burn", governor, `{"account":"`+curatorAddr+`","amount":"50"}`)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "5", body["released_deposit"])

	status, body = h.call(http.MethodGet, "/api/v1/supply", "", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "50", body["total_supply"])

	// mint, transfer and burn each land on the stream once
	length, err := h.cache.XLen(context.Background(), "ledger:transfers").Result()
	require.NoError(t, err)
	assert.EqualValues(t, 3, length)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	h := newHarness(t)

	status, _ := h.call(http.MethodPost, "/api/v1/transfers", "", `{"to":"`+otherAddr+`","amount":"1"}`)
	assert.Equal(t, http.StatusUnauthorized, status)

	governor := h.login(governorAddr, "governor secret")
	status, body := h.call(http.MethodGet, "/api/v1/me", governor, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["governor"])

	status, _ = h.call(http.MethodPost, "/api/v1/auth/logout", governor, "")
	require.Equal(t, http.StatusOK, status)

	status, _ = h.call(http.MethodGet, "/api/v1/me", governor, "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestGovernorAddressCannotBeClaimed(t *testing.T) {
	governorKey, governor := newAccountKey(t)
	h := newHarness(t, func(cfg *config.Config) {
		cfg.GovernorAddress = governor
		cfg.GovernorSecret = ""
	})

	// even the governor key itself cannot register over HTTP
	status, body := h.register(governorKey, governor, "attacker pw")
	assert.Equal(t, http.StatusForbidden, status, body)

	status, _ = h.call(http.MethodPost, "/api/v1/auth/login", "", `{"address":"`+governor+`","secret":"attacker pw"}`)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = h.call(http.MethodGet, "/api/v1/supply", "", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "0", body["total_supply"])
}

func TestRegistrationRequiresAccountKey(t *testing.T) {
	h := newHarness(t)
	_, victim := newAccountKey(t)
	attackerKey, _ := newAccountKey(t)

	status, body := h.register(attackerKey, victim, "attacker pw")
	assert.Equal(t, http.StatusForbidden, status, body)

	status, body = h.call(http.MethodPost, "/api/v1/principals", "", `{"address":"`+victim+`","secret":"attacker pw"}`)
	assert.Equal(t, http.StatusForbidden, status, body)

	status, _ = h.call(http.MethodPost, "/api/v1/auth/login", "", `{"address":"`+victim+`","secret":"attacker pw"}`)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t)

	status, body := h.call(http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"postgres": "disabled", "redis": "ok"}, body["status"])

	h.call(http.MethodGet, "/api/v1/token", "", "")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err := h.srv.App().Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `curation_ledger_http_requests_total{method="GET",route="/api/v1/token",status="200"} 1`)
}
