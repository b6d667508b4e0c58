package routes

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/curation-ledger/curation_ledger/internal/accounts"
	"github.com/curation-ledger/curation_ledger/internal/auth"
	"github.com/curation-ledger/curation_ledger/internal/config"
	"github.com/curation-ledger/curation_ledger/internal/identity"
	"github.com/curation-ledger/curation_ledger/internal/issuance"
	"github.com/curation-ledger/curation_ledger/internal/ledger"
	"github.com/curation-ledger/curation_ledger/internal/metrics"
	"github.com/curation-ledger/curation_ledger/internal/middleware"
	"github.com/curation-ledger/curation_ledger/internal/notification"
	"github.com/curation-ledger/curation_ledger/internal/transfers"
)

const loginAttemptsPerMinute = 5

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg     config.Config
	DB      *pgxpool.Pool
	Cache   *redis.Client
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though config also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.Env)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.Env)
		}
		if d.Cfg.GovernorSecret == "" {
			return fmt.Errorf("governor secret is required when APP_ENV=%s", d.Cfg.Env)
		}
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}

	governor, err := ledger.ParseAddress(d.Cfg.GovernorAddress)
	if err != nil {
		return fmt.Errorf("governor address: %w", err)
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(d.Metrics.Middleware())
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	RegisterHealthRoutes(app, d)
	app.Get("/metrics", d.Metrics.Handler())

	// Ledger
	var store ledger.Store
	if d.DB != nil {
		store = ledger.NewPostgresStore(d.DB)
	} else {
		store = ledger.NewMemoryStore()
	}
	sinks := notification.Fanout{notification.NewLoggerNotifier(d.Logger)}
	if d.Cache != nil && d.Cfg.EventStream != "" {
		sinks = append(sinks, notification.NewRedisStreamNotifier(d.Cache, d.Cfg.EventStream, d.Cfg.EventStreamMaxLen))
	}
	engine, err := ledger.NewEngine(store, ledger.Options{
		Governor: governor,
		Sink:     sinks,
		Observer: d.Metrics,
		Logger:   d.Logger,
	})
	if err != nil {
		return err
	}

	// Identity and auth
	var identityRepo identity.Repository
	if d.DB != nil {
		identityRepo = identity.NewPostgresRepository(d.DB)
	} else {
		identityRepo = identity.NewMemoryRepository()
	}
	identitySvc := identity.NewService(identityRepo, governor)
	if d.Cfg.GovernorSecret == "" {
		d.Logger.Warn("GOVERNOR_SECRET not set, mint and burn are unreachable over HTTP")
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := identitySvc.Ensure(ctx, identity.Credentials{Address: governor.Hex(), Secret: d.Cfg.GovernorSecret}); err != nil {
			return fmt.Errorf("seed governor principal: %w", err)
		}
	}
	authSvc := auth.NewService(d.Cfg, identityRepo)

	accountsHandler := accounts.NewHandler(accounts.NewService(engine, d.Cfg.TokenName, d.Cfg.TokenSymbol))
	transfersHandler := transfers.NewHandler(transfers.NewService(engine))
	issuanceHandler := issuance.NewHandler(issuance.NewService(engine))

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": middleware.RequestIDFrom(c),
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public routes
	accountsHandler.Register(api)
	RegisterIdentityRoutes(api, identity.NewHandler(identitySvc))
	authHandler := auth.NewHandler(identitySvc, authSvc)
	RegisterAuthRoutes(api, authHandler, middleware.LoginRateLimit(d.Cache, loginAttemptsPerMinute))

	// Protected routes
	protected := api.Group("", middleware.JWTAuth(authSvc))
	protected.Post("/auth/logout", authHandler.Logout)
	protected.Get("/me", func(c *fiber.Ctx) error {
		caller, _ := c.Locals(auth.AccountLocal).(common.Address)
		p, err := identitySvc.Lookup(c.UserContext(), caller)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "principal not found")
		}
		acc, err := engine.Account(c.UserContext(), caller)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"account":       caller.Hex(),
			"governor":      caller == engine.Governor(),
			"token_version": p.TokenVersion,
			"created_at":    p.CreatedAt,
			"holdings":      accounts.NewAccountView(accounts.Summary{Address: caller, Account: acc, AsOf: time.Now().UTC()}),
		})
	})
	transfersHandler.Register(protected)
	issuanceHandler.Register(protected)

	return nil
}
