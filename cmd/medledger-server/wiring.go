package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/internal/config"
	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/internal/domain/access"
	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/internal/domain/audit"
	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/internal/domain/identity"
	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/internal/domain/records"
	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/internal/platform/auth"
	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/internal/platform/db"
	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/internal/platform/events"
	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/internal/platform/kv"
	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/internal/platform/middleware"
	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/internal/platform/status"
)

// stores holds one repository per component, all on the same backend.
type stores struct {
	backend    string
	identities identity.Repository
	grants     access.Repository
	records    records.Repository
	audit      audit.Repository

	pool *pgxpool.Pool
	kv   *kv.Store
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	st := &stores{backend: cfg.StoreBackend}
	switch cfg.StoreBackend {
	case config.BackendMemory:
		st.identities = identity.NewMemoryRepo()
		st.grants = access.NewMemoryRepo()
		st.records = records.NewMemoryRepo()
		st.audit = audit.NewMemoryRepo()
	case config.BackendPostgres:
		pool, err := db.NewPool(ctx, db.PoolConfig{
			URL:      cfg.DatabaseURL,
			Schema:   cfg.DBSchema,
			MaxConns: cfg.DBMaxConns,
			MinConns: cfg.DBMinConns,
		})
		if err != nil {
			return nil, err
		}
		st.pool = pool
		st.identities = identity.NewRepoPG(pool)
		st.grants = access.NewRepoPG(pool)
		st.records = records.NewRepoPG(pool)
		st.audit = audit.NewRepoPG(pool)
	case config.BackendLevelDB:
		store, err := kv.Open(cfg.LevelDBPath)
		if err != nil {
			return nil, err
		}
		st.kv = store
		st.identities = identity.NewRepoLevelDB(store)
		st.grants = access.NewRepoLevelDB(store)
		st.records = records.NewRepoLevelDB(store)
		st.audit = audit.NewRepoLevelDB(store)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
	return st, nil
}

func (s *stores) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.kv != nil {
		s.kv.Close()
	}
}

// app is the set of components behind the HTTP surface.
type app struct {
	bus      *events.Bus
	registry *identity.Registry
	graph    *access.Graph
	records  *records.Store
	ledger   *audit.Ledger
}

// newApp builds the components, seeds the bootstrap admin and, when
// enabled, attaches the recorder that mirrors state changes into the
// ledger.
func newApp(ctx context.Context, st *stores, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	bus := events.NewBus(func(e events.Event, err error) {
		logger.Error().Err(err).Str("event_id", e.ID).Str("event_type", e.Type).Msg("event handler failed")
	})

	a := &app{bus: bus, ledger: audit.NewLedger(st.audit)}
	a.registry = identity.NewRegistry(st.identities, bus)
	a.graph = access.NewGraph(st.grants, a.registry, bus)
	a.records = records.NewStore(st.records, a.registry, bus)

	if err := a.registry.Bootstrap(ctx, cfg.AdminID, cfg.AdminName); err != nil {
		return nil, fmt.Errorf("bootstrap admin: %w", err)
	}
	if cfg.AuditAutoAppend {
		audit.NewRecorder(a.ledger, logger).Attach(bus)
	}
	return a, nil
}

func (a *app) roleOf(ctx context.Context, id string) (string, error) {
	role, err := a.registry.RoleOf(ctx, id)
	return string(role), err
}

func (a *app) counters() map[string]status.CountFunc {
	byRole := func(role identity.Role) status.CountFunc {
		return func(ctx context.Context) (int, error) {
			list, err := a.registry.List(ctx, role)
			return len(list), err
		}
	}
	return map[string]status.CountFunc{
		"identities":    byRole(""),
		"doctors":       byRole(identity.RoleDoctor),
		"patients":      byRole(identity.RolePatient),
		"audit_entries": a.ledger.Count,
	}
}

func authMiddleware(cfg *config.Config) echo.MiddlewareFunc {
	switch cfg.ResolvedAuthMode() {
	case config.AuthExternal:
		return auth.JWTMiddleware(auth.JWTConfig{
			Issuer:   cfg.AuthIssuer,
			Audience: cfg.AuthAudience,
			JWKSURL:  cfg.AuthJWKSURL,
		})
	case config.AuthHMAC:
		return auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			SigningKey: []byte(cfg.JWTSigningKey),
		})
	default:
		return auth.DevAuthMiddleware(cfg.AdminID)
	}
}

// newServer builds the echo instance with global middleware, health
// endpoints and the /api/v1 routes.
func newServer(a *app, st *stores, cfg *config.Config, logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders(middleware.SecurityHeadersConfig{HSTS: cfg.TLSEnabled}))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader, auth.CallerHeader},
	}))
	e.Use(middleware.BodyLimit("256K", "1M"))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "backend": st.backend})
	})
	if st.pool != nil {
		e.GET("/health/db", db.HealthHandler(st.pool))
	}
	e.GET("/status", status.NewReporter(st.backend, a.counters()).Handler)

	rl := middleware.RateLimitConfig{RequestsPerSecond: cfg.RateLimitRPS, BurstSize: cfg.RateLimitBurst}
	if rl.RequestsPerSecond <= 0 {
		rl = middleware.DefaultRateLimitConfig()
	}

	api := e.Group("/api/v1")
	api.Use(authMiddleware(cfg))
	api.Use(middleware.RateLimit(rl))
	api.Use(middleware.RequestTimeout(30*time.Second, "/api/v1/audit/export"))

	identity.NewHandler(a.registry).RegisterRoutes(api)
	access.NewHandler(a.graph).RegisterRoutes(api)
	records.NewHandler(a.records).RegisterRoutes(api)
	audit.NewHandler(a.ledger, a.registry).RegisterRoutes(api,
		auth.RequireRole(a.roleOf, string(identity.RoleAdmin)))

	return e
}
