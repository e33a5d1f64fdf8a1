package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/baechuer/real-time-ressys/services/account-service/internal/application/admin"
	"github.com/baechuer/real-time-ressys/services/account-service/internal/application/auth"
	"github.com/baechuer/real-time-ressys/services/account-service/internal/audit"
	"github.com/baechuer/real-time-ressys/services/account-service/internal/config"
	"github.com/baechuer/real-time-ressys/services/account-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/account-service/internal/infrastructure/db/migrations"
	"github.com/baechuer/real-time-ressys/services/account-service/internal/infrastructure/db/postgres"
	"github.com/baechuer/real-time-ressys/services/account-service/internal/infrastructure/memory"
	rabbitmq_pub "github.com/baechuer/real-time-ressys/services/account-service/internal/infrastructure/messaging/rabbitmq"
	"github.com/baechuer/real-time-ressys/services/account-service/internal/infrastructure/redis"
	"github.com/baechuer/real-time-ressys/services/account-service/internal/infrastructure/security"
	"github.com/baechuer/real-time-ressys/services/account-service/internal/logger"
	http_handlers "github.com/baechuer/real-time-ressys/services/account-service/internal/transport/http/handlers"
	"github.com/baechuer/real-time-ressys/services/account-service/internal/transport/http/middleware"
	"github.com/baechuer/real-time-ressys/services/account-service/internal/transport/http/response"
	"github.com/baechuer/real-time-ressys/services/account-service/internal/transport/http/router"
)

const issuer = "account-service"

/*
========================
 Public entry (prod)
========================
*/

func NewServer() (*http.Server, func(), error) {
	return newServer(defaultDeps())
}

// NewServerWithDeps allows injecting dependencies for testing
func NewServerWithDeps(deps Deps) (*http.Server, func(), error) {
	return newServer(deps)
}

/*
========================
 Dependency injection
========================
*/

type Deps struct {
	LoadConfig func() (*config.Config, error)

	NewDB func(dsn string, debug bool) (*sql.DB, error)

	// MigrateDB runs schema migrations when DB_MIGRATE is on.
	MigrateDB func(ctx context.Context, db *sql.DB) error

	NewRedis func(addr, password string, db int) RedisClient

	NewPublisher func(rabbitURL, exchange string) (Publisher, error)

	NewRouter func(router.Deps) (http.Handler, error)
}

type RedisClient interface {
	Ping(ctx context.Context) error
	Close() error
}

type Publisher interface {
	auth.EventPublisher
	Close() error
}

// accountStore is what both store adapters offer.
type accountStore interface {
	auth.AccountRepo
	Ping(ctx context.Context) error
}

/*
========================
 Core bootstrap logic
========================
*/

func newServer(deps Deps) (*http.Server, func(), error) {
	lg := logger.Logger

	// 0) config
	cfg, err := deps.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	proxies, err := middleware.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return nil, nil, err
	}

	var cleanupFns []func()

	// 1) account store
	var store accountStore
	switch cfg.Store {
	case config.StoreMemory:
		lg.Warn().Msg("using in-memory account store; data is lost on restart")
		store = memory.NewAccountRepo()
	default:
		db, err := deps.NewDB(cfg.DBAddr, cfg.DBDebug)
		if err != nil {
			return nil, nil, err
		}
		cleanupFns = append(cleanupFns, func() { _ = db.Close() })

		if cfg.DBMigrate && deps.MigrateDB != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			err := deps.MigrateDB(ctx, db)
			cancel()
			if err != nil {
				runCleanup(cleanupFns)
				return nil, nil, err
			}
		}
		store = postgres.NewAccountRepo(db)
	}

	// 2) redis (best-effort)
	var redisCli *redis.Client
	if deps.NewRedis != nil && cfg.RedisAddr != "" {
		c := deps.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := c.Ping(ctx)
		cancel()

		if err != nil {
			lg.Warn().Err(err).Msg("redis unavailable; using in-memory sessions")
			_ = c.Close()
		} else if rc, ok := c.(*redis.Client); ok {
			lg.Info().Msg("redis connected")
			redisCli = rc
			cleanupFns = append(cleanupFns, func() { _ = rc.Close() })
		} else {
			_ = c.Close()
		}
	}

	// 3) sessions
	var sessions auth.SessionStore
	if redisCli != nil {
		sessions = redis.NewSessionStore(redisCli)
	} else {
		sessions = memory.NewSessionStore()
	}

	// 4) publisher
	pub, err := newPublisher(deps, cfg, lg)
	if err != nil {
		runCleanup(cleanupFns)
		return nil, nil, err
	}
	cleanupFns = append(cleanupFns, func() { _ = pub.Close() })

	// 5) security
	hasher := security.NewBcryptHasher(cfg.BcryptCost)
	resets := security.NewResetTokenSigner(cfg.SecretKey, issuer)
	flash := response.NewFlash(security.NewFlashCodec(cfg.SecretKey, issuer), cfg.SecureCookies())

	// seed (restart safe)
	postgres.SeedSuperuser(context.Background(), store, hasher, cfg.SeedSuperuserEmail, cfg.SeedSuperuserPassword, lg)

	// 6) services
	auditLog := audit.New(lg)

	authSvc := auth.NewService(
		store,
		hasher,
		sessions,
		resets,
		pub,
		auth.Config{
			SessionTTL:            cfg.SessionTTL,
			PasswordResetBaseURL:  cfg.PasswordResetBaseURL,
			PasswordResetTokenTTL: cfg.PasswordResetTokenTTL,
		},
	).WithAudit(auditLog.Record)

	adminSvc := admin.NewService(store, hasher).WithAudit(auditLog.Record)

	// 7) handlers + middleware
	secureCookies := cfg.SecureCookies()

	accountH := http_handlers.NewAccountHandler(authSvc, flash, secureCookies)
	dashboardH := http_handlers.NewDashboardHandler(adminSvc, flash)
	healthH := http_handlers.NewHealthHandler(store)

	// rate limit (fail-open); limited form posts go back with a warning
	var fwLimiter *redis.FixedWindowLimiter
	if redisCli != nil && cfg.RateLimitEnabled {
		fwLimiter = redis.NewFixedWindowLimiter(redisCli)
	}
	onLimited := func(w http.ResponseWriter, r *http.Request, err error) {
		flash.Redirect(w, r, r.URL.Path, domain.NoticeFromError(err))
	}

	rl := func(key string, limit int, window time.Duration) func(http.Handler) http.Handler {
		if fwLimiter == nil {
			return nil
		}
		return middleware.RateLimitFixedWindow(
			fwLimiter,
			middleware.FixedWindowConfig{
				RouteKey: key,
				Limit:    limit,
				Window:   window,
			},
			onLimited,
		)
	}

	// 8) router
	mux, err := deps.NewRouter(router.Deps{
		Health:    healthH,
		Account:   accountH,
		Dashboard: dashboardH,

		SessionMW:   middleware.LoadSession(authSvc, secureCookies),
		SuperuserMW: middleware.RequireSuperuser(flash.Redirect),
		CSRFMW:      middleware.CSRFProtection(cfg.AllowedOrigins, response.WriteError),

		RLRegister:      rl("account.register", 5, 10*time.Minute),
		RLLogin:         rl("account.login", 5, time.Minute),
		RLPasswordReset: rl("account.password_reset", 3, 10*time.Minute),
		RLAdminActions:  rl("account.admin", 60, time.Minute),

		TrustedProxies: proxies,
	})
	if err != nil {
		runCleanup(cleanupFns)
		return nil, nil, err
	}

	// 9) server
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	done := false
	cleanup := func() {
		if done {
			return
		}
		done = true
		runCleanup(cleanupFns)
	}

	return srv, cleanup, nil
}

// newPublisher connects to RabbitMQ. In dev a missing or unreachable
// broker falls back to a logging publisher; elsewhere it is fatal.
func newPublisher(deps Deps, cfg *config.Config, lg zerolog.Logger) (Publisher, error) {
	dev := cfg.Env == "dev"
	if cfg.RabbitURL == "" {
		if !dev {
			return nil, errors.New("bootstrap: RABBIT_URL is required outside dev")
		}
		lg.Warn().Msg("RABBIT_URL not set; using noop publisher")
		return noopCloser{memory.NewNoopPublisher(lg)}, nil
	}

	pub, err := deps.NewPublisher(cfg.RabbitURL, cfg.RabbitExchange)
	if err != nil {
		if dev {
			lg.Warn().Err(err).Msg("rabbitmq unavailable; using noop publisher")
			return noopCloser{memory.NewNoopPublisher(lg)}, nil
		}
		return nil, err
	}
	return pub, nil
}

type noopCloser struct{ *memory.NoopPublisher }

func (noopCloser) Close() error { return nil }

/*
========================
 Default deps (prod)
========================
*/

func defaultDeps() Deps {
	return Deps{
		LoadConfig: config.Load,
		NewDB: func(dsn string, debug bool) (*sql.DB, error) {
			return config.NewDB(dsn, debug, logger.Logger)
		},
		MigrateDB: migrations.Up,
		NewRedis: func(addr, password string, db int) RedisClient {
			return redis.New(addr, password, db)
		},
		NewPublisher: func(url, exchange string) (Publisher, error) {
			return rabbitmq_pub.NewPublisher(url, exchange)
		},
		NewRouter: router.New,
	}
}

/*
========================
 helpers
========================
*/

func runCleanup(fns []func()) {
	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}
