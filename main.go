package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/HARIOM-JHA01/addmy-partner/apiclient"
	"github.com/HARIOM-JHA01/addmy-partner/config"
	"github.com/HARIOM-JHA01/addmy-partner/database"
	"github.com/HARIOM-JHA01/addmy-partner/geo"
	"github.com/HARIOM-JHA01/addmy-partner/handlers"
	"github.com/HARIOM-JHA01/addmy-partner/logging"
	"github.com/HARIOM-JHA01/addmy-partner/middleware"
	"github.com/HARIOM-JHA01/addmy-partner/session"
	"github.com/HARIOM-JHA01/addmy-partner/views"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Stored backend tokens are dropped after this long. Redis and Postgres count
// from the last login, the memory store from the last use.
const (
	tokenRetention    = 30 * 24 * time.Hour
	tokenRetentionSQL = "30 days"
)

func main() {
	envErr := godotenv.Load()
	cfg := config.Load()

	if err := logging.InitLogger(cfg.IsRelease(), cfg.LogLevel); err != nil {
		panic(err)
	}
	log := logging.Logger
	defer log.Sync()

	if envErr != nil {
		log.Info(".env file not found, using system environment")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	tokens, closeTokens, err := openTokenStore(cfg, log)
	if err != nil {
		log.Fatal("token store unavailable", zap.String("store", cfg.TokenStore), zap.Error(err))
	}
	defer closeTokens()

	client, err := apiclient.New(apiclient.Config{
		BaseURL: cfg.BackendURL,
		Timeout: cfg.BackendTimeout,
	}, log)
	if err != nil {
		log.Fatal("backend client", zap.Error(err))
	}

	mgr := session.NewManager(session.Deps{
		Tokens:      tokens,
		Client:      client,
		Geo:         geo.NewIPAPI(cfg.GeoLookupURL, cfg.GeoTimeout),
		Log:         log,
		InitTimeout: cfg.BackendTimeout,
	})
	limiter := middleware.NewRateLimiter(cfg.LoginRateLimit, cfg.LoginRateWindow, log)

	sched := cron.New()
	if _, err := sched.AddFunc(cfg.SessionSweepSpec, func() {
		mgr.Sweep(cfg.SessionIdleTTL)
		limiter.Cleanup(cfg.LoginRateWindow)
		if mem, ok := tokens.(*session.MemoryStore); ok {
			if n := mem.Purge(tokenRetention); n > 0 {
				log.Info("purged stale tokens", zap.Int("count", n))
			}
		}
		if cfg.TokenStore == "postgres" {
			n, err := database.PurgeStaleTokens(context.Background(), tokenRetentionSQL)
			if err != nil {
				log.Warn("purge stale tokens", zap.Error(err))
			} else if n > 0 {
				log.Info("purged stale tokens", zap.Int64("count", n))
			}
		}
	}); err != nil {
		log.Fatal("invalid SESSION_SWEEP_SPEC", zap.String("spec", cfg.SessionSweepSpec), zap.Error(err))
	}
	sched.Start()
	defer sched.Stop()

	if cfg.IsRelease() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(log))
	r.Use(middleware.Metrics())
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		log.Fatal("invalid TRUSTED_PROXIES", zap.Error(err))
	}
	r.Use(middleware.SetupCORS(cfg))

	tmpl, err := views.Load()
	if err != nil {
		log.Fatal("templates", zap.Error(err))
	}
	r.SetHTMLTemplate(tmpl)

	portal := handlers.NewPortal(cfg, log)
	portal.Register(r,
		middleware.Sessions(mgr, middleware.CookieConfig{
			Name:   cfg.SessionCookie,
			Secret: cfg.SessionSecret,
			Secure: cfg.CookieSecure,
			MaxAge: cfg.SessionIdleTTL,
		}, log),
		middleware.RequireAuth(cfg.SessionInitWait),
		limiter.Middleware(portal.LoginThrottled),
	)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("partner portal listening",
			zap.String("addr", srv.Addr),
			zap.String("mode", cfg.Env),
			zap.String("backend", cfg.BackendURL),
			zap.String("token_store", cfg.TokenStore),
			zap.Bool("telegram_dev_mode", cfg.TelegramDevMode))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}

// openTokenStore returns the configured token store and a function that
// releases its resources.
func openTokenStore(cfg *config.Config, log *zap.Logger) (session.TokenStore, func(), error) {
	switch cfg.TokenStore {
	case "redis":
		store, err := session.NewRedisStore(cfg.RedisURL, tokenRetention)
		if err != nil {
			return nil, nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			store.Close()
			return nil, nil, err
		}
		log.Info("using redis token store")
		return store, func() { store.Close() }, nil
	case "postgres":
		if err := database.InitDB(cfg); err != nil {
			return nil, nil, err
		}
		return session.NewPostgresStore(database.Pool), database.CloseDB, nil
	default:
		return session.NewMemoryStore(), func() {}, nil
	}
}
