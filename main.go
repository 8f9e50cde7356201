package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"clinicfront/config"
	"clinicfront/handlers"
	"clinicfront/middleware"
	"clinicfront/routes"
	"clinicfront/services/clinicapi"
	"clinicfront/services/content"
	"clinicfront/services/queue"
	"clinicfront/services/runtimeconfig"
	"clinicfront/services/session"
	"clinicfront/services/storage"
	"clinicfront/telemetry"
	"clinicfront/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const (
	serviceName          = "clinicfront"
	sessionSweepInterval = 10 * time.Minute
)

func main() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger := utils.GetLogger()

	shutdownTracing := telemetry.Setup(serviceName)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	loader := runtimeconfig.NewLoader(runtimeconfig.Options{
		URL:      cfg.RuntimeConfigURL,
		MaxTries: uint(cfg.RuntimeConfigRetries),
		Logger:   logger.Named("runtimeconfig"),
	})
	if _, err := loader.Load(ctx); err != nil {
		// Pages answer 503 until a later request loads it.
		logger.Sugar().Errorf("main: runtime config not loaded yet: %v", err)
	}

	api := clinicapi.New(loader,
		clinicapi.WithTimeout(cfg.APITimeout()),
		clinicapi.WithLogger(logger.Named("clinicapi")),
	)

	sessions := session.NewManager(sessionStore(ctx, cfg, logger), session.ManagerConfig{
		CookieName: cfg.SessionCookie,
		TTL:        cfg.SessionTTL(),
		Secure:     cfg.CookieSecure,
		Logger:     logger.Named("session"),
	})

	feedAuth := handlers.NewFeedAuth(cfg.QueueFeedToken, logger.Named("feed"))
	feed := queue.NewFeed(api, queue.FeedConfig{
		Interval: cfg.PollInterval(),
		Timeout:  cfg.APITimeout(),
		Decorate: feedAuth.Decorate,
		Logger:   logger.Named("feed"),
	})
	queueService := queue.NewService(api, feed, logger.Named("queue"))
	contentManager := content.NewManager(api, mediaUploader(cfg, logger), logger.Named("content"))

	handlerBundle := handlers.NewHandlerBundle(handlers.Deps{
		Config:   cfg,
		Sessions: sessions,
		Loader:   loader,
		API:      api,
		Queue:    queueService,
		Feed:     feed,
		FeedAuth: feedAuth,
		Content:  contentManager,
		Logger:   logger,
	})

	tmpl, err := handlers.LoadTemplates()
	if err != nil {
		logger.Sugar().Fatalf("main: failed to parse templates: %v", err)
	}

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.SetHTMLTemplate(tmpl)
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.SessionMiddleware(sessions))

	limiter := middleware.NewRateLimiter(cfg.MaxRequestsPerMin)
	limiter.StartCleanup(ctx, 5*time.Minute)

	routes.RegisterRoutes(router, handlerBundle, cfg, limiter.Middleware())

	utils.StartHealthMonitor(ctx, utils.HealthCheckInterval, []utils.HealthCheck{
		{Name: "runtime_config", Probe: func(ctx context.Context) error {
			_, err := loader.Load(ctx)
			return err
		}},
		{Name: "clinic_api", Probe: func(ctx context.Context) error {
			_, err := api.ListServices(ctx)
			return err
		}},
		{Name: "session_store", Probe: sessions.Store().Ping},
	})

	port := cfg.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              "0.0.0.0:" + port,
		Handler:           otelhttp.NewHandler(protect(cfg, router), serviceName),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Sugar().Warnf("main: tracing shutdown: %v", err)
	}
	_ = logger.Sync()

	logger.Sugar().Info("main: server stopped gracefully")
}

// sessionStore picks redis when configured and reachable, memory otherwise.
// The memory store is swept in the background; redis expires keys itself.
func sessionStore(ctx context.Context, cfg config.Config, logger *zap.Logger) session.Store {
	if strings.EqualFold(cfg.SessionStore, "redis") {
		if err := utils.InitSessionCache(); err != nil {
			logger.Sugar().Fatalf("main: session store: %v", err)
		}
		return session.NewRedisStore(utils.GetSessionCacheClient())
	}
	store := session.NewMemoryStore()
	store.StartCleanup(ctx, sessionSweepInterval)
	return store
}

// mediaUploader returns nil for passthrough, which sends files to the API.
func mediaUploader(cfg config.Config, logger *zap.Logger) storage.Uploader {
	if !strings.EqualFold(cfg.MediaStorage, "cloudinary") {
		return nil
	}
	up, err := storage.NewCloudinaryUploader(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey,
		cfg.CloudinaryAPISecret, cfg.CloudinaryFolder, logger.Named("storage"))
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize cloudinary: %v", err)
	}
	return up
}

// protect adds CSRF tokens to every form when CSRF_KEY is set. The SockJS
// transports post without a form token and carry their own session check.
func protect(cfg config.Config, h http.Handler) http.Handler {
	if cfg.CSRFKey == "" {
		return h
	}
	guarded := csrf.Protect([]byte(cfg.CSRFKey),
		csrf.Secure(cfg.CookieSecure),
		csrf.Path("/"),
		csrf.FieldName("csrf_token"),
	)(h)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/realtime/") {
			r = csrf.UnsafeSkipCheck(r)
		}
		guarded.ServeHTTP(w, r)
	})
}
