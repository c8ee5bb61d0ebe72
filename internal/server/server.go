package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/chystahata/site/api/internal/account"
	"github.com/chystahata/site/api/internal/config"
	"github.com/chystahata/site/api/internal/content/application"
	"github.com/chystahata/site/api/internal/events"
	adminhttp "github.com/chystahata/site/api/internal/interfaces/http/admin"
	"github.com/chystahata/site/api/internal/interfaces/http/common"
	httpmiddleware "github.com/chystahata/site/api/internal/interfaces/http/middleware"
	publichttp "github.com/chystahata/site/api/internal/interfaces/http/public"
	"github.com/chystahata/site/api/internal/kv"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Deps are the infrastructure pieces built by the caller. Store and Bus are required.
type Deps struct {
	Store    kv.Store
	Bus      *events.Bus
	Notifier publichttp.Notifier
	Uploader adminhttp.MediaUploader
	// Closers run after the HTTP server has stopped, in order.
	Closers []func(ctx context.Context) error
}

// Server owns the HTTP lifecycle and is the composition root of the application
// services and their handlers.
type Server struct {
	logger  *zap.Logger
	addr    string
	store   kv.Store
	handler http.Handler
	closers []func(ctx context.Context) error
}

// New builds every application service on top of deps and mounts the routes.
func New(cfg config.Config, deps Deps) (*Server, error) {
	if deps.Store == nil {
		return nil, errors.New("server: store is required")
	}
	if deps.Bus == nil {
		return nil, errors.New("server: event bus is required")
	}
	logger := cfg.ServerLog
	if logger == nil {
		logger = zap.NewNop()
	}

	accounts, err := account.NewService(account.Config{
		Store:           deps.Store,
		Publisher:       deps.Bus,
		Logger:          logger.Named("account"),
		DefaultPassword: cfg.AdminDefaultPassword,
		ResetKey:        cfg.AdminResetKey,
		SessionSecret:   []byte(cfg.SessionSecret),
		SessionIssuer:   cfg.SessionIssuer,
		SessionTTL:      cfg.SessionTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("server: account service: %w", err)
	}
	if cfg.GeneratedSessionSecret() {
		logger.Warn("ADMIN_SESSION_SECRET not set, sessions will not survive a restart")
	}
	if strings.TrimSpace(cfg.AdminResetKey) == "" {
		logger.Info("ADMIN_RESET_KEY not set, password reset endpoint is disabled")
	}

	contentLog := logger.Named("content")
	settings := application.NewSiteSettings(deps.Store, deps.Bus, contentLog)
	services := application.NewServiceCatalog(deps.Store, deps.Bus, contentLog)
	reviews := application.NewReviewService(deps.Store, deps.Bus, contentLog)
	gallery := application.NewGalleryService(deps.Store, deps.Bus, contentLog)
	blog := application.NewBlogService(deps.Store, deps.Bus, contentLog)
	pricing := application.NewPricingService(deps.Store, deps.Bus, contentLog)
	orders := application.NewOrderService(deps.Store, deps.Bus, contentLog)
	transfer := application.NewTransferService(deps.Store, settings, deps.Bus, contentLog)

	httpLog := logger.Named("http")
	proxies, err := httpmiddleware.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	publicHandler := publichttp.NewHandler(publichttp.Config{
		Logger:        httpLog,
		Services:      services,
		Reviews:       reviews,
		Gallery:       gallery,
		Blog:          blog,
		Pricing:       pricing,
		Orders:        orders,
		Settings:      settings,
		Account:       accounts,
		Notifier:      deps.Notifier,
		Events:        deps.Bus,
		LoginLimiter:  httpmiddleware.NewRateLimiter(cfg.LoginRatePerMinute, httpLog),
		SubmitLimiter: httpmiddleware.NewRateLimiter(cfg.SubmitRatePerMinute, httpLog),
	})
	adminHandler := adminhttp.NewHandler(adminhttp.Config{
		Logger:   httpLog.Named("admin"),
		Services: services,
		Reviews:  reviews,
		Gallery:  gallery,
		Blog:     blog,
		Pricing:  pricing,
		Orders:   orders,
		Settings: settings,
		Transfer: transfer,
		Account:  accounts,
		Uploader: deps.Uploader,
	})

	srv := &Server{
		logger:  logger,
		addr:    cfg.Addr,
		store:   deps.Store,
		closers: deps.Closers,
	}

	api := chi.NewRouter()
	api.Use(httpmiddleware.RequireAnonKey(cfg.AnonKey, httpLog, cfg.BasePath+"/health"))
	api.Get("/health", srv.healthHandler())
	api.Group(publicHandler.Register)
	api.Group(func(r chi.Router) {
		r.Use(httpmiddleware.RequireAdmin(accounts, httpLog))
		adminHandler.Register(r)
	})

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(proxies.RealIP)
	router.Use(httpmiddleware.RequestLogger(httpLog))
	router.Use(middleware.Recoverer)
	router.Use(withCORS(cfg.AllowedOrigins))
	router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		common.WriteError(httpLog, w, http.StatusNotFound, "route not found")
	})
	if cfg.BasePath == "" {
		router.Mount("/", api)
	} else {
		router.Mount(cfg.BasePath, api)
	}
	srv.handler = router

	return srv, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run starts the HTTP server and blocks until it stops or a shutdown signal arrives.
func (s *Server) Run() error {
	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.addr))
		errChan <- httpServer.ListenAndServe()
	}()

	err := waitForShutdown(httpServer, errChan, s.logger)
	s.shutdown(context.Background())
	return err
}

// withCORS returns a middleware adding CORS headers for the allowed origins.
func withCORS(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{})
	allowAll := false
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if origin == "*" {
			allowAll = true
			continue
		}
		allowed[origin] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if origin == "" || (!allowAll && len(allowed) > 0 && !originAllowed(origin, allowed)) {
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusNoContent)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization,Content-Type,"+common.AdminTokenHeader+","+common.ResetKeyHeader)
			w.Header().Set("Access-Control-Max-Age", "300")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func originAllowed(origin string, allowed map[string]struct{}) bool {
	if len(allowed) == 0 {
		return true
	}
	_, ok := allowed[origin]
	return ok
}

type healthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// healthHandler reports store reachability only.
func (s *Server) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		now := time.Now().UTC().Format(time.RFC3339)
		if err := s.store.Ping(ctx); err != nil {
			s.logger.Warn("health check failed", zap.Error(err))
			common.WriteJSON(s.logger, w, http.StatusServiceUnavailable, common.Envelope{
				Success: false,
				Data:    healthResponse{Status: "degraded", Time: now},
				Error:   "store unavailable",
			})
			return
		}
		common.WriteData(s.logger, w, http.StatusOK, healthResponse{Status: "ok", Time: now})
	}
}

func (s *Server) shutdown(ctx context.Context) {
	for _, closeFn := range s.closers {
		closeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := closeFn(closeCtx); err != nil {
			s.logger.Warn("shutdown step failed", zap.Error(err))
		}
		cancel()
	}
}

// waitForShutdown watches ListenAndServe and OS signals and stops the server gracefully.
func waitForShutdown(httpServer *http.Server, errChan <-chan error, logger *zap.Logger) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
	case sig := <-sigChan:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			logger.Warn("http server shutdown failed", zap.Error(err))
		}
	}
	return nil
}
