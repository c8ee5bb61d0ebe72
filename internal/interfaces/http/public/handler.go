package public

import (
	"context"
	"net/http"
	"time"

	"github.com/chystahata/site/api/internal/account"
	"github.com/chystahata/site/api/internal/content/application"
	"github.com/chystahata/site/api/internal/content/domain"
	"github.com/chystahata/site/api/internal/events"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Authenticator is the subset of the account service the public routes need.
type Authenticator interface {
	Check(ctx context.Context, password string) (*account.Session, error)
	AuthorizeReset(key string) error
	ResetPassword(ctx context.Context) error
}

// Notifier tells admins about new submissions. Calls may block on the network.
type Notifier interface {
	OrderCreated(ctx context.Context, order domain.Order)
	ReviewSubmitted(ctx context.Context, review domain.Review)
}

// EventStream feeds the SSE endpoint.
type EventStream interface {
	Stream(ctx context.Context, buffer int) <-chan events.Event
}

// Limiter wraps rate-limited routes.
type Limiter interface {
	Middleware(next http.Handler) http.Handler
}

// Handler wires public HTTP endpoints to application services.
type Handler struct {
	logger        *zap.Logger
	services      application.ServiceCatalog
	reviews       application.ReviewService
	gallery       application.GalleryService
	blog          application.BlogService
	pricing       application.PricingService
	orders        application.OrderService
	settings      *application.SiteSettings
	account       Authenticator
	notifier      Notifier
	events        EventStream
	loginLimiter  Limiter
	submitLimiter Limiter
	heartbeat     time.Duration
}

// Config defines dependencies required by Handler.
type Config struct {
	Logger        *zap.Logger
	Services      application.ServiceCatalog
	Reviews       application.ReviewService
	Gallery       application.GalleryService
	Blog          application.BlogService
	Pricing       application.PricingService
	Orders        application.OrderService
	Settings      *application.SiteSettings
	Account       Authenticator
	Notifier      Notifier
	Events        EventStream
	LoginLimiter  Limiter
	SubmitLimiter Limiter
	// Heartbeat is the SSE keep-alive interval; defaults to 25s.
	Heartbeat time.Duration
}

// NewHandler constructs a public HTTP handler set.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	heartbeat := cfg.Heartbeat
	if heartbeat <= 0 {
		heartbeat = 25 * time.Second
	}
	return &Handler{
		logger:        logger,
		services:      cfg.Services,
		reviews:       cfg.Reviews,
		gallery:       cfg.Gallery,
		blog:          cfg.Blog,
		pricing:       cfg.Pricing,
		orders:        cfg.Orders,
		settings:      cfg.Settings,
		account:       cfg.Account,
		notifier:      cfg.Notifier,
		events:        cfg.Events,
		loginLimiter:  cfg.LoginLimiter,
		submitLimiter: cfg.SubmitLimiter,
		heartbeat:     heartbeat,
	}
}

// Register mounts all public routes onto the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/services", h.serviceListHandler())
	r.Get("/reviews", h.reviewListHandler())
	r.Get("/gallery", h.galleryListHandler())
	r.Get("/blog", h.blogListHandler())
	r.Get("/blog/{id}", h.blogDetailHandler())
	r.Get("/pricing", h.pricingHandler())
	r.Get("/pricing/{category}", h.pricingCategoryHandler())

	r.Get("/contacts", singletonHandler(h, h.settings.Contacts))
	r.Get("/branding", singletonHandler(h, h.settings.Branding))
	r.Get("/social-media", singletonHandler(h, h.settings.SocialMedia))
	r.Get("/hero-images", singletonHandler(h, h.settings.HeroImages))
	r.Get("/benefits", singletonHandler(h, h.settings.Benefits))
	r.Get("/discount", singletonHandler(h, h.settings.Discount))

	r.With(limited(h.submitLimiter)).Post("/reviews", h.reviewSubmitHandler())
	r.With(limited(h.submitLimiter)).Post("/orders", h.orderCreateHandler())
	r.With(limited(h.loginLimiter)).Post("/check-password", h.checkPasswordHandler())
	r.With(limited(h.loginLimiter)).Post("/reset-password", h.resetPasswordHandler())

	if h.events != nil {
		r.Get("/events", h.eventStreamHandler())
	}
}

func limited(limiter Limiter) func(http.Handler) http.Handler {
	if limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return limiter.Middleware
}

// notifyAsync runs fn detached from the request so slow gateways never delay responses.
func (h *Handler) notifyAsync(ctx context.Context, fn func(ctx context.Context, n Notifier)) {
	if h.notifier == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				h.logger.Error("notification panicked", zap.Any("panic", rec))
			}
		}()
		fn(ctx, h.notifier)
	}()
}
