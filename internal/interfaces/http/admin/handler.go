package admin

import (
	"context"
	"io"

	"github.com/chystahata/site/api/internal/account"
	"github.com/chystahata/site/api/internal/content/application"
	"github.com/chystahata/site/api/internal/infrastructure/cloudinary"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// PasswordChanger rotates the admin password.
type PasswordChanger interface {
	ChangePassword(ctx context.Context, currentPassword, newPassword string) (*account.Session, error)
}

// MediaUploader stores uploaded files and returns their public location.
type MediaUploader interface {
	Upload(ctx context.Context, file io.Reader) (*cloudinary.Uploaded, error)
}

// Handler wires admin HTTP endpoints to application services.
type Handler struct {
	logger   *zap.Logger
	services application.ServiceCatalog
	reviews  application.ReviewService
	gallery  application.GalleryService
	blog     application.BlogService
	pricing  application.PricingService
	orders   application.OrderService
	settings *application.SiteSettings
	transfer application.TransferService
	account  PasswordChanger
	uploader MediaUploader
}

// Config provides dependencies for Handler. Uploader may be nil.
type Config struct {
	Logger   *zap.Logger
	Services application.ServiceCatalog
	Reviews  application.ReviewService
	Gallery  application.GalleryService
	Blog     application.BlogService
	Pricing  application.PricingService
	Orders   application.OrderService
	Settings *application.SiteSettings
	Transfer application.TransferService
	Account  PasswordChanger
	Uploader MediaUploader
}

// NewHandler constructs an admin HTTP handler set.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		logger:   logger,
		services: cfg.Services,
		reviews:  cfg.Reviews,
		gallery:  cfg.Gallery,
		blog:     cfg.Blog,
		pricing:  cfg.Pricing,
		orders:   cfg.Orders,
		settings: cfg.Settings,
		transfer: cfg.Transfer,
		account:  cfg.Account,
		uploader: cfg.Uploader,
	}
}

// Register mounts admin routes onto router. The caller applies the session middleware.
func (h *Handler) Register(r chi.Router) {
	r.Get("/session", h.sessionHandler())
	r.Post("/change-password", h.changePasswordHandler())

	r.Post("/services", h.serviceReplaceHandler())
	r.Put("/services/{id}", h.serviceUpdateHandler())
	r.Delete("/services/{id}", h.serviceDeleteHandler())

	r.Get("/reviews/all", h.reviewListHandler())
	r.Post("/reviews/{id}/approve", h.reviewApproveHandler())
	r.Delete("/reviews/{id}", h.reviewDeleteHandler())

	r.Get("/blog/all", h.blogListHandler())
	r.Post("/blog", h.blogCreateHandler())
	r.Put("/blog/{id}", h.blogUpdateHandler())
	r.Delete("/blog/{id}", h.blogDeleteHandler())

	r.Post("/gallery", h.galleryCreateHandler())
	r.Delete("/gallery/{id}", h.galleryDeleteHandler())

	r.Post("/pricing", h.pricingReplaceHandler())
	r.Post("/pricing/{category}", h.pricingCategoryHandler())

	r.Post("/contacts", singletonSaveHandler(h, h.settings.Contacts))
	r.Post("/branding", singletonSaveHandler(h, h.settings.Branding))
	r.Post("/social-media", singletonSaveHandler(h, h.settings.SocialMedia))
	r.Post("/hero-images", singletonSaveHandler(h, h.settings.HeroImages))
	r.Post("/benefits", singletonSaveHandler(h, h.settings.Benefits))
	r.Post("/discount", singletonSaveHandler(h, h.settings.Discount))

	r.Get("/orders", h.orderListHandler())
	r.Patch("/orders/{id}/status", h.orderStatusHandler())
	r.Delete("/orders/{id}", h.orderDeleteHandler())

	r.Get("/export/all", h.exportHandler())
	r.Post("/import/all", h.importHandler())

	r.Post("/uploads", h.uploadHandler())
}
