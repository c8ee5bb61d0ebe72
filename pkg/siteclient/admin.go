package siteclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/chystahata/site/api/internal/content/application"
	"github.com/chystahata/site/api/internal/content/domain"
	"github.com/chystahata/site/api/internal/pagination"
)

// ServiceInput describes one offered service.
type ServiceInput struct {
	ID          string   `json:"id,omitempty"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Features    []string `json:"features,omitempty"`
	Icon        string   `json:"icon,omitempty"`
}

// BlogPostInput is the editable part of a blog post.
type BlogPostInput struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	Image     string `json:"image,omitempty"`
	Video     string `json:"video,omitempty"`
	Published bool   `json:"published"`
}

// GalleryItemInput is a new photo or video.
type GalleryItemInput struct {
	URL         string `json:"url"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// OrderQuery filters and pages the admin order list. Status "" or "all" keeps every status.
type OrderQuery struct {
	Status  string
	Keyword string
	Page    int
	Limit   int
}

// SessionInfo is the answer of GET /session.
type SessionInfo struct {
	Valid     bool      `json:"valid"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (c *Client) admin(ctx context.Context, method, path string, body, out any) error {
	return c.do(ctx, request{method: method, path: path, body: body, admin: true}, out)
}

// Session checks the stored token.
func (c *Client) Session(ctx context.Context) (*SessionInfo, error) {
	var info SessionInfo
	if err := c.admin(ctx, http.MethodGet, "/session", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// ChangePassword rotates the admin password and switches to the fresh token it returns.
func (c *Client) ChangePassword(ctx context.Context, currentPassword, newPassword string) (*Session, error) {
	var session Session
	body := map[string]string{"currentPassword": currentPassword, "newPassword": newPassword}
	if err := c.admin(ctx, http.MethodPost, "/change-password", body, &session); err != nil {
		return nil, err
	}
	c.SetToken(session.Token)
	return &session, nil
}

func (c *Client) ReplaceServices(ctx context.Context, services []ServiceInput) ([]domain.Service, error) {
	var out []domain.Service
	err := c.admin(ctx, http.MethodPost, "/services", services, &out)
	return out, err
}

func (c *Client) UpdateService(ctx context.Context, id string, input ServiceInput) (*domain.Service, error) {
	var out domain.Service
	if err := c.admin(ctx, http.MethodPut, "/services/"+url.PathEscape(id), input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteService(ctx context.Context, id string) error {
	return c.admin(ctx, http.MethodDelete, "/services/"+url.PathEscape(id), nil, nil)
}

// AllReviews includes reviews waiting for moderation.
func (c *Client) AllReviews(ctx context.Context) ([]domain.Review, error) {
	var out []domain.Review
	err := c.admin(ctx, http.MethodGet, "/reviews/all", nil, &out)
	return out, err
}

func (c *Client) ApproveReview(ctx context.Context, id string, approved bool) (*domain.Review, error) {
	var out domain.Review
	body := map[string]bool{"approved": approved}
	if err := c.admin(ctx, http.MethodPost, "/reviews/"+url.PathEscape(id)+"/approve", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteReview(ctx context.Context, id string) error {
	return c.admin(ctx, http.MethodDelete, "/reviews/"+url.PathEscape(id), nil, nil)
}

// AllBlogPosts includes drafts.
func (c *Client) AllBlogPosts(ctx context.Context) ([]application.BlogPostView, error) {
	var out []application.BlogPostView
	err := c.admin(ctx, http.MethodGet, "/blog/all", nil, &out)
	return out, err
}

func (c *Client) CreateBlogPost(ctx context.Context, input BlogPostInput) (*application.BlogPostView, error) {
	var out application.BlogPostView
	if err := c.admin(ctx, http.MethodPost, "/blog", input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateBlogPost(ctx context.Context, id string, input BlogPostInput) (*application.BlogPostView, error) {
	var out application.BlogPostView
	if err := c.admin(ctx, http.MethodPut, "/blog/"+url.PathEscape(id), input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteBlogPost(ctx context.Context, id string) error {
	return c.admin(ctx, http.MethodDelete, "/blog/"+url.PathEscape(id), nil, nil)
}

func (c *Client) CreateGalleryItem(ctx context.Context, input GalleryItemInput) (*domain.GalleryItem, error) {
	var out domain.GalleryItem
	if err := c.admin(ctx, http.MethodPost, "/gallery", input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteGalleryItem(ctx context.Context, id string) error {
	return c.admin(ctx, http.MethodDelete, "/gallery/"+url.PathEscape(id), nil, nil)
}

func (c *Client) SavePricing(ctx context.Context, pricing domain.Pricing) (domain.Pricing, error) {
	var out domain.Pricing
	err := c.admin(ctx, http.MethodPost, "/pricing", pricing, &out)
	return out, err
}

func (c *Client) SavePricingCategory(ctx context.Context, category domain.PricingCategory) (*domain.PricingCategory, error) {
	var out domain.PricingCategory
	if err := c.admin(ctx, http.MethodPost, "/pricing/"+url.PathEscape(category.ID), category, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func save[T any](ctx context.Context, c *Client, path string, value T) (T, error) {
	var out T
	err := c.admin(ctx, http.MethodPost, path, value, &out)
	return out, err
}

func (c *Client) SaveContacts(ctx context.Context, v domain.Contacts) (domain.Contacts, error) {
	return save(ctx, c, "/contacts", v)
}

func (c *Client) SaveBranding(ctx context.Context, v domain.Branding) (domain.Branding, error) {
	return save(ctx, c, "/branding", v)
}

func (c *Client) SaveSocialMedia(ctx context.Context, v domain.SocialMedia) (domain.SocialMedia, error) {
	return save(ctx, c, "/social-media", v)
}

func (c *Client) SaveHeroImages(ctx context.Context, v domain.HeroImages) (domain.HeroImages, error) {
	return save(ctx, c, "/hero-images", v)
}

func (c *Client) SaveBenefits(ctx context.Context, v domain.Benefits) (domain.Benefits, error) {
	return save(ctx, c, "/benefits", v)
}

func (c *Client) SaveDiscount(ctx context.Context, v domain.Discount) (domain.Discount, error) {
	return save(ctx, c, "/discount", v)
}

func (c *Client) Orders(ctx context.Context, q OrderQuery) (*pagination.Page[domain.Order], error) {
	query := url.Values{}
	if q.Status != "" {
		query.Set("status", q.Status)
	}
	if q.Keyword != "" {
		query.Set("q", q.Keyword)
	}
	if q.Page > 0 {
		query.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		query.Set("limit", strconv.Itoa(q.Limit))
	}
	var page pagination.Page[domain.Order]
	if err := c.do(ctx, request{method: http.MethodGet, path: "/orders", query: query, admin: true}, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) UpdateOrderStatus(ctx context.Context, id, status string) (*domain.Order, error) {
	var out domain.Order
	body := map[string]string{"status": status}
	if err := c.admin(ctx, http.MethodPatch, "/orders/"+url.PathEscape(id)+"/status", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteOrder(ctx context.Context, id string) error {
	return c.admin(ctx, http.MethodDelete, "/orders/"+url.PathEscape(id), nil, nil)
}

// Export downloads the full content snapshot.
func (c *Client) Export(ctx context.Context) (*application.Snapshot, error) {
	var out application.Snapshot
	if err := c.admin(ctx, http.MethodGet, "/export/all", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Import uploads a snapshot; mode is "overwrite" or "merge".
func (c *Client) Import(ctx context.Context, mode application.ImportMode, snapshot application.Snapshot) (*application.ImportResult, error) {
	var out application.ImportResult
	body := map[string]any{"mode": mode, "data": snapshot}
	if err := c.admin(ctx, http.MethodPost, "/import/all", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
