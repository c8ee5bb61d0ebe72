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

// ReviewInput is a visitor's review.
type ReviewInput struct {
	Name   string `json:"name"`
	Text   string `json:"text"`
	Rating int    `json:"rating"`
	Image  string `json:"image,omitempty"`
}

// OrderInput is the contact form.
type OrderInput struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email,omitempty"`
	Service string `json:"service,omitempty"`
	Message string `json:"message,omitempty"`
}

// Session is an admin session token.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// PricingCategoryPage is one price category with a page of its items.
type PricingCategoryPage struct {
	ID    string                            `json:"id"`
	Title string                            `json:"title"`
	Items pagination.Page[domain.PriceItem] `json:"items"`
}

// PriceQuery filters and pages the items of a price category.
type PriceQuery struct {
	Keyword string
	Page    int
	Limit   int
}

func get[T any](ctx context.Context, c *Client, path string, query url.Values) (T, error) {
	var out T
	err := c.do(ctx, request{method: http.MethodGet, path: path, query: query}, &out)
	return out, err
}

func (c *Client) Services(ctx context.Context) ([]domain.Service, error) {
	return get[[]domain.Service](ctx, c, "/services", nil)
}

// Reviews returns approved reviews, newest first. limit <= 0 returns all.
func (c *Client) Reviews(ctx context.Context, limit int) ([]domain.Review, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	return get[[]domain.Review](ctx, c, "/reviews", query)
}

// SubmitReview sends a review for moderation.
func (c *Client) SubmitReview(ctx context.Context, input ReviewInput) (*domain.Review, error) {
	var review domain.Review
	if err := c.do(ctx, request{method: http.MethodPost, path: "/reviews", body: input}, &review); err != nil {
		return nil, err
	}
	return &review, nil
}

// Gallery lists gallery items; itemType "" returns every type.
func (c *Client) Gallery(ctx context.Context, itemType string) ([]domain.GalleryItem, error) {
	query := url.Values{}
	if itemType != "" {
		query.Set("type", itemType)
	}
	return get[[]domain.GalleryItem](ctx, c, "/gallery", query)
}

func (c *Client) BlogPosts(ctx context.Context) ([]application.BlogPostView, error) {
	return get[[]application.BlogPostView](ctx, c, "/blog", nil)
}

func (c *Client) BlogPost(ctx context.Context, id string) (*application.BlogPostView, error) {
	post, err := get[application.BlogPostView](ctx, c, "/blog/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// Pricing returns the price list, keeping only items matching keyword when it is set.
func (c *Client) Pricing(ctx context.Context, keyword string) (domain.Pricing, error) {
	query := url.Values{}
	if keyword != "" {
		query.Set("q", keyword)
	}
	return get[domain.Pricing](ctx, c, "/pricing", query)
}

func (c *Client) PricingCategory(ctx context.Context, id string, q PriceQuery) (*PricingCategoryPage, error) {
	query := url.Values{}
	if q.Keyword != "" {
		query.Set("q", q.Keyword)
	}
	if q.Page > 0 {
		query.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		query.Set("limit", strconv.Itoa(q.Limit))
	}
	page, err := get[PricingCategoryPage](ctx, c, "/pricing/"+url.PathEscape(id), query)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) Contacts(ctx context.Context) (domain.Contacts, error) {
	return get[domain.Contacts](ctx, c, "/contacts", nil)
}

func (c *Client) Branding(ctx context.Context) (domain.Branding, error) {
	return get[domain.Branding](ctx, c, "/branding", nil)
}

func (c *Client) SocialMedia(ctx context.Context) (domain.SocialMedia, error) {
	return get[domain.SocialMedia](ctx, c, "/social-media", nil)
}

func (c *Client) HeroImages(ctx context.Context) (domain.HeroImages, error) {
	return get[domain.HeroImages](ctx, c, "/hero-images", nil)
}

func (c *Client) Benefits(ctx context.Context) (domain.Benefits, error) {
	return get[domain.Benefits](ctx, c, "/benefits", nil)
}

func (c *Client) Discount(ctx context.Context) (domain.Discount, error) {
	return get[domain.Discount](ctx, c, "/discount", nil)
}

// CreateOrder submits the contact form.
func (c *Client) CreateOrder(ctx context.Context, input OrderInput) (*domain.Order, error) {
	var order domain.Order
	if err := c.do(ctx, request{method: http.MethodPost, path: "/orders", body: input}, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// Login exchanges the admin password for a session token and keeps it for admin calls.
func (c *Client) Login(ctx context.Context, password string) (*Session, error) {
	var session Session
	body := map[string]string{"password": password}
	if err := c.do(ctx, request{method: http.MethodPost, path: "/check-password", body: body}, &session); err != nil {
		return nil, err
	}
	c.SetToken(session.Token)
	return &session, nil
}

// ResetPassword restores the default admin password using the operator reset key.
func (c *Client) ResetPassword(ctx context.Context, resetKey string) error {
	c.Logout()
	return c.do(ctx, request{
		method:  http.MethodPost,
		path:    "/reset-password",
		headers: map[string]string{resetKeyHeader: resetKey},
	}, nil)
}
