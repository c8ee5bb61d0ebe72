package public

import (
	"time"

	"github.com/chystahata/site/api/internal/content/domain"
	"github.com/chystahata/site/api/internal/pagination"
)

type submitReviewRequest struct {
	Name   string `json:"name"`
	Text   string `json:"text"`
	Rating int    `json:"rating"`
	Image  string `json:"image"`
}

type createOrderRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Service string `json:"service"`
	Message string `json:"message"`
}

type checkPasswordRequest struct {
	Password string `json:"password"`
}

type sessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type pricingCategoryResponse struct {
	ID    string                            `json:"id"`
	Title string                            `json:"title"`
	Items pagination.Page[domain.PriceItem] `json:"items"`
}
