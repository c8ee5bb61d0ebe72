package admin

import (
	"encoding/json"
	"time"

	"github.com/chystahata/site/api/internal/content/application"
)

type sessionResponse struct {
	Valid     bool      `json:"valid"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type serviceRequest struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Features    []string `json:"features"`
	Icon        string   `json:"icon"`
}

func (req serviceRequest) command() application.ServiceCommand {
	return application.ServiceCommand{
		ID:          req.ID,
		Title:       req.Title,
		Description: req.Description,
		Features:    req.Features,
		Icon:        req.Icon,
	}
}

type approveReviewRequest struct {
	Approved *bool `json:"approved"`
}

type blogPostRequest struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	Image     string `json:"image"`
	Video     string `json:"video"`
	Published bool   `json:"published"`
}

func (req blogPostRequest) command() application.UpsertBlogPostCommand {
	return application.UpsertBlogPostCommand{
		Title:     req.Title,
		Content:   req.Content,
		Image:     req.Image,
		Video:     req.Video,
		Published: req.Published,
	}
}

type galleryItemRequest struct {
	URL         string `json:"url"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

type orderStatusRequest struct {
	Status string `json:"status"`
}

type importRequest struct {
	Mode string          `json:"mode"`
	Data json.RawMessage `json:"data"`
}
