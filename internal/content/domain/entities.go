package domain

import "time"

// Service is one offering shown in the services section.
type Service struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Features    []string `json:"features"`
	Icon        string   `json:"icon,omitempty"`
}

// Review is a customer testimonial. Only approved reviews are public.
type Review struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Text      string    `json:"text"`
	Rating    int       `json:"rating"`
	Image     string    `json:"image,omitempty"`
	Approved  bool      `json:"approved"`
	CreatedAt time.Time `json:"createdAt"`
}

// GalleryItem is a photo or video of finished work.
type GalleryItem struct {
	ID          string     `json:"id"`
	URL         string     `json:"url"`
	Type        string     `json:"type"`
	Description string     `json:"description,omitempty"`
	Video       *VideoInfo `json:"video,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// BlogPost is an article; Content is markdown.
type BlogPost struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Image     string    `json:"image,omitempty"`
	Video     string    `json:"video,omitempty"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Order is a cleaning request left through the contact form.
type Order struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Phone     string      `json:"phone"`
	Email     string      `json:"email,omitempty"`
	Service   string      `json:"service,omitempty"`
	Message   string      `json:"message,omitempty"`
	Status    OrderStatus `json:"status"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// Contacts is the company contact block used by the header, footer and contact form.
type Contacts struct {
	Phone        string   `json:"phone"`
	Phones       []string `json:"phones,omitempty"`
	Email        string   `json:"email"`
	Address      string   `json:"address"`
	WorkingHours string   `json:"workingHours"`
	MapURL       string   `json:"mapUrl,omitempty"`
}

// Branding carries the site identity.
type Branding struct {
	SiteName     string `json:"siteName"`
	Tagline      string `json:"tagline,omitempty"`
	LogoURL      string `json:"logoUrl,omitempty"`
	FaviconURL   string `json:"faviconUrl,omitempty"`
	PrimaryColor string `json:"primaryColor,omitempty"`
}

// SocialMedia holds profile links; empty values are hidden by the site.
type SocialMedia struct {
	Instagram string `json:"instagram,omitempty"`
	Facebook  string `json:"facebook,omitempty"`
	Telegram  string `json:"telegram,omitempty"`
	Viber     string `json:"viber,omitempty"`
	TikTok    string `json:"tiktok,omitempty"`
	YouTube   string `json:"youtube,omitempty"`
}

// HeroImage is one slide of the landing carousel.
type HeroImage struct {
	ID  string `json:"id"`
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}

// HeroImages is the landing carousel.
type HeroImages struct {
	Images []HeroImage `json:"images"`
}

// Benefit is one "why us" card.
type Benefit struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon,omitempty"`
}

// Benefits is the "why us" section.
type Benefits struct {
	Title string    `json:"title,omitempty"`
	Items []Benefit `json:"items"`
}

// Discount is the promotional banner.
type Discount struct {
	Enabled     bool   `json:"enabled"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Percent     int    `json:"percent,omitempty"`
	ValidUntil  string `json:"validUntil,omitempty"`
}

// PriceItem is one priced line.
type PriceItem struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Unit  string  `json:"unit,omitempty"`
}

// PricingCategory groups price items.
type PricingCategory struct {
	ID    string      `json:"id"`
	Title string      `json:"title"`
	Items []PriceItem `json:"items"`
}

// Pricing is the whole price list.
type Pricing struct {
	Categories []PricingCategory `json:"categories"`
}

// Category returns the category with id, if present.
func (p Pricing) Category(id string) (PricingCategory, bool) {
	for _, category := range p.Categories {
		if category.ID == id {
			return category, true
		}
	}
	return PricingCategory{}, false
}
