package domain

import (
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"unicode/utf8"
)

const (
	MinRating = 1
	MaxRating = 5

	GalleryTypePhoto = "photo"
	GalleryTypeVideo = "video"
)

// OrderStatus is the processing state of an order.
type OrderStatus string

const (
	OrderStatusNew        OrderStatus = "new"
	OrderStatusInProgress OrderStatus = "in-progress"
	OrderStatusCompleted  OrderStatus = "completed"
)

// NewOrderStatus validates a status string.
func NewOrderStatus(value string) (OrderStatus, error) {
	switch status := OrderStatus(strings.ToLower(strings.TrimSpace(value))); status {
	case OrderStatusNew, OrderStatusInProgress, OrderStatusCompleted:
		return status, nil
	case "":
		return "", fmt.Errorf("status is required")
	default:
		return "", fmt.Errorf("invalid status: %s", value)
	}
}

func (s OrderStatus) String() string {
	return string(s)
}

// NewRating validates a review rating.
func NewRating(value int) (int, error) {
	if value < MinRating || value > MaxRating {
		return 0, fmt.Errorf("rating must be between %d and %d", MinRating, MaxRating)
	}
	return value, nil
}

// NewGalleryType trims and lowercases the type. Only presence is enforced.
func NewGalleryType(value string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if trimmed == "" {
		return "", fmt.Errorf("type is required")
	}
	return trimmed, nil
}

// RequiredText trims value and rejects empty or oversized input.
func RequiredText(field, value string, maxRunes int) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", fmt.Errorf("%s is required", field)
	}
	if maxRunes > 0 && utf8.RuneCountInString(trimmed) > maxRunes {
		return "", fmt.Errorf("%s must be at most %d characters", field, maxRunes)
	}
	return trimmed, nil
}

// OptionalText trims value and rejects oversized input.
func OptionalText(field, value string, maxRunes int) (string, error) {
	trimmed := strings.TrimSpace(value)
	if maxRunes > 0 && utf8.RuneCountInString(trimmed) > maxRunes {
		return "", fmt.Errorf("%s must be at most %d characters", field, maxRunes)
	}
	return trimmed, nil
}

// NewEmail validates an optional email address.
func NewEmail(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", nil
	}
	if _, err := mail.ParseAddress(trimmed); err != nil {
		return "", fmt.Errorf("invalid email: %s", trimmed)
	}
	return trimmed, nil
}

// NewURL validates an optional absolute http(s) URL.
func NewURL(field, value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", nil
	}
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", fmt.Errorf("invalid %s: %s", field, trimmed)
	}
	return trimmed, nil
}

// CleanStrings trims entries and drops empty ones.
func CleanStrings(values []string) []string {
	result := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
