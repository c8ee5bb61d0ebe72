// Package notify tells site administrators about new orders and reviews through the
// messenger gateway.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/chystahata/site/api/internal/content/domain"
	"github.com/chystahata/site/api/internal/kv"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultAttempts   = 3
	defaultRetryDelay = 200 * time.Millisecond
	defaultTimeout    = 5 * time.Second
)

// Config defines dependencies required by Messenger.
type Config struct {
	Endpoint    string
	Destination string
	Recipient   string
	HTTPClient  *http.Client
	// Store receives failed deliveries under failed_notification:<id>. Optional.
	Store      kv.Store
	Logger     *zap.Logger
	Attempts   int
	RetryDelay time.Duration
}

// Messenger posts admin notifications to the gateway.
type Messenger struct {
	endpoint    string
	destination string
	recipient   string
	httpClient  *http.Client
	store       kv.Store
	logger      *zap.Logger
	attempts    int
	retryDelay  time.Duration
}

// FailedNotification is what gets persisted after every attempt failed.
type FailedNotification struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	SubjectID   string    `json:"subjectId"`
	Destination string    `json:"destination"`
	Text        string    `json:"text"`
	Error       string    `json:"error"`
	Attempts    int       `json:"attempts"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewMessenger builds a Messenger. An empty endpoint yields a disabled messenger whose
// methods do nothing.
func NewMessenger(cfg Config) *Messenger {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	attempts := cfg.Attempts
	if attempts < 1 {
		attempts = defaultAttempts
	}
	delay := cfg.RetryDelay
	if delay < 0 {
		delay = 0
	} else if delay == 0 {
		delay = defaultRetryDelay
	}
	recipient := strings.TrimSpace(cfg.Recipient)
	if recipient == "" {
		recipient = "admin"
	}
	return &Messenger{
		endpoint:    strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/"),
		destination: strings.TrimSpace(cfg.Destination),
		recipient:   recipient,
		httpClient:  client,
		store:       cfg.Store,
		logger:      logger,
		attempts:    attempts,
		retryDelay:  delay,
	}
}

// Enabled reports whether a gateway endpoint is configured.
func (m *Messenger) Enabled() bool {
	return m != nil && m.endpoint != ""
}

// OrderCreated notifies about a new order.
func (m *Messenger) OrderCreated(ctx context.Context, order domain.Order) {
	if !m.Enabled() {
		return
	}
	m.deliver(ctx, "order", order.ID, buildOrderMessage(order))
}

// ReviewSubmitted notifies about a review waiting for moderation.
func (m *Messenger) ReviewSubmitted(ctx context.Context, review domain.Review) {
	if !m.Enabled() {
		return
	}
	m.deliver(ctx, "review", review.ID, buildReviewMessage(review))
}

func (m *Messenger) deliver(ctx context.Context, kind, subjectID, text string) {
	err := m.sendWithRetry(ctx, text)
	if err == nil {
		return
	}
	m.logger.Warn("admin notification failed",
		zap.String("kind", kind),
		zap.String("subject", subjectID),
		zap.Int("attempts", m.attempts),
		zap.Error(err))
	m.persistFailure(ctx, kind, subjectID, text, err)
}

func buildOrderMessage(order domain.Order) string {
	var builder strings.Builder
	builder.WriteString("Нове замовлення\n")
	writeLine(&builder, "Ім'я", order.Name)
	writeLine(&builder, "Телефон", order.Phone)
	writeLine(&builder, "Email", order.Email)
	writeLine(&builder, "Послуга", order.Service)
	writeLine(&builder, "Повідомлення", order.Message)
	return builder.String()
}

func buildReviewMessage(review domain.Review) string {
	var builder strings.Builder
	builder.WriteString("Новий відгук очікує модерації\n")
	writeLine(&builder, "Ім'я", review.Name)
	writeLine(&builder, "Оцінка", fmt.Sprintf("%d / 5", review.Rating))
	writeLine(&builder, "Текст", review.Text)
	return builder.String()
}

func writeLine(builder *strings.Builder, label, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	builder.WriteString(label)
	builder.WriteString(": ")
	builder.WriteString(value)
	builder.WriteString("\n")
}

func (m *Messenger) sendWithRetry(ctx context.Context, text string) error {
	var lastErr error
	for i := 0; i < m.attempts; i++ {
		if i > 0 && m.retryDelay > 0 {
			select {
			case <-ctx.Done():
				return errors.Join(lastErr, ctx.Err())
			case <-time.After(m.retryDelay):
			}
		}
		if lastErr = m.send(ctx, text); lastErr == nil {
			return nil
		}
	}
	return lastErr
}

func (m *Messenger) send(ctx context.Context, text string) error {
	payload := map[string]any{
		"userId": m.recipient,
		"text":   text,
	}
	if m.destination != "" {
		payload["destination"] = m.destination
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notify: encode payload: %w", err)
	}

	timeout := m.httpClient.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint+"/messages", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notify: send: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		message, _ := io.ReadAll(io.LimitReader(res.Body, 1<<16))
		return fmt.Errorf("notify: gateway status=%d body=%s", res.StatusCode, strings.TrimSpace(string(message)))
	}
	return nil
}

func (m *Messenger) persistFailure(ctx context.Context, kind, subjectID, text string, cause error) {
	if m.store == nil {
		return
	}
	failure := FailedNotification{
		ID:          uuid.NewString(),
		Kind:        kind,
		SubjectID:   subjectID,
		Destination: m.destination,
		Text:        text,
		Error:       cause.Error(),
		Attempts:    m.attempts,
		Status:      "pending",
		CreatedAt:   time.Now().UTC(),
	}
	if err := kv.SetJSON(context.WithoutCancel(ctx), m.store, kv.PrefixFailedNotification+failure.ID, failure); err != nil {
		m.logger.Error("failed notification could not be stored", zap.Error(err))
	}
}
