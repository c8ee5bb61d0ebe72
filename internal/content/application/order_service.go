package application

import (
	"context"
	"strings"
	"time"

	"github.com/chystahata/site/api/internal/content/domain"
	"github.com/chystahata/site/api/internal/events"
	"github.com/chystahata/site/api/internal/kv"
	"github.com/chystahata/site/api/internal/pagination"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type orderService struct {
	orders    collection[domain.Order]
	publisher events.Publisher
	logger    *zap.Logger
}

func NewOrderService(store kv.Store, publisher events.Publisher, logger *zap.Logger) OrderService {
	logger = loggerOrNop(logger)
	return &orderService{
		orders:    collection[domain.Order]{store: store, prefix: kv.PrefixOrder, logger: logger},
		publisher: publisher,
		logger:    logger,
	}
}

func (s *orderService) Create(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error) {
	name, err := domain.RequiredText("name", cmd.Name, MaxNameRunes)
	if err != nil {
		return nil, invalid(err)
	}
	phone := domain.NormalizePhone(cmd.Phone)
	if phone == "" {
		return nil, invalidf("phone is required")
	}
	email, err := domain.NewEmail(cmd.Email)
	if err != nil {
		return nil, invalid(err)
	}
	service, err := domain.OptionalText("service", cmd.Service, MaxTitleRunes)
	if err != nil {
		return nil, invalid(err)
	}
	message, err := domain.OptionalText("message", cmd.Message, MaxMessageRunes)
	if err != nil {
		return nil, invalid(err)
	}

	created := now()
	order := domain.Order{
		ID:        uuid.NewString(),
		Name:      name,
		Phone:     phone,
		Email:     email,
		Service:   service,
		Message:   message,
		Status:    domain.OrderStatusNew,
		CreatedAt: created,
		UpdatedAt: created,
	}
	if err := s.orders.put(ctx, order.ID, order); err != nil {
		return nil, err
	}
	publish(ctx, s.publisher, s.logger, events.TopicOrderCreated, order.ID)
	return &order, nil
}

// List filters by status and keyword, newest first, then paginates.
func (s *orderService) List(ctx context.Context, filter OrderFilter, paging Paging) (pagination.Page[domain.Order], error) {
	orders, err := s.orders.list(ctx)
	if err != nil {
		return pagination.Page[domain.Order]{}, err
	}

	var status domain.OrderStatus
	if strings.TrimSpace(filter.Status) != "" && filter.Status != "all" {
		if status, err = domain.NewOrderStatus(filter.Status); err != nil {
			return pagination.Page[domain.Order]{}, invalid(err)
		}
	}
	keyword := strings.ToLower(strings.TrimSpace(filter.Keyword))

	matched := make([]domain.Order, 0, len(orders))
	for _, order := range orders {
		if status != "" && order.Status != status {
			continue
		}
		if keyword != "" && !orderMatches(order, keyword) {
			continue
		}
		matched = append(matched, order)
	}
	sortNewestFirst(matched,
		func(o domain.Order) time.Time { return o.CreatedAt },
		func(o domain.Order) string { return o.ID })
	return pagination.Paginate(matched, paging.Page, paging.Limit), nil
}

func (s *orderService) UpdateStatus(ctx context.Context, id string, status string) (*domain.Order, error) {
	next, err := domain.NewOrderStatus(status)
	if err != nil {
		return nil, invalid(err)
	}
	order, err := s.orders.get(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Status = next
	order.UpdatedAt = now()
	if err := s.orders.put(ctx, id, order); err != nil {
		return nil, err
	}
	publish(ctx, s.publisher, s.logger, events.TopicOrderUpdated, id)
	return &order, nil
}

func (s *orderService) Delete(ctx context.Context, id string) error {
	if err := s.orders.remove(ctx, id); err != nil {
		return err
	}
	publish(ctx, s.publisher, s.logger, events.TopicOrderUpdated, id)
	return nil
}

func orderMatches(order domain.Order, keyword string) bool {
	fields := []string{order.Name, order.Phone, order.Email, order.Service, order.Message}
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), keyword) {
			return true
		}
	}
	// "099 123" should still find +380991234567.
	if digits := strings.Map(keepDigit, keyword); len(digits) >= 3 {
		return strings.Contains(order.Phone, digits)
	}
	return false
}

func keepDigit(r rune) rune {
	if r >= '0' && r <= '9' {
		return r
	}
	return -1
}
