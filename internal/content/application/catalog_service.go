package application

import (
	"context"
	"errors"

	"github.com/chystahata/site/api/internal/content/domain"
	"github.com/chystahata/site/api/internal/events"
	"github.com/chystahata/site/api/internal/kv"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type serviceCatalog struct {
	store     kv.Store
	publisher events.Publisher
	logger    *zap.Logger
}

func NewServiceCatalog(store kv.Store, publisher events.Publisher, logger *zap.Logger) ServiceCatalog {
	return &serviceCatalog{store: store, publisher: publisher, logger: loggerOrNop(logger)}
}

// List never fails: an empty or unreadable list yields the built-in services.
func (s *serviceCatalog) List(ctx context.Context) []domain.Service {
	services, err := s.load(ctx)
	if err != nil {
		s.logger.Warn("services unavailable, serving defaults", zap.Error(err))
		return domain.DefaultServices()
	}
	if len(services) == 0 {
		return domain.DefaultServices()
	}
	return services
}

func (s *serviceCatalog) Replace(ctx context.Context, cmds []ServiceCommand) ([]domain.Service, error) {
	services := make([]domain.Service, 0, len(cmds))
	seen := make(map[string]struct{}, len(cmds))
	for i, cmd := range cmds {
		service, err := buildService(cmd.ID, cmd)
		if err != nil {
			return nil, invalidf("service %d: %v", i+1, err)
		}
		if _, dup := seen[service.ID]; dup {
			return nil, invalidf("duplicate service id: %s", service.ID)
		}
		seen[service.ID] = struct{}{}
		services = append(services, service)
	}
	if err := s.save(ctx, services); err != nil {
		return nil, err
	}
	return services, nil
}

func (s *serviceCatalog) Update(ctx context.Context, id string, cmd ServiceCommand) (*domain.Service, error) {
	services, err := s.editable(ctx)
	if err != nil {
		return nil, err
	}
	for i := range services {
		if services[i].ID != id {
			continue
		}
		updated, err := buildService(id, cmd)
		if err != nil {
			return nil, invalid(err)
		}
		services[i] = updated
		if err := s.save(ctx, services); err != nil {
			return nil, err
		}
		return &updated, nil
	}
	return nil, ErrNotFound
}

func (s *serviceCatalog) Delete(ctx context.Context, id string) error {
	services, err := s.editable(ctx)
	if err != nil {
		return err
	}
	for i := range services {
		if services[i].ID == id {
			return s.save(ctx, append(services[:i], services[i+1:]...))
		}
	}
	return ErrNotFound
}

func (s *serviceCatalog) load(ctx context.Context) ([]domain.Service, error) {
	var services []domain.Service
	err := kv.GetJSON(ctx, s.store, kv.KeyServices, &services)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	return services, err
}

// editable returns the stored list, or the defaults when nothing was saved yet, so that
// the first admin edit starts from what visitors currently see.
func (s *serviceCatalog) editable(ctx context.Context) ([]domain.Service, error) {
	services, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if len(services) == 0 {
		return domain.DefaultServices(), nil
	}
	return services, nil
}

func (s *serviceCatalog) save(ctx context.Context, services []domain.Service) error {
	if err := kv.SetJSON(ctx, s.store, kv.KeyServices, services); err != nil {
		return err
	}
	publish(ctx, s.publisher, s.logger, events.TopicServicesUpdated, len(services))
	return nil
}

func buildService(id string, cmd ServiceCommand) (domain.Service, error) {
	title, err := domain.RequiredText("title", cmd.Title, MaxTitleRunes)
	if err != nil {
		return domain.Service{}, err
	}
	description, err := domain.OptionalText("description", cmd.Description, MaxShortTextRunes*4)
	if err != nil {
		return domain.Service{}, err
	}
	if id == "" {
		id = uuid.NewString()
	}
	return domain.Service{
		ID:          id,
		Title:       title,
		Description: description,
		Features:    domain.CleanStrings(cmd.Features),
		Icon:        cmd.Icon,
	}, nil
}
