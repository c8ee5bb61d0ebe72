package application

import (
	"context"
	"time"

	"github.com/chystahata/site/api/internal/content/domain"
	"github.com/chystahata/site/api/internal/events"
	"github.com/chystahata/site/api/internal/kv"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type reviewService struct {
	reviews   collection[domain.Review]
	publisher events.Publisher
	logger    *zap.Logger
}

func NewReviewService(store kv.Store, publisher events.Publisher, logger *zap.Logger) ReviewService {
	logger = loggerOrNop(logger)
	return &reviewService{
		reviews:   collection[domain.Review]{store: store, prefix: kv.PrefixReview, logger: logger},
		publisher: publisher,
		logger:    logger,
	}
}

// ListApproved returns approved reviews, newest first. limit <= 0 means all.
func (s *reviewService) ListApproved(ctx context.Context, limit int) ([]domain.Review, error) {
	all, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	approved := make([]domain.Review, 0, len(all))
	for _, review := range all {
		if review.Approved {
			approved = append(approved, review)
		}
	}
	if limit > 0 && len(approved) > limit {
		approved = approved[:limit]
	}
	return approved, nil
}

func (s *reviewService) ListAll(ctx context.Context) ([]domain.Review, error) {
	reviews, err := s.reviews.list(ctx)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(reviews,
		func(r domain.Review) time.Time { return r.CreatedAt },
		func(r domain.Review) string { return r.ID })
	return reviews, nil
}

// Submit stores a new review awaiting moderation.
func (s *reviewService) Submit(ctx context.Context, cmd SubmitReviewCommand) (*domain.Review, error) {
	name, err := domain.RequiredText("name", cmd.Name, MaxNameRunes)
	if err != nil {
		return nil, invalid(err)
	}
	text, err := domain.RequiredText("text", cmd.Text, MaxReviewTextRunes)
	if err != nil {
		return nil, invalid(err)
	}
	rating, err := domain.NewRating(cmd.Rating)
	if err != nil {
		return nil, invalid(err)
	}
	image, err := domain.NewURL("image", cmd.Image)
	if err != nil {
		return nil, invalid(err)
	}

	review := domain.Review{
		ID:        uuid.NewString(),
		Name:      name,
		Text:      text,
		Rating:    rating,
		Image:     image,
		Approved:  false,
		CreatedAt: now(),
	}
	if err := s.reviews.put(ctx, review.ID, review); err != nil {
		return nil, err
	}
	publish(ctx, s.publisher, s.logger, events.TopicReviewsUpdated, review.ID)
	return &review, nil
}

func (s *reviewService) SetApproved(ctx context.Context, id string, approved bool) (*domain.Review, error) {
	review, err := s.reviews.get(ctx, id)
	if err != nil {
		return nil, err
	}
	review.Approved = approved
	if err := s.reviews.put(ctx, id, review); err != nil {
		return nil, err
	}
	publish(ctx, s.publisher, s.logger, events.TopicReviewsUpdated, id)
	return &review, nil
}

func (s *reviewService) Delete(ctx context.Context, id string) error {
	if err := s.reviews.remove(ctx, id); err != nil {
		return err
	}
	publish(ctx, s.publisher, s.logger, events.TopicReviewsUpdated, id)
	return nil
}
