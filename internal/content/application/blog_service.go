package application

import (
	"bytes"
	"context"
	"time"

	"github.com/chystahata/site/api/internal/content/domain"
	"github.com/chystahata/site/api/internal/events"
	"github.com/chystahata/site/api/internal/kv"
	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
	"go.uber.org/zap"
)

// BlogPostView is a post as served to readers: the markdown rendered to HTML and the
// video link resolved to embed metadata.
type BlogPostView struct {
	domain.BlogPost
	ContentHTML string            `json:"contentHtml"`
	VideoInfo   *domain.VideoInfo `json:"videoInfo,omitempty"`
}

type blogService struct {
	posts     collection[domain.BlogPost]
	publisher events.Publisher
	logger    *zap.Logger
	markdown  goldmark.Markdown
}

func NewBlogService(store kv.Store, publisher events.Publisher, logger *zap.Logger) BlogService {
	logger = loggerOrNop(logger)
	return &blogService{
		posts:     collection[domain.BlogPost]{store: store, prefix: kv.PrefixBlog, logger: logger},
		publisher: publisher,
		logger:    logger,
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(goldmarkHTML.WithHardWraps()),
		),
	}
}

func (s *blogService) ListPublished(ctx context.Context) ([]BlogPostView, error) {
	return s.listViews(ctx, true)
}

func (s *blogService) ListAll(ctx context.Context) ([]BlogPostView, error) {
	return s.listViews(ctx, false)
}

// GetPublished hides drafts behind ErrNotFound.
func (s *blogService) GetPublished(ctx context.Context, id string) (*BlogPostView, error) {
	post, err := s.posts.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !post.Published {
		return nil, ErrNotFound
	}
	view := s.view(post)
	return &view, nil
}

func (s *blogService) Create(ctx context.Context, cmd UpsertBlogPostCommand) (*BlogPostView, error) {
	post, err := buildBlogPost(cmd)
	if err != nil {
		return nil, err
	}
	post.ID = uuid.NewString()
	post.CreatedAt = now()
	post.UpdatedAt = post.CreatedAt
	return s.save(ctx, post)
}

func (s *blogService) Update(ctx context.Context, id string, cmd UpsertBlogPostCommand) (*BlogPostView, error) {
	existing, err := s.posts.get(ctx, id)
	if err != nil {
		return nil, err
	}
	post, err := buildBlogPost(cmd)
	if err != nil {
		return nil, err
	}
	post.ID = existing.ID
	post.CreatedAt = existing.CreatedAt
	post.UpdatedAt = now()
	return s.save(ctx, post)
}

func (s *blogService) Delete(ctx context.Context, id string) error {
	if err := s.posts.remove(ctx, id); err != nil {
		return err
	}
	publish(ctx, s.publisher, s.logger, events.TopicBlogUpdated, id)
	return nil
}

func (s *blogService) save(ctx context.Context, post domain.BlogPost) (*BlogPostView, error) {
	if err := s.posts.put(ctx, post.ID, post); err != nil {
		return nil, err
	}
	publish(ctx, s.publisher, s.logger, events.TopicBlogUpdated, post.ID)
	view := s.view(post)
	return &view, nil
}

func (s *blogService) listViews(ctx context.Context, publishedOnly bool) ([]BlogPostView, error) {
	posts, err := s.posts.list(ctx)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(posts,
		func(p domain.BlogPost) time.Time { return p.CreatedAt },
		func(p domain.BlogPost) string { return p.ID })

	views := make([]BlogPostView, 0, len(posts))
	for _, post := range posts {
		if publishedOnly && !post.Published {
			continue
		}
		views = append(views, s.view(post))
	}
	return views, nil
}

func (s *blogService) view(post domain.BlogPost) BlogPostView {
	view := BlogPostView{BlogPost: post}
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(post.Content), &buf); err != nil {
		s.logger.Warn("markdown render failed", zap.String("post", post.ID), zap.Error(err))
	} else {
		view.ContentHTML = buf.String()
	}
	if post.Video != "" {
		info := domain.ParseVideoURL(post.Video)
		view.VideoInfo = &info
	}
	return view
}

func buildBlogPost(cmd UpsertBlogPostCommand) (domain.BlogPost, error) {
	title, err := domain.RequiredText("title", cmd.Title, MaxTitleRunes)
	if err != nil {
		return domain.BlogPost{}, invalid(err)
	}
	content, err := domain.RequiredText("content", cmd.Content, MaxBlogContentRunes)
	if err != nil {
		return domain.BlogPost{}, invalid(err)
	}
	image, err := domain.NewURL("image", cmd.Image)
	if err != nil {
		return domain.BlogPost{}, invalid(err)
	}
	video, err := domain.NewURL("video", cmd.Video)
	if err != nil {
		return domain.BlogPost{}, invalid(err)
	}
	return domain.BlogPost{
		Title:     title,
		Content:   content,
		Image:     image,
		Video:     video,
		Published: cmd.Published,
	}, nil
}
