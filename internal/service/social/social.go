// Package social cross-posts admin updates to social platforms. None of the
// platforms has a live integration yet, so every publisher reports why the
// post must be made by hand.
package social

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"spadoc/internal/domain"
	"spadoc/internal/repository"
	"spadoc/pkg/logger"
)

// ErrInvalidPost is returned when content or platforms are missing
var ErrInvalidPost = errors.New("content and platforms are required")

// Publisher posts to one platform
type Publisher interface {
	Platform() string
	Publish(ctx context.Context, post domain.SocialPost) domain.PlatformResult
}

// CreatePostInput is what the admin submits
type CreatePostInput struct {
	Content   string
	Platforms []string
	MediaID   *string
}

// Service creates and lists social posts
type Service struct {
	posts      repository.SocialPostRepository
	publishers map[string]Publisher
	log        *logger.Logger
	now        func() time.Time
}

// NewService returns a service with the given publishers, or the default
// stubs when none are given
func NewService(posts repository.SocialPostRepository, log *logger.Logger, publishers ...Publisher) *Service {
	if len(publishers) == 0 {
		publishers = DefaultPublishers()
	}
	byName := make(map[string]Publisher, len(publishers))
	for _, p := range publishers {
		byName[p.Platform()] = p
	}
	return &Service{posts: posts, publishers: byName, log: log.Component("social"), now: time.Now}
}

// List returns posts newest first
func (s *Service) List(ctx context.Context) []domain.SocialPost {
	return s.posts.List(ctx)
}

// Create publishes to each requested platform and stores the post.
// Unknown platforms are ignored.
func (s *Service) Create(ctx context.Context, in CreatePostInput) (domain.SocialPost, error) {
	platforms := make([]string, 0, len(in.Platforms))
	for _, p := range in.Platforms {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			platforms = append(platforms, p)
		}
	}
	if strings.TrimSpace(in.Content) == "" || len(platforms) == 0 {
		return domain.SocialPost{}, ErrInvalidPost
	}

	now := s.now().UTC()
	post := domain.SocialPost{
		ID:              uuid.NewString(),
		Content:         in.Content,
		MediaID:         in.MediaID,
		Platforms:       platforms,
		Status:          domain.SocialStatusScheduled,
		PostDate:        now,
		CreatedAt:       now,
		PlatformResults: make(map[string]domain.PlatformResult, len(platforms)),
	}

	for _, name := range platforms {
		pub, ok := s.publishers[name]
		if !ok {
			s.log.WithField("platform", name).Warn("Unknown social platform ignored")
			continue
		}
		result := pub.Publish(ctx, post)
		post.PlatformResults[name] = result
		if !result.Success {
			s.log.WithFields(map[string]interface{}{
				"platform": name,
				"error":    result.Error,
			}).Info("Social platform did not accept post")
		}
	}
	post.Status = domain.SocialStatusPublished

	if err := s.posts.Add(ctx, post); err != nil {
		return domain.SocialPost{}, fmt.Errorf("save social post: %w", err)
	}
	return post, nil
}

// DefaultPublishers returns the platform stubs
func DefaultPublishers() []Publisher {
	return []Publisher{
		manualPublisher{
			platform: domain.PlatformGoogle,
			result: domain.PlatformResult{
				Platform: "google_business",
				Error:    "Google Business Profile integration removed (API access denied)",
				Message:  "Please post manually to your Google Business listing",
			},
		},
		manualPublisher{
			platform: domain.PlatformFacebook,
			result: domain.PlatformResult{
				Platform:      domain.PlatformFacebook,
				Error:         "Facebook API not configured",
				Message:       "Please configure Facebook Graph API credentials",
				SetupRequired: true,
			},
		},
		manualPublisher{
			platform: domain.PlatformInstagram,
			result: domain.PlatformResult{
				Platform:      domain.PlatformInstagram,
				Error:         "Instagram API not configured",
				Message:       "Please configure Instagram Business API credentials",
				SetupRequired: true,
			},
		},
	}
}

// manualPublisher always reports the same unsuccessful result
type manualPublisher struct {
	platform string
	result   domain.PlatformResult
}

func (m manualPublisher) Platform() string { return m.platform }

func (m manualPublisher) Publish(context.Context, domain.SocialPost) domain.PlatformResult {
	return m.result
}
