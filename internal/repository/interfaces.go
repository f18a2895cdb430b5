package repository

import (
	"context"
	"errors"
	"time"

	"spadoc/internal/domain"
)

// ErrNotFound is returned when a record id matches nothing
var ErrNotFound = errors.New("record not found")

// Collection file names under the data directory
const (
	FileBlogPosts      = "blogPosts.json"
	FileAnalytics      = "analytics.json"
	FileMediaLibrary   = "mediaLibrary.json"
	FileSocialPosts    = "socialPosts.json"
	FileGalleryImages  = "galleryImages.json"
	FileSocialSettings = "socialSettings.json"
)

// CollectionFiles lists every collection, in backup order
var CollectionFiles = []string{
	FileBlogPosts,
	FileAnalytics,
	FileMediaLibrary,
	FileSocialPosts,
	FileGalleryImages,
	FileSocialSettings,
}

// BlogRepository defines the operations on blog posts
type BlogRepository interface {
	// List returns every post, newest first as stored
	List(ctx context.Context) []domain.BlogPost

	// ListByCategory returns posts in one category
	ListByCategory(ctx context.Context, category string) []domain.BlogPost

	// Get returns one post or ErrNotFound
	Get(ctx context.Context, id int64) (domain.BlogPost, error)

	// Add prepends posts, assigning each a unique id derived from now
	Add(ctx context.Context, now time.Time, posts ...domain.BlogPost) ([]domain.BlogPost, error)

	// Update replaces title and content of a post and stamps lastModified
	Update(ctx context.Context, id int64, title, content string, now time.Time) (domain.BlogPost, error)

	// Delete removes a post or returns ErrNotFound
	Delete(ctx context.Context, id int64) error

	// Categorize assigns a category to posts without a valid one and
	// returns how many changed
	Categorize(ctx context.Context) (int, error)
}

// GalleryRepository defines the operations on gallery images
type GalleryRepository interface {
	List(ctx context.Context) []domain.GalleryImage
	Add(ctx context.Context, images ...domain.GalleryImage) error
	Delete(ctx context.Context, id string) (domain.GalleryImage, error)
}

// MediaRepository defines the operations on the media library
type MediaRepository interface {
	// List returns items sorted by upload date, newest first
	List(ctx context.Context) []domain.MediaItem
	Get(ctx context.Context, id string) (domain.MediaItem, error)
	Add(ctx context.Context, items ...domain.MediaItem) error
	Delete(ctx context.Context, id string) (domain.MediaItem, error)
}

// SocialPostRepository defines the operations on social posts
type SocialPostRepository interface {
	// List returns posts sorted by creation time, newest first
	List(ctx context.Context) []domain.SocialPost
	Add(ctx context.Context, post domain.SocialPost) error
}

// SocialSettingsRepository holds the single social settings document
type SocialSettingsRepository interface {
	Get(ctx context.Context) domain.SocialSettings
	Update(ctx context.Context, update domain.SocialSettingsUpdate) (domain.SocialSettings, error)
}

// AnalyticsRepository records site analytics
type AnalyticsRepository interface {
	RecordBlogView(ctx context.Context, now time.Time) error
	RecordArticleExpansion(ctx context.Context, title string, now time.Time) error
	RecordPageView(ctx context.Context, req domain.TrackPageViewRequest, now time.Time) error
	RecordContact(ctx context.Context, req domain.ContactRequest, now time.Time) (domain.ContactSubmission, error)
	Snapshot(ctx context.Context) *domain.Analytics
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Blog           BlogRepository
	Gallery        GalleryRepository
	Media          MediaRepository
	SocialPosts    SocialPostRepository
	SocialSettings SocialSettingsRepository
	Analytics      AnalyticsRepository
}
