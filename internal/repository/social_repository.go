package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"spadoc/internal/domain"
	"spadoc/pkg/jsonstore"
)

type socialPostRepository struct {
	posts *collection[domain.SocialPost]
}

// NewSocialPostRepository loads socialPosts.json
func NewSocialPostRepository(store *jsonstore.Store) SocialPostRepository {
	return &socialPostRepository{posts: loadCollection(store, FileSocialPosts, []domain.SocialPost{})}
}

func (r *socialPostRepository) List(_ context.Context) []domain.SocialPost {
	posts := r.posts.snapshot()
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts
}

func (r *socialPostRepository) Add(_ context.Context, post domain.SocialPost) error {
	return r.posts.mutate(func(items []domain.SocialPost) ([]domain.SocialPost, error) {
		return append([]domain.SocialPost{post}, items...), nil
	})
}

type socialSettingsRepository struct {
	store *jsonstore.Store

	mu       sync.RWMutex
	settings domain.SocialSettings
}

// NewSocialSettingsRepository loads socialSettings.json
func NewSocialSettingsRepository(store *jsonstore.Store) SocialSettingsRepository {
	return &socialSettingsRepository{
		store:    store,
		settings: jsonstore.Load(store, FileSocialSettings, domain.DefaultSocialSettings()),
	}
}

func (r *socialSettingsRepository) Get(_ context.Context) domain.SocialSettings {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.settings
}

func (r *socialSettingsRepository) Update(_ context.Context, u domain.SocialSettingsUpdate) (domain.SocialSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.settings
	if strings.TrimSpace(u.DefaultTemplate) != "" {
		next.DefaultTemplate = u.DefaultTemplate
	}
	if u.AutoAddContact != nil {
		next.AutoAddContact = boolPtr(*u.AutoAddContact)
	}
	if u.IncludeWebsiteLink != nil {
		next.IncludeWebsiteLink = boolPtr(*u.IncludeWebsiteLink)
	}
	if u.SendNotifications != nil {
		next.SendNotifications = boolPtr(*u.SendNotifications)
	}

	if err := jsonstore.Save(r.store, FileSocialSettings, next); err != nil {
		return r.settings, err
	}
	r.settings = next
	return next, nil
}

func boolPtr(b bool) *bool { return &b }
