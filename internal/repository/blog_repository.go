package repository

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"spadoc/internal/domain"
	"spadoc/pkg/jsonstore"
)

//go:embed seed/blog_posts.json
var seedBlogPosts []byte

// SeedBlogPosts returns the posts a fresh install starts with
func SeedBlogPosts() ([]domain.BlogPost, error) {
	var posts []domain.BlogPost
	if err := json.Unmarshal(seedBlogPosts, &posts); err != nil {
		return nil, fmt.Errorf("decode seed posts: %w", err)
	}
	return posts, nil
}

type blogRepository struct {
	posts *collection[domain.BlogPost]
}

// NewBlogRepository loads blogPosts.json, seeding it on first run
func NewBlogRepository(store *jsonstore.Store) (BlogRepository, error) {
	seed, err := SeedBlogPosts()
	if err != nil {
		return nil, err
	}
	c := loadCollection(store, FileBlogPosts, seed)
	for i := range c.items {
		c.items[i].ApplyDefaults()
	}
	return &blogRepository{posts: c}, nil
}

func (r *blogRepository) List(_ context.Context) []domain.BlogPost {
	return r.posts.snapshot()
}

func (r *blogRepository) ListByCategory(_ context.Context, category string) []domain.BlogPost {
	all := r.posts.snapshot()
	out := make([]domain.BlogPost, 0, len(all))
	for _, p := range all {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

func (r *blogRepository) Get(_ context.Context, id int64) (domain.BlogPost, error) {
	r.posts.mu.RLock()
	defer r.posts.mu.RUnlock()
	for _, p := range r.posts.items {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.BlogPost{}, ErrNotFound
}

func (r *blogRepository) Add(_ context.Context, now time.Time, posts ...domain.BlogPost) ([]domain.BlogPost, error) {
	added := make([]domain.BlogPost, 0, len(posts))
	err := r.posts.mutate(func(items []domain.BlogPost) ([]domain.BlogPost, error) {
		used := make(map[int64]struct{}, len(items)+len(posts))
		var maxID int64
		for _, p := range items {
			used[p.ID] = struct{}{}
			if p.ID > maxID {
				maxID = p.ID
			}
		}

		next := now.UnixMilli()
		for _, p := range posts {
			if _, taken := used[next]; taken {
				next = maxID + 1
			}
			p.ID = next
			used[next] = struct{}{}
			if next > maxID {
				maxID = next
			}
			next++

			if p.Date.IsZero() {
				p.Date = now
			}
			p.ApplyDefaults()
			added = append(added, p)
		}

		// newest first: the last post of a batch ends up on top
		out := make([]domain.BlogPost, 0, len(items)+len(added))
		for i := len(added) - 1; i >= 0; i-- {
			out = append(out, added[i])
		}
		return append(out, items...), nil
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

func (r *blogRepository) Update(_ context.Context, id int64, title, content string, now time.Time) (domain.BlogPost, error) {
	var updated domain.BlogPost
	err := r.posts.mutate(func(items []domain.BlogPost) ([]domain.BlogPost, error) {
		for i := range items {
			if items[i].ID != id {
				continue
			}
			modified := now
			items[i].Title = title
			items[i].Content = content
			items[i].LastModified = &modified
			items[i].ApplyDefaults()
			updated = items[i]
			return items, nil
		}
		return nil, ErrNotFound
	})
	return updated, err
}

func (r *blogRepository) Delete(_ context.Context, id int64) error {
	return r.posts.mutate(func(items []domain.BlogPost) ([]domain.BlogPost, error) {
		for i := range items {
			if items[i].ID == id {
				return append(items[:i], items[i+1:]...), nil
			}
		}
		return nil, ErrNotFound
	})
}

func (r *blogRepository) Categorize(_ context.Context) (int, error) {
	changed := 0
	err := r.posts.mutate(func(items []domain.BlogPost) ([]domain.BlogPost, error) {
		for i := range items {
			if items[i].HasCategory() {
				continue
			}
			items[i].Category = domain.CategoryForTitle(items[i].Title)
			changed++
		}
		return items, nil
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}
