package repository

import (
	"context"
	"sort"

	"spadoc/internal/domain"
	"spadoc/pkg/jsonstore"
)

type galleryRepository struct {
	images *collection[domain.GalleryImage]
}

// NewGalleryRepository loads galleryImages.json
func NewGalleryRepository(store *jsonstore.Store) GalleryRepository {
	return &galleryRepository{images: loadCollection(store, FileGalleryImages, []domain.GalleryImage{})}
}

func (r *galleryRepository) List(_ context.Context) []domain.GalleryImage {
	return r.images.snapshot()
}

func (r *galleryRepository) Add(_ context.Context, images ...domain.GalleryImage) error {
	return r.images.mutate(func(items []domain.GalleryImage) ([]domain.GalleryImage, error) {
		return append(items, images...), nil
	})
}

func (r *galleryRepository) Delete(_ context.Context, id string) (domain.GalleryImage, error) {
	var removed domain.GalleryImage
	err := r.images.mutate(func(items []domain.GalleryImage) ([]domain.GalleryImage, error) {
		for i := range items {
			if items[i].ID == id {
				removed = items[i]
				return append(items[:i], items[i+1:]...), nil
			}
		}
		return nil, ErrNotFound
	})
	return removed, err
}

type mediaRepository struct {
	items *collection[domain.MediaItem]
}

// NewMediaRepository loads mediaLibrary.json
func NewMediaRepository(store *jsonstore.Store) MediaRepository {
	return &mediaRepository{items: loadCollection(store, FileMediaLibrary, []domain.MediaItem{})}
}

func (r *mediaRepository) List(_ context.Context) []domain.MediaItem {
	items := r.items.snapshot()
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].UploadDate.After(items[j].UploadDate)
	})
	return items
}

func (r *mediaRepository) Get(_ context.Context, id string) (domain.MediaItem, error) {
	r.items.mu.RLock()
	defer r.items.mu.RUnlock()
	for _, m := range r.items.items {
		if m.ID == id {
			return m, nil
		}
	}
	return domain.MediaItem{}, ErrNotFound
}

func (r *mediaRepository) Add(_ context.Context, added ...domain.MediaItem) error {
	return r.items.mutate(func(items []domain.MediaItem) ([]domain.MediaItem, error) {
		return append(items, added...), nil
	})
}

func (r *mediaRepository) Delete(_ context.Context, id string) (domain.MediaItem, error) {
	var removed domain.MediaItem
	err := r.items.mutate(func(items []domain.MediaItem) ([]domain.MediaItem, error) {
		for i := range items {
			if items[i].ID == id {
				removed = items[i]
				return append(items[:i], items[i+1:]...), nil
			}
		}
		return nil, ErrNotFound
	})
	return removed, err
}
