// Package media stores uploaded files for the gallery and the media
// library, generates thumbnails and keeps the collections in step with
// the files on disk.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"spadoc/internal/domain"
	"spadoc/internal/repository"
	"spadoc/pkg/imaging"
	"spadoc/pkg/logger"
)

// Upload limits
const (
	MaxGalleryFiles = 10
	MaxMediaFiles   = 5
	MaxFileSize     = 50 << 20
)

// Subdirectories of the upload directory
const (
	MediaDir      = "media"
	ThumbnailsDir = "thumbnails"
)

var (
	// ErrUnsupportedType is returned for files that are neither image nor video
	ErrUnsupportedType = errors.New("only image and video files are allowed")
	// ErrNoFiles is returned when an upload carries no files
	ErrNoFiles = errors.New("no files uploaded")
	// ErrTooLarge is returned for files over MaxFileSize
	ErrTooLarge = errors.New("file too large")
)

// File is one uploaded file
type File struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// Library manages uploaded files
type Library struct {
	dir     string
	gallery repository.GalleryRepository
	media   repository.MediaRepository
	log     *logger.Logger
	now     func() time.Time
}

// NewLibrary creates the upload directories under dir
func NewLibrary(dir string, gallery repository.GalleryRepository, media repository.MediaRepository, log *logger.Logger) (*Library, error) {
	for _, sub := range []string{"", MediaDir, ThumbnailsDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("create upload directory: %w", err)
		}
	}
	return &Library{dir: dir, gallery: gallery, media: media, log: log.Component("media"), now: time.Now}, nil
}

// Dir returns the upload root
func (l *Library) Dir() string {
	return l.dir
}

// Gallery returns the gallery images
func (l *Library) Gallery(ctx context.Context) []domain.GalleryImage {
	return l.gallery.List(ctx)
}

// Items returns the media library, newest first
func (l *Library) Items(ctx context.Context) []domain.MediaItem {
	return l.media.List(ctx)
}

// AddGalleryImages stores image files and appends them to the gallery
func (l *Library) AddGalleryImages(ctx context.Context, files []File, description string) ([]domain.GalleryImage, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	for _, f := range files {
		if t, ok := domain.MediaTypeFor(f.ContentType); !ok || t != domain.MediaImage {
			return nil, ErrUnsupportedType
		}
	}

	images := make([]domain.GalleryImage, 0, len(files))
	var written []string
	for _, f := range files {
		name, path, err := l.store(l.dir, f)
		if err != nil {
			l.removeFiles(written...)
			return nil, err
		}
		written = append(written, path)
		images = append(images, domain.GalleryImage{
			ID:           uuid.NewString(),
			Filename:     name,
			OriginalName: f.Name,
			Description:  description,
			UploadDate:   l.now().UTC(),
			Path:         path,
		})
	}

	if err := l.gallery.Add(ctx, images...); err != nil {
		l.removeFiles(written...)
		return nil, err
	}
	return images, nil
}

// DeleteGalleryImage removes the record, then the file. A missing file is
// only logged.
func (l *Library) DeleteGalleryImage(ctx context.Context, id string) error {
	img, err := l.gallery.Delete(ctx, id)
	if err != nil {
		return err
	}
	l.removeFiles(img.Path)
	return nil
}

// UploadMedia stores files in the media library. Images get a thumbnail;
// a failed thumbnail leaves the item without one.
func (l *Library) UploadMedia(ctx context.Context, files []File, title, tags string) ([]domain.MediaItem, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	for _, f := range files {
		if _, ok := domain.MediaTypeFor(f.ContentType); !ok {
			return nil, ErrUnsupportedType
		}
	}

	items := make([]domain.MediaItem, 0, len(files))
	var written []string
	for _, f := range files {
		item, paths, err := l.storeMedia(f, title, tags)
		if err != nil {
			l.removeFiles(written...)
			return nil, err
		}
		written = append(written, paths...)
		items = append(items, item)
	}

	if err := l.media.Add(ctx, items...); err != nil {
		l.removeFiles(written...)
		return nil, err
	}
	return items, nil
}

// AttachMedia stores a single file for a social post and returns its id
func (l *Library) AttachMedia(ctx context.Context, f File) (string, error) {
	items, err := l.UploadMedia(ctx, []File{f}, "", "")
	if err != nil {
		return "", err
	}
	return items[0].ID, nil
}

func (l *Library) storeMedia(f File, title, tags string) (domain.MediaItem, []string, error) {
	mediaType, _ := domain.MediaTypeFor(f.ContentType)
	name, path, err := l.store(filepath.Join(l.dir, MediaDir), f)
	if err != nil {
		return domain.MediaItem{}, nil, err
	}
	if strings.TrimSpace(title) == "" {
		title = f.Name
	}

	item := domain.MediaItem{
		ID:           uuid.NewString(),
		Filename:     name,
		OriginalName: f.Name,
		Title:        title,
		Tags:         domain.ParseTags(tags),
		Type:         mediaType,
		Size:         f.Size,
		UploadDate:   l.now().UTC(),
		Path:         path,
	}
	paths := []string{path}

	if mediaType == domain.MediaImage {
		thumb := domain.ThumbnailName(name)
		thumbPath := filepath.Join(l.dir, ThumbnailsDir, thumb)
		if err := imaging.ThumbnailFile(path, thumbPath); err != nil {
			l.log.WithError(err).WithField("file", name).Warn("Thumbnail generation failed")
		} else {
			item.Thumbnail = thumb
			paths = append(paths, thumbPath)
		}
	}
	return item, paths, nil
}

// DeleteMedia removes the record, then its file and thumbnail
func (l *Library) DeleteMedia(ctx context.Context, id string) error {
	item, err := l.media.Delete(ctx, id)
	if err != nil {
		return err
	}
	l.removeFiles(item.Path)
	if item.Thumbnail != "" {
		l.removeFiles(filepath.Join(l.dir, ThumbnailsDir, item.Thumbnail))
	}
	return nil
}

// store copies f into dir under a unique name keeping the extension
func (l *Library) store(dir string, f File) (name, path string, err error) {
	if f.Size > MaxFileSize {
		return "", "", ErrTooLarge
	}
	src, err := f.Open()
	if err != nil {
		return "", "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	name = fmt.Sprintf("%d-%s%s", l.now().UnixMilli(), uuid.NewString()[:8], strings.ToLower(filepath.Ext(f.Name)))
	path = filepath.Join(dir, name)

	dst, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return "", "", fmt.Errorf("create upload file: %w", err)
	}
	if _, err = io.Copy(dst, io.LimitReader(src, MaxFileSize+1)); err == nil {
		err = dst.Close()
	} else {
		dst.Close()
	}
	if err != nil {
		os.Remove(path)
		return "", "", fmt.Errorf("write upload file: %w", err)
	}
	return name, path, nil
}

func (l *Library) removeFiles(paths ...string) {
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			l.log.WithError(err).WithField("path", p).Warn("Failed to delete upload")
		}
	}
}
