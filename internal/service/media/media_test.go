package media

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spadoc/internal/domain"
	"spadoc/internal/repository"
	"spadoc/pkg/jsonstore"
	"spadoc/pkg/logger"
)

func newLibrary(t *testing.T) *Library {
	t.Helper()
	store, err := jsonstore.New(t.TempDir(), logger.NewNop())
	require.NoError(t, err)
	lib, err := NewLibrary(t.TempDir(), repository.NewGalleryRepository(store), repository.NewMediaRepository(store), logger.NewNop())
	require.NoError(t, err)
	return lib
}

func fileOf(name, contentType string, data []byte) File {
	return File{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for x := 0; x < 40; x++ {
		for y := 0; y < 20; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestGalleryUploadAndDelete(t *testing.T) {
	lib := newLibrary(t)
	ctx := context.Background()

	images, err := lib.AddGalleryImages(ctx, []File{
		fileOf("Tub.PNG", "image/png", pngBytes(t)),
		fileOf("cover.png", "image/png", pngBytes(t)),
	}, "Before and after")
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, "Tub.PNG", images[0].OriginalName)
	assert.Equal(t, ".png", filepath.Ext(images[0].Filename))
	assert.FileExists(t, images[0].Path)
	assert.Len(t, lib.Gallery(ctx), 2)

	require.NoError(t, lib.DeleteGalleryImage(ctx, images[0].ID))
	assert.NoFileExists(t, images[0].Path)
	assert.Len(t, lib.Gallery(ctx), 1)

	assert.ErrorIs(t, lib.DeleteGalleryImage(ctx, "missing"), repository.ErrNotFound)
}

func TestGalleryRejectsNonImages(t *testing.T) {
	lib := newLibrary(t)
	_, err := lib.AddGalleryImages(context.Background(), []File{fileOf("clip.mp4", "video/mp4", []byte("x"))}, "")
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = lib.AddGalleryImages(context.Background(), nil, "")
	assert.ErrorIs(t, err, ErrNoFiles)
}

func TestUploadMedia(t *testing.T) {
	lib := newLibrary(t)
	ctx := context.Background()

	items, err := lib.UploadMedia(ctx, []File{
		fileOf("spa.png", "image/png", pngBytes(t)),
		fileOf("clip.mp4", "video/mp4", []byte("not really a video")),
	}, "", "repair, heater ,spring")
	require.NoError(t, err)
	require.Len(t, items, 2)

	img, vid := items[0], items[1]
	assert.Equal(t, domain.MediaImage, img.Type)
	assert.Equal(t, "spa.png", img.Title)
	assert.Equal(t, []string{"repair", "heater", "spring"}, img.Tags)
	require.NotEmpty(t, img.Thumbnail)
	thumb := filepath.Join(lib.Dir(), ThumbnailsDir, img.Thumbnail)
	assert.FileExists(t, thumb)

	assert.Equal(t, domain.MediaVideo, vid.Type)
	assert.Empty(t, vid.Thumbnail)

	require.NoError(t, lib.DeleteMedia(ctx, img.ID))
	assert.NoFileExists(t, img.Path)
	assert.NoFileExists(t, thumb)
	assert.Len(t, lib.Items(ctx), 1)
}

func TestBrokenImageSkipsThumbnail(t *testing.T) {
	lib := newLibrary(t)
	items, err := lib.UploadMedia(context.Background(), []File{fileOf("bad.jpg", "image/jpeg", []byte("garbage"))}, "Bad", "")
	require.NoError(t, err)
	assert.Empty(t, items[0].Thumbnail)
	assert.Equal(t, "Bad", items[0].Title)

	entries, err := os.ReadDir(filepath.Join(lib.Dir(), ThumbnailsDir))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAttachMedia(t *testing.T) {
	lib := newLibrary(t)
	id, err := lib.AttachMedia(context.Background(), fileOf("a.png", "image/png", pngBytes(t)))
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}
