package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestCoverCropDimensions(t *testing.T) {
	for _, size := range [][2]int{{1200, 600}, {600, 1200}, {300, 300}, {50, 80}} {
		out := CoverCrop(solid(size[0], size[1], color.White), ThumbWidth, ThumbHeight)
		assert.Equal(t, image.Rect(0, 0, 300, 300), out.Bounds(), "%v", size)
	}
}

func TestCoverCropKeepsCenter(t *testing.T) {
	// wide image: red edges, blue center third
	src := solid(900, 300, color.RGBA{R: 255, A: 255})
	for y := 0; y < 300; y++ {
		for x := 300; x < 600; x++ {
			src.Set(x, y, color.RGBA{B: 255, A: 255})
		}
	}

	out := CoverCrop(src, 300, 300)
	r, _, b, _ := out.At(150, 150).RGBA()
	assert.Zero(t, r)
	assert.NotZero(t, b)
}

func TestThumbnailFile(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "photo.png")

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solid(640, 480, color.White)))
	require.NoError(t, os.WriteFile(srcPath, buf.Bytes(), 0o644))

	dstPath := filepath.Join(dir, "thumb_photo.png")
	require.NoError(t, ThumbnailFile(srcPath, dstPath))

	f, err := os.Open(dstPath)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := jpeg.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.Width)
	assert.Equal(t, 300, cfg.Height)
}

func TestThumbnailFileRejectsNonImage(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "clip.mp4")
	require.NoError(t, os.WriteFile(srcPath, []byte("not an image"), 0o644))

	dstPath := filepath.Join(dir, "thumb_clip.mp4")
	assert.Error(t, ThumbnailFile(srcPath, dstPath))
	assert.NoFileExists(t, dstPath)
}
