// Package imaging produces thumbnails for uploaded media.
package imaging

import (
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"os"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Thumbnail defaults
const (
	ThumbWidth   = 300
	ThumbHeight  = 300
	ThumbQuality = 80
)

// CoverCrop scales src to fill w x h and crops the overflow evenly from both
// sides, like CSS object-fit: cover
func CoverCrop(src image.Image, w, h int) image.Image {
	b := src.Bounds()
	sw, sh := b.Dx(), b.Dy()
	if sw == 0 || sh == 0 {
		return image.NewRGBA(image.Rect(0, 0, w, h))
	}

	// pick the source rectangle with the target aspect ratio
	crop := b
	if sw*h > sh*w {
		cw := sh * w / h
		x0 := b.Min.X + (sw-cw)/2
		crop = image.Rect(x0, b.Min.Y, x0+cw, b.Max.Y)
	} else {
		ch := sw * h / w
		y0 := b.Min.Y + (sh-ch)/2
		crop = image.Rect(b.Min.X, y0, b.Max.X, y0+ch)
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, draw.Over, nil)
	return dst
}

// WriteThumbnail decodes an image from r and writes a ThumbWidth x
// ThumbHeight JPEG to w
func WriteThumbnail(w io.Writer, r io.Reader) error {
	src, _, err := image.Decode(r)
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}
	thumb := CoverCrop(src, ThumbWidth, ThumbHeight)
	if err := jpeg.Encode(w, thumb, &jpeg.Options{Quality: ThumbQuality}); err != nil {
		return fmt.Errorf("encode thumbnail: %w", err)
	}
	return nil
}

// ThumbnailFile reads the image at srcPath and writes its thumbnail to dstPath
func ThumbnailFile(srcPath, dstPath string) (err error) {
	in, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dstPath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(dstPath)
		}
	}()

	return WriteThumbnail(out, in)
}
