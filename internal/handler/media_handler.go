package handler

import (
	stderrors "errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"spadoc/internal/container"
	"spadoc/internal/domain"
	"spadoc/internal/repository"
	"spadoc/internal/service/media"
	"spadoc/pkg/errors"
)

// multipartMemory is how much of an upload is buffered before spilling to
// temporary files
const multipartMemory = 32 << 20

// MediaHandler handles gallery and media library uploads
type MediaHandler struct {
	container *container.Container
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(container *container.Container) *MediaHandler {
	return &MediaHandler{
		container: container,
	}
}

// GalleryResponse lists gallery images
type GalleryResponse struct {
	Success bool                  `json:"success"`
	Message string                `json:"message,omitempty"`
	Count   int                   `json:"count,omitempty"`
	Images  []domain.GalleryImage `json:"images"`
}

// MediaUploadResponse lists the media items an upload created
type MediaUploadResponse struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Files   []domain.MediaItem `json:"files"`
}

// Gallery handles GET /api/gallery and GET /admin/gallery-images
func (h *MediaHandler) Gallery(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, GalleryResponse{
		Success: true,
		Images:  h.container.Services.Media.Gallery(r.Context()),
	}, h.container.GetLogger())
}

// UploadImage handles POST /upload-image, the single image form
func (h *MediaHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	files, err := formFiles(w, r, "image", 1)
	if err != nil {
		writeError(w, err, logger)
		return
	}
	if _, err := h.container.Services.Media.AddGalleryImages(r.Context(), files, ""); err != nil {
		writeError(w, uploadError(err), logger)
		return
	}
	writeJSON(w, http.StatusOK, success("Image uploaded successfully!"), logger)
}

// UploadGallery handles POST /admin/upload-gallery-images
func (h *MediaHandler) UploadGallery(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	files, err := formFiles(w, r, "images", media.MaxGalleryFiles)
	if err != nil {
		writeError(w, err, logger)
		return
	}
	images, err := h.container.Services.Media.AddGalleryImages(r.Context(), files, r.FormValue("description"))
	if err != nil {
		writeError(w, uploadError(err), logger)
		return
	}

	logger.WithField("count", len(images)).Info("Gallery images uploaded")
	writeJSON(w, http.StatusOK, GalleryResponse{
		Success: true,
		Message: fmt.Sprintf("%d image(s) uploaded successfully!", len(images)),
		Count:   len(images),
		Images:  images,
	}, logger)
}

type deleteImageRequest struct {
	ImageID string `json:"imageId"`
}

// DeleteGalleryImage handles POST /admin/delete-gallery-image
func (h *MediaHandler) DeleteGalleryImage(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	var req deleteImageRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err, logger)
		return
	}
	if err := h.container.Services.Media.DeleteGalleryImage(r.Context(), req.ImageID); err != nil {
		writeError(w, notFoundOr(err, "Image not found"), logger)
		return
	}
	writeJSON(w, http.StatusOK, success("Image deleted successfully!"), logger)
}

// Library handles GET /media-library
func (h *MediaHandler) Library(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.container.Services.Media.Items(r.Context()), h.container.GetLogger())
}

// UploadMedia handles POST /upload-media
func (h *MediaHandler) UploadMedia(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	files, err := formFiles(w, r, "mediaFiles", media.MaxMediaFiles)
	if err != nil {
		writeError(w, err, logger)
		return
	}
	items, err := h.container.Services.Media.UploadMedia(r.Context(), files, r.FormValue("title"), r.FormValue("tags"))
	if err != nil {
		writeError(w, uploadError(err), logger)
		return
	}

	logger.WithField("count", len(items)).Info("Media uploaded")
	writeJSON(w, http.StatusOK, MediaUploadResponse{
		Success: true,
		Message: fmt.Sprintf("%d file(s) uploaded successfully!", len(items)),
		Files:   items,
	}, logger)
}

// DeleteMedia handles DELETE /media/{id}
func (h *MediaHandler) DeleteMedia(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	if err := h.container.Services.Media.DeleteMedia(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, notFoundOr(err, "Media not found"), logger)
		return
	}
	writeJSON(w, http.StatusOK, success("Media deleted successfully"), logger)
}

// formFiles parses a multipart upload and returns the files under field.
// More than max files is rejected before anything is stored.
func formFiles(w http.ResponseWriter, r *http.Request, field string, max int) ([]media.File, error) {
	r.Body = http.MaxBytesReader(w, r.Body, int64(max)*media.MaxFileSize+maxBodyBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return nil, errors.NewValidationError("File too large", nil)
		}
		return nil, errors.NewValidationError("No files uploaded", nil)
	}

	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		return nil, errors.NewValidationError("No files uploaded", nil)
	}
	if len(headers) > max {
		return nil, errors.NewValidationError(fmt.Sprintf("Too many files, at most %d allowed", max), nil)
	}
	return toFiles(headers), nil
}

func toFiles(headers []*multipart.FileHeader) []media.File {
	files := make([]media.File, 0, len(headers))
	for _, fh := range headers {
		fh := fh
		files = append(files, media.File{
			Name:        fh.Filename,
			ContentType: strings.ToLower(fh.Header.Get("Content-Type")),
			Size:        fh.Size,
			Open:        func() (io.ReadCloser, error) { return fh.Open() },
		})
	}
	return files
}

// uploadError maps media library errors to responses
func uploadError(err error) *errors.AppError {
	switch {
	case stderrors.Is(err, media.ErrUnsupportedType):
		return errors.NewValidationError("Only image and video files are allowed!", nil)
	case stderrors.Is(err, media.ErrNoFiles):
		return errors.NewValidationError("No files uploaded", nil)
	case stderrors.Is(err, media.ErrTooLarge):
		return errors.NewValidationError("File too large", nil)
	case stderrors.Is(err, repository.ErrNotFound):
		return errors.NewNotFoundError("Not found")
	default:
		return errors.NewInternalError("Failed to save upload", err)
	}
}
