package handler

import (
	stderrors "errors"
	"mime"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"spadoc/internal/container"
	"spadoc/internal/domain"
	"spadoc/internal/service/media"
	"spadoc/internal/service/social"
	"spadoc/pkg/errors"
)

const invalidSocialPostMessage = "Content and platforms are required"

// SocialHandler handles social cross-posts and their settings
type SocialHandler struct {
	container *container.Container
}

// NewSocialHandler creates a new social handler
func NewSocialHandler(container *container.Container) *SocialHandler {
	return &SocialHandler{
		container: container,
	}
}

// SocialPostResponse is returned after a post is created
type SocialPostResponse struct {
	Success bool                             `json:"success"`
	Message string                           `json:"message"`
	Post    domain.SocialPost                `json:"post"`
	Results map[string]domain.PlatformResult `json:"results"`
}

// List handles GET /social-posts
func (h *SocialHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.container.Services.Social.List(r.Context()), h.container.GetLogger())
}

// Create handles POST /create-social-post. The body is JSON, or a
// multipart form that may carry one file under mediaFile. platforms is an
// array or a JSON encoded array string.
func (h *SocialHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.container.GetLogger()
	invalid := errors.NewValidationError(invalidSocialPostMessage, nil)

	var (
		in    social.CreatePostInput
		files []media.File
	)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if strings.HasPrefix(mediaType, "multipart/") {
		form, err := parseSocialForm(w, r)
		if err != nil {
			writeError(w, err, logger)
			return
		}
		in, files = form.input, form.files
	} else {
		var body struct {
			Content   string          `json:"content"`
			Platforms json.RawMessage `json:"platforms"`
		}
		if err := decodeBody(w, r, &body); err != nil {
			writeError(w, err, logger)
			return
		}
		in.Content = body.Content
		if len(body.Platforms) > 0 && unmarshalArray(body.Platforms, &in.Platforms) != nil {
			writeError(w, invalid, logger)
			return
		}
	}

	if strings.TrimSpace(in.Content) == "" || len(in.Platforms) == 0 {
		writeError(w, invalid, logger)
		return
	}

	if len(files) > 0 {
		id, err := h.container.Services.Media.AttachMedia(ctx, files[0])
		if err != nil {
			writeError(w, uploadError(err), logger)
			return
		}
		in.MediaID = &id
	}

	post, err := h.container.Services.Social.Create(ctx, in)
	if err != nil {
		if stderrors.Is(err, social.ErrInvalidPost) {
			writeError(w, invalid, logger)
			return
		}
		writeError(w, errors.NewInternalError("Failed to save social post", err), logger)
		return
	}

	writeJSON(w, http.StatusOK, SocialPostResponse{
		Success: true,
		Message: "Post created successfully!",
		Post:    post,
		Results: post.PlatformResults,
	}, logger)
}

type socialForm struct {
	input social.CreatePostInput
	files []media.File
}

func parseSocialForm(w http.ResponseWriter, r *http.Request) (socialForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, media.MaxFileSize+maxBodyBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return socialForm{}, errors.NewValidationError(invalidSocialPostMessage, nil)
	}

	form := socialForm{input: social.CreatePostInput{Content: r.FormValue("content")}}
	for _, raw := range r.MultipartForm.Value["platforms"] {
		raw = strings.TrimSpace(raw)
		if strings.HasPrefix(raw, "[") {
			var list []string
			if err := json.Unmarshal([]byte(raw), &list); err != nil {
				return socialForm{}, errors.NewValidationError(invalidSocialPostMessage, nil)
			}
			form.input.Platforms = append(form.input.Platforms, list...)
		} else if raw != "" {
			form.input.Platforms = append(form.input.Platforms, raw)
		}
	}
	if headers := r.MultipartForm.File["mediaFile"]; len(headers) > 0 {
		form.files = toFiles(headers[:1])
	}
	return form, nil
}

// GetSettings handles GET /social-settings
func (h *SocialHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.container.Repositories.SocialSettings.Get(r.Context()), h.container.GetLogger())
}

// UpdateSettings handles POST /social-settings
func (h *SocialHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	var update domain.SocialSettingsUpdate
	if err := decodeBody(w, r, &update); err != nil {
		writeError(w, err, logger)
		return
	}
	if _, err := h.container.Repositories.SocialSettings.Update(r.Context(), update); err != nil {
		writeError(w, errors.NewInternalError("Failed to save settings", err), logger)
		return
	}
	writeJSON(w, http.StatusOK, success("Settings updated successfully"), logger)
}
