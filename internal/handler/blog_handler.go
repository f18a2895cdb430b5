package handler

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"spadoc/internal/container"
	"spadoc/internal/domain"
	"spadoc/internal/repository"
	"spadoc/pkg/errors"
)

// sampleAuthor is credited on the bundled sample posts
const sampleAuthor = "Spa Doctors"

// BlogHandler serves the public blog and the admin post editor
type BlogHandler struct {
	container *container.Container
	now       func() time.Time
}

// NewBlogHandler creates a new blog handler
func NewBlogHandler(container *container.Container) *BlogHandler {
	return &BlogHandler{
		container: container,
		now:       time.Now,
	}
}

// BlogListResponse is the public blog index
type BlogListResponse struct {
	Success          bool              `json:"success"`
	Posts            []domain.BlogPost `json:"posts"`
	Categories       []domain.Category `json:"categories"`
	SelectedCategory string            `json:"selectedCategory,omitempty"`
	CategoryInfo     *domain.Category  `json:"categoryInfo,omitempty"`
}

// PostResponse carries a single post
type PostResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Post    domain.BlogPost `json:"post"`
}

// ImportResponse reports how many posts an import added
type ImportResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// AdminBlogResponse is the admin post list with today's passcode
type AdminBlogResponse struct {
	Success    bool              `json:"success"`
	Posts      []domain.BlogPost `json:"posts"`
	TodaysCode string            `json:"todaysCode"`
}

// List handles GET /api/blog and counts a blog page view
func (h *BlogHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.container.GetLogger()
	blog := h.container.Repositories.Blog

	if err := h.container.Repositories.Analytics.RecordBlogView(ctx, h.now()); err != nil {
		logger.WithError(err).Warn("Failed to record blog view")
	}

	resp := BlogListResponse{Success: true, Categories: domain.Categories()}
	if slug := r.URL.Query().Get("category"); slug != "" {
		if c, ok := domain.LookupCategory(slug); ok {
			resp.Posts = blog.ListByCategory(ctx, slug)
			resp.SelectedCategory = slug
			resp.CategoryInfo = &c
		}
	}
	if resp.Posts == nil {
		resp.Posts = blog.List(ctx)
	}
	writeJSON(w, http.StatusOK, resp, logger)
}

// Categories handles GET /api/blog/categories
func (h *BlogHandler) Categories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"categories": domain.Categories(),
	}, h.container.GetLogger())
}

// Category handles GET /api/blog/category/{category}
func (h *BlogHandler) Category(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()
	slug := chi.URLParam(r, "category")

	c, ok := domain.LookupCategory(slug)
	if !ok {
		writeError(w, errors.NewNotFoundError("Category not found"), logger)
		return
	}
	writeJSON(w, http.StatusOK, BlogListResponse{
		Success:          true,
		Posts:            h.container.Repositories.Blog.ListByCategory(r.Context(), slug),
		Categories:       domain.Categories(),
		SelectedCategory: slug,
		CategoryInfo:     &c,
	}, logger)
}

// Get handles GET /api/blog/{id} and counts an article view
func (h *BlogHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.container.GetLogger()

	id, err := domain.ParseFlexibleID(chi.URLParam(r, "id"))
	if err != nil || id == 0 {
		writeError(w, errors.NewNotFoundError("Blog post not found"), logger)
		return
	}
	post, err := h.container.Repositories.Blog.Get(ctx, id.Int64())
	if err != nil {
		writeError(w, notFoundOr(err, "Blog post not found"), logger)
		return
	}

	if err := h.container.Repositories.Analytics.RecordArticleExpansion(ctx, post.Title, h.now()); err != nil {
		logger.WithError(err).Warn("Failed to record article view")
	}
	writeJSON(w, http.StatusOK, PostResponse{Success: true, Post: post}, logger)
}

// AdminList handles GET /admin/blog
func (h *BlogHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, AdminBlogResponse{
		Success:    true,
		Posts:      h.container.Repositories.Blog.List(r.Context()),
		TodaysCode: h.container.Services.Passcodes.Today(),
	}, h.container.GetLogger())
}

// Add handles POST /admin/add-post
func (h *BlogHandler) Add(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	var in domain.PostInput
	if err := decodeBody(w, r, &in); err != nil {
		writeError(w, err, logger)
		return
	}
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Content) == "" {
		writeError(w, errors.NewValidationError("Title and content are required", nil), logger)
		return
	}

	post := domain.BlogPost{
		Title:   in.Title,
		Content: h.container.Services.Sanitizer.Sanitize(in.Content),
	}
	if _, ok := domain.LookupCategory(in.Category); ok {
		post.Category = in.Category
	}

	added, err := h.container.Repositories.Blog.Add(r.Context(), h.now(), post)
	if err != nil {
		writeError(w, errors.NewInternalError("Failed to save blog post", err), logger)
		return
	}
	logger.WithField("post_id", added[0].ID).Info("Blog post added")
	writeJSON(w, http.StatusOK, PostResponse{Success: true, Message: "Blog post added successfully", Post: added[0]}, logger)
}

// Edit handles POST /admin/edit-post
func (h *BlogHandler) Edit(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	var in domain.PostEdit
	if err := decodeBody(w, r, &in); err != nil {
		writeError(w, err, logger)
		return
	}
	if in.ID == 0 || strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Content) == "" {
		writeError(w, errors.NewValidationError("Post ID, title, and content are required", nil), logger)
		return
	}

	post, err := h.container.Repositories.Blog.Update(r.Context(), in.ID.Int64(),
		strings.TrimSpace(in.Title), h.container.Services.Sanitizer.Sanitize(in.Content), h.now())
	if err != nil {
		writeError(w, notFoundOr(err, "Blog post not found"), logger)
		return
	}
	writeJSON(w, http.StatusOK, PostResponse{Success: true, Message: "Blog post updated successfully", Post: post}, logger)
}

// deleteRequest accepts postId as a number or a string
type deleteRequest struct {
	PostID domain.FlexibleID `json:"postId"`
}

// Delete handles POST /admin/delete-post
func (h *BlogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	var in deleteRequest
	if err := decodeBody(w, r, &in); err != nil {
		writeError(w, err, logger)
		return
	}
	if in.PostID == 0 {
		writeError(w, errors.NewValidationError("Post ID is required", nil), logger)
		return
	}

	if err := h.container.Repositories.Blog.Delete(r.Context(), in.PostID.Int64()); err != nil {
		writeError(w, notFoundOr(err, "Post not found"), logger)
		return
	}
	logger.WithField("post_id", in.PostID.Int64()).Info("Blog post deleted")
	writeJSON(w, http.StatusOK, success("Blog post deleted successfully"), logger)
}

// BulkImport handles POST /admin/bulk-import. Posts without a title or
// content are skipped.
func (h *BlogHandler) BulkImport(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()
	invalid := errors.NewValidationError("Invalid data format. Expected array of posts.", nil)

	var body struct {
		Posts json.RawMessage `json:"posts"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, invalid, logger)
		return
	}
	var req domain.BulkImportRequest
	if err := unmarshalArray(body.Posts, &req.Posts); err != nil {
		writeError(w, invalid, logger)
		return
	}

	posts := make([]domain.BlogPost, 0, len(req.Posts))
	for _, in := range req.Posts {
		if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Content) == "" {
			continue
		}
		posts = append(posts, domain.BlogPost{
			Title:   in.Title,
			Content: h.container.Services.Sanitizer.Sanitize(in.Content),
			Author:  in.Author,
		})
	}

	if err := h.importPosts(r, posts); err != nil {
		writeError(w, errors.NewInternalError("Failed to import posts. Please check your data format.", err), logger)
		return
	}
	writeJSON(w, http.StatusOK, ImportResponse{
		Success: true,
		Message: fmt.Sprintf("Successfully imported %d blog posts", len(posts)),
		Count:   len(posts),
	}, logger)
}

// ImportSamples handles POST /admin/import-sample-posts
func (h *BlogHandler) ImportSamples(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()
	failed := "Failed to import sample posts. Please try again."

	samples, err := repository.SeedBlogPosts()
	if err != nil {
		writeError(w, errors.NewInternalError(failed, err), logger)
		return
	}
	posts := make([]domain.BlogPost, 0, len(samples))
	for _, s := range samples {
		posts = append(posts, domain.BlogPost{
			Title:    s.Title,
			Content:  h.container.Services.Sanitizer.Sanitize(s.Content),
			Author:   sampleAuthor,
			Category: s.Category,
		})
	}

	if err := h.importPosts(r, posts); err != nil {
		writeError(w, errors.NewInternalError(failed, err), logger)
		return
	}
	writeJSON(w, http.StatusOK, ImportResponse{
		Success: true,
		Message: fmt.Sprintf("Successfully imported %d sample blog posts", len(posts)),
		Count:   len(posts),
	}, logger)
}

func (h *BlogHandler) importPosts(r *http.Request, posts []domain.BlogPost) error {
	if len(posts) == 0 {
		return nil
	}
	_, err := h.container.Repositories.Blog.Add(r.Context(), h.now(), posts...)
	if err == nil {
		h.container.GetLogger().WithField("count", len(posts)).Info("Blog posts imported")
	}
	return err
}

var errNotArray = stderrors.New("not a JSON array")

// unmarshalArray decodes a JSON array into dst. Form posts carry the array
// as a JSON encoded string, which is unwrapped first.
func unmarshalArray(raw json.RawMessage, dst interface{}) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		raw = bytes.TrimSpace([]byte(s))
	}
	if len(raw) == 0 || raw[0] != '[' {
		return errNotArray
	}
	return json.Unmarshal(raw, dst)
}
