package handler

import (
	stderrors "errors"
	"mime"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"spadoc/internal/repository"
	"spadoc/pkg/errors"
	"spadoc/pkg/logger"
)

// maxBodyBytes caps JSON and form bodies. Uploads have their own limit.
const maxBodyBytes = 1 << 20

// MessageResponse is the body of most successful admin actions
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func success(message string) MessageResponse {
	return MessageResponse{Success: true, Message: message}
}

// writeJSON writes v with the given status
func writeJSON(w http.ResponseWriter, status int, v interface{}, log *logger.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("Failed to encode response")
	}
}

// writeError translates err into the error body. Anything that is not an
// AppError is logged and reported as a generic internal error.
func writeError(w http.ResponseWriter, err error, log *logger.Logger) {
	appErr := errors.From(err)
	if appErr.StatusCode >= http.StatusInternalServerError {
		log.WithError(appErr).Error("Request error")
	}
	writeJSON(w, appErr.StatusCode, appErr.Response(), log)
}

// notFoundOr maps repository.ErrNotFound to a 404 with message and wraps
// anything else as a write failure
func notFoundOr(err error, message string) *errors.AppError {
	if stderrors.Is(err, repository.ErrNotFound) {
		return errors.NewNotFoundError(message)
	}
	return errors.NewInternalError("Failed to save changes", err)
}

// decodeBody fills dst from a JSON body, or from a urlencoded or multipart
// form. Form values are mapped onto the JSON field names, so dst must use
// string fields for anything a form can send.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch {
	case mediaType == "application/x-www-form-urlencoded":
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			return errors.NewValidationError("Invalid form body", nil)
		}
		return decodeForm(r.PostForm, dst)
	case strings.HasPrefix(mediaType, "multipart/"):
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
			return errors.NewValidationError("Invalid form body", nil)
		}
		return decodeForm(r.MultipartForm.Value, dst)
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return errors.NewValidationError("Invalid request body", nil)
	}
	return nil
}

func decodeForm(values map[string][]string, dst interface{}) error {
	fields := make(map[string]interface{}, len(values))
	for k, v := range values {
		switch len(v) {
		case 0:
		case 1:
			fields[k] = v[0]
		default:
			fields[k] = v
		}
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return errors.NewValidationError("Invalid form body", nil)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return errors.NewValidationError("Invalid form body", nil)
	}
	return nil
}
