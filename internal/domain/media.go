package domain

import (
	"strings"
	"time"
)

// GalleryImage is a photo shown on the public gallery page
type GalleryImage struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"originalname"`
	Description  string    `json:"description"`
	UploadDate   time.Time `json:"uploadDate"`
	Path         string    `json:"path"`
}

// MediaType classifies a media library item
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

// MediaTypeFor classifies a MIME type; ok is false for anything but image/* and video/*
func MediaTypeFor(mimeType string) (MediaType, bool) {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return MediaImage, true
	case strings.HasPrefix(mimeType, "video/"):
		return MediaVideo, true
	default:
		return "", false
	}
}

// MediaItem is an uploaded image or video available for social posts
type MediaItem struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"originalName"`
	Title        string    `json:"title"`
	Tags         []string  `json:"tags"`
	Type         MediaType `json:"type"`
	Size         int64     `json:"size"`
	UploadDate   time.Time `json:"uploadDate"`
	Path         string    `json:"path"`
	Thumbnail    string    `json:"thumbnail,omitempty"`
}

// ParseTags splits a comma separated tag list, trimming each entry
func ParseTags(raw string) []string {
	if raw == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		tags = append(tags, strings.TrimSpace(p))
	}
	return tags
}

// ThumbnailName is the thumbnail file name generated for an image upload
func ThumbnailName(filename string) string {
	return "thumb_" + filename
}
