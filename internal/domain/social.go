package domain

import "time"

// Social platforms the admin can cross-post to
const (
	PlatformGoogle    = "google"
	PlatformFacebook  = "facebook"
	PlatformInstagram = "instagram"
)

// Post lifecycle states
const (
	SocialStatusScheduled = "scheduled"
	SocialStatusPublished = "published"
)

// SocialPost is a cross-post created from the admin dashboard
type SocialPost struct {
	ID              string                    `json:"id"`
	Content         string                    `json:"content"`
	MediaID         *string                   `json:"mediaId"`
	Platforms       []string                  `json:"platforms"`
	Status          string                    `json:"status"`
	PostDate        time.Time                 `json:"postDate"`
	CreatedAt       time.Time                 `json:"createdAt"`
	Analytics       SocialAnalytics           `json:"analytics"`
	PlatformResults map[string]PlatformResult `json:"platformResults"`
}

// SocialAnalytics holds engagement counters; they start at zero
type SocialAnalytics struct {
	Views    int `json:"views"`
	Likes    int `json:"likes"`
	Shares   int `json:"shares"`
	Comments int `json:"comments"`
}

// PlatformResult is the outcome of posting to one platform
type PlatformResult struct {
	Platform      string `json:"platform"`
	Success       bool   `json:"success"`
	Error         string `json:"error,omitempty"`
	Message       string `json:"message,omitempty"`
	SetupRequired bool   `json:"setupRequired,omitempty"`
	ExternalID    string `json:"externalId,omitempty"`
}

// PlatformConnection is the connection state of one platform
type PlatformConnection struct {
	Connected         bool     `json:"connected"`
	BusinessLocations []string `json:"businessLocations,omitempty"`
}

// SocialSettings configures cross-posting. Credentials are never stored here.
type SocialSettings struct {
	Google             PlatformConnection `json:"google"`
	Facebook           PlatformConnection `json:"facebook"`
	Instagram          PlatformConnection `json:"instagram"`
	DefaultTemplate    string             `json:"defaultTemplate"`
	AutoAddContact     *bool              `json:"autoAddContact,omitempty"`
	IncludeWebsiteLink *bool              `json:"includeWebsiteLink,omitempty"`
	SendNotifications  *bool              `json:"sendNotifications,omitempty"`
}

// DefaultSocialSettings returns the settings used before any admin change
func DefaultSocialSettings() SocialSettings {
	return SocialSettings{
		Google:          PlatformConnection{BusinessLocations: []string{}},
		DefaultTemplate: "#HotTubRepair #DenverServices #SpaExperts\n\nCall (856) 266-7293 for professional hot tub service!",
	}
}

// SocialSettingsUpdate is the admin request body for the settings form
type SocialSettingsUpdate struct {
	DefaultTemplate    string `json:"defaultTemplate"`
	AutoAddContact     *bool  `json:"autoAddContact"`
	IncludeWebsiteLink *bool  `json:"includeWebsiteLink"`
	SendNotifications  *bool  `json:"sendNotifications"`
}
