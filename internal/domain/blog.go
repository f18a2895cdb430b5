package domain

import (
	"strings"
	"time"
)

// DefaultAuthor is recorded on posts created without an explicit author
const DefaultAuthor = "Admin"

// DefaultCategory is assigned by the category backfill when a title has no mapping
const DefaultCategory = "maintenance-care"

// BlogPost is one article in the blog collection
type BlogPost struct {
	ID           int64      `json:"id"`
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	Date         time.Time  `json:"date"`
	Author       string     `json:"author"`
	Category     string     `json:"category,omitempty"`
	LastModified *time.Time `json:"lastModified,omitempty"`
}

// ApplyDefaults fills optional fields. Every code path that creates or loads
// posts goes through here so the defaults live in one place.
func (p *BlogPost) ApplyDefaults() {
	p.Title = strings.TrimSpace(p.Title)
	if strings.TrimSpace(p.Author) == "" {
		p.Author = DefaultAuthor
	}
}

// HasCategory reports whether the post carries a known category
func (p BlogPost) HasCategory() bool {
	_, ok := LookupCategory(p.Category)
	return ok
}

// PostInput is the admin form for creating a post
type PostInput struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Author   string `json:"author,omitempty"`
	Category string `json:"category,omitempty"`
}

// PostEdit is the admin form for editing a post
type PostEdit struct {
	ID      FlexibleID `json:"id"`
	Title   string     `json:"title"`
	Content string     `json:"content"`
}

// BulkImportRequest carries posts pasted into the admin bulk-import form
type BulkImportRequest struct {
	Posts []PostInput `json:"posts"`
}

// Category describes one of the fixed blog categories
type Category struct {
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

var categories = []Category{
	{Slug: "maintenance-care", Name: "Maintenance & Care", Description: "Regular upkeep, cleaning, and preventive care for your hot tub", Icon: "🧽"},
	{Slug: "troubleshooting-repair", Name: "Troubleshooting & Repair", Description: "Common problems, repairs, and diagnostic guides", Icon: "🔧"},
	{Slug: "safety-electrical", Name: "Safety & Electrical", Description: "Safety tips, electrical guidelines, and code compliance", Icon: "⚡"},
	{Slug: "seasonal-moving", Name: "Seasonal & Moving", Description: "Winter care, transport, and seasonal preparation", Icon: "🚚"},
	{Slug: "professional-services", Name: "Professional Services", Description: "When to call experts and professional service information", Icon: "👨‍🔧"},
}

// Categories returns the blog categories in display order
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// LookupCategory finds a category by slug
func LookupCategory(slug string) (Category, bool) {
	for _, c := range categories {
		if c.Slug == slug {
			return c, true
		}
	}
	return Category{}, false
}

// titleCategories maps legacy article titles to their category
var titleCategories = map[string]string{
	"5 Signs Your Hot Tub Needs Professional Repair":                  "troubleshooting-repair",
	"Winter Hot Tub Maintenance: Essential Tips for Cold Weather":     "seasonal-moving",
	"Hot Tub Water Chemistry Made Simple: A Beginner's Guide":         "maintenance-care",
	"How Often Should You Change Your Hot Tub Water?":                 "maintenance-care",
	"Hot Tub Filter Maintenance: Clean Filters = Clean Water":         "maintenance-care",
	"Why Is My Hot Tub Not Heating? Troubleshooting Guide":            "troubleshooting-repair",
	"Hot Tub Cover Care: Extend Life and Save Energy":                 "maintenance-care",
	"Understanding Hot Tub Jets: Types, Function, and Maintenance":    "maintenance-care",
	"Hot Tub Electrical Safety: What Every Owner Should Know":         "safety-electrical",
	"Hot Tub Pump Problems: Diagnosis and Solutions":                  "troubleshooting-repair",
	"Preparing Your Hot Tub for a Move: Professional Transport Guide": "seasonal-moving",
	"When to Call a Professional: Hot Tub Repair vs. DIY":             "professional-services",
}

// CategoryForTitle returns the mapped category for a title, or DefaultCategory
func CategoryForTitle(title string) string {
	if c, ok := titleCategories[title]; ok {
		return c
	}
	return DefaultCategory
}
