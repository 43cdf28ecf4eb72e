package domain

import (
	"strings"
	"time"
)

// Product status constants. A product starts pending and is moved to
// approved or rejected by an admin.
const (
	ProductStatusPending  = "pending"
	ProductStatusApproved = "approved"
	ProductStatusRejected = "rejected"
)

// Product is a catalog entry. ID is the slug derived from Name at submission.
type Product struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Tagline     string     `json:"tagline"`
	Description string     `json:"description"`
	LogoURL     string     `json:"logo_url"`
	WebsiteURL  string     `json:"website_url"`
	GalleryURLs []string   `json:"gallery_urls"`
	Categories  []string   `json:"categories"`
	Rating      float64    `json:"rating"`
	ReviewCount int        `json:"review_count"`
	Upvotes     int        `json:"upvotes"`
	Status      string     `json:"status"`
	VendorID    *string    `json:"vendor_id,omitempty"`
	MadeIn      *string    `json:"made_in,omitempty"`
	LaunchDate  *time.Time `json:"launch_date,omitempty"`
	Deal        *Deal      `json:"deal,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Reviews is only populated by detail lookups.
	Reviews []Review `json:"reviews,omitempty"`
}

// Deal is an optional promotion attached to a product.
type Deal struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Discount    string     `json:"discount"`
	Code        string     `json:"code,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// ValidStatuses returns every product status.
func ValidStatuses() []string {
	return []string{ProductStatusPending, ProductStatusApproved, ProductStatusRejected}
}

// IsValidStatus reports whether status is a known product status.
func IsValidStatus(status string) bool {
	for _, s := range ValidStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// CanTransition reports whether a product may move from one status to
// another. Admin decisions may be reversed, but nothing returns to pending.
func CanTransition(from, to string) bool {
	if !IsValidStatus(from) || !IsValidStatus(to) {
		return false
	}
	return to != ProductStatusPending
}

// NormalizeCategories trims each category, drops blanks and removes
// duplicates while keeping first-seen order.
func NormalizeCategories(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, c := range in {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// HasCategory reports whether the product is tagged with category.
func (p *Product) HasCategory(category string) bool {
	for _, c := range p.Categories {
		if c == category {
			return true
		}
	}
	return false
}
