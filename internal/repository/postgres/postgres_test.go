package postgres

import (
	"encoding/json"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/mathurkshitij3776/Realpick/internal/domain"
)

// ─────────────────────────────────────────────────────────────────────────────
// helpers
// ─────────────────────────────────────────────────────────────────────────────

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return mock
}

func strPtr(s string) *string { return &s }

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

var productColumnNames = []string{
	"id", "name", "tagline", "description", "logo_url", "website_url",
	"gallery_urls", "categories", "rating", "review_count", "upvotes",
	"status", "vendor_id", "made_in", "launch_date", "deal",
	"created_at", "updated_at",
}

func sampleProduct() domain.Product {
	launch := now.Add(-24 * time.Hour)
	return domain.Product{
		ID:          "dev-tool-20",
		Name:        "Dev Tool™ 2.0",
		Tagline:     "Ship faster",
		Description: "A tool for developers",
		LogoURL:     "https://cdn.example.com/logo.png",
		WebsiteURL:  "https://devtool.example.com",
		GalleryURLs: []string{"https://cdn.example.com/1.png"},
		Categories:  []string{"Dev Tools", "AI"},
		Status:      domain.ProductStatusPending,
		VendorID:    strPtr("4b0c1f3e-7d4c-4a43-9a55-0d7f6f5b2c11"),
		LaunchDate:  &launch,
		Deal:        &domain.Deal{Title: "Launch week", Discount: "20%", Code: "LAUNCH20"},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func productRow(p domain.Product) []any {
	var dealJSON []byte
	if p.Deal != nil {
		dealJSON, _ = json.Marshal(p.Deal)
	}
	return []any{
		p.ID, p.Name, p.Tagline, p.Description, p.LogoURL, p.WebsiteURL,
		p.GalleryURLs, p.Categories, p.Rating, p.ReviewCount, p.Upvotes,
		p.Status, p.VendorID, p.MadeIn, p.LaunchDate, dealJSON,
		p.CreatedAt, p.UpdatedAt,
	}
}
