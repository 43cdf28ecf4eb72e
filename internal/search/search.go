// Package search defines the full-text index behind the search page. The
// index only answers which products match; the catalog store stays the
// source of truth for everything it returns.
package search

import (
	"context"

	"github.com/mathurkshitij3776/Realpick/internal/domain"
)

// Index is a product full-text index. Matching is a case-insensitive
// substring test over name, tagline and description, restricted to approved
// products. Callers re-index a product whenever its status changes.
type Index interface {
	// Index adds or replaces a single product.
	Index(ctx context.Context, product *domain.Product) error

	// BulkIndex adds or replaces many products in one round trip.
	BulkIndex(ctx context.Context, products []domain.Product) error

	// Search returns the ids of up to limit matching approved products.
	Search(ctx context.Context, query string, limit int) ([]string, error)
}

// Document is the indexed view of a product.
type Document struct {
	Name        string `json:"name"`
	Tagline     string `json:"tagline"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// NewDocument extracts the searchable fields of p.
func NewDocument(p *domain.Product) Document {
	return Document{Name: p.Name, Tagline: p.Tagline, Description: p.Description, Status: p.Status}
}
