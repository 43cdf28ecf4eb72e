package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mathurkshitij3776/Realpick/internal/domain"
	"github.com/mathurkshitij3776/Realpick/internal/repository"
	"github.com/mathurkshitij3776/Realpick/pkg/database"
	apperrors "github.com/mathurkshitij3776/Realpick/pkg/errors"
)

var productFields = []string{
	"id", "name", "tagline", "description", "logo_url", "website_url",
	"gallery_urls", "categories", "rating::float8", "review_count", "upvotes",
	"status", "vendor_id::text", "made_in", "launch_date", "deal",
	"created_at", "updated_at",
}

// productColumns renders the product select list, optionally qualified by a
// table alias.
func productColumns(alias string) string {
	if alias == "" {
		return strings.Join(productFields, ", ")
	}
	cols := make([]string, len(productFields))
	for i, f := range productFields {
		cols[i] = alias + "." + f
	}
	return strings.Join(cols, ", ")
}

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	db database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(db database.DBTX) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create inserts a new product.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) (err error) {
	dealJSON, err := marshalDeal(p.Deal)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO products (id, name, tagline, description, logo_url, website_url, gallery_urls, categories,
			rating, review_count, upvotes, status, vendor_id, made_in, launch_date, deal, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	ctx, end := database.TraceQuery(ctx, "CreateProduct", query)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, query,
		p.ID,
		p.Name,
		p.Tagline,
		p.Description,
		p.LogoURL,
		p.WebsiteURL,
		textArray(p.GalleryURLs),
		textArray(p.Categories),
		p.Rating,
		p.ReviewCount,
		p.Upvotes,
		p.Status,
		p.VendorID,
		p.MadeIn,
		p.LaunchDate,
		dealJSON,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("product", "id", p.ID)
		}
		return fmt.Errorf("insert product: %w", err)
	}

	return nil
}

// GetByID retrieves a product by its slug id.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (p *domain.Product, err error) {
	query := `SELECT ` + productColumns("") + ` FROM products WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "GetProduct", query)
	defer func() { end(err) }()

	p, err = scanProduct(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// List returns products matching the filter.
func (r *ProductRepository) List(ctx context.Context, filter repository.ProductFilter) (products []domain.Product, err error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, *filter.Status)
		argIndex++
	}

	if filter.Category != nil {
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(categories)", argIndex))
		args = append(args, *filter.Category)
		argIndex++
	}

	if filter.Search != nil {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR tagline ILIKE $%d)", argIndex, argIndex))
		args = append(args, likePattern(*filter.Search))
		argIndex++
	}

	if filter.VendorID != nil {
		conditions = append(conditions, fmt.Sprintf("vendor_id = $%d", argIndex))
		args = append(args, *filter.VendorID)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		%s
		ORDER BY launch_date DESC NULLS LAST, created_at DESC`,
		productColumns(""), whereClause,
	)

	ctx, end := database.TraceQuery(ctx, "ListProducts", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products = []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}

	return products, nil
}

// UpdateStatus sets a product's moderation status.
func (r *ProductRepository) UpdateStatus(ctx context.Context, id, status string) (p *domain.Product, err error) {
	query := `
		UPDATE products SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + productColumns("")

	ctx, end := database.TraceQuery(ctx, "UpdateProductStatus", query)
	defer func() { end(err) }()

	p, err = scanProduct(r.db.QueryRow(ctx, query, id, status))
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, fmt.Errorf("update product status: %w", err)
	}
	return p, nil
}

// IncrementUpvotes adds one vote in place, so concurrent votes are not lost.
func (r *ProductRepository) IncrementUpvotes(ctx context.Context, id string) (p *domain.Product, err error) {
	query := `
		UPDATE products SET upvotes = upvotes + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + productColumns("")

	ctx, end := database.TraceQuery(ctx, "UpvoteProduct", query)
	defer func() { end(err) }()

	p, err = scanProduct(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, fmt.Errorf("upvote product: %w", err)
	}
	return p, nil
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var (
		p        domain.Product
		dealJSON []byte
	)

	if err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Tagline,
		&p.Description,
		&p.LogoURL,
		&p.WebsiteURL,
		&p.GalleryURLs,
		&p.Categories,
		&p.Rating,
		&p.ReviewCount,
		&p.Upvotes,
		&p.Status,
		&p.VendorID,
		&p.MadeIn,
		&p.LaunchDate,
		&dealJSON,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if len(dealJSON) > 0 {
		p.Deal = &domain.Deal{}
		if err := json.Unmarshal(dealJSON, p.Deal); err != nil {
			return nil, fmt.Errorf("unmarshal deal: %w", err)
		}
	}

	return &p, nil
}

func marshalDeal(d *domain.Deal) ([]byte, error) {
	if d == nil {
		return nil, nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal deal: %w", err)
	}
	return b, nil
}

// textArray keeps NOT NULL text[] columns from receiving NULL.
func textArray(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
