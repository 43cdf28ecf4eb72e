package postgres

import (
	"context"
	"fmt"

	"github.com/mathurkshitij3776/Realpick/internal/domain"
	"github.com/mathurkshitij3776/Realpick/pkg/database"
	apperrors "github.com/mathurkshitij3776/Realpick/pkg/errors"
)

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	db database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(db database.DBTX) *ReviewRepository {
	return &ReviewRepository{db: db}
}

const (
	lockProductQuery = `SELECT id FROM products WHERE id = $1 FOR UPDATE`

	insertReviewQuery = `
		INSERT INTO reviews (id, product_id, author_id, author_name, rating, title, comment, is_verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
)

// recomputeRatingQuery derives count and mean from the stored reviews so the
// product never drifts from its review list.
var recomputeRatingQuery = `
		UPDATE products p
		SET review_count = s.cnt, rating = ROUND(s.avg, 1), updated_at = NOW()
		FROM (SELECT COUNT(*) AS cnt, COALESCE(AVG(rating), 0) AS avg FROM reviews WHERE product_id = $1) s
		WHERE p.id = $1
		RETURNING ` + productColumns("p")

// Create inserts a review and refreshes the product's aggregates.
func (r *ReviewRepository) Create(ctx context.Context, rv *domain.Review) (p *domain.Product, err error) {
	ctx, end := database.TraceQuery(ctx, "CreateReview", insertReviewQuery)
	defer func() { end(err) }()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin review tx: %w", err)
	}

	var locked string
	if err = tx.QueryRow(ctx, lockProductQuery, rv.ProductID).Scan(&locked); err != nil {
		rollback(ctx, tx)
		if isNoRows(err) {
			return nil, apperrors.NotFound("product", rv.ProductID)
		}
		return nil, fmt.Errorf("lock product: %w", err)
	}

	if _, err = tx.Exec(ctx, insertReviewQuery,
		rv.ID,
		rv.ProductID,
		rv.AuthorID,
		rv.AuthorName,
		rv.Rating,
		rv.Title,
		rv.Comment,
		rv.IsVerified,
		rv.CreatedAt,
	); err != nil {
		rollback(ctx, tx)
		if isUniqueViolation(err) {
			return nil, apperrors.AlreadyExists("review", "id", rv.ID)
		}
		if isForeignKeyViolation(err) {
			return nil, apperrors.NotFound("product", rv.ProductID)
		}
		return nil, fmt.Errorf("insert review: %w", err)
	}

	p, err = scanProduct(tx.QueryRow(ctx, recomputeRatingQuery, rv.ProductID))
	if err != nil {
		rollback(ctx, tx)
		return nil, fmt.Errorf("recompute rating: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit review tx: %w", err)
	}
	return p, nil
}

// ListByProduct returns the product's reviews, newest first.
func (r *ReviewRepository) ListByProduct(ctx context.Context, productID string) (reviews []domain.Review, err error) {
	query := `
		SELECT id::text, product_id, author_id::text, author_name, rating, title, comment, is_verified, created_at
		FROM reviews
		WHERE product_id = $1
		ORDER BY created_at DESC`

	ctx, end := database.TraceQuery(ctx, "ListReviews", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews = []domain.Review{}
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(
			&rv.ID,
			&rv.ProductID,
			&rv.AuthorID,
			&rv.AuthorName,
			&rv.Rating,
			&rv.Title,
			&rv.Comment,
			&rv.IsVerified,
			&rv.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, rv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review rows: %w", err)
	}
	return reviews, nil
}
