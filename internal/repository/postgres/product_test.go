package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mathurkshitij3776/Realpick/internal/domain"
	"github.com/mathurkshitij3776/Realpick/internal/repository"
	apperrors "github.com/mathurkshitij3776/Realpick/pkg/errors"
)

func TestProductRepository_Create_Success(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewProductRepository(mock)

	p := sampleProduct()

	mock.ExpectExec("INSERT INTO products").
		WithArgs(
			p.ID, p.Name, p.Tagline, p.Description, p.LogoURL, p.WebsiteURL,
			p.GalleryURLs, p.Categories, p.Rating, p.ReviewCount, p.Upvotes,
			p.Status, p.VendorID, p.MadeIn, p.LaunchDate, pgxmock.AnyArg(),
			p.CreatedAt, p.UpdatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), &p)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Create_UniqueViolation(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewProductRepository(mock)

	p := sampleProduct()

	mock.ExpectExec("INSERT INTO products").
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key"})

	err := repo.Create(context.Background(), &p)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_GetByID_Success(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewProductRepository(mock)

	p := sampleProduct()
	rows := pgxmock.NewRows(productColumnNames).AddRow(productRow(p)...)

	mock.ExpectQuery("SELECT .+ FROM products WHERE id").
		WithArgs(p.ID).
		WillReturnRows(rows)

	got, err := repo.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, p.Categories, got.Categories)
	require.NotNil(t, got.Deal)
	assert.Equal(t, "LAUNCH20", got.Deal.Code)
	assert.Equal(t, p.VendorID, got.VendorID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_GetByID_NotFound(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewProductRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM products WHERE id").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	got, err := repo.GetByID(context.Background(), "missing")
	assert.Nil(t, got)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_List_WithFilters(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewProductRepository(mock)

	p := sampleProduct()
	p.Status = domain.ProductStatusApproved
	rows := pgxmock.NewRows(productColumnNames).AddRow(productRow(p)...)

	mock.ExpectQuery(`SELECT .+ FROM products WHERE status = \$1 AND \$2 = ANY\(categories\) AND \(name ILIKE \$3 OR tagline ILIKE \$3\) ORDER BY launch_date DESC NULLS LAST`).
		WithArgs(domain.ProductStatusApproved, "AI", `%50\%%`).
		WillReturnRows(rows)

	got, err := repo.List(context.Background(), repository.ProductFilter{
		Status:   strPtr(domain.ProductStatusApproved),
		Category: strPtr("AI"),
		Search:   strPtr("50%"),
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, p.ID, got[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_List_Empty(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewProductRepository(mock)

	mock.ExpectQuery(`SELECT .+ FROM products WHERE vendor_id = \$1`).
		WithArgs("vendor-1").
		WillReturnRows(pgxmock.NewRows(productColumnNames))

	got, err := repo.List(context.Background(), repository.ProductFilter{VendorID: strPtr("vendor-1")})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_List_QueryError(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewProductRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM products").
		WillReturnError(errors.New("connection reset"))

	_, err := repo.List(context.Background(), repository.ProductFilter{})
	assert.ErrorContains(t, err, "list products")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_IncrementUpvotes(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewProductRepository(mock)

	p := sampleProduct()
	p.Upvotes = 8
	rows := pgxmock.NewRows(productColumnNames).AddRow(productRow(p)...)

	mock.ExpectQuery(`UPDATE products SET upvotes = upvotes \+ 1`).
		WithArgs(p.ID).
		WillReturnRows(rows)

	got, err := repo.IncrementUpvotes(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, got.Upvotes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_IncrementUpvotes_NotFound(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewProductRepository(mock)

	mock.ExpectQuery(`UPDATE products SET upvotes`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.IncrementUpvotes(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_UpdateStatus(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewProductRepository(mock)

	p := sampleProduct()
	p.Status = domain.ProductStatusApproved
	rows := pgxmock.NewRows(productColumnNames).AddRow(productRow(p)...)

	mock.ExpectQuery(`UPDATE products SET status = \$2`).
		WithArgs(p.ID, domain.ProductStatusApproved).
		WillReturnRows(rows)

	got, err := repo.UpdateStatus(context.Background(), p.ID, domain.ProductStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, domain.ProductStatusApproved, got.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLikePattern_EscapesMetacharacters(t *testing.T) {
	assert.Equal(t, `%a\_b\%c\\%`, likePattern(`a_b%c\`))
}
