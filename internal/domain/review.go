package domain

import (
	"math"
	"time"
)

// Rating bounds for a review.
const (
	MinRating = 1
	MaxRating = 5
)

// Review is a user's rating and comment on a product.
type Review struct {
	ID         string    `json:"id"`
	ProductID  string    `json:"product_id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Rating     int       `json:"rating"`
	Title      string    `json:"title"`
	Comment    string    `json:"comment"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
}

// ValidRating reports whether r is within [MinRating, MaxRating].
func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}

// RoundRating rounds to one decimal place.
func RoundRating(v float64) float64 {
	return math.Round(v*10) / 10
}

// AverageRating returns the mean rating rounded to one decimal, or 0 for
// no reviews.
func AverageRating(reviews []Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return RoundRating(float64(sum) / float64(len(reviews)))
}

// AddReview prepends r to the product's reviews and recomputes ReviewCount
// and Rating from the full list.
func (p *Product) AddReview(r Review) {
	p.Reviews = append([]Review{r}, p.Reviews...)
	p.ReviewCount = len(p.Reviews)
	p.Rating = AverageRating(p.Reviews)
}
