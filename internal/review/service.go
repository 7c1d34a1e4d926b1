package review

import (
	"context"
	"errors"
	"time"

	"github.com/aliabbasi2000/ezelectronics/internal/catalog"
)

var ErrInvalidScore = errors.New("score must be between 1 and 5")

// ProductChecker is the slice of the catalog the review service needs:
// confirming that a product exists before touching its reviews.
type ProductChecker interface {
	GetByModel(ctx context.Context, model string) (catalog.Product, error)
}

type Service struct {
	repo     Repository
	products ProductChecker
	now      func() time.Time
}

func NewService(repo Repository, products ProductChecker) *Service {
	return &Service{repo: repo, products: products, now: time.Now}
}

// Add records a customer's review of a product, dated today. One review per
// (user, product).
func (s *Service) Add(ctx context.Context, model, username string, score int, comment string) error {
	if score < 1 || score > 5 {
		return ErrInvalidScore
	}
	if _, err := s.products.GetByModel(ctx, model); err != nil {
		return err
	}
	return s.repo.Insert(ctx, Review{
		Model:   model,
		User:    username,
		Score:   score,
		Date:    s.now().Format("2006-01-02"),
		Comment: comment,
	})
}

// ProductReviews lists all reviews of an existing product.
func (s *Service) ProductReviews(ctx context.Context, model string) ([]Review, error) {
	if _, err := s.products.GetByModel(ctx, model); err != nil {
		return nil, err
	}
	return s.repo.ByModel(ctx, model)
}

// Delete removes the review the user left on the product.
func (s *Service) Delete(ctx context.Context, model, username string) error {
	if _, err := s.products.GetByModel(ctx, model); err != nil {
		return err
	}
	return s.repo.Delete(ctx, model, username)
}

// DeleteForProduct removes every review of the product.
func (s *Service) DeleteForProduct(ctx context.Context, model string) error {
	if _, err := s.products.GetByModel(ctx, model); err != nil {
		return err
	}
	return s.repo.DeleteByModel(ctx, model)
}

// DeleteAll removes every review of every product.
func (s *Service) DeleteAll(ctx context.Context) error {
	return s.repo.DeleteAll(ctx)
}
