package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidQuantity   = errors.New("quantity must be greater than zero")
	ErrInvalidPrice      = errors.New("selling price must be greater than zero")
	ErrDateInFuture      = errors.New("date cannot be in the future")
	ErrDateBeforeArrival = errors.New("date cannot be before the product's arrival date")
	ErrInvalidGrouping   = errors.New("invalid grouping parameters")
)

const dateLayout = "2006-01-02"

// Service implements catalog management: registration, restocking, direct
// sales and queries.
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Register records a new product model. An empty arrival date defaults to
// today; a future arrival date is rejected.
func (s *Service) Register(ctx context.Context, p Product) error {
	if p.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if p.SellingPrice <= 0 {
		return ErrInvalidPrice
	}

	if p.ArrivalDate == "" {
		p.ArrivalDate = s.now().Format(dateLayout)
	} else {
		d, err := time.Parse(dateLayout, p.ArrivalDate)
		if err != nil {
			return fmt.Errorf("parse arrival date: %w", err)
		}
		if d.After(s.now()) {
			return ErrDateInFuture
		}
	}

	return s.repo.Insert(ctx, p)
}

// Restock adds units to an existing product and returns the new quantity.
// The change date must not be in the future or precede the arrival date.
func (s *Service) Restock(ctx context.Context, model string, add int, changeDate string) (int, error) {
	if add <= 0 {
		return 0, ErrInvalidQuantity
	}

	p, err := s.repo.GetByModel(ctx, model)
	if err != nil {
		return 0, err
	}

	if err := s.validateChangeDate(changeDate, p.ArrivalDate); err != nil {
		return 0, err
	}

	return s.repo.AddQuantity(ctx, model, add)
}

// Sell removes sold units from stock and returns the new quantity.
func (s *Service) Sell(ctx context.Context, model string, qty int, sellingDate string) (int, error) {
	if qty <= 0 {
		return 0, ErrInvalidQuantity
	}

	p, err := s.repo.GetByModel(ctx, model)
	if err != nil {
		return 0, err
	}

	if err := s.validateChangeDate(sellingDate, p.ArrivalDate); err != nil {
		return 0, err
	}

	if p.Quantity == 0 {
		return 0, ErrOutOfStock
	}
	if p.Quantity < qty {
		return 0, ErrInsufficientStock
	}

	// The conditional update re-checks stock so a concurrent sale cannot
	// drive the quantity negative.
	return s.repo.DecrementQuantity(ctx, model, qty)
}

// Products returns products filtered by the grouping parameters. grouping
// must be empty (no filter), "category" (category set, model empty) or
// "model" (model set, category empty); anything else is rejected.
func (s *Service) Products(ctx context.Context, grouping, category, model string, availableOnly bool) ([]Product, error) {
	switch grouping {
	case "":
		if category != "" || model != "" {
			return nil, ErrInvalidGrouping
		}
		return s.repo.List(ctx, availableOnly)
	case "category":
		cat, ok := ParseCategory(category)
		if !ok || model != "" {
			return nil, ErrInvalidGrouping
		}
		return s.repo.ListByCategory(ctx, cat, availableOnly)
	case "model":
		if model == "" || category != "" {
			return nil, ErrInvalidGrouping
		}
		products, err := s.repo.ListByModel(ctx, model, availableOnly)
		if err != nil {
			return nil, err
		}
		if len(products) == 0 {
			return nil, ErrNotFound
		}
		return products, nil
	default:
		return nil, ErrInvalidGrouping
	}
}

func (s *Service) Delete(ctx context.Context, model string) error {
	return s.repo.Delete(ctx, model)
}

func (s *Service) DeleteAll(ctx context.Context) error {
	return s.repo.DeleteAll(ctx)
}

func (s *Service) validateChangeDate(date, arrivalDate string) error {
	if date == "" {
		return nil
	}
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return fmt.Errorf("parse date: %w", err)
	}
	if d.After(s.now()) {
		return ErrDateInFuture
	}
	arrival, err := time.Parse(dateLayout, arrivalDate)
	if err != nil {
		return fmt.Errorf("parse arrival date: %w", err)
	}
	if d.Before(arrival) {
		return ErrDateBeforeArrival
	}
	return nil
}
