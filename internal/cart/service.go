package cart

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/aliabbasi2000/ezelectronics/internal/catalog"
)

var (
	ErrCartNotFound     = errors.New("cart not found")
	ErrEmptyCart        = errors.New("cart is empty")
	ErrProductNotInCart = errors.New("product not in cart")
)

const dateLayout = "2006-01-02"

// Publisher emits the checkout event. It runs after the checkout transaction
// has committed.
type Publisher interface {
	PublishCartCheckedOut(ctx context.Context, c Cart) error
}

// Service implements the cart lifecycle. Every multi-row mutation runs in a
// single transaction so a partial failure can never leave the cart total
// inconsistent with its lines, or stock decremented without the cart marked
// paid.
type Service struct {
	store  Store
	events Publisher
	logger *log.Logger
	now    func() time.Time
}

func NewService(store Store, events Publisher, logger *log.Logger) *Service {
	return &Service{
		store:  store,
		events: events,
		logger: logger,
		now:    time.Now,
	}
}

// AddToCart puts one unit of the product into the customer's open cart,
// creating the cart lazily. A line already holding the model is incremented
// in place; stock is not re-validated until checkout.
func (s *Service) AddToCart(ctx context.Context, customer, model string) error {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	p, err := tx.Product(ctx, model)
	if err != nil {
		return err
	}
	if p.Quantity == 0 {
		return catalog.ErrOutOfStock
	}

	c, err := tx.UnpaidCartForUpdate(ctx, customer)
	if err != nil {
		return err
	}
	if c == nil {
		if c, err = tx.CreateUnpaidCart(ctx, customer); err != nil {
			return err
		}
	}

	line, err := tx.Line(ctx, c.ID, model)
	if err != nil {
		return err
	}
	if line == nil {
		err = tx.InsertLine(ctx, c.ID, Line{
			Model:    model,
			Quantity: 1,
			Category: string(p.Category),
			Price:    p.SellingPrice,
		})
	} else {
		err = tx.IncrementLine(ctx, c.ID, model)
	}
	if err != nil {
		return err
	}

	if err := tx.AddToTotal(ctx, c.ID, p.SellingPrice); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// CurrentCart returns the customer's open cart, or an empty cart when none
// exists. Having no cart yet is not an error.
func (s *Service) CurrentCart(ctx context.Context, customer string) (Cart, error) {
	return s.store.CurrentCart(ctx, customer)
}

// Checkout validates every line against current catalog stock, then marks
// the cart paid and decrements stock. Validation runs over all lines before
// any mutation, and the whole operation is one transaction: either the cart
// becomes paid and every product loses exactly the purchased units, or
// nothing changes.
func (s *Service) Checkout(ctx context.Context, customer string) error {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	c, err := tx.UnpaidCartForUpdate(ctx, customer)
	if err != nil {
		return err
	}
	if c == nil {
		return ErrCartNotFound
	}
	if len(c.Products) == 0 {
		return ErrEmptyCart
	}

	// Validation pass. Product rows stay locked until commit, so a
	// concurrent checkout cannot drain stock between validation and the
	// decrements below.
	for _, l := range c.Products {
		p, err := tx.ProductForUpdate(ctx, l.Model)
		if err != nil {
			return err
		}
		if p.Quantity == 0 {
			return catalog.ErrOutOfStock
		}
		if p.Quantity < l.Quantity {
			return catalog.ErrInsufficientStock
		}
	}

	// Commit pass.
	for _, l := range c.Products {
		if err := tx.DecrementStock(ctx, l.Model, l.Quantity); err != nil {
			return err
		}
	}

	paymentDate := s.now().Format(dateLayout)
	if err := tx.MarkPaid(ctx, c.ID, paymentDate); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	if s.events != nil {
		paid := *c
		paid.Paid = true
		paid.PaymentDate = &paymentDate
		if err := s.events.PublishCartCheckedOut(ctx, paid); err != nil {
			// The cart is already paid; a broker failure must not unwind it.
			s.logger.Printf("publish CartCheckedOut for %s: %v", customer, err)
		}
	}

	return nil
}

// History returns the customer's paid carts, oldest payment first. The open
// cart, if any, is excluded.
func (s *Service) History(ctx context.Context, customer string) ([]Cart, error) {
	return s.store.PaidCarts(ctx, customer)
}

// RemoveProduct takes one unit of the model out of the open cart, deleting
// the line when it reaches zero. The total drops by the line's snapshotted
// unit price, not the product's current price.
func (s *Service) RemoveProduct(ctx context.Context, customer, model string) error {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	c, err := tx.UnpaidCartForUpdate(ctx, customer)
	if err != nil {
		return err
	}
	if c == nil {
		return ErrCartNotFound
	}

	var line Line
	found := false
	for _, l := range c.Products {
		if l.Model == model {
			line = l
			found = true
			break
		}
	}
	if !found {
		return ErrProductNotInCart
	}

	if line.Quantity == 1 {
		err = tx.DeleteLine(ctx, c.ID, model)
	} else {
		err = tx.DecrementLine(ctx, c.ID, model)
	}
	if err != nil {
		return err
	}

	if err := tx.AddToTotal(ctx, c.ID, -line.Price); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Clear empties the open cart. The cart row survives so the customer's
// current cart stays addressable.
func (s *Service) Clear(ctx context.Context, customer string) error {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	c, err := tx.UnpaidCartForUpdate(ctx, customer)
	if err != nil {
		return err
	}
	if c == nil {
		return ErrCartNotFound
	}

	if err := tx.DeleteLines(ctx, c.ID); err != nil {
		return err
	}
	if err := tx.SetTotal(ctx, c.ID, 0); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// DeleteAll removes every cart of every customer. Irrecoverable.
func (s *Service) DeleteAll(ctx context.Context) error {
	return s.store.DeleteAll(ctx)
}

// AllCarts returns every cart, paid and unpaid, for administrative
// reporting.
func (s *Service) AllCarts(ctx context.Context) ([]Cart, error) {
	return s.store.AllCarts(ctx)
}
