package cart

import (
	"context"
	"errors"
	"io"
	"log"
	"math"
	"testing"
	"time"

	"github.com/aliabbasi2000/ezelectronics/internal/catalog"
)

// fakeStore implements Store with copy-on-begin transactions, so commit and
// rollback behave like the real thing: nothing a Tx does is visible until
// Commit succeeds.
type fakeStore struct {
	nextID   int64
	carts    map[int64]*Cart
	products map[string]catalog.Product

	beginErr  error
	commitErr error

	begun      int
	committed  int
	rolledBack int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		nextID:   1,
		carts:    map[int64]*Cart{},
		products: map[string]catalog.Product{},
	}
}

func (s *fakeStore) seedProduct(model string, category catalog.Category, price float64, quantity int) {
	s.products[model] = catalog.Product{
		Model:        model,
		Category:     category,
		SellingPrice: price,
		Quantity:     quantity,
	}
}

func (s *fakeStore) unpaidCart(customer string) *Cart {
	for _, c := range s.carts {
		if c.Customer == customer && !c.Paid {
			return c
		}
	}
	return nil
}

func (s *fakeStore) countUnpaid(customer string) int {
	n := 0
	for _, c := range s.carts {
		if c.Customer == customer && !c.Paid {
			n++
		}
	}
	return n
}

func copyCarts(src map[int64]*Cart) map[int64]*Cart {
	dst := make(map[int64]*Cart, len(src))
	for id, c := range src {
		cp := *c
		cp.Products = append([]Line{}, c.Products...)
		if c.PaymentDate != nil {
			d := *c.PaymentDate
			cp.PaymentDate = &d
		}
		dst[id] = &cp
	}
	return dst
}

func copyProducts(src map[string]catalog.Product) map[string]catalog.Product {
	dst := make(map[string]catalog.Product, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func (s *fakeStore) Begin(ctx context.Context) (Tx, error) {
	if s.beginErr != nil {
		return nil, s.beginErr
	}
	s.begun++
	return &fakeTx{
		store:    s,
		nextID:   s.nextID,
		carts:    copyCarts(s.carts),
		products: copyProducts(s.products),
	}, nil
}

func (s *fakeStore) CurrentCart(ctx context.Context, customer string) (Cart, error) {
	if c := s.unpaidCart(customer); c != nil {
		cp := *c
		cp.Products = append([]Line{}, c.Products...)
		return cp, nil
	}
	return emptyCart(customer), nil
}

func (s *fakeStore) PaidCarts(ctx context.Context, customer string) ([]Cart, error) {
	carts := []Cart{}
	for id := int64(1); id < s.nextID; id++ {
		c, ok := s.carts[id]
		if !ok || c.Customer != customer || !c.Paid {
			continue
		}
		cp := *c
		cp.Products = append([]Line{}, c.Products...)
		carts = append(carts, cp)
	}
	for i := 0; i < len(carts); i++ {
		for j := i + 1; j < len(carts); j++ {
			if *carts[j].PaymentDate < *carts[i].PaymentDate {
				carts[i], carts[j] = carts[j], carts[i]
			}
		}
	}
	return carts, nil
}

func (s *fakeStore) AllCarts(ctx context.Context) ([]Cart, error) {
	carts := []Cart{}
	for id := int64(1); id < s.nextID; id++ {
		if c, ok := s.carts[id]; ok {
			cp := *c
			cp.Products = append([]Line{}, c.Products...)
			carts = append(carts, cp)
		}
	}
	return carts, nil
}

func (s *fakeStore) DeleteAll(ctx context.Context) error {
	s.carts = map[int64]*Cart{}
	return nil
}

type fakeTx struct {
	store    *fakeStore
	nextID   int64
	carts    map[int64]*Cart
	products map[string]catalog.Product
	done     bool
}

func (t *fakeTx) Commit(ctx context.Context) error {
	if t.store.commitErr != nil {
		return t.store.commitErr
	}
	t.store.nextID = t.nextID
	t.store.carts = t.carts
	t.store.products = t.products
	t.store.committed++
	t.done = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if !t.done {
		t.store.rolledBack++
		t.done = true
	}
	return nil
}

func (t *fakeTx) UnpaidCartForUpdate(ctx context.Context, customer string) (*Cart, error) {
	for _, c := range t.carts {
		if c.Customer == customer && !c.Paid {
			return c, nil
		}
	}
	return nil, nil
}

func (t *fakeTx) CreateUnpaidCart(ctx context.Context, customer string) (*Cart, error) {
	if c, _ := t.UnpaidCartForUpdate(ctx, customer); c != nil {
		return c, nil
	}
	c := emptyCart(customer)
	c.ID = t.nextID
	t.nextID++
	t.carts[c.ID] = &c
	return &c, nil
}

func (t *fakeTx) Line(ctx context.Context, cartID int64, model string) (*Line, error) {
	c := t.carts[cartID]
	for i := range c.Products {
		if c.Products[i].Model == model {
			l := c.Products[i]
			return &l, nil
		}
	}
	return nil, nil
}

func (t *fakeTx) InsertLine(ctx context.Context, cartID int64, l Line) error {
	c := t.carts[cartID]
	c.Products = append(c.Products, l)
	return nil
}

func (t *fakeTx) IncrementLine(ctx context.Context, cartID int64, model string) error {
	return t.bumpLine(cartID, model, 1)
}

func (t *fakeTx) DecrementLine(ctx context.Context, cartID int64, model string) error {
	return t.bumpLine(cartID, model, -1)
}

func (t *fakeTx) bumpLine(cartID int64, model string, delta int) error {
	c := t.carts[cartID]
	for i := range c.Products {
		if c.Products[i].Model == model {
			c.Products[i].Quantity += delta
			return nil
		}
	}
	return errors.New("line not found")
}

func (t *fakeTx) DeleteLine(ctx context.Context, cartID int64, model string) error {
	c := t.carts[cartID]
	for i := range c.Products {
		if c.Products[i].Model == model {
			c.Products = append(c.Products[:i], c.Products[i+1:]...)
			return nil
		}
	}
	return errors.New("line not found")
}

func (t *fakeTx) DeleteLines(ctx context.Context, cartID int64) error {
	t.carts[cartID].Products = []Line{}
	return nil
}

func (t *fakeTx) AddToTotal(ctx context.Context, cartID int64, delta float64) error {
	t.carts[cartID].Total += delta
	return nil
}

func (t *fakeTx) SetTotal(ctx context.Context, cartID int64, total float64) error {
	t.carts[cartID].Total = total
	return nil
}

func (t *fakeTx) MarkPaid(ctx context.Context, cartID int64, paymentDate string) error {
	c := t.carts[cartID]
	c.Paid = true
	c.PaymentDate = &paymentDate
	return nil
}

func (t *fakeTx) Product(ctx context.Context, model string) (catalog.Product, error) {
	p, ok := t.products[model]
	if !ok {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return p, nil
}

func (t *fakeTx) ProductForUpdate(ctx context.Context, model string) (catalog.Product, error) {
	return t.Product(ctx, model)
}

func (t *fakeTx) DecrementStock(ctx context.Context, model string, qty int) error {
	p, ok := t.products[model]
	if !ok {
		return catalog.ErrNotFound
	}
	if p.Quantity < qty {
		return catalog.ErrInsufficientStock
	}
	p.Quantity -= qty
	t.products[model] = p
	return nil
}

type fakePublisher struct {
	published []Cart
	err       error
}

func (p *fakePublisher) PublishCartCheckedOut(ctx context.Context, c Cart) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, c)
	return nil
}

func newTestService(store *fakeStore, events Publisher) *Service {
	return NewService(store, events, log.New(io.Discard, "", 0))
}

func checkTotal(t *testing.T, c Cart) {
	t.Helper()
	sum := 0.0
	for _, l := range c.Products {
		sum += float64(l.Quantity) * l.Price
	}
	if math.Abs(c.Total-sum) > 1e-9 {
		t.Fatalf("total %v inconsistent with lines (want %v)", c.Total, sum)
	}
}

func TestAddToCart_CreatesCartLazily(t *testing.T) {
	store := newFakeStore()
	store.seedProduct("P1", catalog.CategorySmartphone, 100, 5)
	svc := newTestService(store, nil)
	ctx := context.Background()

	if err := svc.AddToCart(ctx, "alice", "P1"); err != nil {
		t.Fatalf("add to cart: %v", err)
	}

	c, err := svc.CurrentCart(ctx, "alice")
	if err != nil {
		t.Fatalf("current cart: %v", err)
	}
	if c.Paid {
		t.Fatalf("new cart should be unpaid")
	}
	if len(c.Products) != 1 || c.Products[0].Model != "P1" || c.Products[0].Quantity != 1 {
		t.Fatalf("unexpected lines: %+v", c.Products)
	}
	if c.Products[0].Price != 100 || c.Products[0].Category != string(catalog.CategorySmartphone) {
		t.Fatalf("line did not snapshot price/category: %+v", c.Products[0])
	}
	if c.Total != 100 {
		t.Fatalf("total = %v, want 100", c.Total)
	}
	checkTotal(t, c)
}

func TestAddToCart_DeduplicatesLines(t *testing.T) {
	store := newFakeStore()
	store.seedProduct("P1", catalog.CategoryLaptop, 100, 5)
	svc := newTestService(store, nil)
	ctx := context.Background()

	if err := svc.AddToCart(ctx, "alice", "P1"); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := svc.AddToCart(ctx, "alice", "P1"); err != nil {
		t.Fatalf("second add: %v", err)
	}

	c, _ := svc.CurrentCart(ctx, "alice")
	if len(c.Products) != 1 {
		t.Fatalf("expected one deduplicated line, got %d", len(c.Products))
	}
	if c.Products[0].Quantity != 2 {
		t.Fatalf("quantity = %d, want 2", c.Products[0].Quantity)
	}
	if c.Total != 200 {
		t.Fatalf("total = %v, want 200", c.Total)
	}
	if store.countUnpaid("alice") != 1 {
		t.Fatalf("expected exactly one open cart")
	}
}

func TestAddToCart_ProductNotFound(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, nil)

	err := svc.AddToCart(context.Background(), "alice", "missing")
	if !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(store.carts) != 0 {
		t.Fatalf("no cart should be created on failure")
	}
	if store.rolledBack != 1 {
		t.Fatalf("transaction not rolled back")
	}
}

func TestAddToCart_OutOfStock(t *testing.T) {
	store := newFakeStore()
	store.seedProduct("P1", catalog.CategoryAppliance, 50, 0)
	svc := newTestService(store, nil)

	err := svc.AddToCart(context.Background(), "alice", "P1")
	if !errors.Is(err, catalog.ErrOutOfStock) {
		t.Fatalf("expected ErrOutOfStock, got %v", err)
	}
	if len(store.carts) != 0 {
		t.Fatalf("no cart should be created on failure")
	}
}

func TestAddToCart_CommitFailureLeavesStoreUntouched(t *testing.T) {
	store := newFakeStore()
	store.seedProduct("P1", catalog.CategorySmartphone, 100, 5)
	store.commitErr = errors.New("commit fail")
	svc := newTestService(store, nil)

	if err := svc.AddToCart(context.Background(), "alice", "P1"); err == nil {
		t.Fatalf("expected commit error")
	}
	if len(store.carts) != 0 {
		t.Fatalf("failed commit must not persist the cart")
	}
}

func TestCurrentCart_NoCartReturnsEmptyCart(t *testing.T) {
	svc := newTestService(newFakeStore(), nil)

	c, err := svc.CurrentCart(context.Background(), "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Customer != "alice" || c.Paid || c.Total != 0 {
		t.Fatalf("unexpected empty cart: %+v", c)
	}
	if c.Products == nil || len(c.Products) != 0 {
		t.Fatalf("products must be an empty slice, got %#v", c.Products)
	}
}

func TestCheckout_Lifecycle(t *testing.T) {
	// Full scenario: two adds, checkout, then the next add opens a new cart.
	store := newFakeStore()
	store.seedProduct("P1", catalog.CategorySmartphone, 100, 5)
	events := &fakePublisher{}
	svc := newTestService(store, events)
	svc.now = func() time.Time { return time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	_ = svc.AddToCart(ctx, "alice", "P1")
	_ = svc.AddToCart(ctx, "alice", "P1")

	if err := svc.Checkout(ctx, "alice"); err != nil {
		t.Fatalf("checkout: %v", err)
	}

	if got := store.products["P1"].Quantity; got != 3 {
		t.Fatalf("stock after checkout = %d, want 3", got)
	}

	history, err := svc.History(ctx, "alice")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 || !history[0].Paid {
		t.Fatalf("unexpected history: %+v", history)
	}
	if history[0].PaymentDate == nil || *history[0].PaymentDate != "2024-05-10" {
		t.Fatalf("unexpected payment date: %v", history[0].PaymentDate)
	}
	if history[0].Total != 200 {
		t.Fatalf("paid total = %v, want 200", history[0].Total)
	}

	c, _ := svc.CurrentCart(ctx, "alice")
	if len(c.Products) != 0 || c.Total != 0 || c.Paid {
		t.Fatalf("current cart after checkout should be empty: %+v", c)
	}

	if len(events.published) != 1 {
		t.Fatalf("expected one CartCheckedOut event, got %d", len(events.published))
	}
	if !events.published[0].Paid || events.published[0].Total != 200 {
		t.Fatalf("published cart mismatch: %+v", events.published[0])
	}

	// Next add opens a fresh cart.
	if err := svc.AddToCart(ctx, "alice", "P1"); err != nil {
		t.Fatalf("add after checkout: %v", err)
	}
	if store.countUnpaid("alice") != 1 {
		t.Fatalf("expected exactly one open cart after re-add")
	}
}

func TestCheckout_NoCart(t *testing.T) {
	svc := newTestService(newFakeStore(), nil)
	if err := svc.Checkout(context.Background(), "alice"); !errors.Is(err, ErrCartNotFound) {
		t.Fatalf("expected ErrCartNotFound, got %v", err)
	}
}

func TestCheckout_EmptyCart(t *testing.T) {
	store := newFakeStore()
	store.seedProduct("P1", catalog.CategorySmartphone, 100, 5)
	svc := newTestService(store, nil)
	ctx := context.Background()

	_ = svc.AddToCart(ctx, "alice", "P1")
	if err := svc.Clear(ctx, "alice"); err != nil {
		t.Fatalf("clear: %v", err)
	}

	if err := svc.Checkout(ctx, "alice"); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
}

func TestCheckout_StockDrainedSinceAdd(t *testing.T) {
	store := newFakeStore()
	store.seedProduct("P1", catalog.CategorySmartphone, 100, 1)
	svc := newTestService(store, nil)
	ctx := context.Background()

	_ = svc.AddToCart(ctx, "alice", "P1")

	// Stock drains to zero after the product entered the cart.
	p := store.products["P1"]
	p.Quantity = 0
	store.products["P1"] = p

	if err := svc.Checkout(ctx, "alice"); !errors.Is(err, catalog.ErrOutOfStock) {
		t.Fatalf("expected ErrOutOfStock, got %v", err)
	}

	c, _ := svc.CurrentCart(ctx, "alice")
	if c.Paid || len(c.Products) != 1 || c.Products[0].Quantity != 1 {
		t.Fatalf("cart must stay unpaid with its line untouched: %+v", c)
	}
}

func TestCheckout_InsufficientStock(t *testing.T) {
	store := newFakeStore()
	store.seedProduct("P1", catalog.CategorySmartphone, 100, 2)
	svc := newTestService(store, nil)
	ctx := context.Background()

	_ = svc.AddToCart(ctx, "alice", "P1")
	_ = svc.AddToCart(ctx, "alice", "P1")

	p := store.products["P1"]
	p.Quantity = 1
	store.products["P1"] = p

	if err := svc.Checkout(ctx, "alice"); !errors.Is(err, catalog.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if store.products["P1"].Quantity != 1 {
		t.Fatalf("stock mutated despite failed validation")
	}
}

func TestCheckout_AtomicAcrossLines(t *testing.T) {
	// One valid line and one depleted line: neither product may change.
	store := newFakeStore()
	store.seedProduct("P1", catalog.CategorySmartphone, 100, 5)
	store.seedProduct("P2", catalog.CategoryLaptop, 250, 1)
	svc := newTestService(store, nil)
	ctx := context.Background()

	_ = svc.AddToCart(ctx, "alice", "P1")
	_ = svc.AddToCart(ctx, "alice", "P2")

	p := store.products["P2"]
	p.Quantity = 0
	store.products["P2"] = p

	if err := svc.Checkout(ctx, "alice"); !errors.Is(err, catalog.ErrOutOfStock) {
		t.Fatalf("expected ErrOutOfStock, got %v", err)
	}
	if store.products["P1"].Quantity != 5 {
		t.Fatalf("P1 stock changed on failed checkout: %d", store.products["P1"].Quantity)
	}
	if store.products["P2"].Quantity != 0 {
		t.Fatalf("P2 stock changed on failed checkout: %d", store.products["P2"].Quantity)
	}
}

func TestCheckout_StockConservation(t *testing.T) {
	store := newFakeStore()
	store.seedProduct("P1", catalog.CategorySmartphone, 100, 5)
	store.seedProduct("P2", catalog.CategoryLaptop, 250, 4)
	store.seedProduct("P3", catalog.CategoryAppliance, 30, 7)
	svc := newTestService(store, nil)
	ctx := context.Background()

	_ = svc.AddToCart(ctx, "alice", "P1")
	_ = svc.AddToCart(ctx, "alice", "P1")
	_ = svc.AddToCart(ctx, "alice", "P2")

	if err := svc.Checkout(ctx, "alice"); err != nil {
		t.Fatalf("checkout: %v", err)
	}

	if got := store.products["P1"].Quantity; got != 3 {
		t.Fatalf("P1 stock = %d, want 3", got)
	}
	if got := store.products["P2"].Quantity; got != 3 {
		t.Fatalf("P2 stock = %d, want 3", got)
	}
	if got := store.products["P3"].Quantity; got != 7 {
		t.Fatalf("P3 stock changed, got %d", got)
	}
}

func TestCheckout_PublisherFailureDoesNotUnwind(t *testing.T) {
	store := newFakeStore()
	store.seedProduct("P1", catalog.CategorySmartphone, 100, 5)
	events := &fakePublisher{err: errors.New("broker down")}
	svc := newTestService(store, events)
	ctx := context.Background()

	_ = svc.AddToCart(ctx, "alice", "P1")

	if err := svc.Checkout(ctx, "alice"); err != nil {
		t.Fatalf("checkout must succeed despite publish failure: %v", err)
	}
	history, _ := svc.History(ctx, "alice")
	if len(history) != 1 {
		t.Fatalf("cart should be paid")
	}
}

func TestRemoveProduct(t *testing.T) {
	store := newFakeStore()
	store.seedProduct("P1", catalog.CategorySmartphone, 100, 5)
	store.seedProduct("P2", catalog.CategoryLaptop, 250.5, 5)
	svc := newTestService(store, nil)
	ctx := context.Background()

	_ = svc.AddToCart(ctx, "alice", "P1")
	_ = svc.AddToCart(ctx, "alice", "P1")
	_ = svc.AddToCart(ctx, "alice", "P2")

	if err := svc.RemoveProduct(ctx, "alice", "P1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	c, _ := svc.CurrentCart(ctx, "alice")
	if len(c.Products) != 2 {
		t.Fatalf("expected both lines to remain, got %d", len(c.Products))
	}
	checkTotal(t, c)

	// Second removal drops the line entirely and restores the total.
	if err := svc.RemoveProduct(ctx, "alice", "P1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	c, _ = svc.CurrentCart(ctx, "alice")
	if len(c.Products) != 1 || c.Products[0].Model != "P2" {
		t.Fatalf("expected only P2 to remain: %+v", c.Products)
	}
	if math.Abs(c.Total-250.5) > 1e-9 {
		t.Fatalf("total = %v, want 250.5", c.Total)
	}
	checkTotal(t, c)
}

func TestRemoveProduct_UsesSnapshotPrice(t *testing.T) {
	store := newFakeStore()
	store.seedProduct("P1", catalog.CategorySmartphone, 100, 5)
	svc := newTestService(store, nil)
	ctx := context.Background()

	_ = svc.AddToCart(ctx, "alice", "P1")

	// Catalog price changes after the line was created.
	p := store.products["P1"]
	p.SellingPrice = 999
	store.products["P1"] = p

	if err := svc.RemoveProduct(ctx, "alice", "P1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	c, _ := svc.CurrentCart(ctx, "alice")
	if c.Total != 0 {
		t.Fatalf("total = %v, want 0 (snapshot price must be used)", c.Total)
	}
}

func TestRemoveProduct_Failures(t *testing.T) {
	store := newFakeStore()
	store.seedProduct("P1", catalog.CategorySmartphone, 100, 5)
	svc := newTestService(store, nil)
	ctx := context.Background()

	if err := svc.RemoveProduct(ctx, "alice", "P1"); !errors.Is(err, ErrCartNotFound) {
		t.Fatalf("expected ErrCartNotFound, got %v", err)
	}

	_ = svc.AddToCart(ctx, "alice", "P1")
	if err := svc.RemoveProduct(ctx, "alice", "P2"); !errors.Is(err, ErrProductNotInCart) {
		t.Fatalf("expected ErrProductNotInCart, got %v", err)
	}
}

func TestClear(t *testing.T) {
	store := newFakeStore()
	store.seedProduct("P1", catalog.CategorySmartphone, 100, 5)
	svc := newTestService(store, nil)
	ctx := context.Background()

	_ = svc.AddToCart(ctx, "alice", "P1")

	if err := svc.Clear(ctx, "alice"); err != nil {
		t.Fatalf("clear: %v", err)
	}

	// The cart row survives, empty and addressable.
	if store.countUnpaid("alice") != 1 {
		t.Fatalf("cart row should be retained after clear")
	}
	c, _ := svc.CurrentCart(ctx, "alice")
	if len(c.Products) != 0 || c.Total != 0 {
		t.Fatalf("cart not emptied: %+v", c)
	}
}

func TestClear_NoCart(t *testing.T) {
	svc := newTestService(newFakeStore(), nil)
	if err := svc.Clear(context.Background(), "alice"); !errors.Is(err, ErrCartNotFound) {
		t.Fatalf("expected ErrCartNotFound, got %v", err)
	}
}

func TestHistory_OrderedAndExcludesOpenCart(t *testing.T) {
	store := newFakeStore()
	store.seedProduct("P1", catalog.CategorySmartphone, 100, 10)
	svc := newTestService(store, nil)
	ctx := context.Background()

	dates := []time.Time{
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	}
	for _, d := range dates {
		d := d
		svc.now = func() time.Time { return d }
		_ = svc.AddToCart(ctx, "alice", "P1")
		if err := svc.Checkout(ctx, "alice"); err != nil {
			t.Fatalf("checkout: %v", err)
		}
	}

	// Leave an open cart behind; it must not show up.
	_ = svc.AddToCart(ctx, "alice", "P1")

	history, err := svc.History(ctx, "alice")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 paid carts, got %d", len(history))
	}
	if *history[0].PaymentDate != "2024-01-15" || *history[1].PaymentDate != "2024-03-01" {
		t.Fatalf("history not oldest-first: %v, %v", *history[0].PaymentDate, *history[1].PaymentDate)
	}
	for _, c := range history {
		if !c.Paid {
			t.Fatalf("open cart leaked into history")
		}
	}
}

func TestDeleteAllAndAllCarts(t *testing.T) {
	store := newFakeStore()
	store.seedProduct("P1", catalog.CategorySmartphone, 100, 10)
	svc := newTestService(store, nil)
	ctx := context.Background()

	_ = svc.AddToCart(ctx, "alice", "P1")
	_ = svc.Checkout(ctx, "alice")
	_ = svc.AddToCart(ctx, "alice", "P1")
	_ = svc.AddToCart(ctx, "bob", "P1")

	all, err := svc.AllCarts(ctx)
	if err != nil {
		t.Fatalf("all carts: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 carts (paid and unpaid), got %d", len(all))
	}

	if err := svc.DeleteAll(ctx); err != nil {
		t.Fatalf("delete all: %v", err)
	}
	all, _ = svc.AllCarts(ctx)
	if len(all) != 0 {
		t.Fatalf("expected no carts after delete all, got %d", len(all))
	}
}

func TestBeginErrorSurfaces(t *testing.T) {
	store := newFakeStore()
	store.beginErr = errors.New("pool exhausted")
	svc := newTestService(store, nil)
	ctx := context.Background()

	if err := svc.AddToCart(ctx, "alice", "P1"); err == nil {
		t.Fatalf("expected begin error from AddToCart")
	}
	if err := svc.Checkout(ctx, "alice"); err == nil {
		t.Fatalf("expected begin error from Checkout")
	}
	if err := svc.Clear(ctx, "alice"); err == nil {
		t.Fatalf("expected begin error from Clear")
	}
}
