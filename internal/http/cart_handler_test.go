package httpapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/aliabbasi2000/ezelectronics/internal/cart"
	"github.com/aliabbasi2000/ezelectronics/internal/catalog"
	"github.com/aliabbasi2000/ezelectronics/internal/user"
)

func TestGetCurrentCart(t *testing.T) {
	env := newTestEnv(t)
	env.carts.currentCart = func(ctx context.Context, customer string) (cart.Cart, error) {
		if customer != "alice" {
			t.Fatalf("customer = %q, want alice", customer)
		}
		return cart.Cart{
			Customer: "alice",
			Total:    200,
			Products: []cart.Line{{Model: "iPhone13", Category: "Smartphone", Quantity: 2, Price: 100}},
		}, nil
	}

	token := env.tokenFor(t, "alice", user.RoleCustomer)
	rec := env.do(t, http.MethodGet, "/ezelectronics/carts", token, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body)
	}
	body := decodeBody[map[string]any](t, rec)
	if body["customer"] != "alice" || body["total"] != 200.0 || body["paid"] != false {
		t.Fatalf("unexpected body: %v", body)
	}
	if _, ok := body["id"]; ok {
		t.Fatalf("internal cart id must not be serialized: %v", body)
	}
	products, ok := body["products"].([]any)
	if !ok || len(products) != 1 {
		t.Fatalf("unexpected products: %v", body["products"])
	}
}

func TestAddProduct(t *testing.T) {
	env := newTestEnv(t)

	var gotCustomer, gotModel string
	env.carts.addToCart = func(ctx context.Context, customer, model string) error {
		gotCustomer, gotModel = customer, model
		return nil
	}

	token := env.tokenFor(t, "alice", user.RoleCustomer)
	rec := env.do(t, http.MethodPost, "/ezelectronics/carts", token, map[string]string{"model": "iPhone13"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body)
	}
	if gotCustomer != "alice" || gotModel != "iPhone13" {
		t.Fatalf("service called with (%q, %q)", gotCustomer, gotModel)
	}
}

func TestAddProduct_Validation(t *testing.T) {
	env := newTestEnv(t)
	token := env.tokenFor(t, "alice", user.RoleCustomer)

	rec := env.do(t, http.MethodPost, "/ezelectronics/carts", token, map[string]string{"model": ""})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("empty model: status = %d, want 422", rec.Code)
	}

	req := env.do(t, http.MethodPost, "/ezelectronics/carts", token, nil)
	if req.Code != http.StatusBadRequest {
		t.Fatalf("missing body: status = %d, want 400", req.Code)
	}
}

func TestAddProduct_ErrorMapping(t *testing.T) {
	tests := map[string]struct {
		err  error
		want int
	}{
		"unknown model": {catalog.ErrNotFound, http.StatusNotFound},
		"out of stock":  {catalog.ErrOutOfStock, http.StatusConflict},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv(t)
			env.carts.addToCart = func(ctx context.Context, customer, model string) error {
				return tc.err
			}

			token := env.tokenFor(t, "alice", user.RoleCustomer)
			rec := env.do(t, http.MethodPost, "/ezelectronics/carts", token, map[string]string{"model": "X"})
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestCheckout_ErrorMapping(t *testing.T) {
	tests := map[string]struct {
		err  error
		want int
	}{
		"success":            {nil, http.StatusOK},
		"no cart":            {cart.ErrCartNotFound, http.StatusNotFound},
		"empty cart":         {cart.ErrEmptyCart, http.StatusBadRequest},
		"out of stock":       {catalog.ErrOutOfStock, http.StatusConflict},
		"insufficient stock": {catalog.ErrInsufficientStock, http.StatusConflict},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv(t)
			env.carts.checkout = func(ctx context.Context, customer string) error {
				return tc.err
			}

			token := env.tokenFor(t, "alice", user.RoleCustomer)
			rec := env.do(t, http.MethodPatch, "/ezelectronics/carts", token, nil)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestHistory(t *testing.T) {
	env := newTestEnv(t)
	date := "2024-01-15"
	env.carts.history = func(ctx context.Context, customer string) ([]cart.Cart, error) {
		return []cart.Cart{{Customer: customer, Paid: true, PaymentDate: &date, Total: 100, Products: []cart.Line{}}}, nil
	}

	token := env.tokenFor(t, "alice", user.RoleCustomer)
	rec := env.do(t, http.MethodGet, "/ezelectronics/carts/history", token, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	carts := decodeBody[[]map[string]any](t, rec)
	if len(carts) != 1 || carts[0]["paid"] != true || carts[0]["paymentDate"] != date {
		t.Fatalf("unexpected body: %v", carts)
	}
}

func TestRemoveProduct(t *testing.T) {
	env := newTestEnv(t)

	var gotModel string
	env.carts.removeProduct = func(ctx context.Context, customer, model string) error {
		gotModel = model
		return nil
	}

	token := env.tokenFor(t, "alice", user.RoleCustomer)
	rec := env.do(t, http.MethodDelete, "/ezelectronics/carts/products/iPhone13", token, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotModel != "iPhone13" {
		t.Fatalf("model = %q, want iPhone13", gotModel)
	}
}

func TestRemoveProduct_NotInCart(t *testing.T) {
	env := newTestEnv(t)
	env.carts.removeProduct = func(ctx context.Context, customer, model string) error {
		return cart.ErrProductNotInCart
	}

	token := env.tokenFor(t, "alice", user.RoleCustomer)
	rec := env.do(t, http.MethodDelete, "/ezelectronics/carts/products/ghost", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestClearCart(t *testing.T) {
	env := newTestEnv(t)
	env.carts.clear = func(ctx context.Context, customer string) error {
		return cart.ErrCartNotFound
	}

	token := env.tokenFor(t, "alice", user.RoleCustomer)
	rec := env.do(t, http.MethodDelete, "/ezelectronics/carts/current", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestAllCarts(t *testing.T) {
	env := newTestEnv(t)
	env.carts.allCarts = func(ctx context.Context) ([]cart.Cart, error) {
		return []cart.Cart{
			{Customer: "alice", Products: []cart.Line{}},
			{Customer: "bob", Paid: true, Products: []cart.Line{}},
		}, nil
	}

	token := env.tokenFor(t, "root", user.RoleAdmin)
	rec := env.do(t, http.MethodGet, "/ezelectronics/carts/all", token, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	carts := decodeBody[[]map[string]any](t, rec)
	if len(carts) != 2 {
		t.Fatalf("expected 2 carts, got %v", carts)
	}
}
