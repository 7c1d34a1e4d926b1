package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aliabbasi2000/ezelectronics/internal/cart"
)

// CartService is the slice of the cart service the handler uses.
type CartService interface {
	AddToCart(ctx context.Context, customer, model string) error
	CurrentCart(ctx context.Context, customer string) (cart.Cart, error)
	Checkout(ctx context.Context, customer string) error
	History(ctx context.Context, customer string) ([]cart.Cart, error)
	RemoveProduct(ctx context.Context, customer, model string) error
	Clear(ctx context.Context, customer string) error
	DeleteAll(ctx context.Context) error
	AllCarts(ctx context.Context) ([]cart.Cart, error)
}

type CartHandler struct {
	svc CartService
}

func NewCartHandler(svc CartService) *CartHandler {
	return &CartHandler{svc: svc}
}

func (h *CartHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	c, err := h.svc.CurrentCart(r.Context(), p.Username)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CartHandler) AddProduct(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	var body struct {
		Model string `json:"model"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if body.Model == "" {
		writeError(w, http.StatusUnprocessableEntity, "model must not be empty")
		return
	}

	if err := h.svc.AddToCart(r.Context(), p.Username, body.Model); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	if err := h.svc.Checkout(r.Context(), p.Username); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *CartHandler) History(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	carts, err := h.svc.History(r.Context(), p.Username)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, carts)
}

func (h *CartHandler) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	model := chi.URLParam(r, "model")
	if model == "" {
		writeError(w, http.StatusUnprocessableEntity, "model must not be empty")
		return
	}

	if err := h.svc.RemoveProduct(r.Context(), p.Username, model); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	if err := h.svc.Clear(r.Context(), p.Username); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *CartHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteAll(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *CartHandler) All(w http.ResponseWriter, r *http.Request) {
	carts, err := h.svc.AllCarts(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, carts)
}
