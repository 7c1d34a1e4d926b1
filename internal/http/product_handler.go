package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aliabbasi2000/ezelectronics/internal/catalog"
)

// ProductService is the slice of the catalog service the handler uses.
type ProductService interface {
	Register(ctx context.Context, p catalog.Product) error
	Restock(ctx context.Context, model string, add int, changeDate string) (int, error)
	Sell(ctx context.Context, model string, qty int, sellingDate string) (int, error)
	Products(ctx context.Context, grouping, category, model string, availableOnly bool) ([]catalog.Product, error)
	Delete(ctx context.Context, model string) error
	DeleteAll(ctx context.Context) error
}

type ProductHandler struct {
	svc ProductService
}

func NewProductHandler(svc ProductService) *ProductHandler {
	return &ProductHandler{svc: svc}
}

type registerProductRequest struct {
	Model        string  `json:"model"`
	Category     string  `json:"category"`
	Quantity     int     `json:"quantity"`
	Details      string  `json:"details"`
	SellingPrice float64 `json:"sellingPrice"`
	ArrivalDate  string  `json:"arrivalDate"`
}

func (h *ProductHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Model == "" {
		writeError(w, http.StatusUnprocessableEntity, "model must not be empty")
		return
	}
	category, ok := catalog.ParseCategory(req.Category)
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, "invalid category")
		return
	}
	if req.ArrivalDate != "" && !validDate(req.ArrivalDate) {
		writeError(w, http.StatusUnprocessableEntity, "invalid arrival date")
		return
	}

	err := h.svc.Register(r.Context(), catalog.Product{
		Model:        req.Model,
		Category:     category,
		Quantity:     req.Quantity,
		Details:      req.Details,
		SellingPrice: req.SellingPrice,
		ArrivalDate:  req.ArrivalDate,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

type changeQuantityRequest struct {
	Quantity   int    `json:"quantity"`
	ChangeDate string `json:"changeDate"`
}

func (h *ProductHandler) Restock(w http.ResponseWriter, r *http.Request) {
	model := chi.URLParam(r, "model")

	var req changeQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ChangeDate != "" && !validDate(req.ChangeDate) {
		writeError(w, http.StatusUnprocessableEntity, "invalid change date")
		return
	}

	quantity, err := h.svc.Restock(r.Context(), model, req.Quantity, req.ChangeDate)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"quantity": quantity})
}

type sellRequest struct {
	Quantity    int    `json:"quantity"`
	SellingDate string `json:"sellingDate"`
}

func (h *ProductHandler) Sell(w http.ResponseWriter, r *http.Request) {
	model := chi.URLParam(r, "model")

	var req sellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.SellingDate != "" && !validDate(req.SellingDate) {
		writeError(w, http.StatusUnprocessableEntity, "invalid selling date")
		return
	}

	quantity, err := h.svc.Sell(r.Context(), model, req.Quantity, req.SellingDate)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"quantity": quantity})
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, false)
}

func (h *ProductHandler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, true)
}

func (h *ProductHandler) list(w http.ResponseWriter, r *http.Request, availableOnly bool) {
	q := r.URL.Query()
	products, err := h.svc.Products(r.Context(), q.Get("grouping"), q.Get("category"), q.Get("model"), availableOnly)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if products == nil {
		products = []catalog.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	model := chi.URLParam(r, "model")
	if err := h.svc.Delete(r.Context(), model); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *ProductHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteAll(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func validDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}
