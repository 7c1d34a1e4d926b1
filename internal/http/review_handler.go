package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aliabbasi2000/ezelectronics/internal/review"
)

// ReviewService is the slice of the review service the handler uses.
type ReviewService interface {
	Add(ctx context.Context, model, username string, score int, comment string) error
	ProductReviews(ctx context.Context, model string) ([]review.Review, error)
	Delete(ctx context.Context, model, username string) error
	DeleteForProduct(ctx context.Context, model string) error
	DeleteAll(ctx context.Context) error
}

type ReviewHandler struct {
	svc ReviewService
}

func NewReviewHandler(svc ReviewService) *ReviewHandler {
	return &ReviewHandler{svc: svc}
}

func (h *ReviewHandler) Add(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())
	model := chi.URLParam(r, "model")

	var body struct {
		Score   int    `json:"score"`
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.svc.Add(r.Context(), model, p.Username, body.Score, body.Comment); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	model := chi.URLParam(r, "model")

	reviews, err := h.svc.ProductReviews(r.Context(), model)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())
	model := chi.URLParam(r, "model")

	if err := h.svc.Delete(r.Context(), model, p.Username); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *ReviewHandler) DeleteForProduct(w http.ResponseWriter, r *http.Request) {
	model := chi.URLParam(r, "model")

	if err := h.svc.DeleteForProduct(r.Context(), model); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *ReviewHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteAll(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
