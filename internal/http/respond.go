package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aliabbasi2000/ezelectronics/internal/auth"
	"github.com/aliabbasi2000/ezelectronics/internal/cart"
	"github.com/aliabbasi2000/ezelectronics/internal/catalog"
	"github.com/aliabbasi2000/ezelectronics/internal/review"
	"github.com/aliabbasi2000/ezelectronics/internal/user"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps a service error onto its transport status. Unknown
// errors are storage failures and surface as 500 without leaking detail.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, cart.ErrCartNotFound),
		errors.Is(err, cart.ErrProductNotInCart),
		errors.Is(err, user.ErrNotFound),
		errors.Is(err, review.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, catalog.ErrOutOfStock),
		errors.Is(err, catalog.ErrInsufficientStock),
		errors.Is(err, catalog.ErrAlreadyExists),
		errors.Is(err, user.ErrAlreadyExists),
		errors.Is(err, review.ErrAlreadyExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, cart.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, user.ErrNotAllowed):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, user.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, catalog.ErrInvalidQuantity),
		errors.Is(err, catalog.ErrInvalidPrice),
		errors.Is(err, catalog.ErrDateInFuture),
		errors.Is(err, catalog.ErrDateBeforeArrival),
		errors.Is(err, catalog.ErrInvalidGrouping),
		errors.Is(err, review.ErrInvalidScore),
		errors.Is(err, user.ErrBirthdateInFuture),
		errors.Is(err, auth.ErrPasswordTooShort):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
