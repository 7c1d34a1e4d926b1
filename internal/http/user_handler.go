package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aliabbasi2000/ezelectronics/internal/auth"
	"github.com/aliabbasi2000/ezelectronics/internal/user"
)

// UserService is the slice of the user service the handler uses.
type UserService interface {
	Create(ctx context.Context, username, name, surname, password string, role user.Role) error
	Authenticate(ctx context.Context, username, password string) (user.User, error)
	Users(ctx context.Context) ([]user.User, error)
	UsersByRole(ctx context.Context, role user.Role) ([]user.User, error)
	UserByUsername(ctx context.Context, principal user.User, username string) (user.User, error)
	UpdateInfo(ctx context.Context, principal user.User, username, name, surname, address, birthdate string) (user.User, error)
	Delete(ctx context.Context, principal user.User, username string) error
	DeleteAll(ctx context.Context) error
}

type UserHandler struct {
	svc UserService
	jwt *auth.JWTService
}

func NewUserHandler(svc UserService, jwt *auth.JWTService) *UserHandler {
	return &UserHandler{svc: svc, jwt: jwt}
}

func principalUser(p Principal) user.User {
	return user.User{Username: p.Username, Role: p.Role}
}

type createUserRequest struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Surname  string `json:"surname"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Username == "" || req.Name == "" || req.Surname == "" {
		writeError(w, http.StatusUnprocessableEntity, "username, name and surname must not be empty")
		return
	}
	role, ok := user.ParseRole(req.Role)
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, "invalid role")
		return
	}

	if err := h.svc.Create(r.Context(), req.Username, req.Name, req.Surname, req.Password, role); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.Users(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if users == nil {
		users = []user.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *UserHandler) ListByRole(w http.ResponseWriter, r *http.Request) {
	role, ok := user.ParseRole(chi.URLParam(r, "role"))
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, "invalid role")
		return
	}

	users, err := h.svc.UsersByRole(r.Context(), role)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if users == nil {
		users = []user.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	u, err := h.svc.UserByUsername(r.Context(), principalUser(p), chi.URLParam(r, "username"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

type updateUserRequest struct {
	Name      string `json:"name"`
	Surname   string `json:"surname"`
	Address   string `json:"address"`
	Birthdate string `json:"birthdate"`
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Birthdate != "" && !validDate(req.Birthdate) {
		writeError(w, http.StatusUnprocessableEntity, "invalid birthdate")
		return
	}

	u, err := h.svc.UpdateInfo(r.Context(), principalUser(p), chi.URLParam(r, "username"),
		req.Name, req.Surname, req.Address, req.Birthdate)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	if err := h.svc.Delete(r.Context(), principalUser(p), chi.URLParam(r, "username")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *UserHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteAll(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login verifies credentials and issues a session token, both as an HttpOnly
// cookie and in the response body for non-browser clients.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	u, err := h.svc.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	token, expiresAt, err := h.jwt.GenerateToken(u.Username, string(u.Role))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"user":  u,
		"token": token,
	})
}

func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusOK)
}

func (h *UserHandler) CurrentSession(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	u, err := h.svc.UserByUsername(r.Context(), principalUser(p), p.Username)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
