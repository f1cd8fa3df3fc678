package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/tapas-pos/api/internal/database"
	"github.com/tapas-pos/api/internal/enum"
	"github.com/tapas-pos/api/internal/middleware"
	"golang.org/x/crypto/bcrypt"
)

// StaffStore defines the database methods needed by staff handlers.
type StaffStore interface {
	CreateStaff(ctx context.Context, arg database.CreateStaffParams) (database.Staff, error)
}

// StaffHandler handles staff management endpoints.
type StaffHandler struct {
	store StaffStore
}

// NewStaffHandler creates a new StaffHandler.
func NewStaffHandler(store StaffStore) *StaffHandler {
	return &StaffHandler{store: store}
}

// RegisterRoutes registers staff endpoints on the given Chi router.
// Creating accounts is reserved for managers.
func (h *StaffHandler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireRole(enum.StaffRoleManager)).Post("/staff", h.Create)
}

type createStaffRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Create adds a new staff account.
func (h *StaffHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createStaffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Name == "" || req.Email == "" || req.Password == "" || req.Role == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name, email, password, and role are required"})
		return
	}

	if !strings.Contains(req.Email, "@") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid email format"})
		return
	}

	if req.Role != enum.StaffRoleManager && req.Role != enum.StaffRoleWaiter {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "role must be MANAGER or WAITER"})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("hash password", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	staff, err := h.store.CreateStaff(r.Context(), database.CreateStaffParams{
		Name:           req.Name,
		Email:          req.Email,
		HashedPassword: string(hashed),
		Role:           req.Role,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "email already exists"})
			return
		}
		slog.Error("create staff", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, staffResponse{
		ID:    staff.ID,
		Name:  staff.Name,
		Email: staff.Email,
		Role:  staff.Role,
	})
}
