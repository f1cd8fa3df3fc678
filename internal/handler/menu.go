package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/tapas-pos/api/internal/database"
	"github.com/tapas-pos/api/internal/enum"
	"github.com/tapas-pos/api/internal/middleware"
	"github.com/tapas-pos/api/internal/service"
)

// MenuStore defines the database methods needed by menu handlers.
type MenuStore interface {
	CreateMenuItem(ctx context.Context, arg database.CreateMenuItemParams) (database.MenuItem, error)
	GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	ListMenuItems(ctx context.Context, arg database.ListMenuItemsParams) ([]database.MenuItem, error)
}

// MenuHandler handles menu endpoints.
type MenuHandler struct {
	store MenuStore
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(store MenuStore) *MenuHandler {
	return &MenuHandler{store: store}
}

// RegisterRoutes registers menu endpoints on the given Chi router.
func (h *MenuHandler) RegisterRoutes(r chi.Router) {
	r.Get("/menu", h.List)
	r.Get("/menu/{id}", h.Get)
	r.With(middleware.RequireRole(enum.StaffRoleManager)).Post("/menu", h.Create)
}

type createMenuItemRequest struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Price    string `json:"price"`
}

type menuItemResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	Price        string    `json:"price"`
	PriceDisplay string    `json:"price_display"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

func toMenuItemResponse(m database.MenuItem) menuItemResponse {
	price := service.NumericToDecimal(m.Price)
	return menuItemResponse{
		ID:           m.ID,
		Name:         m.Name,
		Category:     m.Category,
		Price:        formatMoney(price),
		PriceDisplay: displayMoney(price),
		IsActive:     m.IsActive,
		CreatedAt:    m.CreatedAt,
	}
}

// List returns active menu items, optionally filtered by category.
func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	var category pgtype.Text
	if v := r.URL.Query().Get("category"); v != "" {
		if !enum.IsValidCategory(v) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid category"})
			return
		}
		category = pgtype.Text{String: v, Valid: true}
	}

	items, err := h.store.ListMenuItems(r.Context(), database.ListMenuItemsParams{Category: category})
	if err != nil {
		slog.Error("list menu items", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list menu items"})
		return
	}

	resp := make([]menuItemResponse, 0, len(items))
	for _, m := range items {
		resp = append(resp, toMenuItemResponse(m))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns a single active menu item by ID.
func (h *MenuHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}

	item, err := h.store.GetMenuItem(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		slog.Error("get menu item", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get menu item"})
		return
	}

	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}

// Create adds a new menu item. Manager only.
func (h *MenuHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createMenuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if !enum.IsValidCategory(req.Category) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid category"})
		return
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() || !price.Equal(price.Round(2)) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "price must be a non-negative decimal with at most 2 decimals"})
		return
	}

	item, err := h.store.CreateMenuItem(r.Context(), database.CreateMenuItemParams{
		Name:     req.Name,
		Category: req.Category,
		Price:    service.DecimalToNumeric(price),
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "menu item already exists in this category"})
			return
		}
		slog.Error("create menu item", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create menu item"})
		return
	}

	writeJSON(w, http.StatusCreated, toMenuItemResponse(item))
}
