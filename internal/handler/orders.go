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
	"github.com/shopspring/decimal"
	"github.com/tapas-pos/api/internal/enum"
	"github.com/tapas-pos/api/internal/service"
	"github.com/tapas-pos/api/internal/ws"
)

// OrderServicer defines the order operations needed by order handlers.
// Satisfied by *service.OrderService.
type OrderServicer interface {
	SaveOrder(ctx context.Context, customerID uuid.UUID, items []service.OrderItem) (*service.Order, error)
	GetAllOrders(ctx context.Context) ([]service.Order, error)
	DeleteOrder(ctx context.Context, id uuid.UUID) error
	GetTopTapas(ctx context.Context) ([]service.TopTapasEntry, error)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	service OrderServicer
	hub     *ws.Hub
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer, hub *ws.Hub) *OrderHandler {
	return &OrderHandler{service: svc, hub: hub}
}

// RegisterRoutes registers order endpoints on the given Chi router.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/orders", h.List)
	r.Post("/orders", h.Create)
	r.Delete("/orders/{id}", h.Delete)
	r.Get("/orders/top-tapas", h.TopTapas)
}

// --- Request / Response types ---

type orderItemRequest struct {
	Name      string `json:"name"`
	Category  string `json:"category"`
	UnitPrice string `json:"unit_price"`
	Quantity  int32  `json:"quantity"`
}

type createOrderRequest struct {
	CustomerID uuid.UUID          `json:"customer_id"`
	Items      []orderItemRequest `json:"items"`
}

type orderItemResponse struct {
	Name             string `json:"name"`
	Category         string `json:"category"`
	UnitPrice        string `json:"unit_price"`
	UnitPriceDisplay string `json:"unit_price_display"`
	Quantity         int32  `json:"quantity"`
}

type orderResponse struct {
	ID                uuid.UUID           `json:"id"`
	CustomerID        uuid.UUID           `json:"customer_id"`
	CustomerName      string              `json:"customer_name"`
	CustomerType      string              `json:"customer_type"`
	CustomerTypeLabel string              `json:"customer_type_label"`
	Items             []orderItemResponse `json:"items,omitempty"`
	Total             string              `json:"total"`
	TotalDisplay      string              `json:"total_display"`
	CreatedAt         time.Time           `json:"created_at"`
}

type topTapasResponse struct {
	Name     string `json:"name"`
	Quantity int64  `json:"quantity"`
}

func toOrderResponse(o service.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemResponse{
			Name:             it.Name,
			Category:         it.Category,
			UnitPrice:        formatMoney(it.UnitPrice),
			UnitPriceDisplay: displayMoney(it.UnitPrice),
			Quantity:         it.Quantity,
		})
	}
	return orderResponse{
		ID:                o.ID,
		CustomerID:        o.Customer.ID,
		CustomerName:      o.Customer.Name,
		CustomerType:      o.Customer.Type,
		CustomerTypeLabel: enum.CustomerTypeLabel(o.Customer.Type),
		Items:             items,
		Total:             formatMoney(o.Total),
		TotalDisplay:      displayMoney(o.Total),
		CreatedAt:         o.CreatedAt,
	}
}

// --- Handlers ---

// List returns all orders, newest first, with customer details.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.GetAllOrders(r.Context())
	if err != nil {
		slog.Error("list orders", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list orders"})
		return
	}

	resp := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, toOrderResponse(o))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create persists a new order for a customer.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.CustomerID == uuid.Nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "customer_id is required"})
		return
	}

	items := make([]service.OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		price, err := decimal.NewFromString(it.UnitPrice)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unit_price must be a decimal string"})
			return
		}
		items = append(items, service.OrderItem{
			Name:      it.Name,
			Category:  it.Category,
			UnitPrice: price,
			Quantity:  it.Quantity,
		})
	}

	order, err := h.service.SaveOrder(r.Context(), req.CustomerID, items)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyItems),
			errors.Is(err, service.ErrInvalidQuantity),
			errors.Is(err, service.ErrInvalidPrice),
			errors.Is(err, service.ErrInvalidCategory):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrCustomerNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "customer not found"})
		default:
			slog.Error("create order", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create order"})
		}
		return
	}

	h.hub.Broadcast(ws.NewOrderEvent(ws.EventOrderCreated, order.ID))
	writeJSON(w, http.StatusCreated, toOrderResponse(*order))
}

// Delete removes an order by ID.
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	if err := h.service.DeleteOrder(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		slog.Error("delete order", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete order"})
		return
	}

	h.hub.Broadcast(ws.NewOrderEvent(ws.EventOrderDeleted, id))
	w.WriteHeader(http.StatusNoContent)
}

// TopTapas returns the most ordered tapas across all orders.
func (h *OrderHandler) TopTapas(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.GetTopTapas(r.Context())
	if err != nil {
		slog.Error("get top tapas", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get top tapas"})
		return
	}

	resp := make([]topTapasResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, topTapasResponse{Name: e.Name, Quantity: e.Quantity})
	}
	writeJSON(w, http.StatusOK, resp)
}
