package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/tapas-pos/api/internal/enum"
	"github.com/tapas-pos/api/internal/service"
	"github.com/tapas-pos/api/internal/session"
	"github.com/tapas-pos/api/internal/ws"
)

// CartHandler exposes the per-terminal cart sessions over HTTP. Each cart is
// a session holding the selected customer, the in-progress items and the
// loaded order history.
type CartHandler struct {
	manager   *session.Manager
	customers CustomerStore
	hub       *ws.Hub
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(manager *session.Manager, customers CustomerStore, hub *ws.Hub) *CartHandler {
	return &CartHandler{manager: manager, customers: customers, hub: hub}
}

// RegisterRoutes registers cart endpoints on the given Chi router.
func (h *CartHandler) RegisterRoutes(r chi.Router) {
	r.Post("/carts", h.Open)
	r.Get("/carts/{id}", h.Get)
	r.Delete("/carts/{id}", h.Close)
	r.Put("/carts/{id}/customer", h.SelectCustomer)
	r.Post("/carts/{id}/items", h.AddItem)
	r.Delete("/carts/{id}/items/{index}", h.RemoveItem)
	r.Post("/carts/{id}/confirm", h.Confirm)
	r.Post("/carts/{id}/orders/{orderID}/delete", h.DeleteOrder)
}

// --- Request / Response types ---

type selectCustomerRequest struct {
	CustomerID uuid.UUID `json:"customer_id"`
}

type addCartItemRequest struct {
	Name      string `json:"name"`
	Category  string `json:"category"`
	UnitPrice string `json:"unit_price"`
	Quantity  int32  `json:"quantity"`
}

type cartStateResponse struct {
	Phase    string `json:"phase"`
	Save     string `json:"save"`
	Deleting string `json:"deleting,omitempty"`
	Error    string `json:"error,omitempty"`
}

type cartCustomerResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	TypeLabel string    `json:"type_label"`
}

type cartResponse struct {
	ID           uuid.UUID             `json:"id"`
	Customer     *cartCustomerResponse `json:"customer"`
	Items        []orderItemResponse   `json:"items"`
	Total        string                `json:"total"`
	TotalDisplay string                `json:"total_display"`
	Orders       []orderResponse       `json:"orders"`
	TopTapas     []topTapasResponse    `json:"top_tapas"`
	State        cartStateResponse     `json:"state"`
}

func toCartResponse(s *session.Session) cartResponse {
	customer, items := s.Cart()

	resp := cartResponse{
		ID:       s.ID,
		Items:    make([]orderItemResponse, 0, len(items)),
		Orders:   make([]orderResponse, 0),
		TopTapas: make([]topTapasResponse, 0),
	}

	if customer != nil {
		resp.Customer = &cartCustomerResponse{
			ID:        customer.ID,
			Name:      customer.Name,
			Type:      customer.Type,
			TypeLabel: enum.CustomerTypeLabel(customer.Type),
		}
	}

	total := service.PayableTotal(items)
	resp.Total = formatMoney(total)
	resp.TotalDisplay = displayMoney(total)

	for _, it := range items {
		resp.Items = append(resp.Items, orderItemResponse{
			Name:             it.Name,
			Category:         it.Category,
			UnitPrice:        formatMoney(it.UnitPrice),
			UnitPriceDisplay: displayMoney(it.UnitPrice),
			Quantity:         it.Quantity,
		})
	}

	for _, o := range s.Orders() {
		resp.Orders = append(resp.Orders, toOrderResponse(o))
	}

	for _, e := range s.TopTapas() {
		resp.TopTapas = append(resp.TopTapas, topTapasResponse{Name: e.Name, Quantity: e.Quantity})
	}

	state := s.State()
	resp.State = cartStateResponse{
		Phase: state.Phase,
		Save:  state.Save,
		Error: state.Err,
	}
	if state.Deleting != uuid.Nil {
		resp.State.Deleting = state.Deleting.String()
	}

	return resp
}

// --- Handlers ---

// Open creates a new cart session and loads its order history.
func (h *CartHandler) Open(w http.ResponseWriter, r *http.Request) {
	s := h.manager.Open(r.Context())
	writeJSON(w, http.StatusCreated, toCartResponse(s))
}

// Get returns the full cart state.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(s))
}

// Close tears down a cart session.
func (h *CartHandler) Close(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid cart ID"})
		return
	}
	if !h.manager.Close(id) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "cart not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SelectCustomer sets the cart's owning customer.
func (h *CartHandler) SelectCustomer(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req selectCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.CustomerID == uuid.Nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "customer_id is required"})
		return
	}

	customer, err := h.customers.GetCustomer(r.Context(), req.CustomerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "customer not found"})
			return
		}
		slog.Error("get customer", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get customer"})
		return
	}

	if err := s.SelectCustomer(service.Customer{
		ID:   customer.ID,
		Name: customer.Name,
		Type: customer.Type,
	}); err != nil {
		h.writeSessionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCartResponse(s))
}

// AddItem appends an item to the cart.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req addCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if !enum.IsValidCategory(req.Category) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid category"})
		return
	}
	price, err := decimal.NewFromString(req.UnitPrice)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unit_price must be a decimal string"})
		return
	}

	if err := s.AddItem(service.OrderItem{
		Name:      req.Name,
		Category:  req.Category,
		UnitPrice: price,
		Quantity:  req.Quantity,
	}); err != nil {
		h.writeSessionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCartResponse(s))
}

// RemoveItem removes the cart item at the given index.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item index"})
		return
	}

	if err := s.RemoveItem(index); err != nil {
		h.writeSessionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCartResponse(s))
}

// Confirm saves the cart as an order.
func (h *CartHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	order, err := s.Confirm(r.Context())
	if err != nil {
		h.writeSessionError(w, err)
		return
	}

	h.hub.Broadcast(ws.NewOrderEvent(ws.EventOrderCreated, order.ID))
	writeJSON(w, http.StatusCreated, toCartResponse(s))
}

// DeleteOrder removes an order from the cart's loaded history.
func (h *CartHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	if err := s.DeleteOrder(r.Context(), orderID); err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		h.writeSessionError(w, err)
		return
	}

	h.hub.Broadcast(ws.NewOrderEvent(ws.EventOrderDeleted, orderID))
	writeJSON(w, http.StatusOK, toCartResponse(s))
}

// --- Helpers ---

func (h *CartHandler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid cart ID"})
		return nil, false
	}
	s, ok := h.manager.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "cart not found"})
		return nil, false
	}
	return s, true
}

func (h *CartHandler) writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrSessionClosed):
		writeJSON(w, http.StatusGone, map[string]string{"error": "cart is closed"})
	case errors.Is(err, session.ErrBusy):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "another request is in flight"})
	case errors.Is(err, session.ErrNoCustomer),
		errors.Is(err, session.ErrEmptyCart),
		errors.Is(err, session.ErrInvalidItem),
		errors.Is(err, session.ErrNoSuchItem):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		slog.Error("cart operation", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}
