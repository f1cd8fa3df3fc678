// Package session holds the per-terminal order-taking state: the in-progress
// cart (selected customer plus items), the loaded order history and top-tapas
// ranking, and the transient action state. One session per open terminal.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tapas-pos/api/internal/service"
)

// Errors returned by sessions. ErrNoCustomer and ErrEmptyCart are
// precondition failures: they short-circuit before the backend is called.
var (
	ErrNoCustomer    = errors.New("no customer selected")
	ErrEmptyCart     = errors.New("cart is empty")
	ErrBusy          = errors.New("another request is in flight")
	ErrSessionClosed = errors.New("session is closed")
	ErrInvalidItem   = errors.New("invalid cart item")
	ErrNoSuchItem    = errors.New("no cart item at that index")
)

// Backend is the storage capability a session orchestrates: create, list,
// delete, aggregate. Satisfied by *service.OrderService; tests substitute an
// in-memory fake.
type Backend interface {
	SaveOrder(ctx context.Context, customerID uuid.UUID, items []service.OrderItem) (*service.Order, error)
	GetAllOrders(ctx context.Context) ([]service.Order, error)
	DeleteOrder(ctx context.Context, id uuid.UUID) error
	GetTopTapas(ctx context.Context) ([]service.TopTapasEntry, error)
}

// Save states within Ready.
const (
	SaveIdle   = "idle"
	SaveSaving = "saving"
	SaveSaved  = "saved"
)

// Phases of a session.
const (
	PhaseLoading = "loading"
	PhaseReady   = "ready"
)

// savedResetDelay is how long the "saved" confirmation lingers before the
// session returns to idle.
const savedResetDelay = 2 * time.Second

// State is the session's transient UI state as one record: a phase, a save
// sub-state, the order being deleted (zero when none) and a sticky error
// message cleared by the next action. Modeling it as a single record keeps
// invalid combinations (saving and saved at once) unrepresentable.
type State struct {
	Phase    string
	Save     string
	Deleting uuid.UUID
	Err      string
}

// Session is a single terminal's cart and view state. All methods are safe
// for concurrent use; backend calls run outside the lock.
type Session struct {
	ID uuid.UUID

	backend Backend
	logger  *slog.Logger

	mu         sync.Mutex
	customer   *service.Customer
	items      []service.OrderItem
	orders     []service.Order
	topTapas   []service.TopTapasEntry
	state      State
	resetDelay time.Duration
	resetTimer *time.Timer
	closed     bool
}

func newSession(backend Backend, logger *slog.Logger, resetDelay time.Duration) *Session {
	return &Session{
		ID:         uuid.New(),
		backend:    backend,
		logger:     logger,
		state:      State{Phase: PhaseLoading, Save: SaveIdle},
		resetDelay: resetDelay,
	}
}

// Load fetches the order history and top tapas. A history failure leaves the
// session ready with the error flag set; a top-tapas failure is only logged.
func (s *Session) Load(ctx context.Context) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.state.Phase = PhaseLoading
	s.state.Err = ""
	s.mu.Unlock()

	orders, err := s.backend.GetAllOrders(ctx)
	topTapas, topErr := s.backend.GetTopTapas(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Phase = PhaseReady
	if err != nil {
		s.logger.Error("load orders", "session_id", s.ID, "error", err)
		s.state.Err = "failed to load"
	} else {
		s.orders = orders
	}
	if topErr != nil {
		s.logger.Error("load top tapas", "session_id", s.ID, "error", topErr)
	} else {
		s.topTapas = topTapas
	}
}

// SelectCustomer sets the cart's owning customer.
func (s *Session) SelectCustomer(c service.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.customer = &c
	return nil
}

// AddItem appends an item to the cart.
func (s *Session) AddItem(item service.OrderItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if item.Name == "" || item.Quantity <= 0 || item.UnitPrice.IsNegative() ||
		!item.UnitPrice.Equal(item.UnitPrice.Round(2)) {
		return ErrInvalidItem
	}
	s.items = append(s.items, item)
	return nil
}

// RemoveItem removes the cart item at the given index.
func (s *Session) RemoveItem(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if index < 0 || index >= len(s.items) {
		return ErrNoSuchItem
	}
	s.items = append(s.items[:index], s.items[index+1:]...)
	return nil
}

// Cart returns the selected customer (nil when none) and a copy of the items.
func (s *Session) Cart() (*service.Customer, []service.OrderItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]service.OrderItem, len(s.items))
	copy(items, s.items)
	if s.customer == nil {
		return nil, items
	}
	c := *s.customer
	return &c, items
}

// Orders returns the last loaded order history.
func (s *Session) Orders() []service.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	orders := make([]service.Order, len(s.orders))
	copy(orders, s.orders)
	return orders
}

// TopTapas returns the last loaded top-tapas ranking.
func (s *Session) TopTapas() []service.TopTapasEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := make([]service.TopTapasEntry, len(s.topTapas))
	copy(entries, s.topTapas)
	return entries
}

// State returns the current transient state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Confirm saves the cart as an order. Preconditions (customer selected,
// non-empty cart) short-circuit before the backend is called. On success the
// cart is cleared, history and top tapas are reloaded and the session shows
// "saved" until the reset delay returns it to idle. On failure the cart is
// preserved for a retry and the error flag is set. The saving flag is cleared
// on every path.
func (s *Session) Confirm(ctx context.Context) (*service.Order, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	if s.state.Save == SaveSaving {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	if s.customer == nil {
		s.mu.Unlock()
		return nil, ErrNoCustomer
	}
	if len(s.items) == 0 {
		s.mu.Unlock()
		return nil, ErrEmptyCart
	}
	s.state.Save = SaveSaving
	s.state.Err = ""
	customerID := s.customer.ID
	items := make([]service.OrderItem, len(s.items))
	copy(items, s.items)
	s.mu.Unlock()

	order, err := s.backend.SaveOrder(ctx, customerID, items)
	if err != nil {
		s.logger.Error("save order", "session_id", s.ID, "error", err)
		s.mu.Lock()
		s.state.Save = SaveIdle
		s.state.Err = "failed to save"
		s.mu.Unlock()
		return nil, err
	}

	s.mu.Lock()
	s.state.Save = SaveSaved
	s.customer = nil
	s.items = nil
	s.mu.Unlock()

	s.reload(ctx)
	s.scheduleReset()
	return order, nil
}

// DeleteOrder removes an order from history and reloads. The deleting flag is
// cleared on every path.
func (s *Session) DeleteOrder(ctx context.Context, orderID uuid.UUID) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.state.Deleting != uuid.Nil {
		s.mu.Unlock()
		return ErrBusy
	}
	s.state.Deleting = orderID
	s.state.Err = ""
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.state.Deleting = uuid.Nil
		s.mu.Unlock()
	}()

	if err := s.backend.DeleteOrder(ctx, orderID); err != nil {
		s.logger.Error("delete order", "session_id", s.ID, "order_id", orderID, "error", err)
		s.mu.Lock()
		s.state.Err = "failed to delete"
		s.mu.Unlock()
		return err
	}

	s.reload(ctx)
	return nil
}

// Close tears the session down and stops the pending saved-reset timer, if
// any, so no callback outlives the session.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.resetTimer != nil {
		s.resetTimer.Stop()
		s.resetTimer = nil
	}
}

// reload refreshes history and top tapas after a successful mutation. A
// history failure sets the error flag; a top-tapas failure is only logged.
func (s *Session) reload(ctx context.Context) {
	orders, err := s.backend.GetAllOrders(ctx)
	topTapas, topErr := s.backend.GetTopTapas(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.logger.Error("reload orders", "session_id", s.ID, "error", err)
		s.state.Err = "failed to load"
	} else {
		s.orders = orders
	}
	if topErr != nil {
		s.logger.Error("reload top tapas", "session_id", s.ID, "error", topErr)
	} else {
		s.topTapas = topTapas
	}
}

// scheduleReset arms the timer that flips "saved" back to idle.
func (s *Session) scheduleReset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.resetTimer != nil {
		s.resetTimer.Stop()
	}
	s.resetTimer = time.AfterFunc(s.resetDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			return
		}
		if s.state.Save == SaveSaved {
			s.state.Save = SaveIdle
		}
	})
}

// Manager owns the live sessions.
type Manager struct {
	backend    Backend
	logger     *slog.Logger
	resetDelay time.Duration

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

// NewManager creates a session manager over the given backend.
func NewManager(backend Backend) *Manager {
	return &Manager{
		backend:    backend,
		logger:     slog.Default(),
		resetDelay: savedResetDelay,
		sessions:   make(map[uuid.UUID]*Session),
	}
}

// SetResetDelay overrides the saved-reset delay. Intended for tests.
func (m *Manager) SetResetDelay(d time.Duration) {
	m.resetDelay = d
}

// Open creates a new session and loads its initial state.
func (m *Manager) Open(ctx context.Context) *Session {
	s := newSession(m.backend, m.logger, m.resetDelay)
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	s.Load(ctx)
	return s
}

// Get returns the session with the given id.
func (m *Manager) Get(id uuid.UUID) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Close tears down and forgets the session with the given id.
func (m *Manager) Close(id uuid.UUID) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	if ok {
		s.Close()
	}
	return ok
}
