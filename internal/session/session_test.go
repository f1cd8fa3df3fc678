package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tapas-pos/api/internal/service"
	"github.com/tapas-pos/api/internal/session"
)

// --- Fake backend ---

type fakeBackend struct {
	saveOrderFn   func(ctx context.Context, customerID uuid.UUID, items []service.OrderItem) (*service.Order, error)
	getAllFn      func(ctx context.Context) ([]service.Order, error)
	deleteOrderFn func(ctx context.Context, id uuid.UUID) error
	getTopTapasFn func(ctx context.Context) ([]service.TopTapasEntry, error)

	saveCalls   int
	deleteCalls int
}

func (f *fakeBackend) SaveOrder(ctx context.Context, customerID uuid.UUID, items []service.OrderItem) (*service.Order, error) {
	f.saveCalls++
	if f.saveOrderFn != nil {
		return f.saveOrderFn(ctx, customerID, items)
	}
	return &service.Order{ID: uuid.New(), Customer: service.Customer{ID: customerID}, Items: items}, nil
}

func (f *fakeBackend) GetAllOrders(ctx context.Context) ([]service.Order, error) {
	if f.getAllFn != nil {
		return f.getAllFn(ctx)
	}
	return nil, nil
}

func (f *fakeBackend) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	f.deleteCalls++
	if f.deleteOrderFn != nil {
		return f.deleteOrderFn(ctx, id)
	}
	return nil
}

func (f *fakeBackend) GetTopTapas(ctx context.Context) ([]service.TopTapasEntry, error) {
	if f.getTopTapasFn != nil {
		return f.getTopTapasFn(ctx)
	}
	return nil, nil
}

// --- Helpers ---

func cartItem(name, category, price string, qty int32) service.OrderItem {
	return service.OrderItem{
		Name:      name,
		Category:  category,
		UnitPrice: decimal.RequireFromString(price),
		Quantity:  qty,
	}
}

func openSession(t *testing.T, backend *fakeBackend) *session.Session {
	t.Helper()
	m := session.NewManager(backend)
	m.SetResetDelay(20 * time.Millisecond)
	s := m.Open(context.Background())
	t.Cleanup(func() { m.Close(s.ID) })
	return s
}

func fillCart(t *testing.T, s *session.Session) {
	t.Helper()
	if err := s.SelectCustomer(service.Customer{ID: uuid.New(), Name: "María", Type: "ADULT"}); err != nil {
		t.Fatalf("select customer: %v", err)
	}
	if err := s.AddItem(cartItem("Caña", "drinks", "2.50", 1)); err != nil {
		t.Fatalf("add item: %v", err)
	}
}

// --- Tests ---

func TestSessionLoad(t *testing.T) {
	orderID := uuid.New()
	backend := &fakeBackend{
		getAllFn: func(ctx context.Context) ([]service.Order, error) {
			return []service.Order{{ID: orderID}}, nil
		},
		getTopTapasFn: func(ctx context.Context) ([]service.TopTapasEntry, error) {
			return []service.TopTapasEntry{{Name: "Patatas bravas", Quantity: 5}}, nil
		},
	}

	s := openSession(t, backend)

	state := s.State()
	if state.Phase != session.PhaseReady {
		t.Errorf("phase: got %s, want ready", state.Phase)
	}
	if state.Err != "" {
		t.Errorf("unexpected error flag: %s", state.Err)
	}

	orders := s.Orders()
	if len(orders) != 1 || orders[0].ID != orderID {
		t.Errorf("orders: got %+v", orders)
	}
	tapas := s.TopTapas()
	if len(tapas) != 1 || tapas[0].Name != "Patatas bravas" {
		t.Errorf("top tapas: got %+v", tapas)
	}
}

func TestSessionLoadHistoryFailure(t *testing.T) {
	backend := &fakeBackend{
		getAllFn: func(ctx context.Context) ([]service.Order, error) {
			return nil, errors.New("db down")
		},
	}

	s := openSession(t, backend)

	state := s.State()
	if state.Phase != session.PhaseReady {
		t.Errorf("phase: got %s, want ready", state.Phase)
	}
	if state.Err != "failed to load" {
		t.Errorf("error flag: got %q, want %q", state.Err, "failed to load")
	}
}

func TestSessionLoadTopTapasFailureIsNonBlocking(t *testing.T) {
	backend := &fakeBackend{
		getTopTapasFn: func(ctx context.Context) ([]service.TopTapasEntry, error) {
			return nil, errors.New("aggregate failed")
		},
	}

	s := openSession(t, backend)

	state := s.State()
	if state.Err != "" {
		t.Errorf("top-tapas failure must not set the error flag, got %q", state.Err)
	}
}

func TestConfirmWithoutCustomerNeverCallsBackend(t *testing.T) {
	backend := &fakeBackend{}
	s := openSession(t, backend)

	if err := s.AddItem(cartItem("Caña", "drinks", "2.50", 1)); err != nil {
		t.Fatalf("add item: %v", err)
	}

	_, err := s.Confirm(context.Background())
	if !errors.Is(err, session.ErrNoCustomer) {
		t.Errorf("expected ErrNoCustomer, got %v", err)
	}
	if backend.saveCalls != 0 {
		t.Errorf("backend called %d times, want 0", backend.saveCalls)
	}
	if s.State().Save != session.SaveIdle {
		t.Errorf("save state: got %s, want idle", s.State().Save)
	}
}

func TestConfirmWithEmptyCartNeverCallsBackend(t *testing.T) {
	backend := &fakeBackend{}
	s := openSession(t, backend)

	if err := s.SelectCustomer(service.Customer{ID: uuid.New(), Name: "María", Type: "ADULT"}); err != nil {
		t.Fatalf("select customer: %v", err)
	}

	_, err := s.Confirm(context.Background())
	if !errors.Is(err, session.ErrEmptyCart) {
		t.Errorf("expected ErrEmptyCart, got %v", err)
	}
	if backend.saveCalls != 0 {
		t.Errorf("backend called %d times, want 0", backend.saveCalls)
	}
}

func TestConfirmSuccessClearsCartAndReloads(t *testing.T) {
	reloaded := false
	backend := &fakeBackend{}
	s := openSession(t, backend)

	fillCart(t, s)

	backend.getAllFn = func(ctx context.Context) ([]service.Order, error) {
		reloaded = true
		return []service.Order{{ID: uuid.New()}}, nil
	}

	order, err := s.Confirm(context.Background())
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if order == nil {
		t.Fatal("expected order")
	}

	customer, items := s.Cart()
	if customer != nil {
		t.Error("customer not cleared after save")
	}
	if len(items) != 0 {
		t.Errorf("cart not cleared: %d items remain", len(items))
	}
	if !reloaded {
		t.Error("history was not reloaded after save")
	}
	if s.State().Save != session.SaveSaved {
		t.Errorf("save state: got %s, want saved", s.State().Save)
	}
}

func TestConfirmSavedResetsToIdle(t *testing.T) {
	backend := &fakeBackend{}
	s := openSession(t, backend)
	fillCart(t, s)

	if _, err := s.Confirm(context.Background()); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if s.State().Save != session.SaveSaved {
		t.Fatalf("save state: got %s, want saved", s.State().Save)
	}

	// Reset delay is 20ms in tests.
	deadline := time.After(time.Second)
	for s.State().Save != session.SaveIdle {
		select {
		case <-deadline:
			t.Fatal("save state never returned to idle")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestConfirmFailurePreservesCart(t *testing.T) {
	backend := &fakeBackend{
		saveOrderFn: func(ctx context.Context, customerID uuid.UUID, items []service.OrderItem) (*service.Order, error) {
			return nil, errors.New("db down")
		},
	}
	s := openSession(t, backend)
	fillCart(t, s)

	_, err := s.Confirm(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}

	customer, items := s.Cart()
	if customer == nil {
		t.Error("customer was cleared on failure")
	}
	if len(items) != 1 {
		t.Errorf("cart items: got %d, want 1", len(items))
	}

	state := s.State()
	if state.Save != session.SaveIdle {
		t.Errorf("save state: got %s, want idle", state.Save)
	}
	if state.Err != "failed to save" {
		t.Errorf("error flag: got %q, want %q", state.Err, "failed to save")
	}

	// Cart preserved, so a retry can succeed.
	backend.saveOrderFn = nil
	if _, err := s.Confirm(context.Background()); err != nil {
		t.Fatalf("retry Confirm: %v", err)
	}
}

func TestConfirmClearsStaleError(t *testing.T) {
	backend := &fakeBackend{
		saveOrderFn: func(ctx context.Context, customerID uuid.UUID, items []service.OrderItem) (*service.Order, error) {
			return nil, errors.New("db down")
		},
	}
	s := openSession(t, backend)
	fillCart(t, s)

	s.Confirm(context.Background())
	if s.State().Err == "" {
		t.Fatal("expected error flag after failed save")
	}

	backend.saveOrderFn = nil
	if _, err := s.Confirm(context.Background()); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if got := s.State().Err; got != "" {
		t.Errorf("error flag not cleared: %q", got)
	}
}

func TestDeleteOrderClearsDeletingFlag(t *testing.T) {
	backend := &fakeBackend{}
	s := openSession(t, backend)

	orderID := uuid.New()
	if err := s.DeleteOrder(context.Background(), orderID); err != nil {
		t.Fatalf("DeleteOrder: %v", err)
	}
	if backend.deleteCalls != 1 {
		t.Errorf("delete calls: got %d, want 1", backend.deleteCalls)
	}
	if s.State().Deleting != uuid.Nil {
		t.Error("deleting flag not cleared")
	}
}

func TestDeleteOrderFailureSetsErrorAndClearsFlag(t *testing.T) {
	backend := &fakeBackend{
		deleteOrderFn: func(ctx context.Context, id uuid.UUID) error {
			return errors.New("db down")
		},
	}
	s := openSession(t, backend)

	err := s.DeleteOrder(context.Background(), uuid.New())
	if err == nil {
		t.Fatal("expected error")
	}

	state := s.State()
	if state.Deleting != uuid.Nil {
		t.Error("deleting flag not cleared after failure")
	}
	if state.Err != "failed to delete" {
		t.Errorf("error flag: got %q, want %q", state.Err, "failed to delete")
	}
}

func TestRemoveItem(t *testing.T) {
	backend := &fakeBackend{}
	s := openSession(t, backend)

	s.AddItem(cartItem("Caña", "drinks", "2.50", 1))
	s.AddItem(cartItem("Flan casero", "desserts", "4.00", 1))

	if err := s.RemoveItem(0); err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}

	_, items := s.Cart()
	if len(items) != 1 || items[0].Name != "Flan casero" {
		t.Errorf("items after remove: got %+v", items)
	}

	if err := s.RemoveItem(5); !errors.Is(err, session.ErrNoSuchItem) {
		t.Errorf("expected ErrNoSuchItem, got %v", err)
	}
}

func TestAddItemValidation(t *testing.T) {
	backend := &fakeBackend{}
	s := openSession(t, backend)

	if err := s.AddItem(cartItem("", "drinks", "2.50", 1)); !errors.Is(err, session.ErrInvalidItem) {
		t.Errorf("empty name: expected ErrInvalidItem, got %v", err)
	}
	if err := s.AddItem(cartItem("Caña", "drinks", "2.50", 0)); !errors.Is(err, session.ErrInvalidItem) {
		t.Errorf("zero quantity: expected ErrInvalidItem, got %v", err)
	}
	if err := s.AddItem(cartItem("Caña", "drinks", "-1.00", 1)); !errors.Is(err, session.ErrInvalidItem) {
		t.Errorf("negative price: expected ErrInvalidItem, got %v", err)
	}
	if err := s.AddItem(cartItem("Caña", "drinks", "1.999", 1)); !errors.Is(err, session.ErrInvalidItem) {
		t.Errorf("sub-cent price: expected ErrInvalidItem, got %v", err)
	}

	if _, items := s.Cart(); len(items) != 0 {
		t.Errorf("rejected items must not land in the cart, got %d", len(items))
	}
}

func TestClosedSessionRejectsOperations(t *testing.T) {
	backend := &fakeBackend{}
	m := session.NewManager(backend)
	s := m.Open(context.Background())

	if !m.Close(s.ID) {
		t.Fatal("close returned false")
	}

	if err := s.AddItem(cartItem("Caña", "drinks", "2.50", 1)); !errors.Is(err, session.ErrSessionClosed) {
		t.Errorf("expected ErrSessionClosed, got %v", err)
	}
	if _, err := s.Confirm(context.Background()); !errors.Is(err, session.ErrSessionClosed) {
		t.Errorf("expected ErrSessionClosed, got %v", err)
	}
	if _, ok := m.Get(s.ID); ok {
		t.Error("closed session still retrievable")
	}
}

func TestManagerGetUnknownID(t *testing.T) {
	m := session.NewManager(&fakeBackend{})
	if _, ok := m.Get(uuid.New()); ok {
		t.Error("expected unknown ID to miss")
	}
	if m.Close(uuid.New()) {
		t.Error("closing unknown ID should return false")
	}
}
