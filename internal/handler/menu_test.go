package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/tapas-pos/api/internal/auth"
	"github.com/tapas-pos/api/internal/database"
	"github.com/tapas-pos/api/internal/enum"
	"github.com/tapas-pos/api/internal/handler"
	"github.com/tapas-pos/api/internal/middleware"
)

// --- Mock store ---

type mockMenuStore struct {
	items map[uuid.UUID]database.MenuItem
}

func newMockMenuStore() *mockMenuStore {
	return &mockMenuStore{items: make(map[uuid.UUID]database.MenuItem)}
}

func (m *mockMenuStore) GetMenuItem(_ context.Context, id uuid.UUID) (database.MenuItem, error) {
	it, ok := m.items[id]
	if !ok || !it.IsActive {
		return database.MenuItem{}, pgx.ErrNoRows
	}
	return it, nil
}

func (m *mockMenuStore) ListMenuItems(_ context.Context, arg database.ListMenuItemsParams) ([]database.MenuItem, error) {
	var result []database.MenuItem
	for _, it := range m.items {
		if !it.IsActive {
			continue
		}
		if arg.Category.Valid && it.Category != arg.Category.String {
			continue
		}
		result = append(result, it)
	}
	return result, nil
}

func (m *mockMenuStore) CreateMenuItem(_ context.Context, arg database.CreateMenuItemParams) (database.MenuItem, error) {
	for _, it := range m.items {
		if it.Name == arg.Name && it.Category == arg.Category {
			return database.MenuItem{}, &pgconn.PgError{Code: "23505"}
		}
	}
	it := database.MenuItem{
		ID:        uuid.New(),
		Name:      arg.Name,
		Category:  arg.Category,
		Price:     arg.Price,
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	m.items[it.ID] = it
	return it, nil
}

func (m *mockMenuStore) addItem(t *testing.T, name, category, price string) database.MenuItem {
	t.Helper()
	var n pgtype.Numeric
	if err := n.Scan(price); err != nil {
		t.Fatalf("scan price: %v", err)
	}
	it := database.MenuItem{
		ID:        uuid.New(),
		Name:      name,
		Category:  category,
		Price:     n,
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	m.items[it.ID] = it
	return it
}

// --- Helpers ---

func setupMenuRouter(store *mockMenuStore) *chi.Mux {
	h := handler.NewMenuHandler(store)
	r := chi.NewRouter()
	r.Use(middleware.Authenticate(testJWTSecret))
	h.RegisterRoutes(r)
	return r
}

func doMenuRequest(t *testing.T, router http.Handler, method, path string, body interface{}, role string) *httptest.ResponseRecorder {
	t.Helper()

	token, err := auth.GenerateToken(testJWTSecret, uuid.New(), role)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	var req *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

// --- Tests ---

func TestMenuList(t *testing.T) {
	store := newMockMenuStore()
	store.addItem(t, "Patatas bravas", "tapas", "0.00")
	store.addItem(t, "Caña", "drinks", "2.50")
	router := setupMenuRouter(store)

	rr := doMenuRequest(t, router, http.MethodGet, "/menu", nil, enum.StaffRoleWaiter)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d; body: %s", rr.Code, rr.Body.String())
	}

	resp := decodeListResponse(t, rr)
	if len(resp) != 2 {
		t.Errorf("expected 2 items, got %d", len(resp))
	}
}

func TestMenuListByCategory(t *testing.T) {
	store := newMockMenuStore()
	store.addItem(t, "Patatas bravas", "tapas", "0.00")
	store.addItem(t, "Caña", "drinks", "2.50")
	router := setupMenuRouter(store)

	rr := doMenuRequest(t, router, http.MethodGet, "/menu?category=drinks", nil, enum.StaffRoleWaiter)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	resp := decodeListResponse(t, rr)
	if len(resp) != 1 {
		t.Fatalf("expected 1 item, got %d", len(resp))
	}
	if resp[0]["name"] != "Caña" {
		t.Errorf("name: got %v, want Caña", resp[0]["name"])
	}
	if resp[0]["price"] != "2.50" {
		t.Errorf("price: got %v, want 2.50", resp[0]["price"])
	}
	if resp[0]["price_display"] != "2.50 €" {
		t.Errorf("price_display: got %v, want '2.50 €'", resp[0]["price_display"])
	}
}

func TestMenuGet(t *testing.T) {
	store := newMockMenuStore()
	it := store.addItem(t, "Caña", "drinks", "2.50")
	router := setupMenuRouter(store)

	rr := doMenuRequest(t, router, http.MethodGet, "/menu/"+it.ID.String(), nil, enum.StaffRoleWaiter)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d; body: %s", rr.Code, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["name"] != "Caña" {
		t.Errorf("name: got %v, want Caña", resp["name"])
	}
}

func TestMenuGetNotFound(t *testing.T) {
	store := newMockMenuStore()
	router := setupMenuRouter(store)

	rr := doMenuRequest(t, router, http.MethodGet, "/menu/"+uuid.NewString(), nil, enum.StaffRoleWaiter)
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rr.Code)
	}
}

func TestMenuListInvalidCategory(t *testing.T) {
	store := newMockMenuStore()
	router := setupMenuRouter(store)

	rr := doMenuRequest(t, router, http.MethodGet, "/menu?category=sushi", nil, enum.StaffRoleWaiter)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestMenuCreateAsManager(t *testing.T) {
	store := newMockMenuStore()
	router := setupMenuRouter(store)

	body := map[string]interface{}{
		"name":     "Pulpo a la gallega",
		"category": "raciones",
		"price":    "14.50",
	}

	rr := doMenuRequest(t, router, http.MethodPost, "/menu", body, enum.StaffRoleManager)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d; body: %s", rr.Code, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["name"] != "Pulpo a la gallega" {
		t.Errorf("name: got %v", resp["name"])
	}
	if resp["price"] != "14.50" {
		t.Errorf("price: got %v, want 14.50", resp["price"])
	}
}

func TestMenuCreateAsWaiterForbidden(t *testing.T) {
	store := newMockMenuStore()
	router := setupMenuRouter(store)

	body := map[string]interface{}{
		"name":     "Pulpo a la gallega",
		"category": "raciones",
		"price":    "14.50",
	}

	rr := doMenuRequest(t, router, http.MethodPost, "/menu", body, enum.StaffRoleWaiter)
	if rr.Code != http.StatusForbidden {
		t.Errorf("expected status 403, got %d", rr.Code)
	}
}

func TestMenuCreateDuplicate(t *testing.T) {
	store := newMockMenuStore()
	store.addItem(t, "Caña", "drinks", "2.50")
	router := setupMenuRouter(store)

	body := map[string]interface{}{
		"name":     "Caña",
		"category": "drinks",
		"price":    "2.50",
	}

	rr := doMenuRequest(t, router, http.MethodPost, "/menu", body, enum.StaffRoleManager)
	if rr.Code != http.StatusConflict {
		t.Errorf("expected status 409, got %d", rr.Code)
	}
}

func TestMenuCreateNegativePrice(t *testing.T) {
	store := newMockMenuStore()
	router := setupMenuRouter(store)

	body := map[string]interface{}{
		"name":     "Caña",
		"category": "drinks",
		"price":    "-1.00",
	}

	rr := doMenuRequest(t, router, http.MethodPost, "/menu", body, enum.StaffRoleManager)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestMenuCreateFractionalCentPrice(t *testing.T) {
	store := newMockMenuStore()
	router := setupMenuRouter(store)

	body := map[string]interface{}{
		"name":     "Caña",
		"category": "drinks",
		"price":    "2.505",
	}

	rr := doMenuRequest(t, router, http.MethodPost, "/menu", body, enum.StaffRoleManager)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
	if len(store.items) != 0 {
		t.Error("item must not be created")
	}
}

func TestMenuCreateInvalidCategory(t *testing.T) {
	store := newMockMenuStore()
	router := setupMenuRouter(store)

	body := map[string]interface{}{
		"name":     "Sushi",
		"category": "sushi",
		"price":    "8.00",
	}

	rr := doMenuRequest(t, router, http.MethodPost, "/menu", body, enum.StaffRoleManager)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}
