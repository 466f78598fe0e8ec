package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mesa-pos/api/internal/database"
	"github.com/mesa-pos/api/internal/enum"
	"github.com/mesa-pos/api/internal/handler"
	"github.com/mesa-pos/api/internal/middleware"
	"golang.org/x/crypto/bcrypt"
)

type mockStaffStore struct {
	staff map[uuid.UUID]database.Staff
}

func newMockStaffStore() *mockStaffStore {
	return &mockStaffStore{staff: make(map[uuid.UUID]database.Staff)}
}

func (m *mockStaffStore) CreateStaff(_ context.Context, arg database.CreateStaffParams) (database.Staff, error) {
	for _, s := range m.staff {
		if s.RestaurantID == arg.RestaurantID && s.LoginID == arg.LoginID {
			return database.Staff{}, &pgconn.PgError{Code: "23505", ConstraintName: "staff_restaurant_id_login_id_key"}
		}
	}
	s := database.Staff{
		ID:           uuid.New(),
		RestaurantID: arg.RestaurantID,
		Name:         arg.Name,
		Role:         arg.Role,
		LoginID:      arg.LoginID,
		PinHash:      arg.PinHash,
		Email:        arg.Email,
		PasswordHash: arg.PasswordHash,
		IsActive:     true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	m.staff[s.ID] = s
	return s, nil
}

func (m *mockStaffStore) GetStaff(_ context.Context, arg database.GetStaffParams) (database.Staff, error) {
	s, ok := m.staff[arg.ID]
	if !ok || !s.RestaurantID.Valid || uuid.UUID(s.RestaurantID.Bytes) != arg.RestaurantID {
		return database.Staff{}, pgx.ErrNoRows
	}
	return s, nil
}

func (m *mockStaffStore) ListStaffByRestaurant(_ context.Context, restaurantID uuid.UUID) ([]database.Staff, error) {
	var result []database.Staff
	for _, s := range m.staff {
		if s.RestaurantID.Valid && uuid.UUID(s.RestaurantID.Bytes) == restaurantID {
			result = append(result, s)
		}
	}
	return result, nil
}

func (m *mockStaffStore) UpdateStaff(_ context.Context, arg database.UpdateStaffParams) (database.Staff, error) {
	s, ok := m.staff[arg.ID]
	if !ok || !s.RestaurantID.Valid || uuid.UUID(s.RestaurantID.Bytes) != arg.RestaurantID {
		return database.Staff{}, pgx.ErrNoRows
	}
	for _, other := range m.staff {
		if other.ID != arg.ID && other.RestaurantID == s.RestaurantID && other.LoginID == arg.LoginID {
			return database.Staff{}, &pgconn.PgError{Code: "23505", ConstraintName: "staff_restaurant_id_login_id_key"}
		}
	}
	s.Name = arg.Name
	s.Role = arg.Role
	s.LoginID = arg.LoginID
	s.IsActive = arg.IsActive
	m.staff[s.ID] = s
	return s, nil
}

func (m *mockStaffStore) UpdateStaffPin(_ context.Context, arg database.UpdateStaffPinParams) (database.Staff, error) {
	s, ok := m.staff[arg.ID]
	if !ok || !s.RestaurantID.Valid || uuid.UUID(s.RestaurantID.Bytes) != arg.RestaurantID {
		return database.Staff{}, pgx.ErrNoRows
	}
	s.PinHash = arg.PinHash
	m.staff[s.ID] = s
	return s, nil
}

func setupStaffRouter(store *mockStaffStore) *chi.Mux {
	h := handler.NewStaffHandler(store)
	r := chi.NewRouter()
	r.Use(middleware.Authenticate(testJWTSecret))
	r.Route("/restaurants/{rid}/staff", h.RegisterRoutes)
	return r
}

func TestStaffCreate_Valid(t *testing.T) {
	store := newMockStaffStore()
	router := setupStaffRouter(store)
	restaurantID := uuid.New()

	rr := doAuthRequest(t, router, "POST", "/restaurants/"+restaurantID.String()+"/staff",
		map[string]interface{}{
			"name":     "Maria",
			"role":     enum.RoleWaiter,
			"login_id": "maria1",
			"pin":      "4321",
		}, adminClaims(restaurantID))

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["name"] != "Maria" {
		t.Errorf("name: got %v, want Maria", resp["name"])
	}
	if resp["role"] != enum.RoleWaiter {
		t.Errorf("role: got %v, want WAITER", resp["role"])
	}
	if _, hasHash := resp["pin_hash"]; hasHash {
		t.Error("pin_hash must not be exposed in the response")
	}

	// The stored hash must verify against the submitted PIN.
	var stored database.Staff
	for _, s := range store.staff {
		stored = s
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PinHash.String), []byte("4321")); err != nil {
		t.Errorf("stored pin hash does not match: %v", err)
	}
}

func TestStaffCreate_InvalidPin(t *testing.T) {
	store := newMockStaffStore()
	router := setupStaffRouter(store)
	restaurantID := uuid.New()

	for _, pin := range []string{"12", "123456789", "12ab", ""} {
		rr := doAuthRequest(t, router, "POST", "/restaurants/"+restaurantID.String()+"/staff",
			map[string]interface{}{"name": "X", "role": enum.RoleWaiter, "login_id": "x1", "pin": pin},
			adminClaims(restaurantID))
		if rr.Code != http.StatusBadRequest {
			t.Errorf("pin=%q: status got %d, want %d", pin, rr.Code, http.StatusBadRequest)
		}
	}
}

func TestStaffCreate_SuperadminRoleRejected(t *testing.T) {
	store := newMockStaffStore()
	router := setupStaffRouter(store)
	restaurantID := uuid.New()

	rr := doAuthRequest(t, router, "POST", "/restaurants/"+restaurantID.String()+"/staff",
		map[string]interface{}{"name": "Eve", "role": enum.RoleSuperAdmin, "login_id": "eve1", "pin": "1234"},
		adminClaims(restaurantID))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestStaffCreate_DuplicateLogin(t *testing.T) {
	store := newMockStaffStore()
	router := setupStaffRouter(store)
	restaurantID := uuid.New()
	claims := adminClaims(restaurantID)

	body := map[string]interface{}{"name": "A", "role": enum.RoleWaiter, "login_id": "dup", "pin": "1234"}
	doAuthRequest(t, router, "POST", "/restaurants/"+restaurantID.String()+"/staff", body, claims)
	rr := doAuthRequest(t, router, "POST", "/restaurants/"+restaurantID.String()+"/staff", body, claims)

	if rr.Code != http.StatusConflict {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
}

func TestStaffCreate_NonAdminForbidden(t *testing.T) {
	store := newMockStaffStore()
	router := setupStaffRouter(store)
	restaurantID := uuid.New()

	rr := doAuthRequest(t, router, "POST", "/restaurants/"+restaurantID.String()+"/staff",
		map[string]interface{}{"name": "B", "role": enum.RoleWaiter, "login_id": "b1", "pin": "1234"},
		waiterClaims(restaurantID))

	if rr.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusForbidden)
	}
}

func TestStaffUpdate_Deactivate(t *testing.T) {
	store := newMockStaffStore()
	restaurantID := uuid.New()

	s := database.Staff{
		ID:           uuid.New(),
		RestaurantID: pgUUID(restaurantID),
		Name:         "Jon",
		Role:         enum.RoleKitchen,
		LoginID:      "jon1",
		IsActive:     true,
	}
	store.staff[s.ID] = s

	router := setupStaffRouter(store)
	active := false
	rr := doAuthRequest(t, router, "PUT",
		"/restaurants/"+restaurantID.String()+"/staff/"+s.ID.String(),
		map[string]interface{}{"name": "Jon", "role": enum.RoleKitchen, "login_id": "jon1", "is_active": active},
		adminClaims(restaurantID))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["is_active"] != false {
		t.Errorf("is_active: got %v, want false", resp["is_active"])
	}
	if store.staff[s.ID].IsActive {
		t.Error("staff should be deactivated in the store")
	}
}

func TestStaffUpdatePin(t *testing.T) {
	store := newMockStaffStore()
	restaurantID := uuid.New()

	s := database.Staff{
		ID:           uuid.New(),
		RestaurantID: pgUUID(restaurantID),
		Name:         "Lea",
		Role:         enum.RoleWaiter,
		LoginID:      "lea1",
		IsActive:     true,
	}
	store.staff[s.ID] = s

	router := setupStaffRouter(store)
	rr := doAuthRequest(t, router, "PUT",
		"/restaurants/"+restaurantID.String()+"/staff/"+s.ID.String()+"/pin",
		map[string]interface{}{"pin": "99887766"}, adminClaims(restaurantID))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	if err := bcrypt.CompareHashAndPassword([]byte(store.staff[s.ID].PinHash.String), []byte("99887766")); err != nil {
		t.Errorf("updated pin hash does not match: %v", err)
	}
}

func TestStaffGet_NotFound(t *testing.T) {
	store := newMockStaffStore()
	router := setupStaffRouter(store)
	restaurantID := uuid.New()

	rr := doAuthRequest(t, router, "GET",
		"/restaurants/"+restaurantID.String()+"/staff/"+uuid.New().String(), nil, adminClaims(restaurantID))

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}
