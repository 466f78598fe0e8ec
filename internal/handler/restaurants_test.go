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
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/mesa-pos/api/internal/auth"
	"github.com/mesa-pos/api/internal/database"
	"github.com/mesa-pos/api/internal/enum"
	"github.com/mesa-pos/api/internal/handler"
	"github.com/mesa-pos/api/internal/middleware"
	"golang.org/x/crypto/bcrypt"
)

// mockTx implements pgx.Tx; the stores under test never touch the underlying
// connection, so every method is a stub.
type mockTx struct {
	committed  bool
	rolledBack bool
}

func (m *mockTx) Begin(_ context.Context) (pgx.Tx, error) { return m, nil }
func (m *mockTx) Commit(_ context.Context) error          { m.committed = true; return nil }
func (m *mockTx) Rollback(_ context.Context) error        { m.rolledBack = true; return nil }
func (m *mockTx) CopyFrom(_ context.Context, _ pgx.Identifier, _ []string, _ pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (m *mockTx) SendBatch(_ context.Context, _ *pgx.Batch) pgx.BatchResults { return nil }
func (m *mockTx) LargeObjects() pgx.LargeObjects                             { return pgx.LargeObjects{} }
func (m *mockTx) Prepare(_ context.Context, _, _ string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (m *mockTx) Exec(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (m *mockTx) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) { return nil, nil }
func (m *mockTx) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row        { return nil }
func (m *mockTx) Conn() *pgx.Conn                                               { return nil }

type mockPool struct {
	tx *mockTx
}

func (m *mockPool) Begin(_ context.Context) (pgx.Tx, error) {
	m.tx = &mockTx{}
	return m.tx, nil
}

// --- Mock store ---

type mockRestaurantStore struct {
	restaurants map[uuid.UUID]database.Restaurant
	staff       map[uuid.UUID]database.Staff
	emailTaken  string
}

func newMockRestaurantStore() *mockRestaurantStore {
	return &mockRestaurantStore{
		restaurants: make(map[uuid.UUID]database.Restaurant),
		staff:       make(map[uuid.UUID]database.Staff),
	}
}

func (m *mockRestaurantStore) CreateRestaurant(_ context.Context, arg database.CreateRestaurantParams) (database.Restaurant, error) {
	rest := database.Restaurant{
		ID:         uuid.New(),
		Name:       arg.Name,
		OwnerEmail: arg.OwnerEmail,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	m.restaurants[rest.ID] = rest
	return rest, nil
}

func (m *mockRestaurantStore) GetRestaurant(_ context.Context, id uuid.UUID) (database.Restaurant, error) {
	rest, ok := m.restaurants[id]
	if !ok {
		return database.Restaurant{}, pgx.ErrNoRows
	}
	return rest, nil
}

func (m *mockRestaurantStore) ListRestaurants(_ context.Context) ([]database.Restaurant, error) {
	var result []database.Restaurant
	for _, rest := range m.restaurants {
		result = append(result, rest)
	}
	return result, nil
}

func (m *mockRestaurantStore) BlockRestaurant(_ context.Context, arg database.BlockRestaurantParams) (database.Restaurant, error) {
	rest, ok := m.restaurants[arg.ID]
	if !ok {
		return database.Restaurant{}, pgx.ErrNoRows
	}
	rest.IsBlocked = true
	rest.BlockedReason = pgtype.Text{String: arg.Reason, Valid: true}
	rest.BlockedAt = pgtype.Timestamptz{Time: time.Now(), Valid: true}
	m.restaurants[rest.ID] = rest
	return rest, nil
}

func (m *mockRestaurantStore) UnblockRestaurant(_ context.Context, id uuid.UUID) (database.Restaurant, error) {
	rest, ok := m.restaurants[id]
	if !ok {
		return database.Restaurant{}, pgx.ErrNoRows
	}
	rest.IsBlocked = false
	rest.BlockedReason = pgtype.Text{}
	rest.BlockedAt = pgtype.Timestamptz{}
	m.restaurants[rest.ID] = rest
	return rest, nil
}

func (m *mockRestaurantStore) CreateStaff(_ context.Context, arg database.CreateStaffParams) (database.Staff, error) {
	if arg.Email.Valid && arg.Email.String == m.emailTaken {
		return database.Staff{}, &pgconn.PgError{Code: "23505", ConstraintName: "staff_email_key"}
	}
	s := database.Staff{
		ID:           uuid.New(),
		RestaurantID: arg.RestaurantID,
		Name:         arg.Name,
		Role:         arg.Role,
		LoginID:      arg.LoginID,
		Email:        arg.Email,
		PasswordHash: arg.PasswordHash,
		IsActive:     true,
	}
	m.staff[s.ID] = s
	return s, nil
}

func setupRestaurantRouter(store *mockRestaurantStore, pool *mockPool) *chi.Mux {
	h := handler.NewRestaurantHandler(store, pool, func(_ database.DBTX) handler.RestaurantTxStore {
		return store
	})
	r := chi.NewRouter()
	r.Use(middleware.Authenticate(testJWTSecret))
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(enum.RoleSuperAdmin))
		r.Route("/restaurants", h.RegisterRoutes)
	})
	return r
}

func superadminClaims() *auth.Claims {
	return &auth.Claims{StaffID: uuid.New(), Role: enum.RoleSuperAdmin}
}

func TestRestaurantCreate(t *testing.T) {
	store := newMockRestaurantStore()
	pool := &mockPool{}
	router := setupRestaurantRouter(store, pool)

	rr := doAuthRequest(t, router, "POST", "/restaurants",
		map[string]interface{}{
			"name":           "La Mesa",
			"owner_email":    "owner@lamesa.dev",
			"admin_password": "supersecret",
		}, superadminClaims())

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	if pool.tx == nil || !pool.tx.committed {
		t.Error("expected the transaction to be committed")
	}

	resp := decodeResponse(t, rr)
	rest := resp["restaurant"].(map[string]interface{})
	if rest["name"] != "La Mesa" {
		t.Errorf("restaurant name: got %v, want La Mesa", rest["name"])
	}
	admin := resp["admin"].(map[string]interface{})
	if admin["role"] != enum.RoleAdmin {
		t.Errorf("admin role: got %v, want ADMIN", admin["role"])
	}
	if admin["login_id"] != "admin" {
		t.Errorf("admin login_id: got %v, want admin", admin["login_id"])
	}

	// The admin must be able to log in with the submitted password.
	var created database.Staff
	for _, s := range store.staff {
		created = s
	}
	if err := bcrypt.CompareHashAndPassword([]byte(created.PasswordHash.String), []byte("supersecret")); err != nil {
		t.Errorf("stored password hash does not match: %v", err)
	}
}

func TestRestaurantCreate_InvalidEmail(t *testing.T) {
	store := newMockRestaurantStore()
	router := setupRestaurantRouter(store, &mockPool{})

	rr := doAuthRequest(t, router, "POST", "/restaurants",
		map[string]interface{}{"name": "X", "owner_email": "not-an-email", "admin_password": "supersecret"},
		superadminClaims())

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestRestaurantCreate_ShortPassword(t *testing.T) {
	store := newMockRestaurantStore()
	router := setupRestaurantRouter(store, &mockPool{})

	rr := doAuthRequest(t, router, "POST", "/restaurants",
		map[string]interface{}{"name": "X", "owner_email": "x@y.dev", "admin_password": "short"},
		superadminClaims())

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestRestaurantCreate_DuplicateEmail(t *testing.T) {
	store := newMockRestaurantStore()
	store.emailTaken = "owner@lamesa.dev"
	pool := &mockPool{}
	router := setupRestaurantRouter(store, pool)

	rr := doAuthRequest(t, router, "POST", "/restaurants",
		map[string]interface{}{"name": "La Mesa", "owner_email": "owner@lamesa.dev", "admin_password": "supersecret"},
		superadminClaims())

	if rr.Code != http.StatusConflict {
		t.Errorf("status: got %d, want %d; body: %s", rr.Code, http.StatusConflict, rr.Body.String())
	}
	if pool.tx == nil || pool.tx.committed {
		t.Error("transaction must not be committed on conflict")
	}
}

func TestRestaurantCreate_AdminForbidden(t *testing.T) {
	store := newMockRestaurantStore()
	router := setupRestaurantRouter(store, &mockPool{})

	rr := doAuthRequest(t, router, "POST", "/restaurants",
		map[string]interface{}{"name": "X", "owner_email": "x@y.dev", "admin_password": "supersecret"},
		adminClaims(uuid.New()))

	if rr.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusForbidden)
	}
}

func TestRestaurantBlockUnblock(t *testing.T) {
	store := newMockRestaurantStore()
	rest := database.Restaurant{ID: uuid.New(), Name: "La Mesa", OwnerEmail: "o@x.dev"}
	store.restaurants[rest.ID] = rest

	router := setupRestaurantRouter(store, &mockPool{})

	rr := doAuthRequest(t, router, "POST", "/restaurants/"+rest.ID.String()+"/block",
		map[string]interface{}{"reason": "unpaid invoices"}, superadminClaims())
	if rr.Code != http.StatusOK {
		t.Fatalf("block: status %d; body: %s", rr.Code, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["is_blocked"] != true {
		t.Errorf("is_blocked: got %v, want true", resp["is_blocked"])
	}
	if resp["blocked_reason"] != "unpaid invoices" {
		t.Errorf("blocked_reason: got %v", resp["blocked_reason"])
	}

	rr = doAuthRequest(t, router, "POST", "/restaurants/"+rest.ID.String()+"/unblock", nil, superadminClaims())
	if rr.Code != http.StatusOK {
		t.Fatalf("unblock: status %d", rr.Code)
	}
	if decodeResponse(t, rr)["is_blocked"] != false {
		t.Error("expected restaurant to be unblocked")
	}
}

func TestRestaurantBlock_MissingReason(t *testing.T) {
	store := newMockRestaurantStore()
	rest := database.Restaurant{ID: uuid.New(), Name: "La Mesa", OwnerEmail: "o@x.dev"}
	store.restaurants[rest.ID] = rest

	router := setupRestaurantRouter(store, &mockPool{})
	rr := doAuthRequest(t, router, "POST", "/restaurants/"+rest.ID.String()+"/block",
		map[string]interface{}{"reason": "  "}, superadminClaims())

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}
