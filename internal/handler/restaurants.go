package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/mesa-pos/api/internal/database"
	"github.com/mesa-pos/api/internal/enum"
	"github.com/mesa-pos/api/internal/logger"
	"github.com/mesa-pos/api/internal/service"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// RestaurantTxStore defines the database methods needed by restaurant
// handlers. Satisfied by *database.Queries; narrow interface for testability.
type RestaurantTxStore interface {
	CreateRestaurant(ctx context.Context, arg database.CreateRestaurantParams) (database.Restaurant, error)
	GetRestaurant(ctx context.Context, id uuid.UUID) (database.Restaurant, error)
	ListRestaurants(ctx context.Context) ([]database.Restaurant, error)
	BlockRestaurant(ctx context.Context, arg database.BlockRestaurantParams) (database.Restaurant, error)
	UnblockRestaurant(ctx context.Context, id uuid.UUID) (database.Restaurant, error)
	CreateStaff(ctx context.Context, arg database.CreateStaffParams) (database.Staff, error)
}

// NewRestaurantStore builds a store bound to the given connection or tx.
type NewRestaurantStore func(db database.DBTX) RestaurantTxStore

// RestaurantHandler handles platform-level restaurant management
// (SUPERADMIN only). Creation inserts the restaurant and its first admin
// account in one transaction so a restaurant never exists without a login;
// everything else runs single statements against the pool-bound store.
type RestaurantHandler struct {
	store    RestaurantTxStore
	pool     service.TxBeginner
	newStore NewRestaurantStore
}

// NewRestaurantHandler creates a new RestaurantHandler.
func NewRestaurantHandler(store RestaurantTxStore, pool service.TxBeginner, newStore NewRestaurantStore) *RestaurantHandler {
	return &RestaurantHandler{store: store, pool: pool, newStore: newStore}
}

// RegisterRoutes registers restaurant management endpoints on the given Chi
// router. Expected to be mounted at /restaurants under SUPERADMIN gating.
func (h *RestaurantHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{rid}", h.Get)
	r.Post("/{rid}/block", h.Block)
	r.Post("/{rid}/unblock", h.Unblock)
}

// --- Request / Response types ---

type createRestaurantRequest struct {
	Name          string `json:"name"`
	OwnerEmail    string `json:"owner_email"`
	AdminName     string `json:"admin_name"`
	AdminPassword string `json:"admin_password"`
}

type blockRestaurantRequest struct {
	Reason string `json:"reason"`
}

type restaurantResponse struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	OwnerEmail    string     `json:"owner_email"`
	IsBlocked     bool       `json:"is_blocked"`
	BlockedReason *string    `json:"blocked_reason"`
	BlockedAt     *time.Time `json:"blocked_at"`
	CreatedAt     time.Time  `json:"created_at"`
}

type createRestaurantResponse struct {
	Restaurant restaurantResponse `json:"restaurant"`
	Admin      staffResponse      `json:"admin"`
}

// --- Handlers ---

// Create handles POST /restaurants.
func (h *RestaurantHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRestaurantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.OwnerEmail = strings.TrimSpace(req.OwnerEmail)
	req.AdminName = strings.TrimSpace(req.AdminName)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if _, err := mail.ParseAddress(req.OwnerEmail); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid owner_email"})
		return
	}
	if req.AdminName == "" {
		req.AdminName = "Admin"
	}
	if len(req.AdminPassword) < 8 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "admin_password must be at least 8 characters"})
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		logger.L().Error("hash password", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	ctx := r.Context()
	tx, err := h.pool.Begin(ctx)
	if err != nil {
		logger.L().Error("begin tx", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := h.newStore(tx)
	restaurant, err := store.CreateRestaurant(ctx, database.CreateRestaurantParams{
		Name:       req.Name,
		OwnerEmail: req.OwnerEmail,
	})
	if err != nil {
		logger.L().Error("create restaurant", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	admin, err := store.CreateStaff(ctx, database.CreateStaffParams{
		RestaurantID: pgtype.UUID{Bytes: restaurant.ID, Valid: true},
		Name:         req.AdminName,
		Role:         enum.RoleAdmin,
		LoginID:      "admin",
		Email:        pgtype.Text{String: req.OwnerEmail, Valid: true},
		PasswordHash: pgtype.Text{String: string(passwordHash), Valid: true},
	})
	if err != nil {
		if isUniqueViolation(err, "staff_email_key") {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "owner_email already in use"})
			return
		}
		logger.L().Error("create restaurant admin", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if err := tx.Commit(ctx); err != nil {
		logger.L().Error("commit tx", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, createRestaurantResponse{
		Restaurant: toRestaurantResponse(restaurant),
		Admin:      toStaffResponse(admin),
	})
}

// List handles GET /restaurants.
func (h *RestaurantHandler) List(w http.ResponseWriter, r *http.Request) {
	restaurants, err := h.store.ListRestaurants(r.Context())
	if err != nil {
		logger.L().Error("list restaurants", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]restaurantResponse, len(restaurants))
	for i, rest := range restaurants {
		resp[i] = toRestaurantResponse(rest)
	}
	writeJSON(w, http.StatusOK, map[string][]restaurantResponse{"restaurants": resp})
}

// Get handles GET /restaurants/{rid}.
func (h *RestaurantHandler) Get(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := uuid.Parse(chi.URLParam(r, "rid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}

	restaurant, err := h.store.GetRestaurant(r.Context(), restaurantID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "restaurant not found"})
			return
		}
		logger.L().Error("get restaurant", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toRestaurantResponse(restaurant))
}

// Block handles POST /restaurants/{rid}/block. Blocked restaurants keep their
// data; every authenticated endpoint under them starts returning 403.
func (h *RestaurantHandler) Block(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := uuid.Parse(chi.URLParam(r, "rid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}

	var req blockRestaurantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	req.Reason = strings.TrimSpace(req.Reason)
	if req.Reason == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "reason is required"})
		return
	}

	restaurant, err := h.store.BlockRestaurant(r.Context(), database.BlockRestaurantParams{
		ID:     restaurantID,
		Reason: req.Reason,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "restaurant not found"})
			return
		}
		logger.L().Error("block restaurant", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toRestaurantResponse(restaurant))
}

// Unblock handles POST /restaurants/{rid}/unblock.
func (h *RestaurantHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := uuid.Parse(chi.URLParam(r, "rid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}

	restaurant, err := h.store.UnblockRestaurant(r.Context(), restaurantID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "restaurant not found"})
			return
		}
		logger.L().Error("unblock restaurant", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toRestaurantResponse(restaurant))
}

// --- Helpers ---

func toRestaurantResponse(rest database.Restaurant) restaurantResponse {
	resp := restaurantResponse{
		ID:            rest.ID,
		Name:          rest.Name,
		OwnerEmail:    rest.OwnerEmail,
		IsBlocked:     rest.IsBlocked,
		BlockedReason: textOrNil(rest.BlockedReason),
		CreatedAt:     rest.CreatedAt,
	}
	if rest.BlockedAt.Valid {
		resp.BlockedAt = &rest.BlockedAt.Time
	}
	return resp
}
