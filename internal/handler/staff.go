package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/mesa-pos/api/internal/database"
	"github.com/mesa-pos/api/internal/enum"
	"github.com/mesa-pos/api/internal/logger"
	"github.com/mesa-pos/api/internal/middleware"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// StaffStore defines the database methods needed by staff handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type StaffStore interface {
	CreateStaff(ctx context.Context, arg database.CreateStaffParams) (database.Staff, error)
	GetStaff(ctx context.Context, arg database.GetStaffParams) (database.Staff, error)
	ListStaffByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]database.Staff, error)
	UpdateStaff(ctx context.Context, arg database.UpdateStaffParams) (database.Staff, error)
	UpdateStaffPin(ctx context.Context, arg database.UpdateStaffPinParams) (database.Staff, error)
}

// StaffHandler handles staff management endpoints (ADMIN only).
type StaffHandler struct {
	store StaffStore
}

// NewStaffHandler creates a new StaffHandler.
func NewStaffHandler(store StaffStore) *StaffHandler {
	return &StaffHandler{store: store}
}

// RegisterRoutes registers staff management endpoints on the given Chi router.
// Expected to be mounted at /restaurants/{rid}/staff
func (h *StaffHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.RequireRole(enum.RoleAdmin))

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Put("/{id}/pin", h.UpdatePin)
}

// --- Request types ---

type createStaffRequest struct {
	Name    string `json:"name"`
	Role    string `json:"role"`
	LoginID string `json:"login_id"`
	Pin     string `json:"pin"`
}

type updateStaffRequest struct {
	Name     string `json:"name"`
	Role     string `json:"role"`
	LoginID  string `json:"login_id"`
	IsActive *bool  `json:"is_active"`
}

type updateStaffPinRequest struct {
	Pin string `json:"pin"`
}

// --- Handlers ---

// Create handles POST /restaurants/{rid}/staff. New staff get a LoginID + PIN
// pair for the shared tablet login; email accounts are for admins only and are
// set up separately.
func (h *StaffHandler) Create(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := uuid.Parse(chi.URLParam(r, "rid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}

	var req createStaffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.LoginID = strings.TrimSpace(req.LoginID)
	if req.Name == "" || req.LoginID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name and login_id are required"})
		return
	}
	if !enum.IsValidStaffRole(req.Role) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid role"})
		return
	}
	if err := validatePin(req.Pin); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	pinHash, err := bcrypt.GenerateFromPassword([]byte(req.Pin), bcrypt.DefaultCost)
	if err != nil {
		logger.L().Error("hash pin", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	staff, err := h.store.CreateStaff(r.Context(), database.CreateStaffParams{
		RestaurantID: pgtype.UUID{Bytes: restaurantID, Valid: true},
		Name:         req.Name,
		Role:         req.Role,
		LoginID:      req.LoginID,
		PinHash:      pgtype.Text{String: string(pinHash), Valid: true},
	})
	if err != nil {
		if isUniqueViolation(err, "staff_restaurant_id_login_id_key") {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "login_id already in use"})
			return
		}
		logger.L().Error("create staff", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toStaffResponse(staff))
}

// List handles GET /restaurants/{rid}/staff.
func (h *StaffHandler) List(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := uuid.Parse(chi.URLParam(r, "rid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}

	staff, err := h.store.ListStaffByRestaurant(r.Context(), restaurantID)
	if err != nil {
		logger.L().Error("list staff", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]staffResponse, len(staff))
	for i, s := range staff {
		resp[i] = toStaffResponse(s)
	}
	writeJSON(w, http.StatusOK, map[string][]staffResponse{"staff": resp})
}

// Get handles GET /restaurants/{rid}/staff/{id}.
func (h *StaffHandler) Get(w http.ResponseWriter, r *http.Request) {
	restaurantID, staffID, ok := parseStaffPath(w, r)
	if !ok {
		return
	}

	staff, err := h.store.GetStaff(r.Context(), database.GetStaffParams{
		ID:           staffID,
		RestaurantID: restaurantID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "staff not found"})
			return
		}
		logger.L().Error("get staff", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toStaffResponse(staff))
}

// Update handles PUT /restaurants/{rid}/staff/{id}. Deactivation is the way
// to revoke access; staff rows are never deleted so order history keeps its
// waiter references.
func (h *StaffHandler) Update(w http.ResponseWriter, r *http.Request) {
	restaurantID, staffID, ok := parseStaffPath(w, r)
	if !ok {
		return
	}

	var req updateStaffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.LoginID = strings.TrimSpace(req.LoginID)
	if req.Name == "" || req.LoginID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name and login_id are required"})
		return
	}
	if !enum.IsValidStaffRole(req.Role) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid role"})
		return
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	staff, err := h.store.UpdateStaff(r.Context(), database.UpdateStaffParams{
		ID:           staffID,
		RestaurantID: restaurantID,
		Name:         req.Name,
		Role:         req.Role,
		LoginID:      req.LoginID,
		IsActive:     isActive,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "staff not found"})
			return
		}
		if isUniqueViolation(err, "staff_restaurant_id_login_id_key") {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "login_id already in use"})
			return
		}
		logger.L().Error("update staff", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toStaffResponse(staff))
}

// UpdatePin handles PUT /restaurants/{rid}/staff/{id}/pin.
func (h *StaffHandler) UpdatePin(w http.ResponseWriter, r *http.Request) {
	restaurantID, staffID, ok := parseStaffPath(w, r)
	if !ok {
		return
	}

	var req updateStaffPinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := validatePin(req.Pin); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	pinHash, err := bcrypt.GenerateFromPassword([]byte(req.Pin), bcrypt.DefaultCost)
	if err != nil {
		logger.L().Error("hash pin", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	staff, err := h.store.UpdateStaffPin(r.Context(), database.UpdateStaffPinParams{
		ID:           staffID,
		RestaurantID: restaurantID,
		PinHash:      pgtype.Text{String: string(pinHash), Valid: true},
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "staff not found"})
			return
		}
		logger.L().Error("update staff pin", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toStaffResponse(staff))
}

// --- Helpers ---

func validatePin(pin string) error {
	if len(pin) < 4 || len(pin) > 8 {
		return errors.New("pin must be 4 to 8 digits")
	}
	for _, c := range pin {
		if c < '0' || c > '9' {
			return errors.New("pin must be 4 to 8 digits")
		}
	}
	return nil
}

func parseStaffPath(w http.ResponseWriter, r *http.Request) (restaurantID, staffID uuid.UUID, ok bool) {
	restaurantID, err := uuid.Parse(chi.URLParam(r, "rid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return uuid.Nil, uuid.Nil, false
	}
	staffID, err = uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid staff ID"})
		return uuid.Nil, uuid.Nil, false
	}
	return restaurantID, staffID, true
}
