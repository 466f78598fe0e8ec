package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/mesa-pos/api/internal/database"
	"github.com/mesa-pos/api/internal/enum"
	"github.com/mesa-pos/api/internal/logger"
	"github.com/mesa-pos/api/internal/middleware"
	"github.com/mesa-pos/api/internal/ws"
	"go.uber.org/zap"
)

// CallStore defines the database methods needed by waiter call handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type CallStore interface {
	CreateWaiterCall(ctx context.Context, arg database.CreateWaiterCallParams) (database.WaiterCall, error)
	ListWaiterCalls(ctx context.Context, arg database.ListWaiterCallsParams) ([]database.WaiterCall, error)
	AttendWaiterCall(ctx context.Context, arg database.AttendWaiterCallParams) (database.WaiterCall, error)
}

// CallHandler handles waiter call endpoints.
type CallHandler struct {
	store CallStore
	hub   Broadcaster
}

// NewCallHandler creates a new CallHandler.
func NewCallHandler(store CallStore, hub Broadcaster) *CallHandler {
	return &CallHandler{store: store, hub: orBroadcaster(hub)}
}

// RegisterRoutes registers staff call endpoints on the given Chi router.
// Expected to be mounted at /restaurants/{rid}/calls
func (h *CallHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Patch("/{id}/attend", h.Attend)
}

// RegisterPublicRoutes registers the customer call button endpoint.
func (h *CallHandler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/", h.Create)
}

// --- Request / Response types ---

type createCallRequest struct {
	TableNumber int32 `json:"table_number"`
}

type callResponse struct {
	ID          uuid.UUID  `json:"id"`
	TableNumber int32      `json:"table_number"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	AttendedAt  *time.Time `json:"attended_at"`
	AttendedBy  *string    `json:"attended_by"`
}

// --- Handlers ---

// Create handles POST /restaurants/{rid}/calls. Every press creates a new
// PENDING call; repeated presses are not collapsed.
func (h *CallHandler) Create(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := uuid.Parse(chi.URLParam(r, "rid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}

	var req createCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.TableNumber <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "table_number must be > 0"})
		return
	}

	call, err := h.store.CreateWaiterCall(r.Context(), database.CreateWaiterCallParams{
		RestaurantID: restaurantID,
		TableNumber:  req.TableNumber,
	})
	if err != nil {
		logger.L().Error("create waiter call", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := toCallResponse(call)
	h.hub.BroadcastToRestaurant(restaurantID, ws.NewEvent(ws.EventCallCreated, resp))
	writeJSON(w, http.StatusCreated, resp)
}

// List handles GET /restaurants/{rid}/calls with an optional status filter.
func (h *CallHandler) List(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := uuid.Parse(chi.URLParam(r, "rid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}

	params := database.ListWaiterCallsParams{RestaurantID: restaurantID}
	if s := r.URL.Query().Get("status"); s != "" {
		if s != enum.CallStatusPending && s != enum.CallStatusAttended {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status filter"})
			return
		}
		params.Status = pgtype.Text{String: s, Valid: true}
	}

	calls, err := h.store.ListWaiterCalls(r.Context(), params)
	if err != nil {
		logger.L().Error("list waiter calls", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]callResponse, len(calls))
	for i, c := range calls {
		resp[i] = toCallResponse(c)
	}
	writeJSON(w, http.StatusOK, map[string][]callResponse{"calls": resp})
}

// Attend handles PATCH /restaurants/{rid}/calls/{id}/attend. A call can only
// be attended once; the second waiter to tap gets a conflict.
func (h *CallHandler) Attend(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := uuid.Parse(chi.URLParam(r, "rid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}
	callID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid call ID"})
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	call, err := h.store.AttendWaiterCall(r.Context(), database.AttendWaiterCallParams{
		ID:           callID,
		RestaurantID: restaurantID,
		AttendedBy:   claims.StaffID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "call already attended or not found"})
			return
		}
		logger.L().Error("attend waiter call", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := toCallResponse(call)
	h.hub.BroadcastToRestaurant(restaurantID, ws.NewEvent(ws.EventCallAttended, resp))
	writeJSON(w, http.StatusOK, resp)
}

// --- Helpers ---

func toCallResponse(c database.WaiterCall) callResponse {
	resp := callResponse{
		ID:          c.ID,
		TableNumber: c.TableNumber,
		Status:      c.Status,
		CreatedAt:   c.CreatedAt,
		AttendedBy:  uuidOrNil(c.AttendedBy),
	}
	if c.AttendedAt.Valid {
		resp.AttendedAt = &c.AttendedAt.Time
	}
	return resp
}
