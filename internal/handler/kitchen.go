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

// TicketStore defines the database methods needed by kitchen handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type TicketStore interface {
	ListTickets(ctx context.Context, arg database.ListTicketsParams) ([]database.KitchenTicket, error)
	GetTicket(ctx context.Context, arg database.GetTicketParams) (database.KitchenTicket, error)
	ListTicketItemsByTicket(ctx context.Context, ticketID uuid.UUID) ([]database.KitchenTicketItem, error)
	UpdateTicketStatus(ctx context.Context, arg database.UpdateTicketStatusParams) (database.KitchenTicket, error)
	DeleteTicket(ctx context.Context, arg database.GetTicketParams) error
}

// KitchenHandler handles kitchen ticket endpoints.
type KitchenHandler struct {
	store TicketStore
	hub   Broadcaster
}

// NewKitchenHandler creates a new KitchenHandler.
func NewKitchenHandler(store TicketStore, hub Broadcaster) *KitchenHandler {
	return &KitchenHandler{store: store, hub: orBroadcaster(hub)}
}

// RegisterRoutes registers kitchen endpoints on the given Chi router.
// Expected to be mounted inside a restaurant-scoped subrouter:
// /restaurants/{rid}/kitchen/tickets
func (h *KitchenHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)

	kitchen := r.With(middleware.RequireRole(enum.RoleKitchen, enum.RoleWaiter, enum.RoleAdmin))
	kitchen.Patch("/{id}/status", h.UpdateStatus)
	kitchen.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type ticketResponse struct {
	ID          uuid.UUID            `json:"id"`
	OrderID     uuid.UUID            `json:"order_id"`
	TableNumber int32                `json:"table_number"`
	WaiterName  string               `json:"waiter_name"`
	Status      string               `json:"status"`
	CreatedAt   time.Time            `json:"created_at"`
	DeliveredAt *time.Time           `json:"delivered_at"`
	CancelledAt *time.Time           `json:"cancelled_at"`
	Items       []ticketItemResponse `json:"items"`
}

type ticketItemResponse struct {
	ID          uuid.UUID `json:"id"`
	OrderItemID uuid.UUID `json:"order_item_id"`
	Name        string    `json:"name"`
	Quantity    int32     `json:"quantity"`
	Notes       *string   `json:"notes"`
}

type updateTicketStatusRequest struct {
	Status string `json:"status"`
}

// --- Handlers ---

// List handles GET /restaurants/{rid}/kitchen/tickets. The optional status
// query filters the board (e.g. the prep screen asks for NEW and IN_PREP).
func (h *KitchenHandler) List(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := uuid.Parse(chi.URLParam(r, "rid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}

	params := database.ListTicketsParams{RestaurantID: restaurantID}
	if s := r.URL.Query().Get("status"); s != "" {
		if !enum.IsValidTicketStatus(s) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status filter"})
			return
		}
		params.Status = pgtype.Text{String: s, Valid: true}
	}

	tickets, err := h.store.ListTickets(r.Context(), params)
	if err != nil {
		logger.L().Error("list tickets", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]ticketResponse, 0, len(tickets))
	for _, t := range tickets {
		items, err := h.store.ListTicketItemsByTicket(r.Context(), t.ID)
		if err != nil {
			logger.L().Error("list ticket items", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		resp = append(resp, toTicketResponse(t, items))
	}
	writeJSON(w, http.StatusOK, map[string][]ticketResponse{"tickets": resp})
}

// Get handles GET /restaurants/{rid}/kitchen/tickets/{id}.
func (h *KitchenHandler) Get(w http.ResponseWriter, r *http.Request) {
	restaurantID, ticketID, ok := parseTicketPath(w, r)
	if !ok {
		return
	}

	ticket, err := h.store.GetTicket(r.Context(), database.GetTicketParams{
		ID:           ticketID,
		RestaurantID: restaurantID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "ticket not found"})
			return
		}
		logger.L().Error("get ticket", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	items, err := h.store.ListTicketItemsByTicket(r.Context(), ticket.ID)
	if err != nil {
		logger.L().Error("list ticket items", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toTicketResponse(ticket, items))
}

// UpdateStatus handles PATCH /restaurants/{rid}/kitchen/tickets/{id}/status.
// Tickets only move forward (NEW -> IN_PREP -> READY -> DELIVERED, with
// skips toward DELIVERED allowed); CANCELLED is reachable only through an
// order cancel.
func (h *KitchenHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	restaurantID, ticketID, ok := parseTicketPath(w, r)
	if !ok {
		return
	}

	var req updateTicketStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if !enum.IsValidTicketStatus(req.Status) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}
	if req.Status == enum.TicketStatusCancelled {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "tickets are cancelled by cancelling the order"})
		return
	}

	ticket, err := h.store.GetTicket(r.Context(), database.GetTicketParams{
		ID:           ticketID,
		RestaurantID: restaurantID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "ticket not found"})
			return
		}
		logger.L().Error("get ticket", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if !enum.CanTicketTransition(ticket.Status, req.Status) {
		writeJSON(w, http.StatusConflict, map[string]string{
			"error": "cannot transition ticket from " + ticket.Status + " to " + req.Status,
		})
		return
	}

	updated, err := h.store.UpdateTicketStatus(r.Context(), database.UpdateTicketStatusParams{
		ID:           ticketID,
		RestaurantID: restaurantID,
		Status:       req.Status,
		From:         ticket.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Someone else moved the ticket between our read and the update.
			writeJSON(w, http.StatusConflict, map[string]string{"error": "ticket status changed concurrently"})
			return
		}
		logger.L().Error("update ticket status", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	items, err := h.store.ListTicketItemsByTicket(r.Context(), updated.ID)
	if err != nil {
		logger.L().Error("list ticket items", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := toTicketResponse(updated, items)
	h.hub.BroadcastToRestaurant(restaurantID, ws.NewEvent(ws.EventTicketUpdated, resp))
	writeJSON(w, http.StatusOK, resp)
}

// Delete handles DELETE /restaurants/{rid}/kitchen/tickets/{id}. Only
// delivered or cancelled tickets can be cleared from history.
func (h *KitchenHandler) Delete(w http.ResponseWriter, r *http.Request) {
	restaurantID, ticketID, ok := parseTicketPath(w, r)
	if !ok {
		return
	}

	err := h.store.DeleteTicket(r.Context(), database.GetTicketParams{
		ID:           ticketID,
		RestaurantID: restaurantID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "only finished tickets can be deleted"})
			return
		}
		logger.L().Error("delete ticket", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- Helpers ---

func parseTicketPath(w http.ResponseWriter, r *http.Request) (restaurantID, ticketID uuid.UUID, ok bool) {
	restaurantID, err := uuid.Parse(chi.URLParam(r, "rid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return uuid.Nil, uuid.Nil, false
	}
	ticketID, err = uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid ticket ID"})
		return uuid.Nil, uuid.Nil, false
	}
	return restaurantID, ticketID, true
}

func toTicketResponse(t database.KitchenTicket, items []database.KitchenTicketItem) ticketResponse {
	resp := ticketResponse{
		ID:          t.ID,
		OrderID:     t.OrderID,
		TableNumber: t.TableNumber,
		WaiterName:  t.WaiterName,
		Status:      t.Status,
		CreatedAt:   t.CreatedAt,
		Items:       make([]ticketItemResponse, len(items)),
	}
	if t.DeliveredAt.Valid {
		resp.DeliveredAt = &t.DeliveredAt.Time
	}
	if t.CancelledAt.Valid {
		resp.CancelledAt = &t.CancelledAt.Time
	}
	for i, item := range items {
		resp.Items[i] = ticketItemResponse{
			ID:          item.ID,
			OrderItemID: item.OrderItemID,
			Name:        item.Name,
			Quantity:    item.Quantity,
			Notes:       textOrNil(item.Notes),
		}
	}
	return resp
}
