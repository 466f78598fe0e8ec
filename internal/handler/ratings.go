package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/mesa-pos/api/internal/database"
	"github.com/mesa-pos/api/internal/enum"
	"github.com/mesa-pos/api/internal/logger"
	"go.uber.org/zap"
)

// RatingStore defines the database methods needed by rating handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type RatingStore interface {
	GetOrder(ctx context.Context, arg database.GetOrderParams) (database.Order, error)
	CreateRating(ctx context.Context, arg database.CreateRatingParams) (database.Rating, error)
	ListRatingsByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]database.Rating, error)
}

// RatingHandler handles post-payment rating endpoints.
type RatingHandler struct {
	store RatingStore
}

// NewRatingHandler creates a new RatingHandler.
func NewRatingHandler(store RatingStore) *RatingHandler {
	return &RatingHandler{store: store}
}

// RegisterRoutes registers staff rating endpoints on the given Chi router.
// Expected to be mounted at /restaurants/{rid}/ratings
func (h *RatingHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
}

// RegisterPublicRoutes registers the customer rating submission endpoint.
func (h *RatingHandler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/", h.Create)
}

// --- Request / Response types ---

type createRatingRequest struct {
	OrderID         string `json:"order_id"`
	Stars           int32  `json:"stars"`
	CustomerName    string `json:"customer_name"`
	CustomerContact string `json:"customer_contact"`
	Comment         string `json:"comment"`
}

type ratingResponse struct {
	ID              uuid.UUID `json:"id"`
	OrderID         uuid.UUID `json:"order_id"`
	TableNumber     int32     `json:"table_number"`
	WaiterID        string    `json:"waiter_id"`
	WaiterName      string    `json:"waiter_name"`
	Stars           int32     `json:"stars"`
	CustomerName    *string   `json:"customer_name"`
	CustomerContact *string   `json:"customer_contact"`
	Comment         *string   `json:"comment"`
	CreatedAt       time.Time `json:"created_at"`
}

// --- Handlers ---

// Create handles POST /public/restaurants/{rid}/ratings. Ratings are one per
// paid order and cannot be edited afterwards.
func (h *RatingHandler) Create(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := uuid.Parse(chi.URLParam(r, "rid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}

	var req createRatingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}
	if req.Stars < 1 || req.Stars > 5 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "stars must be between 1 and 5"})
		return
	}

	order, err := h.store.GetOrder(r.Context(), database.GetOrderParams{
		ID:           orderID,
		RestaurantID: restaurantID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		logger.L().Error("get order for rating", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if order.Status != enum.OrderStatusPaid {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "only paid orders can be rated"})
		return
	}

	rating, err := h.store.CreateRating(r.Context(), database.CreateRatingParams{
		RestaurantID:    restaurantID,
		OrderID:         orderID,
		TableNumber:     order.TableNumber,
		WaiterID:        order.WaiterID,
		WaiterName:      order.WaiterName,
		Stars:           req.Stars,
		CustomerName:    textOrEmpty(req.CustomerName),
		CustomerContact: textOrEmpty(req.CustomerContact),
		Comment:         textOrEmpty(req.Comment),
	})
	if err != nil {
		if isUniqueViolation(err, "ratings_order_id_key") {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "order has already been rated"})
			return
		}
		logger.L().Error("create rating", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toRatingResponse(rating))
}

// List handles GET /restaurants/{rid}/ratings.
func (h *RatingHandler) List(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := uuid.Parse(chi.URLParam(r, "rid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}

	ratings, err := h.store.ListRatingsByRestaurant(r.Context(), restaurantID)
	if err != nil {
		logger.L().Error("list ratings", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]ratingResponse, len(ratings))
	for i, rt := range ratings {
		resp[i] = toRatingResponse(rt)
	}
	writeJSON(w, http.StatusOK, map[string][]ratingResponse{"ratings": resp})
}

// --- Helpers ---

func toRatingResponse(rt database.Rating) ratingResponse {
	return ratingResponse{
		ID:              rt.ID,
		OrderID:         rt.OrderID,
		TableNumber:     rt.TableNumber,
		WaiterID:        rt.WaiterID,
		WaiterName:      rt.WaiterName,
		Stars:           rt.Stars,
		CustomerName:    textOrNil(rt.CustomerName),
		CustomerContact: textOrNil(rt.CustomerContact),
		Comment:         textOrNil(rt.Comment),
		CreatedAt:       rt.CreatedAt,
	}
}

func textOrEmpty(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	return pgtype.Text{String: s, Valid: s != ""}
}
