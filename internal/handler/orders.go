package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/mesa-pos/api/internal/database"
	"github.com/mesa-pos/api/internal/enum"
	"github.com/mesa-pos/api/internal/logger"
	"github.com/mesa-pos/api/internal/middleware"
	"github.com/mesa-pos/api/internal/service"
	"github.com/mesa-pos/api/internal/ws"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	AddItems(ctx context.Context, req service.AddItemsRequest) (*service.AddItemsResult, error)
	RemoveItem(ctx context.Context, restaurantID, orderID, itemID uuid.UUID) (*database.Order, error)
	RequestBill(ctx context.Context, restaurantID, orderID uuid.UUID) (*service.BillPreview, error)
	Checkout(ctx context.Context, req service.CheckoutRequest) (*database.Order, error)
	Cancel(ctx context.Context, req service.CancelRequest) (*database.Order, error)
	RenameCustomer(ctx context.Context, restaurantID, orderID uuid.UUID, name string) (*database.Order, error)
}

// OrderStore defines the database methods needed by order read handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type OrderStore interface {
	GetOrder(ctx context.Context, arg database.GetOrderParams) (database.Order, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	ListTicketsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.KitchenTicket, error)
	GetStaffByID(ctx context.Context, id uuid.UUID) (database.Staff, error)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc   OrderServicer
	store OrderStore
	hub   Broadcaster
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer, store OrderStore, hub Broadcaster) *OrderHandler {
	return &OrderHandler{svc: svc, store: store, hub: orBroadcaster(hub)}
}

// RegisterRoutes registers staff order endpoints on the given Chi router.
// Expected to be mounted inside a restaurant-scoped subrouter:
// /restaurants/{rid}/orders
// Reads are open to any staff role; mutations are for waiters and admins.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)

	floor := r.With(middleware.RequireRole(enum.RoleWaiter, enum.RoleAdmin))
	floor.Post("/", h.AddItems)
	floor.Delete("/{id}/items/{itemID}", h.RemoveItem)
	floor.Post("/{id}/bill", h.RequestBill)
	floor.Post("/{id}/checkout", h.Checkout)
	floor.Post("/{id}/cancel", h.Cancel)
	floor.Patch("/{id}/customer-name", h.RenameCustomer)
}

// RegisterPublicRoutes registers the customer self-service endpoints. These
// carry no JWT; the order is created under the CUSTOMER sentinel.
func (h *OrderHandler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/", h.CustomerAddItems)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/bill", h.RequestBill)
	r.Patch("/{id}/customer-name", h.RenameCustomer)
}

// --- Request / Response types ---

type addItemRequest struct {
	MenuItemID string   `json:"menu_item_id"`
	Quantity   int32    `json:"quantity"`
	Notes      string   `json:"notes"`
	Addons     []string `json:"addons"`
}

type addItemsRequest struct {
	TableID      string           `json:"table_id"`
	CustomerName string           `json:"customer_name"`
	Items        []addItemRequest `json:"items"`
}

type checkoutRequest struct {
	PaymentMethod   string   `json:"payment_method"`
	WaiveServiceFee bool     `json:"waive_service_fee"`
	SplitMode       string   `json:"split_mode"`
	SplitPayers     int      `json:"split_payers"`
	SplitShares     []string `json:"split_shares"`
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

type renameCustomerRequest struct {
	Name string `json:"name"`
}

type orderResponse struct {
	ID            uuid.UUID  `json:"id"`
	RestaurantID  uuid.UUID  `json:"restaurant_id"`
	TableID       uuid.UUID  `json:"table_id"`
	TableNumber   int32      `json:"table_number"`
	WaiterID      string     `json:"waiter_id"`
	WaiterName    string     `json:"waiter_name"`
	Status        string     `json:"status"`
	Subtotal      string     `json:"subtotal"`
	ServiceFee    string     `json:"service_fee"`
	Total         string     `json:"total"`
	PaymentMethod *string    `json:"payment_method"`
	PaidAt        *time.Time `json:"paid_at"`
	CancelReason  *string    `json:"cancel_reason"`
	CancelledAt   *time.Time `json:"cancelled_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type orderItemResponse struct {
	ID         uuid.UUID       `json:"id"`
	MenuItemID uuid.UUID       `json:"menu_item_id"`
	Name       string          `json:"name"`
	UnitPrice  string          `json:"unit_price"`
	Quantity   int32           `json:"quantity"`
	Notes      *string         `json:"notes"`
	Addons     []addonResponse `json:"addons"`
	LineTotal  string          `json:"line_total"`
	AddedAt    time.Time       `json:"added_at"`
}

type addonResponse struct {
	Name  string `json:"name"`
	Price string `json:"price"`
}

// orderDetailResponse extends orderResponse with items and tickets for the
// GET detail endpoint.
type orderDetailResponse struct {
	orderResponse
	Items   []orderItemResponse `json:"items"`
	Tickets []ticketResponse    `json:"tickets"`
}

type billResponse struct {
	Order      orderResponse       `json:"order"`
	Items      []orderItemResponse `json:"items"`
	Subtotal   string              `json:"subtotal"`
	ServiceFee string              `json:"service_fee"`
	Total      string              `json:"total"`
	EqualSplit map[string][]string `json:"equal_split"`
}

type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// --- Handlers ---

// AddItems handles POST /restaurants/{rid}/orders for staff. The batch opens
// an order if the table is free and always produces one kitchen ticket.
func (h *OrderHandler) AddItems(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := uuid.Parse(chi.URLParam(r, "rid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	staff, err := h.store.GetStaffByID(r.Context(), claims.StaffID)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "staff not found"})
		return
	}

	h.addItems(w, r, restaurantID, claims.StaffID.String(), staff.Name)
}

// CustomerAddItems handles POST /public/restaurants/{rid}/orders. Orders are
// attributed to the CUSTOMER sentinel instead of a staff id.
func (h *OrderHandler) CustomerAddItems(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := uuid.Parse(chi.URLParam(r, "rid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}

	h.addItems(w, r, restaurantID, enum.WaiterCustomer, "")
}

func (h *OrderHandler) addItems(w http.ResponseWriter, r *http.Request, restaurantID uuid.UUID, waiterID, waiterName string) {
	var req addItemsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	tableID, err := uuid.Parse(req.TableID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table_id"})
		return
	}
	if len(req.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "items are required"})
		return
	}

	if waiterID == enum.WaiterCustomer {
		waiterName = req.CustomerName
		if waiterName == "" {
			waiterName = "Customer"
		}
	}

	items := make([]service.AddItemRequest, len(req.Items))
	for i, item := range req.Items {
		items[i] = service.AddItemRequest{
			MenuItemID: item.MenuItemID,
			Quantity:   item.Quantity,
			Notes:      item.Notes,
			Addons:     item.Addons,
		}
	}

	result, err := h.svc.AddItems(r.Context(), service.AddItemsRequest{
		RestaurantID: restaurantID,
		TableID:      tableID,
		WaiterID:     waiterID,
		WaiterName:   waiterName,
		Items:        items,
	})
	if err != nil {
		h.writeServiceError(w, "add items", err)
		return
	}

	h.hub.BroadcastToRestaurant(restaurantID, ws.NewEvent(ws.EventTicketCreated, toTicketResponse(result.Ticket, nil)))
	h.hub.BroadcastToRestaurant(restaurantID, ws.NewEvent(ws.EventOrderUpdated, toOrderResponse(result.Order)))
	h.hub.BroadcastToRestaurant(restaurantID, ws.NewEvent(ws.EventTableUpdated, map[string]any{
		"table_id": result.Order.TableID,
		"status":   enum.TableStatusInUse,
	}))

	writeJSON(w, http.StatusCreated, orderDetailResponse{
		orderResponse: toOrderResponse(result.Order),
		Items:         toOrderItemResponses(result.Items),
		Tickets:       []ticketResponse{toTicketResponse(result.Ticket, nil)},
	})
}

// List handles GET /restaurants/{rid}/orders with optional status and date
// filters.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := uuid.Parse(chi.URLParam(r, "rid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return
	}

	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > 100 {
		limit = 100
	}

	offset := 0
	if s := r.URL.Query().Get("offset"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = v
		}
	}

	params := database.ListOrdersParams{
		RestaurantID: restaurantID,
		Limit:        int32(limit),
		Offset:       int32(offset),
	}

	if s := r.URL.Query().Get("status"); s != "" {
		params.Status = pgtype.Text{String: s, Valid: true}
	}
	if s := r.URL.Query().Get("start_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid start_date format, use YYYY-MM-DD"})
			return
		}
		params.StartDate = pgtype.Timestamptz{Time: t, Valid: true}
	}
	if s := r.URL.Query().Get("end_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid end_date format, use YYYY-MM-DD"})
			return
		}
		// End date is inclusive: filter on < end_date + 1 day.
		params.EndDate = pgtype.Timestamptz{Time: t.AddDate(0, 0, 1), Valid: true}
	}

	orders, err := h.store.ListOrders(r.Context(), params)
	if err != nil {
		logger.L().Error("list orders", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := orderListResponse{
		Orders: make([]orderResponse, len(orders)),
		Limit:  limit,
		Offset: offset,
	}
	for i, o := range orders {
		resp.Orders[i] = toOrderResponse(o)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /restaurants/{rid}/orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	restaurantID, orderID, ok := parseOrderPath(w, r)
	if !ok {
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
		logger.L().Error("get order", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	items, err := h.store.ListOrderItemsByOrder(r.Context(), order.ID)
	if err != nil {
		logger.L().Error("list order items", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	tickets, err := h.store.ListTicketsByOrder(r.Context(), order.ID)
	if err != nil {
		logger.L().Error("list order tickets", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	ticketResponses := make([]ticketResponse, len(tickets))
	for i, t := range tickets {
		ticketResponses[i] = toTicketResponse(t, nil)
	}

	writeJSON(w, http.StatusOK, orderDetailResponse{
		orderResponse: toOrderResponse(order),
		Items:         toOrderItemResponses(items),
		Tickets:       ticketResponses,
	})
}

// RemoveItem handles DELETE /restaurants/{rid}/orders/{id}/items/{itemID}.
func (h *OrderHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	restaurantID, orderID, ok := parseOrderPath(w, r)
	if !ok {
		return
	}

	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	order, err := h.svc.RemoveItem(r.Context(), restaurantID, orderID, itemID)
	if err != nil {
		h.writeServiceError(w, "remove item", err)
		return
	}

	h.hub.BroadcastToRestaurant(restaurantID, ws.NewEvent(ws.EventOrderUpdated, toOrderResponse(*order)))
	writeJSON(w, http.StatusOK, toOrderResponse(*order))
}

// RequestBill handles POST /restaurants/{rid}/orders/{id}/bill. It returns
// the totals with an equal-split preview for 2 to 10 payers.
func (h *OrderHandler) RequestBill(w http.ResponseWriter, r *http.Request) {
	restaurantID, orderID, ok := parseOrderPath(w, r)
	if !ok {
		return
	}

	preview, err := h.svc.RequestBill(r.Context(), restaurantID, orderID)
	if err != nil {
		h.writeServiceError(w, "request bill", err)
		return
	}

	h.hub.BroadcastToRestaurant(restaurantID, ws.NewEvent(ws.EventTableUpdated, map[string]any{
		"table_id": preview.Order.TableID,
		"status":   enum.TableStatusAwaitingPayment,
	}))

	equalSplit := make(map[string][]string)
	for payers := 2; payers <= 10; payers++ {
		shares, err := service.EqualSplit(preview.Totals.Total, payers)
		if err != nil {
			continue
		}
		strs := make([]string, len(shares))
		for i, s := range shares {
			strs[i] = s.StringFixed(2)
		}
		equalSplit[strconv.Itoa(payers)] = strs
	}

	writeJSON(w, http.StatusOK, billResponse{
		Order:      toOrderResponse(preview.Order),
		Items:      toOrderItemResponses(preview.Items),
		Subtotal:   preview.Totals.Subtotal.StringFixed(2),
		ServiceFee: preview.Totals.ServiceFee.StringFixed(2),
		Total:      preview.Totals.Total.StringFixed(2),
		EqualSplit: equalSplit,
	})
}

// Checkout handles POST /restaurants/{rid}/orders/{id}/checkout.
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	restaurantID, orderID, ok := parseOrderPath(w, r)
	if !ok {
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	order, err := h.svc.Checkout(r.Context(), service.CheckoutRequest{
		RestaurantID:    restaurantID,
		OrderID:         orderID,
		PaymentMethod:   req.PaymentMethod,
		WaiveServiceFee: req.WaiveServiceFee,
		PaidBy:          claims.StaffID,
		Split: service.SplitRequest{
			Mode:   req.SplitMode,
			Payers: req.SplitPayers,
			Shares: req.SplitShares,
		},
	})
	if err != nil {
		h.writeServiceError(w, "checkout", err)
		return
	}

	h.hub.BroadcastToRestaurant(restaurantID, ws.NewEvent(ws.EventOrderUpdated, toOrderResponse(*order)))
	h.hub.BroadcastToRestaurant(restaurantID, ws.NewEvent(ws.EventTableUpdated, map[string]any{
		"table_id": order.TableID,
		"status":   enum.TableStatusFree,
	}))

	writeJSON(w, http.StatusOK, toOrderResponse(*order))
}

// Cancel handles POST /restaurants/{rid}/orders/{id}/cancel.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	restaurantID, orderID, ok := parseOrderPath(w, r)
	if !ok {
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req cancelOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	order, err := h.svc.Cancel(r.Context(), service.CancelRequest{
		RestaurantID: restaurantID,
		OrderID:      orderID,
		Reason:       req.Reason,
		CancelledBy:  claims.StaffID,
	})
	if err != nil {
		h.writeServiceError(w, "cancel order", err)
		return
	}

	h.hub.BroadcastToRestaurant(restaurantID, ws.NewEvent(ws.EventOrderUpdated, toOrderResponse(*order)))
	h.hub.BroadcastToRestaurant(restaurantID, ws.NewEvent(ws.EventTableUpdated, map[string]any{
		"table_id": order.TableID,
		"status":   enum.TableStatusFree,
	}))

	writeJSON(w, http.StatusOK, toOrderResponse(*order))
}

// RenameCustomer handles PATCH /restaurants/{rid}/orders/{id}/customer-name.
func (h *OrderHandler) RenameCustomer(w http.ResponseWriter, r *http.Request) {
	restaurantID, orderID, ok := parseOrderPath(w, r)
	if !ok {
		return
	}

	var req renameCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	order, err := h.svc.RenameCustomer(r.Context(), restaurantID, orderID, req.Name)
	if err != nil {
		h.writeServiceError(w, "rename customer", err)
		return
	}

	h.hub.BroadcastToRestaurant(restaurantID, ws.NewEvent(ws.EventOrderUpdated, toOrderResponse(*order)))
	writeJSON(w, http.StatusOK, toOrderResponse(*order))
}

// --- Helpers ---

func parseOrderPath(w http.ResponseWriter, r *http.Request) (restaurantID, orderID uuid.UUID, ok bool) {
	restaurantID, err := uuid.Parse(chi.URLParam(r, "rid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return uuid.Nil, uuid.Nil, false
	}
	orderID, err = uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return uuid.Nil, uuid.Nil, false
	}
	return restaurantID, orderID, true
}

// writeServiceError maps order service errors to HTTP status codes.
func (h *OrderHandler) writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrTableNotFound),
		errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrItemNotFound),
		errors.Is(err, service.ErrMenuItemNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrTableOccupied),
		errors.Is(err, service.ErrOrderNotOpen):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrEmptyItems),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidMenuItemID),
		errors.Is(err, service.ErrAddonNotFound),
		errors.Is(err, service.ErrTooManyAddons),
		errors.Is(err, service.ErrReasonRequired),
		errors.Is(err, service.ErrEmptyOrder),
		errors.Is(err, service.ErrInvalidPaymentMethod),
		errors.Is(err, service.ErrNameRequired),
		errors.Is(err, service.ErrInvalidSplitMode),
		errors.Is(err, service.ErrInvalidSplitCount),
		errors.Is(err, service.ErrNegativeShare),
		errors.Is(err, service.ErrInvalidShare),
		errors.Is(err, service.ErrSplitMismatch):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		logger.L().Error(op, zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func toOrderResponse(o database.Order) orderResponse {
	resp := orderResponse{
		ID:            o.ID,
		RestaurantID:  o.RestaurantID,
		TableID:       o.TableID,
		TableNumber:   o.TableNumber,
		WaiterID:      o.WaiterID,
		WaiterName:    o.WaiterName,
		Status:        o.Status,
		Subtotal:      numericToString(o.Subtotal),
		ServiceFee:    numericToString(o.ServiceFee),
		Total:         numericToString(o.Total),
		PaymentMethod: textOrNil(o.PaymentMethod),
		CancelReason:  textOrNil(o.CancelReason),
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	if o.PaidAt.Valid {
		resp.PaidAt = &o.PaidAt.Time
	}
	if o.CancelledAt.Valid {
		resp.CancelledAt = &o.CancelledAt.Time
	}
	return resp
}

func toOrderItemResponses(items []database.OrderItem) []orderItemResponse {
	resp := make([]orderItemResponse, len(items))
	for i, item := range items {
		resp[i] = toOrderItemResponse(item)
	}
	return resp
}

func toOrderItemResponse(item database.OrderItem) orderItemResponse {
	addons := make([]addonResponse, len(item.Addons))
	lineTotal := numericToDecimal(item.UnitPrice)
	for i, a := range item.Addons {
		addons[i] = addonResponse{Name: a.Name, Price: a.Price.StringFixed(2)}
		lineTotal = lineTotal.Add(a.Price)
	}
	lineTotal = lineTotal.Mul(decimal.NewFromInt32(item.Quantity))

	return orderItemResponse{
		ID:         item.ID,
		MenuItemID: item.MenuItemID,
		Name:       item.Name,
		UnitPrice:  numericToString(item.UnitPrice),
		Quantity:   item.Quantity,
		Notes:      textOrNil(item.Notes),
		Addons:     addons,
		LineTotal:  lineTotal.StringFixed(2),
		AddedAt:    item.AddedAt,
	}
}
