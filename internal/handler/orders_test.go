package handler_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/mesa-pos/api/internal/database"
	"github.com/mesa-pos/api/internal/enum"
	"github.com/mesa-pos/api/internal/handler"
	"github.com/mesa-pos/api/internal/middleware"
	"github.com/mesa-pos/api/internal/service"
	"github.com/shopspring/decimal"
)

// mockOrderService implements handler.OrderServicer with function fields so
// each test wires only the calls it expects.
type mockOrderService struct {
	addItemsFn       func(ctx context.Context, req service.AddItemsRequest) (*service.AddItemsResult, error)
	removeItemFn     func(ctx context.Context, restaurantID, orderID, itemID uuid.UUID) (*database.Order, error)
	requestBillFn    func(ctx context.Context, restaurantID, orderID uuid.UUID) (*service.BillPreview, error)
	checkoutFn       func(ctx context.Context, req service.CheckoutRequest) (*database.Order, error)
	cancelFn         func(ctx context.Context, req service.CancelRequest) (*database.Order, error)
	renameCustomerFn func(ctx context.Context, restaurantID, orderID uuid.UUID, name string) (*database.Order, error)
}

func (m *mockOrderService) AddItems(ctx context.Context, req service.AddItemsRequest) (*service.AddItemsResult, error) {
	if m.addItemsFn == nil {
		return nil, errors.New("unexpected AddItems call")
	}
	return m.addItemsFn(ctx, req)
}

func (m *mockOrderService) RemoveItem(ctx context.Context, restaurantID, orderID, itemID uuid.UUID) (*database.Order, error) {
	if m.removeItemFn == nil {
		return nil, errors.New("unexpected RemoveItem call")
	}
	return m.removeItemFn(ctx, restaurantID, orderID, itemID)
}

func (m *mockOrderService) RequestBill(ctx context.Context, restaurantID, orderID uuid.UUID) (*service.BillPreview, error) {
	if m.requestBillFn == nil {
		return nil, errors.New("unexpected RequestBill call")
	}
	return m.requestBillFn(ctx, restaurantID, orderID)
}

func (m *mockOrderService) Checkout(ctx context.Context, req service.CheckoutRequest) (*database.Order, error) {
	if m.checkoutFn == nil {
		return nil, errors.New("unexpected Checkout call")
	}
	return m.checkoutFn(ctx, req)
}

func (m *mockOrderService) Cancel(ctx context.Context, req service.CancelRequest) (*database.Order, error) {
	if m.cancelFn == nil {
		return nil, errors.New("unexpected Cancel call")
	}
	return m.cancelFn(ctx, req)
}

func (m *mockOrderService) RenameCustomer(ctx context.Context, restaurantID, orderID uuid.UUID, name string) (*database.Order, error) {
	if m.renameCustomerFn == nil {
		return nil, errors.New("unexpected RenameCustomer call")
	}
	return m.renameCustomerFn(ctx, restaurantID, orderID, name)
}

// mockOrderReadStore backs the read-only endpoints.
type mockOrderReadStore struct {
	orders     map[uuid.UUID]database.Order
	orderItems map[uuid.UUID][]database.OrderItem
	tickets    map[uuid.UUID][]database.KitchenTicket
	staff      map[uuid.UUID]database.Staff

	lastListParams database.ListOrdersParams
}

func newMockOrderReadStore() *mockOrderReadStore {
	return &mockOrderReadStore{
		orders:     make(map[uuid.UUID]database.Order),
		orderItems: make(map[uuid.UUID][]database.OrderItem),
		tickets:    make(map[uuid.UUID][]database.KitchenTicket),
		staff:      make(map[uuid.UUID]database.Staff),
	}
}

func (m *mockOrderReadStore) GetOrder(_ context.Context, arg database.GetOrderParams) (database.Order, error) {
	o, ok := m.orders[arg.ID]
	if !ok || o.RestaurantID != arg.RestaurantID {
		return database.Order{}, pgx.ErrNoRows
	}
	return o, nil
}

func (m *mockOrderReadStore) ListOrders(_ context.Context, arg database.ListOrdersParams) ([]database.Order, error) {
	m.lastListParams = arg
	var result []database.Order
	for _, o := range m.orders {
		if o.RestaurantID != arg.RestaurantID {
			continue
		}
		if arg.Status.Valid && o.Status != arg.Status.String {
			continue
		}
		result = append(result, o)
	}
	return result, nil
}

func (m *mockOrderReadStore) ListOrderItemsByOrder(_ context.Context, orderID uuid.UUID) ([]database.OrderItem, error) {
	return m.orderItems[orderID], nil
}

func (m *mockOrderReadStore) ListTicketsByOrder(_ context.Context, orderID uuid.UUID) ([]database.KitchenTicket, error) {
	return m.tickets[orderID], nil
}

func (m *mockOrderReadStore) GetStaffByID(_ context.Context, id uuid.UUID) (database.Staff, error) {
	s, ok := m.staff[id]
	if !ok {
		return database.Staff{}, pgx.ErrNoRows
	}
	return s, nil
}

func setupOrderRouter(svc *mockOrderService, store *mockOrderReadStore) *chi.Mux {
	h := handler.NewOrderHandler(svc, store, nil)
	r := chi.NewRouter()
	r.Route("/public/restaurants/{rid}/orders", h.RegisterPublicRoutes)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(testJWTSecret))
		r.Route("/restaurants/{rid}/orders", h.RegisterRoutes)
	})
	return r
}

func mustNumeric(s string) pgtype.Numeric {
	var n pgtype.Numeric
	if err := n.Scan(s); err != nil {
		panic(err)
	}
	return n
}

func openOrder(restaurantID uuid.UUID) database.Order {
	return database.Order{
		ID:           uuid.New(),
		RestaurantID: restaurantID,
		TableID:      uuid.New(),
		TableNumber:  4,
		WaiterID:     uuid.New().String(),
		WaiterName:   "Ana",
		Status:       enum.OrderStatusOpen,
		Subtotal:     mustNumeric("50.00"),
		ServiceFee:   mustNumeric("5.00"),
		Total:        mustNumeric("55.00"),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}

// --- Add items ---

func TestOrderAddItems_Staff(t *testing.T) {
	restaurantID := uuid.New()
	store := newMockOrderReadStore()
	claims := waiterClaims(restaurantID)
	store.staff[claims.StaffID] = database.Staff{ID: claims.StaffID, Name: "Ana", Role: enum.RoleWaiter, IsActive: true}

	order := openOrder(restaurantID)
	var gotReq service.AddItemsRequest
	svc := &mockOrderService{
		addItemsFn: func(_ context.Context, req service.AddItemsRequest) (*service.AddItemsResult, error) {
			gotReq = req
			return &service.AddItemsResult{
				Order: order,
				Items: []database.OrderItem{
					{ID: uuid.New(), OrderID: order.ID, MenuItemID: uuid.New(), Name: "Classic Burger", UnitPrice: mustNumeric("25.00"), Quantity: 2},
				},
				Ticket: database.KitchenTicket{ID: uuid.New(), OrderID: order.ID, TableNumber: 4, WaiterName: "Ana", Status: enum.TicketStatusNew},
			}, nil
		},
	}

	router := setupOrderRouter(svc, store)
	rr := doAuthRequest(t, router, "POST", "/restaurants/"+restaurantID.String()+"/orders",
		map[string]interface{}{
			"table_id": order.TableID.String(),
			"items": []map[string]interface{}{
				{"menu_item_id": uuid.New().String(), "quantity": 2, "addons": []string{"Bacon"}},
			},
		}, claims)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	if gotReq.WaiterID != claims.StaffID.String() {
		t.Errorf("waiter id: got %s, want %s", gotReq.WaiterID, claims.StaffID)
	}
	if gotReq.WaiterName != "Ana" {
		t.Errorf("waiter name: got %s, want Ana", gotReq.WaiterName)
	}

	resp := decodeResponse(t, rr)
	if resp["status"] != enum.OrderStatusOpen {
		t.Errorf("status: got %v, want OPEN", resp["status"])
	}
	tickets := resp["tickets"].([]interface{})
	if len(tickets) != 1 {
		t.Fatalf("expected 1 ticket, got %d", len(tickets))
	}
	if tickets[0].(map[string]interface{})["status"] != enum.TicketStatusNew {
		t.Errorf("ticket status: got %v, want NEW", tickets[0].(map[string]interface{})["status"])
	}
}

func TestOrderAddItems_Customer(t *testing.T) {
	restaurantID := uuid.New()
	store := newMockOrderReadStore()
	order := openOrder(restaurantID)
	order.WaiterID = enum.WaiterCustomer
	order.WaiterName = "Carlos"

	var gotReq service.AddItemsRequest
	svc := &mockOrderService{
		addItemsFn: func(_ context.Context, req service.AddItemsRequest) (*service.AddItemsResult, error) {
			gotReq = req
			return &service.AddItemsResult{Order: order, Ticket: database.KitchenTicket{ID: uuid.New(), Status: enum.TicketStatusNew}}, nil
		},
	}

	router := setupOrderRouter(svc, store)
	rr := doRequest(t, router, "POST", "/public/restaurants/"+restaurantID.String()+"/orders",
		map[string]interface{}{
			"table_id":      order.TableID.String(),
			"customer_name": "Carlos",
			"items": []map[string]interface{}{
				{"menu_item_id": uuid.New().String(), "quantity": 1},
			},
		})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	if gotReq.WaiterID != enum.WaiterCustomer {
		t.Errorf("waiter id: got %s, want CUSTOMER sentinel", gotReq.WaiterID)
	}
	if gotReq.WaiterName != "Carlos" {
		t.Errorf("waiter name: got %s, want Carlos", gotReq.WaiterName)
	}
}

func TestOrderAddItems_EmptyItems(t *testing.T) {
	restaurantID := uuid.New()
	store := newMockOrderReadStore()
	claims := waiterClaims(restaurantID)
	store.staff[claims.StaffID] = database.Staff{ID: claims.StaffID, Name: "Ana"}

	router := setupOrderRouter(&mockOrderService{}, store)
	rr := doAuthRequest(t, router, "POST", "/restaurants/"+restaurantID.String()+"/orders",
		map[string]interface{}{"table_id": uuid.New().String(), "items": []map[string]interface{}{}}, claims)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestOrderAddItems_TableOccupied(t *testing.T) {
	restaurantID := uuid.New()
	store := newMockOrderReadStore()
	claims := waiterClaims(restaurantID)
	store.staff[claims.StaffID] = database.Staff{ID: claims.StaffID, Name: "Ana"}

	svc := &mockOrderService{
		addItemsFn: func(_ context.Context, _ service.AddItemsRequest) (*service.AddItemsResult, error) {
			return nil, service.ErrTableOccupied
		},
	}

	router := setupOrderRouter(svc, store)
	rr := doAuthRequest(t, router, "POST", "/restaurants/"+restaurantID.String()+"/orders",
		map[string]interface{}{
			"table_id": uuid.New().String(),
			"items":    []map[string]interface{}{{"menu_item_id": uuid.New().String(), "quantity": 1}},
		}, claims)

	if rr.Code != http.StatusConflict {
		t.Errorf("status: got %d, want %d; body: %s", rr.Code, http.StatusConflict, rr.Body.String())
	}
}

func TestOrderAddItems_KitchenForbidden(t *testing.T) {
	restaurantID := uuid.New()
	router := setupOrderRouter(&mockOrderService{}, newMockOrderReadStore())

	rr := doAuthRequest(t, router, "POST", "/restaurants/"+restaurantID.String()+"/orders",
		map[string]interface{}{"table_id": uuid.New().String()}, kitchenClaims(restaurantID))

	if rr.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusForbidden)
	}
}

// --- List / Get ---

func TestOrderList_Defaults(t *testing.T) {
	restaurantID := uuid.New()
	store := newMockOrderReadStore()
	order := openOrder(restaurantID)
	store.orders[order.ID] = order

	router := setupOrderRouter(&mockOrderService{}, store)
	rr := doAuthRequest(t, router, "GET", "/restaurants/"+restaurantID.String()+"/orders", nil, waiterClaims(restaurantID))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if store.lastListParams.Limit != 20 || store.lastListParams.Offset != 0 {
		t.Errorf("default paging: got limit=%d offset=%d", store.lastListParams.Limit, store.lastListParams.Offset)
	}

	resp := decodeResponse(t, rr)
	if resp["limit"] != float64(20) {
		t.Errorf("limit: got %v, want 20", resp["limit"])
	}
	orders := resp["orders"].([]interface{})
	if len(orders) != 1 {
		t.Errorf("expected 1 order, got %d", len(orders))
	}
}

func TestOrderList_LimitCapped(t *testing.T) {
	restaurantID := uuid.New()
	store := newMockOrderReadStore()

	router := setupOrderRouter(&mockOrderService{}, store)
	rr := doAuthRequest(t, router, "GET",
		"/restaurants/"+restaurantID.String()+"/orders?limit=500&offset=40", nil, waiterClaims(restaurantID))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if store.lastListParams.Limit != 100 {
		t.Errorf("limit: got %d, want capped at 100", store.lastListParams.Limit)
	}
	if store.lastListParams.Offset != 40 {
		t.Errorf("offset: got %d, want 40", store.lastListParams.Offset)
	}
}

func TestOrderList_DateFilters(t *testing.T) {
	restaurantID := uuid.New()
	store := newMockOrderReadStore()

	router := setupOrderRouter(&mockOrderService{}, store)
	rr := doAuthRequest(t, router, "GET",
		"/restaurants/"+restaurantID.String()+"/orders?start_date=2026-08-01&end_date=2026-08-30", nil,
		waiterClaims(restaurantID))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if !store.lastListParams.StartDate.Valid {
		t.Error("start_date filter not applied")
	}
	// End date is inclusive, so the query bound is the next day.
	want := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	if !store.lastListParams.EndDate.Time.Equal(want) {
		t.Errorf("end_date bound: got %v, want %v", store.lastListParams.EndDate.Time, want)
	}

	rr = doAuthRequest(t, router, "GET",
		"/restaurants/"+restaurantID.String()+"/orders?start_date=08/01/2026", nil, waiterClaims(restaurantID))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("bad date: status got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestOrderGet_Detail(t *testing.T) {
	restaurantID := uuid.New()
	store := newMockOrderReadStore()
	order := openOrder(restaurantID)
	store.orders[order.ID] = order
	store.orderItems[order.ID] = []database.OrderItem{
		{ID: uuid.New(), OrderID: order.ID, MenuItemID: uuid.New(), Name: "Classic Burger",
			UnitPrice: mustNumeric("25.00"), Quantity: 2,
			Addons: []database.Addon{{Name: "Bacon", Price: decimal.RequireFromString("2.50")}}},
	}
	store.tickets[order.ID] = []database.KitchenTicket{
		{ID: uuid.New(), OrderID: order.ID, Status: enum.TicketStatusInPrep},
	}

	router := setupOrderRouter(&mockOrderService{}, store)
	rr := doAuthRequest(t, router, "GET",
		"/restaurants/"+restaurantID.String()+"/orders/"+order.ID.String(), nil, waiterClaims(restaurantID))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}

	resp := decodeResponse(t, rr)
	if resp["subtotal"] != "50.00" || resp["total"] != "55.00" {
		t.Errorf("totals: subtotal=%v total=%v", resp["subtotal"], resp["total"])
	}
	items := resp["items"].([]interface{})
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	item := items[0].(map[string]interface{})
	// (25.00 + 2.50) * 2
	if item["line_total"] != "55.00" {
		t.Errorf("line_total: got %v, want 55.00", item["line_total"])
	}
	tickets := resp["tickets"].([]interface{})
	if len(tickets) != 1 {
		t.Errorf("expected 1 ticket, got %d", len(tickets))
	}
}

func TestOrderGet_NotFound(t *testing.T) {
	restaurantID := uuid.New()
	router := setupOrderRouter(&mockOrderService{}, newMockOrderReadStore())

	rr := doAuthRequest(t, router, "GET",
		"/restaurants/"+restaurantID.String()+"/orders/"+uuid.New().String(), nil, waiterClaims(restaurantID))

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

// --- Bill / checkout / cancel ---

func TestOrderRequestBill(t *testing.T) {
	restaurantID := uuid.New()
	order := openOrder(restaurantID)

	svc := &mockOrderService{
		requestBillFn: func(_ context.Context, _, _ uuid.UUID) (*service.BillPreview, error) {
			return &service.BillPreview{
				Order: order,
				Totals: service.Totals{
					Subtotal:   decimal.RequireFromString("50.00"),
					ServiceFee: decimal.RequireFromString("5.00"),
					Total:      decimal.RequireFromString("55.00"),
				},
			}, nil
		},
	}

	router := setupOrderRouter(svc, newMockOrderReadStore())
	rr := doAuthRequest(t, router, "POST",
		"/restaurants/"+restaurantID.String()+"/orders/"+order.ID.String()+"/bill", nil, waiterClaims(restaurantID))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["service_fee"] != "5.00" || resp["total"] != "55.00" {
		t.Errorf("totals: service_fee=%v total=%v", resp["service_fee"], resp["total"])
	}

	split := resp["equal_split"].(map[string]interface{})
	two := split["2"].([]interface{})
	if len(two) != 2 || two[0] != "27.50" || two[1] != "27.50" {
		t.Errorf("equal split for 2: got %v", two)
	}
	// 55.00 / 3 leaves a remainder cent on the first share.
	three := split["3"].([]interface{})
	if len(three) != 3 || three[0] != "18.34" || three[1] != "18.33" || three[2] != "18.33" {
		t.Errorf("equal split for 3: got %v", three)
	}
	if _, ok := split["11"]; ok {
		t.Error("split preview must stop at 10 payers")
	}
}

func TestOrderCheckout(t *testing.T) {
	restaurantID := uuid.New()
	order := openOrder(restaurantID)
	paid := order
	paid.Status = enum.OrderStatusPaid
	paid.PaymentMethod = pgtype.Text{String: enum.PaymentMethodCash, Valid: true}
	paid.PaidAt = pgtype.Timestamptz{Time: time.Now(), Valid: true}

	var gotReq service.CheckoutRequest
	svc := &mockOrderService{
		checkoutFn: func(_ context.Context, req service.CheckoutRequest) (*database.Order, error) {
			gotReq = req
			return &paid, nil
		},
	}

	router := setupOrderRouter(svc, newMockOrderReadStore())
	claims := waiterClaims(restaurantID)
	rr := doAuthRequest(t, router, "POST",
		"/restaurants/"+restaurantID.String()+"/orders/"+order.ID.String()+"/checkout",
		map[string]interface{}{"payment_method": enum.PaymentMethodCash, "split_mode": "FULL"}, claims)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if gotReq.PaidBy != claims.StaffID {
		t.Errorf("paid_by: got %s, want %s", gotReq.PaidBy, claims.StaffID)
	}

	resp := decodeResponse(t, rr)
	if resp["status"] != enum.OrderStatusPaid {
		t.Errorf("status: got %v, want PAID", resp["status"])
	}
	if resp["paid_at"] == nil {
		t.Error("paid_at: expected timestamp, got null")
	}
}

func TestOrderCheckout_InvalidSplit(t *testing.T) {
	restaurantID := uuid.New()

	svc := &mockOrderService{
		checkoutFn: func(_ context.Context, _ service.CheckoutRequest) (*database.Order, error) {
			return nil, service.ErrInvalidSplitCount
		},
	}

	router := setupOrderRouter(svc, newMockOrderReadStore())
	rr := doAuthRequest(t, router, "POST",
		"/restaurants/"+restaurantID.String()+"/orders/"+uuid.New().String()+"/checkout",
		map[string]interface{}{"payment_method": enum.PaymentMethodCash, "split_mode": "EQUAL", "split_payers": 11},
		waiterClaims(restaurantID))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestOrderCheckout_NotOpen(t *testing.T) {
	restaurantID := uuid.New()

	svc := &mockOrderService{
		checkoutFn: func(_ context.Context, _ service.CheckoutRequest) (*database.Order, error) {
			return nil, service.ErrOrderNotOpen
		},
	}

	router := setupOrderRouter(svc, newMockOrderReadStore())
	rr := doAuthRequest(t, router, "POST",
		"/restaurants/"+restaurantID.String()+"/orders/"+uuid.New().String()+"/checkout",
		map[string]interface{}{"payment_method": enum.PaymentMethodCash}, waiterClaims(restaurantID))

	if rr.Code != http.StatusConflict {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
}

func TestOrderCancel_ReasonRequired(t *testing.T) {
	restaurantID := uuid.New()

	svc := &mockOrderService{
		cancelFn: func(_ context.Context, _ service.CancelRequest) (*database.Order, error) {
			return nil, service.ErrReasonRequired
		},
	}

	router := setupOrderRouter(svc, newMockOrderReadStore())
	rr := doAuthRequest(t, router, "POST",
		"/restaurants/"+restaurantID.String()+"/orders/"+uuid.New().String()+"/cancel",
		map[string]interface{}{"reason": ""}, waiterClaims(restaurantID))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestOrderCancel(t *testing.T) {
	restaurantID := uuid.New()
	order := openOrder(restaurantID)
	cancelled := order
	cancelled.Status = enum.OrderStatusCancelled
	cancelled.CancelReason = pgtype.Text{String: "customer left", Valid: true}
	cancelled.CancelledAt = pgtype.Timestamptz{Time: time.Now(), Valid: true}

	svc := &mockOrderService{
		cancelFn: func(_ context.Context, req service.CancelRequest) (*database.Order, error) {
			if req.Reason != "customer left" {
				t.Errorf("reason: got %q", req.Reason)
			}
			return &cancelled, nil
		},
	}

	router := setupOrderRouter(svc, newMockOrderReadStore())
	rr := doAuthRequest(t, router, "POST",
		"/restaurants/"+restaurantID.String()+"/orders/"+order.ID.String()+"/cancel",
		map[string]interface{}{"reason": "customer left"}, waiterClaims(restaurantID))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["status"] != enum.OrderStatusCancelled {
		t.Errorf("status: got %v, want CANCELLED", resp["status"])
	}
	if resp["cancel_reason"] != "customer left" {
		t.Errorf("cancel_reason: got %v", resp["cancel_reason"])
	}
}

func TestOrderRemoveItem_NotFound(t *testing.T) {
	restaurantID := uuid.New()

	svc := &mockOrderService{
		removeItemFn: func(_ context.Context, _, _, _ uuid.UUID) (*database.Order, error) {
			return nil, service.ErrItemNotFound
		},
	}

	router := setupOrderRouter(svc, newMockOrderReadStore())
	rr := doAuthRequest(t, router, "DELETE",
		"/restaurants/"+restaurantID.String()+"/orders/"+uuid.New().String()+"/items/"+uuid.New().String(),
		nil, waiterClaims(restaurantID))

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestOrderRenameCustomer(t *testing.T) {
	restaurantID := uuid.New()
	order := openOrder(restaurantID)
	order.WaiterID = enum.WaiterCustomer
	renamed := order
	renamed.WaiterName = "Beatriz"

	svc := &mockOrderService{
		renameCustomerFn: func(_ context.Context, _, _ uuid.UUID, name string) (*database.Order, error) {
			if name != "Beatriz" {
				t.Errorf("name: got %q", name)
			}
			return &renamed, nil
		},
	}

	router := setupOrderRouter(svc, newMockOrderReadStore())
	rr := doRequest(t, router, "PATCH",
		"/public/restaurants/"+restaurantID.String()+"/orders/"+order.ID.String()+"/customer-name",
		map[string]interface{}{"name": "Beatriz"})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if decodeResponse(t, rr)["waiter_name"] != "Beatriz" {
		t.Error("expected renamed customer in response")
	}
}
