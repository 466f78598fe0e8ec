package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/mesa-pos/api/internal/database"
	"github.com/mesa-pos/api/internal/enum"
	"github.com/shopspring/decimal"
)

// Errors returned by the order service.
var (
	ErrEmptyItems           = errors.New("items are required")
	ErrInvalidQuantity      = errors.New("quantity must be > 0")
	ErrInvalidMenuItemID    = errors.New("invalid menu_item_id")
	ErrMenuItemNotFound     = errors.New("menu item not found or inactive")
	ErrAddonNotFound        = errors.New("addon not offered by this menu item")
	ErrTooManyAddons        = errors.New("too many addons for this menu item")
	ErrTableNotFound        = errors.New("table not found")
	ErrTableOccupied        = errors.New("table already has an open order")
	ErrOrderNotFound        = errors.New("order not found")
	ErrOrderNotOpen         = errors.New("order is not open")
	ErrItemNotFound         = errors.New("order item not found")
	ErrReasonRequired       = errors.New("cancel reason is required")
	ErrEmptyOrder           = errors.New("order has no items")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrNameRequired         = errors.New("name is required")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods the order lifecycle needs.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	GetTableForUpdate(ctx context.Context, arg database.GetTableParams) (database.Table, error)
	OccupyTable(ctx context.Context, arg database.OccupyTableParams) (database.Table, error)
	SetTableStatus(ctx context.Context, arg database.SetTableStatusParams) (database.Table, error)
	FreeTable(ctx context.Context, id uuid.UUID) (database.Table, error)

	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	GetOrderForUpdate(ctx context.Context, arg database.GetOrderParams) (database.Order, error)
	UpdateOrderTotals(ctx context.Context, arg database.UpdateOrderTotalsParams) (database.Order, error)
	CloseOrder(ctx context.Context, arg database.CloseOrderParams) (database.Order, error)
	CancelOrder(ctx context.Context, arg database.CancelOrderParams) (database.Order, error)
	UpdateOrderWaiterName(ctx context.Context, arg database.UpdateOrderWaiterNameParams) (database.Order, error)

	GetMenuItemForOrder(ctx context.Context, arg database.GetMenuItemParams) (database.MenuItem, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	GetOrderItem(ctx context.Context, id uuid.UUID) (database.OrderItem, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	DeleteOrderItem(ctx context.Context, id uuid.UUID) error

	CreateTicket(ctx context.Context, arg database.CreateTicketParams) (database.KitchenTicket, error)
	CreateTicketItem(ctx context.Context, arg database.CreateTicketItemParams) (database.KitchenTicketItem, error)
	GetTicketItemByOrderItem(ctx context.Context, orderItemID uuid.UUID) (database.KitchenTicketItem, error)
	DeleteTicketItem(ctx context.Context, id uuid.UUID) error
	DeleteEmptyTicket(ctx context.Context, ticketID uuid.UUID) error
	CancelActiveTicketsByOrder(ctx context.Context, orderID uuid.UUID) (int64, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
// This allows the service to create store instances from transactions.
type NewOrderStore func(db database.DBTX) OrderStore

// OrderService handles the table/order/ticket lifecycle. Every mutation runs
// in a transaction that locks the table row first, so concurrent actions on
// the same table serialize.
type OrderService struct {
	pool     TxBeginner
	newStore NewOrderStore
}

func NewOrderService(pool TxBeginner, newStore NewOrderStore) *OrderService {
	return &OrderService{pool: pool, newStore: newStore}
}

// AddItemRequest is a single line to add: a menu item, a quantity, and the
// addon names picked from what the item offers.
type AddItemRequest struct {
	MenuItemID string
	Quantity   int32
	Notes      string
	Addons     []string
}

// AddItemsRequest adds a batch of items to the table's open order, creating
// the order first if the table is free.
type AddItemsRequest struct {
	RestaurantID uuid.UUID
	TableID      uuid.UUID
	WaiterID     string // staff uuid string, or enum.WaiterCustomer
	WaiterName   string
	Items        []AddItemRequest
}

// AddItemsResult is the updated order plus the kitchen ticket the batch
// produced.
type AddItemsResult struct {
	Order  database.Order
	Items  []database.OrderItem
	Ticket database.KitchenTicket
}

func (s *OrderService) AddItems(ctx context.Context, req AddItemsRequest) (*AddItemsResult, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	table, err := store.GetTableForUpdate(ctx, database.GetTableParams{
		ID:           req.TableID,
		RestaurantID: req.RestaurantID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTableNotFound
		}
		return nil, fmt.Errorf("lock table: %w", err)
	}

	order, err := s.openOrderForTable(ctx, store, table, req)
	if err != nil {
		return nil, err
	}

	ticket, err := store.CreateTicket(ctx, database.CreateTicketParams{
		RestaurantID: req.RestaurantID,
		OrderID:      order.ID,
		TableNumber:  order.TableNumber,
		WaiterName:   order.WaiterName,
	})
	if err != nil {
		return nil, fmt.Errorf("create ticket: %w", err)
	}

	var created []database.OrderItem
	for i, line := range req.Items {
		item, err := s.addLine(ctx, store, order, ticket, line)
		if err != nil {
			return nil, fmt.Errorf("item[%d]: %w", i, err)
		}
		created = append(created, item)
	}

	order, err = s.recomputeTotals(ctx, store, order)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &AddItemsResult{Order: order, Items: created, Ticket: ticket}, nil
}

// openOrderForTable resolves the open order to add items to. A free table
// gets a fresh order and flips to IN_USE; a table awaiting payment returns
// to IN_USE because the bill is stale now.
func (s *OrderService) openOrderForTable(ctx context.Context, store OrderStore, table database.Table, req AddItemsRequest) (database.Order, error) {
	if table.Status == enum.TableStatusFree || !table.CurrentOrderID.Valid {
		order, err := store.CreateOrder(ctx, database.CreateOrderParams{
			RestaurantID: req.RestaurantID,
			TableID:      table.ID,
			TableNumber:  table.Number,
			WaiterID:     req.WaiterID,
			WaiterName:   req.WaiterName,
		})
		if err != nil {
			if isUniqueViolation(err, "orders_table_id_open_key") {
				return database.Order{}, ErrTableOccupied
			}
			return database.Order{}, fmt.Errorf("create order: %w", err)
		}

		waiterID := pgtype.UUID{}
		if sid, parseErr := uuid.Parse(req.WaiterID); parseErr == nil {
			waiterID = pgtype.UUID{Bytes: sid, Valid: true}
		}
		if _, err := store.OccupyTable(ctx, database.OccupyTableParams{
			ID:              table.ID,
			CurrentOrderID:  order.ID,
			CurrentWaiterID: waiterID,
		}); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return database.Order{}, ErrTableOccupied
			}
			return database.Order{}, fmt.Errorf("occupy table: %w", err)
		}
		return order, nil
	}

	order, err := store.GetOrderForUpdate(ctx, database.GetOrderParams{
		ID:           table.CurrentOrderID.Bytes,
		RestaurantID: req.RestaurantID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrOrderNotFound
		}
		return database.Order{}, fmt.Errorf("lock order: %w", err)
	}
	if order.Status != enum.OrderStatusOpen {
		return database.Order{}, ErrOrderNotOpen
	}

	if table.Status == enum.TableStatusAwaitingPayment {
		if _, err := store.SetTableStatus(ctx, database.SetTableStatusParams{
			ID:     table.ID,
			Status: enum.TableStatusInUse,
			From:   enum.TableStatusAwaitingPayment,
		}); err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, fmt.Errorf("reopen table: %w", err)
		}
	}
	return order, nil
}

// addLine snapshots the menu item into an order line and mirrors it onto the
// kitchen ticket.
func (s *OrderService) addLine(ctx context.Context, store OrderStore, order database.Order, ticket database.KitchenTicket, line AddItemRequest) (database.OrderItem, error) {
	if line.Quantity <= 0 {
		return database.OrderItem{}, ErrInvalidQuantity
	}

	menuItemID, err := uuid.Parse(line.MenuItemID)
	if err != nil {
		return database.OrderItem{}, ErrInvalidMenuItemID
	}

	menuItem, err := store.GetMenuItemForOrder(ctx, database.GetMenuItemParams{
		ID:           menuItemID,
		RestaurantID: order.RestaurantID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.OrderItem{}, ErrMenuItemNotFound
		}
		return database.OrderItem{}, fmt.Errorf("get menu item: %w", err)
	}

	addons, err := resolveAddons(menuItem, line.Addons)
	if err != nil {
		return database.OrderItem{}, err
	}

	notes := pgtype.Text{}
	if line.Notes != "" {
		notes = pgtype.Text{String: line.Notes, Valid: true}
	}

	item, err := store.CreateOrderItem(ctx, database.CreateOrderItemParams{
		OrderID:    order.ID,
		MenuItemID: menuItem.ID,
		Name:       menuItem.Name,
		UnitPrice:  menuItem.Price,
		Quantity:   line.Quantity,
		Notes:      notes,
		Addons:     addons,
	})
	if err != nil {
		return database.OrderItem{}, fmt.Errorf("create order item: %w", err)
	}

	if _, err := store.CreateTicketItem(ctx, database.CreateTicketItemParams{
		TicketID:    ticket.ID,
		OrderItemID: item.ID,
		Name:        kitchenItemName(menuItem.Name, addons),
		Quantity:    line.Quantity,
		Notes:       notes,
	}); err != nil {
		return database.OrderItem{}, fmt.Errorf("create ticket item: %w", err)
	}

	return item, nil
}

// resolveAddons matches the requested addon names against what the menu item
// offers and returns the priced snapshots.
func resolveAddons(menuItem database.MenuItem, names []string) ([]database.Addon, error) {
	if len(names) == 0 {
		return nil, nil
	}
	if menuItem.MaxAddons.Valid && int32(len(names)) > menuItem.MaxAddons.Int32 {
		return nil, ErrTooManyAddons
	}

	offered := make(map[string]database.Addon, len(menuItem.Addons))
	for _, a := range menuItem.Addons {
		offered[a.Name] = a
	}

	addons := make([]database.Addon, 0, len(names))
	for _, name := range names {
		a, ok := offered[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrAddonNotFound, name)
		}
		addons = append(addons, a)
	}
	return addons, nil
}

// kitchenItemName renders the line for the prep screen, folding the chosen
// addons into the display name.
func kitchenItemName(name string, addons []database.Addon) string {
	if len(addons) == 0 {
		return name
	}
	parts := make([]string, len(addons))
	for i, a := range addons {
		parts[i] = a.Name
	}
	return fmt.Sprintf("%s (+ %s)", name, strings.Join(parts, ", "))
}

// RemoveItem deletes one order line by id and its kitchen ticket entry. A
// ticket left empty by the removal disappears with it.
func (s *OrderService) RemoveItem(ctx context.Context, restaurantID, orderID, itemID uuid.UUID) (*database.Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := s.lockOpenOrder(ctx, store, restaurantID, orderID)
	if err != nil {
		return nil, err
	}

	item, err := store.GetOrderItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("get order item: %w", err)
	}
	if item.OrderID != order.ID {
		return nil, ErrItemNotFound
	}

	ticketItem, err := store.GetTicketItemByOrderItem(ctx, item.ID)
	switch {
	case err == nil:
		if err := store.DeleteTicketItem(ctx, ticketItem.ID); err != nil {
			return nil, fmt.Errorf("delete ticket item: %w", err)
		}
		if err := store.DeleteEmptyTicket(ctx, ticketItem.TicketID); err != nil {
			return nil, fmt.Errorf("delete empty ticket: %w", err)
		}
	case errors.Is(err, pgx.ErrNoRows):
		// No ticket entry left for this line; nothing to cascade.
	default:
		return nil, fmt.Errorf("get ticket item: %w", err)
	}

	if err := store.DeleteOrderItem(ctx, item.ID); err != nil {
		return nil, fmt.Errorf("delete order item: %w", err)
	}

	order, err = s.recomputeTotals(ctx, store, order)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &order, nil
}

// BillPreview is what the payment dialog shows: the refreshed order, its
// lines, and the totals including the service fee.
type BillPreview struct {
	Order  database.Order
	Items  []database.OrderItem
	Totals Totals
}

// RequestBill freezes the current totals for payment and moves the table to
// AWAITING_PAYMENT. Adding more items reverses that.
func (s *OrderService) RequestBill(ctx context.Context, restaurantID, orderID uuid.UUID) (*BillPreview, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := s.lockOpenOrder(ctx, store, restaurantID, orderID)
	if err != nil {
		return nil, err
	}

	items, err := store.ListOrderItemsByOrder(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}

	totals := ComputeTotals(itemsSubtotal(items), false)
	order, err = store.UpdateOrderTotals(ctx, database.UpdateOrderTotalsParams{
		ID:         order.ID,
		Subtotal:   decimalToNumeric(totals.Subtotal),
		ServiceFee: decimalToNumeric(totals.ServiceFee),
		Total:      decimalToNumeric(totals.Total),
	})
	if err != nil {
		return nil, fmt.Errorf("update totals: %w", err)
	}

	if _, err := store.SetTableStatus(ctx, database.SetTableStatusParams{
		ID:     order.TableID,
		Status: enum.TableStatusAwaitingPayment,
		From:   enum.TableStatusInUse,
	}); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		// ErrNoRows means the table already awaits payment; that is fine.
		return nil, fmt.Errorf("set table status: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &BillPreview{Order: order, Items: items, Totals: totals}, nil
}

// CheckoutRequest closes an order as PAID.
type CheckoutRequest struct {
	RestaurantID    uuid.UUID
	OrderID         uuid.UUID
	PaymentMethod   string
	WaiveServiceFee bool
	PaidBy          uuid.UUID
	Split           SplitRequest
}

func (s *OrderService) Checkout(ctx context.Context, req CheckoutRequest) (*database.Order, error) {
	if !enum.IsValidPaymentMethod(req.PaymentMethod) {
		return nil, ErrInvalidPaymentMethod
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := s.lockOpenOrder(ctx, store, req.RestaurantID, req.OrderID)
	if err != nil {
		return nil, err
	}

	items, err := store.ListOrderItemsByOrder(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}

	totals := ComputeTotals(itemsSubtotal(items), req.WaiveServiceFee)
	if err := ValidateSplit(totals.Total, req.Split); err != nil {
		return nil, err
	}

	order, err = store.CloseOrder(ctx, database.CloseOrderParams{
		ID:            order.ID,
		ServiceFee:    decimalToNumeric(totals.ServiceFee),
		Total:         decimalToNumeric(totals.Total),
		PaymentMethod: req.PaymentMethod,
		PaidBy:        pgtype.UUID{Bytes: req.PaidBy, Valid: req.PaidBy != uuid.Nil},
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotOpen
		}
		return nil, fmt.Errorf("close order: %w", err)
	}

	if _, err := store.FreeTable(ctx, order.TableID); err != nil {
		return nil, fmt.Errorf("free table: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &order, nil
}

// CancelRequest voids an order. The reason is mandatory and kept for audit.
type CancelRequest struct {
	RestaurantID uuid.UUID
	OrderID      uuid.UUID
	Reason       string
	CancelledBy  uuid.UUID
}

// Cancel voids the order, cancels every ticket of it that has not finished,
// and frees the table.
func (s *OrderService) Cancel(ctx context.Context, req CancelRequest) (*database.Order, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := s.lockOpenOrder(ctx, store, req.RestaurantID, req.OrderID)
	if err != nil {
		return nil, err
	}

	order, err = store.CancelOrder(ctx, database.CancelOrderParams{
		ID:           order.ID,
		CancelReason: reason,
		CancelledBy:  pgtype.UUID{Bytes: req.CancelledBy, Valid: req.CancelledBy != uuid.Nil},
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotOpen
		}
		return nil, fmt.Errorf("cancel order: %w", err)
	}

	if _, err := store.CancelActiveTicketsByOrder(ctx, order.ID); err != nil {
		return nil, fmt.Errorf("cancel tickets: %w", err)
	}

	if _, err := store.FreeTable(ctx, order.TableID); err != nil {
		return nil, fmt.Errorf("free table: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &order, nil
}

// RenameCustomer updates the display name on a self-service order.
func (s *OrderService) RenameCustomer(ctx context.Context, restaurantID, orderID uuid.UUID, name string) (*database.Order, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := s.lockOpenOrder(ctx, store, restaurantID, orderID)
	if err != nil {
		return nil, err
	}

	order, err = store.UpdateOrderWaiterName(ctx, database.UpdateOrderWaiterNameParams{
		ID:         order.ID,
		WaiterName: name,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotOpen
		}
		return nil, fmt.Errorf("update waiter name: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &order, nil
}

// lockOpenOrder loads the order under a row lock and rejects anything that
// is not OPEN.
func (s *OrderService) lockOpenOrder(ctx context.Context, store OrderStore, restaurantID, orderID uuid.UUID) (database.Order, error) {
	order, err := store.GetOrderForUpdate(ctx, database.GetOrderParams{
		ID:           orderID,
		RestaurantID: restaurantID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrOrderNotFound
		}
		return database.Order{}, fmt.Errorf("lock order: %w", err)
	}
	if order.Status != enum.OrderStatusOpen {
		return database.Order{}, ErrOrderNotOpen
	}
	return order, nil
}

// recomputeTotals re-derives subtotal/fee/total from the current lines and
// persists them on the order.
func (s *OrderService) recomputeTotals(ctx context.Context, store OrderStore, order database.Order) (database.Order, error) {
	items, err := store.ListOrderItemsByOrder(ctx, order.ID)
	if err != nil {
		return database.Order{}, fmt.Errorf("list order items: %w", err)
	}

	totals := ComputeTotals(itemsSubtotal(items), false)
	order, err = store.UpdateOrderTotals(ctx, database.UpdateOrderTotalsParams{
		ID:         order.ID,
		Subtotal:   decimalToNumeric(totals.Subtotal),
		ServiceFee: decimalToNumeric(totals.ServiceFee),
		Total:      decimalToNumeric(totals.Total),
	})
	if err != nil {
		return database.Order{}, fmt.Errorf("update totals: %w", err)
	}
	return order, nil
}

// itemsSubtotal sums the order lines: (unit price + addons) * quantity each.
func itemsSubtotal(items []database.OrderItem) decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range items {
		line := numericToDecimal(item.UnitPrice)
		for _, a := range item.Addons {
			line = line.Add(a.Price)
		}
		subtotal = subtotal.Add(line.Mul(decimal.NewFromInt32(item.Quantity)))
	}
	return subtotal
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == constraint
	}
	return false
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
