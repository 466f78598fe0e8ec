package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, restaurant_id, table_id, table_number, waiter_id, waiter_name,
	status, subtotal, service_fee, total, payment_method, paid_at, paid_by,
	cancel_reason, cancelled_at, cancelled_by, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.RestaurantID, &o.TableID, &o.TableNumber, &o.WaiterID, &o.WaiterName,
		&o.Status, &o.Subtotal, &o.ServiceFee, &o.Total, &o.PaymentMethod, &o.PaidAt, &o.PaidBy,
		&o.CancelReason, &o.CancelledAt, &o.CancelledBy, &o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

type CreateOrderParams struct {
	RestaurantID uuid.UUID
	TableID      uuid.UUID
	TableNumber  int32
	WaiterID     string
	WaiterName   string
}

// CreateOrder opens a new OPEN order with zero totals. The partial unique
// index on (table_id) WHERE status = 'OPEN' rejects a second open order for
// the same table with a 23505.
func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO orders (restaurant_id, table_id, table_number, waiter_id, waiter_name)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+orderColumns,
		arg.RestaurantID, arg.TableID, arg.TableNumber, arg.WaiterID, arg.WaiterName)
	return scanOrder(row)
}

type GetOrderParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
}

func (q *Queries) GetOrder(ctx context.Context, arg GetOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE id = $1 AND restaurant_id = $2`,
		arg.ID, arg.RestaurantID)
	return scanOrder(row)
}

// GetOrderForUpdate locks the order row so lifecycle mutations on the same
// order serialize instead of racing read-modify-write style.
func (q *Queries) GetOrderForUpdate(ctx context.Context, arg GetOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE id = $1 AND restaurant_id = $2
		FOR NO KEY UPDATE`,
		arg.ID, arg.RestaurantID)
	return scanOrder(row)
}

type ListOrdersParams struct {
	RestaurantID uuid.UUID
	Status       pgtype.Text
	StartDate    pgtype.Timestamptz
	EndDate      pgtype.Timestamptz
	Limit        int32
	Offset       int32
}

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE restaurant_id = $1
		  AND ($2::text IS NULL OR status = $2)
		  AND ($3::timestamptz IS NULL OR created_at >= $3)
		  AND ($4::timestamptz IS NULL OR created_at < $4)
		ORDER BY created_at DESC
		LIMIT $5 OFFSET $6`,
		arg.RestaurantID, arg.Status, arg.StartDate, arg.EndDate, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

type UpdateOrderTotalsParams struct {
	ID         uuid.UUID
	Subtotal   pgtype.Numeric
	ServiceFee pgtype.Numeric
	Total      pgtype.Numeric
}

func (q *Queries) UpdateOrderTotals(ctx context.Context, arg UpdateOrderTotalsParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE orders
		SET subtotal = $2, service_fee = $3, total = $4, updated_at = now()
		WHERE id = $1
		RETURNING `+orderColumns,
		arg.ID, arg.Subtotal, arg.ServiceFee, arg.Total)
	return scanOrder(row)
}

type CloseOrderParams struct {
	ID            uuid.UUID
	ServiceFee    pgtype.Numeric
	Total         pgtype.Numeric
	PaymentMethod string
	PaidBy        pgtype.UUID
}

// CloseOrder marks an OPEN order PAID. The status guard in the WHERE clause
// makes the transition atomic; no rows means the order was not OPEN anymore.
func (q *Queries) CloseOrder(ctx context.Context, arg CloseOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE orders
		SET status = 'PAID', service_fee = $2, total = $3, payment_method = $4,
		    paid_at = now(), paid_by = $5, updated_at = now()
		WHERE id = $1 AND status = 'OPEN'
		RETURNING `+orderColumns,
		arg.ID, arg.ServiceFee, arg.Total, arg.PaymentMethod, arg.PaidBy)
	return scanOrder(row)
}

type CancelOrderParams struct {
	ID           uuid.UUID
	CancelReason string
	CancelledBy  pgtype.UUID
}

func (q *Queries) CancelOrder(ctx context.Context, arg CancelOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE orders
		SET status = 'CANCELLED', cancel_reason = $2, cancelled_at = now(),
		    cancelled_by = $3, updated_at = now()
		WHERE id = $1 AND status = 'OPEN'
		RETURNING `+orderColumns,
		arg.ID, arg.CancelReason, arg.CancelledBy)
	return scanOrder(row)
}

type UpdateOrderWaiterNameParams struct {
	ID         uuid.UUID
	WaiterName string
}

func (q *Queries) UpdateOrderWaiterName(ctx context.Context, arg UpdateOrderWaiterNameParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE orders
		SET waiter_name = $2, updated_at = now()
		WHERE id = $1 AND status = 'OPEN'
		RETURNING `+orderColumns,
		arg.ID, arg.WaiterName)
	return scanOrder(row)
}

// --- Order items ---

const orderItemColumns = `id, order_id, menu_item_id, name, unit_price, quantity, notes, addons, added_at`

func scanOrderItem(row pgx.Row) (OrderItem, error) {
	var i OrderItem
	err := row.Scan(
		&i.ID, &i.OrderID, &i.MenuItemID, &i.Name, &i.UnitPrice,
		&i.Quantity, &i.Notes, &i.Addons, &i.AddedAt,
	)
	return i, err
}

type CreateOrderItemParams struct {
	OrderID    uuid.UUID
	MenuItemID uuid.UUID
	Name       string
	UnitPrice  pgtype.Numeric
	Quantity   int32
	Notes      pgtype.Text
	Addons     []Addon
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO order_items (order_id, menu_item_id, name, unit_price, quantity, notes, addons)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+orderItemColumns,
		arg.OrderID, arg.MenuItemID, arg.Name, arg.UnitPrice, arg.Quantity, arg.Notes, arg.Addons)
	return scanOrderItem(row)
}

func (q *Queries) GetOrderItem(ctx context.Context, id uuid.UUID) (OrderItem, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+orderItemColumns+` FROM order_items WHERE id = $1`, id)
	return scanOrderItem(row)
}

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+orderItemColumns+` FROM order_items
		WHERE order_id = $1
		ORDER BY added_at, id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		i, err := scanOrderItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

func (q *Queries) DeleteOrderItem(ctx context.Context, id uuid.UUID) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM order_items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
