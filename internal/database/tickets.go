package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const ticketColumns = `id, restaurant_id, order_id, table_number, waiter_name, status, created_at, delivered_at, cancelled_at`

func scanTicket(row pgx.Row) (KitchenTicket, error) {
	var t KitchenTicket
	err := row.Scan(
		&t.ID, &t.RestaurantID, &t.OrderID, &t.TableNumber, &t.WaiterName,
		&t.Status, &t.CreatedAt, &t.DeliveredAt, &t.CancelledAt,
	)
	return t, err
}

type CreateTicketParams struct {
	RestaurantID uuid.UUID
	OrderID      uuid.UUID
	TableNumber  int32
	WaiterName   string
}

func (q *Queries) CreateTicket(ctx context.Context, arg CreateTicketParams) (KitchenTicket, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO kitchen_tickets (restaurant_id, order_id, table_number, waiter_name)
		VALUES ($1, $2, $3, $4)
		RETURNING `+ticketColumns,
		arg.RestaurantID, arg.OrderID, arg.TableNumber, arg.WaiterName)
	return scanTicket(row)
}

type GetTicketParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
}

func (q *Queries) GetTicket(ctx context.Context, arg GetTicketParams) (KitchenTicket, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+ticketColumns+` FROM kitchen_tickets
		WHERE id = $1 AND restaurant_id = $2`,
		arg.ID, arg.RestaurantID)
	return scanTicket(row)
}

type ListTicketsParams struct {
	RestaurantID uuid.UUID
	Status       pgtype.Text
}

func (q *Queries) ListTickets(ctx context.Context, arg ListTicketsParams) ([]KitchenTicket, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+ticketColumns+` FROM kitchen_tickets
		WHERE restaurant_id = $1
		  AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at`, arg.RestaurantID, arg.Status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTickets(rows)
}

func (q *Queries) ListTicketsByOrder(ctx context.Context, orderID uuid.UUID) ([]KitchenTicket, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+ticketColumns+` FROM kitchen_tickets
		WHERE order_id = $1
		ORDER BY created_at`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTickets(rows)
}

func collectTickets(rows pgx.Rows) ([]KitchenTicket, error) {
	var tickets []KitchenTicket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

type UpdateTicketStatusParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
	Status       string
	From         string
}

// UpdateTicketStatus moves a ticket along the preparation flow. The From
// guard turns a lost race into pgx.ErrNoRows instead of a silent overwrite.
func (q *Queries) UpdateTicketStatus(ctx context.Context, arg UpdateTicketStatusParams) (KitchenTicket, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE kitchen_tickets
		SET status = $3,
		    delivered_at = CASE WHEN $3 = 'DELIVERED' THEN now() ELSE delivered_at END
		WHERE id = $1 AND restaurant_id = $2 AND status = $4
		RETURNING `+ticketColumns,
		arg.ID, arg.RestaurantID, arg.Status, arg.From)
	return scanTicket(row)
}

// CancelActiveTicketsByOrder cascades an order-level cancel to every ticket
// of the order that has not reached a terminal state.
func (q *Queries) CancelActiveTicketsByOrder(ctx context.Context, orderID uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE kitchen_tickets
		SET status = 'CANCELLED', cancelled_at = now()
		WHERE order_id = $1 AND status IN ('NEW', 'IN_PREP', 'READY')`,
		orderID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DeleteTicket removes a ticket for history cleanup. Only terminal tickets
// are deletable; the status guard enforces that.
func (q *Queries) DeleteTicket(ctx context.Context, arg GetTicketParams) error {
	tag, err := q.db.Exec(ctx, `
		DELETE FROM kitchen_tickets
		WHERE id = $1 AND restaurant_id = $2 AND status IN ('DELIVERED', 'CANCELLED')`,
		arg.ID, arg.RestaurantID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// --- Ticket items ---

const ticketItemColumns = `id, ticket_id, order_item_id, name, quantity, notes`

func scanTicketItem(row pgx.Row) (KitchenTicketItem, error) {
	var i KitchenTicketItem
	err := row.Scan(&i.ID, &i.TicketID, &i.OrderItemID, &i.Name, &i.Quantity, &i.Notes)
	return i, err
}

type CreateTicketItemParams struct {
	TicketID    uuid.UUID
	OrderItemID uuid.UUID
	Name        string
	Quantity    int32
	Notes       pgtype.Text
}

func (q *Queries) CreateTicketItem(ctx context.Context, arg CreateTicketItemParams) (KitchenTicketItem, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO kitchen_ticket_items (ticket_id, order_item_id, name, quantity, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+ticketItemColumns,
		arg.TicketID, arg.OrderItemID, arg.Name, arg.Quantity, arg.Notes)
	return scanTicketItem(row)
}

func (q *Queries) ListTicketItemsByTicket(ctx context.Context, ticketID uuid.UUID) ([]KitchenTicketItem, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+ticketItemColumns+` FROM kitchen_ticket_items
		WHERE ticket_id = $1
		ORDER BY id`, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []KitchenTicketItem
	for rows.Next() {
		i, err := scanTicketItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

// GetTicketItemByOrderItem resolves the 1:1 link from an order line to its
// kitchen ticket entry.
func (q *Queries) GetTicketItemByOrderItem(ctx context.Context, orderItemID uuid.UUID) (KitchenTicketItem, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+ticketItemColumns+` FROM kitchen_ticket_items
		WHERE order_item_id = $1`, orderItemID)
	return scanTicketItem(row)
}

func (q *Queries) DeleteTicketItem(ctx context.Context, id uuid.UUID) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM kitchen_ticket_items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (q *Queries) CountTicketItems(ctx context.Context, ticketID uuid.UUID) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, `
		SELECT count(*) FROM kitchen_ticket_items WHERE ticket_id = $1`, ticketID).Scan(&n)
	return n, err
}

// DeleteEmptyTicket removes a ticket that has no items left, but only while
// it is still active; delivered history stays.
func (q *Queries) DeleteEmptyTicket(ctx context.Context, ticketID uuid.UUID) error {
	_, err := q.db.Exec(ctx, `
		DELETE FROM kitchen_tickets
		WHERE id = $1
		  AND status IN ('NEW', 'IN_PREP', 'READY')
		  AND NOT EXISTS (SELECT 1 FROM kitchen_ticket_items WHERE ticket_id = $1)`,
		ticketID)
	return err
}
