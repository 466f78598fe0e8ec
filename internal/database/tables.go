package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const tableColumns = `id, restaurant_id, number, status, current_order_id, current_waiter_id, created_at, updated_at`

func scanTable(row pgx.Row) (Table, error) {
	var t Table
	err := row.Scan(
		&t.ID, &t.RestaurantID, &t.Number, &t.Status,
		&t.CurrentOrderID, &t.CurrentWaiterID, &t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

type CreateTableParams struct {
	RestaurantID uuid.UUID
	Number       int32
}

// CreateTable relies on the (restaurant_id, number) unique constraint to
// reject duplicate table numbers; callers map the 23505 to a conflict error.
func (q *Queries) CreateTable(ctx context.Context, arg CreateTableParams) (Table, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO tables (restaurant_id, number)
		VALUES ($1, $2)
		RETURNING `+tableColumns,
		arg.RestaurantID, arg.Number)
	return scanTable(row)
}

type GetTableParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
}

func (q *Queries) GetTable(ctx context.Context, arg GetTableParams) (Table, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+tableColumns+` FROM tables
		WHERE id = $1 AND restaurant_id = $2`,
		arg.ID, arg.RestaurantID)
	return scanTable(row)
}

// GetTableForUpdate locks the table row; the occupy check-then-set happens
// under this lock so two concurrent openers cannot both see FREE.
func (q *Queries) GetTableForUpdate(ctx context.Context, arg GetTableParams) (Table, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+tableColumns+` FROM tables
		WHERE id = $1 AND restaurant_id = $2
		FOR NO KEY UPDATE`,
		arg.ID, arg.RestaurantID)
	return scanTable(row)
}

func (q *Queries) ListTablesByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]Table, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+tableColumns+` FROM tables
		WHERE restaurant_id = $1
		ORDER BY number`, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []Table
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

type OccupyTableParams struct {
	ID              uuid.UUID
	CurrentOrderID  uuid.UUID
	CurrentWaiterID pgtype.UUID
}

// OccupyTable transitions FREE -> IN_USE and links the active order. The
// status guard keeps the transition atomic under concurrent openers.
func (q *Queries) OccupyTable(ctx context.Context, arg OccupyTableParams) (Table, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE tables
		SET status = 'IN_USE', current_order_id = $2, current_waiter_id = $3, updated_at = now()
		WHERE id = $1 AND status = 'FREE'
		RETURNING `+tableColumns,
		arg.ID, arg.CurrentOrderID, arg.CurrentWaiterID)
	return scanTable(row)
}

type SetTableStatusParams struct {
	ID     uuid.UUID
	Status string
	From   string
}

// SetTableStatus performs a guarded status move (used for the
// IN_USE <-> AWAITING_PAYMENT transitions around the bill dialog).
func (q *Queries) SetTableStatus(ctx context.Context, arg SetTableStatusParams) (Table, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE tables
		SET status = $2, updated_at = now()
		WHERE id = $1 AND status = $3
		RETURNING `+tableColumns,
		arg.ID, arg.Status, arg.From)
	return scanTable(row)
}

// FreeTable releases the table and clears its order/waiter links. It is
// idempotent: freeing an already FREE table is a no-op that still returns
// the row.
func (q *Queries) FreeTable(ctx context.Context, id uuid.UUID) (Table, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE tables
		SET status = 'FREE', current_order_id = NULL, current_waiter_id = NULL, updated_at = now()
		WHERE id = $1
		RETURNING `+tableColumns,
		id)
	return scanTable(row)
}

func (q *Queries) DeleteTable(ctx context.Context, arg GetTableParams) error {
	tag, err := q.db.Exec(ctx, `
		DELETE FROM tables
		WHERE id = $1 AND restaurant_id = $2 AND status = 'FREE'`,
		arg.ID, arg.RestaurantID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
