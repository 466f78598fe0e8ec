package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const callColumns = `id, restaurant_id, table_number, status, created_at, attended_at, attended_by`

func scanCall(row pgx.Row) (WaiterCall, error) {
	var c WaiterCall
	err := row.Scan(
		&c.ID, &c.RestaurantID, &c.TableNumber, &c.Status,
		&c.CreatedAt, &c.AttendedAt, &c.AttendedBy,
	)
	return c, err
}

type CreateWaiterCallParams struct {
	RestaurantID uuid.UUID
	TableNumber  int32
}

// CreateWaiterCall records a table's service request. Every button press
// creates a fresh PENDING record; pending calls are intentionally not
// deduplicated.
func (q *Queries) CreateWaiterCall(ctx context.Context, arg CreateWaiterCallParams) (WaiterCall, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO waiter_calls (restaurant_id, table_number)
		VALUES ($1, $2)
		RETURNING `+callColumns,
		arg.RestaurantID, arg.TableNumber)
	return scanCall(row)
}

type ListWaiterCallsParams struct {
	RestaurantID uuid.UUID
	Status       pgtype.Text
}

func (q *Queries) ListWaiterCalls(ctx context.Context, arg ListWaiterCallsParams) ([]WaiterCall, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+callColumns+` FROM waiter_calls
		WHERE restaurant_id = $1
		  AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at`, arg.RestaurantID, arg.Status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var calls []WaiterCall
	for rows.Next() {
		c, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		calls = append(calls, c)
	}
	return calls, rows.Err()
}

type AttendWaiterCallParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
	AttendedBy   uuid.UUID
}

// AttendWaiterCall transitions PENDING -> ATTENDED. The status guard means a
// call can only be attended once; losing the race yields pgx.ErrNoRows.
func (q *Queries) AttendWaiterCall(ctx context.Context, arg AttendWaiterCallParams) (WaiterCall, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE waiter_calls
		SET status = 'ATTENDED', attended_at = now(), attended_by = $3
		WHERE id = $1 AND restaurant_id = $2 AND status = 'PENDING'
		RETURNING `+callColumns,
		arg.ID, arg.RestaurantID, arg.AttendedBy)
	return scanCall(row)
}
