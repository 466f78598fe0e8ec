package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const ratingColumns = `id, restaurant_id, order_id, table_number, waiter_id, waiter_name,
	stars, customer_name, customer_contact, comment, created_at`

func scanRating(row pgx.Row) (Rating, error) {
	var r Rating
	err := row.Scan(
		&r.ID, &r.RestaurantID, &r.OrderID, &r.TableNumber, &r.WaiterID, &r.WaiterName,
		&r.Stars, &r.CustomerName, &r.CustomerContact, &r.Comment, &r.CreatedAt,
	)
	return r, err
}

type CreateRatingParams struct {
	RestaurantID    uuid.UUID
	OrderID         uuid.UUID
	TableNumber     int32
	WaiterID        string
	WaiterName      string
	Stars           int32
	CustomerName    pgtype.Text
	CustomerContact pgtype.Text
	Comment         pgtype.Text
}

// CreateRating inserts a post-payment rating. The unique constraint on
// order_id makes ratings one-shot and immutable.
func (q *Queries) CreateRating(ctx context.Context, arg CreateRatingParams) (Rating, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO ratings (restaurant_id, order_id, table_number, waiter_id, waiter_name,
			stars, customer_name, customer_contact, comment)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+ratingColumns,
		arg.RestaurantID, arg.OrderID, arg.TableNumber, arg.WaiterID, arg.WaiterName,
		arg.Stars, arg.CustomerName, arg.CustomerContact, arg.Comment)
	return scanRating(row)
}

func (q *Queries) GetRatingByOrder(ctx context.Context, orderID uuid.UUID) (Rating, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+ratingColumns+` FROM ratings WHERE order_id = $1`, orderID)
	return scanRating(row)
}

func (q *Queries) ListRatingsByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]Rating, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+ratingColumns+` FROM ratings
		WHERE restaurant_id = $1
		ORDER BY created_at DESC`, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ratings []Rating
	for rows.Next() {
		r, err := scanRating(rows)
		if err != nil {
			return nil, err
		}
		ratings = append(ratings, r)
	}
	return ratings, rows.Err()
}
