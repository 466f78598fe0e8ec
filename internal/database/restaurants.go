package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const restaurantColumns = `id, name, owner_email, is_blocked, blocked_reason, blocked_at, created_at, updated_at`

func scanRestaurant(row pgx.Row) (Restaurant, error) {
	var r Restaurant
	err := row.Scan(
		&r.ID, &r.Name, &r.OwnerEmail, &r.IsBlocked,
		&r.BlockedReason, &r.BlockedAt, &r.CreatedAt, &r.UpdatedAt,
	)
	return r, err
}

type CreateRestaurantParams struct {
	Name       string
	OwnerEmail string
}

func (q *Queries) CreateRestaurant(ctx context.Context, arg CreateRestaurantParams) (Restaurant, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO restaurants (name, owner_email)
		VALUES ($1, $2)
		RETURNING `+restaurantColumns,
		arg.Name, arg.OwnerEmail)
	return scanRestaurant(row)
}

func (q *Queries) GetRestaurant(ctx context.Context, id uuid.UUID) (Restaurant, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+restaurantColumns+` FROM restaurants WHERE id = $1`, id)
	return scanRestaurant(row)
}

func (q *Queries) ListRestaurants(ctx context.Context) ([]Restaurant, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+restaurantColumns+` FROM restaurants ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var restaurants []Restaurant
	for rows.Next() {
		r, err := scanRestaurant(rows)
		if err != nil {
			return nil, err
		}
		restaurants = append(restaurants, r)
	}
	return restaurants, rows.Err()
}

type BlockRestaurantParams struct {
	ID     uuid.UUID
	Reason string
}

func (q *Queries) BlockRestaurant(ctx context.Context, arg BlockRestaurantParams) (Restaurant, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE restaurants
		SET is_blocked = TRUE, blocked_reason = $2, blocked_at = now(), updated_at = now()
		WHERE id = $1
		RETURNING `+restaurantColumns,
		arg.ID, arg.Reason)
	return scanRestaurant(row)
}

func (q *Queries) UnblockRestaurant(ctx context.Context, id uuid.UUID) (Restaurant, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE restaurants
		SET is_blocked = FALSE, blocked_reason = NULL, blocked_at = NULL, updated_at = now()
		WHERE id = $1
		RETURNING `+restaurantColumns,
		id)
	return scanRestaurant(row)
}
