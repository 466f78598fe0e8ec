package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const staffColumns = `id, restaurant_id, name, role, login_id, pin_hash, email, password_hash, is_active, created_at, updated_at`

func scanStaff(row pgx.Row) (Staff, error) {
	var s Staff
	err := row.Scan(
		&s.ID, &s.RestaurantID, &s.Name, &s.Role, &s.LoginID,
		&s.PinHash, &s.Email, &s.PasswordHash, &s.IsActive, &s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}

type CreateStaffParams struct {
	RestaurantID pgtype.UUID
	Name         string
	Role         string
	LoginID      string
	PinHash      pgtype.Text
	Email        pgtype.Text
	PasswordHash pgtype.Text
}

func (q *Queries) CreateStaff(ctx context.Context, arg CreateStaffParams) (Staff, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO staff (restaurant_id, name, role, login_id, pin_hash, email, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+staffColumns,
		arg.RestaurantID, arg.Name, arg.Role, arg.LoginID, arg.PinHash, arg.Email, arg.PasswordHash)
	return scanStaff(row)
}

type GetStaffParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
}

func (q *Queries) GetStaff(ctx context.Context, arg GetStaffParams) (Staff, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+staffColumns+` FROM staff
		WHERE id = $1 AND restaurant_id = $2`,
		arg.ID, arg.RestaurantID)
	return scanStaff(row)
}

func (q *Queries) GetStaffByID(ctx context.Context, id uuid.UUID) (Staff, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+staffColumns+` FROM staff WHERE id = $1`, id)
	return scanStaff(row)
}

type GetStaffByLoginParams struct {
	RestaurantID uuid.UUID
	LoginID      string
}

// GetStaffByLogin fetches an active staff member for PIN login. The PIN
// itself is verified by the caller against the bcrypt hash.
func (q *Queries) GetStaffByLogin(ctx context.Context, arg GetStaffByLoginParams) (Staff, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+staffColumns+` FROM staff
		WHERE restaurant_id = $1 AND login_id = $2 AND is_active`,
		arg.RestaurantID, arg.LoginID)
	return scanStaff(row)
}

func (q *Queries) GetStaffByEmail(ctx context.Context, email string) (Staff, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+staffColumns+` FROM staff
		WHERE email = $1 AND is_active`, email)
	return scanStaff(row)
}

func (q *Queries) ListStaffByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]Staff, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+staffColumns+` FROM staff
		WHERE restaurant_id = $1
		ORDER BY name`, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var staff []Staff
	for rows.Next() {
		s, err := scanStaff(rows)
		if err != nil {
			return nil, err
		}
		staff = append(staff, s)
	}
	return staff, rows.Err()
}

type UpdateStaffParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
	Name         string
	Role         string
	LoginID      string
	IsActive     bool
}

func (q *Queries) UpdateStaff(ctx context.Context, arg UpdateStaffParams) (Staff, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE staff
		SET name = $3, role = $4, login_id = $5, is_active = $6, updated_at = now()
		WHERE id = $1 AND restaurant_id = $2
		RETURNING `+staffColumns,
		arg.ID, arg.RestaurantID, arg.Name, arg.Role, arg.LoginID, arg.IsActive)
	return scanStaff(row)
}

type UpdateStaffPinParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
	PinHash      pgtype.Text
}

func (q *Queries) UpdateStaffPin(ctx context.Context, arg UpdateStaffPinParams) (Staff, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE staff
		SET pin_hash = $3, updated_at = now()
		WHERE id = $1 AND restaurant_id = $2
		RETURNING `+staffColumns,
		arg.ID, arg.RestaurantID, arg.PinHash)
	return scanStaff(row)
}
