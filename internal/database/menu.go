package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// --- Categories ---

const categoryColumns = `id, restaurant_id, name, sort_order, is_active, created_at`

func scanCategory(row pgx.Row) (MenuCategory, error) {
	var c MenuCategory
	err := row.Scan(&c.ID, &c.RestaurantID, &c.Name, &c.SortOrder, &c.IsActive, &c.CreatedAt)
	return c, err
}

type CreateMenuCategoryParams struct {
	RestaurantID uuid.UUID
	Name         string
	SortOrder    int32
}

func (q *Queries) CreateMenuCategory(ctx context.Context, arg CreateMenuCategoryParams) (MenuCategory, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO menu_categories (restaurant_id, name, sort_order)
		VALUES ($1, $2, $3)
		RETURNING `+categoryColumns,
		arg.RestaurantID, arg.Name, arg.SortOrder)
	return scanCategory(row)
}

func (q *Queries) ListMenuCategories(ctx context.Context, restaurantID uuid.UUID) ([]MenuCategory, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+categoryColumns+` FROM menu_categories
		WHERE restaurant_id = $1
		ORDER BY sort_order, name`, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []MenuCategory
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

type UpdateMenuCategoryParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
	Name         string
	SortOrder    int32
	IsActive     bool
}

func (q *Queries) UpdateMenuCategory(ctx context.Context, arg UpdateMenuCategoryParams) (MenuCategory, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE menu_categories
		SET name = $3, sort_order = $4, is_active = $5
		WHERE id = $1 AND restaurant_id = $2
		RETURNING `+categoryColumns,
		arg.ID, arg.RestaurantID, arg.Name, arg.SortOrder, arg.IsActive)
	return scanCategory(row)
}

func (q *Queries) DeleteMenuCategory(ctx context.Context, arg GetTableParams) error {
	tag, err := q.db.Exec(ctx, `
		DELETE FROM menu_categories WHERE id = $1 AND restaurant_id = $2`,
		arg.ID, arg.RestaurantID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// --- Items ---

const menuItemColumns = `id, restaurant_id, category_id, name, description, price,
	addons, max_addons, is_active, created_at, updated_at`

func scanMenuItem(row pgx.Row) (MenuItem, error) {
	var i MenuItem
	err := row.Scan(
		&i.ID, &i.RestaurantID, &i.CategoryID, &i.Name, &i.Description, &i.Price,
		&i.Addons, &i.MaxAddons, &i.IsActive, &i.CreatedAt, &i.UpdatedAt,
	)
	return i, err
}

type CreateMenuItemParams struct {
	RestaurantID uuid.UUID
	CategoryID   pgtype.UUID
	Name         string
	Description  pgtype.Text
	Price        pgtype.Numeric
	Addons       []Addon
	MaxAddons    pgtype.Int4
}

func (q *Queries) CreateMenuItem(ctx context.Context, arg CreateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO menu_items (restaurant_id, category_id, name, description, price, addons, max_addons)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+menuItemColumns,
		arg.RestaurantID, arg.CategoryID, arg.Name, arg.Description, arg.Price, arg.Addons, arg.MaxAddons)
	return scanMenuItem(row)
}

type GetMenuItemParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
}

func (q *Queries) GetMenuItem(ctx context.Context, arg GetMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+menuItemColumns+` FROM menu_items
		WHERE id = $1 AND restaurant_id = $2`,
		arg.ID, arg.RestaurantID)
	return scanMenuItem(row)
}

// GetMenuItemForOrder fetches an item for price snapshotting; inactive items
// cannot be ordered.
func (q *Queries) GetMenuItemForOrder(ctx context.Context, arg GetMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+menuItemColumns+` FROM menu_items
		WHERE id = $1 AND restaurant_id = $2 AND is_active`,
		arg.ID, arg.RestaurantID)
	return scanMenuItem(row)
}

type ListMenuItemsParams struct {
	RestaurantID uuid.UUID
	ActiveOnly   bool
}

func (q *Queries) ListMenuItems(ctx context.Context, arg ListMenuItemsParams) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+menuItemColumns+` FROM menu_items
		WHERE restaurant_id = $1
		  AND (NOT $2::bool OR is_active)
		ORDER BY name`, arg.RestaurantID, arg.ActiveOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []MenuItem
	for rows.Next() {
		i, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

type UpdateMenuItemParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
	CategoryID   pgtype.UUID
	Name         string
	Description  pgtype.Text
	Price        pgtype.Numeric
	Addons       []Addon
	MaxAddons    pgtype.Int4
	IsActive     bool
}

func (q *Queries) UpdateMenuItem(ctx context.Context, arg UpdateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE menu_items
		SET category_id = $3, name = $4, description = $5, price = $6,
		    addons = $7, max_addons = $8, is_active = $9, updated_at = now()
		WHERE id = $1 AND restaurant_id = $2
		RETURNING `+menuItemColumns,
		arg.ID, arg.RestaurantID, arg.CategoryID, arg.Name, arg.Description,
		arg.Price, arg.Addons, arg.MaxAddons, arg.IsActive)
	return scanMenuItem(row)
}

func (q *Queries) DeleteMenuItem(ctx context.Context, arg GetMenuItemParams) error {
	tag, err := q.db.Exec(ctx, `
		DELETE FROM menu_items WHERE id = $1 AND restaurant_id = $2`,
		arg.ID, arg.RestaurantID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
