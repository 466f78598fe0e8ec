package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Addon is a {name, price} snapshot embedded in menu items (the offer) and in
// order items (what was actually selected). Stored as jsonb.
type Addon struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

type Restaurant struct {
	ID            uuid.UUID
	Name          string
	OwnerEmail    string
	IsBlocked     bool
	BlockedReason pgtype.Text
	BlockedAt     pgtype.Timestamptz
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Staff struct {
	ID           uuid.UUID
	RestaurantID pgtype.UUID // null for SUPERADMIN accounts
	Name         string
	Role         string
	LoginID      string
	PinHash      pgtype.Text // bcrypt; null for SUPERADMIN (password login only)
	Email        pgtype.Text
	PasswordHash pgtype.Text // bcrypt; set for ADMIN/SUPERADMIN
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Table struct {
	ID              uuid.UUID
	RestaurantID    uuid.UUID
	Number          int32
	Status          string
	CurrentOrderID  pgtype.UUID
	CurrentWaiterID pgtype.UUID
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type MenuCategory struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
	Name         string
	SortOrder    int32
	IsActive     bool
	CreatedAt    time.Time
}

type MenuItem struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
	CategoryID   pgtype.UUID
	Name         string
	Description  pgtype.Text
	Price        pgtype.Numeric
	Addons       []Addon
	MaxAddons    pgtype.Int4
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Order struct {
	ID            uuid.UUID
	RestaurantID  uuid.UUID
	TableID       uuid.UUID
	TableNumber   int32
	WaiterID      string // staff uuid string, or the CUSTOMER sentinel
	WaiterName    string
	Status        string
	Subtotal      pgtype.Numeric
	ServiceFee    pgtype.Numeric
	Total         pgtype.Numeric
	PaymentMethod pgtype.Text
	PaidAt        pgtype.Timestamptz
	PaidBy        pgtype.UUID
	CancelReason  pgtype.Text
	CancelledAt   pgtype.Timestamptz
	CancelledBy   pgtype.UUID
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// OrderItem is one line of an order. Name, UnitPrice and Addons are snapshots
// taken at add time; later menu edits never touch existing orders.
type OrderItem struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	MenuItemID uuid.UUID
	Name       string
	UnitPrice  pgtype.Numeric
	Quantity   int32
	Notes      pgtype.Text
	Addons     []Addon
	AddedAt    time.Time
}

// KitchenTicket is one batch of items sent to preparation. An order
// accumulates one ticket per add-items action over its lifetime.
type KitchenTicket struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
	OrderID      uuid.UUID
	TableNumber  int32
	WaiterName   string
	Status       string
	CreatedAt    time.Time
	DeliveredAt  pgtype.Timestamptz
	CancelledAt  pgtype.Timestamptz
}

// KitchenTicketItem references its order line by id, so removals resolve
// exactly instead of by name/quantity matching.
type KitchenTicketItem struct {
	ID          uuid.UUID
	TicketID    uuid.UUID
	OrderItemID uuid.UUID
	Name        string
	Quantity    int32
	Notes       pgtype.Text
}

type WaiterCall struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
	TableNumber  int32
	Status       string
	CreatedAt    time.Time
	AttendedAt   pgtype.Timestamptz
	AttendedBy   pgtype.UUID
}

type Rating struct {
	ID              uuid.UUID
	RestaurantID    uuid.UUID
	OrderID         uuid.UUID
	TableNumber     int32
	WaiterID        string
	WaiterName      string
	Stars           int32
	CustomerName    pgtype.Text
	CustomerContact pgtype.Text
	Comment         pgtype.Text
	CreatedAt       time.Time
}
