package enum

// ── State machines (CHECK constrained in DB) ──

const (
	OrderStatusOpen      = "OPEN"
	OrderStatusPaid      = "PAID"
	OrderStatusCancelled = "CANCELLED"
)

const (
	TableStatusFree            = "FREE"
	TableStatusInUse           = "IN_USE"
	TableStatusAwaitingPayment = "AWAITING_PAYMENT"
)

const (
	TicketStatusNew       = "NEW"
	TicketStatusInPrep    = "IN_PREP"
	TicketStatusReady     = "READY"
	TicketStatusDelivered = "DELIVERED"
	TicketStatusCancelled = "CANCELLED"
)

const (
	CallStatusPending  = "PENDING"
	CallStatusAttended = "ATTENDED"
)

// ── Roles (CHECK constrained in DB) ──

const (
	RoleSuperAdmin = "SUPERADMIN"
	RoleAdmin      = "ADMIN"
	RoleWaiter     = "WAITER"
	RoleKitchen    = "KITCHEN"
)

// WaiterCustomer is the sentinel waiter_id for self-service orders placed
// from the customer-facing menu rather than by staff.
const WaiterCustomer = "CUSTOMER"

// ── Configurable labels (no DB constraint) ──

const (
	PaymentMethodCash       = "CASH"
	PaymentMethodCreditCard = "CREDIT_CARD"
	PaymentMethodDebitCard  = "DEBIT_CARD"
	PaymentMethodPix        = "PIX"
	PaymentMethodOther      = "OTHER"
)

// IsValidPaymentMethod reports whether s is one of the accepted payment methods.
func IsValidPaymentMethod(s string) bool {
	switch s {
	case PaymentMethodCash, PaymentMethodCreditCard, PaymentMethodDebitCard,
		PaymentMethodPix, PaymentMethodOther:
		return true
	}
	return false
}

// IsValidStaffRole reports whether s is a role assignable to restaurant staff.
// SUPERADMIN is excluded: it is provisioned out of band, never via the staff API.
func IsValidStaffRole(s string) bool {
	switch s {
	case RoleAdmin, RoleWaiter, RoleKitchen:
		return true
	}
	return false
}

// ── Transition tables ──
//
// Each entity's lifecycle is a closed table: a transition absent from the map
// is rejected. Terminal states have no outgoing entries.

var orderTransitions = map[string][]string{
	OrderStatusOpen: {OrderStatusPaid, OrderStatusCancelled},
}

var tableTransitions = map[string][]string{
	TableStatusFree:            {TableStatusInUse},
	TableStatusInUse:           {TableStatusAwaitingPayment, TableStatusFree},
	TableStatusAwaitingPayment: {TableStatusInUse, TableStatusFree},
}

// Ticket flow is forward-only; any active state may jump straight to
// DELIVERED, and CANCELLED is reachable only through an order-level cancel.
var ticketTransitions = map[string][]string{
	TicketStatusNew:    {TicketStatusInPrep, TicketStatusReady, TicketStatusDelivered, TicketStatusCancelled},
	TicketStatusInPrep: {TicketStatusReady, TicketStatusDelivered, TicketStatusCancelled},
	TicketStatusReady:  {TicketStatusDelivered, TicketStatusCancelled},
}

var callTransitions = map[string][]string{
	CallStatusPending: {CallStatusAttended},
}

func canTransition(table map[string][]string, from, to string) bool {
	for _, s := range table[from] {
		if s == to {
			return true
		}
	}
	return false
}

func CanOrderTransition(from, to string) bool  { return canTransition(orderTransitions, from, to) }
func CanTableTransition(from, to string) bool  { return canTransition(tableTransitions, from, to) }
func CanTicketTransition(from, to string) bool { return canTransition(ticketTransitions, from, to) }
func CanCallTransition(from, to string) bool   { return canTransition(callTransitions, from, to) }

// IsTicketTerminal reports whether a ticket may be deleted (history cleanup).
// Active tickets are never deletable.
func IsTicketTerminal(status string) bool {
	return status == TicketStatusDelivered || status == TicketStatusCancelled
}

// IsValidTicketStatus reports whether s is a known kitchen ticket status.
func IsValidTicketStatus(s string) bool {
	switch s {
	case TicketStatusNew, TicketStatusInPrep, TicketStatusReady,
		TicketStatusDelivered, TicketStatusCancelled:
		return true
	}
	return false
}
