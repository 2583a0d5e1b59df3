package model

import "time"

// Order status lifecycle.
const (
	OrderStatusPending   = "pending"
	OrderStatusPreparing = "preparing"
	OrderStatusServed    = "served"
	OrderStatusCancelled = "cancelled"
)

// Order is a customer order submitted against a table's QR identifier.
type Order struct {
	ID           uint64    // orders.id
	UniqueID     string    // orders.unique_id
	UserID       string    // orders.user_id (owning café account)
	TableID      string    // orders.table_id
	CustomerName string    // orders.customer_name
	Status       string    // orders.status
	Total        float64   // orders.total
	CreatedAt    time.Time // orders.created_at
	UpdatedAt    time.Time // orders.updated_at
}

// OrderItem is one menu line of an order. Name and Price are copied from the
// menu item at submission time so later menu edits do not rewrite history.
type OrderItem struct {
	ID        uint64    // order_items.id
	UniqueID  string    // order_items.unique_id
	OrderID   string    // order_items.order_id
	ItemID    string    // order_items.item_id (menu_items.unique_id)
	Name      string    // order_items.name
	Price     float64   // order_items.price
	Quantity  uint32    // order_items.quantity
	CreatedAt time.Time // order_items.created_at
}
