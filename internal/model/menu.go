package model

import "time"

// Row status values shared by categories, menu items and tables.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Category groups menu items for one owner.
type Category struct {
	ID        uint64    // categories.id
	UniqueID  string    // categories.unique_id
	UserID    string    // categories.user_id
	Name      string    // categories.name
	Status    string    // categories.status
	CreatedAt time.Time // categories.created_at
	UpdatedAt time.Time // categories.updated_at
}

// MenuItem is a single orderable dish or drink.
type MenuItem struct {
	ID          uint64    // menu_items.id
	UniqueID    string    // menu_items.unique_id
	CategoryID  string    // menu_items.category_id
	UserID      string    // menu_items.user_id
	Name        string    // menu_items.name
	Price       float64   // menu_items.price
	Description string    // menu_items.description
	Status      string    // menu_items.status
	CreatedAt   time.Time // menu_items.created_at
	UpdatedAt   time.Time // menu_items.updated_at
}
