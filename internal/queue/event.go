// Package queue defines message payloads exchanged over the message broker.
package queue

// OrderPlacedQueue is the durable queue carrying OrderPlacedEvent messages.
const OrderPlacedQueue = "order.placed"

// OrderLine is one menu line of a placed order as carried on the wire.
type OrderLine struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity uint32  `json:"quantity"`
}

// OrderPlacedEvent is published when a customer order is accepted. It carries
// enough information for downstream consumers to log, notify the kitchen, or
// feed analytics without querying the primary database.
type OrderPlacedEvent struct {
	OrderID      string      `json:"order_id"`
	UserID       string      `json:"user_id"`
	TableID      string      `json:"table_id"`
	TableName    string      `json:"table_name"`
	CustomerName string      `json:"customer_name"`
	Items        []OrderLine `json:"items"`
	Total        float64     `json:"total"`
	PlacedAt     string      `json:"placed_at"`
}
