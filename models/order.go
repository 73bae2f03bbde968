package models

import "time"

const (
	OrderStatusPending   = "PENDING"
	OrderStatusCanceled  = "CANCELED"
	OrderStatusDelivered = "DELIVERED"
)

// Order is a submitted order as the platform reports it back.
type Order struct {
	ID        string     `json:"_id"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	Items     []CartLine `json:"items"`
	Total     float64    `json:"total"`
}
