package models

// MenuItem is owned by the platform's menu service; the client only reads it.
type MenuItem struct {
	ID          string  `json:"_id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description,omitempty"`
	Image       string  `json:"image,omitempty"`
}
