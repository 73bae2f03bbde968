package models

// CartLine is one selected menu item with its snapshotted unit price. The
// price is copied from the menu item when the line is created, so a menu
// edit mid-session cannot change an already-built cart total.
type CartLine struct {
	ItemID    string  `json:"item_id"`
	Name      string  `json:"item_name"`
	UnitPrice float64 `json:"item_price"`
	Quantity  int     `json:"quantity"`
	Image     string  `json:"image,omitempty"`
}

func (l CartLine) Subtotal() float64 {
	return l.UnitPrice * float64(l.Quantity)
}
