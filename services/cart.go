package services

import (
	"context"
	"errors"
	"sync"

	"assistant-telegram/models"
	"assistant-telegram/platform"
)

var (
	ErrEmptyCart    = errors.New("cart has no items")
	ErrInvalidPrice = errors.New("menu item has a negative price")
)

// OrderSubmitter posts a finalized order. Satisfied by *platform.Client.
type OrderSubmitter interface {
	SubmitOrder(ctx context.Context, payload platform.OrderPayload) error
}

// Cart holds the in-memory selection for one ordering session. At most one
// line per menu item id; adding the same item again increments its quantity.
// Nothing is persisted; the cart dies with the session or on submission.
type Cart struct {
	submitter OrderSubmitter

	mu    sync.Mutex
	lines []models.CartLine
}

func NewCart(submitter OrderSubmitter) *Cart {
	return &Cart{submitter: submitter}
}

// AddItem merges by item id, snapshotting name, price and image at insertion
// time. A negative price is upstream data corruption and is rejected rather
// than coerced.
func (c *Cart) AddItem(item models.MenuItem) error {
	if item.Price < 0 {
		return ErrInvalidPrice
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.lines {
		if c.lines[i].ItemID == item.ID {
			c.lines[i].Quantity++
			return nil
		}
	}
	c.lines = append(c.lines, models.CartLine{
		ItemID:    item.ID,
		Name:      item.Name,
		UnitPrice: item.Price,
		Quantity:  1,
		Image:     item.Image,
	})
	return nil
}

// RemoveItem drops the whole line regardless of quantity.
func (c *Cart) RemoveItem(itemID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.lines {
		if c.lines[i].ItemID == itemID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return
		}
	}
}

// AdjustQuantity clamps at 1; reaching zero takes an explicit RemoveItem.
func (c *Cart) AdjustQuantity(itemID string, delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.lines {
		if c.lines[i].ItemID == itemID {
			q := c.lines[i].Quantity + delta
			if q < 1 {
				q = 1
			}
			c.lines[i].Quantity = q
			return
		}
	}
}

// Total is recomputed on every read.
func (c *Cart) Total() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total float64
	for _, l := range c.lines {
		total += l.Subtotal()
	}
	return total
}

// Lines returns a copy of the current selection in insertion order.
func (c *Cart) Lines() []models.CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Empty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines) == 0
}

// Clear drops the whole selection, used on modal dismissal.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
}

// Submit posts the order. On success the cart is emptied; on failure it is
// left untouched so the user can retry without re-adding items.
func (c *Cart) Submit(ctx context.Context, userID, restaurantID string) error {
	c.mu.Lock()
	if len(c.lines) == 0 {
		c.mu.Unlock()
		return ErrEmptyCart
	}
	items := make([]models.CartLine, len(c.lines))
	copy(items, c.lines)
	c.mu.Unlock()

	err := c.submitter.SubmitOrder(ctx, platform.OrderPayload{
		Items:        items,
		RestaurantID: restaurantID,
		UserID:       userID,
	})
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.lines = nil
	c.mu.Unlock()
	return nil
}
