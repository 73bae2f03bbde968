package services

import (
	"fmt"
	"strings"

	"assistant-telegram/models"
)

// OrderStatusLabel maps platform statuses to the labels users see. Unknown
// statuses read as pending, matching how the mobile client renders them.
func OrderStatusLabel(status string) string {
	switch strings.ToUpper(status) {
	case models.OrderStatusDelivered:
		return "Entregue"
	case models.OrderStatusCanceled:
		return "Cancelado"
	default:
		return "Pendente"
	}
}

// TrackedStatus reports whether the status belongs in the order-tracking
// view; other transient statuses are filtered out.
func TrackedStatus(status string) bool {
	switch strings.ToUpper(status) {
	case models.OrderStatusPending, models.OrderStatusCanceled, models.OrderStatusDelivered:
		return true
	}
	return false
}

// FormatOrders renders the order-tracking view.
func FormatOrders(orders []models.Order) string {
	shown := 0
	var b strings.Builder
	for _, o := range orders {
		if !TrackedStatus(o.Status) {
			continue
		}
		shown++
		fmt.Fprintf(&b, "Pedido de %s — %s\n", o.CreatedAt.Format("02/01 15:04"), OrderStatusLabel(o.Status))
		for _, item := range o.Items {
			fmt.Fprintf(&b, "  %dx %s — R$ %.2f\n", item.Quantity, item.Name, item.UnitPrice)
		}
		fmt.Fprintf(&b, "  Total: R$ %.2f\n\n", o.Total)
	}
	if shown == 0 {
		return "Você ainda não fez pedidos neste restaurante."
	}
	return strings.TrimRight(b.String(), "\n")
}
