package services

import (
	"strings"
	"testing"
	"time"

	"assistant-telegram/models"
)

func TestOrderStatusLabel(t *testing.T) {
	tests := []struct {
		status string
		want   string
	}{
		{"DELIVERED", "Entregue"},
		{"delivered", "Entregue"},
		{"CANCELED", "Cancelado"},
		{"PENDING", "Pendente"},
		{"", "Pendente"},
		{"SOMETHING_NEW", "Pendente"},
	}
	for _, tt := range tests {
		if got := OrderStatusLabel(tt.status); got != tt.want {
			t.Errorf("OrderStatusLabel(%q) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestTrackedStatus(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{"PENDING", true},
		{"pending", true},
		{"CANCELED", true},
		{"DELIVERED", true},
		{"PREPARING", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := TrackedStatus(tt.status); got != tt.want {
			t.Errorf("TrackedStatus(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestFormatOrders(t *testing.T) {
	orders := []models.Order{
		{
			ID:        "o1",
			Status:    "DELIVERED",
			CreatedAt: time.Date(2026, 2, 10, 19, 30, 0, 0, time.UTC),
			Items: []models.CartLine{
				{ItemID: "b1", Name: "Burger", UnitPrice: 10, Quantity: 2},
			},
			Total: 20,
		},
		{ID: "o2", Status: "PREPARING", Total: 5}, // filtered out
	}

	got := FormatOrders(orders)
	if !strings.Contains(got, "Entregue") {
		t.Errorf("missing status label: %s", got)
	}
	if !strings.Contains(got, "2x Burger") {
		t.Errorf("missing item line: %s", got)
	}
	if !strings.Contains(got, "R$ 20.00") {
		t.Errorf("missing total: %s", got)
	}
	if strings.Contains(got, "PREPARING") || strings.Count(got, "Pedido de") != 1 {
		t.Errorf("untracked status should be filtered: %s", got)
	}
}

func TestFormatOrdersEmpty(t *testing.T) {
	got := FormatOrders(nil)
	if !strings.Contains(got, "ainda não fez pedidos") {
		t.Errorf("empty list message wrong: %s", got)
	}
}
