package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecalculate(t *testing.T) {
	order := &Order{
		Items: []OrderItem{
			{Name: "Tagine", UnitPrice: 80, Quantity: 1},
			{Name: "Juice", UnitPrice: 20, Quantity: 2},
		},
		Discount: 20,
	}

	order.Recalculate()

	assert.Equal(t, 120.0, order.Subtotal)
	assert.Equal(t, 100.0, order.Total)
}

func TestRecalculateTotalFlooredAtZero(t *testing.T) {
	order := &Order{
		Items:    []OrderItem{{Name: "Mint Tea", UnitPrice: 10, Quantity: 1}},
		Discount: 50,
	}

	order.Recalculate()

	assert.Equal(t, 10.0, order.Subtotal)
	assert.Equal(t, 0.0, order.Total)
}

func TestRecalculateEmptyOrder(t *testing.T) {
	order := &Order{Discount: 5}
	order.Recalculate()

	assert.Equal(t, 0.0, order.Subtotal)
	assert.Equal(t, 0.0, order.Total)
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, (&Order{Status: string(OrderPending)}).IsTerminal())
	assert.False(t, (&Order{Status: string(OrderReady)}).IsTerminal())
	assert.True(t, (&Order{Status: string(OrderCompleted)}).IsTerminal())
	assert.True(t, (&Order{Status: string(OrderCancelled)}).IsTerminal())
}
