// Package inventory derives a ticket's capacity, sold count, revenue and
// status from its declared capacity and live available quantity. Nothing
// computed here is ever stored; every read re-derives it.
package inventory

import "github.com/iliyamo/event-ticketing-admin/internal/model"

// Result is the derived state of one ticket.
type Result struct {
	Capacity  int
	Sold      int
	Available int
	Revenue   model.Money
	Status    model.TicketStatus
}

// Reconcile derives ticket state. A declared capacity of zero or less
// falls back to the live available quantity, which makes sold zero for
// tickets that predate the capacity field.
func Reconcile(declared, available int, price model.Money, visible bool) Result {
	capacity := declared
	if capacity <= 0 {
		capacity = available
	}
	if capacity < 0 {
		capacity = 0
	}
	remaining := available
	if remaining < 0 {
		// oversold at the remote; never report more sold than capacity
		remaining = 0
	}
	sold := capacity - remaining
	if sold < 0 {
		sold = 0
	}
	status := model.TicketActive
	switch {
	case !visible:
		status = model.TicketHidden
	case available <= 0:
		status = model.TicketSoldOut
	}
	return Result{
		Capacity:  capacity,
		Sold:      sold,
		Available: available,
		Revenue:   price.Mul(sold),
		Status:    status,
	}
}

// Apply re-runs reconciliation on a ticket in place.
func Apply(t *model.Ticket) {
	r := Reconcile(t.InventoryQuantity, t.Available, t.Price, t.IsVisible)
	t.Capacity = r.Capacity
	t.Sold = r.Sold
	t.Revenue = r.Revenue
	t.Status = r.Status
}

// TotalSold sums sold across tickets.
func TotalSold(tickets []model.Ticket) int {
	n := 0
	for _, t := range tickets {
		n += t.Sold
	}
	return n
}

// TotalRevenue sums revenue across tickets.
func TotalRevenue(tickets []model.Ticket) model.Money {
	var m model.Money
	for _, t := range tickets {
		m += t.Revenue
	}
	return m
}

// HasSellable reports whether any ticket still has stock.
func HasSellable(tickets []model.Ticket) bool {
	for _, t := range tickets {
		if t.Available > 0 {
			return true
		}
	}
	return false
}
