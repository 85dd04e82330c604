// Package order composes the order confirmation shown when the agent
// places an order, and the payload of the WhatsApp confirmation webhook.
package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/chriscow/cinema-kiosk-go/pkg/panel"
	"github.com/chriscow/cinema-kiosk-go/pkg/state"
)

const (
	// NotAvailable fills movie fields when no selection was made.
	NotAvailable = "N/A"
	// NoFoodItems is the cart summary of an empty cart.
	NoFoodItems = "No food items"

	studio      = "Studio 1"
	pickupPoint = "Pickup 3"
)

// Summary is a point-in-time copy of the selection and cart.
type Summary struct {
	MovieName string
	Showtime  string
	Lines     []panel.CartLine
	Total     float64
	PlacedAt  time.Time
}

// Compose builds the order summary from a snapshot. The result owns its
// data so later state changes never alter it.
func Compose(s state.Snapshot, placedAt time.Time) Summary {
	sum := Summary{
		MovieName: NotAvailable,
		Showtime:  NotAvailable,
		PlacedAt:  placedAt,
	}

	if sel, ok := s.Selection(); ok {
		if sel.MovieName != "" {
			sum.MovieName = sel.MovieName
		}
		if sel.Showtime != "" {
			sum.Showtime = sel.Showtime
		}
	}

	if cart, ok := s.Cart(); ok {
		view := panel.AggregateCart(cart.Items)
		sum.Lines = append([]panel.CartLine(nil), view.Lines...)
		sum.Total = view.Total
	}
	return sum
}

// HasFood reports whether the order includes any food.
func (s Summary) HasFood() bool {
	return len(s.Lines) > 0
}

// CartItemsSummary joins the item names of the order.
func (s Summary) CartItemsSummary() string {
	return CartItemsSummary(s.Lines)
}

// PickupMessage tells the customer where to go.
func (s Summary) PickupMessage() string {
	return fmt.Sprintf("Your movie will play at %s at %s, and you can pick up your order at %s.",
		studio, s.Showtime, pickupPoint)
}

// LineText renders one food line as "name × qty".
func LineText(l panel.CartLine) string {
	return fmt.Sprintf("%s × %d", l.Name, l.Quantity)
}

// CartItemsSummary joins item names with ", " or returns NoFoodItems.
func CartItemsSummary(lines []panel.CartLine) string {
	if len(lines) == 0 {
		return NoFoodItems
	}
	names := make([]string, 0, len(lines))
	for _, l := range lines {
		names = append(names, l.Name)
	}
	return strings.Join(names, ", ")
}
