package panel

import (
	"math"
	"strings"

	"github.com/chriscow/cinema-kiosk-go/pkg/tool"
)

// CartLine is one aggregated cart line.
type CartLine struct {
	Name      string
	Quantity  int
	UnitPrice float64
	Subtotal  float64
}

// CartView is the cart side panel.
type CartView struct {
	Lines   []CartLine
	Total   float64
	Skipped int // invalid items left out of the view
}

// Empty reports whether the cart has no valid lines.
func (c CartView) Empty() bool {
	return len(c.Lines) == 0
}

// AggregateCart validates items and merges them by name. Items with an empty
// name, a missing or negative price, or a quantity that is not an integer
// of at least one are skipped. Merged lines keep the first unit price seen
// and the order of first appearance.
func AggregateCart(items []tool.CartItem) CartView {
	var view CartView
	index := make(map[string]int, len(items))

	for _, item := range items {
		qty, ok := validQuantity(item.Quantity)
		name := strings.TrimSpace(item.Name)
		if !ok || name == "" || item.Price == nil || *item.Price < 0 || math.IsNaN(*item.Price) {
			view.Skipped++
			continue
		}

		if i, seen := index[name]; seen {
			view.Lines[i].Quantity += qty
			view.Lines[i].Subtotal = view.Lines[i].UnitPrice * float64(view.Lines[i].Quantity)
			continue
		}

		index[name] = len(view.Lines)
		view.Lines = append(view.Lines, CartLine{
			Name:      name,
			Quantity:  qty,
			UnitPrice: *item.Price,
			Subtotal:  *item.Price * float64(qty),
		})
	}

	for _, l := range view.Lines {
		view.Total += l.Subtotal
	}
	return view
}

func validQuantity(q *float64) (int, bool) {
	if q == nil || *q < 1 || *q != math.Trunc(*q) || *q > math.MaxInt32 {
		return 0, false
	}
	return int(*q), true
}
