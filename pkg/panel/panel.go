// Package panel projects session state into the kiosk's presentational
// panels. Rendering is a pure function of a state snapshot; every frame is
// recomputed in full.
package panel

import (
	"github.com/chriscow/cinema-kiosk-go/pkg/state"
	"github.com/chriscow/cinema-kiosk-go/pkg/tool"
)

// MaxFoodItems is the most food items the food panel shows.
const MaxFoodItems = 10

const (
	EmptyCartText      = "Cart Empty"
	EmptySelectionText = "No movie selected"
)

// DirectiveKind tells the overlay controller what, if anything, to open.
type DirectiveKind int

const (
	DirectiveNone DirectiveKind = iota
	DirectiveOrder
	DirectiveTrailer
)

func (k DirectiveKind) String() string {
	switch k {
	case DirectiveOrder:
		return "order"
	case DirectiveTrailer:
		return "trailer"
	default:
		return "none"
	}
}

// Directive is the overlay hand-off for the current frame.
type Directive struct {
	Kind        DirectiveKind
	TrailerCode string
}

// MovieCard is one movie in the showtimes panel.
type MovieCard struct {
	Name      string
	ImageURL  string
	MovieCode string
	Showtimes []string
}

// ShowtimesView is the showtimes bottom panel.
type ShowtimesView struct {
	CinemaName string
	Movies     []MovieCard
}

// FoodCard is one item in the food panel.
type FoodCard struct {
	Name     string
	ImageURL string
	Price    float64
}

// FoodView is the food bottom panel.
type FoodView struct {
	Items     []FoodCard
	Truncated int // items past MaxFoodItems that were not rendered
}

// Bottom is the showtimes-or-food panel. Exactly one of Showtimes and Food is set.
type Bottom struct {
	Kind      tool.Name
	Showtimes *ShowtimesView
	Food      *FoodView
}

// SelectionView is the movie selection side panel.
type SelectionView struct {
	MovieName string
	Showtime  string
}

// Side is the always-visible side panel.
type Side struct {
	Selection *SelectionView
	Cart      CartView
}

// Frame is everything the kiosk displays for one snapshot.
type Frame struct {
	LastTool  tool.Name
	Directive Directive
	Bottom    *Bottom
	Side      Side
}

// BottomVisible reports whether the bottom panel is shown. Overlays suppress it.
func (f Frame) BottomVisible() bool {
	return f.Bottom != nil && f.Directive.Kind == DirectiveNone
}

// Render projects a snapshot into a frame.
func Render(s state.Snapshot) Frame {
	f := Frame{
		LastTool: s.LastTool,
		Bottom:   renderBottom(s),
		Side:     renderSide(s),
	}

	switch s.LastTool {
	case tool.PlaceOrder:
		f.Directive = Directive{Kind: DirectiveOrder}
	case tool.PlayMovieTrailer:
		t, _ := s.Trailer()
		f.Directive = Directive{Kind: DirectiveTrailer, TrailerCode: t.MovieCode}
	}
	return f
}

// renderBottom picks whichever of showtimes and food was recorded last, so
// other tools never blank the bottom panel.
func renderBottom(s state.Snapshot) *Bottom {
	shows, hasShows := s.Entry(tool.ShowCinemasShowtimes)
	food, hasFood := s.Entry(tool.ShowFoodItems)

	switch {
	case hasShows && (!hasFood || shows.Seq > food.Seq):
		p, _ := s.Showtimes()
		return &Bottom{Kind: tool.ShowCinemasShowtimes, Showtimes: renderShowtimes(p)}
	case hasFood:
		p, _ := s.Food()
		return &Bottom{Kind: tool.ShowFoodItems, Food: renderFood(p)}
	default:
		return nil
	}
}

func renderShowtimes(p tool.Showtimes) *ShowtimesView {
	v := &ShowtimesView{
		CinemaName: p.CinemaName,
		Movies:     make([]MovieCard, 0, len(p.Movies)),
	}
	for _, m := range p.Movies {
		v.Movies = append(v.Movies, MovieCard{
			Name:      m.Name,
			ImageURL:  m.ImageURL,
			MovieCode: MovieCodeFromImage(m.ImageURL),
			Showtimes: append([]string(nil), m.Showtimes...),
		})
	}
	return v
}

func renderFood(p tool.FoodItems) *FoodView {
	items := p.Items
	v := &FoodView{}
	if len(items) > MaxFoodItems {
		v.Truncated = len(items) - MaxFoodItems
		items = items[:MaxFoodItems]
	}
	v.Items = make([]FoodCard, 0, len(items))
	for _, it := range items {
		v.Items = append(v.Items, FoodCard{Name: it.Name, ImageURL: it.ImageURL, Price: it.Price})
	}
	return v
}

func renderSide(s state.Snapshot) Side {
	var side Side
	if sel, ok := s.Selection(); ok {
		side.Selection = &SelectionView{MovieName: sel.MovieName, Showtime: sel.Showtime}
	}
	if cart, ok := s.Cart(); ok {
		side.Cart = AggregateCart(cart.Items)
	}
	return side
}
