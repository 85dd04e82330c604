// Package tool defines the closed set of client tools the conversational
// agent may invoke, their payload schemas, and the registry that dispatches
// invocations to handlers.
package tool

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrUnknownTool indicates the agent invoked a tool name outside the closed set.
var ErrUnknownTool = errors.New("unknown tool")

// Name identifies a client tool.
type Name string

const (
	ShowCinemasShowtimes Name = "show_cinemas_showtimes"
	ShowFoodItems        Name = "show_food_items"
	UpdateCart           Name = "update_cart"
	PlaceOrder           Name = "place_order"
	PlayMovieTrailer     Name = "play_movie_trailer"
	SetMovieSelection    Name = "set_movie_selection"
)

// Names lists every tool in registration order.
var Names = []Name{
	ShowCinemasShowtimes,
	ShowFoodItems,
	UpdateCart,
	PlaceOrder,
	PlayMovieTrailer,
	SetMovieSelection,
}

var descriptions = map[Name]string{
	ShowCinemasShowtimes: "Display the cinema name and movies with their poster and showtimes",
	ShowFoodItems:        "Display up to 10 food items with name, price and image",
	UpdateCart:           "Replace the cart with the full list of food items, quantities and prices",
	PlaceOrder:           "Show the order confirmation for the selected movie and cart",
	PlayMovieTrailer:     "Play the trailer for a movie code",
	SetMovieSelection:    "Record the movie and showtime the customer picked",
}

// ParseName validates s against the closed set of tool names.
func ParseName(s string) (Name, error) {
	n := Name(s)
	if _, ok := descriptions[n]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTool, s)
	}
	return n, nil
}

// Description returns the human-readable purpose of the tool.
func (n Name) Description() string {
	return descriptions[n]
}

func (n Name) String() string { return string(n) }

// Movie is one entry of the showtimes panel.
type Movie struct {
	Name      string   `json:"movie_name"`
	ImageURL  string   `json:"image_url,omitempty"`
	Showtimes []string `json:"showtimes"`
}

// Showtimes is the show_cinemas_showtimes payload.
type Showtimes struct {
	CinemaName string  `json:"cinema_name"`
	Movies     []Movie `json:"movies"`
}

// FoodItem is one entry of the food menu.
type FoodItem struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	ImageURL string  `json:"image_url,omitempty"`
}

// FoodItems is the show_food_items payload.
type FoodItems struct {
	Items []FoodItem `json:"food_items"`
}

// CartItem is one line of the cart as sent by the agent. Quantity and Price
// are pointers so a missing field is distinguishable from zero.
type CartItem struct {
	Name     string   `json:"name"`
	Quantity *float64 `json:"quantity"`
	Price    *float64 `json:"price"`
}

// Cart is the update_cart payload. It always carries the full cart.
type Cart struct {
	Items []CartItem `json:"cart_items"`
}

// Order is the place_order payload. It has no fields.
type Order struct{}

// Trailer is the play_movie_trailer payload.
type Trailer struct {
	MovieCode string `json:"movie_code"`
}

// MovieSelection is the set_movie_selection payload.
type MovieSelection struct {
	MovieName string `json:"movie_name"`
	Showtime  string `json:"showtime"`
}

// Invocation is a recorded tool call. It is never mutated after creation.
type Invocation struct {
	ID         string
	Name       Name
	Payload    any
	ReceivedAt time.Time
}

// Decode parses raw parameters into the payload type for name.
// Cart items that fail to decode are dropped individually and reported in skipped.
func Decode(name Name, raw json.RawMessage) (payload any, skipped int, err error) {
	if len(raw) == 0 || string(raw) == "null" {
		raw = json.RawMessage("{}")
	}

	switch name {
	case ShowCinemasShowtimes:
		var p Showtimes
		err = json.Unmarshal(raw, &p)
		return p, 0, err
	case ShowFoodItems:
		var p FoodItems
		err = json.Unmarshal(raw, &p)
		return p, 0, err
	case UpdateCart:
		return decodeCart(raw)
	case PlaceOrder:
		return Order{}, 0, nil
	case PlayMovieTrailer:
		var p Trailer
		err = json.Unmarshal(raw, &p)
		return p, 0, err
	case SetMovieSelection:
		var p MovieSelection
		err = json.Unmarshal(raw, &p)
		return p, 0, err
	default:
		return nil, 0, fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}
}

func decodeCart(raw json.RawMessage) (Cart, int, error) {
	var envelope struct {
		Items []json.RawMessage `json:"cart_items"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return Cart{}, 0, err
	}

	cart := Cart{Items: make([]CartItem, 0, len(envelope.Items))}
	skipped := 0
	for _, itemRaw := range envelope.Items {
		var item CartItem
		if err := json.Unmarshal(itemRaw, &item); err != nil {
			slog.Debug("Dropping undecodable cart item",
				slog.String("item", string(itemRaw)),
				slog.String("error", err.Error()))
			skipped++
			continue
		}
		cart.Items = append(cart.Items, item)
	}
	return cart, skipped, nil
}
