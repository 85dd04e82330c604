package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/matryer/is"

	"github.com/chriscow/cinema-kiosk-go/pkg/kiosk"
	"github.com/chriscow/cinema-kiosk-go/pkg/session"
)

func TestParseCartItems(t *testing.T) {
	is := is.New(t)

	items, err := parseCartItems([]string{"Popcorn:2:35000", "Combo: Large:1:60000"})
	is.NoErr(err)
	is.Equal(len(items), 2)
	is.Equal(items[0].Name, "Popcorn")
	is.Equal(*items[0].Quantity, 2.0)
	is.Equal(items[1].Name, "Combo: Large") // name keeps its colon
	is.Equal(*items[1].Price, 60000.0)

	_, err = parseCartItems([]string{"Popcorn:2"})
	is.True(err != nil) // missing price
	_, err = parseCartItems([]string{"Popcorn:two:100"})
	is.True(err != nil) // bad quantity
}

func TestDescribeScreen(t *testing.T) {
	is := is.New(t)
	var screens []kiosk.Screen
	k := kiosk.New(kiosk.Config{Surface: kiosk.SurfaceFunc(func(s kiosk.Screen) { screens = append(screens, s) })})

	calls := []struct{ name, params string }{
		{"show_food_items", `{"food_items":[{"name":"Popcorn","price":35000}]}`},
		{"update_cart", `{"cart_items":[{"name":"Popcorn","quantity":2,"price":35000}]}`},
		{"set_movie_selection", `{"movie_name":"Dune","showtime":"19:30"}`},
		{"place_order", `{}`},
	}
	for _, c := range calls {
		_, err := k.Dispatch(context.Background(), c.name, json.RawMessage(c.params))
		is.NoErr(err)
	}

	text := describeScreen(screens[1])
	is.True(strings.Contains(text, "Popcorn  Rp35,000"))
	is.True(strings.Contains(text, "Popcorn × 2  Rp70,000"))
	is.True(strings.Contains(text, "Selected: No movie selected"))

	text = describeScreen(screens[3])
	is.True(!strings.Contains(text, "Food & drinks")) // bottom panel hidden under the order modal
	is.True(strings.Contains(text, "[order] Dune at 19:30, Popcorn, total Rp70,000"))
	is.True(strings.Contains(text, "Pickup 3"))
}

func TestDescribeScreen_TrailerHidesFood(t *testing.T) {
	is := is.New(t)
	k := kiosk.New(kiosk.Config{})

	for _, c := range []struct{ name, params string }{
		{"show_food_items", `{"food_items":[{"name":"Popcorn","price":35000}]}`},
		{"play_movie_trailer", `{"movie_code":"16DUNE"}`},
		{"update_cart", `{"cart_items":[{"name":"Popcorn","quantity":1,"price":35000}]}`},
	} {
		_, err := k.Dispatch(context.Background(), c.name, json.RawMessage(c.params))
		is.NoErr(err)
	}

	text := describeScreen(k.Screen())
	is.True(strings.Contains(text, "[trailer]"))
	is.True(!strings.Contains(text, "Food & drinks")) // trailer still open
}

func TestConsoleSurface_Alerts(t *testing.T) {
	is := is.New(t)
	var buf bytes.Buffer
	s := &consoleSurface{out: &buf}

	s.SessionState(session.StateConnecting)
	s.Alert(fmt.Errorf("%w: denied", session.ErrPermissionDenied))
	s.Alert(errors.New("socket closed"))

	out := buf.String()
	is.True(strings.Contains(out, "[session] connecting"))
	is.True(strings.Contains(out, "Microphone access is required"))
	is.True(strings.Contains(out, "Connection problem: socket closed"))
}

func TestConsoleMic(t *testing.T) {
	is := is.New(t)
	is.NoErr(consoleMic{}.RequestPermission(context.Background()))
	is.True(consoleMic{deny: true}.RequestPermission(context.Background()) != nil)
}
