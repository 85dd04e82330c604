package tool

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/matryer/is"
)

func TestParseName(t *testing.T) {
	is := is.New(t)

	for _, n := range Names {
		got, err := ParseName(string(n))
		is.NoErr(err)     // every listed tool should parse
		is.Equal(got, n)  // parsed name should round trip
	}

	_, err := ParseName("foo")
	is.True(errors.Is(err, ErrUnknownTool)) // unknown names are rejected
}

func TestRegistry_Register_Duplicate(t *testing.T) {
	is := is.New(t)
	r := NewRegistry(nil)
	r.Register(PlaceOrder, func(context.Context, Invocation) error { return nil })

	defer func() {
		is.True(recover() != nil) // duplicate registration should panic
	}()
	r.Register(PlaceOrder, func(context.Context, Invocation) error { return nil })
}

func TestRegistry_Invoke_Unknown(t *testing.T) {
	is := is.New(t)
	r := NewRegistry(nil)
	called := false
	for _, n := range Names {
		r.Register(n, func(context.Context, Invocation) error {
			called = true
			return nil
		})
	}

	res, err := r.Invoke(context.Background(), "foo", json.RawMessage(`{}`))

	is.True(errors.Is(err, ErrUnknownTool)) // unknown tool should be reported
	is.True(!res.Success)                   // unknown tool is not accepted
	is.True(!called)                        // no handler should run
}

func TestRegistry_Invoke_DecodesPayload(t *testing.T) {
	is := is.New(t)
	r := NewRegistry(nil)

	var got Invocation
	r.Register(SetMovieSelection, func(_ context.Context, inv Invocation) error {
		got = inv
		return nil
	})

	res, err := r.Invoke(context.Background(), "set_movie_selection",
		json.RawMessage(`{"movie_name":"Dune","showtime":"19:30"}`))

	is.NoErr(err)
	is.True(res.Success)            // accepted
	is.Equal(got.Name, SetMovieSelection)
	is.Equal(got.Payload, MovieSelection{MovieName: "Dune", Showtime: "19:30"})
	is.True(got.ID != "")           // invocation id assigned
	is.True(!got.ReceivedAt.IsZero()) // receipt time stamped
}

func TestRegistry_Invoke_SwallowsFailures(t *testing.T) {
	is := is.New(t)
	r := NewRegistry(nil)
	r.Register(UpdateCart, func(context.Context, Invocation) error {
		return errors.New("render failed")
	})
	r.Register(ShowFoodItems, func(context.Context, Invocation) error {
		panic("boom")
	})
	r.Register(SetMovieSelection, func(context.Context, Invocation) error {
		t.Fatal("handler should not run for undecodable params")
		return nil
	})

	res, err := r.Invoke(context.Background(), "update_cart", json.RawMessage(`{"cart_items":[]}`))
	is.NoErr(err)
	is.True(res.Success) // handler errors are not tool failures

	res, err = r.Invoke(context.Background(), "show_food_items", nil)
	is.NoErr(err)
	is.True(res.Success) // handler panics are contained

	res, err = r.Invoke(context.Background(), "set_movie_selection", json.RawMessage(`[1,2]`))
	is.NoErr(err)
	is.True(res.Success) // decode errors are not tool failures
}

func TestDecode_Cart(t *testing.T) {
	is := is.New(t)

	raw := json.RawMessage(`{"cart_items":[
		{"name":"Popcorn","quantity":2,"price":35000},
		{"name":"Coke","quantity":"two","price":15000},
		{"name":"Nachos","price":40000}
	]}`)

	payload, skipped, err := Decode(UpdateCart, raw)
	is.NoErr(err)
	cart := payload.(Cart)

	is.Equal(skipped, 1)          // the string quantity item is dropped
	is.Equal(len(cart.Items), 2)  // remaining items are kept for validation later
	is.Equal(*cart.Items[0].Quantity, 2.0)
	is.True(cart.Items[1].Quantity == nil) // missing fields are not invented
}

func TestDecode_EmptyParams(t *testing.T) {
	is := is.New(t)

	payload, _, err := Decode(PlaceOrder, nil)
	is.NoErr(err)
	is.Equal(payload, Order{})

	payload, _, err = Decode(PlayMovieTrailer, json.RawMessage("null"))
	is.NoErr(err)
	is.Equal(payload, Trailer{})
}

func TestRegistry_Descriptions(t *testing.T) {
	is := is.New(t)
	r := NewRegistry(nil)
	r.Register(PlaceOrder, func(context.Context, Invocation) error { return nil })

	ds := r.Descriptions()
	is.Equal(len(ds), len(Names))
	is.Equal(ds[0].Name, ShowCinemasShowtimes) // stable order
	is.True(ds[3].Registered)                  // place_order registered
	is.True(!ds[0].Registered)
	is.True(ds[0].Description != "")
}
