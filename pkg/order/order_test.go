package order

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chriscow/cinema-kiosk-go/pkg/panel"
	"github.com/chriscow/cinema-kiosk-go/pkg/state"
	"github.com/chriscow/cinema-kiosk-go/pkg/tool"
	"github.com/matryer/is"
)

func f(v float64) *float64 { return &v }

func record(s *state.Store, name tool.Name, payload any) {
	s.Record(tool.Invocation{ID: string(name), Name: name, Payload: payload, ReceivedAt: time.Now()})
}

func TestCompose_NoSelection(t *testing.T) {
	is := is.New(t)

	sum := Compose(state.Snapshot{}, time.Time{})

	is.Equal(sum.MovieName, NotAvailable) // missing selection renders N/A
	is.Equal(sum.Showtime, NotAvailable)
	is.True(!sum.HasFood())
	is.Equal(sum.CartItemsSummary(), NoFoodItems)
	is.Equal(sum.PickupMessage(), "Your movie will play at Studio 1 at N/A, and you can pick up your order at Pickup 3.")
}

func TestCompose_IsSnapshot(t *testing.T) {
	is := is.New(t)
	s := state.NewStore()
	record(s, tool.SetMovieSelection, tool.MovieSelection{MovieName: "Dune", Showtime: "19:30"})
	record(s, tool.UpdateCart, tool.Cart{Items: []tool.CartItem{
		{Name: "Popcorn", Quantity: f(2), Price: f(35000)},
		{Name: "Coke", Quantity: f(1), Price: f(15000)},
	}})
	record(s, tool.PlaceOrder, tool.Order{})

	sum := Compose(s.Snapshot(), time.Now())

	record(s, tool.UpdateCart, tool.Cart{Items: []tool.CartItem{{Name: "Nachos", Quantity: f(9), Price: f(1)}}})

	is.Equal(sum.MovieName, "Dune")
	is.Equal(len(sum.Lines), 2)           // later cart updates do not alter the summary
	is.Equal(sum.Total, 85000.0)
	is.Equal(sum.CartItemsSummary(), "Popcorn, Coke")
	is.Equal(LineText(sum.Lines[0]), "Popcorn × 2")
}

func TestCartItemsSummary(t *testing.T) {
	is := is.New(t)
	is.Equal(CartItemsSummary(nil), "No food items")
	is.Equal(CartItemsSummary([]panel.CartLine{{Name: "Popcorn"}, {Name: "Coke"}, {Name: "Nachos"}}), "Popcorn, Coke, Nachos")
}

func TestConfirmation_Validate(t *testing.T) {
	is := is.New(t)
	sum := Summary{MovieName: "Dune", Showtime: "19:30"}

	is.NoErr(NewConfirmation("+62812", sum).Validate())
	is.True(errors.Is(NewConfirmation(" ", sum).Validate(), ErrMissingPhone))
	is.True(errors.Is(NewConfirmation("+62812", Summary{MovieName: NotAvailable, Showtime: NotAvailable}).Validate(), ErrMissingMovie))
}

func TestWebhookSender_Send(t *testing.T) {
	is := is.New(t)

	var got Confirmation
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		is.Equal(r.Method, http.MethodPost)
		is.Equal(r.Header.Get("Content-Type"), "application/json")
		is.NoErr(json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sender := NewWebhookSender(nil, WithWebhookURL(srv.URL), WithHTTPClient(srv.Client()))
	c := NewConfirmation("+62812", Summary{MovieName: "Dune", Showtime: "19:30"})

	is.NoErr(sender.Send(context.Background(), c))
	is.Equal(got, Confirmation{
		ReceiverPhoneNumber: "+62812",
		MovieName:           "Dune",
		MovieShowtime:       "19:30",
		CartItems:           "No food items",
	})
}

func TestWebhookSender_StatusError(t *testing.T) {
	is := is.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad number", http.StatusBadRequest)
	}))
	defer srv.Close()

	sender := NewWebhookSender(nil, WithWebhookURL(srv.URL))
	err := sender.Send(context.Background(), NewConfirmation("x", Summary{MovieName: "Dune", Showtime: "19:30"}))

	var statusErr *HTTPStatusError
	is.True(errors.As(err, &statusErr)) // non-2xx is an HTTPStatusError
	is.Equal(statusErr.HTTPStatusCode(), http.StatusBadRequest)
	is.Equal(statusErr.Body, "bad number")
}
