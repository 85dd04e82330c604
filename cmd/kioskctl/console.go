package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/chriscow/cinema-kiosk-go/pkg/avatar"
	"github.com/chriscow/cinema-kiosk-go/pkg/kiosk"
	"github.com/chriscow/cinema-kiosk-go/pkg/markup"
	"github.com/chriscow/cinema-kiosk-go/pkg/order"
	"github.com/chriscow/cinema-kiosk-go/pkg/overlay"
	"github.com/chriscow/cinema-kiosk-go/pkg/panel"
	"github.com/chriscow/cinema-kiosk-go/pkg/session"
	"github.com/chriscow/cinema-kiosk-go/pkg/summary"
)

const defaultClipLength = 5 * time.Second

// consoleSurface prints the kiosk display and session notices.
type consoleSurface struct {
	mu   sync.Mutex
	out  io.Writer
	html bool
}

func (s *consoleSurface) Show(sc kiosk.Screen) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.html {
		f, err := markup.Render(sc.Frame, sc.Overlay)
		if err != nil {
			fmt.Fprintf(s.out, "render error: %v\n", err)
			return
		}
		fmt.Fprintf(s.out, "%s\n%s\n%s\n", f.Bottom, f.Side, f.Overlay)
		return
	}
	fmt.Fprint(s.out, describeScreen(sc))
}

func (s *consoleSurface) SessionState(st session.State) {
	s.printf("[session] %s\n", st)
}

func (s *consoleSurface) Alert(err error) {
	s.printf("[alert] %s\n", alertText(err))
}

func (s *consoleSurface) Summary(res summary.Result, err error) {
	s.printf("\n%s\n", summary.Describe(res, err))
}

func (s *consoleSurface) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, format, args...)
}

func alertText(err error) string {
	switch {
	case errors.Is(err, session.ErrPermissionDenied):
		return "Microphone access is required to talk to the kiosk."
	case errors.Is(err, session.ErrCredentialFetchFailed):
		return "Could not start the conversation. Please try again."
	case errors.Is(err, session.ErrAssetsLoading):
		return "The kiosk is still loading. Please wait."
	default:
		return "Connection problem: " + err.Error()
	}
}

// describeScreen renders a screen as plain text.
func describeScreen(sc kiosk.Screen) string {
	var b strings.Builder
	f := sc.Frame
	fmt.Fprintf(&b, "── %s ──\n", orNone(string(f.LastTool)))

	if sc.BottomVisible() {
		switch {
		case f.Bottom.Showtimes != nil:
			fmt.Fprintf(&b, "Showtimes at %s\n", f.Bottom.Showtimes.CinemaName)
			for _, m := range f.Bottom.Showtimes.Movies {
				fmt.Fprintf(&b, "  %s  %s\n", m.Name, strings.Join(m.Showtimes, " "))
			}
		case f.Bottom.Food != nil:
			b.WriteString("Food & drinks\n")
			for _, item := range f.Bottom.Food.Items {
				fmt.Fprintf(&b, "  %s  %s\n", item.Name, panel.FormatPrice(item.Price))
			}
		}
	}

	if sel := f.Side.Selection; sel != nil {
		fmt.Fprintf(&b, "Selected: %s %s\n", sel.MovieName, sel.Showtime)
	} else {
		fmt.Fprintf(&b, "Selected: %s\n", panel.EmptySelectionText)
	}
	if f.Side.Cart.Empty() {
		fmt.Fprintf(&b, "Cart: %s\n", panel.EmptyCartText)
	} else {
		b.WriteString("Cart:\n")
		for _, l := range f.Side.Cart.Lines {
			fmt.Fprintf(&b, "  %s  %s\n", order.LineText(l), panel.FormatPrice(l.Subtotal))
		}
		fmt.Fprintf(&b, "  Total %s\n", panel.FormatPrice(f.Side.Cart.Total))
	}

	switch sc.Overlay.Kind {
	case overlay.KindOrder:
		o := sc.Overlay.Order
		fmt.Fprintf(&b, "[order] %s at %s, %s, total %s\n  %s\n",
			orNA(o.MovieName), orNA(o.Showtime), o.CartItemsSummary(), panel.FormatPrice(o.Total), o.PickupMessage())
	case overlay.KindTrailer:
		t := sc.Overlay.Trailer
		if t.Broken {
			fmt.Fprintf(&b, "[trailer] unavailable for %q\n", t.MovieCode)
		} else {
			fmt.Fprintf(&b, "[trailer] %s\n", t.URL)
		}
	}
	return b.String()
}

func orNone(s string) string {
	if s == "" {
		return "idle"
	}
	return s
}

func orNA(s string) string {
	if s == "" {
		return order.NotAvailable
	}
	return s
}

// consoleMic stands in for the browser permission prompt.
type consoleMic struct {
	deny bool
}

func (m consoleMic) RequestPermission(context.Context) error {
	if m.deny {
		return errors.New("permission dismissed")
	}
	return nil
}

// clipPlayer simulates a video element: playback starts immediately and
// ends after a fixed clip length.
type clipPlayer struct {
	length time.Duration
	logger *slog.Logger
	ended  func(avatar.Asset)

	mu    sync.Mutex
	timer *time.Timer
}

func (p *clipPlayer) Play(ctx context.Context, a avatar.Asset) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.logger.Debug("Avatar clip playing", slog.String("clip", a.Name))

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.timer != nil {
		p.timer.Stop()
	}
	p.timer = time.AfterFunc(p.length, func() {
		if p.ended != nil {
			p.ended(a)
		}
	})
	return nil
}

func (p *clipPlayer) stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.timer != nil {
		p.timer.Stop()
	}
}
