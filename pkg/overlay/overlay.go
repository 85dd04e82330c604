// Package overlay manages the exclusive full-screen presentations that
// preempt normal panels: the order confirmation and the trailer.
package overlay

import (
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"github.com/chriscow/cinema-kiosk-go/pkg/order"
)

// DefaultTrailerURLTemplate resolves a movie code to a trailer asset.
const DefaultTrailerURLTemplate = "https://nos.jkt-1.neo.id/media.cinema21.co.id/movie-trailer/%s.mp4"

var movieCodePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Kind is the overlay currently shown.
type Kind int

const (
	KindNone Kind = iota
	KindOrder
	KindTrailer
)

func (k Kind) String() string {
	switch k {
	case KindOrder:
		return "order"
	case KindTrailer:
		return "trailer"
	default:
		return "none"
	}
}

// Trailer is the resolved trailer presentation. Broken is set when the
// movie code could not be resolved to an asset.
type Trailer struct {
	MovieCode string
	URL       string
	Broken    bool
}

// View is the visible overlay.
type View struct {
	Kind     Kind
	Order    *order.Summary
	Trailer  *Trailer
	OpenedAt time.Time
}

// Visible reports whether an overlay is shown.
func (v View) Visible() bool {
	return v.Kind != KindNone
}

// Controller holds at most one overlay at a time.
type Controller struct {
	mu              sync.Mutex
	current         View
	trailerTemplate string
	logger          *slog.Logger
	now             func() time.Time
}

// NewController creates a controller. An empty template selects DefaultTrailerURLTemplate.
func NewController(trailerTemplate string, logger *slog.Logger) *Controller {
	if trailerTemplate == "" {
		trailerTemplate = DefaultTrailerURLTemplate
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		trailerTemplate: trailerTemplate,
		logger:          logger,
		now:             time.Now,
	}
}

// OpenOrder shows the order confirmation, replacing any open overlay.
func (c *Controller) OpenOrder(s order.Summary) View {
	s.Lines = append(s.Lines[:0:0], s.Lines...)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.replace(View{Kind: KindOrder, Order: &s, OpenedAt: c.now()})
	return c.current
}

// OpenTrailer shows the trailer for code, replacing any open overlay.
func (c *Controller) OpenTrailer(code string) View {
	t := c.ResolveTrailer(code)

	c.mu.Lock()
	defer c.mu.Unlock()

	if t.Broken {
		c.logger.Warn("Cannot resolve trailer", slog.String("movie_code", code))
	}
	c.replace(View{Kind: KindTrailer, Trailer: &t, OpenedAt: c.now()})
	return c.current
}

// Close hides the overlay and returns what was shown.
func (c *Controller) Close() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.current
	c.current = View{}
	if prev.Visible() {
		c.logger.Debug("Overlay closed", slog.String("kind", prev.Kind.String()))
	}
	return prev
}

// Current returns the visible overlay.
func (c *Controller) Current() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// ResolveTrailer maps a movie code to its trailer URL.
func (c *Controller) ResolveTrailer(code string) Trailer {
	if !movieCodePattern.MatchString(code) {
		return Trailer{MovieCode: code, Broken: true}
	}
	return Trailer{MovieCode: code, URL: fmt.Sprintf(c.trailerTemplate, code)}
}

func (c *Controller) replace(v View) {
	if c.current.Visible() && c.current.Kind != v.Kind {
		c.logger.Debug("Overlay replaced",
			slog.String("from", c.current.Kind.String()),
			slog.String("to", v.Kind.String()))
	}
	c.current = v
}
