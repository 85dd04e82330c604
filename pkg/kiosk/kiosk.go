// Package kiosk binds the tool registry to session state, panel rendering,
// overlays and the avatar. It is the dispatch target of a voice session.
package kiosk

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/chriscow/cinema-kiosk-go/pkg/avatar"
	"github.com/chriscow/cinema-kiosk-go/pkg/order"
	"github.com/chriscow/cinema-kiosk-go/pkg/overlay"
	"github.com/chriscow/cinema-kiosk-go/pkg/panel"
	"github.com/chriscow/cinema-kiosk-go/pkg/state"
	"github.com/chriscow/cinema-kiosk-go/pkg/tool"
)

// Screen is everything the display surface shows.
type Screen struct {
	Frame   panel.Frame
	Overlay overlay.View
}

// BottomVisible reports whether the bottom panel is shown. Any open overlay
// hides it, including one left open by an earlier tool call.
func (s Screen) BottomVisible() bool {
	return s.Frame.BottomVisible() && !s.Overlay.Visible()
}

// Surface receives every screen update, in order.
type Surface interface {
	Show(Screen)
}

// SurfaceFunc adapts a function to Surface.
type SurfaceFunc func(Screen)

func (f SurfaceFunc) Show(s Screen) { f(s) }

// Config wires a Kiosk. Avatar and Surface are optional.
type Config struct {
	Avatar  *avatar.Controller
	Overlay *overlay.Controller
	Surface Surface
	Logger  *slog.Logger
}

// Kiosk owns the session state of the active conversation.
type Kiosk struct {
	mu       sync.Mutex
	store    *state.Store
	registry *tool.Registry
	overlay  *overlay.Controller
	avatar   *avatar.Controller
	surface  Surface
	logger   *slog.Logger
	metrics  *Metrics
	screen   Screen
}

// New creates a kiosk with a handler registered for every tool.
func New(cfg Config) *Kiosk {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ov := cfg.Overlay
	if ov == nil {
		ov = overlay.NewController("", logger)
	}

	k := &Kiosk{
		store:    state.NewStore(),
		registry: tool.NewRegistry(logger),
		overlay:  ov,
		avatar:   cfg.Avatar,
		surface:  cfg.Surface,
		logger:   logger,
		metrics:  newMetrics(),
	}
	for _, name := range tool.Names {
		k.registry.Register(name, k.handle)
	}
	return k
}

// Registry returns the tool registry.
func (k *Kiosk) Registry() *tool.Registry {
	return k.registry
}

// Dispatch routes an agent tool call through the registry.
func (k *Kiosk) Dispatch(ctx context.Context, name string, params json.RawMessage) (tool.Result, error) {
	return k.registry.Invoke(ctx, name, params)
}

// Metrics returns the kiosk's activity counters.
func (k *Kiosk) Metrics() *Metrics {
	return k.metrics
}

// Snapshot returns the current session state.
func (k *Kiosk) Snapshot() state.Snapshot {
	return k.store.Snapshot()
}

// Screen returns the last published screen.
func (k *Kiosk) Screen() Screen {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.screen
}

// handle records the invocation and re-renders the whole screen from the
// resulting snapshot.
func (k *Kiosk) handle(ctx context.Context, inv tool.Invocation) error {
	k.mu.Lock()
	k.store.Record(inv)
	k.metrics.toolCalled(inv.Name)
	snap := k.store.Snapshot()
	frame := panel.Render(snap)

	switch frame.Directive.Kind {
	case panel.DirectiveOrder:
		k.overlay.OpenOrder(order.Compose(snap, inv.ReceivedAt))
		k.metrics.Overlays.Add(overlay.KindOrder.String(), 1)
	case panel.DirectiveTrailer:
		k.overlay.OpenTrailer(frame.Directive.TrailerCode)
		k.metrics.Overlays.Add(overlay.KindTrailer.String(), 1)
	}
	k.publishLocked(frame)
	k.mu.Unlock()

	if k.avatar != nil {
		k.avatar.Post(avatar.Event{Type: avatar.EventTool, Tool: inv.Name})
	}
	return nil
}

// CloseOverlay is the user dismissing the order confirmation or trailer.
// Session state is untouched.
func (k *Kiosk) CloseOverlay() {
	k.mu.Lock()
	defer k.mu.Unlock()

	if !k.overlay.Close().Visible() {
		return
	}
	frame := k.screen.Frame
	frame.Directive = panel.Directive{}
	k.publishLocked(frame)
}

// SetSpeaking relays the agent's speaking mode to the avatar.
func (k *Kiosk) SetSpeaking(_ context.Context, speaking bool) error {
	if k.avatar != nil {
		k.avatar.Post(avatar.Event{Type: avatar.EventSpeaking, Speaking: speaking})
	}
	return nil
}

// MediaEnded relays the natural end of an avatar clip.
func (k *Kiosk) MediaEnded(a avatar.Asset) {
	if k.avatar != nil {
		k.avatar.Post(avatar.Event{Type: avatar.EventEnded, Asset: a})
	}
}

// Reset clears session state at a session boundary. An open overlay stays
// until the user closes it.
func (k *Kiosk) Reset() {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.store.Reset()
	k.publishLocked(panel.Render(k.store.Snapshot()))
}

// Run drives the avatar until ctx is cancelled.
func (k *Kiosk) Run(ctx context.Context) error {
	if k.avatar == nil {
		<-ctx.Done()
		return nil
	}
	return k.avatar.Run(ctx)
}

func (k *Kiosk) publishLocked(frame panel.Frame) {
	k.screen = Screen{Frame: frame, Overlay: k.overlay.Current()}
	k.metrics.Renders.Add(1)
	if k.surface != nil {
		k.surface.Show(k.screen)
	}
	k.logger.Debug("Screen updated",
		slog.String("last_tool", string(frame.LastTool)),
		slog.String("overlay", k.screen.Overlay.Kind.String()),
		slog.Bool("bottom_visible", k.screen.BottomVisible()))
}
