// Package avatar drives the kiosk's avatar video: looping idle and talk
// clips selected by the agent's speaking mode, interrupted by one-shot tool
// reaction clips.
package avatar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/chriscow/cinema-kiosk-go/pkg/retry"
	"github.com/chriscow/cinema-kiosk-go/pkg/tool"
)

var (
	// ErrPlaybackRetryExhausted means the avatar is frozen on its last frame.
	// It is non-fatal to the session.
	ErrPlaybackRetryExhausted = errors.New("avatar: playback retry exhausted")

	// ErrPlaybackDeferred is returned by players when the surface postponed playback.
	ErrPlaybackDeferred = retry.NewRecoverableError(nil, "avatar: playback deferred")

	ErrEmptyPool = errors.New("avatar: asset pool is empty")
)

// Player starts playback of an asset on the display surface. Play returns
// once playback has started; the surface reports the natural end through
// Controller.MediaEnded.
type Player interface {
	Play(ctx context.Context, a Asset) error
}

// State is the controller state.
type State int

const (
	StateIdle State = iota
	StateTalking
	StateToolOverride
)

func (s State) String() string {
	switch s {
	case StateTalking:
		return "talking"
	case StateToolOverride:
		return "tool_override"
	default:
		return "idle"
	}
}

// Mode is the speaking mode the avatar follows outside overrides.
type Mode int

const (
	ModeIdle Mode = iota
	ModeTalking
)

func (m Mode) String() string {
	if m == ModeTalking {
		return "talking"
	}
	return "idle"
}

func (m Mode) state() State {
	if m == ModeTalking {
		return StateTalking
	}
	return StateIdle
}

// PlaybackState is the externally visible playback state.
type PlaybackState struct {
	Mode               Mode
	ToolOverrideActive bool
}

// Controller is the avatar state machine. All methods are safe for
// concurrent use; Post and Run give strictly ordered processing.
type Controller struct {
	mu       sync.Mutex
	player   Player
	library  Library
	retryCfg retry.Config
	clock    clockwork.Clock
	pick     func(n int) int
	logger   *slog.Logger

	state    State
	mode     Mode // mode of the current or, during an override, the last base state
	pending  Mode // mode to restore when the override ends
	current  Asset
	gen      uint64
	degraded bool

	events chan Event
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock sets the clock used for retry delays.
func WithClock(c clockwork.Clock) Option {
	return func(ctrl *Controller) { ctrl.clock = c }
}

// WithRetry sets the playback start retry policy.
func WithRetry(cfg retry.Config) Option {
	return func(ctrl *Controller) { ctrl.retryCfg = cfg }
}

// WithPicker sets the random index source used to pick pool assets.
func WithPicker(pick func(n int) int) Option {
	return func(ctrl *Controller) { ctrl.pick = pick }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(ctrl *Controller) { ctrl.logger = l }
}

// NewController creates a controller in the Idle state. Nothing plays
// until Start is called.
func NewController(player Player, library Library, opts ...Option) *Controller {
	c := &Controller{
		player:   player,
		library:  library,
		retryCfg: retry.DefaultPlaybackConfig,
		clock:    clockwork.NewRealClock(),
		pick:     rand.IntN,
		logger:   slog.Default(),
		events:   make(chan Event, 64),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start plays an idle clip.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	c.state = StateIdle
	c.mode = ModeIdle
	g, a, err := c.enterLocked(ModeIdle)
	c.mu.Unlock()
	if err != nil {
		return err
	}
	return c.play(ctx, g, a)
}

// SetSpeaking applies the agent's speaking mode. During an override the
// mode is only remembered and takes effect when the override ends.
func (c *Controller) SetSpeaking(ctx context.Context, speaking bool) error {
	target := ModeIdle
	if speaking {
		target = ModeTalking
	}

	c.mu.Lock()
	if c.state == StateToolOverride {
		c.pending = target
		c.mu.Unlock()
		c.logger.Debug("Speaking mode deferred until override ends", slog.String("mode", target.String()))
		return nil
	}
	if c.state == target.state() && c.current.URL != "" {
		c.mu.Unlock()
		return nil
	}
	g, a, err := c.enterLocked(target)
	c.mu.Unlock()
	if err != nil {
		return err
	}
	return c.play(ctx, g, a)
}

// ToolInvoked plays the reaction clip for name, if it has one.
func (c *Controller) ToolInvoked(ctx context.Context, name tool.Name) error {
	a, ok := c.library.Reaction(name)
	if !ok {
		return nil
	}

	c.mu.Lock()
	if c.state != StateToolOverride {
		c.pending = c.mode
	}
	c.state = StateToolOverride
	c.current = a
	c.gen++
	g := c.gen
	c.mu.Unlock()

	c.logger.Debug("Playing tool reaction", slog.String("tool", string(name)), slog.String("asset", a.Name))
	return c.play(ctx, g, a)
}

// MediaEnded handles the natural end of asset a. Idle and talk clips loop;
// the end of a reaction clip restores the pending mode. Ends of clips that
// are no longer current are ignored.
func (c *Controller) MediaEnded(ctx context.Context, a Asset) error {
	c.mu.Lock()
	if a.URL != c.current.URL {
		c.mu.Unlock()
		return nil
	}

	var (
		g    uint64
		next Asset
		err  error
	)
	if c.state == StateToolOverride {
		g, next, err = c.enterLocked(c.pending)
	} else {
		c.gen++
		g, next = c.gen, c.current
	}
	c.mu.Unlock()
	if err != nil {
		return err
	}
	return c.play(ctx, g, next)
}

// State returns the controller state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Playback returns the visible playback state.
func (c *Controller) Playback() PlaybackState {
	c.mu.Lock()
	defer c.mu.Unlock()

	ps := PlaybackState{Mode: c.mode, ToolOverrideActive: c.state == StateToolOverride}
	if ps.ToolOverrideActive {
		ps.Mode = c.pending
	}
	return ps
}

// Current returns the asset that should be on screen.
func (c *Controller) Current() Asset {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Degraded reports whether the last playback start gave up.
func (c *Controller) Degraded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.degraded
}

// enterLocked moves to the base state for m with a freshly picked clip.
func (c *Controller) enterLocked(m Mode) (uint64, Asset, error) {
	pool := c.library.Idle
	if m == ModeTalking {
		pool = c.library.Talk
	}
	if len(pool) == 0 {
		return 0, Asset{}, fmt.Errorf("%w: %s", ErrEmptyPool, m)
	}

	c.state = m.state()
	c.mode = m
	c.current = pool[c.pick(len(pool))]
	c.gen++
	return c.gen, c.current, nil
}

func (c *Controller) isCurrent(g uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen == g
}

func (c *Controller) play(ctx context.Context, g uint64, a Asset) error {
	err := retry.Do(ctx, c.clock, c.retryCfg, func() bool { return c.isCurrent(g) }, func(attempt int) error {
		if attempt > 0 {
			c.logger.Debug("Retrying playback", slog.String("asset", a.Name), slog.Int("attempt", attempt))
		}
		return c.player.Play(ctx, a)
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != g {
		return nil
	}

	switch {
	case err == nil:
		c.degraded = false
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		c.degraded = true
		c.logger.Warn("Avatar playback failed, holding last frame",
			slog.String("asset", a.Name),
			slog.String("error", err.Error()))
		return fmt.Errorf("%w: %s: %w", ErrPlaybackRetryExhausted, a.Name, err)
	}
}
