// Package session owns the lifecycle of one voice conversation: microphone
// permission, credential fetch, realtime session, and the summary poll that
// follows the end of the conversation.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/chriscow/cinema-kiosk-go/pkg/tool"
)

// Deps are the collaborators of a Controller. Mode, Summarizer, Ready and
// Surface are optional.
type Deps struct {
	Microphone  Microphone
	Credentials CredentialSource
	Dialer      Dialer
	Dispatcher  Dispatcher
	State       StateResetter
	Mode        ModeSink
	Summarizer  Summarizer
	Ready       Readiness
	Surface     Surface
	Logger      *slog.Logger
}

// Controller runs a single conversation. Once it has connected and then
// disconnected it cannot be started again; create a new Controller.
type Controller struct {
	deps   Deps
	logger *slog.Logger

	mu      sync.Mutex
	state   State
	closed  bool
	handle  Handle
	ctx     context.Context
	cancel  context.CancelFunc
	lastErr error

	done     chan struct{}
	doneOnce sync.Once
}

// New validates deps and creates a disconnected controller.
func New(deps Deps) (*Controller, error) {
	switch {
	case deps.Microphone == nil:
		return nil, errors.New("session: microphone must not be nil")
	case deps.Credentials == nil:
		return nil, errors.New("session: credential source must not be nil")
	case deps.Dialer == nil:
		return nil, errors.New("session: dialer must not be nil")
	case deps.Dispatcher == nil:
		return nil, errors.New("session: dispatcher must not be nil")
	case deps.State == nil:
		return nil, errors.New("session: state resetter must not be nil")
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		deps:   deps,
		logger: logger,
		done:   make(chan struct{}),
	}, nil
}

// State returns the lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Done is closed once the session has ended and any summary poll finished.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Start asks for the microphone, fetches a credential and opens the
// realtime session. A failed Start leaves the controller disconnected and
// startable again. Starting while connecting or connected fails with
// ErrAlreadyStarted.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return ErrSessionClosed
	case c.state != StateDisconnected:
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	if c.deps.Ready != nil && !c.deps.Ready.Ready() {
		c.mu.Unlock()
		return ErrAssetsLoading
	}
	c.state = StateConnecting
	c.mu.Unlock()
	c.notifyState(StateConnecting)

	h, err := c.open(ctx)
	if err != nil {
		c.mu.Lock()
		c.state = StateDisconnected
		// A hang-up reported during a failed dial does not end the controller.
		c.closed, c.lastErr = false, nil
		if c.cancel != nil {
			c.cancel()
		}
		c.mu.Unlock()

		c.logger.Error("Session failed to start", slog.String("error", err.Error()))
		c.notifyState(StateDisconnected)
		c.alert(err)
		return err
	}

	c.mu.Lock()
	if c.closed {
		// The remote side hung up during the handshake.
		c.state = StateDisconnected
		cancel := c.cancel
		c.mu.Unlock()

		_ = h.End(ctx)
		cancel()
		err := fmt.Errorf("%w: disconnected while opening", ErrTransport)
		c.notifyState(StateDisconnected)
		c.alert(err)
		c.closeDone()
		return err
	}
	c.handle = h
	c.state = StateConnected
	c.mu.Unlock()

	c.logger.Info("Session connected")
	c.notifyState(StateConnected)
	return nil
}

func (c *Controller) open(ctx context.Context) (Handle, error) {
	if err := c.deps.Microphone.RequestPermission(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	}

	cred, err := c.deps.Credentials.SessionCredential(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCredentialFetchFailed, err)
	}

	c.deps.State.Reset()

	sessCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.mu.Lock()
	c.ctx, c.cancel = sessCtx, cancel
	c.mu.Unlock()

	h, err := c.deps.Dialer.Dial(ctx, cred.SignedURL, Callbacks{
		Dispatch:     c.dispatch,
		OnConnect:    c.onConnect,
		OnDisconnect: c.onDisconnect,
		OnError:      c.onError,
		OnModeChange: c.onModeChange,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return h, nil
}

// End closes the realtime session, resets session state and starts the
// summary poll. Ending an ended session is a no-op.
func (c *Controller) End(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	if c.state != StateConnected {
		c.mu.Unlock()
		return ErrNotStarted
	}
	c.closed = true
	h := c.handle
	c.mu.Unlock()

	var endErr error
	if h != nil {
		if err := h.End(ctx); err != nil {
			endErr = fmt.Errorf("%w: %w", ErrTransport, err)
			c.logger.Warn("Error closing realtime session", slog.String("error", err.Error()))
		}
	}

	c.finish(true)
	return endErr
}

func (c *Controller) dispatch(ctx context.Context, name string, params json.RawMessage) (tool.Result, error) {
	if c.isClosed() {
		c.logger.Debug("Ignoring tool call on closed session", slog.String("tool", name))
		return tool.Result{}, ErrSessionClosed
	}

	res, err := c.deps.Dispatcher.Dispatch(ctx, name, params)
	if err != nil {
		// Unknown tools are not fatal to the conversation.
		c.logger.Warn("Tool call rejected", slog.String("tool", name), slog.String("error", err.Error()))
	}
	return res, err
}

func (c *Controller) onConnect(conversationID string) {
	c.logger.Info("Conversation started", slog.String("conversation_id", conversationID))
}

func (c *Controller) onModeChange(m Mode) {
	c.mu.Lock()
	ctx, closed := c.ctx, c.closed
	c.mu.Unlock()
	if closed || c.deps.Mode == nil {
		return
	}

	if err := c.deps.Mode.SetSpeaking(ctx, m == ModeSpeaking); err != nil {
		c.logger.Warn("Mode change not applied", slog.String("mode", string(m)), slog.String("error", err.Error()))
	}
}

func (c *Controller) onError(err error) {
	if c.isClosed() {
		return
	}
	err = fmt.Errorf("%w: %w", ErrTransport, err)

	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()

	c.logger.Error("Realtime session error", slog.String("error", err.Error()))
	c.alert(err)
}

// onDisconnect handles the remote side going away. A clean hang-up ends the
// conversation normally; after a transport error no summary is polled.
func (c *Controller) onDisconnect() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	connected := c.state == StateConnected
	failed := c.lastErr != nil
	c.mu.Unlock()

	if !connected {
		// Start owns cleanup while connecting.
		return
	}

	c.logger.Info("Session disconnected", slog.Bool("error", failed))
	c.finish(!failed)
}

// finish tears the session down and, when poll is set, retrieves the summary.
func (c *Controller) finish(poll bool) {
	c.mu.Lock()
	c.state = StateDisconnected
	ctx, cancel := c.ctx, c.cancel
	c.mu.Unlock()

	c.deps.State.Reset()
	if c.deps.Mode != nil {
		if err := c.deps.Mode.SetSpeaking(ctx, false); err != nil {
			c.logger.Debug("Avatar not returned to idle", slog.String("error", err.Error()))
		}
	}
	c.notifyState(StateDisconnected)

	if !poll || c.deps.Summarizer == nil {
		cancel()
		c.closeDone()
		return
	}

	go func() {
		defer c.closeDone()
		defer cancel()

		res, err := c.deps.Summarizer.Poll(ctx)
		if err != nil {
			c.logger.Warn("Conversation summary unavailable", slog.String("error", err.Error()))
		}
		if c.deps.Surface != nil {
			c.deps.Surface.Summary(res, err)
		}
	}()
}

func (c *Controller) closeDone() {
	c.doneOnce.Do(func() { close(c.done) })
}

func (c *Controller) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Controller) notifyState(s State) {
	if c.deps.Surface != nil {
		c.deps.Surface.SessionState(s)
	}
}

func (c *Controller) alert(err error) {
	if c.deps.Surface != nil {
		c.deps.Surface.Alert(err)
	}
}
