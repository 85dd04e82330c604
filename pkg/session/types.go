package session

import (
	"context"
	"encoding/json"

	"github.com/chriscow/cinema-kiosk-go/pkg/convai"
	"github.com/chriscow/cinema-kiosk-go/pkg/summary"
	"github.com/chriscow/cinema-kiosk-go/pkg/tool"
)

// State is the lifecycle state of one session instance.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Mode is the agent's speaking mode.
type Mode string

const (
	ModeSpeaking  Mode = "speaking"
	ModeListening Mode = "listening"
)

// Microphone grants or refuses audio capture.
type Microphone interface {
	RequestPermission(ctx context.Context) error
}

// CredentialSource issues a short-lived session credential.
type CredentialSource interface {
	SessionCredential(ctx context.Context) (convai.Credential, error)
}

// Dispatcher executes agent tool calls.
type Dispatcher interface {
	Dispatch(ctx context.Context, name string, params json.RawMessage) (tool.Result, error)
}

// Callbacks are the events a realtime session reports. Callbacks are
// invoked from the session's processing goroutine, in event order.
type Callbacks struct {
	Dispatch     func(ctx context.Context, name string, params json.RawMessage) (tool.Result, error)
	OnConnect    func(conversationID string)
	OnDisconnect func()
	OnError      func(err error)
	OnModeChange func(mode Mode)
}

// Handle controls an open realtime session.
type Handle interface {
	End(ctx context.Context) error
}

// Dialer opens realtime sessions.
type Dialer interface {
	Dial(ctx context.Context, signedURL string, cb Callbacks) (Handle, error)
}

// ModeSink follows the agent's speaking mode.
type ModeSink interface {
	SetSpeaking(ctx context.Context, speaking bool) error
}

// StateResetter clears session state at session boundaries.
type StateResetter interface {
	Reset()
}

// Summarizer retrieves the outcome of the conversation that just ended.
type Summarizer interface {
	Poll(ctx context.Context) (summary.Result, error)
}

// Readiness gates Start until assets are loaded.
type Readiness interface {
	Ready() bool
}

// Surface is the user-visible side of the session.
type Surface interface {
	SessionState(s State)
	Alert(err error)
	Summary(res summary.Result, err error)
}
