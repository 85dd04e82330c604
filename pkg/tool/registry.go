package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Handler consumes a decoded invocation. A returned error is logged and
// never reported to the agent as a tool failure.
type Handler func(ctx context.Context, inv Invocation) error

// Result is what the agent receives for every accepted invocation.
type Result struct {
	Success bool `json:"success"`
}

// Registry maps tool names to handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[Name]Handler
	logger   *slog.Logger
	now      func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		handlers: make(map[Name]Handler),
		logger:   logger,
		now:      time.Now,
	}
}

// Register binds a handler to a tool.
// Panics if the name is outside the closed set or already registered.
func (r *Registry) Register(name Name, h Handler) {
	if _, err := ParseName(string(name)); err != nil {
		panic(fmt.Sprintf("tool %q is not a known tool", name))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[name]; exists {
		panic(fmt.Sprintf("tool %q already registered", name))
	}
	r.handlers[name] = h
}

// Registered reports whether a handler is bound to name.
func (r *Registry) Registered(name Name) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[name]
	return ok
}

// Invoke decodes params and runs the handler bound to name.
// Unknown names return ErrUnknownTool without side effects. For known names
// the result is always successful; decode and handler failures are logged.
func (r *Registry) Invoke(ctx context.Context, name string, params json.RawMessage) (Result, error) {
	n, err := ParseName(name)
	if err != nil {
		r.logger.Warn("Ignoring unknown tool", slog.String("tool", name))
		return Result{}, err
	}

	r.mu.RLock()
	h, ok := r.handlers[n]
	r.mu.RUnlock()
	if !ok {
		r.logger.Warn("Ignoring unregistered tool", slog.String("tool", name))
		return Result{}, fmt.Errorf("%w: %q has no handler", ErrUnknownTool, name)
	}

	payload, skipped, err := Decode(n, params)
	if err != nil {
		r.logger.Error("Failed to decode tool parameters",
			slog.String("tool", name),
			slog.String("error", err.Error()))
		return Result{Success: true}, nil
	}
	if skipped > 0 {
		r.logger.Warn("Skipped invalid items in tool payload",
			slog.String("tool", name),
			slog.Int("skipped", skipped))
	}

	inv := Invocation{
		ID:         uuid.NewString(),
		Name:       n,
		Payload:    payload,
		ReceivedAt: r.now(),
	}

	r.logger.Debug("Invoking tool", slog.String("tool", name), slog.String("invocation_id", inv.ID))

	if err := r.safeCall(ctx, h, inv); err != nil {
		r.logger.Error("Tool handler failed",
			slog.String("tool", name),
			slog.String("invocation_id", inv.ID),
			slog.String("error", err.Error()))
	}

	return Result{Success: true}, nil
}

func (r *Registry) safeCall(ctx context.Context, h Handler, inv Invocation) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("handler panicked: %v", p)
		}
	}()
	return h(ctx, inv)
}

// Descriptor describes a tool for listings.
type Descriptor struct {
	Name        Name
	Description string
	Registered  bool
}

// Descriptions lists every tool in the closed set with its registration status.
func (r *Registry) Descriptions() []Descriptor {
	out := make([]Descriptor, 0, len(Names))
	for _, n := range Names {
		out = append(out, Descriptor{
			Name:        n,
			Description: n.Description(),
			Registered:  r.Registered(n),
		})
	}
	return out
}
