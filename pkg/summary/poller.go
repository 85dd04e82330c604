// Package summary retrieves the transcript and summary of a just-ended
// conversation by polling the platform until processing completes.
package summary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/chriscow/cinema-kiosk-go/pkg/convai"
	"github.com/chriscow/cinema-kiosk-go/pkg/retry"
)

// API is the slice of the platform the poller needs.
type API interface {
	ListConversations(ctx context.Context, agentID string, pageSize int) ([]convai.ConversationRef, error)
	Conversation(ctx context.Context, conversationID string) (*convai.Conversation, error)
}

// Policy bounds one poll run. Waits between attempts count against MaxWait.
type Policy struct {
	MaxWait  time.Duration
	Interval time.Duration
	PageSize int
}

// DefaultPolicy waits up to 30 seconds, polling every 3.
var DefaultPolicy = Policy{
	MaxWait:  30 * time.Second,
	Interval: 3 * time.Second,
	PageSize: 3,
}

// Result is the retrieved conversation output. Every field is optional.
type Result struct {
	ConversationID    string        `json:"conversationId,omitempty"`
	Summary           *string       `json:"summary"`
	TranscriptSummary *string       `json:"transcriptSummary"`
	Transcript        []convai.Turn `json:"transcript"`
}

// Available reports whether there is anything to show. An unavailable
// result is a valid outcome, not an error.
func (r Result) Available() bool {
	return r.Summary != nil || r.TranscriptSummary != nil || len(r.Transcript) > 0
}

// Poller polls for the latest conversation of one agent.
type Poller struct {
	api     API
	agentID string
	policy  Policy
	clock   clockwork.Clock
	cache   Cache
	logger  *slog.Logger
}

// Option configures a Poller.
type Option func(*Poller)

// WithPolicy overrides DefaultPolicy. Zero fields keep their defaults.
func WithPolicy(p Policy) Option {
	return func(pl *Poller) {
		if p.MaxWait > 0 {
			pl.policy.MaxWait = p.MaxWait
		}
		if p.Interval > 0 {
			pl.policy.Interval = p.Interval
		}
		if p.PageSize > 0 {
			pl.policy.PageSize = p.PageSize
		}
	}
}

// WithClock sets the clock.
func WithClock(c clockwork.Clock) Option {
	return func(pl *Poller) { pl.clock = c }
}

// WithCache stores fetched results by conversation id.
func WithCache(c Cache) Option {
	return func(pl *Poller) { pl.cache = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(pl *Poller) {
		if l != nil {
			pl.logger = l
		}
	}
}

// NewPoller creates a poller.
func NewPoller(api API, agentID string, opts ...Option) *Poller {
	p := &Poller{
		api:     api,
		agentID: agentID,
		policy:  DefaultPolicy,
		clock:   clockwork.NewRealClock(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Poll repeats the latest-conversation query until it is done, then fetches
// its detail. It fails with *TimeoutError when MaxWait elapses first and
// with ErrDetailFetch when the detail of a done conversation cannot be read.
func (p *Poller) Poll(ctx context.Context) (Result, error) {
	start := p.clock.Now()
	var lastErr string
	attempts := 0

	for p.clock.Since(start) < p.policy.MaxWait {
		attempts++
		id, err := p.latestDone(ctx)
		if err == nil {
			p.logger.Info("Conversation ready",
				slog.String("conversation_id", id),
				slog.Int("attempts", attempts),
				slog.Duration("elapsed", p.clock.Since(start)))
			return p.fetch(ctx, id)
		}
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}

		lastErr = err.Error()
		p.logger.Debug("Conversation not ready", slog.String("reason", lastErr), slog.Int("attempt", attempts))

		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-p.clock.After(p.policy.Interval):
		}
	}

	p.logger.Warn("Timed out waiting for conversation",
		slog.Int("attempts", attempts),
		slog.String("last_error", lastErr))
	return Result{}, &TimeoutError{LastError: lastErr, Waited: p.clock.Since(start)}
}

// latestDone returns the id of the newest conversation if it is done. Any
// other outcome is a transient error whose message explains the wait.
func (p *Poller) latestDone(ctx context.Context) (string, error) {
	refs, err := p.api.ListConversations(ctx, p.agentID, p.policy.PageSize)
	if err != nil {
		return "", transient(err.Error(), err)
	}
	if len(refs) == 0 {
		return "", transient("No conversations found for agent", nil)
	}

	latest := refs[0]
	if latest.ConversationID == "" || latest.ConversationID == "undefined" {
		return "", transient("Latest conversationId is undefined", nil)
	}
	if !latest.Done() {
		return "", transient(fmt.Sprintf("Conversation %s not done yet (status: %s), waiting...",
			latest.ConversationID, latest.Status), nil)
	}
	return latest.ConversationID, nil
}

func (p *Poller) fetch(ctx context.Context, id string) (Result, error) {
	if p.cache != nil {
		if res, ok, err := p.cache.Get(ctx, id); err != nil {
			p.logger.Warn("Summary cache read failed", slog.String("conversation_id", id), slog.Any("error", err))
		} else if ok {
			p.logger.Debug("Summary cache hit", slog.String("conversation_id", id))
			return res, nil
		}
	}

	conv, err := p.api.Conversation(ctx, id)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s: %w", ErrDetailFetch, id, err)
	}

	res := Result{ConversationID: id, Transcript: conv.Transcript}
	if conv.Analysis != nil {
		res.Summary = nonEmpty(conv.Analysis.Summary)
		res.TranscriptSummary = nonEmpty(conv.Analysis.TranscriptSummary)
	}

	if p.cache != nil {
		if err := p.cache.Set(ctx, id, res); err != nil {
			p.logger.Warn("Summary cache write failed", slog.String("conversation_id", id), slog.Any("error", err))
		}
	}
	return res, nil
}

// nonEmpty treats a blank summary the same as a missing one.
func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

func transient(reason string, cause error) error {
	if cause == nil {
		cause = ErrPollTransient
	} else {
		cause = errors.Join(ErrPollTransient, cause)
	}
	return retry.NewRecoverableError(cause, reason)
}
