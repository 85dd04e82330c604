// Package realtime speaks the conversational agent's websocket protocol and
// adapts it to session callbacks.
package realtime

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/jonboulle/clockwork"

	"github.com/chriscow/cinema-kiosk-go/pkg/session"
)

// ErrConnectionLost indicates the websocket failed without a clean close.
var ErrConnectionLost = errors.New("realtime connection lost")

const channelSize = 100

// Dialer opens realtime sessions on signed websocket URLs.
type Dialer struct {
	logger         *slog.Logger
	clock          clockwork.Clock
	audio          io.Writer
	bytesPerSecond int
}

type Option func(*Dialer)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Dialer) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithClock sets the clock used to estimate the end of agent speech.
func WithClock(clock clockwork.Clock) Option {
	return func(d *Dialer) { d.clock = clock }
}

// WithAudioSink receives decoded agent audio.
func WithAudioSink(w io.Writer) Option {
	return func(d *Dialer) { d.audio = w }
}

// WithAudioRate sets the byte rate of agent audio.
func WithAudioRate(bytesPerSecond int) Option {
	return func(d *Dialer) { d.bytesPerSecond = bytesPerSecond }
}

func NewDialer(opts ...Option) *Dialer {
	d := &Dialer{
		logger:         slog.Default(),
		clock:          clockwork.NewRealClock(),
		bytesPerSecond: PCM16kBytesPerSecond,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dial connects, sends the client initiation message and starts processing
// events. ctx bounds the handshake only.
func (d *Dialer) Dial(ctx context.Context, signedURL string, cb session.Callbacks) (session.Handle, error) {
	c, err := dial(ctx, signedURL, d.logger)
	if err != nil {
		return nil, err
	}
	if err := c.write(initiationClientData{Type: TypeInitiationClientData}); err != nil {
		_ = c.close()
		return nil, err
	}

	s := &Session{
		conn:   c,
		cb:     cb,
		logger: d.logger,
		audio:  d.audio,
		mode:   NewModeTracker(d.clock, d.bytesPerSecond),
		in:     make(chan *Inbound, channelSize),
		out:    make(chan any, channelSize),
		done:   make(chan struct{}),
	}
	s.ctx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	s.start()
	return s, nil
}

// Session is an open realtime conversation.
type Session struct {
	conn   *conn
	cb     session.Callbacks
	logger *slog.Logger
	audio  io.Writer
	mode   *ModeTracker

	in      chan *Inbound
	out     chan any
	readErr error

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	ending atomic.Bool
	done   chan struct{}
}

func (s *Session) start() {
	s.wg.Add(3)
	go func() {
		defer s.wg.Done()
		s.readEvents()
	}()
	go func() {
		defer s.wg.Done()
		s.writeMessages()
	}()
	go func() {
		defer s.wg.Done()
		s.processEvents()
	}()
	go func() {
		s.wg.Wait()
		close(s.done)
	}()
}

// End closes the conversation. No callbacks fire after End.
func (s *Session) End(ctx context.Context) error {
	if s.ending.Swap(true) {
		return nil
	}

	if err := s.conn.closeNormal(); err != nil {
		s.logger.Debug("Close handshake incomplete", slog.String("error", err.Error()))
	}
	s.cancel()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed once all session goroutines have exited.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) readEvents() {
	defer close(s.in)
	for {
		msg, err := s.conn.read()
		if err != nil {
			s.readErr = err
			return
		}
		if msg.Type == "" {
			continue
		}

		select {
		case s.in <- msg:
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Session) writeMessages() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case msg := <-s.out:
			if err := s.conn.write(msg); err != nil {
				s.logger.Warn("Write failed, closing connection", slog.String("error", err.Error()))
				_ = s.conn.close()
				return
			}
		}
	}
}

func (s *Session) processEvents() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.mode.Expired():
			if s.mode.Elapsed() {
				s.modeChange(session.ModeListening)
			}
		case msg, ok := <-s.in:
			if !ok {
				s.terminate(s.readErr)
				return
			}
			s.handle(msg)
		}
	}
}

func (s *Session) handle(msg *Inbound) {
	switch msg.Type {
	case TypeInitiationMetadata:
		var id string
		if msg.InitiationMetadata != nil {
			id = msg.InitiationMetadata.ConversationID
		}
		if s.cb.OnConnect != nil && !s.ending.Load() {
			s.cb.OnConnect(id)
		}

	case TypePing:
		if msg.Ping != nil {
			s.send(pong{Type: TypePong, EventID: msg.Ping.EventID})
		}

	case TypeClientToolCall:
		if msg.ToolCall != nil {
			s.handleToolCall(msg.ToolCall)
		}

	case TypeAudio:
		if msg.Audio != nil {
			s.handleAudio(msg.Audio)
		}

	case TypeInterruption:
		if s.mode.Stop() {
			s.modeChange(session.ModeListening)
		}

	case TypeAgentResponse:
		if msg.AgentResponse != nil {
			s.logger.Debug("Agent response", slog.String("text", msg.AgentResponse.Text))
		}

	case TypeUserTranscript:
		if msg.UserTranscript != nil {
			s.logger.Debug("User transcript", slog.String("text", msg.UserTranscript.Text))
		}

	default:
		s.logger.Debug("Unhandled event type", slog.String("type", msg.Type))
	}
}

func (s *Session) handleToolCall(call *ToolCall) {
	reply := toolResult{Type: TypeClientToolResult, ToolCallID: call.ToolCallID}

	if s.cb.Dispatch == nil {
		reply.IsError = true
		reply.Result = "no tool dispatcher"
		s.send(reply)
		return
	}

	res, err := s.cb.Dispatch(s.ctx, call.ToolName, call.Parameters)
	if err != nil {
		reply.IsError = true
		reply.Result = err.Error()
	} else {
		b, _ := json.Marshal(res)
		reply.Result = string(b)
	}
	s.send(reply)
}

func (s *Session) handleAudio(ev *AudioEvent) {
	data, err := base64.StdEncoding.DecodeString(ev.Audio)
	if err != nil {
		s.logger.Warn("Dropping undecodable audio", slog.Int("event_id", ev.EventID))
		return
	}
	if s.audio != nil {
		if _, err := s.audio.Write(data); err != nil {
			s.logger.Debug("Audio sink write failed", slog.String("error", err.Error()))
		}
	}
	if s.mode.Audio(len(data)) {
		s.modeChange(session.ModeSpeaking)
	}
}

func (s *Session) modeChange(m session.Mode) {
	if s.cb.OnModeChange != nil && !s.ending.Load() {
		s.cb.OnModeChange(m)
	}
}

// send queues msg for the writer, giving up once the session is closing.
func (s *Session) send(msg any) {
	select {
	case s.out <- msg:
	case <-s.ctx.Done():
	}
}

// terminate reports the end of the read stream unless End caused it.
func (s *Session) terminate(err error) {
	s.mode.Stop()
	if s.ending.Load() {
		return
	}
	s.cancel()
	_ = s.conn.close()

	if err != nil && !isCleanClose(err) {
		s.logger.Warn("Realtime connection lost", slog.String("error", err.Error()))
		if s.cb.OnError != nil {
			s.cb.OnError(fmt.Errorf("%w: %w", ErrConnectionLost, err))
		}
	} else {
		s.logger.Info("Agent ended the conversation")
	}
	if s.cb.OnDisconnect != nil {
		s.cb.OnDisconnect()
	}
}
