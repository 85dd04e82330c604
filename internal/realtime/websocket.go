package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	handshakeTimeout = 10 * time.Second
	closeGracePeriod = time.Second
)

// conn wraps a websocket connection to the agent. Reads happen on one
// goroutine and writes on another; Close may be called from anywhere.
type conn struct {
	ws     *websocket.Conn
	logger *slog.Logger

	closeOnce sync.Once
}

func dial(ctx context.Context, signedURL string, logger *slog.Logger) (*conn, error) {
	u, err := url.Parse(signedURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	logger.Debug("Connecting to WebSocket", slog.String("host", u.Host))

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = handshakeTimeout

	ws, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	logger.Info("WebSocket connected", slog.String("host", u.Host))
	return &conn{ws: ws, logger: logger}, nil
}

func (c *conn) read() (*Inbound, error) {
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		return nil, err
	}

	var msg Inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		c.logger.Warn("Dropping malformed event", slog.String("error", err.Error()))
		return &Inbound{}, nil
	}

	if msg.Type != TypeAudio && msg.Type != TypePing {
		c.logger.Debug("Received event", slog.String("type", msg.Type))
	}
	return &msg, nil
}

func (c *conn) write(v any) error {
	if err := c.ws.WriteJSON(v); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return nil
}

// closeNormal sends a normal-closure frame before closing the socket.
func (c *conn) closeNormal() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	err := c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGracePeriod))
	if cerr := c.close(); err == nil {
		err = cerr
	}
	return err
}

func (c *conn) close() error {
	var err error
	c.closeOnce.Do(func() {
		c.logger.Info("Closing WebSocket connection")
		err = c.ws.Close()
	})
	return err
}

// isCleanClose reports whether err is the peer ending the conversation.
func isCleanClose(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}
