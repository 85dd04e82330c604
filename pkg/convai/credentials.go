package convai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Credential opens one realtime session.
type Credential struct {
	SignedURL      string `json:"signedUrl"`
	ConversationID string `json:"conversationId,omitempty"`
}

type signedURLResponse struct {
	SignedURL      string `json:"signed_url"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// SignedURL requests a short-lived signed websocket URL for the agent.
func (c *Client) SignedURL(ctx context.Context) (Credential, error) {
	q := url.Values{}
	q.Set("agent_id", c.agentID)

	var out signedURLResponse
	if err := c.getJSON(ctx, c.endpoint("/v1/convai/conversation/get-signed-url", q), &out); err != nil {
		return Credential{}, err
	}
	if out.SignedURL == "" {
		return Credential{}, errors.New("convai: response carried no signed url")
	}
	return Credential{SignedURL: out.SignedURL, ConversationID: out.ConversationID}, nil
}

// SessionCredential fetches a credential straight from the platform.
func (c *Client) SessionCredential(ctx context.Context) (Credential, error) {
	return c.SignedURL(ctx)
}

// EndpointCredentials fetches credentials from a kiosk backend that holds the
// platform key, e.g. GET /api/signed-url returning {signedUrl, conversationId}.
type EndpointCredentials struct {
	URL        string
	HTTPClient *http.Client
}

// SessionCredential fetches a credential from the backend endpoint.
func (e *EndpointCredentials) SessionCredential(ctx context.Context) (Credential, error) {
	if strings.TrimSpace(e.URL) == "" {
		return Credential{}, errors.New("convai: credential endpoint must not be empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.URL, nil)
	if err != nil {
		return Credential{}, fmt.Errorf("convai: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	client := e.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return Credential{}, fmt.Errorf("convai: request %s: %w", e.URL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Credential{}, fmt.Errorf("convai: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Credential{}, &HTTPStatusError{StatusCode: resp.StatusCode, URL: e.URL, Body: strings.TrimSpace(string(body))}
	}

	var cred Credential
	if err := json.Unmarshal(body, &cred); err != nil {
		return Credential{}, fmt.Errorf("convai: decode response: %w", err)
	}
	if cred.SignedURL == "" {
		return Credential{}, errors.New("convai: response carried no signed url")
	}
	return cred, nil
}
