package convai

import (
	"context"
	"errors"
	"net/url"
	"strconv"
)

// StatusDone is the only terminal conversation status.
const StatusDone = "done"

// ConversationRef is one entry of the recent-conversations listing.
type ConversationRef struct {
	ConversationID string `json:"conversation_id"`
	AgentID        string `json:"agent_id,omitempty"`
	Status         string `json:"status"`
	StartTimeUnix  int64  `json:"start_time_unix_secs,omitempty"`
}

// Done reports whether the conversation reached its terminal status.
func (r ConversationRef) Done() bool {
	return r.Status == StatusDone
}

// Turn is one transcript message.
type Turn struct {
	Role    string `json:"role"`
	Message string `json:"message"`
}

// Analysis is the platform's post-call analysis.
type Analysis struct {
	Summary           *string `json:"summary,omitempty"`
	TranscriptSummary *string `json:"transcript_summary,omitempty"`
}

// Conversation is the full detail of one conversation.
type Conversation struct {
	ConversationID string    `json:"conversation_id"`
	Status         string    `json:"status"`
	Transcript     []Turn    `json:"transcript,omitempty"`
	Analysis       *Analysis `json:"analysis,omitempty"`
}

type listResponse struct {
	Conversations []ConversationRef `json:"conversations"`
	HasMore       bool              `json:"has_more"`
	NextCursor    *string           `json:"next_cursor"`
}

// ListConversations returns the agent's most recent conversations, newest first.
func (c *Client) ListConversations(ctx context.Context, agentID string, pageSize int) ([]ConversationRef, error) {
	if agentID == "" {
		agentID = c.agentID
	}
	q := url.Values{}
	q.Set("agent_id", agentID)
	if pageSize > 0 {
		q.Set("page_size", strconv.Itoa(pageSize))
	}

	var out listResponse
	if err := c.getJSON(ctx, c.endpoint("/v1/convai/conversations", q), &out); err != nil {
		return nil, err
	}
	return out.Conversations, nil
}

// Conversation fetches the detail of one conversation.
func (c *Client) Conversation(ctx context.Context, conversationID string) (*Conversation, error) {
	if conversationID == "" {
		return nil, errors.New("convai: conversation id must not be empty")
	}

	var out Conversation
	if err := c.getJSON(ctx, c.endpoint("/v1/convai/conversations/"+url.PathEscape(conversationID), nil), &out); err != nil {
		return nil, err
	}
	return &out, nil
}
