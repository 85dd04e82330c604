package realtime

import "encoding/json"

// Message types exchanged with the conversational agent.
const (
	TypeInitiationClientData = "conversation_initiation_client_data"
	TypeInitiationMetadata   = "conversation_initiation_metadata"
	TypePing                 = "ping"
	TypePong                 = "pong"
	TypeClientToolCall       = "client_tool_call"
	TypeClientToolResult     = "client_tool_result"
	TypeAudio                = "audio"
	TypeInterruption         = "interruption"
	TypeAgentResponse        = "agent_response"
	TypeUserTranscript       = "user_transcript"
)

// Inbound is a server event. Only the field matching Type is populated.
type Inbound struct {
	Type string `json:"type"`

	InitiationMetadata *InitiationMetadata `json:"conversation_initiation_metadata_event,omitempty"`
	Ping               *PingEvent          `json:"ping_event,omitempty"`
	ToolCall           *ToolCall           `json:"client_tool_call,omitempty"`
	Audio              *AudioEvent         `json:"audio_event,omitempty"`
	Interruption       *EventRef           `json:"interruption_event,omitempty"`
	AgentResponse      *AgentResponse      `json:"agent_response_event,omitempty"`
	UserTranscript     *UserTranscript     `json:"user_transcription_event,omitempty"`
}

type InitiationMetadata struct {
	ConversationID    string `json:"conversation_id"`
	AgentOutputFormat string `json:"agent_output_audio_format,omitempty"`
	UserInputFormat   string `json:"user_input_audio_format,omitempty"`
}

type PingEvent struct {
	EventID int `json:"event_id"`
	PingMS  int `json:"ping_ms,omitempty"`
}

type ToolCall struct {
	ToolName   string          `json:"tool_name"`
	ToolCallID string          `json:"tool_call_id"`
	Parameters json.RawMessage `json:"parameters,omitempty"`
}

type AudioEvent struct {
	Audio   string `json:"audio_base_64"`
	EventID int    `json:"event_id"`
}

type EventRef struct {
	EventID int `json:"event_id"`
}

type AgentResponse struct {
	Text string `json:"agent_response"`
}

type UserTranscript struct {
	Text string `json:"user_transcript"`
}

// Outbound messages.

type initiationClientData struct {
	Type string `json:"type"`
}

type pong struct {
	Type    string `json:"type"`
	EventID int    `json:"event_id"`
}

type toolResult struct {
	Type       string `json:"type"`
	ToolCallID string `json:"tool_call_id"`
	Result     string `json:"result"`
	IsError    bool   `json:"is_error"`
}
