package convai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/matryer/is"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient("test-key", "agent_1", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c, srv
}

func TestNewClient_Validation(t *testing.T) {
	is := is.New(t)

	_, err := NewClient("", "agent")
	is.True(err != nil) // empty key rejected
	_, err = NewClient("key", " ")
	is.True(err != nil) // empty agent rejected
}

func TestClient_SignedURL(t *testing.T) {
	is := is.New(t)

	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/convai/conversation/get-signed-url" || r.URL.Query().Get("agent_id") != "agent_1" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("xi-api-key") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"signed_url":"wss://example/convai?token=abc"}`))
	})

	cred, err := c.SessionCredential(context.Background())
	is.NoErr(err)
	is.Equal(cred.SignedURL, "wss://example/convai?token=abc")
}

func TestClient_ListConversations(t *testing.T) {
	is := is.New(t)

	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page_size") != "3" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"conversations":[{"conversation_id":"c1","status":"processing"},{"conversation_id":"c0","status":"done"}],"has_more":false}`))
	})

	refs, err := c.ListConversations(context.Background(), "", 3)
	is.NoErr(err)
	is.Equal(len(refs), 2)
	is.Equal(refs[0].ConversationID, "c1")
	is.True(!refs[0].Done()) // processing is not terminal
	is.True(refs[1].Done())
}

func TestClient_Conversation(t *testing.T) {
	is := is.New(t)

	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		is.Equal(r.URL.Path, "/v1/convai/conversations/c1")
		_, _ = w.Write([]byte(`{"conversation_id":"c1","status":"done",
			"transcript":[{"role":"user","message":"hi"},{"role":"agent","message":"hello"}],
			"analysis":{"transcript_summary":"Customer said hi."}}`))
	})

	conv, err := c.Conversation(context.Background(), "c1")
	is.NoErr(err)
	is.Equal(len(conv.Transcript), 2)
	is.Equal(conv.Transcript[0], Turn{Role: "user", Message: "hi"})
	is.Equal(*conv.Analysis.TranscriptSummary, "Customer said hi.")
	is.True(conv.Analysis.Summary == nil) // absent fields stay nil
}

func TestClient_StatusError(t *testing.T) {
	is := is.New(t)

	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})

	_, err := c.SignedURL(context.Background())
	var statusErr *HTTPStatusError
	is.True(errors.As(err, &statusErr)) // non-2xx surfaces as HTTPStatusError
	is.Equal(statusErr.HTTPStatusCode(), http.StatusTooManyRequests)
}

func TestEndpointCredentials(t *testing.T) {
	is := is.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"signedUrl":"wss://example/s","conversationId":"c9"}`))
	}))
	defer srv.Close()

	cred, err := (&EndpointCredentials{URL: srv.URL}).SessionCredential(context.Background())
	is.NoErr(err)
	is.Equal(cred, Credential{SignedURL: "wss://example/s", ConversationID: "c9"})

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()

	_, err = (&EndpointCredentials{URL: failing.URL}).SessionCredential(context.Background())
	is.True(err != nil) // non-success response fails
}
