package summary

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jonboulle/clockwork"
	"github.com/matryer/is"
	"github.com/redis/go-redis/v9"

	"github.com/chriscow/cinema-kiosk-go/pkg/convai"
	"github.com/chriscow/cinema-kiosk-go/pkg/retry"
)

type fakeAPI struct {
	mu        sync.Mutex
	lists     [][]convai.ConversationRef // one per call; the last repeats
	listErr   error
	detail    map[string]*convai.Conversation
	detailErr error
	listCalls int
	getCalls  int
}

func (f *fakeAPI) ListConversations(_ context.Context, agentID string, pageSize int) ([]convai.ConversationRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	if len(f.lists) == 0 {
		return nil, nil
	}
	i := min(f.listCalls-1, len(f.lists)-1)
	return f.lists[i], nil
}

func (f *fakeAPI) Conversation(_ context.Context, id string) (*convai.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.detailErr != nil {
		return nil, f.detailErr
	}
	return f.detail[id], nil
}

func (f *fakeAPI) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls, f.getCalls
}

type outcome struct {
	res Result
	err error
}

// runPoll starts Poll and advances the fake clock by one interval each time
// the poller waits, until Poll returns.
func runPoll(t *testing.T, p *Poller, fc *clockwork.FakeClock, interval time.Duration) (outcome, int) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		res, err := p.Poll(ctx)
		done <- outcome{res, err}
	}()

	waits := 0
	for {
		select {
		case o := <-done:
			return o, waits
		default:
		}

		waitCtx, waitCancel := context.WithTimeout(ctx, 50*time.Millisecond)
		err := fc.BlockUntilContext(waitCtx, 1)
		waitCancel()
		if err != nil {
			if ctx.Err() != nil {
				t.Fatal("poll did not finish")
			}
			continue
		}
		waits++
		fc.Advance(interval)
	}
}

func TestPoll_DoneOnThirdQuery(t *testing.T) {
	is := is.New(t)
	fc := clockwork.NewFakeClock()

	api := &fakeAPI{
		lists: [][]convai.ConversationRef{
			{{ConversationID: "c1", Status: "processing"}},
			{{ConversationID: "c1", Status: "processing"}},
			{{ConversationID: "c1", Status: "done"}},
		},
		detail: map[string]*convai.Conversation{
			"c1": {ConversationID: "c1", Status: "done", Transcript: []convai.Turn{{Role: "user", Message: "hi"}}},
		},
	}
	p := NewPoller(api, "agent", WithClock(fc))

	o, waits := runPoll(t, p, fc, DefaultPolicy.Interval)

	is.NoErr(o.err)
	is.Equal(waits, 2)                                               // two interval waits before done
	is.Equal(o.res.Transcript, []convai.Turn{{Role: "user", Message: "hi"}}) // transcript reported
	is.True(o.res.TranscriptSummary == nil)                         // no analysis
	is.True(o.res.Summary == nil)
	is.True(o.res.Available())
	lists, gets := api.calls()
	is.Equal(lists, 3)
	is.Equal(gets, 1)
}

func TestPoll_TimeoutEmptyList(t *testing.T) {
	is := is.New(t)
	fc := clockwork.NewFakeClock()
	api := &fakeAPI{}
	p := NewPoller(api, "agent", WithClock(fc))

	o, _ := runPoll(t, p, fc, DefaultPolicy.Interval)

	is.True(errors.Is(o.err, ErrPollTimeout)) // PollTimeout after the deadline
	var timeout *TimeoutError
	is.True(errors.As(o.err, &timeout))
	is.Equal(timeout.LastError, "No conversations found for agent")
	lists, gets := api.calls()
	is.Equal(lists, 10) // one query every 3s for 30s
	is.Equal(gets, 0)
}

func TestPoll_TransientReasons(t *testing.T) {
	tests := []struct {
		name    string
		api     *fakeAPI
		wantErr string
	}{
		{
			name:    "undefined id",
			api:     &fakeAPI{lists: [][]convai.ConversationRef{{{ConversationID: "undefined", Status: "done"}}}},
			wantErr: "Latest conversationId is undefined",
		},
		{
			name:    "missing id",
			api:     &fakeAPI{lists: [][]convai.ConversationRef{{{Status: "done"}}}},
			wantErr: "Latest conversationId is undefined",
		},
		{
			name:    "still processing",
			api:     &fakeAPI{lists: [][]convai.ConversationRef{{{ConversationID: "c2", Status: "in-progress"}}}},
			wantErr: "Conversation c2 not done yet (status: in-progress), waiting...",
		},
		{
			name:    "list failure",
			api:     &fakeAPI{listErr: errors.New("connection reset")},
			wantErr: "connection reset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			is := is.New(t)
			fc := clockwork.NewFakeClock()
			p := NewPoller(tt.api, "agent", WithClock(fc), WithPolicy(Policy{MaxWait: 6 * time.Second}))

			o, _ := runPoll(t, p, fc, DefaultPolicy.Interval)

			var timeout *TimeoutError
			is.True(errors.As(o.err, &timeout))
			is.Equal(timeout.Message(), tt.wantErr) // last transient reason carried
		})
	}
}

func TestPoll_DetailFetchFails(t *testing.T) {
	is := is.New(t)
	fc := clockwork.NewFakeClock()
	api := &fakeAPI{
		lists:     [][]convai.ConversationRef{{{ConversationID: "c1", Status: "done"}}},
		detailErr: &convai.HTTPStatusError{StatusCode: 404},
	}
	p := NewPoller(api, "agent", WithClock(fc))

	o, waits := runPoll(t, p, fc, DefaultPolicy.Interval)

	is.True(errors.Is(o.err, ErrDetailFetch)) // returned immediately
	is.Equal(waits, 0)
	var statusErr *convai.HTTPStatusError
	is.True(errors.As(o.err, &statusErr)) // cause preserved
}

func TestPoll_NoneAvailable(t *testing.T) {
	is := is.New(t)
	fc := clockwork.NewFakeClock()
	api := &fakeAPI{
		lists:  [][]convai.ConversationRef{{{ConversationID: "c1", Status: "done"}}},
		detail: map[string]*convai.Conversation{"c1": {ConversationID: "c1"}},
	}

	o, _ := runPoll(t, NewPoller(api, "agent", WithClock(fc)), fc, DefaultPolicy.Interval)

	is.NoErr(o.err)              // none available is not an error
	is.True(!o.res.Available())
	is.Equal(Describe(o.res, o.err), NoneAvailableText)
}

func TestPoll_BlankSummaryIsMissing(t *testing.T) {
	is := is.New(t)
	fc := clockwork.NewFakeClock()
	blank, spaces := "", "  "
	api := &fakeAPI{
		lists: [][]convai.ConversationRef{{{ConversationID: "c1", Status: "done"}}},
		detail: map[string]*convai.Conversation{"c1": {
			ConversationID: "c1",
			Analysis:       &convai.Analysis{Summary: &blank, TranscriptSummary: &spaces},
		}},
	}

	o, _ := runPoll(t, NewPoller(api, "agent", WithClock(fc)), fc, DefaultPolicy.Interval)

	is.NoErr(o.err)
	is.True(o.res.Summary == nil) // empty summary dropped
	is.True(!o.res.Available())
	is.Equal(Describe(o.res, o.err), NoneAvailableText)
}

func TestPoll_ContextCancelled(t *testing.T) {
	is := is.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPoller(&fakeAPI{}, "agent", WithClock(clockwork.NewFakeClock())).Poll(ctx)
	is.True(errors.Is(err, context.Canceled))
}

func TestTransientClassification(t *testing.T) {
	is := is.New(t)
	err := transient("No conversations found for agent", nil)

	is.True(errors.Is(err, ErrPollTransient))
	is.True(retry.IsRecoverable(err))
	is.Equal(err.Error(), "No conversations found for agent")
}

func TestPoll_UsesCache(t *testing.T) {
	is := is.New(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	cache := NewRedisCache(client, time.Hour)

	text := "Customer ordered popcorn."
	api := &fakeAPI{
		lists: [][]convai.ConversationRef{{{ConversationID: "c1", Status: "done"}}},
		detail: map[string]*convai.Conversation{
			"c1": {ConversationID: "c1", Analysis: &convai.Analysis{TranscriptSummary: &text}},
		},
	}

	for i := 0; i < 2; i++ {
		fc := clockwork.NewFakeClock()
		o, _ := runPoll(t, NewPoller(api, "agent", WithClock(fc), WithCache(cache)), fc, DefaultPolicy.Interval)
		is.NoErr(o.err)
		is.Equal(*o.res.TranscriptSummary, text)
	}

	_, gets := api.calls()
	is.Equal(gets, 1)                                     // second poll served from cache
	is.True(mr.Exists("conversation:c1:summary"))         // stored under the conversation key
	is.True(mr.TTL("conversation:c1:summary") > 0)
}
