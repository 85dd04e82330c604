package summary

import (
	"errors"
	"testing"

	"github.com/matryer/is"

	"github.com/chriscow/cinema-kiosk-go/pkg/convai"
)

func TestDescribe(t *testing.T) {
	sum := "Booked Dune at 19:30."
	ts := "Customer booked a movie."

	tests := []struct {
		name string
		res  Result
		err  error
		want string
	}{
		{
			name: "everything",
			res: Result{Summary: &sum, TranscriptSummary: &ts, Transcript: []convai.Turn{
				{Role: "user", Message: "hi"},
				{Role: "agent", Message: "hello"},
			}},
			want: "Transcript Summary:\nCustomer booked a movie.\n\nSummary:\nBooked Dune at 19:30.\n\nTranscript:\nuser: hi\nagent: hello",
		},
		{
			name: "transcript only",
			res:  Result{Transcript: []convai.Turn{{Role: "user", Message: "hi"}}},
			want: "Transcript:\nuser: hi",
		},
		{
			name: "nothing",
			want: "No summary or transcript available.",
		},
		{
			name: "timeout",
			err:  &TimeoutError{LastError: "No conversations found for agent"},
			want: "Summary not ready yet. No conversations found for agent",
		},
		{
			name: "timeout without reason",
			err:  &TimeoutError{},
			want: "Summary not ready yet. Timeout waiting for conversation to complete.",
		},
		{
			name: "detail failure",
			err:  errors.New("boom"),
			want: "Error loading summary: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			is := is.New(t)
			is.Equal(Describe(tt.res, tt.err), tt.want)
		})
	}
}
