package summary

import (
	"errors"
	"fmt"
	"strings"
)

// NoneAvailableText is shown when the conversation produced no output.
const NoneAvailableText = "No summary or transcript available."

// Describe renders the summary view text for a poll outcome. Errors are
// rendered inline rather than returned.
func Describe(res Result, err error) string {
	var timeout *TimeoutError
	switch {
	case errors.As(err, &timeout):
		return "Summary not ready yet. " + timeout.Message()
	case err != nil:
		return fmt.Sprintf("Error loading summary: %v", err)
	case !res.Available():
		return NoneAvailableText
	}

	var b strings.Builder
	if res.TranscriptSummary != nil {
		fmt.Fprintf(&b, "Transcript Summary:\n%s\n\n", *res.TranscriptSummary)
	}
	if res.Summary != nil {
		fmt.Fprintf(&b, "Summary:\n%s\n\n", *res.Summary)
	}
	if len(res.Transcript) > 0 {
		b.WriteString("Transcript:\n")
		for _, turn := range res.Transcript {
			fmt.Fprintf(&b, "%s: %s\n", turn.Role, turn.Message)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
