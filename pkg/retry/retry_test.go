package retry

import (
	"context"
	"errors"
	"testing"

	"github.com/matryer/is"
)

func TestClassification(t *testing.T) {
	is := is.New(t)

	cause := errors.New("play() deferred")
	rec := NewRecoverableError(cause, "")
	fatal := NewFatalError(cause, "unsupported source")

	is.True(IsRecoverable(rec))             // recoverable error should be recoverable
	is.True(!IsFatal(rec))                  // recoverable error should not be fatal
	is.True(IsFatal(fatal))                 // fatal error should be fatal
	is.True(errors.Is(rec, cause))          // underlying cause should stay reachable
	is.Equal(rec.Error(), "play() deferred") // empty message falls back to cause
	is.Equal(fatal.Error(), "unsupported source")
}

func TestDo(t *testing.T) {
	cfg := Config{MaxRetries: 3, Delay: 0}

	tests := []struct {
		name     string
		failures int
		fatal    bool
		wantCall int
		wantErr  error
	}{
		{name: "first attempt succeeds", failures: 0, wantCall: 1},
		{name: "succeeds on last retry", failures: 3, wantCall: 4},
		{name: "exhausted", failures: 10, wantCall: 4, wantErr: ErrExhausted},
		{name: "fatal stops immediately", failures: 10, fatal: true, wantCall: 1, wantErr: ErrFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			is := is.New(t)
			calls := 0
			err := Do(context.Background(), nil, cfg, nil, func(int) error {
				calls++
				if calls <= tt.failures {
					if tt.fatal {
						return NewFatalError(nil, "boom")
					}
					return NewRecoverableError(nil, "again")
				}
				return nil
			})

			is.Equal(calls, tt.wantCall) // attempt count
			if tt.wantErr == nil {
				is.NoErr(err)
				return
			}
			is.True(errors.Is(err, tt.wantErr)) // error classification
		})
	}
}

func TestDo_Superseded(t *testing.T) {
	is := is.New(t)

	calls := 0
	err := Do(context.Background(), nil, Config{MaxRetries: 3}, func() bool { return false }, func(int) error {
		calls++
		return errors.New("deferred")
	})

	is.NoErr(err)       // superseded loop stops quietly
	is.Equal(calls, 1)  // only the first attempt ran
}
