package realtime

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// PCM16kBytesPerSecond is the byte rate of 16 kHz 16-bit mono PCM.
const PCM16kBytesPerSecond = 32000

// ModeTracker estimates when the agent stops speaking from the amount of
// audio it has sent. It is owned by a single goroutine.
type ModeTracker struct {
	clock          clockwork.Clock
	bytesPerSecond int

	speaking bool
	until    time.Time
	timer    clockwork.Timer
}

func NewModeTracker(clock clockwork.Clock, bytesPerSecond int) *ModeTracker {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if bytesPerSecond <= 0 {
		bytesPerSecond = PCM16kBytesPerSecond
	}
	return &ModeTracker{clock: clock, bytesPerSecond: bytesPerSecond}
}

// Audio accounts for n bytes of agent audio and reports whether the agent
// just started speaking.
func (m *ModeTracker) Audio(n int) bool {
	now := m.clock.Now()
	if m.until.Before(now) {
		m.until = now
	}
	m.until = m.until.Add(time.Duration(n) * time.Second / time.Duration(m.bytesPerSecond))

	wait := m.until.Sub(now)
	if m.timer == nil {
		m.timer = m.clock.NewTimer(wait)
	} else {
		m.timer.Stop()
		m.timer.Reset(wait)
	}

	started := !m.speaking
	m.speaking = true
	return started
}

// Expired fires when the estimated playback has finished. It is nil while
// the agent is silent.
func (m *ModeTracker) Expired() <-chan time.Time {
	if m.timer == nil || !m.speaking {
		return nil
	}
	return m.timer.Chan()
}

// Elapsed handles a tick from Expired and reports whether the agent went
// silent. A tick that raced with new audio re-arms the timer instead.
func (m *ModeTracker) Elapsed() bool {
	if !m.speaking {
		return false
	}
	now := m.clock.Now()
	if now.Before(m.until) {
		m.timer.Reset(m.until.Sub(now))
		return false
	}
	return m.Stop()
}

// Stop marks the agent silent and reports whether it was speaking.
func (m *ModeTracker) Stop() bool {
	was := m.speaking
	m.speaking = false
	m.until = time.Time{}
	if m.timer != nil {
		m.timer.Stop()
	}
	return was
}

func (m *ModeTracker) Speaking() bool { return m.speaking }
