package kiosk

import (
	"expvar"

	"github.com/chriscow/cinema-kiosk-go/pkg/tool"
)

// Metrics counts kiosk activity. The variables are not registered globally;
// call Publish to expose them on the expvar handler.
type Metrics struct {
	ToolCalls *expvar.Map
	Renders   *expvar.Int
	Overlays  *expvar.Map
}

func newMetrics() *Metrics {
	calls := &expvar.Map{}
	calls.Init()
	overlays := &expvar.Map{}
	overlays.Init()
	return &Metrics{
		ToolCalls: calls,
		Renders:   &expvar.Int{},
		Overlays:  overlays,
	}
}

// Publish registers the metrics under name. It panics if name is taken.
func (m *Metrics) Publish(name string) {
	all := &expvar.Map{}
	all.Init()
	all.Set("tool_calls", m.ToolCalls)
	all.Set("renders", m.Renders)
	all.Set("overlays", m.Overlays)
	expvar.Publish(name, all)
}

func (m *Metrics) toolCalled(name tool.Name) {
	m.ToolCalls.Add(string(name), 1)
}
