// Package markup renders panel frames and overlays as HTML fragments for a
// browser display surface.
package markup

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/chriscow/cinema-kiosk-go/pkg/order"
	"github.com/chriscow/cinema-kiosk-go/pkg/overlay"
	"github.com/chriscow/cinema-kiosk-go/pkg/panel"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("").
	Funcs(template.FuncMap{
		"money":          panel.FormatPrice,
		"line":           order.LineText,
		"emptyCart":      func() string { return panel.EmptyCartText },
		"emptySelection": func() string { return panel.EmptySelectionText },
		"noFood":         func() string { return order.NoFoodItems },
	}).ParseFS(templateFS, "templates/*.html"))

// Fragments is one rendered screen. Empty strings mean the region is hidden.
type Fragments struct {
	Bottom  template.HTML
	Side    template.HTML
	Overlay template.HTML
}

// Render renders a frame and the visible overlay. The bottom panel is
// omitted while an overlay is visible.
func Render(f panel.Frame, v overlay.View) (Fragments, error) {
	var out Fragments

	if f.Bottom != nil && !v.Visible() && f.Directive.Kind == panel.DirectiveNone {
		html, err := execute("bottom", f.Bottom)
		if err != nil {
			return Fragments{}, err
		}
		out.Bottom = html
	}

	side, err := execute("side", f.Side)
	if err != nil {
		return Fragments{}, err
	}
	out.Side = side

	if v.Visible() {
		html, err := execute("overlay", v)
		if err != nil {
			return Fragments{}, err
		}
		out.Overlay = html
	}
	return out, nil
}

func execute(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("markup: render %s: %w", name, err)
	}
	// Content was escaped by html/template.
	return template.HTML(buf.String()), nil
}
