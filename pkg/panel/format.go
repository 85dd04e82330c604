package panel

import (
	"net/url"
	"path"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.English)

// FormatPrice renders an amount in rupiah with English digit grouping,
// e.g. 12000 -> "Rp12,000".
func FormatPrice(v float64) string {
	return "Rp" + printer.Sprint(number.Decimal(v, number.MaxFractionDigits(3)))
}

// MovieCodeFromImage derives the trailer movie code from a poster URL: the
// last path segment without its .jpg extension. It returns "" when no code
// can be derived.
func MovieCodeFromImage(imageURL string) string {
	if imageURL == "" {
		return ""
	}
	p := imageURL
	if u, err := url.Parse(imageURL); err == nil && u.Path != "" {
		p = u.Path
	}
	base := path.Base(p)
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, ".jpg")
}
