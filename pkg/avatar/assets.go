package avatar

import "github.com/chriscow/cinema-kiosk-go/pkg/tool"

// Asset is a playable avatar video.
type Asset struct {
	Name string
	URL  string
}

// Library groups the idle and talk pools and the one-shot tool reactions.
type Library struct {
	Idle      []Asset
	Talk      []Asset
	Reactions map[tool.Name]Asset
}

const assetBase = "https://files.cekat.ai/"

// DefaultLibrary returns the kiosk's avatar videos. play_movie_trailer and
// set_movie_selection have no reaction.
func DefaultLibrary() Library {
	return Library{
		Idle: []Asset{
			{Name: "idle01", URL: assetBase + "idle01_WdhEBA.mp4"},
			{Name: "idle02", URL: assetBase + "idle02_wzwOwW.mp4"},
			{Name: "idle03", URL: assetBase + "idle03_hSgkmT.mp4"},
			{Name: "idle04", URL: assetBase + "idle04_fvKDOd.mp4"},
		},
		Talk: []Asset{
			{Name: "talk01", URL: assetBase + "talk01_zJhWdX.mp4"},
			{Name: "talk02", URL: assetBase + "talk02_ZbJZsx.mp4"},
			{Name: "talk03", URL: assetBase + "talk03_nGR0b5.mp4"},
		},
		Reactions: map[tool.Name]Asset{
			tool.ShowCinemasShowtimes: {Name: "movie01", URL: assetBase + "movie01_CPEwjH.mp4"},
			tool.UpdateCart:           {Name: "cart01", URL: assetBase + "cart01_UNaXIH.mp4"},
			tool.ShowFoodItems:        {Name: "food01", URL: assetBase + "food01_hEuNQr.mp4"},
			tool.PlaceOrder:           {Name: "order01", URL: assetBase + "order01_iXSyRa.mp4"},
		},
	}
}

// All lists every asset once, pools first, reactions in tool order.
func (l Library) All() []Asset {
	seen := make(map[string]bool)
	var out []Asset
	add := func(a Asset) {
		if a.URL == "" || seen[a.URL] {
			return
		}
		seen[a.URL] = true
		out = append(out, a)
	}

	for _, a := range l.Idle {
		add(a)
	}
	for _, a := range l.Talk {
		add(a)
	}
	for _, n := range tool.Names {
		if a, ok := l.Reactions[n]; ok {
			add(a)
		}
	}
	return out
}

// Reaction returns the one-shot asset for a tool, if it has one.
func (l Library) Reaction(name tool.Name) (Asset, bool) {
	a, ok := l.Reactions[name]
	return a, ok
}
