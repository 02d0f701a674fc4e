package tui

import "strings"

type tuiPalette struct {
	Name       string
	Panel      string
	PanelAlt   string
	Text       string
	TextMuted  string
	Border     string
	Accent     string
	Focus      string
	Unread     string
	Optimistic string
	Error      string
}

var palettes = map[string]tuiPalette{
	"default": {
		Name:       "default",
		Panel:      "#141A22",
		PanelAlt:   "#1A2230",
		Text:       "#E4EBF2",
		TextMuted:  "#8794A6",
		Border:     "#2A3A50",
		Accent:     "#6C9EF8",
		Focus:      "#8FB5FF",
		Unread:     "#E8B339",
		Optimistic: "#6F7E92",
		Error:      "#F26D6D",
	},
	"mono": {
		Name:       "mono",
		Panel:      "#101010",
		PanelAlt:   "#1A1A1A",
		Text:       "#EDEDED",
		TextMuted:  "#9A9A9A",
		Border:     "#3C3C3C",
		Accent:     "#FFFFFF",
		Focus:      "#FFFFFF",
		Unread:     "#FFFFFF",
		Optimistic: "#7A7A7A",
		Error:      "#FF6B6B",
	},
	"forest": {
		Name:       "forest",
		Panel:      "#0E1512",
		PanelAlt:   "#16201B",
		Text:       "#DFEEE6",
		TextMuted:  "#7FA08F",
		Border:     "#2C4A3B",
		Accent:     "#52C68A",
		Focus:      "#7FE0AC",
		Unread:     "#E9C46A",
		Optimistic: "#5F7A6C",
		Error:      "#F07167",
	},
}

func resolvePalette(name string) tuiPalette {
	trimmed := strings.ToLower(strings.TrimSpace(name))
	if palette, ok := palettes[trimmed]; ok {
		return palette
	}
	return palettes["default"]
}
