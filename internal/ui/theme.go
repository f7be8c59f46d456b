package ui

import (
	"github.com/gdamore/tcell/v2"
)

// Theme defines UI color tokens used across widgets and text tags.
type Theme struct {
	Name string

	Surface     tcell.Color
	Border      tcell.Color
	FocusBorder tcell.Color
	SelectionBg tcell.Color
	SelectionFg tcell.Color
	TextPrimary tcell.Color
	TextMuted   tcell.Color

	TableHeader   tcell.Color
	TableHeaderBg tcell.Color
	TableRow      tcell.Color
	TableRowMuted tcell.Color
	TableZebra1   tcell.Color
	TableZebra2   tcell.Color

	// Text tag colors for tview dynamic color markup
	TagTextPrimary string
	TagMuted       string
	TagAccent      string
	TagSuccess     string
	TagWarning     string
	TagError       string
}

func hex(s string) tcell.Color { return tcell.GetColor(s) }

// themeOrder is the cycle order of the `t` key.
var themeOrder = []string{"kenya", "dark", "light", "high-contrast"}

// themeByName returns the named theme, or the default one.
func themeByName(name string) Theme {
	switch name {
	case "dark":
		return themeDark()
	case "light":
		return themeLight()
	case "high-contrast":
		return themeHighContrast()
	}
	return themeKenya()
}

// nextTheme returns the theme after name in themeOrder.
func nextTheme(name string) string {
	for i, n := range themeOrder {
		if n == name {
			return themeOrder[(i+1)%len(themeOrder)]
		}
	}
	return themeOrder[0]
}

// themeKenya takes its accents from the national flag on a dark surface.
func themeKenya() Theme {
	return Theme{
		Name:          "kenya",
		Surface:       hex("#101312"),
		Border:        hex("#2f3a33"),
		FocusBorder:   hex("#d62828"),
		SelectionBg:   hex("#1f3d2b"),
		SelectionFg:   hex("#f5f5f0"),
		TextPrimary:   hex("#f5f5f0"),
		TextMuted:     hex("#9aa79f"),
		TableHeader:   hex("#f5f5f0"),
		TableHeaderBg: hex("#7a1717"),
		TableRow:      hex("#f5f5f0"),
		TableRowMuted: hex("#9aa79f"),
		TableZebra1:   hex("#151a17"),
		TableZebra2:   hex("#111512"),

		TagTextPrimary: "#f5f5f0",
		TagMuted:       "#9aa79f",
		TagAccent:      "#3fae5a",
		TagSuccess:     "#3fae5a",
		TagWarning:     "#f2c14e",
		TagError:       "#e04040",
	}
}

func themeDark() Theme {
	return Theme{
		Name:          "dark",
		Surface:       hex("#12161e"),
		Border:        hex("#2b3240"),
		FocusBorder:   hex("#4aa8ff"),
		SelectionBg:   hex("#2b3240"),
		SelectionFg:   hex("#cfd8e3"),
		TextPrimary:   hex("#e6edf3"),
		TextMuted:     hex("#8a939f"),
		TableHeader:   hex("#eab308"),
		TableHeaderBg: hex("#1a2332"),
		TableRow:      hex("#e6edf3"),
		TableRowMuted: hex("#94a3b8"),
		TableZebra1:   hex("#161c27"),
		TableZebra2:   hex("#121823"),

		TagTextPrimary: "#e6edf3",
		TagMuted:       "#8a939f",
		TagAccent:      "#2dd4bf",
		TagSuccess:     "#22c55e",
		TagWarning:     "#f59e0b",
		TagError:       "#ef4444",
	}
}

func themeLight() Theme {
	return Theme{
		Name:          "light",
		Surface:       hex("#ffffff"),
		Border:        hex("#d0d7de"),
		FocusBorder:   hex("#1f6feb"),
		SelectionBg:   hex("#e2e8f0"),
		SelectionFg:   hex("#111827"),
		TextPrimary:   hex("#111827"),
		TextMuted:     hex("#6b7280"),
		TableHeader:   hex("#1f2937"),
		TableHeaderBg: hex("#e5e7eb"),
		TableRow:      hex("#111827"),
		TableRowMuted: hex("#6b7280"),
		TableZebra1:   hex("#ffffff"),
		TableZebra2:   hex("#f8fafc"),

		TagTextPrimary: "#111827",
		TagMuted:       "#6b7280",
		TagAccent:      "#2563eb",
		TagSuccess:     "#15803d",
		TagWarning:     "#b45309",
		TagError:       "#b91c1c",
	}
}

func themeHighContrast() Theme {
	return Theme{
		Name:          "high-contrast",
		Surface:       hex("#000000"),
		Border:        hex("#ffffff"),
		FocusBorder:   hex("#ffff00"),
		SelectionBg:   hex("#ffffff"),
		SelectionFg:   hex("#000000"),
		TextPrimary:   hex("#ffffff"),
		TextMuted:     hex("#cccccc"),
		TableHeader:   hex("#ffffff"),
		TableHeaderBg: hex("#000000"),
		TableRow:      hex("#ffffff"),
		TableRowMuted: hex("#cccccc"),
		TableZebra1:   hex("#000000"),
		TableZebra2:   hex("#111111"),

		TagTextPrimary: "#ffffff",
		TagMuted:       "#cccccc",
		TagAccent:      "#00ffff",
		TagSuccess:     "#00ff00",
		TagWarning:     "#ffff00",
		TagError:       "#ff0000",
	}
}
