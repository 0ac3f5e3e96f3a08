package game

import (
	"strings"

	"cardtable/internal/model"
)

var colorNames = map[string]string{
	"R": "Red",
	"Y": "Yellow",
	"G": "Green",
	"B": "Blue",
}

// ColorName expands a one-letter color code for log lines.
func ColorName(code string) string {
	if name, ok := colorNames[code]; ok {
		return name
	}
	return code
}

// FormatCard renders a card token as a human-readable name. Wild tops
// that carry a chosen color ("WG", "W+4R") include it.
func FormatCard(card model.Card) string {
	s := string(card)
	if s == "" {
		return ""
	}
	if strings.HasPrefix(s, "W") {
		name := "Wild"
		rest := strings.TrimPrefix(s, "W")
		if strings.HasPrefix(rest, "+4") {
			name = "Wild Draw 4"
			rest = strings.TrimPrefix(rest, "+4")
		}
		if rest != "" {
			name += " (" + ColorName(rest[:1]) + ")"
		}
		return name
	}
	color, ok := colorNames[s[:1]]
	if !ok {
		// Flip7 tokens are already readable.
		return s
	}
	switch body := s[1:]; body {
	case "S":
		return color + " Skip"
	case "RV":
		return color + " Reverse"
	case "+2":
		return color + " Draw 2"
	default:
		return color + " " + body
	}
}
