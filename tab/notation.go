package tab

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jsphweid/harptab/model"
)

type Style string

const (
	Arrows  Style = "arrows"  // 4↑ 3↓
	Letters Style = "letters" // 4B 3D
	Symbols Style = "symbols" // +4 -3
)

const (
	RestMark     = "·"
	UnmappedMark = "?"
)

var ErrUnknownStyle = errors.New("unknown notation style")

func ParseStyle(s string) (Style, error) {
	switch st := Style(strings.ToLower(strings.TrimSpace(s))); st {
	case Arrows, Letters, Symbols:
		return st, nil
	case "":
		return Arrows, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownStyle, s)
}

// Notation writes pos in style. Bends add one ' per semitone, overblows and
// overdraws add °, and a pressed slide adds <. Unknown styles fall back to
// arrows.
func Notation(pos model.Position, style Style) string {
	var b strings.Builder
	hole := strconv.Itoa(pos.Hole)

	switch style {
	case Letters:
		b.WriteString(hole)
		if pos.Direction == model.Blow {
			b.WriteString("B")
		} else {
			b.WriteString("D")
		}
	case Symbols:
		if pos.Direction == model.Blow {
			b.WriteString("+")
		} else {
			b.WriteString("-")
		}
		b.WriteString(hole)
	default:
		b.WriteString(hole)
		if pos.Direction == model.Blow {
			b.WriteString("↑")
		} else {
			b.WriteString("↓")
		}
	}

	b.WriteString(strings.Repeat("'", pos.Technique.BendSteps()))
	switch pos.Technique {
	case model.Overblow, model.Overdraw:
		b.WriteString("°")
	case model.Slide:
		b.WriteString("<")
	}
	return b.String()
}

// EntryNotation is Notation for a tab entry, with marks for rests and
// unmapped notes.
func EntryNotation(entry model.TabEntry, style Style) string {
	switch {
	case entry.Event.IsRest():
		return RestMark
	case entry.Position == nil:
		return UnmappedMark
	}
	return Notation(*entry.Position, style)
}
