// Package lilypond writes LilyPond source for a melody with its harmonica
// tablature printed above each note. Typesetting the source is left to the
// lilypond binary.
package lilypond

import (
	"fmt"
	"io"
	"strings"

	"github.com/jsphweid/harptab/model"
	"github.com/jsphweid/harptab/pitch"
	"github.com/jsphweid/harptab/tab"
)

const Version = "2.24.0"

type Options struct {
	Title    string
	Composer string
	// Subtitle is printed under the title, e.g. "Diatonic harmonica in C".
	Subtitle string
	Style    tab.Style
}

type writer struct {
	out io.Writer
	err error
}

func (w *writer) pf(format string, args ...any) {
	if w.err != nil {
		return
	}
	_, w.err = fmt.Fprintf(w.out, format, args...)
}

// Generate writes a complete .ly document for m and its tablature. The
// tablature must have one entry per melody event, as tab.Map produces.
func Generate(out io.Writer, m *model.Melody, t tab.Tablature, opts Options) error {
	if len(t.Entries) != len(m.Events) {
		return fmt.Errorf("tablature has %d entries for %d events", len(t.Entries), len(m.Events))
	}
	w := &writer{out: out}
	title := opts.Title
	if title == "" {
		title = m.Title
	}
	composer := opts.Composer
	if composer == "" {
		composer = m.Composer
	}

	w.pf("\\version %q\n\n", Version)
	w.pf("\\header {\n")
	w.pf("  title = %s\n", quote(title))
	if opts.Subtitle != "" {
		w.pf("  subtitle = %s\n", quote(opts.Subtitle))
	}
	w.pf("  composer = %s\n", quote(composer))
	w.pf("  tagline = ##f\n")
	w.pf("}\n\n")

	w.pf("melody = {\n")
	w.pf("  \\clef treble\n")
	if key, ok := keySignature(m.Key); ok {
		w.pf("  \\key %s\n", key)
	}
	if m.TimeSignature != "" {
		w.pf("  \\time %s\n", m.TimeSignature)
	}
	if m.Tempo > 0 {
		w.pf("  \\tempo 4 = %d\n", m.Tempo)
	}
	w.pf("  \\override TextScript.staff-padding = #2\n")

	measure := 0
	for i, e := range m.Events {
		if e.Measure != measure {
			if measure != 0 {
				w.pf(" |\n")
			}
			w.pf("  %% measure %d\n ", e.Measure)
			measure = e.Measure
		}
		w.pf(" %s", noteCode(e, m.Divisions))
		if !e.IsRest() {
			w.pf("^\\markup { \\bold %s }", quote(tab.EntryNotation(t.Entries[i], opts.Style)))
		}
	}
	w.pf("\n}\n\n")

	w.pf("\\score {\n")
	w.pf("  \\new Staff \\melody\n")
	w.pf("  \\layout { }\n")
	w.pf("}\n")
	return w.err
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

// pitchName spells p in LilyPond's default (Dutch) note names: cis, bes, fisis.
func pitchName(p pitch.Pitch) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(string(p.Letter)))
	for i := 0; i < p.Alter; i++ {
		b.WriteString("is")
	}
	for i := 0; i > p.Alter; i-- {
		b.WriteString("es")
	}
	name := b.String()
	// aes and ees are written as and es
	name = strings.Replace(name, "aes", "as", 1)
	name = strings.Replace(name, "ees", "es", 1)
	return name
}

// octaveMarks is relative to LilyPond's c, which is C3.
func octaveMarks(octave int) string {
	if octave >= 3 {
		return strings.Repeat("'", octave-3)
	}
	return strings.Repeat(",", 3-octave)
}

var classDurations = map[model.DurationClass]string{
	model.Whole:        "1",
	model.Half:         "2",
	model.Quarter:      "4",
	model.Eighth:       "8",
	model.Sixteenth:    "16",
	model.ThirtySecond: "32",
}

// duration prefers the written note value and falls back to the length in
// divisions, dotted values included.
func duration(e model.Event, divisions int) string {
	if d, ok := classDurations[e.Class]; ok {
		return d
	}
	if divisions > 0 && e.Duration > 0 {
		for _, v := range []struct {
			sixteenths int
			code      string
		}{
			{16, "1"}, {12, "2."}, {8, "2"}, {6, "4."}, {4, "4"}, {3, "8."}, {2, "8"}, {1, "16"},
		} {
			if e.Duration*4 == v.sixteenths*divisions {
				return v.code
			}
		}
	}
	return "4"
}

func noteCode(e model.Event, divisions int) string {
	if e.IsRest() {
		return "r" + duration(e, divisions)
	}
	return pitchName(e.Pitch) + octaveMarks(e.Pitch.Octave) + duration(e, divisions)
}

// keySignature turns "G", "Bb" or "F#m" into a \key argument.
func keySignature(key string) (string, bool) {
	mode := "\\major"
	if strings.HasSuffix(key, "m") {
		key, mode = strings.TrimSuffix(key, "m"), "\\minor"
	}
	p, err := pitch.Parse(key + "4")
	if err != nil {
		return "", false
	}
	return pitchName(p) + " " + mode, true
}
