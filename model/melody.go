package model

import (
	"fmt"

	"github.com/jsphweid/harptab/pitch"
)

type EventKind int

const (
	KindNote EventKind = iota
	KindRest
)

func (k EventKind) String() string {
	if k == KindRest {
		return "rest"
	}
	return "note"
}

func (k EventKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *EventKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "note":
		*k = KindNote
	case "rest":
		*k = KindRest
	default:
		return fmt.Errorf("unknown event kind %q", string(b))
	}
	return nil
}

type DurationClass string

const (
	Whole        DurationClass = "whole"
	Half         DurationClass = "half"
	Quarter      DurationClass = "quarter"
	Eighth       DurationClass = "eighth"
	Sixteenth    DurationClass = "16th"
	ThirtySecond DurationClass = "32nd"
)

var durationAliases = map[string]DurationClass{
	"whole":     Whole,
	"half":      Half,
	"quarter":   Quarter,
	"eighth":    Eighth,
	"16th":      Sixteenth,
	"sixteenth": Sixteenth,
	"32nd":      ThirtySecond,
}

// ParseDurationClass accepts MusicXML <type> names and the long spellings.
// An empty name is allowed and means unspecified.
func ParseDurationClass(s string) (DurationClass, bool) {
	if s == "" {
		return "", true
	}
	d, ok := durationAliases[s]
	return d, ok
}

// Event is a single onset of a Melody, either a note or a rest.
// Pitch and Midi are meaningful only for notes.
type Event struct {
	Kind     EventKind     `json:"type"`
	Pitch    pitch.Pitch   `json:"pitch"`
	Midi     int           `json:"midi"`
	Duration int           `json:"duration"`
	Measure  int           `json:"measure"`
	Time     int           `json:"time"`
	Class    DurationClass `json:"note_type,omitempty"`

	// set when the note stands in for a collapsed chord
	FromChord bool `json:"from_chord,omitempty"`
}

func (e Event) IsRest() bool {
	return e.Kind == KindRest
}

// Melody is a monophonic, time-ordered line extracted from a Score.
type Melody struct {
	Title         string  `json:"title"`
	Composer      string  `json:"composer"`
	Key           string  `json:"key"`
	TimeSignature string  `json:"time_signature"`
	Tempo         int     `json:"tempo"`
	Divisions     int     `json:"divisions,omitempty"`
	PartID        string  `json:"part_id"`
	Events        []Event `json:"notes"`
}

func (m *Melody) NoteCount() int {
	var n int
	for _, e := range m.Events {
		if !e.IsRest() {
			n++
		}
	}
	return n
}

// Clone returns a copy that shares nothing with m.
func (m *Melody) Clone() *Melody {
	c := *m
	c.Events = make([]Event, len(m.Events))
	copy(c.Events, m.Events)
	return &c
}

// MidiSequence returns the MIDI numbers of the notes, rests skipped.
func (m *Melody) MidiSequence() []int {
	res := make([]int, 0, len(m.Events))
	for _, e := range m.Events {
		if !e.IsRest() {
			res = append(res, e.Midi)
		}
	}
	return res
}
