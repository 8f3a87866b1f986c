package model

import "github.com/jsphweid/harptab/pitch"

// TabEntry pairs a melody event with the chosen harmonica position.
// Rests and unmapped notes have no position.
type TabEntry struct {
	Event    Event     `json:"event"`
	Position *Position `json:"position,omitempty"`
	Unmapped bool      `json:"unmapped,omitempty"`
}

type PlayabilityReport struct {
	TotalNotes    int           `json:"total_notes"`
	PlayableNotes int           `json:"playable_notes"`
	Missing       []pitch.Pitch `json:"missing_notes"`
	Coverage      float64       `json:"coverage"`
	FullyPlayable bool          `json:"playable"`
}
