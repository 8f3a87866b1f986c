package model

// Score is the parsed notation handed over by the score-recognition step
// (OCR, MusicXML or MIDI import). It is only read, never modified.
type Score struct {
	Title         string        `json:"title"`
	Composer      string        `json:"composer"`
	Key           *KeySignature `json:"key,omitempty"`
	TimeSignature string        `json:"time_signature"`
	Tempo         int           `json:"tempo"`
	// ticks per quarter note, 0 when unknown
	Divisions  int    `json:"divisions,omitempty"`
	Parts      []Part `json:"parts"`
	SourceFile string `json:"source_file,omitempty"`
}

type KeySignature struct {
	Fifths int    `json:"fifths"`
	Mode   string `json:"mode"`
}

type Part struct {
	ID       string    `json:"id"`
	Measures []Measure `json:"measures"`
}

type Measure struct {
	Number int          `json:"number"`
	Notes  []ScoreEvent `json:"notes"`
}

type EventType string

const (
	EventNote  EventType = "note"
	EventRest  EventType = "rest"
	EventChord EventType = "chord"
)

// ScoreEvent is one entry of a measure. Notes carry Pitch, chords carry
// Chord, rests carry neither.
type ScoreEvent struct {
	Type     EventType    `json:"type"`
	Pitch    *ScorePitch  `json:"pitch,omitempty"`
	Chord    []ScorePitch `json:"chord,omitempty"`
	Duration int          `json:"duration"`
	NoteType string       `json:"note_type,omitempty"`
}

type ScorePitch struct {
	Step   string `json:"step"`
	Octave *int   `json:"octave"`
	Alter  int    `json:"alter"`
}
