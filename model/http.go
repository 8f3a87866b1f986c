package model

type ConvertRequest struct {
	Score         Score  `json:"score"`
	HarmonicaType string `json:"harmonica_type"`
	HarmonicaKey  string `json:"harmonica_key"`
	Style         string `json:"style,omitempty"`
	MaxTechnique  string `json:"max_technique,omitempty"`
	Shift         *int   `json:"shift,omitempty"`
	DropRests     bool   `json:"drop_rests,omitempty"`
	// SessionID lets a client poll progress while the conversion runs.
	SessionID     string `json:"session_id,omitempty"`
}

type TabLine struct {
	TabEntry
	Notation string `json:"notation"`
}

type ConvertResponse struct {
	SessionID     string            `json:"session_id"`
	Melody        *Melody           `json:"melody"`
	Shift         int               `json:"shift"`
	ShiftText     string            `json:"shift_text"`
	Key           string            `json:"key"`
	Report        PlayabilityReport `json:"playability"`
	Tablature     []TabLine         `json:"tablature"`
	Unmapped      []string          `json:"unmapped,omitempty"`
	HarmonicaType string            `json:"harmonica_type"`
	HarmonicaKey  string            `json:"harmonica_key"`
}

type KeyFitResponse struct {
	HarmonicaKey string            `json:"harmonica_key"`
	Report       PlayabilityReport `json:"playability"`
}

type AnalyzeResponse struct {
	Title   string            `json:"title"`
	PartID  string            `json:"part_id"`
	Key     string            `json:"key"`
	Lowest  string            `json:"lowest,omitempty"`
	Highest string            `json:"highest,omitempty"`
	Report  PlayabilityReport `json:"playability"`
	Keys    []KeyFitResponse  `json:"keys"`
}

type HarmonicaSummary struct {
	Type string   `json:"type"`
	Keys []string `json:"keys"`
}

type ErrorResponse struct {
	Error string `json:"detail"`
}
