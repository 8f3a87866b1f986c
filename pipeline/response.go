package pipeline

import (
	"github.com/jsphweid/harptab/melody"
	"github.com/jsphweid/harptab/model"
	"github.com/jsphweid/harptab/tab"
)

// Response flattens r into the JSON body served over HTTP.
func (r *Result) Response() model.ConvertResponse {
	style := r.Options.Style
	if style == "" {
		style = tab.Arrows
	}

	lines := make([]model.TabLine, len(r.Tablature.Entries))
	for i, entry := range r.Tablature.Entries {
		lines[i] = model.TabLine{TabEntry: entry, Notation: tab.EntryNotation(entry, style)}
	}

	var unmapped []string
	for _, p := range r.Tablature.UnmappedPitches() {
		unmapped = append(unmapped, p.String())
	}

	return model.ConvertResponse{
		SessionID:     r.SessionID,
		Melody:        r.Melody,
		Shift:         r.Shift,
		ShiftText:     melody.Describe(r.Shift),
		Key:           r.Key,
		Report:        r.Report,
		Tablature:     lines,
		Unmapped:      unmapped,
		HarmonicaType: r.NoteMap.Type(),
		HarmonicaKey:  r.NoteMap.Key(),
	}
}

func (a *Analysis) Response() model.AnalyzeResponse {
	res := model.AnalyzeResponse{
		Title:  a.Melody.Title,
		PartID: a.Melody.PartID,
		Key:    a.Melody.Key,
		Report: a.Report,
		Keys:   make([]model.KeyFitResponse, 0, len(a.Keys)),
	}
	if a.Low.Valid() {
		res.Lowest, res.Highest = a.Low.String(), a.High.String()
	}
	for _, fit := range a.Keys {
		res.Keys = append(res.Keys, model.KeyFitResponse{HarmonicaKey: fit.Key, Report: fit.Report})
	}
	return res
}
