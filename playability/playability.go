// Package playability measures how much of a melody a harmonica can sound.
package playability

import (
	"sort"

	"github.com/jsphweid/harptab/model"
	"github.com/jsphweid/harptab/notemap"
	"github.com/jsphweid/harptab/pitch"
)

// Analyze counts the notes of m that have at least one position on nm.
// Rests count toward neither side. A melody without notes is reported with
// coverage 0 and is never fully playable.
func Analyze(m *model.Melody, nm *notemap.NoteMap) model.PlayabilityReport {
	var report model.PlayabilityReport
	missing := make(map[int]pitch.Pitch)

	for _, e := range m.Events {
		if e.IsRest() {
			continue
		}
		report.TotalNotes++
		if nm.Has(e.Pitch) {
			report.PlayableNotes++
			continue
		}
		if _, seen := missing[e.Midi]; !seen {
			missing[e.Midi] = e.Pitch
		}
	}

	report.Missing = make([]pitch.Pitch, 0, len(missing))
	for _, p := range missing {
		report.Missing = append(report.Missing, p)
	}
	sort.Slice(report.Missing, func(i, j int) bool {
		return report.Missing[i].Midi() < report.Missing[j].Midi()
	})

	if report.TotalNotes > 0 {
		report.Coverage = float64(report.PlayableNotes) / float64(report.TotalNotes)
	}
	report.FullyPlayable = report.TotalNotes > 0 && report.PlayableNotes == report.TotalNotes
	return report
}

// KeyFit is the untransposed fit of a melody on one harmonica.
type KeyFit struct {
	Type   string                  `json:"type"`
	Key    string                  `json:"key"`
	Report model.PlayabilityReport `json:"report"`
}

// RankMaps analyzes m against each map and keeps those reaching minCoverage,
// best coverage first. Equal coverage keeps the order of maps.
func RankMaps(m *model.Melody, maps []*notemap.NoteMap, minCoverage float64) []KeyFit {
	var res []KeyFit
	for _, nm := range maps {
		report := Analyze(m, nm)
		if report.TotalNotes == 0 || report.Coverage < minCoverage {
			continue
		}
		res = append(res, KeyFit{Type: nm.Type(), Key: nm.Key(), Report: report})
	}
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].Report.Coverage > res[j].Report.Coverage
	})
	return res
}
