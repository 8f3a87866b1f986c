// Package tab turns a melody into harmonica tablature.
package tab

import (
	"github.com/jsphweid/harptab/model"
	"github.com/jsphweid/harptab/notemap"
	"github.com/jsphweid/harptab/pitch"
)

// Unmapped records a note the harmonica cannot sound.
type Unmapped struct {
	Index int         `json:"index"`
	Pitch pitch.Pitch `json:"pitch"`
}

// Tablature has exactly one entry per melody event, in order. Notes with no
// position get a placeholder entry and are also listed in Unmapped.
type Tablature struct {
	Entries  []model.TabEntry `json:"entries"`
	Unmapped []Unmapped       `json:"unmapped,omitempty"`
}

// Map picks a position for every note of m. The choice is greedy: each note
// gets its best scoring position without regard to its neighbours.
func Map(m *model.Melody, nm *notemap.NoteMap) Tablature {
	res := Tablature{Entries: make([]model.TabEntry, 0, len(m.Events))}

	for i, e := range m.Events {
		entry := model.TabEntry{Event: e}
		if !e.IsRest() {
			if pos, ok := choose(nm.PositionsFor(e.Pitch)); ok {
				entry.Position = &pos
			} else {
				entry.Unmapped = true
				res.Unmapped = append(res.Unmapped, Unmapped{Index: i, Pitch: e.Pitch})
			}
		}
		res.Entries = append(res.Entries, entry)
	}
	return res
}

// choose returns the highest scoring candidate. Candidates arrive ordered by
// hole then technique, so keeping the first of equal scores breaks ties
// toward the lowest hole.
func choose(candidates []model.Position) (model.Position, bool) {
	if len(candidates) == 0 {
		return model.Position{}, false
	}
	best := candidates[0]
	bestScore := Score(best)
	for _, c := range candidates[1:] {
		if s := Score(c); s > bestScore {
			best, bestScore = c, s
		}
	}
	return best, true
}

// Score rates how comfortable a position is to play. Center holes and
// unbent reeds score highest.
func Score(pos model.Position) int {
	return centrality(pos.Hole) + techniqueScore(pos.Technique)
}

func centrality(hole int) int {
	switch {
	case hole >= 4 && hole <= 7:
		return 100
	case hole == 3 || hole == 8:
		return 50
	case hole == 2 || hole == 9:
		return 20
	}
	return 0
}

func techniqueScore(t model.Technique) int {
	switch t {
	case model.Natural:
		return 150
	case model.Slide:
		return 120
	case model.BendHalf:
		return -30
	case model.BendFull:
		return -50
	case model.BendFullHalf:
		return -100
	case model.Overblow, model.Overdraw:
		return -200
	}
	return 0
}

// UnmappedPitches lists the distinct unmapped pitches in order of appearance.
func (t Tablature) UnmappedPitches() []pitch.Pitch {
	seen := make(map[int]bool)
	var res []pitch.Pitch
	for _, u := range t.Unmapped {
		if !seen[u.Pitch.Midi()] {
			seen[u.Pitch.Midi()] = true
			res = append(res, u.Pitch)
		}
	}
	return res
}

// Strings renders every entry in style.
func (t Tablature) Strings(style Style) []string {
	res := make([]string, len(t.Entries))
	for i, entry := range t.Entries {
		res[i] = EntryNotation(entry, style)
	}
	return res
}
