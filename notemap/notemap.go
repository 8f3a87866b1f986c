package notemap

import (
	"sort"

	"github.com/jsphweid/harptab/model"
	"github.com/jsphweid/harptab/pitch"
	"github.com/jsphweid/harptab/util"
)

// NoteMap is the set of pitches reachable on one harmonica. Lookups are keyed
// by MIDI number, so enharmonic spellings always resolve to the same
// positions. A NoteMap is never modified after construction and may be
// shared between goroutines.
type NoteMap struct {
	harpType  string
	key       string
	holes     int
	positions []model.Position
	index     map[int][]model.Position
}

// New builds a NoteMap from a flat list of positions.
func New(harpType, key string, positions []model.Position) *NoteMap {
	n := &NoteMap{
		harpType:  harpType,
		key:       key,
		positions: make([]model.Position, len(positions)),
		index:     make(map[int][]model.Position),
	}
	copy(n.positions, positions)
	sort.SliceStable(n.positions, func(i, j int) bool {
		return positionLess(n.positions[i], n.positions[j])
	})

	for _, pos := range n.positions {
		midi := pos.Pitch.Midi()
		n.index[midi] = append(n.index[midi], pos)
		n.holes = util.Max(n.holes, pos.Hole)
	}
	return n
}

func positionLess(a, b model.Position) bool {
	if a.Hole != b.Hole {
		return a.Hole < b.Hole
	}
	if a.Technique.Level() != b.Technique.Level() {
		return a.Technique.Level() < b.Technique.Level()
	}
	return a.Direction < b.Direction
}

func (n *NoteMap) Type() string {
	return n.harpType
}

func (n *NoteMap) Key() string {
	return n.key
}

// Holes is the highest hole number present in the map.
func (n *NoteMap) Holes() int {
	return n.holes
}

// PositionsFor returns every position sounding p, ordered by hole. The
// result is a fresh slice the caller may keep.
func (n *NoteMap) PositionsFor(p pitch.Pitch) []model.Position {
	found := n.index[p.Midi()]
	res := make([]model.Position, len(found))
	copy(res, found)
	return res
}

func (n *NoteMap) Has(p pitch.Pitch) bool {
	return len(n.index[p.Midi()]) > 0
}

func (n *NoteMap) Positions() []model.Position {
	res := make([]model.Position, len(n.positions))
	copy(res, n.positions)
	return res
}

// Range returns the lowest and highest reachable pitches.
func (n *NoteMap) Range() (low, high pitch.Pitch, ok bool) {
	if len(n.index) == 0 {
		return low, high, false
	}
	midis := util.SortedKeys(n.index)
	return pitch.FromMidi(midis[0]), pitch.FromMidi(midis[len(midis)-1]), true
}

// Restrict returns a copy of n without techniques harder than max.
func (n *NoteMap) Restrict(max model.Technique) *NoteMap {
	var kept []model.Position
	for _, pos := range n.positions {
		if pos.Technique.Level() <= max.Level() {
			kept = append(kept, pos)
		}
	}
	return New(n.harpType, n.key, kept)
}

type HoleDiagram struct {
	Hole  int              `json:"hole"`
	Blow  pitch.Pitch      `json:"blow"`
	Draw  pitch.Pitch      `json:"draw"`
	Other []model.Position `json:"other,omitempty"`
}

// Diagram lays the map out hole by hole.
func (n *NoteMap) Diagram() []HoleDiagram {
	byHole := make(map[int]*HoleDiagram)
	for _, pos := range n.positions {
		d, ok := byHole[pos.Hole]
		if !ok {
			d = &HoleDiagram{Hole: pos.Hole}
			byHole[pos.Hole] = d
		}
		switch {
		case pos.Technique != model.Natural:
			d.Other = append(d.Other, pos)
		case pos.Direction == model.Blow:
			d.Blow = pos.Pitch
		default:
			d.Draw = pos.Pitch
		}
	}

	res := make([]HoleDiagram, 0, len(byHole))
	for _, hole := range util.SortedKeys(byHole) {
		res = append(res, *byHole[hole])
	}
	return res
}
