package melody

import (
	"github.com/jsphweid/harptab/model"
	"github.com/jsphweid/harptab/pitch"
)

// Transpose returns a copy of m shifted by semitones. Shifted notes are
// respelled from their new MIDI number and the key moves with them; a zero
// shift keeps the spelling.
func Transpose(m *model.Melody, semitones int) *model.Melody {
	res := m.Clone()
	if semitones == 0 {
		return res
	}
	res.Key = TransposeKey(m.Key, semitones)
	for i, e := range res.Events {
		if e.IsRest() {
			continue
		}
		e.Midi += semitones
		e.Pitch = pitch.FromMidi(e.Midi)
		res.Events[i] = e
	}
	return res
}
