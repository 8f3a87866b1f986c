package midi

import (
	"fmt"
	"io"
	"os"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/jsphweid/harptab/model"
)

const (
	defaultTicks = 480
	velocity     = 100
)

// WriteMelody writes m as a single track Standard MIDI File. Event durations
// are read in m.Divisions per quarter note; a melody without divisions is
// taken to count in quarter notes.
func WriteMelody(w io.Writer, m *model.Melody) error {
	tpq, scale := uint32(m.Divisions), uint32(1)
	if tpq == 0 {
		tpq, scale = defaultTicks, defaultTicks
	}

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(tpq)

	var tr smf.Track
	var num, denom uint8
	if _, err := fmt.Sscanf(m.TimeSignature, "%d/%d", &num, &denom); err == nil && num > 0 && denom > 0 {
		tr.Add(0, smf.MetaMeter(num, denom))
	}
	if m.Tempo > 0 {
		tr.Add(0, smf.MetaTempo(float64(m.Tempo)))
	}

	var delta uint32
	for _, e := range m.Events {
		length := uint32(e.Duration) * scale
		if e.IsRest() || e.Midi < 0 || e.Midi > 127 {
			delta += length
			continue
		}
		key := uint8(e.Midi)
		tr.Add(delta, midi.NoteOn(0, key, velocity))
		tr.Add(length, midi.NoteOff(0, key))
		delta = 0
	}
	tr.Close(delta)

	if err := s.Add(tr); err != nil {
		return err
	}
	_, err := s.WriteTo(w)
	return err
}

func WriteMelodyFile(name string, m *model.Melody) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := WriteMelody(f, m); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
