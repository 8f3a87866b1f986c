package transposer

import (
	"errors"
	"testing"

	"github.com/jsphweid/harptab/model"
	"github.com/jsphweid/harptab/notemap"
	"github.com/jsphweid/harptab/pitch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func melodyOf(names ...string) *model.Melody {
	m := &model.Melody{Key: "C"}
	for i, name := range names {
		e := model.Event{Duration: 1, Time: i, Measure: 1}
		if name == "r" {
			e.Kind = model.KindRest
		} else {
			e.Pitch = pitch.MustParse(name)
			e.Midi = e.Pitch.Midi()
		}
		m.Events = append(m.Events, e)
	}
	return m
}

func richterC(t *testing.T) *notemap.NoteMap {
	nm, err := notemap.Embedded().Load("diatonic", "C")
	require.NoError(t, err)
	return nm
}

// pentatonic is a toy map with C4 D4 E4 G4 A4 and no semitone steps.
func pentatonic() *notemap.NoteMap {
	var positions []model.Position
	for i, name := range []string{"C4", "D4", "E4", "G4", "A4"} {
		positions = append(positions, model.Position{Hole: i + 1, Direction: model.Blow, Pitch: pitch.MustParse(name)})
	}
	return notemap.New("toy", "C", positions)
}

func TestShiftsMagnitudeFirst(t *testing.T) {
	shifts := DefaultOptions().Shifts()
	require.Len(t, shifts, 25)
	assert.Equal(t, []int{0, 1, -1, 2, -2, 3, -3}, shifts[:7])
	assert.Equal(t, []int{12, -12}, shifts[23:])
}

func TestShiftsAsymmetricWindow(t *testing.T) {
	cases := []struct {
		name string
		opts Options
		want []int
	}{
		{"magnitude", Options{MinShift: -2, MaxShift: 5, Order: MagnitudeFirst}, []int{0, 1, -1, 2, -2, 3, 4, 5}},
		{"ascending", Options{MinShift: -2, MaxShift: 2, Order: Ascending}, []int{0, -2, -1, 1, 2}},
		{"window above zero", Options{MinShift: 3, MaxShift: 5, Order: MagnitudeFirst}, []int{0, 3, 4, 5}},
		{"empty order", Options{MinShift: -1, MaxShift: 1}, []int{0, 1, -1}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, c.opts.Shifts())
		})
	}
}

func TestPlayableMelodyNeedsNoShift(t *testing.T) {
	m := melodyOf("C4", "D4", "E4", "F4", "G4", "A4", "B4", "C5")
	shift, report, err := FindBestShift(m, richterC(t), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 0, shift)
	assert.True(t, report.FullyPlayable)
}

func TestSearchOrderDecidesTheShift(t *testing.T) {
	naturals := richterC(t).Restrict(model.Natural)
	m := melodyOf("F#4")

	shift, report, err := FindBestShift(m, naturals, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, shift)
	assert.True(t, report.FullyPlayable)

	opts := DefaultOptions()
	opts.Order = Ascending
	shift, _, err = FindBestShift(m, naturals, opts)
	require.NoError(t, err)
	assert.Equal(t, -6, shift)
}

func TestBestEffortShift(t *testing.T) {
	m := melodyOf("C4", "D4", "E4", "F4", "G4")

	shift, report, err := FindBestShift(m, pentatonic(), DefaultOptions())
	require.NoError(t, err)
	assert := assert.New(t)
	assert.Equal(0, shift)
	assert.False(report.FullyPlayable)
	assert.Equal(0.8, report.Coverage)
	assert.Equal([]pitch.Pitch{pitch.MustParse("F4")}, report.Missing)
}

func TestNoViableTransposition(t *testing.T) {
	m := melodyOf("C4", "D4", "E4", "F4", "G4")
	opts := DefaultOptions()
	opts.MinCoverage = 0.9

	shift, report, err := FindBestShift(m, pentatonic(), opts)
	require.ErrorIs(t, err, ErrNoViableTransposition)

	var noFit *NoViableTranspositionError
	require.True(t, errors.As(err, &noFit))
	assert.Equal(t, 0, noFit.BestShift)
	assert.Equal(t, shift, noFit.BestShift)
	assert.Equal(t, report, noFit.Report)
	assert.Equal(t, []pitch.Pitch{pitch.MustParse("F4")}, noFit.Report.Missing)
	assert.Contains(t, err.Error(), "missing F4")
}

func TestSingleNoteOutsideWindow(t *testing.T) {
	_, _, err := FindBestShift(melodyOf("C1"), richterC(t), DefaultOptions())
	assert.ErrorIs(t, err, ErrNoViableTransposition)
}

func TestMelodyWithoutNotes(t *testing.T) {
	opts := DefaultOptions()
	opts.MinCoverage = 0
	_, report, err := FindBestShift(melodyOf("r"), richterC(t), opts)
	assert.ErrorIs(t, err, ErrNoViableTransposition)
	assert.Equal(t, 0, report.TotalNotes)
}

func TestInvalidOptions(t *testing.T) {
	m := melodyOf("C4")
	cases := map[string]Options{
		"reversed window": {MinShift: 3, MaxShift: -3},
		"coverage above":  {MaxShift: 1, MinCoverage: 1.5},
		"coverage below":  {MaxShift: 1, MinCoverage: -0.1},
		"unknown order":   {MaxShift: 1, Order: "random"},
	}
	for name, opts := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := FindBestShift(m, richterC(t), opts)
			assert.ErrorIs(t, err, ErrInvalidOptions)
		})
	}
}

func TestSearchLeavesMelodyUntouched(t *testing.T) {
	m := melodyOf("F#4", "r", "A#4")
	before := m.Clone()
	_, _, _ = FindBestShift(m, richterC(t).Restrict(model.Natural), DefaultOptions())
	assert.Equal(t, before, m)
}

func TestParseOrder(t *testing.T) {
	o, err := ParseOrder("Ascending")
	assert.NoError(t, err)
	assert.Equal(t, Ascending, o)

	o, err = ParseOrder("")
	assert.NoError(t, err)
	assert.Equal(t, MagnitudeFirst, o)

	_, err = ParseOrder("sideways")
	assert.ErrorIs(t, err, ErrInvalidOptions)
}
