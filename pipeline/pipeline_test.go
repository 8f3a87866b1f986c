package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/jsphweid/harptab/melody"
	"github.com/jsphweid/harptab/model"
	"github.com/jsphweid/harptab/notemap"
	"github.com/jsphweid/harptab/progress"
	"github.com/jsphweid/harptab/tab"
	"github.com/jsphweid/harptab/transposer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scoreOf builds a one-part score of quarter notes from names like "F#4";
// "r" is a rest.
func scoreOf(names ...string) *model.Score {
	var events []model.ScoreEvent
	for _, name := range names {
		if name == "r" {
			events = append(events, model.ScoreEvent{Type: model.EventRest, Duration: 1, NoteType: "quarter"})
			continue
		}
		octave := int(name[len(name)-1] - '0')
		alter := 0
		switch name[1] {
		case '#':
			alter = 1
		case 'b':
			alter = -1
		}
		p := model.ScorePitch{Step: name[:1], Octave: &octave, Alter: alter}
		events = append(events, model.ScoreEvent{Type: model.EventNote, Pitch: &p, Duration: 1, NoteType: "quarter"})
	}
	return &model.Score{
		Title: "Test Song",
		Parts: []model.Part{{ID: "P1", Measures: []model.Measure{{Number: 1, Notes: events}}}},
	}
}

func newConverter() (*Converter, *progress.Recorder) {
	rec := progress.NewRecorder()
	return &Converter{Maps: notemap.Cached(notemap.Embedded()), Observer: rec}, rec
}

func stages(events []progress.Event) []string {
	var res []string
	for _, e := range events {
		res = append(res, string(e.Stage)+":"+string(e.Status))
	}
	return res
}

func natural() *model.Technique {
	t := model.Natural
	return &t
}

func TestConvertPlayableScale(t *testing.T) {
	c, rec := newConverter()
	res, err := c.Convert(context.Background(), scoreOf("C4", "D4", "E4", "F4", "G4", "A4", "B4", "C5"), DefaultOptions())
	require.NoError(t, err)

	assert := assert.New(t)
	assert.NotEmpty(res.SessionID)
	assert.Equal(0, res.Shift)
	assert.Equal("C", res.Key)
	assert.True(res.Report.FullyPlayable)
	assert.Len(res.Tablature.Entries, 8)
	assert.Equal(res.Original.MidiSequence(), res.Melody.MidiSequence())

	assert.Equal([]string{
		"melody:started", "melody:completed",
		"mapping_load:started", "mapping_load:completed",
		"analysis:started", "analysis:completed",
		"transpose:started", "transpose:completed",
		"tablature:started", "tablature:completed",
	}, stages(rec.Events(res.SessionID)))
}

func TestConvertTransposes(t *testing.T) {
	c, _ := newConverter()
	opts := DefaultOptions()
	opts.MaxTechnique = natural()

	res, err := c.Convert(context.Background(), scoreOf("F#4", "r", "A#4"), opts)
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Equal(1, res.Shift)
	assert.Equal("C#", res.Key)
	assert.Equal("C#", res.Melody.Key)
	assert.Equal("C", res.Original.Key)
	assert.Equal([]int{66, 70}, res.Original.MidiSequence())
	assert.Equal([]int{67, 71}, res.Melody.MidiSequence())
	assert.Equal([]string{"3↑", tab.RestMark, "3↓"}, res.Tablature.Strings(tab.Arrows))

	body := res.Response()
	assert.Equal("0.5 tones up", body.ShiftText)
	assert.Equal("C#", body.Melody.Key)
	assert.Equal("diatonic", body.HarmonicaType)
	assert.Equal("C", body.HarmonicaKey)
	assert.Equal("3↑", body.Tablature[0].Notation)
	assert.Empty(body.Unmapped)
}

func TestForcedShiftSkipsSearch(t *testing.T) {
	c, _ := newConverter()
	opts := DefaultOptions()
	shift := -12
	opts.ForceShift = &shift
	opts.Style = tab.Symbols

	res, err := c.Convert(context.Background(), scoreOf("C4", "C6"), opts)
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Equal(-12, res.Shift)
	assert.Equal(0.5, res.Report.Coverage)
	assert.False(res.Report.FullyPlayable)
	require.Len(t, res.Tablature.Unmapped, 1)

	body := res.Response()
	assert.Equal(tab.UnmappedMark, body.Tablature[0].Notation)
	assert.True(body.Tablature[0].Unmapped)
	assert.Equal("+4", body.Tablature[1].Notation)
	assert.Equal([]string{"C3"}, body.Unmapped)
	assert.Equal("6 tones down", body.ShiftText)
}

func TestConvertFailures(t *testing.T) {
	noFit := DefaultOptions()
	noFit.MaxTechnique = natural()
	noFit.Search = transposer.Options{MinShift: 0, MaxShift: 0, MinCoverage: 0.8}

	unknown := DefaultOptions()
	unknown.HarmonicaKey = "H"

	cases := []struct {
		name  string
		score *model.Score
		opts  Options
		want  error
		stage progress.Stage
	}{
		{"empty score", &model.Score{}, DefaultOptions(), melody.ErrEmptyScore, progress.StageMelody},
		{"only rests", scoreOf("r", "r"), DefaultOptions(), melody.ErrNoPlayablePart, progress.StageMelody},
		{"unknown mapping", scoreOf("C4"), unknown, notemap.ErrUnknownMapping, progress.StageMappingLoad},
		{"no viable shift", scoreOf("F#4"), noFit, transposer.ErrNoViableTransposition, progress.StageTranspose},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var events []progress.Event
			conv := &Converter{
				Maps:     notemap.Embedded(),
				Observer: progress.Func(func(e progress.Event) { events = append(events, e) }),
			}
			_, err := conv.Convert(context.Background(), c.score, c.opts)
			require.ErrorIs(t, err, c.want)

			last := events[len(events)-1]
			assert.Equal(t, c.stage, last.Stage)
			assert.Equal(t, progress.Failed, last.Status)
			assert.Equal(t, err.Error(), last.Error)
		})
	}
}

func TestConvertHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c, _ := newConverter()
	_, err := c.Convert(ctx, scoreOf("C4"), DefaultOptions())
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestConvertSessionKeepsCallerID(t *testing.T) {
	c, rec := newConverter()
	res, err := c.ConvertSession(context.Background(), "fixed", scoreOf("C4"), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "fixed", res.SessionID)
	assert.NotEmpty(t, rec.Events("fixed"))
}

func TestDropRests(t *testing.T) {
	c, _ := newConverter()
	opts := DefaultOptions()
	opts.DropRests = true

	res, err := c.Convert(context.Background(), scoreOf("C4", "r", "E4"), opts)
	require.NoError(t, err)
	assert.Len(t, res.Tablature.Entries, 2)
	assert.Equal(t, 2, res.Melody.Events[1].Time)
}

func TestAnalyze(t *testing.T) {
	c, _ := newConverter()
	a, err := c.Analyze(context.Background(), scoreOf("C4", "D4", "E4", "F4", "G4", "A4", "B4", "C5"), DefaultOptions())
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Equal("C4", a.Low.String())
	assert.Equal("C5", a.High.String())
	assert.True(a.Report.FullyPlayable)

	var sawC bool
	for _, fit := range a.Keys {
		assert.GreaterOrEqual(fit.Report.Coverage, 0.8)
		assert.Equal("diatonic", fit.Type)
		if fit.Key == "C" {
			sawC = true
			assert.Equal(1.0, fit.Report.Coverage)
		}
	}
	assert.True(sawC)

	body := a.Response()
	assert.Equal("Test Song", body.Title)
	assert.Equal("P1", body.PartID)
	assert.Equal("C4", body.Lowest)
	assert.Len(body.Keys, len(a.Keys))
}

func TestAnalyzeRestrictedMap(t *testing.T) {
	c, _ := newConverter()
	opts := DefaultOptions()
	opts.MaxTechnique = natural()

	a, err := c.Analyze(context.Background(), scoreOf("C4", "D4", "E4", "F4", "G4", "A4", "B4", "C5"), opts)
	require.NoError(t, err)
	assert.Equal(t, 0.75, a.Report.Coverage)
	require.Len(t, a.Report.Missing, 2)
	assert.Equal(t, "F4", a.Report.Missing[0].String())
	assert.Equal(t, "A4", a.Report.Missing[1].String())
}
