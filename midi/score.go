package midi

import (
	"fmt"
	"math"
	"sort"

	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/jsphweid/harptab/model"
	"github.com/jsphweid/harptab/pitch"
	"github.com/jsphweid/harptab/util"
)

const drumChannel = 9

type noteSpan struct {
	key        uint8
	start, end int64
}

// onset is a set of notes struck on the same tick.
type onset struct {
	tick int64
	keys []uint8
	end  int64
}

// ScoreFromSMF turns each track into a part. Notes struck together become a
// chord; silence between onsets becomes a rest. Durations are in ticks and
// the score's divisions are the file's ticks per quarter note.
func ScoreFromSMF(s *smf.SMF) (*model.Score, error) {
	tf, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, ErrUnsupportedTimeFormat
	}
	tpq := int64(uint32(tf))

	score := &model.Score{Divisions: int(tpq)}
	beats, beatType := uint8(4), uint8(4)
	var meterSeen bool

	for _, track := range s.Tracks {
		var abs int64
		for _, ev := range track {
			abs += int64(ev.Delta)
			var bpm float64
			var num, denom uint8
			switch {
			case ev.Message.GetMetaTempo(&bpm):
				if score.Tempo == 0 {
					score.Tempo = int(math.Round(bpm))
				}
			case ev.Message.GetMetaMeter(&num, &denom):
				if !meterSeen {
					beats, beatType, meterSeen = num, denom, true
				}
			}
		}
	}
	if meterSeen {
		score.TimeSignature = fmt.Sprintf("%d/%d", beats, beatType)
	}
	ticksPerMeasure := tpq * 4 * int64(beats) / int64(util.Max(beatType, 1))
	if ticksPerMeasure <= 0 {
		ticksPerMeasure = tpq * 4
	}

	for i, track := range s.Tracks {
		spans, drums := trackSpans(track)
		if drums || len(spans) == 0 {
			continue
		}
		score.Parts = append(score.Parts, model.Part{
			ID:       fmt.Sprintf("T%d", i+1),
			Measures: measures(groupOnsets(spans), tpq, ticksPerMeasure),
		})
	}
	return score, nil
}

// trackSpans pairs note starts with their ends. It reports whether the track
// plays on the percussion channel.
func trackSpans(track smf.Track) (spans []noteSpan, drums bool) {
	pressed := make(map[uint8]int64)
	var abs int64
	for _, ev := range track {
		abs += int64(ev.Delta)
		var ch, key, vel uint8
		switch {
		case ev.Message.GetNoteOn(&ch, &key, &vel) && vel > 0:
			if ch == drumChannel {
				drums = true
			}
			if start, ok := pressed[key]; ok {
				spans = append(spans, noteSpan{key: key, start: start, end: abs})
			}
			pressed[key] = abs
		case ev.Message.GetNoteOn(&ch, &key, &vel), ev.Message.GetNoteOff(&ch, &key, &vel):
			if start, ok := pressed[key]; ok {
				spans = append(spans, noteSpan{key: key, start: start, end: abs})
				delete(pressed, key)
			}
		}
	}
	// notes never released end with the track
	for key, start := range pressed {
		spans = append(spans, noteSpan{key: key, start: start, end: abs})
	}
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].key < spans[j].key
	})
	return spans, drums
}

func groupOnsets(spans []noteSpan) []onset {
	var res []onset
	for _, sp := range spans {
		if n := len(res); n > 0 && res[n-1].tick == sp.start {
			res[n-1].keys = append(res[n-1].keys, sp.key)
			res[n-1].end = util.Max(res[n-1].end, sp.end)
			continue
		}
		res = append(res, onset{tick: sp.start, keys: []uint8{sp.key}, end: sp.end})
	}
	return res
}

// measures lays onsets out as a monophonic line. An onset lasts until the
// next one starts or its longest note ends, whichever is first.
func measures(onsets []onset, tpq, ticksPerMeasure int64) []model.Measure {
	var res []model.Measure
	add := func(tick int64, ev model.ScoreEvent) {
		number := int(tick/ticksPerMeasure) + 1
		for len(res) < number {
			res = append(res, model.Measure{Number: len(res) + 1})
		}
		res[number-1].Notes = append(res[number-1].Notes, ev)
	}

	var cursor int64
	for i, o := range onsets {
		if o.tick > cursor {
			add(cursor, rest(o.tick-cursor, tpq))
		}
		end := o.end
		if i+1 < len(onsets) {
			end = util.Min(end, onsets[i+1].tick)
		}
		add(o.tick, noteEvent(o.keys, end-o.tick, tpq))
		cursor = end
	}
	return res
}

func rest(ticks, tpq int64) model.ScoreEvent {
	return model.ScoreEvent{Type: model.EventRest, Duration: int(ticks), NoteType: noteType(ticks, tpq)}
}

func noteEvent(keys []uint8, ticks, tpq int64) model.ScoreEvent {
	ev := model.ScoreEvent{Duration: int(ticks), NoteType: noteType(ticks, tpq)}
	if len(keys) == 1 {
		sp := scorePitch(keys[0])
		ev.Type = model.EventNote
		ev.Pitch = &sp
		return ev
	}
	ev.Type = model.EventChord
	for _, k := range keys {
		ev.Chord = append(ev.Chord, scorePitch(k))
	}
	return ev
}

func scorePitch(key uint8) model.ScorePitch {
	p := pitch.FromMidi(int(key))
	octave := p.Octave
	return model.ScorePitch{Step: string(p.Letter), Octave: &octave, Alter: p.Alter}
}

// noteType names ticks when they are an exact plain note value.
func noteType(ticks, tpq int64) string {
	values := []struct {
		num, den int64
		class    model.DurationClass
	}{
		{4, 1, model.Whole},
		{2, 1, model.Half},
		{1, 1, model.Quarter},
		{1, 2, model.Eighth},
		{1, 4, model.Sixteenth},
		{1, 8, model.ThirtySecond},
	}
	for _, v := range values {
		if ticks*v.den == tpq*v.num {
			return string(v.class)
		}
	}
	return ""
}
