package melody

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jsphweid/harptab/model"
	"github.com/jsphweid/harptab/pitch"
	"github.com/jsphweid/harptab/util"
)

var (
	ErrEmptyScore     = errors.New("empty score")
	ErrInvalidScore   = errors.New("invalid score")
	ErrNoPlayablePart = fmt.Errorf("%w: selected part has no notes", ErrEmptyScore)
)

// ValidationError reports a structurally malformed score entry.
type ValidationError struct {
	Part    string
	Measure int
	Index   int
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: part %q measure %d event %d: %s", ErrInvalidScore, e.Part, e.Measure, e.Index, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidScore
}

const (
	defaultTimeSignature = "4/4"
	defaultTempo         = 120
)

type options struct {
	dropRests bool
}

type Option func(*options)

// WithoutRests drops rests from the extracted melody.
func WithoutRests() Option {
	return func(o *options) { o.dropRests = true }
}

// Extract selects the part carrying the melody and flattens it into a
// monophonic sequence of notes and rests.
func Extract(score *model.Score, opts ...Option) (*model.Melody, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if score == nil || len(score.Parts) == 0 {
		return nil, ErrEmptyScore
	}
	if err := validate(score); err != nil {
		return nil, err
	}

	part := &score.Parts[SelectPart(score)]
	m := &model.Melody{
		Title:         score.Title,
		Composer:      score.Composer,
		Key:           keyName(score.Key),
		TimeSignature: score.TimeSignature,
		Tempo:         score.Tempo,
		Divisions:     score.Divisions,
		PartID:        part.ID,
	}
	if m.TimeSignature == "" {
		m.TimeSignature = defaultTimeSignature
	}
	if m.Tempo <= 0 {
		m.Tempo = defaultTempo
	}

	var time int
	for _, measure := range part.Measures {
		for _, se := range measure.Notes {
			// validated above
			class, _ := model.ParseDurationClass(se.NoteType)
			e := model.Event{
				Duration: se.Duration,
				Measure:  measure.Number,
				Time:     time,
				Class:    class,
			}
			time += se.Duration

			switch se.Type {
			case model.EventRest:
				if o.dropRests {
					continue
				}
				e.Kind = model.KindRest
			case model.EventNote:
				e.Pitch = toPitch(*se.Pitch)
			case model.EventChord:
				e.Pitch = highest(se.Chord)
				e.FromChord = true
			}
			if e.Kind == model.KindNote {
				e.Midi = e.Pitch.Midi()
			}
			m.Events = append(m.Events, e)
		}
	}

	if m.NoteCount() == 0 {
		return nil, ErrNoPlayablePart
	}
	if m.Key == "" {
		m.Key = DetectKey(m)
	}
	return m, nil
}

// SelectPart returns the index of the part most likely to carry the melody.
// A part scores its note count plus ten times its mean MIDI pitch, so busy
// and high voices win. This is a heuristic: a low, busy accompaniment can
// still outscore a sparse melody.
func SelectPart(score *model.Score) int {
	if len(score.Parts) == 1 {
		return 0
	}

	best, bestScore := 0, -1.0
	for i := range score.Parts {
		midis := partMidis(&score.Parts[i])
		s := float64(len(midis)) + 10*util.Mean(midis)
		if s > bestScore {
			best, bestScore = i, s
		}
	}
	return best
}

// partMidis lists every sounding pitch of a part, chord members included.
func partMidis(part *model.Part) []int {
	var res []int
	for _, measure := range part.Measures {
		for _, se := range measure.Notes {
			switch se.Type {
			case model.EventNote:
				if se.Pitch != nil && se.Pitch.Octave != nil {
					res = append(res, toPitch(*se.Pitch).Midi())
				}
			case model.EventChord:
				for _, sp := range se.Chord {
					if sp.Octave != nil {
						res = append(res, toPitch(sp).Midi())
					}
				}
			}
		}
	}
	return res
}

func validate(score *model.Score) error {
	for _, part := range score.Parts {
		for _, measure := range part.Measures {
			for i, se := range measure.Notes {
				fail := func(format string, args ...any) error {
					return &ValidationError{
						Part:    part.ID,
						Measure: measure.Number,
						Index:   i,
						Reason:  fmt.Sprintf(format, args...),
					}
				}

				if se.Duration < 0 {
					return fail("negative duration %d", se.Duration)
				}
				if _, ok := model.ParseDurationClass(se.NoteType); !ok {
					return fail("unknown note type %q", se.NoteType)
				}

				switch se.Type {
				case model.EventRest:
				case model.EventNote:
					if se.Pitch == nil {
						return fail("note without pitch")
					}
					if err := validatePitch(*se.Pitch); err != nil {
						return fail("%v", err)
					}
				case model.EventChord:
					if len(se.Chord) == 0 {
						return fail("empty chord")
					}
					for _, sp := range se.Chord {
						if err := validatePitch(sp); err != nil {
							return fail("chord member: %v", err)
						}
					}
				default:
					return fail("unknown event type %q", se.Type)
				}
			}
		}
	}
	return nil
}

func validatePitch(sp model.ScorePitch) error {
	if len(sp.Step) != 1 || !strings.Contains("ABCDEFG", sp.Step) {
		return fmt.Errorf("bad step %q", sp.Step)
	}
	if sp.Octave == nil {
		return errors.New("missing octave")
	}
	return nil
}

func toPitch(sp model.ScorePitch) pitch.Pitch {
	return pitch.New(sp.Step[0], sp.Alter, *sp.Octave)
}

// highest keeps the top voice of a simultaneity; the first of equal pitches wins.
func highest(chord []model.ScorePitch) pitch.Pitch {
	top := toPitch(chord[0])
	for _, sp := range chord[1:] {
		if p := toPitch(sp); p.Midi() > top.Midi() {
			top = p
		}
	}
	return top
}
