// Package transposer searches for the smallest transposition that makes a
// melody playable on a given harmonica.
package transposer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jsphweid/harptab/melody"
	"github.com/jsphweid/harptab/model"
	"github.com/jsphweid/harptab/notemap"
	"github.com/jsphweid/harptab/playability"
)

var (
	ErrNoViableTransposition = errors.New("no viable transposition")
	ErrInvalidOptions        = errors.New("invalid search options")
)

// NoViableTranspositionError carries the best candidate the search saw.
type NoViableTranspositionError struct {
	BestShift   int
	Report      model.PlayabilityReport
	MinCoverage float64
}

func (e *NoViableTranspositionError) Error() string {
	missing := make([]string, len(e.Report.Missing))
	for i, p := range e.Report.Missing {
		missing[i] = p.String()
	}
	return fmt.Sprintf("%v: best shift %+d covers %.0f%% of notes (need %.0f%%), missing %s",
		ErrNoViableTransposition, e.BestShift, e.Report.Coverage*100, e.MinCoverage*100,
		strings.Join(missing, " "))
}

func (e *NoViableTranspositionError) Unwrap() error {
	return ErrNoViableTransposition
}

type Order string

const (
	// MagnitudeFirst tries 0, +1, -1, +2, -2, ...
	MagnitudeFirst Order = "magnitude"
	// Ascending tries 0, then MinShift up to MaxShift.
	Ascending Order = "ascending"
)

func ParseOrder(s string) (Order, error) {
	switch o := Order(strings.ToLower(s)); o {
	case MagnitudeFirst, Ascending:
		return o, nil
	case "":
		return MagnitudeFirst, nil
	}
	return "", fmt.Errorf("%w: unknown order %q", ErrInvalidOptions, s)
}

type Options struct {
	MinShift    int
	MaxShift    int
	MinCoverage float64
	Order       Order
}

// DefaultOptions searches one octave each way and accepts 80% coverage.
func DefaultOptions() Options {
	return Options{MinShift: -12, MaxShift: 12, MinCoverage: 0.8, Order: MagnitudeFirst}
}

func (o Options) Validate() error {
	if o.MinShift > o.MaxShift {
		return fmt.Errorf("%w: min shift %d above max shift %d", ErrInvalidOptions, o.MinShift, o.MaxShift)
	}
	if o.MinCoverage < 0 || o.MinCoverage > 1 {
		return fmt.Errorf("%w: coverage threshold %v outside [0, 1]", ErrInvalidOptions, o.MinCoverage)
	}
	if _, err := ParseOrder(string(o.Order)); err != nil {
		return err
	}
	return nil
}

// Shifts lists the shifts in the order they are tried. 0 always comes first.
func (o Options) Shifts() []int {
	res := []int{0}
	switch o.Order {
	case Ascending:
		for n := o.MinShift; n <= o.MaxShift; n++ {
			if n != 0 {
				res = append(res, n)
			}
		}
	default:
		for n := 1; n <= o.MaxShift || -n >= o.MinShift; n++ {
			if n >= o.MinShift && n <= o.MaxShift {
				res = append(res, n)
			}
			if -n >= o.MinShift && -n <= o.MaxShift {
				res = append(res, -n)
			}
		}
	}
	return res
}

// FindBestShift returns the first shift, in search order, at which m is
// fully playable on nm. Failing that it returns the shift with the best
// coverage if it reaches MinCoverage; ties go to the shift tried first.
func FindBestShift(m *model.Melody, nm *notemap.NoteMap, opts Options) (int, model.PlayabilityReport, error) {
	if err := opts.Validate(); err != nil {
		return 0, model.PlayabilityReport{}, err
	}

	bestShift := 0
	var best model.PlayabilityReport
	for i, shift := range opts.Shifts() {
		report := playability.Analyze(melody.Transpose(m, shift), nm)
		if report.FullyPlayable {
			return shift, report, nil
		}
		if i == 0 || report.Coverage > best.Coverage {
			bestShift, best = shift, report
		}
	}

	if best.TotalNotes > 0 && best.Coverage >= opts.MinCoverage {
		return bestShift, best, nil
	}
	return bestShift, best, &NoViableTranspositionError{
		BestShift:   bestShift,
		Report:      best,
		MinCoverage: opts.MinCoverage,
	}
}
