// Package pipeline runs a score through extraction, analysis, transposition
// and tablature mapping, reporting each stage to a progress observer.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jsphweid/harptab/melody"
	"github.com/jsphweid/harptab/model"
	"github.com/jsphweid/harptab/notemap"
	"github.com/jsphweid/harptab/playability"
	"github.com/jsphweid/harptab/progress"
	"github.com/jsphweid/harptab/tab"
	"github.com/jsphweid/harptab/transposer"
)

type Options struct {
	HarmonicaType string
	HarmonicaKey  string
	Search        transposer.Options

	// ForceShift skips the search and applies the given shift as is.
	ForceShift *int
	// MaxTechnique hides positions harder than the given technique.
	MaxTechnique *model.Technique
	DropRests    bool
	Style        tab.Style
}

func DefaultOptions() Options {
	return Options{
		HarmonicaType: "diatonic",
		HarmonicaKey:  "C",
		Search:        transposer.DefaultOptions(),
		Style:         tab.Arrows,
	}
}

type Converter struct {
	Maps     notemap.Source
	Observer progress.Observer
	Logger   *slog.Logger
}

// Result is everything a renderer needs to lay out the tablature.
type Result struct {
	SessionID string
	Options   Options
	Original  *model.Melody
	// Melody is Original after the chosen shift.
	Melody    *model.Melody
	Shift     int
	Key       string
	Report    model.PlayabilityReport
	Tablature tab.Tablature
	NoteMap   *notemap.NoteMap
}

func NewSessionID() string {
	return uuid.New().String()
}

func (c *Converter) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c *Converter) reporter(session string) progress.Reporter {
	o := c.Observer
	if o == nil {
		o = progress.Nop
	}
	return progress.Reporter{Session: session, Observer: o}
}

// Convert runs the whole chain under a fresh session id.
func (c *Converter) Convert(ctx context.Context, score *model.Score, opts Options) (*Result, error) {
	return c.ConvertSession(ctx, NewSessionID(), score, opts)
}

// ConvertSession is Convert with a caller chosen session id, so that the
// caller can report stages of its own (reading the score, typesetting)
// under the same id.
func (c *Converter) ConvertSession(ctx context.Context, session string, score *model.Score, opts Options) (*Result, error) {
	r := c.reporter(session)
	res := &Result{SessionID: session, Options: opts}
	logger := c.logger().With("session", session)

	r.Start(progress.StageMelody)
	m, err := c.extract(score, opts)
	if err != nil {
		return nil, r.Fail(progress.StageMelody, err)
	}
	res.Original = m
	r.Done(progress.StageMelody, fmt.Sprintf("%d notes from part %s", m.NoteCount(), m.PartID))
	logger.Debug("pipeline: melody extracted", "notes", m.NoteCount(), "part", m.PartID)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.Start(progress.StageMappingLoad)
	nm, err := c.loadMap(opts)
	if err != nil {
		return nil, r.Fail(progress.StageMappingLoad, err)
	}
	res.NoteMap = nm
	r.Done(progress.StageMappingLoad, nm.Type()+" "+nm.Key())

	r.Start(progress.StageAnalysis)
	initial := playability.Analyze(m, nm)
	r.Done(progress.StageAnalysis, fmt.Sprintf("%.0f%% playable", initial.Coverage*100))
	logger.Debug("pipeline: initial playability", "coverage", initial.Coverage, "missing", len(initial.Missing))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.Start(progress.StageTranspose)
	if opts.ForceShift != nil {
		res.Shift = *opts.ForceShift
		res.Report = playability.Analyze(melody.Transpose(m, res.Shift), nm)
	} else {
		res.Shift, res.Report, err = transposer.FindBestShift(m, nm, opts.Search)
		if err != nil {
			return nil, r.Fail(progress.StageTranspose, err)
		}
	}
	res.Melody = melody.Transpose(m, res.Shift)
	res.Key = res.Melody.Key
	r.Done(progress.StageTranspose, melody.Describe(res.Shift))
	logger.Info("pipeline: shift selected", "shift", res.Shift, "coverage", res.Report.Coverage, "forced", opts.ForceShift != nil)

	r.Start(progress.StageTablature)
	res.Tablature = tab.Map(res.Melody, nm)
	if n := len(res.Tablature.Unmapped); n > 0 {
		logger.Warn("pipeline: notes without a position", "count", n)
	}
	r.Done(progress.StageTablature, fmt.Sprintf("%d entries", len(res.Tablature.Entries)))

	return res, nil
}

func (c *Converter) extract(score *model.Score, opts Options) (*model.Melody, error) {
	var extractOpts []melody.Option
	if opts.DropRests {
		extractOpts = append(extractOpts, melody.WithoutRests())
	}
	return melody.Extract(score, extractOpts...)
}

func (c *Converter) loadMap(opts Options) (*notemap.NoteMap, error) {
	nm, err := c.Maps.Load(opts.HarmonicaType, opts.HarmonicaKey)
	if err != nil {
		return nil, err
	}
	if opts.MaxTechnique != nil {
		nm = nm.Restrict(*opts.MaxTechnique)
	}
	return nm, nil
}
