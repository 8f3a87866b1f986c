package pipeline

import (
	"context"

	"github.com/jsphweid/harptab/melody"
	"github.com/jsphweid/harptab/model"
	"github.com/jsphweid/harptab/notemap"
	"github.com/jsphweid/harptab/pitch"
	"github.com/jsphweid/harptab/playability"
	"github.com/jsphweid/harptab/progress"
)

// Analysis describes a melody's fit on one harmonica and lists the other
// keys of the same type that suit it without transposition.
type Analysis struct {
	Melody *model.Melody
	Low    pitch.Pitch
	High   pitch.Pitch
	Report model.PlayabilityReport
	Keys   []playability.KeyFit
}

func (c *Converter) Analyze(ctx context.Context, score *model.Score, opts Options) (*Analysis, error) {
	r := c.reporter(NewSessionID())

	r.Start(progress.StageMelody)
	m, err := c.extract(score, opts)
	if err != nil {
		return nil, r.Fail(progress.StageMelody, err)
	}
	r.Done(progress.StageMelody, "")

	r.Start(progress.StageMappingLoad)
	nm, err := c.loadMap(opts)
	if err != nil {
		return nil, r.Fail(progress.StageMappingLoad, err)
	}
	r.Done(progress.StageMappingLoad, "")

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.Start(progress.StageAnalysis)
	res := &Analysis{Melody: m, Report: playability.Analyze(m, nm)}
	res.Low, res.High, _ = melody.Range(m)

	maps, err := c.allMaps(nm.Type(), opts)
	if err != nil {
		return nil, r.Fail(progress.StageAnalysis, err)
	}
	res.Keys = playability.RankMaps(m, maps, opts.Search.MinCoverage)
	r.Done(progress.StageAnalysis, "")
	return res, nil
}

// allMaps loads every key of harpType the source knows of.
func (c *Converter) allMaps(harpType string, opts Options) ([]*notemap.NoteMap, error) {
	var keys []string
	if l, ok := c.Maps.(notemap.Lister); ok {
		ids, err := l.List()
		if err != nil {
			return nil, err
		}
		keys = notemap.Group(ids)[harpType]
	} else {
		keys = notemap.Keys(harpType)
	}

	var res []*notemap.NoteMap
	for _, key := range keys {
		o := opts
		o.HarmonicaType, o.HarmonicaKey = harpType, key
		nm, err := c.loadMap(o)
		if err != nil {
			c.logger().Warn("pipeline: skipping harmonica table", "type", harpType, "key", key, "error", err)
			continue
		}
		res = append(res, nm)
	}
	return res, nil
}
