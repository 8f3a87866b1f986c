package notemap

import (
	"fmt"

	"github.com/jsphweid/harptab/model"
	"github.com/jsphweid/harptab/pitch"
	"github.com/jsphweid/harptab/util"
)

// File is the stored form of a harmonica table, shared by the YAML files and
// the DynamoDB items.
type File struct {
	Type  string     `yaml:"type" dynamodbav:"Type"`
	Key   string     `yaml:"key" dynamodbav:"Key"`
	Holes []HoleFile `yaml:"holes" dynamodbav:"Holes"`
}

type HoleFile struct {
	Hole int `yaml:"hole" dynamodbav:"Hole"`
	// technique name -> pitch name, e.g. "draw_bend_half": "C#4"
	Notes map[string]string `yaml:"notes" dynamodbav:"Notes"`
}

type techniqueEntry struct {
	direction model.Direction
	technique model.Technique
}

var techniqueNames = map[string]techniqueEntry{
	"blow":                {model.Blow, model.Natural},
	"draw":                {model.Draw, model.Natural},
	"blow_bend_half":      {model.Blow, model.BendHalf},
	"blow_bend_full":      {model.Blow, model.BendFull},
	"draw_bend_half":      {model.Draw, model.BendHalf},
	"draw_bend_full":      {model.Draw, model.BendFull},
	"draw_bend_full_half": {model.Draw, model.BendFullHalf},
	"overblow":            {model.Blow, model.Overblow},
	"overdraw":            {model.Draw, model.Overdraw},
	"blow_slide":          {model.Blow, model.Slide},
	"draw_slide":          {model.Draw, model.Slide},
}

// Build validates a stored table and turns it into a NoteMap.
func Build(f File) (*NoteMap, error) {
	if f.Type == "" || f.Key == "" {
		return nil, fmt.Errorf("harmonica table missing type or key")
	}

	var positions []model.Position
	for _, h := range f.Holes {
		if h.Hole < 1 {
			return nil, fmt.Errorf("%s %s: bad hole number %d", f.Type, f.Key, h.Hole)
		}
		for _, name := range util.SortedKeys(h.Notes) {
			entry, ok := techniqueNames[name]
			if !ok {
				return nil, fmt.Errorf("%s %s: hole %d: unknown technique %q", f.Type, f.Key, h.Hole, name)
			}
			p, err := pitch.Parse(h.Notes[name])
			if err != nil {
				return nil, fmt.Errorf("%s %s: hole %d: %w", f.Type, f.Key, h.Hole, err)
			}
			positions = append(positions, model.Position{
				Hole:      h.Hole,
				Direction: entry.direction,
				Technique: entry.technique,
				Pitch:     p.Canonical(),
			})
		}
	}
	return New(f.Type, f.Key, positions), nil
}
