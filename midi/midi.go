package midi

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/jsphweid/harptab/model"
)

func ReadMidiFile(filepath string) (s *smf.SMF, e error) {
	// handle panics
	// https://github.com/gomidi/midi/issues/20
	defer func() {
		if r := recover(); r != nil {
			s, e = nil, fmt.Errorf("error parsing midi file %s: %v", filepath, r)
		}
	}()

	dat, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("error reading midi file: %w", err)
	}

	res, err := smf.ReadFrom(bytes.NewReader(dat))
	if err != nil {
		return nil, fmt.Errorf("error parsing midi file %s: %w", filepath, err)
	}
	return res, nil
}

// ReadFile reads a Standard MIDI File into a score, one part per
// non-percussion track that has notes.
func ReadFile(name string) (*model.Score, error) {
	s, err := ReadMidiFile(name)
	if err != nil {
		return nil, err
	}
	score, err := ScoreFromSMF(s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	score.Title = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	score.SourceFile = name
	return score, nil
}

var ErrUnsupportedTimeFormat = errors.New("only metric (ticks per quarter) time formats are supported")
