// Package musicxml reads MusicXML (.xml, .musicxml) and compressed MusicXML
// (.mxl) files into a model.Score.
package musicxml

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/jsphweid/harptab/model"
)

var ErrNotPartwise = errors.New("not a score-partwise MusicXML document")

// ReadFile reads a MusicXML file, unpacking it first if it is an .mxl archive.
func ReadFile(name string) (*model.Score, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}

	var score *model.Score
	if strings.EqualFold(filepath.Ext(name), ".mxl") {
		score, err = DecodeMXL(bytes.NewReader(data), int64(len(data)))
	} else {
		score, err = Decode(bytes.NewReader(data))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	score.SourceFile = name
	return score, nil
}

// Decode reads an uncompressed score-partwise document. Encodings other
// than UTF-8 are honoured when the XML declaration names them.
func Decode(r io.Reader) (*model.Score, error) {
	var doc document
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel
	if err := dec.Decode(&doc); err != nil {
		var unexpected xml.UnmarshalError
		if errors.As(err, &unexpected) {
			return nil, fmt.Errorf("%w: %v", ErrNotPartwise, err)
		}
		return nil, err
	}
	return convert(&doc), nil
}

type container struct {
	Rootfiles []struct {
		FullPath string `xml:"full-path,attr"`
	} `xml:"rootfiles>rootfile"`
}

// DecodeMXL reads a compressed MusicXML archive. The score is the root file
// named by META-INF/container.xml, or else the first XML file outside
// META-INF.
func DecodeMXL(r io.ReaderAt, size int64) (*model.Score, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("reading mxl archive: %w", err)
	}

	files := make(map[string]*zip.File)
	for _, f := range zr.File {
		files[f.Name] = f
	}

	var root *zip.File
	if c, ok := files["META-INF/container.xml"]; ok {
		var cont container
		if err := decodeZipXML(c, &cont); err != nil {
			return nil, fmt.Errorf("reading container.xml: %w", err)
		}
		if len(cont.Rootfiles) > 0 {
			root = files[cont.Rootfiles[0].FullPath]
		}
	}
	if root == nil {
		for _, f := range zr.File {
			ext := strings.ToLower(path.Ext(f.Name))
			if !strings.HasPrefix(f.Name, "META-INF/") && (ext == ".xml" || ext == ".musicxml") {
				root = f
				break
			}
		}
	}
	if root == nil {
		return nil, errors.New("mxl archive holds no score")
	}

	rc, err := root.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return Decode(rc)
}

func decodeZipXML(f *zip.File, v any) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	dec := xml.NewDecoder(rc)
	dec.CharsetReader = charset.NewReaderLabel
	return dec.Decode(v)
}

func convert(doc *document) *model.Score {
	score := &model.Score{Title: doc.Work.Title}
	if score.Title == "" {
		score.Title = doc.MovementTitle
	}
	for _, c := range doc.Identification.Creators {
		if c.Type == "composer" || (c.Type == "" && score.Composer == "") {
			score.Composer = strings.TrimSpace(c.Name)
		}
	}

	for _, p := range doc.Parts {
		score.Parts = append(score.Parts, convertPart(score, p)...)
	}
	return score
}

// staffState tracks one staff of a part while its measures are read.
type staffState struct {
	voice    string
	measures []model.Measure
}

// convertPart splits a part into one model part per staff. Only the first
// voice seen on each staff is kept; <backup> and <forward> only serve other
// voices, so the kept voice is read in document order.
func convertPart(score *model.Score, p part) []model.Part {
	staves := map[int]*staffState{}
	numStaves := 1

	for _, m := range p.Measures {
		for _, a := range m.Attrs {
			if a.Divisions > 0 && score.Divisions == 0 {
				score.Divisions = a.Divisions
			}
			if a.Key != nil && score.Key == nil {
				mode := a.Key.Mode
				if mode == "" {
					mode = "major"
				}
				score.Key = &model.KeySignature{Fifths: a.Key.Fifths, Mode: mode}
			}
			if a.Time != nil && score.TimeSignature == "" && a.Time.Beats != "" {
				score.TimeSignature = a.Time.Beats + "/" + a.Time.BeatType
			}
			if a.Staves > numStaves {
				numStaves = a.Staves
			}
		}
		if m.Tempo > 0 && score.Tempo == 0 {
			score.Tempo = int(math.Round(m.Tempo))
		}

		for n := 1; n <= numStaves; n++ {
			st, ok := staves[n]
			if !ok {
				st = &staffState{}
				staves[n] = st
			}
			st.measures = append(st.measures, model.Measure{Number: m.Number})
		}

		for _, ev := range m.Events {
			n, ok := ev.(note)
			if !ok || n.Grace != nil || n.Cue != nil {
				continue
			}
			staff := n.Staff
			if staff == 0 {
				staff = 1
			}
			st, ok := staves[staff]
			if !ok {
				continue
			}
			if st.voice == "" {
				st.voice = n.Voice
			}
			if n.Voice != st.voice {
				continue
			}
			addNote(&st.measures[len(st.measures)-1], n)
		}
	}

	var res []model.Part
	for n := 1; n <= numStaves; n++ {
		st, ok := staves[n]
		if !ok {
			continue
		}
		id := p.ID
		if n > 1 {
			id = fmt.Sprintf("%s-%d", p.ID, n)
		}
		res = append(res, model.Part{ID: id, Measures: st.measures})
	}
	return res
}

func addNote(m *model.Measure, n note) {
	if n.Chord != nil && n.Pitch != nil && len(m.Notes) > 0 {
		prev := &m.Notes[len(m.Notes)-1]
		switch prev.Type {
		case model.EventNote:
			prev.Type = model.EventChord
			prev.Chord = []model.ScorePitch{*prev.Pitch, scorePitch(n.Pitch)}
			prev.Pitch = nil
			return
		case model.EventChord:
			prev.Chord = append(prev.Chord, scorePitch(n.Pitch))
			return
		}
	}

	ev := model.ScoreEvent{Duration: n.Duration, NoteType: noteType(n.Type)}
	switch {
	case n.Rest != nil || n.Pitch == nil:
		ev.Type = model.EventRest
	default:
		ev.Type = model.EventNote
		sp := scorePitch(n.Pitch)
		ev.Pitch = &sp
	}
	m.Notes = append(m.Notes, ev)
}

func scorePitch(p *notePitch) model.ScorePitch {
	octave := p.Octave
	return model.ScorePitch{
		Step:   strings.ToUpper(strings.TrimSpace(p.Step)),
		Octave: &octave,
		// microtones are rounded to the nearest semitone
		Alter: int(math.Round(p.Alter)),
	}
}

// noteType keeps the duration names the melody model knows and drops the
// rest (breve, 64th, ...).
func noteType(t string) string {
	if _, ok := model.ParseDurationClass(t); ok {
		return t
	}
	return ""
}
