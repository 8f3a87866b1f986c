package musicxml

import (
	"encoding/xml"
	"io"
	"strconv"
)

// document is the subset of score-partwise read here.
type document struct {
	XMLName        xml.Name       `xml:"score-partwise"`
	Work           work           `xml:"work"`
	MovementTitle  string         `xml:"movement-title"`
	Identification identification `xml:"identification"`
	Parts          []part         `xml:"part"`
}

type work struct {
	Title string `xml:"work-title"`
}

type identification struct {
	Creators []creator `xml:"creator"`
}

type creator struct {
	Type string `xml:"type,attr"`
	Name string `xml:",chardata"`
}

type part struct {
	ID       string    `xml:"id,attr"`
	Measures []measure `xml:"measure"`
}

// measure keeps notes and the elements that move time in document order.
type measure struct {
	Number int
	Attrs  []attributes
	Tempo  float64
	Events []any
}

type attributes struct {
	Divisions int   `xml:"divisions"`
	Key       *key  `xml:"key"`
	Time      *timeSig `xml:"time"`
	Staves    int   `xml:"staves"`
}

type key struct {
	Fifths int    `xml:"fifths"`
	Mode   string `xml:"mode"`
}

type timeSig struct {
	Beats    string `xml:"beats"`
	BeatType string `xml:"beat-type"`
}

type sound struct {
	Tempo float64 `xml:"tempo,attr"`
}

type direction struct {
	Sound *sound `xml:"sound"`
}

type note struct {
	Pitch    *notePitch `xml:"pitch"`
	Rest     *struct{} `xml:"rest"`
	Chord    *struct{} `xml:"chord"`
	Grace    *struct{} `xml:"grace"`
	Cue      *struct{} `xml:"cue"`
	Duration int       `xml:"duration"`
	Voice    string    `xml:"voice"`
	Staff    int       `xml:"staff"`
	Type     string    `xml:"type"`
}

type notePitch struct {
	Step   string  `xml:"step"`
	Alter  float64 `xml:"alter"`
	Octave int     `xml:"octave"`
}

type backup struct {
	Duration int `xml:"duration"`
}

type forward struct {
	Duration int    `xml:"duration"`
	Voice    string `xml:"voice"`
	Staff    int    `xml:"staff"`
}

func (m *measure) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for _, attr := range start.Attr {
		if attr.Name.Local == "number" {
			m.Number, _ = strconv.Atoi(attr.Value)
		}
	}

	for {
		token, err := d.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		switch t := token.(type) {
		case xml.EndElement:
			if t.Name == start.Name {
				return nil
			}
		case xml.StartElement:
			if err := m.decodeChild(d, t); err != nil {
				return err
			}
		}
	}
}

func (m *measure) decodeChild(d *xml.Decoder, t xml.StartElement) error {
	switch t.Name.Local {
	case "attributes":
		var a attributes
		if err := d.DecodeElement(&a, &t); err != nil {
			return err
		}
		m.Attrs = append(m.Attrs, a)
	case "note":
		var n note
		if err := d.DecodeElement(&n, &t); err != nil {
			return err
		}
		m.Events = append(m.Events, n)
	case "backup":
		var b backup
		if err := d.DecodeElement(&b, &t); err != nil {
			return err
		}
		m.Events = append(m.Events, b)
	case "forward":
		var f forward
		if err := d.DecodeElement(&f, &t); err != nil {
			return err
		}
		m.Events = append(m.Events, f)
	case "sound":
		var s sound
		if err := d.DecodeElement(&s, &t); err != nil {
			return err
		}
		m.setTempo(s.Tempo)
	case "direction":
		var dir direction
		if err := d.DecodeElement(&dir, &t); err != nil {
			return err
		}
		if dir.Sound != nil {
			m.setTempo(dir.Sound.Tempo)
		}
	default:
		return d.Skip()
	}
	return nil
}

func (m *measure) setTempo(tempo float64) {
	if tempo > 0 && m.Tempo == 0 {
		m.Tempo = tempo
	}
}
