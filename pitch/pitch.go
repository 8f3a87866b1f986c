package pitch

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidPitch = errors.New("invalid pitch")

// sharp spelling, one per semitone class
var sharpNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

var letterSemitones = map[byte]int{
	'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11,
}

// Pitch is a spelled pitch: a letter, a semitone alteration (-1 flat, +1 sharp,
// +-2 doubles) and a scientific octave where C4 is middle C.
type Pitch struct {
	Letter byte
	Alter  int
	Octave int
}

func New(letter byte, alter, octave int) Pitch {
	return Pitch{Letter: letter, Alter: alter, Octave: octave}
}

func (p Pitch) Valid() bool {
	_, ok := letterSemitones[p.Letter]
	return ok
}

// Midi returns the semitone index of p, C4 = 60.
func (p Pitch) Midi() int {
	return (p.Octave+1)*12 + letterSemitones[p.Letter] + p.Alter
}

// Class is the pitch class of p in [0, 12).
func (p Pitch) Class() int {
	return mod(p.Midi(), 12)
}

// FromMidi spells a MIDI number with the canonical sharp table.
func FromMidi(midi int) Pitch {
	name := sharpNames[mod(midi, 12)]
	p := Pitch{Letter: name[0], Octave: floorDiv(midi, 12) - 1}
	if len(name) > 1 {
		p.Alter = 1
	}
	return p
}

// Canonical respells p with the canonical sharp table.
func (p Pitch) Canonical() Pitch {
	return FromMidi(p.Midi())
}

func (p Pitch) Equal(o Pitch) bool {
	return p.Midi() == o.Midi()
}

func (p Pitch) Name() string {
	var b strings.Builder
	b.WriteByte(p.Letter)
	switch {
	case p.Alter > 0:
		b.WriteString(strings.Repeat("#", p.Alter))
	case p.Alter < 0:
		b.WriteString(strings.Repeat("b", -p.Alter))
	}
	return b.String()
}

func (p Pitch) String() string {
	return p.Name() + strconv.Itoa(p.Octave)
}

// Parse reads names such as "C4", "F#3", "Bb5", "Cx4" or "Ebb2".
func Parse(s string) (Pitch, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return Pitch{}, fmt.Errorf("%w: %q", ErrInvalidPitch, s)
	}

	var p Pitch
	p.Letter = strings.ToUpper(s[:1])[0]
	if !p.Valid() {
		return Pitch{}, fmt.Errorf("%w: bad letter in %q", ErrInvalidPitch, s)
	}

	i := 1
AccidentalLoop:
	for ; i < len(s); i++ {
		switch s[i] {
		case '#':
			p.Alter++
		case 'x':
			p.Alter += 2
		case 'b':
			p.Alter--
		default:
			break AccidentalLoop
		}
	}

	octave, err := strconv.Atoi(s[i:])
	if err != nil {
		return Pitch{}, fmt.Errorf("%w: bad octave in %q", ErrInvalidPitch, s)
	}
	p.Octave = octave
	return p, nil
}

// MarshalText renders the zero Pitch as an empty string.
func (p Pitch) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return []byte{}, nil
	}
	return []byte(p.String()), nil
}

func (p *Pitch) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*p = Pitch{}
		return nil
	}
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(s string) Pitch {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

// ClassName returns the canonical name of a pitch class, e.g. 10 -> "A#".
func ClassName(class int) string {
	return sharpNames[mod(class, 12)]
}

// ClassOf reads a pitch class from a key-like name such as "Bb" or "F#".
func ClassOf(name string) (int, error) {
	p, err := Parse(name + "4")
	if err != nil {
		return 0, err
	}
	return p.Class(), nil
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
