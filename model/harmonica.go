package model

import (
	"fmt"

	"github.com/jsphweid/harptab/pitch"
)

type Direction string

const (
	Blow Direction = "blow"
	Draw Direction = "draw"
)

type Technique string

const (
	Natural      Technique = ""
	Slide        Technique = "slide"
	BendHalf     Technique = "bend-half"
	BendFull     Technique = "bend-full"
	BendFullHalf Technique = "bend-full-half"
	Overblow     Technique = "overblow"
	Overdraw     Technique = "overdraw"
)

var techniqueLevels = map[Technique]int{
	Natural:      0,
	Slide:        1,
	BendHalf:     2,
	BendFull:     3,
	BendFullHalf: 4,
	Overblow:     5,
	Overdraw:     5,
}

// Level orders techniques by difficulty, natural notes first.
func (t Technique) Level() int {
	return techniqueLevels[t]
}

func (t Technique) IsBend() bool {
	return t == BendHalf || t == BendFull || t == BendFullHalf
}

// BendSteps is the number of semitones a bend lowers the reed.
func (t Technique) BendSteps() int {
	switch t {
	case BendHalf:
		return 1
	case BendFull:
		return 2
	case BendFullHalf:
		return 3
	}
	return 0
}

func ParseTechnique(s string) (Technique, error) {
	switch t := Technique(s); t {
	case Natural, Slide, BendHalf, BendFull, BendFullHalf, Overblow, Overdraw:
		return t, nil
	}
	if s == "natural" {
		return Natural, nil
	}
	return Natural, fmt.Errorf("unknown technique %q", s)
}

// Position is one way of sounding a pitch on a harmonica.
type Position struct {
	Hole      int         `json:"hole"`
	Direction Direction   `json:"direction"`
	Technique Technique   `json:"technique,omitempty"`
	Pitch     pitch.Pitch `json:"pitch"`
}

func (p Position) String() string {
	if p.Technique == Natural {
		return fmt.Sprintf("%d %s", p.Hole, p.Direction)
	}
	return fmt.Sprintf("%d %s %s", p.Hole, p.Direction, p.Technique)
}
