package melody

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransposeZeroIsNoOp(t *testing.T) {
	m, err := Extract(createTestScore())
	require.NoError(t, err)

	same := Transpose(m, 0)
	assert.Equal(t, m, same)
	assert.NotSame(t, m, same)
	assert.Equal(t, m.MidiSequence(), same.MidiSequence())
}

func TestTransposeRespellsFromMidi(t *testing.T) {
	m, err := Extract(createTestScore())
	require.NoError(t, err)

	up := Transpose(m, 1)
	assert := assert.New(t)
	assert.Equal([]int{61, 65, 68, 67}, up.MidiSequence())
	assert.Equal("C#4", up.Events[0].Pitch.String())
	assert.Equal("F4", up.Events[1].Pitch.String())
	assert.True(up.Events[2].IsRest())
	assert.Equal(m.Events[2], up.Events[2])

	// the source is untouched
	assert.Equal([]int{60, 64, 67, 66}, m.MidiSequence())
}

func TestTransposeMovesKey(t *testing.T) {
	m, err := Extract(createTestScore())
	require.NoError(t, err)
	require.Equal(t, "C", m.Key)

	assert := assert.New(t)
	assert.Equal("C#", Transpose(m, 1).Key)
	assert.Equal("A", Transpose(m, -3).Key)
	assert.Equal("C", Transpose(m, 12).Key)
	assert.Equal("C", Transpose(m, 0).Key)
	assert.Equal("C", m.Key)

	minor := m.Clone()
	minor.Key = "Am"
	assert.Equal("Bm", Transpose(minor, 2).Key)
}

func TestTransposeCrossesOctaves(t *testing.T) {
	m, err := Extract(createTestScore())
	require.NoError(t, err)

	down := Transpose(m, -1)
	assert.Equal(t, "B3", down.Events[0].Pitch.String())
	assert.Equal(t, "C5", Transpose(m, 12).Events[0].Pitch.String())
}

func TestTransposeGroupLaw(t *testing.T) {
	m, err := Extract(createTestScore())
	require.NoError(t, err)

	for a := -14; a <= 14; a += 3 {
		for b := -13; b <= 13; b += 2 {
			chained := Transpose(Transpose(m, a), b)
			direct := Transpose(m, a+b)
			assert.Equal(t, direct.MidiSequence(), chained.MidiSequence(), "a=%d b=%d", a, b)
		}
	}
}
