package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path, content string) {
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestGatherScorePaths(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.mxl"), "")
	touch(t, filepath.Join(dir, "a.json"), "{}")
	touch(t, filepath.Join(dir, "nested", "c.MID"), "")
	touch(t, filepath.Join(dir, "notes.txt"), "")

	paths, err := GatherScorePaths(dir, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.json"),
		filepath.Join(dir, "b.mxl"),
		filepath.Join(dir, "nested", "c.MID"),
	}, paths)

	paths, err = GatherScorePaths(dir, 2)
	require.NoError(t, err)
	assert.Len(t, paths, 2)

	_, err = GatherScorePaths(filepath.Join(dir, "missing"), 0)
	assert.Error(t, err)
}

func TestCreateFileNumMap(t *testing.T) {
	m := CreateFileNumMap([]string{"x.xml", "y.mid", "z.json"})

	assert := assert.New(t)
	assert.Equal([]uint32{0, 1, 2}, m.Nums())
	assert.Equal("y.mid", m[1])
}

func TestReadScoreJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.json")
	touch(t, path, `{
		"title": "Ode",
		"key": {"fifths": 0, "mode": "major"},
		"parts": [{"id": "P1", "measures": [{"number": 1, "notes": [
			{"type": "note", "pitch": {"step": "E", "octave": 4, "alter": 0}, "duration": 1, "note_type": "quarter"},
			{"type": "rest", "duration": 1}
		]}]}]
	}`)

	score, err := ReadScore(path)
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Equal("Ode", score.Title)
	assert.Equal(path, score.SourceFile)
	require.Len(t, score.Parts, 1)
	notes := score.Parts[0].Measures[0].Notes
	require.Len(t, notes, 2)
	assert.Equal(4, *notes[0].Pitch.Octave)
}

func TestReadScoreErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadScore(filepath.Join(dir, "song.pdf"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	bad := filepath.Join(dir, "bad.json")
	touch(t, bad, "{")
	_, err = ReadScore(bad)
	assert.Error(t, err)
}

func TestOutputPath(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(filepath.Join("out", "0003_song.ly"), OutputPath(3, filepath.Join("in", "song.mxl"), "out", ".ly"))

	m := CreateFileNumMap([]string{filepath.Join("a", "song.xml"), filepath.Join("b", "song.mid")})
	seen := map[string]bool{}
	for _, num := range m.Nums() {
		out := OutputPath(num, m[num], "out", ".json")
		assert.False(seen[out], "%s written twice", out)
		seen[out] = true
	}
	assert.Len(seen, 2)
}
