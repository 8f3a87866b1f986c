package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jsphweid/harptab/melody"
	"github.com/jsphweid/harptab/model"
	"github.com/jsphweid/harptab/notemap"
	"github.com/jsphweid/harptab/pipeline"
	"github.com/jsphweid/harptab/progress"
	"github.com/jsphweid/harptab/tab"
	"github.com/jsphweid/harptab/transposer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scaleJSON = `{
  "title": "Scale",
  "parts": [{"id": "P1", "measures": [
    {"number": 1, "notes": [
      {"type": "note", "pitch": {"step": "C", "octave": 4}, "duration": 1},
      {"type": "note", "pitch": {"step": "E", "octave": 4}, "duration": 1},
      {"type": "rest", "duration": 1},
      {"type": "note", "pitch": {"step": "G", "octave": 4}, "duration": 1}
    ]}
  ]}]
}`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: nope", errBadRequest), http.StatusBadRequest},
		{&melody.ValidationError{Reason: "bad"}, http.StatusBadRequest},
		{melody.ErrNoPlayablePart, http.StatusBadRequest},
		{fmt.Errorf("%w %q", tab.ErrUnknownStyle, "x"), http.StatusBadRequest},
		{fmt.Errorf("%w: order", transposer.ErrInvalidOptions), http.StatusBadRequest},
		{&notemap.UnknownMappingError{Type: "diatonic", Key: "H"}, http.StatusNotFound},
		{fmt.Errorf("%w: s", errSessionInUse), http.StatusConflict},
		{&transposer.NoViableTranspositionError{}, http.StatusUnprocessableEntity},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestRequestOptions(t *testing.T) {
	defaults := pipeline.DefaultOptions()
	defaults.HarmonicaKey = "G"
	LoadServeState(notemap.Embedded(), defaults, discardLogger())

	shift := 3
	opts, err := requestOptions(model.ConvertRequest{
		HarmonicaType: "diatonic",
		Style:         "symbols",
		MaxTechnique:  "bend-half",
		Shift:         &shift,
		DropRests:     true,
	})
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Equal("G", opts.HarmonicaKey)
	assert.Equal(tab.Symbols, opts.Style)
	assert.Equal(model.BendHalf, *opts.MaxTechnique)
	assert.Equal(3, *opts.ForceShift)
	assert.True(opts.DropRests)
	assert.Equal(defaults.Search, opts.Search)

	_, err = requestOptions(model.ConvertRequest{MaxTechnique: "tongue-block"})
	assert.ErrorIs(err, errBadRequest)
	_, err = requestOptions(model.ConvertRequest{Style: "braille"})
	assert.ErrorIs(err, tab.ErrUnknownStyle)
}

type memorySink struct {
	files []notemap.File
	fail  bool
}

func (m *memorySink) Put(f notemap.File) error {
	if m.fail {
		return errors.New("throttled")
	}
	m.files = append(m.files, f)
	return nil
}

func TestUploadTables(t *testing.T) {
	sink := &memorySink{}
	require.NoError(t, uploadTables(notemap.Embedded(), sink))

	assert := assert.New(t)
	assert.Len(sink.files, 14)
	assert.Equal("chromatic", sink.files[0].Type)
	assert.Equal("C", sink.files[0].Key)

	err := uploadTables(notemap.Embedded(), &memorySink{fail: true})
	assert.ErrorContains(err, "uploading chromatic C")

	err = uploadTables(notemap.Cached(notemap.Embedded()), sink)
	assert.Error(err)
}

func TestRenderResult(t *testing.T) {
	var score model.Score
	require.NoError(t, json.Unmarshal([]byte(scaleJSON), &score))

	conv := &pipeline.Converter{Maps: notemap.Embedded(), Logger: discardLogger()}
	res, err := conv.Convert(context.Background(), &score, pipeline.DefaultOptions())
	require.NoError(t, err)

	out := renderResult(res)
	assert := assert.New(t)
	assert.Contains(out, "Scale")
	assert.Contains(out, "diatonic in C")
	assert.Contains(out, "1↑")
	assert.Contains(out, tab.RestMark)
	assert.Contains(out, "100%")
}

func TestRenderDiagram(t *testing.T) {
	nm, err := notemap.Embedded().Load("diatonic", "C")
	require.NoError(t, err)

	out := renderDiagram(nm)
	assert := assert.New(t)
	assert.Contains(out, "diatonic harmonica in C")
	assert.Contains(out, "C4")
	assert.Contains(out, "D4")
	assert.Contains(out, "bend-half")
}

func TestConvertCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scale.json")
	require.NoError(t, os.WriteFile(path, []byte(scaleJSON), 0o644))
	ly := filepath.Join(dir, "scale.ly")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"convert", path, "--json", "--ly", ly})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))

	var res model.ConvertResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))

	assert := assert.New(t)
	assert.Equal("diatonic", res.HarmonicaType)
	assert.Equal("C", res.HarmonicaKey)
	assert.Equal(0, res.Shift)
	assert.True(res.Report.FullyPlayable)
	require.Len(t, res.Tablature, 4)
	assert.Equal("1↑", res.Tablature[0].Notation)
	assert.Equal(tab.RestMark, res.Tablature[2].Notation)

	data, err := os.ReadFile(ly)
	require.NoError(t, err)
	assert.Contains(string(data), `\version`)
}

func TestMapsListCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"maps", "list"})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))

	assert := assert.New(t)
	assert.Contains(out.String(), "chromatic:")
	assert.Contains(out.String(), "C G")
	assert.Contains(out.String(), "diatonic:")
}

const sharpsJSON = `{
  "title": "Sharps",
  "parts": [{"id": "P1", "measures": [
    {"number": 1, "notes": [
      {"type": "note", "pitch": {"step": "F", "alter": 1, "octave": 4}, "duration": 1, "note_type": "quarter"},
      {"type": "note", "pitch": {"step": "A", "alter": 1, "octave": 4}, "duration": 1, "note_type": "quarter"}
    ]}
  ]}]
}`

func TestConvertFileWritesTransposedKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sharps.json")
	require.NoError(t, os.WriteFile(path, []byte(sharpsJSON), 0o644))
	ly := filepath.Join(dir, "sharps.ly")

	shift := 1
	opts := pipeline.DefaultOptions()
	opts.ForceShift = &shift
	conv := &pipeline.Converter{Maps: notemap.Embedded(), Logger: discardLogger()}
	res, err := convertFile(context.Background(), conv, "sharps", path, opts, outputs{ly: ly})
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Equal(1, res.Shift)
	assert.Equal("C#", res.Melody.Key)
	assert.Equal("C#", res.Key)

	data, err := os.ReadFile(ly)
	require.NoError(t, err)
	assert.Contains(string(data), `\key cis \major`)
	assert.NotContains(string(data), `\key c \major`)
}

func serveJSON(t *testing.T, router http.Handler, method, target string, body any) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(method, target, r))
	return w.Code, w.Body.Bytes()
}

func TestProgressSessions(t *testing.T) {
	LoadServeState(notemap.Embedded(), pipeline.DefaultOptions(), discardLogger())
	router := NewRouter()

	var score model.Score
	require.NoError(t, json.Unmarshal([]byte(scaleJSON), &score))

	assert := assert.New(t)
	status, body := serveJSON(t, router, http.MethodPost, "/convert", model.ConvertRequest{Score: score, SessionID: "mine"})
	require.Equal(t, http.StatusOK, status, string(body))
	var res model.ConvertResponse
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal("mine", res.SessionID)

	status, body = serveJSON(t, router, http.MethodGet, "/progress/mine", nil)
	assert.Equal(http.StatusOK, status)
	var events []progress.Event
	require.NoError(t, json.Unmarshal(body, &events))
	if assert.NotEmpty(events) {
		last := events[len(events)-1]
		assert.Equal(progress.StageTablature, last.Stage)
		assert.Equal(progress.Completed, last.Status)
	}

	// a finished session is gone once read
	status, _ = serveJSON(t, router, http.MethodGet, "/progress/mine", nil)
	assert.Equal(http.StatusNotFound, status)
	assert.Equal(0, state.recorder.Len())

	require.True(t, state.recorder.Open("busy"))
	status, body = serveJSON(t, router, http.MethodPost, "/convert", model.ConvertRequest{Score: score, SessionID: "busy"})
	assert.Equal(http.StatusConflict, status, string(body))

	status, body = serveJSON(t, router, http.MethodGet, "/progress/busy", nil)
	assert.Equal(http.StatusOK, status)
	assert.JSONEq(`[]`, string(body))
	assert.True(state.recorder.Has("busy"), "an unfinished session survives a read")
	state.recorder.Forget("busy")

	status, _ = serveJSON(t, router, http.MethodPost, "/analyze", model.ConvertRequest{Score: score})
	assert.Equal(http.StatusOK, status)
	assert.Equal(0, state.recorder.Len(), "analyses are not recorded")
}

func TestSweepSessions(t *testing.T) {
	rec := progress.NewRecorder()
	rec.Observe(progress.Event{Session: "s", Stage: progress.StageTablature, Status: progress.Completed})
	rec.Finish("s")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweepSessions(ctx, rec, 20*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return !rec.Has("s") }, time.Second, 5*time.Millisecond)
	cancel()
	assert.Eventually(t, func() bool {
		select {
		case <-done:
			return true
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}

func TestBatchCommandKeepsSameNamedScoresApart(t *testing.T) {
	root := t.TempDir()
	for _, sub := range []string{"a", "b"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, sub), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(root, sub, "song.json"), []byte(scaleJSON), 0o644))
	}
	outDir := filepath.Join(t.TempDir(), "out")

	rootCmd.SetArgs([]string{"batch", root, "--out", outDir})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	assert.Equal(t, []string{"0000_song.json", "0001_song.json"}, names)
}
