package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/jsphweid/harptab/constants"
	"github.com/jsphweid/harptab/melody"
	"github.com/jsphweid/harptab/model"
	"github.com/jsphweid/harptab/notemap"
	"github.com/jsphweid/harptab/pipeline"
	"github.com/jsphweid/harptab/progress"
	"github.com/jsphweid/harptab/tab"
	"github.com/jsphweid/harptab/transposer"
	"github.com/jsphweid/harptab/util"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
)

var (
	errBadRequest   = errors.New("bad request")
	errSessionInUse = errors.New("session id already in use")
)

// serveState is what the handlers share. It is set once by LoadServeState
// before the server starts.
type serveState struct {
	converter *pipeline.Converter
	analyzer  *pipeline.Converter
	recorder  *progress.Recorder
	maps      notemap.Source
	defaults  pipeline.Options
}

var state *serveState

func init() {
	serveCmd.Flags().String("addr", "", "address to listen on (default :8080)")
	serveCmd.Flags().String("type", "", "harmonica type used when a request names none")
	serveCmd.Flags().String("key", "", "harmonica key used when a request names none")
	serveCmd.Flags().Int("min-shift", 0, "lowest transposition tried, in semitones")
	serveCmd.Flags().Int("max-shift", 0, "highest transposition tried, in semitones")
	serveCmd.Flags().Float64("min-coverage", 0, "share of notes that must be playable")
	serveCmd.Flags().String("order", "", "search order (magnitude, ascending)")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the conversion over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := newSource()
		if err != nil {
			return err
		}
		defaults, err := pipelineOptions(cmd)
		if err != nil {
			return err
		}
		LoadServeState(src, defaults, slog.Default())
		return serve(cmd.Context(), constants.GetServeAddr())
	},
}

// LoadServeState prepares the handlers to convert with src. Requests that
// leave an option out get it from defaults. Only conversions are recorded for
// /progress; analyses are logged.
func LoadServeState(src notemap.Source, defaults pipeline.Options, logger *slog.Logger) {
	recorder := progress.NewRecorder()
	state = &serveState{
		converter: &pipeline.Converter{
			Maps:     src,
			Observer: progress.Multi(progress.Log(logger), recorder),
			Logger:   logger,
		},
		analyzer: &pipeline.Converter{
			Maps:     src,
			Observer: progress.Log(logger),
			Logger:   logger,
		},
		recorder: recorder,
		maps:     src,
		defaults: defaults,
	}
}

func NewRouter() http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/convert", HandleConvert).Methods("POST")
	router.HandleFunc("/analyze", HandleAnalyze).Methods("POST")
	router.HandleFunc("/harmonicas", HandleHarmonicas).Methods("GET")
	router.HandleFunc("/harmonicas/{type}/{key}", HandleHarmonica).Methods("GET")
	router.HandleFunc("/progress/{id}", HandleProgress).Methods("GET")

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(router)
}

func serve(ctx context.Context, addr string) error {
	go sweepSessions(ctx, state.recorder, constants.GetProgressTTL())

	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("serve: listening", "addr", addr)
	return srv.ListenAndServe()
}

// sweepSessions drops finished sessions nobody polled once they are older
// than ttl. It returns when ctx is done.
func sweepSessions(ctx context.Context, rec *progress.Recorder, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := rec.Sweep(ttl); n > 0 {
				slog.Debug("serve: swept finished sessions", "count", n, "live", rec.Len())
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("serve: could not write response", "error", err)
	}
}

// statusFor maps a conversion error to the HTTP status reported for it.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, melody.ErrInvalidScore),
		errors.Is(err, melody.ErrEmptyScore),
		errors.Is(err, tab.ErrUnknownStyle),
		errors.Is(err, transposer.ErrInvalidOptions):
		return http.StatusBadRequest
	case errors.Is(err, notemap.ErrUnknownMapping):
		return http.StatusNotFound
	case errors.Is(err, errSessionInUse):
		return http.StatusConflict
	case errors.Is(err, transposer.ErrNoViableTransposition):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("serve: request failed", "error", err)
	}
	writeJSON(w, status, model.ErrorResponse{Error: err.Error()})
}

// requestOptions fills the options of a request in from the server defaults.
func requestOptions(req model.ConvertRequest) (pipeline.Options, error) {
	opts := state.defaults
	if req.HarmonicaType != "" {
		opts.HarmonicaType = req.HarmonicaType
	}
	if req.HarmonicaKey != "" {
		opts.HarmonicaKey = req.HarmonicaKey
	}
	if req.Style != "" {
		style, err := tab.ParseStyle(req.Style)
		if err != nil {
			return opts, err
		}
		opts.Style = style
	}
	if req.MaxTechnique != "" {
		t, err := model.ParseTechnique(req.MaxTechnique)
		if err != nil {
			return opts, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		opts.MaxTechnique = &t
	}
	opts.ForceShift = req.Shift
	opts.DropRests = req.DropRests
	return opts, nil
}

func decodeRequest(r *http.Request) (model.ConvertRequest, pipeline.Options, error) {
	var req model.ConvertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, pipeline.Options{}, fmt.Errorf("%w: could not decode request body: %v", errBadRequest, err)
	}
	opts, err := requestOptions(req)
	return req, opts, err
}

func HandleConvert(w http.ResponseWriter, r *http.Request) {
	req, opts, err := decodeRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	session := req.SessionID
	if session == "" {
		session = pipeline.NewSessionID()
	}
	if !state.recorder.Open(session) {
		writeError(w, fmt.Errorf("%w: %s", errSessionInUse, session))
		return
	}
	defer state.recorder.Finish(session)

	res, err := state.converter.ConvertSession(r.Context(), session, &req.Score, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res.Response())
}

func HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	req, opts, err := decodeRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	a, err := state.analyzer.Analyze(r.Context(), &req.Score, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.Response())
}

func HandleHarmonicas(w http.ResponseWriter, r *http.Request) {
	l, ok := state.maps.(notemap.Lister)
	if !ok {
		writeError(w, errors.New("harmonica table source cannot list its tables"))
		return
	}
	ids, err := l.List()
	if err != nil {
		writeError(w, err)
		return
	}

	groups := notemap.Group(ids)
	res := make([]model.HarmonicaSummary, 0, len(groups))
	for _, harpType := range util.SortedKeys(groups) {
		res = append(res, model.HarmonicaSummary{Type: harpType, Keys: groups[harpType]})
	}
	writeJSON(w, http.StatusOK, res)
}

type harmonicaResponse struct {
	Type  string                `json:"type"`
	Key   string                `json:"key"`
	Holes []notemap.HoleDiagram `json:"holes"`
}

func HandleHarmonica(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	nm, err := state.maps.Load(vars["type"], vars["key"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, harmonicaResponse{Type: nm.Type(), Key: nm.Key(), Holes: nm.Diagram()})
}

// HandleProgress returns the stage history of a conversion session. The
// history of a finished conversion can be read once.
func HandleProgress(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	events, ok := state.recorder.Take(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, model.ErrorResponse{Error: "unknown session " + id})
		return
	}
	writeJSON(w, http.StatusOK, events)
}
