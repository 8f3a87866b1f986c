// Package progress reports conversion milestones to an injected observer.
package progress

import (
	"log/slog"
	"sync"
	"time"
)

type Stage string

const (
	StageOCR         Stage = "ocr"
	StageMelody      Stage = "melody"
	StageAnalysis    Stage = "analysis"
	StageMappingLoad Stage = "mapping_load"
	StageTranspose   Stage = "transpose"
	StageTablature   Stage = "tablature"
	StagePDF         Stage = "pdf"
	StageBatch       Stage = "batch"
)

type Status string

const (
	Started   Status = "started"
	Running   Status = "running"
	Completed Status = "completed"
	Failed    Status = "error"
)

// Terminal reports whether no further events are expected for the stage.
func (s Status) Terminal() bool {
	return s == Completed || s == Failed
}

type Event struct {
	Session string `json:"session"`
	Stage   Stage  `json:"stage"`
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

type Observer interface {
	Observe(Event)
}

type Func func(Event)

func (f Func) Observe(e Event) {
	f(e)
}

// Nop discards everything.
var Nop Observer = Func(func(Event) {})

type multi []Observer

// Multi fans every event out to each observer in turn.
func Multi(observers ...Observer) Observer {
	return multi(observers)
}

func (m multi) Observe(e Event) {
	for _, o := range m {
		o.Observe(e)
	}
}

type logObserver struct {
	logger *slog.Logger
}

// Log writes events to logger. Failures are logged at error level, running
// updates at debug level.
func Log(logger *slog.Logger) Observer {
	return &logObserver{logger: logger}
}

func (l *logObserver) Observe(e Event) {
	args := []any{"session", e.Session, "stage", e.Stage, "status", e.Status}
	if e.Message != "" {
		args = append(args, "message", e.Message)
	}
	switch e.Status {
	case Failed:
		l.logger.Error("progress: stage failed", append(args, "error", e.Error)...)
	case Running:
		l.logger.Debug("progress: stage running", args...)
	default:
		l.logger.Info("progress: stage "+string(e.Status), args...)
	}
}

// Recorder keeps the event history of every session it has seen. A session
// stays until it is finished and then either taken or swept.
type Recorder struct {
	mu       sync.Mutex
	sessions map[string]*session
	now      func() time.Time
}

type session struct {
	events   []Event
	finished time.Time
}

func NewRecorder() *Recorder {
	return &Recorder{sessions: make(map[string]*session), now: time.Now}
}

func (r *Recorder) Observe(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[e.Session]
	if !ok {
		s = &session{}
		r.sessions[e.Session] = s
	}
	s.events = append(s.events, e)
}

// Events returns a copy of the history of session.
func (r *Recorder) Events(id string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return []Event{}
	}
	res := make([]Event, len(s.events))
	copy(res, s.events)
	return res
}

func (r *Recorder) Has(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[id]
	return ok
}

// Open starts an empty history for session. It reports false when the id is
// already taken.
func (r *Recorder) Open(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; ok {
		return false
	}
	r.sessions[id] = &session{}
	return true
}

// Finish marks session as over. Nothing more will be recorded for it that a
// reader has to wait for.
func (r *Recorder) Finish(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		s.finished = r.now()
	}
}

// Take returns the history of session and reports whether it is known. A
// finished session is forgotten once taken.
func (r *Recorder) Take(id string) ([]Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	res := make([]Event, len(s.events))
	copy(res, s.events)
	if !s.finished.IsZero() {
		delete(r.sessions, id)
	}
	return res, true
}

// Sweep forgets the sessions finished more than ttl ago and returns how many
// it dropped.
func (r *Recorder) Sweep(ttl time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-ttl)
	var n int
	for id, s := range r.sessions {
		if !s.finished.IsZero() && s.finished.Before(cutoff) {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

// Len returns the number of sessions held.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Forget drops the history of session.
func (r *Recorder) Forget(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Reporter stamps events with a session id before passing them on.
type Reporter struct {
	Session  string
	Observer Observer
}

func (r Reporter) emit(e Event) {
	if r.Observer == nil {
		return
	}
	e.Session = r.Session
	r.Observer.Observe(e)
}

func (r Reporter) Start(stage Stage) {
	r.emit(Event{Stage: stage, Status: Started})
}

func (r Reporter) Update(stage Stage, msg string) {
	r.emit(Event{Stage: stage, Status: Running, Message: msg})
}

func (r Reporter) Done(stage Stage, msg string) {
	r.emit(Event{Stage: stage, Status: Completed, Message: msg})
}

// Fail reports err against stage and returns it unchanged.
func (r Reporter) Fail(stage Stage, err error) error {
	r.emit(Event{Stage: stage, Status: Failed, Error: err.Error()})
	return err
}
