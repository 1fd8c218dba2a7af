package events

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	RunStarted     Kind = "run_started"
	StageStarted   Kind = "stage_started"
	ChunkWritten   Kind = "chunk_written"
	StageCompleted Kind = "stage_completed"
	StageFailed    Kind = "stage_failed"
	Warning        Kind = "warning"
	RunCompleted   Kind = "run_completed"
	RunFailed      Kind = "run_failed"
)

// Categories mirror the three log streams an operator cares about.
const (
	CategoryDB       = "db"
	CategoryMask     = "mask"
	CategoryPopulate = "populate"
)

// Event is a single stage-boundary or progress notification.
type Event struct {
	RunID    uuid.UUID
	Kind     Kind
	Category string
	Stage    string
	Done     int
	Total    int
	Rows     int
	Message  string
	Err      error
	At       time.Time
}

type Sink interface {
	Emit(Event)
}

// Nop discards everything.
type Nop struct{}

func (Nop) Emit(Event) {}

// Multi fans an event out to several sinks in order.
type Multi []Sink

func (m Multi) Emit(e Event) {
	for _, s := range m {
		if s != nil {
			s.Emit(e)
		}
	}
}

// Recorder keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfKind returns the recorded events with the given kind, in emission order.
func (r *Recorder) OfKind(kind Kind) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Emitter stamps events with a run id and clock before handing them to a sink.
type Emitter struct {
	sink  Sink
	runID uuid.UUID
	now   func() time.Time
}

func NewEmitter(sink Sink, runID uuid.UUID) Emitter {
	if sink == nil {
		sink = Nop{}
	}
	return Emitter{sink: sink, runID: runID, now: time.Now}
}

func (e Emitter) RunID() uuid.UUID {
	return e.runID
}

func (e Emitter) Emit(ev Event) {
	if e.sink == nil {
		return
	}
	ev.RunID = e.runID
	if ev.At.IsZero() {
		if e.now != nil {
			ev.At = e.now()
		} else {
			ev.At = time.Now()
		}
	}
	e.sink.Emit(ev)
}

func (e Emitter) StageStarted(stage string, planned int) {
	e.Emit(Event{Kind: StageStarted, Category: CategoryPopulate, Stage: stage, Total: planned})
}

func (e Emitter) Chunk(stage string, done, total int) {
	e.Emit(Event{Kind: ChunkWritten, Category: CategoryDB, Stage: stage, Done: done, Total: total})
}

func (e Emitter) StageCompleted(stage string, rows int) {
	e.Emit(Event{Kind: StageCompleted, Category: CategoryPopulate, Stage: stage, Rows: rows})
}

func (e Emitter) StageFailed(stage string, err error) {
	e.Emit(Event{Kind: StageFailed, Category: CategoryPopulate, Stage: stage, Err: err})
}

func (e Emitter) Warn(category, stage, format string, args ...interface{}) {
	e.Emit(Event{Kind: Warning, Category: category, Stage: stage, Message: fmt.Sprintf(format, args...)})
}

func (e Emitter) RunStarted(format string, args ...interface{}) {
	e.Emit(Event{Kind: RunStarted, Category: CategoryPopulate, Message: fmt.Sprintf(format, args...)})
}

func (e Emitter) RunCompleted(rows int, format string, args ...interface{}) {
	e.Emit(Event{Kind: RunCompleted, Category: CategoryPopulate, Rows: rows, Message: fmt.Sprintf(format, args...)})
}

func (e Emitter) RunFailed(err error) {
	e.Emit(Event{Kind: RunFailed, Category: CategoryPopulate, Err: err})
}
