// Package progress models the lifecycle of one generation as a small state
// machine: idle, then generating, then exactly one terminal state. Transports
// plug in as a Sink.
package progress

import (
	"errors"
	"sync"

	"imagerelay/internal/imagegen"
)

type Status string

const (
	StatusGenerating Status = "generating"
	StatusSuccess    Status = "success"
	StatusError      Status = "error"
)

// Event is the payload of one progress frame.
type Event struct {
	Status         Status           `json:"status"`
	Images         []imagegen.Image `json:"images,omitempty"`
	Prompt         string           `json:"prompt,omitempty"`
	Size           string           `json:"size,omitempty"`
	Error          string           `json:"error,omitempty"`
	UpstreamStatus int              `json:"upstream_status,omitempty"`
}

// Terminal reports whether e ends the stream.
func (e Event) Terminal() bool {
	return e.Status == StatusSuccess || e.Status == StatusError
}

// Sink delivers events to a transport.
type Sink interface {
	Send(Event) error
}

var (
	ErrAlreadyStarted = errors.New("progress: generating already emitted")
	ErrFinished       = errors.New("progress: terminal event already emitted")
)

type state int

const (
	stateIdle state = iota
	stateGenerating
	stateDone
)

// Emitter enforces at most one generating event followed by exactly one
// terminal event.
type Emitter struct {
	mu    sync.Mutex
	sink  Sink
	state state
}

func NewEmitter(sink Sink) *Emitter {
	return &Emitter{sink: sink}
}

// Start emits the generating event.
func (e *Emitter) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.state {
	case stateGenerating:
		return ErrAlreadyStarted
	case stateDone:
		return ErrFinished
	}
	e.state = stateGenerating
	return e.sink.Send(Event{Status: StatusGenerating})
}

// Succeed emits the success event carrying res.
func (e *Emitter) Succeed(res *imagegen.Result) error {
	ev := Event{Status: StatusSuccess}
	if res != nil {
		ev.Images = res.Images
		ev.Prompt = res.Prompt
		ev.Size = res.Size
	}
	return e.finish(ev)
}

// Fail emits the error event. A failure may be emitted straight from idle so
// that rejected requests still produce a well-formed stream.
func (e *Emitter) Fail(msg string, upstreamStatus int) error {
	return e.finish(Event{Status: StatusError, Error: msg, UpstreamStatus: upstreamStatus})
}

func (e *Emitter) finish(ev Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == stateDone {
		return ErrFinished
	}
	e.state = stateDone
	return e.sink.Send(ev)
}
