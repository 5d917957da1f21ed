package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var ErrStreamingUnsupported = errors.New("progress: response writer does not support flushing")

// SSEWriter frames events as `data: <json>\n\n` on an event-stream response.
// Headers are written on the first event.
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	opened  bool
}

func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}
	return &SSEWriter{w: w, flusher: flusher}, nil
}

// Open writes the event-stream headers and flushes them.
func (s *SSEWriter) Open() {
	if s.opened {
		return
	}
	s.opened = true
	h := s.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	s.w.WriteHeader(http.StatusOK)
	s.flusher.Flush()
}

func (s *SSEWriter) Send(ev Event) error {
	s.Open()
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", payload); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// Recorder keeps only the terminal event. Plain JSON transports use it to
// reuse the emitter and answer with the terminal payload.
type Recorder struct {
	Last *Event
}

func (r *Recorder) Send(ev Event) error {
	if ev.Terminal() {
		r.Last = &ev
	}
	return nil
}
