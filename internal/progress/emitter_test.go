package progress

import (
	"bufio"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"imagerelay/internal/imagegen"
)

type captureSink struct {
	events []Event
}

func (c *captureSink) Send(ev Event) error {
	c.events = append(c.events, ev)
	return nil
}

func TestEmitterSuccessSequence(t *testing.T) {
	sink := &captureSink{}
	em := NewEmitter(sink)
	if err := em.Start(); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	res := &imagegen.Result{Images: []imagegen.Image{{URL: "https://x/1.png"}}, Prompt: "a red fox", Size: "1024x1024"}
	if err := em.Succeed(res); err != nil {
		t.Fatalf("Succeed error: %v", err)
	}
	if len(sink.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(sink.events))
	}
	if sink.events[0].Status != StatusGenerating {
		t.Fatalf("first event = %s, want generating", sink.events[0].Status)
	}
	last := sink.events[1]
	if last.Status != StatusSuccess || last.Prompt != "a red fox" || last.Size != "1024x1024" || len(last.Images) != 1 {
		t.Fatalf("unexpected terminal event: %+v", last)
	}
}

func TestEmitterRejectsExtraEvents(t *testing.T) {
	sink := &captureSink{}
	em := NewEmitter(sink)
	_ = em.Start()
	if err := em.Start(); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("second Start err = %v, want ErrAlreadyStarted", err)
	}
	_ = em.Fail("boom", 0)
	if err := em.Succeed(nil); !errors.Is(err, ErrFinished) {
		t.Fatalf("Succeed after Fail err = %v, want ErrFinished", err)
	}
	if err := em.Fail("again", 0); !errors.Is(err, ErrFinished) {
		t.Fatalf("second Fail err = %v, want ErrFinished", err)
	}
	if err := em.Start(); !errors.Is(err, ErrFinished) {
		t.Fatalf("Start after terminal err = %v, want ErrFinished", err)
	}
	if len(sink.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(sink.events))
	}
}

func TestEmitterFailFromIdle(t *testing.T) {
	sink := &captureSink{}
	em := NewEmitter(sink)
	if err := em.Fail("Prompt is required", 0); err != nil {
		t.Fatalf("Fail error: %v", err)
	}
	if len(sink.events) != 1 || sink.events[0].Status != StatusError || sink.events[0].Error != "Prompt is required" {
		t.Fatalf("unexpected events: %+v", sink.events)
	}
}

func TestSSEWriterFraming(t *testing.T) {
	rec := httptest.NewRecorder()
	sse, err := NewSSEWriter(rec)
	if err != nil {
		t.Fatalf("NewSSEWriter error: %v", err)
	}
	em := NewEmitter(sse)
	_ = em.Start()
	_ = em.Fail("OpenAI API error: 429 slow down", http.StatusTooManyRequests)

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !rec.Flushed {
		t.Fatalf("expected response to be flushed")
	}

	var frames []map[string]any
	scanner := bufio.NewScanner(strings.NewReader(rec.Body.String()))
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "data: ") {
			t.Fatalf("unexpected line: %q", line)
		}
		var frame map[string]any
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &frame); err != nil {
			t.Fatalf("decode frame: %v", err)
		}
		frames = append(frames, frame)
	}
	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d: %q", len(frames), rec.Body.String())
	}
	if frames[0]["status"] != "generating" || frames[1]["status"] != "error" {
		t.Fatalf("unexpected statuses: %v", frames)
	}
	if frames[1]["upstream_status"] != float64(429) {
		t.Fatalf("upstream_status = %v", frames[1]["upstream_status"])
	}
	if !strings.HasSuffix(rec.Body.String(), "\n\n") {
		t.Fatalf("frames must end with a blank line")
	}
}

type plainWriter struct {
	header http.Header
}

func (p *plainWriter) Header() http.Header { return p.header }

func (p *plainWriter) Write(b []byte) (int, error) { return len(b), nil }

func (p *plainWriter) WriteHeader(int) {}

func TestNewSSEWriterRequiresFlusher(t *testing.T) {
	if _, err := NewSSEWriter(&plainWriter{header: http.Header{}}); !errors.Is(err, ErrStreamingUnsupported) {
		t.Fatalf("err = %v, want ErrStreamingUnsupported", err)
	}
}

func TestRecorderKeepsTerminal(t *testing.T) {
	rec := &Recorder{}
	em := NewEmitter(rec)
	_ = em.Start()
	if rec.Last != nil {
		t.Fatalf("generating must not be recorded")
	}
	_ = em.Succeed(&imagegen.Result{Prompt: "p", Size: "s"})
	if rec.Last == nil || rec.Last.Status != StatusSuccess || rec.Last.Prompt != "p" {
		t.Fatalf("unexpected recorded event: %+v", rec.Last)
	}
}
