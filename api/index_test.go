package api

import (
	"bufio"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandlerServesRoutesWithoutCredential(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("OPENAI_API_KEY", "")

	rec := httptest.NewRecorder()
	Handler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected health response: %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	Handler(rec, httptest.NewRequest(http.MethodPost, "/sse", strings.NewReader(`{"prompt":"a red fox"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var frames []string
	scanner := bufio.NewScanner(strings.NewReader(rec.Body.String()))
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			frames = append(frames, line)
		}
	}
	if len(frames) != 1 || !strings.Contains(frames[0], `"status":"error"`) || !strings.Contains(frames[0], "OpenAI API key is not configured") {
		t.Fatalf("unexpected frames: %v", frames)
	}
}
