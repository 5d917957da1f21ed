package imagegen

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"imagerelay/internal/domain"
)

const (
	DefaultSize       = "1024x1024"
	DefaultBackground = "auto"
	DefaultCount      = 1
)

// GenerateRequest is one inbound generation request. Count travels as "n"
// on the wire to match the upstream field name.
type GenerateRequest struct {
	Prompt     string `json:"prompt"`
	Size       string `json:"size,omitempty"`
	Background string `json:"background,omitempty"`
	Count      int    `json:"n,omitempty"`
}

// Normalize fills optional fields with their defaults. Values outside the
// upstream enums are left alone and surface as upstream errors.
func (r *GenerateRequest) Normalize() {
	r.Size = strings.TrimSpace(r.Size)
	if r.Size == "" {
		r.Size = DefaultSize
	}
	r.Background = strings.TrimSpace(r.Background)
	if r.Background == "" {
		r.Background = DefaultBackground
	}
	if r.Count == 0 {
		r.Count = DefaultCount
	}
}

// Validate reports domain.ErrPromptRequired for an empty prompt.
func (r GenerateRequest) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return domain.ErrPromptRequired
	}
	return nil
}

// Image is one generated image as issued by the upstream. The URL may be
// short lived; it is relayed untouched.
type Image struct {
	URL           string `json:"url,omitempty"`
	B64JSON       string `json:"b64_json,omitempty"`
	RevisedPrompt string `json:"revised_prompt,omitempty"`
}

// Result is a successful generation with the request's prompt and size echoed.
type Result struct {
	Images []Image `json:"images"`
	Prompt string  `json:"prompt"`
	Size   string  `json:"size"`
}

// FirstURL returns the URL of the first image that has one.
func (r *Result) FirstURL() string {
	if r == nil {
		return ""
	}
	for _, img := range r.Images {
		if img.URL != "" {
			return img.URL
		}
	}
	return ""
}

// Generator issues one upstream generation call per invocation.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (*Result, error)
}

// UpstreamError reports a non-success or non-conforming upstream response.
// Non-success responses keep the raw body; 2xx responses that do not match
// the expected schema carry a Reason instead.
type UpstreamError struct {
	StatusCode int
	Body       string
	Reason     string
}

func (e *UpstreamError) Error() string {
	if e.StatusCode >= http.StatusBadRequest {
		detail := strings.TrimSpace(e.Body)
		if detail == "" {
			detail = http.StatusText(e.StatusCode)
		}
		return fmt.Sprintf("OpenAI API error: %d %s", e.StatusCode, detail)
	}
	return "OpenAI API error: " + e.Reason
}

// Is lets callers match any upstream failure with domain.ErrUpstream.
func (e *UpstreamError) Is(target error) bool {
	return target == domain.ErrUpstream
}
