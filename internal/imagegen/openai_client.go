package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"imagerelay/internal/domain"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "gpt-image-1"
	maxErrorBodyBytes    = 64 << 10
)

type OpenAIOptions struct {
	APIKey       string
	BaseURL      string
	Model        string
	Organization string
	HTTPClient   *http.Client
	// Timeout applies only when HTTPClient is nil. Zero keeps the transport defaults.
	Timeout time.Duration
}

// OpenAIClient calls the OpenAI images API once per Generate call.
type OpenAIClient struct {
	httpClient   *http.Client
	baseURL      string
	model        string
	token        string
	organization string
}

func NewOpenAIClient(opts OpenAIOptions) *OpenAIClient {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = defaultOpenAIBaseURL
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultOpenAIModel
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	return &OpenAIClient{
		httpClient:   client,
		baseURL:      base,
		model:        model,
		token:        strings.TrimSpace(opts.APIKey),
		organization: strings.TrimSpace(opts.Organization),
	}
}

type openAIImageRequest struct {
	Model      string `json:"model"`
	Prompt     string `json:"prompt"`
	Size       string `json:"size"`
	N          int    `json:"n"`
	Background string `json:"background"`
}

type openAIImageResponse struct {
	Created int64    `json:"created"`
	Data    *[]Image `json:"data"`
	Error   *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}

// Generate sends req to the images endpoint. The request is normalized first
// so the result echoes the effective prompt and size.
func (c *OpenAIClient) Generate(ctx context.Context, req GenerateRequest) (*Result, error) {
	if c == nil {
		return nil, errors.New("openai client not configured")
	}
	if c.token == "" {
		return nil, domain.ErrMissingCredential
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	payload := openAIImageRequest{
		Model:      c.model,
		Prompt:     req.Prompt,
		Size:       req.Size,
		N:          req.Count,
		Background: req.Background,
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, err
	}
	endpoint := c.baseURL + "/images/generations"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.token)
	if c.organization != "" {
		httpReq.Header.Set("OpenAI-Organization", c.organization)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("OpenAI request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var out openAIImageResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Reason: "malformed response: " + err.Error()}
	}
	if out.Error != nil {
		msg := strings.TrimSpace(out.Error.Message)
		if msg == "" {
			msg = "unknown error"
		}
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Reason: msg}
	}
	if out.Data == nil {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Reason: "malformed response: missing data"}
	}
	images := *out.Data
	if len(images) == 0 {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Reason: "malformed response: no images returned"}
	}
	for i, img := range images {
		if img.URL == "" && img.B64JSON == "" {
			return nil, &UpstreamError{StatusCode: resp.StatusCode, Reason: fmt.Sprintf("malformed response: image %d has neither url nor b64_json", i)}
		}
	}

	return &Result{Images: images, Prompt: req.Prompt, Size: req.Size}, nil
}
