package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"imagerelay/internal/imagegen"
	"imagerelay/internal/infra"

	"github.com/rs/zerolog"
)

// App carries the dependencies shared by the HTTP handlers. It holds no
// per-request state.
type App struct {
	Config    *infra.Config
	Generator imagegen.Generator
	Logger    zerolog.Logger

	now      func() time.Time
	metadata []byte
}

// NewApp wires handlers around an explicit config and generator. A nil
// generator is replaced by an OpenAI client built from cfg.
func NewApp(cfg *infra.Config, gen imagegen.Generator, logger zerolog.Logger) *App {
	if cfg == nil {
		cfg = &infra.Config{}
	}
	if gen == nil {
		gen = imagegen.NewOpenAIClient(imagegen.OpenAIOptions{
			APIKey:       cfg.OpenAIAPIKey,
			BaseURL:      cfg.OpenAIBaseURL,
			Model:        cfg.OpenAIImageModel,
			Organization: cfg.OpenAIOrg,
			Timeout:      cfg.OpenAITimeout,
		})
	}
	return &App{
		Config:    cfg,
		Generator: gen,
		Logger:    logger,
		now:       time.Now,
		metadata:  mustEncodeMetadata(),
	}
}

type errorResponse struct {
	Error          string `json:"error"`
	UpstreamStatus int    `json:"upstream_status,omitempty"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, msg string, upstreamStatus int) {
	a.json(w, code, errorResponse{Error: msg, UpstreamStatus: upstreamStatus})
}
