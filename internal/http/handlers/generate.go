package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"imagerelay/internal/domain"
	"imagerelay/internal/imagegen"
	"imagerelay/internal/middleware"
	"imagerelay/internal/progress"
)

const maxGenerateBodyBytes = 1 << 20

type plainGenerateResponse struct {
	ImageURL string           `json:"image_url,omitempty"`
	Images   []imagegen.Image `json:"images"`
	Prompt   string           `json:"prompt"`
	Size     string           `json:"size"`
}

// GenerateStream relays one generation over Server-Sent Events. Once the
// stream is open the status stays 200 and failures travel as error events.
// ?stream=false falls back to the plain JSON transport.
func (a *App) GenerateStream(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("stream") == "false" {
		a.GeneratePlain(w, r)
		return
	}
	sse, err := progress.NewSSEWriter(w)
	if err != nil {
		a.Logger.Error().Err(err).Str("request_id", middleware.RequestIDFromContext(r.Context())).Msg("cannot stream response")
		a.error(w, http.StatusInternalServerError, "streaming unsupported", 0)
		return
	}
	_ = a.relay(r, progress.NewEmitter(sse))
}

// GeneratePlain relays one generation and answers with a single JSON body.
func (a *App) GeneratePlain(w http.ResponseWriter, r *http.Request) {
	rec := &progress.Recorder{}
	if err := a.relay(r, progress.NewEmitter(rec)); err != nil {
		a.error(w, statusFor(err), err.Error(), upstreamStatus(err))
		return
	}
	if rec.Last == nil || rec.Last.Status != progress.StatusSuccess {
		a.error(w, http.StatusInternalServerError, "generation produced no result", 0)
		return
	}
	out := plainGenerateResponse{
		Images: rec.Last.Images,
		Prompt: rec.Last.Prompt,
		Size:   rec.Last.Size,
	}
	res := imagegen.Result{Images: out.Images}
	out.ImageURL = res.FirstURL()
	a.json(w, http.StatusOK, out)
}

// relay runs one request through the emitter: validation failures go
// straight to a terminal error, otherwise generating is emitted before the
// single upstream call. The returned error is the failure that was emitted.
func (a *App) relay(r *http.Request, em *progress.Emitter) error {
	ctx := r.Context()
	req, err := decodeGenerateRequest(r)
	if err == nil {
		err = a.precheck(req)
	}
	if err != nil {
		a.emitFailure(ctx, em, err)
		return err
	}
	req.Normalize()

	if err := em.Start(); err != nil {
		a.logSendFailure(ctx, err)
	}
	res, err := a.Generator.Generate(ctx, req)
	if err == nil && res == nil {
		err = &imagegen.UpstreamError{Reason: "malformed response: no result"}
	}
	if err != nil {
		a.emitFailure(ctx, em, err)
		return err
	}
	if err := em.Succeed(res); err != nil {
		a.logSendFailure(ctx, err)
	}
	a.Logger.Info().
		Str("request_id", middleware.RequestIDFromContext(ctx)).
		Int("images", len(res.Images)).
		Str("size", res.Size).
		Msg("image generation succeeded")
	return nil
}

func (a *App) precheck(req imagegen.GenerateRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if a.Config == nil || a.Config.OpenAIAPIKey == "" {
		return domain.ErrMissingCredential
	}
	return nil
}

func (a *App) emitFailure(ctx context.Context, em *progress.Emitter, err error) {
	status := upstreamStatus(err)
	rid := middleware.RequestIDFromContext(ctx)
	switch {
	case errors.Is(err, domain.ErrPromptRequired), errors.Is(err, domain.ErrInvalidPayload):
		a.Logger.Debug().Err(err).Str("request_id", rid).Msg("rejected generation request")
	case errors.Is(err, domain.ErrMissingCredential):
		a.Logger.Error().Err(err).Str("request_id", rid).Msg("relay is missing its upstream credential")
	default:
		a.Logger.Error().Err(err).Str("request_id", rid).Int("upstream_status", status).Msg("image generation failed")
	}
	if sendErr := em.Fail(err.Error(), status); sendErr != nil {
		a.logSendFailure(ctx, sendErr)
	}
}

func (a *App) logSendFailure(ctx context.Context, err error) {
	a.Logger.Warn().Err(err).Str("request_id", middleware.RequestIDFromContext(ctx)).Msg("failed to deliver progress event")
}

func decodeGenerateRequest(r *http.Request) (imagegen.GenerateRequest, error) {
	var req imagegen.GenerateRequest
	if r.Body == nil {
		return req, nil
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxGenerateBodyBytes))
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return imagegen.GenerateRequest{}, nil
		}
		return imagegen.GenerateRequest{}, domain.ErrInvalidPayload
	}
	return req, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrPromptRequired), errors.Is(err, domain.ErrInvalidPayload):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func upstreamStatus(err error) int {
	var upstream *imagegen.UpstreamError
	if errors.As(err, &upstream) && upstream.StatusCode >= http.StatusBadRequest {
		return upstream.StatusCode
	}
	return 0
}
