package httpapi

import (
	"net/http"

	"imagerelay/internal/http/handlers"
	"imagerelay/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(app *handlers.App) http.Handler {
	r := chi.NewRouter()

	var origins []string
	if app.Config != nil {
		origins = app.Config.CORSAllowedOrigins
	}

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		middleware.Logger(app.Logger),
		chimw.Recoverer,
		middleware.CORS(origins),
	)

	r.Get("/", app.Metadata)
	r.Get("/health", app.Health)
	r.Post("/sse", app.GenerateStream)
	r.Post("/generate", app.GeneratePlain)

	return r
}
