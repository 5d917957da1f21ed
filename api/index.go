// Package api exposes the relay as a plain handler function for hosts that
// invoke a handler per request instead of running a listener.
package api

import (
	"net/http"
	"sync"

	"github.com/joho/godotenv"

	"imagerelay/internal/http/handlers"
	httpapi "imagerelay/internal/http/httpapi"
	"imagerelay/internal/infra"
)

var (
	once   sync.Once
	router http.Handler
)

func build() http.Handler {
	_ = godotenv.Load()
	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)
	return httpapi.NewRouter(handlers.NewApp(cfg, nil, logger))
}

// Handler serves every relay route. The router is built on first use.
func Handler(w http.ResponseWriter, r *http.Request) {
	once.Do(func() { router = build() })
	router.ServeHTTP(w, r)
}
