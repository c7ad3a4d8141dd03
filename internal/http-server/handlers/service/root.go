package service

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"WaGate/internal/lib/sl"
)

// Root is the liveness probe.
func Root(log *slog.Logger) http.HandlerFunc {
	logger := log.With(sl.Module("http.handlers.service"))
	return func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("hello world")
		render.JSON(w, r, map[string]string{"message": "Hello World"})
	}
}
