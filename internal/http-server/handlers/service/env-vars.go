package service

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"WaGate/internal/lib/sl"
)

type EnvVarsResponse struct {
	WebhookVerifyToken string `json:"webhook_verify_token"`
	GraphApiToken      string `json:"graph_api_token"`
}

func GetEnvVars(log *slog.Logger, handler Core) http.HandlerFunc {
	logger := log.With(sl.Module("http.handlers.service"))
	return func(w http.ResponseWriter, r *http.Request) {
		logger.Info("getting environment variables")
		verifyToken, graphToken := handler.EnvVars()
		render.JSON(w, r, EnvVarsResponse{
			WebhookVerifyToken: verifyToken,
			GraphApiToken:      graphToken,
		})
	}
}
