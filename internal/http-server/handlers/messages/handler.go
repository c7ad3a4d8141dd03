package messages

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"WaGate/entity"
	"WaGate/impl/core"
	"WaGate/internal/lib/api/response"
	"WaGate/internal/lib/sl"
)

type Core interface {
	GetChatMessages(ctx context.Context, userID string, limit, offset int) ([]entity.ChatMessage, error)
}

// GetMessages returns paginated journal history for a sender, newest first.
func GetMessages(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("http.handlers.messages"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		userID := chi.URLParam(r, "user_id")
		if userID == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("user_id is required"))
			return
		}

		limit := 50
		offset := 0
		if l := r.URL.Query().Get("limit"); l != "" {
			if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 100 {
				limit = v
			}
		}
		if o := r.URL.Query().Get("offset"); o != "" {
			if v, err := strconv.Atoi(o); err == nil && v >= 0 {
				offset = v
			}
		}

		messages, err := handler.GetChatMessages(r.Context(), userID, limit, offset)
		if errors.Is(err, core.ErrJournalDisabled) {
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("Message journal is disabled"))
			return
		}
		if err != nil {
			logger.Error("failed to get chat messages",
				slog.String("user_id", userID),
				sl.Err(err),
			)
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Failed to get messages"))
			return
		}

		if messages == nil {
			messages = []entity.ChatMessage{}
		}

		render.JSON(w, r, response.Ok(messages))
	}
}
