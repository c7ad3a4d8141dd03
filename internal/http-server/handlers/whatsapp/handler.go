package whatsapp

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"WaGate/bot/whatsapp"
	"WaGate/internal/lib/api/response"
	"WaGate/internal/lib/sl"
)

const maxBodySize = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

// VerifyRequest holds the hub.* query parameters; nil means the parameter was absent.
type VerifyRequest struct {
	Mode        *string `validate:"required"`
	VerifyToken *string `validate:"required"`
	Challenge   *string `validate:"required"`
}

func queryParam(r *http.Request, name string) *string {
	query := r.URL.Query()
	if !query.Has(name) {
		return nil
	}
	value := query.Get(name)
	return &value
}

// WebhookVerify handles GET requests for webhook verification
func WebhookVerify(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("whatsapp.webhook"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		req := VerifyRequest{
			Mode:        queryParam(r, "hub.mode"),
			VerifyToken: queryParam(r, "hub.verify_token"),
			Challenge:   queryParam(r, "hub.challenge"),
		}
		if err := validate.Struct(req); err != nil {
			logger.Debug("invalid verification request", sl.Err(err))
			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Fail(validationDetail(err, map[string]string{
				"Mode":        "hub.mode",
				"VerifyToken": "hub.verify_token",
				"Challenge":   "hub.challenge",
			})))
			return
		}

		if !handler.VerifyWebhook(*req.Mode, *req.VerifyToken) {
			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, response.Fail("Forbidden"))
			return
		}

		render.PlainText(w, r, *req.Challenge)
	}
}

// WebhookHandler handles POST requests for incoming messages
func WebhookHandler(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("whatsapp.webhook"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				logger.Warn("webhook body too large", slog.Int64("limit", tooLarge.Limit))
				render.Status(r, http.StatusRequestEntityTooLarge)
				render.JSON(w, r, response.Fail("Request Entity Too Large"))
				return
			}
			logger.Error("failed to read request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Fail("Bad Request"))
			return
		}

		if err = handler.VerifySignature(body, r.Header.Get(whatsapp.SignatureHeader)); err != nil {
			logger.Warn("webhook signature rejected", sl.Err(err))
			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, response.Fail("Forbidden"))
			return
		}

		var payload whatsapp.WebhookPayload
		if err = json.Unmarshal(body, &payload); err != nil {
			logger.Error("failed to parse webhook payload", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Fail("Bad Request"))
			return
		}
		if err = validate.Struct(payload); err != nil {
			logger.Warn("invalid webhook payload", sl.Err(err))
			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Fail(validationDetail(err, map[string]string{
				"Object": "object",
				"Entry":  "entry",
			})))
			return
		}

		logger.Info("incoming webhook message", slog.String("payload", string(body)))

		if err = handler.HandleNotification(r.Context(), payload); err != nil {
			logger.Error("webhook processing failed", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Fail("Internal Server Error"))
			return
		}

		render.JSON(w, r, response.Success())
	}
}

func validationDetail(err error, names map[string]string) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err.Error()
	}
	fields := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		name, ok := names[fe.Field()]
		if !ok {
			name = fe.Field()
		}
		fields = append(fields, fmt.Sprintf("%s is %s", name, fe.Tag()))
	}
	return strings.Join(fields, "; ")
}
