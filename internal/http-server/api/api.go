package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"WaGate/internal/config"
	errhandlers "WaGate/internal/http-server/handlers/errors"
	"WaGate/internal/http-server/handlers/feed"
	"WaGate/internal/http-server/handlers/messages"
	"WaGate/internal/http-server/handlers/service"
	"WaGate/internal/http-server/handlers/whatsapp"
	"WaGate/internal/http-server/middleware/authenticate"
	"WaGate/internal/http-server/middleware/logger"
	"WaGate/internal/lib/sl"
	"WaGate/internal/ws"
)

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

type Handler interface {
	authenticate.Authenticate
	service.Core
	whatsapp.Core
	messages.Core
}

// NewRouter builds the HTTP surface. hub may be nil, in which case the feed route is not mounted.
func NewRouter(conf *config.Config, log *slog.Logger, handler Handler, hub *ws.Hub) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(logger.New(log))
	router.Use(middleware.Recoverer)
	if conf.Server.RequestTimeout > 0 {
		router.Use(middleware.Timeout(conf.Server.RequestTimeout))
	}
	router.Use(render.SetContentType(render.ContentTypeJSON))

	router.NotFound(errhandlers.NotFound(log))
	router.MethodNotAllowed(errhandlers.NotAllowed(log))

	router.Get("/", service.Root(log))
	router.Get("/items/{item_id}", service.GetItem(log))
	router.With(authenticate.New(log, handler)).Get("/get-env-vars", service.GetEnvVars(log, handler))

	router.Get("/webhook", whatsapp.WebhookVerify(log, handler))
	router.Post("/webhook", whatsapp.WebhookHandler(log, handler))

	router.Route("/api/v1", func(v1 chi.Router) {
		v1.With(authenticate.New(log, handler)).Get("/messages/{user_id}", messages.GetMessages(log, handler))
		if hub != nil {
			v1.Get("/ws", feed.Serve(log, hub, handler))
		}
	})

	return router
}

// New serves the API until ctx is cancelled, then shuts down gracefully.
func New(ctx context.Context, conf *config.Config, log *slog.Logger, handler Handler, hub *ws.Hub) error {

	server := Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
	}

	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	server.httpServer = &http.Server{
		Handler:  NewRouter(conf, log, handler, hub),
		ErrorLog: httpLog,
	}

	serverAddress := fmt.Sprintf("%s:%s", conf.Listen.BindIP, conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	server.log.Info("starting api server", slog.String("address", serverAddress))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.httpServer.Serve(listener)
	}()

	select {
	case err = <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	server.log.Info("shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	defer cancel()
	return server.httpServer.Shutdown(shutdownCtx)
}
