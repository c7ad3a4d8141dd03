package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"WaGate/bot"
	"WaGate/bot/whatsapp"
	"WaGate/impl/core"
	"WaGate/internal/config"
	repository "WaGate/internal/database"
	"WaGate/internal/http-server/api"
	"WaGate/internal/lib/logger"
	"WaGate/internal/lib/sl"
	"WaGate/internal/ws"
)

func main() {

	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	lg := logger.SetupLogger(conf.Env, *logPath)

	if conf.Telegram.Enabled {
		tgBot, err := bot.NewTgBot(conf.Telegram.ApiKey, conf.Telegram.AdminId, lg)
		if err != nil {
			lg.Error("failed to initialize telegram bot", sl.Err(err))
		} else {
			lg = logger.SetupTelegramHandler(lg, tgBot, logger.ParseLevel(conf.Telegram.Level))
			lg.Info("telegram alerts enabled", slog.String("level", conf.Telegram.Level))
		}
	}

	lg.Info("starting wagate", slog.String("config", *configPath), slog.String("env", conf.Env))
	lg.Debug("debug messages enabled")

	if conf.WhatsApp.VerifyToken == "" {
		lg.Warn("WEBHOOK_VERIFY_TOKEN is empty, webhook verification will always fail")
	}
	if conf.Graph.Token == "" {
		lg.Warn("GRAPH_API_TOKEN is empty, graph api calls will be rejected")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	graph := whatsapp.NewGraphClient(conf.Graph.BaseURL, conf.Graph.Version, conf.Graph.Token, conf.Graph.Timeout, lg)
	waBot := whatsapp.NewWhatsAppBot(graph, conf.WhatsApp.ReplyPrefix, lg)
	if conf.Graph.Async {
		waBot.EnableAsync(conf.Graph.Workers, conf.Graph.Queue)
	}

	hub := ws.NewHub(lg)
	waBot.SetBroadcaster(hub)

	handler := core.New(lg)
	handler.SetTokens(conf.WhatsApp.VerifyToken, conf.Graph.Token)
	handler.SetAppSecret(conf.WhatsApp.AppSecret)
	handler.SetAuthKey(conf.Listen.ApiKey)
	handler.SetBot(waBot)

	db, err := repository.NewMongoClient(conf, lg)
	if err != nil {
		lg.Error("mongo client", sl.Err(err))
	}
	if db != nil {
		if err = db.EnsureChatMessageIndexes(ctx); err != nil {
			lg.Error("mongo indexes", sl.Err(err))
		}
		waBot.SetJournal(db)
		handler.SetRepository(db)
		lg.With(
			slog.String("host", conf.Mongo.Host),
			slog.String("port", conf.Mongo.Port),
			slog.String("user", conf.Mongo.User),
			slog.String("database", conf.Mongo.Database),
		).Info("mongo client initialized")
	}

	lg.With(
		sl.Secret("graph_token", conf.Graph.Token),
		slog.String("graph_url", graph.MessagesURL("{phone_number_id}")),
		slog.Bool("async", conf.Graph.Async),
	).Info("graph client initialized")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return hub.Run(ctx)
	})
	g.Go(func() error {
		return waBot.Run(ctx)
	})
	// *** blocking start with http server ***
	g.Go(func() error {
		return api.New(ctx, conf, lg, handler, hub)
	})

	err = g.Wait()
	waBot.FlushJournal()
	if err != nil {
		lg.Error("server start", sl.Err(err))
		os.Exit(1)
	}
	lg.Info("service stopped")
}
