package core

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"

	"WaGate/bot/whatsapp"
	"WaGate/entity"
	"WaGate/internal/lib/sl"
)

var (
	ErrJournalDisabled = errors.New("message journal is not enabled")
	ErrInvalidToken    = errors.New("invalid token")
)

type Repository interface {
	GetChatMessages(ctx context.Context, userID string, limit, offset int) ([]entity.ChatMessage, error)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, n whatsapp.Notification) error
}

type Core struct {
	repo        Repository
	bot         Dispatcher
	verifyToken string
	graphToken  string
	appSecret   string
	authKey     string
	log         *slog.Logger
}

func New(log *slog.Logger) *Core {
	return &Core{
		log: log.With(sl.Module("core")),
	}
}

func (c *Core) SetRepository(repo Repository) {
	c.repo = repo
}

func (c *Core) SetBot(bot Dispatcher) {
	c.bot = bot
}

func (c *Core) SetAuthKey(key string) {
	c.authKey = key
}

func (c *Core) SetAppSecret(secret string) {
	c.appSecret = secret
}

func (c *Core) SetTokens(verifyToken, graphToken string) {
	c.verifyToken = verifyToken
	c.graphToken = graphToken
}

// EnvVars returns the configured secrets verbatim.
func (c *Core) EnvVars() (string, string) {
	return c.verifyToken, c.graphToken
}

// VerifyWebhook never succeeds while no verify token is configured.
func (c *Core) VerifyWebhook(mode, token string) bool {
	if c.verifyToken == "" {
		c.log.Warn("webhook verification rejected, verify token is not configured")
		return false
	}
	if mode == "subscribe" && token == c.verifyToken {
		c.log.Info("webhook verified successfully")
		return true
	}
	c.log.Warn("webhook verification failed",
		slog.String("mode", mode),
		slog.Bool("token_match", token == c.verifyToken),
	)
	return false
}

// VerifySignature is a no-op unless an app secret is configured.
func (c *Core) VerifySignature(body []byte, signature string) error {
	if c.appSecret == "" {
		return nil
	}
	return whatsapp.VerifySignature(c.appSecret, body, signature)
}

func (c *Core) HandleNotification(ctx context.Context, payload whatsapp.WebhookPayload) error {
	if c.bot == nil {
		return fmt.Errorf("whatsapp bot is not set")
	}
	n := whatsapp.Classify(payload)
	c.log.Debug("notification classified",
		slog.String("object", payload.Object),
		slog.String("kind", n.Kind()),
	)
	return c.bot.Dispatch(ctx, n)
}

func (c *Core) GetChatMessages(ctx context.Context, userID string, limit, offset int) ([]entity.ChatMessage, error) {
	if c.repo == nil {
		return nil, ErrJournalDisabled
	}
	return c.repo.GetChatMessages(ctx, userID, limit, offset)
}

// AuthEnabled reports whether an API key protects the operational routes.
func (c *Core) AuthEnabled() bool {
	return c.authKey != ""
}

func (c *Core) ValidateToken(token string) error {
	if c.authKey == "" || subtle.ConstantTimeCompare([]byte(token), []byte(c.authKey)) != 1 {
		return ErrInvalidToken
	}
	return nil
}
