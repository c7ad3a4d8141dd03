package core

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"WaGate/bot/whatsapp"
	"WaGate/entity"
)

type recordingBot struct {
	got []whatsapp.Notification
}

func (r *recordingBot) Dispatch(_ context.Context, n whatsapp.Notification) error {
	r.got = append(r.got, n)
	return nil
}

type stubRepo struct {
	messages []entity.ChatMessage
}

func (s stubRepo) GetChatMessages(_ context.Context, _ string, _, _ int) ([]entity.ChatMessage, error) {
	return s.messages, nil
}

func newCore() *Core {
	c := New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.SetTokens("verify-me", "graph-token")
	return c
}

func TestCore_VerifyWebhook(t *testing.T) {
	c := newCore()
	assert.True(t, c.VerifyWebhook("subscribe", "verify-me"))
	assert.False(t, c.VerifyWebhook("unsubscribe", "verify-me"))
	assert.False(t, c.VerifyWebhook("subscribe", "wrong"))
	assert.False(t, c.VerifyWebhook("", ""))

	c.SetTokens("", "graph-token")
	assert.False(t, c.VerifyWebhook("subscribe", ""), "unset token never verifies")
}

func TestCore_EnvVars(t *testing.T) {
	verify, graph := newCore().EnvVars()
	assert.Equal(t, "verify-me", verify)
	assert.Equal(t, "graph-token", graph)
}

func TestCore_VerifySignature(t *testing.T) {
	c := newCore()
	body := []byte(`{"object":"x","entry":[]}`)
	assert.NoError(t, c.VerifySignature(body, ""), "no secret means no check")

	c.SetAppSecret("app-secret")
	assert.ErrorIs(t, c.VerifySignature(body, ""), whatsapp.ErrInvalidSignature)
	assert.NoError(t, c.VerifySignature(body, whatsapp.Sign("app-secret", body)))
}

func TestCore_HandleNotification(t *testing.T) {
	c := newCore()
	require.Error(t, c.HandleNotification(context.Background(), whatsapp.WebhookPayload{}))

	bot := &recordingBot{}
	c.SetBot(bot)
	require.NoError(t, c.HandleNotification(context.Background(), whatsapp.WebhookPayload{Object: "x", Entry: []whatsapp.Entry{}}))
	require.Len(t, bot.got, 1)
	assert.Equal(t, whatsapp.Empty{Reason: "no entry"}, bot.got[0])
}

func TestCore_GetChatMessages(t *testing.T) {
	c := newCore()
	_, err := c.GetChatMessages(context.Background(), "1", 10, 0)
	assert.ErrorIs(t, err, ErrJournalDisabled)

	c.SetRepository(stubRepo{messages: []entity.ChatMessage{{Text: "hola"}}})
	messages, err := c.GetChatMessages(context.Background(), "1", 10, 0)
	require.NoError(t, err)
	assert.Len(t, messages, 1)
}

func TestCore_ValidateToken(t *testing.T) {
	c := newCore()
	assert.False(t, c.AuthEnabled())
	assert.ErrorIs(t, c.ValidateToken("anything"), ErrInvalidToken)

	c.SetAuthKey("feed-key")
	assert.True(t, c.AuthEnabled())
	assert.NoError(t, c.ValidateToken("feed-key"))
	assert.ErrorIs(t, c.ValidateToken("nope"), ErrInvalidToken)
}
