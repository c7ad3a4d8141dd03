package whatsapp

import (
	"context"

	"WaGate/bot/whatsapp"
)

type Core interface {
	VerifyWebhook(mode, token string) bool
	VerifySignature(body []byte, signature string) error
	HandleNotification(ctx context.Context, payload whatsapp.WebhookPayload) error
}
