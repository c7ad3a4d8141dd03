package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	PlatformWhatsApp = "whatsapp"

	DirectionIncoming = "incoming"
	DirectionOutgoing = "outgoing"

	StatusReceived = "received"
	StatusSent     = "sent"
	StatusFailed   = "failed"
)

// ChatMessage is a journal record of one inbound or echoed message.
type ChatMessage struct {
	ID            string    `json:"id" bson:"_id"`
	Platform      string    `json:"platform" bson:"platform"`
	UserID        string    `json:"user_id" bson:"user_id"`
	PhoneNumberID string    `json:"phone_number_id" bson:"phone_number_id"`
	MessageID     string    `json:"message_id" bson:"message_id"`
	Direction     string    `json:"direction" bson:"direction"` // "incoming" | "outgoing"
	Text          string    `json:"text" bson:"text"`
	Status        string    `json:"status" bson:"status"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
}

func NewChatMessage(direction, userID, phoneNumberID, messageID, text, status string) ChatMessage {
	return ChatMessage{
		ID:            uuid.NewString(),
		Platform:      PlatformWhatsApp,
		UserID:        userID,
		PhoneNumberID: phoneNumberID,
		MessageID:     messageID,
		Direction:     direction,
		Text:          text,
		Status:        status,
		CreatedAt:     time.Now().UTC(),
	}
}
