package whatsapp

// WebhookPayload represents the incoming webhook payload from WhatsApp
type WebhookPayload struct {
	Object string  `json:"object" validate:"required"`
	Entry  []Entry `json:"entry" validate:"required"`
}

type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

type Change struct {
	Value Value  `json:"value"`
	Field string `json:"field"`
}

type Value struct {
	MessagingProduct string    `json:"messaging_product"`
	Metadata         Metadata  `json:"metadata"`
	Contacts         []Contact `json:"contacts"`
	Messages         []Message `json:"messages"`
	Statuses         []Status  `json:"statuses"`
}

type Metadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

type Contact struct {
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
	WaID string `json:"wa_id"`
}

type Message struct {
	From      string `json:"from"`
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Text      *struct {
		Body string `json:"body"`
	} `json:"text,omitempty"`
}

type Status struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	RecipientID string `json:"recipient_id"`
}

// Notification is the shape of the first change of a webhook delivery.
// It is one of TextMessage, OtherMessage, StatusUpdate or Empty.
type Notification interface {
	Kind() string
}

type TextMessage struct {
	PhoneNumberID string
	From          string
	MessageID     string
	Body          string
}

type OtherMessage struct {
	PhoneNumberID string
	Type          string
	From          string
	MessageID     string
}

type StatusUpdate struct {
	PhoneNumberID string
	ID            string
	Status        string
	RecipientID   string
}

type Empty struct {
	Reason string
}

func (TextMessage) Kind() string  { return "text" }
func (OtherMessage) Kind() string { return "other" }
func (StatusUpdate) Kind() string { return "status" }
func (Empty) Kind() string        { return "empty" }

// Classify inspects entry[0].changes[0].value only; later entries and changes are ignored.
func Classify(payload WebhookPayload) Notification {
	if len(payload.Entry) == 0 {
		return Empty{Reason: "no entry"}
	}
	entry := payload.Entry[0]
	if len(entry.Changes) == 0 {
		return Empty{Reason: "no changes"}
	}
	value := entry.Changes[0].Value
	phoneNumberID := value.Metadata.PhoneNumberID

	if len(value.Messages) > 0 {
		message := value.Messages[0]
		if message.Type != "text" {
			return OtherMessage{
				PhoneNumberID: phoneNumberID,
				Type:          message.Type,
				From:          message.From,
				MessageID:     message.ID,
			}
		}
		body := ""
		if message.Text != nil {
			body = message.Text.Body
		}
		return TextMessage{
			PhoneNumberID: phoneNumberID,
			From:          message.From,
			MessageID:     message.ID,
			Body:          body,
		}
	}

	if len(value.Statuses) > 0 {
		status := value.Statuses[0]
		return StatusUpdate{
			PhoneNumberID: phoneNumberID,
			ID:            status.ID,
			Status:        status.Status,
			RecipientID:   status.RecipientID,
		}
	}

	return Empty{Reason: "no messages"}
}
