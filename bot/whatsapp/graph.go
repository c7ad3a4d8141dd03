package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"WaGate/internal/lib/sl"
)

const (
	messagingProduct = "whatsapp"

	defaultGraphTimeout = 10 * time.Second
	// Maximum response body size kept in APIError
	maxErrorBodySize = 1024
)

var ErrNoPhoneNumberID = errors.New("phone number id is empty")

// APIError is returned when the Graph API answers with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("graph api error (status %d): %s", e.StatusCode, e.Body)
}

type TextBody struct {
	Body string `json:"body"`
}

type MessageContext struct {
	MessageID string `json:"message_id"`
}

// ReplyRequest is a text message threaded to an earlier message via context.
type ReplyRequest struct {
	MessagingProduct string          `json:"messaging_product"`
	To               string          `json:"to"`
	Text             TextBody        `json:"text"`
	Context          *MessageContext `json:"context,omitempty"`
}

type ReadRequest struct {
	MessagingProduct string `json:"messaging_product"`
	Status           string `json:"status"`
	MessageID        string `json:"message_id"`
}

type SendResponse struct {
	MessagingProduct string `json:"messaging_product"`
	Contacts         []struct {
		Input string `json:"input"`
		WaID  string `json:"wa_id"`
	} `json:"contacts"`
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// GraphClient calls the WhatsApp Cloud messages endpoint.
type GraphClient struct {
	client  *http.Client
	baseURL string
	version string
	token   string
	log     *slog.Logger
}

func NewGraphClient(baseURL, version, token string, timeout time.Duration, log *slog.Logger) *GraphClient {
	if timeout <= 0 {
		timeout = defaultGraphTimeout
	}
	return &GraphClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		version: version,
		token:   token,
		log:     log.With(sl.Module("whatsapp.graph")),
	}
}

func (c *GraphClient) MessagesURL(phoneNumberID string) string {
	return fmt.Sprintf("%s/%s/%s/messages", c.baseURL, c.version, phoneNumberID)
}

// SendReply sends text to the recipient as a reply to replyTo.
func (c *GraphClient) SendReply(ctx context.Context, phoneNumberID, to, text, replyTo string) (*SendResponse, error) {
	reqBody := ReplyRequest{
		MessagingProduct: messagingProduct,
		To:               to,
		Text:             TextBody{Body: text},
	}
	if replyTo != "" {
		reqBody.Context = &MessageContext{MessageID: replyTo}
	}

	body, err := c.post(ctx, phoneNumberID, reqBody)
	if err != nil {
		return nil, err
	}

	var resp SendResponse
	if err = json.Unmarshal(body, &resp); err != nil {
		c.log.Warn("unexpected reply response", slog.String("body", string(body)), sl.Err(err))
		return nil, fmt.Errorf("failed to decode reply response: %w", err)
	}
	c.log.Info("reply sent",
		slog.String("recipient", to),
		slog.String("response", string(body)),
	)
	return &resp, nil
}

// MarkRead flags messageID as read for the business number.
func (c *GraphClient) MarkRead(ctx context.Context, phoneNumberID, messageID string) error {
	_, err := c.post(ctx, phoneNumberID, ReadRequest{
		MessagingProduct: messagingProduct,
		Status:           "read",
		MessageID:        messageID,
	})
	if err != nil {
		return err
	}
	c.log.Debug("message marked as read", slog.String("message_id", messageID))
	return nil
}

func (c *GraphClient) post(ctx context.Context, phoneNumberID string, payload interface{}) ([]byte, error) {
	if phoneNumberID == "" {
		return nil, ErrNoPhoneNumberID
	}

	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.MessagesURL(phoneNumberID), bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(body) > maxErrorBodySize {
			body = body[:maxErrorBodySize]
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
