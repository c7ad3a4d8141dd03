package whatsapp

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"WaGate/entity"
)

type call struct {
	action        string
	phoneNumberID string
	to            string
	text          string
	messageID     string
}

type fakeSender struct {
	mu       sync.Mutex
	calls    []call
	replyErr error
	readErr  error
	block    chan struct{}
}

func (f *fakeSender) SendReply(_ context.Context, phoneNumberID, to, text, replyTo string) (*SendResponse, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{"reply", phoneNumberID, to, text, replyTo})
	if f.replyErr != nil {
		return nil, f.replyErr
	}
	resp := &SendResponse{}
	resp.Messages = append(resp.Messages, struct {
		ID string `json:"id"`
	}{ID: "wamid.REPLY"})
	return resp, nil
}

func (f *fakeSender) MarkRead(_ context.Context, phoneNumberID, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{action: "read", phoneNumberID: phoneNumberID, messageID: messageID})
	return f.readErr
}

func (f *fakeSender) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

type memJournal struct {
	mu       sync.Mutex
	messages []entity.ChatMessage
}

func (j *memJournal) SaveChatMessage(_ context.Context, msg entity.ChatMessage) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.messages = append(j.messages, msg)
	return nil
}

func (j *memJournal) byDirection(direction string) entity.ChatMessage {
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, msg := range j.messages {
		if msg.Direction == direction {
			return msg
		}
	}
	return entity.ChatMessage{}
}

// stalledJournal never completes a write on its own, like an unreachable database.
type stalledJournal struct {
	mu   sync.Mutex
	errs []error
}

func (j *stalledJournal) SaveChatMessage(ctx context.Context, _ entity.ChatMessage) error {
	<-ctx.Done()
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errs = append(j.errs, ctx.Err())
	return ctx.Err()
}

var hola = TextMessage{PhoneNumberID: "PNID", From: "5215511112222", MessageID: "wamid.ABC", Body: "hola"}

func TestWhatsAppBot_Echo(t *testing.T) {
	sender := &fakeSender{}
	journal := &memJournal{}
	bot := NewWhatsAppBot(sender, "Juan", discardLogger())
	bot.SetJournal(journal)

	require.NoError(t, bot.Dispatch(context.Background(), hola))

	calls := sender.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, call{"reply", "PNID", "5215511112222", "Echo Juan: hola", "wamid.ABC"}, calls[0])
	assert.Equal(t, call{action: "read", phoneNumberID: "PNID", messageID: "wamid.ABC"}, calls[1])

	bot.FlushJournal()
	require.Len(t, journal.messages, 2)
	incoming := journal.byDirection(entity.DirectionIncoming)
	assert.Equal(t, entity.StatusReceived, incoming.Status)
	assert.Equal(t, "wamid.ABC", incoming.MessageID)
	outgoing := journal.byDirection(entity.DirectionOutgoing)
	assert.Equal(t, entity.StatusSent, outgoing.Status)
	assert.Equal(t, "wamid.REPLY", outgoing.MessageID)
}

func TestWhatsAppBot_ReplyFailureSkipsMarkRead(t *testing.T) {
	sender := &fakeSender{replyErr: &APIError{StatusCode: 500, Body: "boom"}}
	journal := &memJournal{}
	bot := NewWhatsAppBot(sender, "Juan", discardLogger())
	bot.SetJournal(journal)

	err := bot.Dispatch(context.Background(), hola)
	require.Error(t, err)

	var apiErr *APIError
	assert.ErrorAs(t, err, &apiErr)
	require.Len(t, sender.Calls(), 1)
	assert.Equal(t, "reply", sender.Calls()[0].action)

	bot.FlushJournal()
	require.Len(t, journal.messages, 2)
	assert.Equal(t, entity.StatusFailed, journal.byDirection(entity.DirectionOutgoing).Status)
}

func TestWhatsAppBot_MarkReadFailure(t *testing.T) {
	sender := &fakeSender{readErr: errors.New("network down")}
	bot := NewWhatsAppBot(sender, "Juan", discardLogger())

	err := bot.Dispatch(context.Background(), hola)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mark read")
	assert.Len(t, sender.Calls(), 2)
}

func TestWhatsAppBot_IgnoresNonText(t *testing.T) {
	sender := &fakeSender{}
	bot := NewWhatsAppBot(sender, "Juan", discardLogger())

	for _, n := range []Notification{
		OtherMessage{Type: "image", MessageID: "m"},
		StatusUpdate{ID: "m", Status: "read"},
		Empty{Reason: "no entry"},
	} {
		require.NoError(t, bot.Dispatch(context.Background(), n))
	}
	assert.Empty(t, sender.Calls())
}

func TestWhatsAppBot_Async(t *testing.T) {
	sender := &fakeSender{block: make(chan struct{})}
	bot := NewWhatsAppBot(sender, "Juan", discardLogger())
	bot.EnableAsync(1, 4)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- bot.Run(ctx) }()

	require.NoError(t, bot.Dispatch(context.Background(), hola))
	assert.Empty(t, sender.Calls(), "dispatch must not wait for the graph api")

	close(sender.block)
	assert.Eventually(t, func() bool { return len(sender.Calls()) == 2 }, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestWhatsAppBot_StalledJournalDoesNotBlockEcho(t *testing.T) {
	sender := &fakeSender{}
	journal := &stalledJournal{}
	bot := NewWhatsAppBot(sender, "Juan", discardLogger())
	bot.SetJournal(journal)
	bot.journalTimeout = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, bot.Dispatch(ctx, hola))
	cancel()

	calls := sender.Calls()
	require.Len(t, calls, 2, "reply and mark-read happen while the journal is stalled")
	assert.Equal(t, "reply", calls[0].action)
	assert.Equal(t, "read", calls[1].action)

	bot.FlushJournal()
	journal.mu.Lock()
	defer journal.mu.Unlock()
	require.Len(t, journal.errs, 2)
	for _, err := range journal.errs {
		assert.ErrorIs(t, err, context.DeadlineExceeded, "writes outlive the request and end on their own timeout")
	}
}

func TestWhatsAppBot_ShutdownReportsDroppedQueue(t *testing.T) {
	var logs bytes.Buffer
	sender := &fakeSender{block: make(chan struct{})}
	bot := NewWhatsAppBot(sender, "Juan", slog.New(slog.NewTextHandler(&logs, nil)))
	bot.EnableAsync(1, 4)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- bot.Run(ctx) }()

	for _, id := range []string{"wamid.1", "wamid.2", "wamid.3"} {
		msg := hola
		msg.MessageID = id
		require.NoError(t, bot.Dispatch(context.Background(), msg))
	}
	// the single worker holds the first message, two stay queued
	require.Eventually(t, func() bool { return len(bot.queue) == 2 }, time.Second, 10*time.Millisecond)

	cancel()
	close(sender.block)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}

	assert.Len(t, sender.Calls(), 2, "only the in-flight message is echoed")
	assert.Empty(t, bot.queue)
	assert.Contains(t, logs.String(), "echo queue dropped on shutdown")
	assert.Contains(t, logs.String(), "dropped=2")
}

func TestWhatsAppBot_ReplyText(t *testing.T) {
	bot := NewWhatsAppBot(&fakeSender{}, "Bot", discardLogger())
	assert.Equal(t, "Echo Bot: hi there", bot.ReplyText("hi there"))
}
