package whatsapp

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"WaGate/entity"
	"WaGate/internal/lib/sl"
)

// Sender is the outbound half of the Graph API used by the bot.
type Sender interface {
	SendReply(ctx context.Context, phoneNumberID, to, text, replyTo string) (*SendResponse, error)
	MarkRead(ctx context.Context, phoneNumberID, messageID string) error
}

type Journal interface {
	SaveChatMessage(ctx context.Context, msg entity.ChatMessage) error
}

// Bound for one journal write, independent of the request that produced it.
const defaultJournalTimeout = 5 * time.Second

type Broadcaster interface {
	BroadcastMessage(msg entity.ChatMessage)
}

// WhatsAppBot echoes inbound text messages back to their sender
type WhatsAppBot struct {
	log     *slog.Logger
	sender  Sender
	prefix  string
	journal Journal
	feed    Broadcaster

	journalTimeout time.Duration
	journalWrites  sync.WaitGroup

	async   bool
	workers int
	queue   chan TextMessage
}

func NewWhatsAppBot(sender Sender, prefix string, log *slog.Logger) *WhatsAppBot {
	return &WhatsAppBot{
		log:            log.With(sl.Module("whatsappbot")),
		sender:         sender,
		prefix:         prefix,
		journalTimeout: defaultJournalTimeout,
	}
}

func (b *WhatsAppBot) SetJournal(journal Journal) {
	b.journal = journal
}

func (b *WhatsAppBot) SetBroadcaster(feed Broadcaster) {
	b.feed = feed
}

// EnableAsync hands echoes to a pool of workers started by Run.
func (b *WhatsAppBot) EnableAsync(workers, queueSize int) {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	b.async = true
	b.workers = workers
	b.queue = make(chan TextMessage, queueSize)
}

// Run blocks until ctx is done. In async mode it drives the worker pool.
func (b *WhatsAppBot) Run(ctx context.Context) error {
	if !b.async {
		<-ctx.Done()
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < b.workers; i++ {
		g.Go(func() error {
			for {
				if ctx.Err() != nil {
					return nil
				}
				select {
				case <-ctx.Done():
					return nil
				case msg := <-b.queue:
					if err := b.Echo(ctx, msg); err != nil {
						b.log.Error("echo failed",
							slog.String("message_id", msg.MessageID),
							sl.Err(err),
						)
					}
				}
			}
		})
	}
	b.log.Info("echo workers started", slog.Int("workers", b.workers))
	err := g.Wait()

	if dropped := b.drainQueue(); dropped > 0 {
		b.log.Warn("echo queue dropped on shutdown", slog.Int("dropped", dropped))
	}
	return err
}

// FlushJournal waits for journal writes still in flight. Call it once no more
// messages can arrive.
func (b *WhatsAppBot) FlushJournal() {
	b.journalWrites.Wait()
}

func (b *WhatsAppBot) drainQueue() int {
	dropped := 0
	for {
		select {
		case msg := <-b.queue:
			dropped++
			b.log.Debug("dropping queued message", slog.String("message_id", msg.MessageID))
		default:
			return dropped
		}
	}
}

// Dispatch acts on a classified notification. Only text messages produce
// outbound calls; everything else is logged and dropped.
func (b *WhatsAppBot) Dispatch(ctx context.Context, n Notification) error {
	switch msg := n.(type) {
	case TextMessage:
		if b.async {
			select {
			case b.queue <- msg:
				return nil
			default:
				b.log.Warn("echo queue full, handling inline", slog.String("message_id", msg.MessageID))
			}
		}
		return b.Echo(ctx, msg)
	case OtherMessage:
		b.log.Debug("ignoring non-text message",
			slog.String("type", msg.Type),
			slog.String("message_id", msg.MessageID),
		)
	case StatusUpdate:
		b.log.Debug("ignoring status update",
			slog.String("status", msg.Status),
			slog.String("id", msg.ID),
		)
	case Empty:
		b.log.Debug("no message in notification", slog.String("reason", msg.Reason))
	default:
		b.log.Warn("unsupported notification", slog.String("kind", n.Kind()))
	}
	return nil
}

// Echo replies to msg and then marks it as read. Mark-read is skipped when the reply fails.
func (b *WhatsAppBot) Echo(ctx context.Context, msg TextMessage) error {
	log := b.log.With(
		slog.String("phone_number_id", msg.PhoneNumberID),
		slog.String("sender", msg.From),
		slog.String("message_id", msg.MessageID),
	)
	log.Info("received message", slog.String("text", msg.Body))
	b.record(ctx, entity.NewChatMessage(entity.DirectionIncoming, msg.From, msg.PhoneNumberID, msg.MessageID, msg.Body, entity.StatusReceived))

	text := b.ReplyText(msg.Body)
	resp, err := b.sender.SendReply(ctx, msg.PhoneNumberID, msg.From, text, msg.MessageID)
	if err != nil {
		b.record(ctx, entity.NewChatMessage(entity.DirectionOutgoing, msg.From, msg.PhoneNumberID, "", text, entity.StatusFailed))
		return fmt.Errorf("send reply: %w", err)
	}

	replyID := ""
	if resp != nil && len(resp.Messages) > 0 {
		replyID = resp.Messages[0].ID
	}
	b.record(ctx, entity.NewChatMessage(entity.DirectionOutgoing, msg.From, msg.PhoneNumberID, replyID, text, entity.StatusSent))

	if err = b.sender.MarkRead(ctx, msg.PhoneNumberID, msg.MessageID); err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	log.Debug("echo complete")
	return nil
}

func (b *WhatsAppBot) ReplyText(body string) string {
	return fmt.Sprintf("Echo %s: %s", b.prefix, body)
}

// record journals msg in the background so the echo never waits on the database.
func (b *WhatsAppBot) record(ctx context.Context, msg entity.ChatMessage) {
	if b.journal != nil {
		b.journalWrites.Add(1)
		go func() {
			defer b.journalWrites.Done()
			saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.journalTimeout)
			defer cancel()
			if err := b.journal.SaveChatMessage(saveCtx, msg); err != nil {
				b.log.Error("save chat message",
					slog.String("message_id", msg.MessageID),
					slog.String("direction", msg.Direction),
					sl.Err(err),
				)
			}
		}()
	}
	if b.feed != nil {
		b.feed.BroadcastMessage(msg)
	}
}
