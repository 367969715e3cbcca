package telegram

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/geralexgit/ai-hr-bot-sub001/internal/interview"
	"github.com/geralexgit/ai-hr-bot-sub001/internal/logger"
)

const (
	pollTimeout  = 30 * time.Second
	pollBatch    = 100
	errorBackoff = 3 * time.Second

	// Sent when a turn fails after the candidate's message arrived. The
	// interview state has not advanced, so a resend retries cleanly.
	retryReply = "Sorry, something went wrong on our side. Please send your message again."
)

// MessageHandler processes one candidate message and returns the reply.
// *interview.Dispatcher is the production implementation.
type MessageHandler interface {
	Handle(ctx context.Context, msg interview.Message) (string, error)
}

// Poller pumps long-poll updates into the message handler and sends replies
// back. Updates are acknowledged by advancing the offset regardless of
// handling outcome; retry is the candidate resending, not redelivery.
type Poller struct {
	client  *Client
	handler MessageHandler
	log     *zap.Logger
}

// NewPoller builds a poller over a client and a handler.
func NewPoller(client *Client, handler MessageHandler, log *zap.Logger) *Poller {
	return &Poller{client: client, handler: handler, log: logger.Safe(log)}
}

// Run polls until the context is canceled. Poll errors back off and retry;
// only context cancellation ends the loop.
func (p *Poller) Run(ctx context.Context) error {
	if err := p.client.DeleteWebhook(ctx, false); err != nil {
		p.log.Warn("failed to delete webhook before polling", zap.Error(err))
	}

	var offset int64
	for {
		updates, err := p.client.GetUpdates(ctx, offset, pollTimeout, pollBatch)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.log.Warn("poll failed", zap.Error(err))
			select {
			case <-time.After(errorBackoff):
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			p.process(ctx, update)
		}
	}
}

// process handles one update synchronously. Per-candidate ordering within a
// batch is preserved; the dispatcher guards against overlap across batches.
func (p *Poller) process(ctx context.Context, update Update) {
	msg, ok := toInterviewMessage(update)
	if !ok {
		return
	}

	reply, err := p.handler.Handle(ctx, msg)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		p.log.Error("message handling failed",
			zap.Int64("external_user_id", msg.ExternalUserID),
			zap.Error(err))
		reply = retryReply
	}

	if err := p.client.SendMessage(ctx, update.Message.Chat.ID, reply); err != nil {
		p.log.Error("failed to send reply",
			zap.Int64("chat_id", update.Message.Chat.ID),
			zap.Error(err))
	}
}

// toInterviewMessage converts an update to the transport-agnostic form.
// Updates without a usable text payload are skipped.
func toInterviewMessage(update Update) (interview.Message, bool) {
	m := update.Message
	if m == nil || m.From == nil || m.Text == "" {
		return interview.Message{}, false
	}
	return interview.Message{
		ExternalUserID: m.From.ID,
		FirstName:      m.From.FirstName,
		LastName:       m.From.LastName,
		Username:       m.From.Username,
		Text:           m.Text,
	}, true
}
