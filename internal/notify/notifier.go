// Package notify delivers one message per new listing plus a run summary to
// a single chat.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/listing-notifier/internal/types"
)

// DefaultConcurrency bounds how many sends are in flight at once.
const DefaultConcurrency = 5

// DefaultSendTimeout bounds a single send.
const DefaultSendTimeout = 10 * time.Second

// ErrDelivery wraps every failed send.
var ErrDelivery = errors.New("notification delivery failed")

// Sender is the messaging capability: deliver text to chatID.
type Sender interface {
	Send(ctx context.Context, chatID, text string) error
}

// Options configures a Notifier.
type Options struct {
	ChatID      string
	Concurrency int
	SendTimeout time.Duration
	Logger      *log.Logger
}

// Notifier fans per-listing messages out to a Sender and sends the summary
// once all of them have been delivered.
type Notifier struct {
	sender      Sender
	chatID      string
	concurrency int
	sendTimeout time.Duration
	logger      *log.Logger
}

// New builds a Notifier.
func New(sender Sender, opts Options) (*Notifier, error) {
	if sender == nil {
		return nil, errors.New("sender is required")
	}
	if opts.ChatID == "" {
		return nil, errors.New("chat id is required")
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = DefaultSendTimeout
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Notifier{
		sender:      sender,
		chatID:      opts.ChatID,
		concurrency: opts.Concurrency,
		sendTimeout: opts.SendTimeout,
		logger:      opts.Logger,
	}, nil
}

// Notify sends one message per record, waits for all of them, then sends the
// summary. It returns how many listing messages were delivered. The first
// failed send cancels the sends not yet started; the summary is then skipped
// and the error returned.
func (n *Notifier) Notify(ctx context.Context, records []types.NotificationRecord) (int, error) {
	var sent atomic.Int64

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(n.concurrency)

	for _, rec := range records {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			n.logger.Printf("[notify] Sending notification for AD ID: %s (%s)...", rec.AdID, rec.AdURL)
			if err := n.send(gCtx, FormatMessage(rec)); err != nil {
				return fmt.Errorf("%w: ad %s: %w", ErrDelivery, rec.AdID, err)
			}
			sent.Add(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return int(sent.Load()), err
	}

	if err := n.send(ctx, Summary(int(sent.Load()))); err != nil {
		return int(sent.Load()), fmt.Errorf("%w: summary: %w", ErrDelivery, err)
	}
	return int(sent.Load()), nil
}

func (n *Notifier) send(ctx context.Context, text string) error {
	ctx, cancel := context.WithTimeout(ctx, n.sendTimeout)
	defer cancel()
	return n.sender.Send(ctx, n.chatID, text)
}
