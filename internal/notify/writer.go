package notify

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// WriterSender prints messages instead of delivering them. It backs --dry-run.
type WriterSender struct {
	mu  sync.Mutex
	out io.Writer
}

// NewWriterSender returns a Sender writing to out.
func NewWriterSender(out io.Writer) *WriterSender {
	return &WriterSender{out: out}
}

// Send writes text under a chat header.
func (w *WriterSender) Send(ctx context.Context, chatID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := fmt.Fprintf(w.out, "── to %s ──\n%s\n", chatID, text)
	return err
}
