package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"time"

	"go.uber.org/multierr"
)

// ErrDisabled is returned by a channel that has no credentials or failed its
// startup handshake.
var ErrDisabled = errors.New("channel disabled")

// Notifier delivers one message. html is the chat-formatted body; subject is
// used by channels that carry a title (email).
type Notifier interface {
	Send(ctx context.Context, subject, html string) error
}

// Channel names a Notifier for log lines and combined errors. A non-zero
// Timeout bounds each send on this channel alone.
type Channel struct {
	Name    string
	Timeout time.Duration
	Notifier
}

// Multi attempts every channel. A failing channel never prevents the others;
// the returned error combines all failures.
type Multi []Channel

func (m Multi) Send(ctx context.Context, subject, body string) error {
	var err error
	for _, c := range m {
		if c.Notifier == nil {
			continue
		}
		if e := c.send(ctx, subject, body); e != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", c.Name, e))
		}
	}
	return err
}

func (c Channel) send(ctx context.Context, subject, body string) error {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	return c.Notifier.Send(ctx, subject, body)
}

// Errors splits a combined Multi error into its per-channel parts.
func Errors(err error) []error { return multierr.Errors(err) }

// EscapeHTML makes user text safe inside a Telegram HTML message.
func EscapeHTML(s string) string { return html.EscapeString(s) }
