package engine

import (
	"context"
	"log/slog"
)

// FanoutSender delivers to Primary and then copies each delivered message
// to every tap. Only a Primary failure fails the send; tap failures are logged.
type FanoutSender struct {
	Primary MessageSender
	Taps    []MessageSender
}

func (f *FanoutSender) SendMessage(ctx context.Context, m Message) error {
	if err := f.Primary.SendMessage(ctx, m); err != nil {
		return err
	}
	for _, tap := range f.Taps {
		if err := tap.SendMessage(ctx, m); err != nil {
			slog.Warn("message tap failed", "recipient", m.Recipient, "error", err)
		}
	}
	return nil
}
