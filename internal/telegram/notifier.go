package telegram

import (
	"context"
	"price-alert-bot/internal/types"
)

// Send delivers an alert notification to the user's private chat.
// It gives up when ctx is done, even if the Bot API call is still in flight.
func (b *Bot) Send(ctx context.Context, user types.UserID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- b.SendMessage(Message{
			ChatID: int64(user),
			Text:   text,
		})
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}
