package bot

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"bookshelf/internal/tracker"
)

// sendMessage sends any chattable (new message, edit, ...) and logs failures
func (b *Bot) sendMessage(msg tgbotapi.Chattable) {
	if b.api == nil {
		return // For testing
	}

	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("Failed to send message", zap.Error(err))
	}
}

// reply sends plain text to a chat
func (b *Bot) reply(chatID int64, text string) {
	b.sendMessage(tgbotapi.NewMessage(chatID, text))
}

// replyWithMarkup sends text with an inline keyboard
func (b *Bot) replyWithMarkup(chatID int64, text string, markup tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = markup
	b.sendMessage(msg)
}

// SendNotification sends a message outside of any conversation, e.g. the reading digest
func (b *Bot) SendNotification(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.api == nil {
		return errors.New("bot API is not initialized")
	}

	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	return nil
}

// replyError tells the user what went wrong with action. Validation problems
// are shown verbatim; anything unexpected is logged and reported generically.
func (b *Bot) replyError(chatID int64, action string, err error) {
	switch {
	case tracker.IsValidation(err):
		b.reply(chatID, fmt.Sprintf("❌ Could not %s: %v", action, err))
	case errors.Is(err, tracker.ErrNotFound):
		b.reply(chatID, "❌ This book no longer exists.")
	default:
		b.logger.Error("Failed to "+action,
			zap.Error(err),
			zap.Int64("chat_id", chatID),
		)
		b.reply(chatID, "An error occurred while processing your request. Please try again.")
	}
}
