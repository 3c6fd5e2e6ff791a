package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// handleMessage processes a single message
func (b *Bot) handleMessage(message *tgbotapi.Message) {
	// Recover from panics to prevent bot crashes
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in handleMessage",
				zap.String("panic", fmt.Sprint(r)),
				zap.Int64("chat_id", message.Chat.ID),
			)
			b.reply(message.Chat.ID, "An error occurred while processing your request. Please try again.")
		}
	}()

	userID := message.From.ID
	ctx := context.Background()

	// Check if user is in a conversation
	if state, ok := b.getState(userID); ok {
		// If conversation is already complete (Step == -1), clean it up and process as new command
		if state.Step == -1 {
			b.clearState(userID)
		} else if message.IsCommand() {
			// Allow any command to interrupt/cancel an ongoing conversation
			b.clearState(userID)
		} else {
			b.handleConversation(ctx, message, state)
			return
		}
	}

	if message.IsCommand() {
		switch message.Command() {
		case "start", "help":
			b.handleStart(message)
		case "new_book":
			b.handleNewBookStart(message)
		case "books":
			b.handleBooks(ctx, message)
		case "trash":
			b.handleTrash(ctx, message)
		default:
			b.reply(message.Chat.ID, "Unknown command. Use /start to see available commands.")
		}
	}
}

// handleCallbackQuery processes inline keyboard button clicks
func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in handleCallbackQuery",
				zap.String("panic", fmt.Sprint(r)),
				zap.String("callback_data", query.Data),
			)
		}
	}()

	ctx := context.Background()

	// Answer the callback query to remove loading state
	if b.api != nil {
		if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
			b.logger.Debug("Failed to answer callback query", zap.Error(err))
		}
	}

	if query.Message == nil {
		return
	}

	cb, err := parseCallback(query.Data)
	if err != nil {
		b.logger.Warn("Ignoring callback", zap.Error(err), zap.Int64("user_id", query.From.ID))
		return
	}

	chatID := query.Message.Chat.ID

	switch cb.Action {
	case actionReading:
		b.showDetail(ctx, chatID, cb.ReadingID)
	case actionProgress:
		b.showCounter(ctx, chatID, 0, cb.ReadingID, 0)
	case actionAmount:
		b.showCounter(ctx, chatID, query.Message.MessageID, cb.ReadingID, cb.Amount)
	case actionConfirm:
		b.handleConfirmProgress(ctx, chatID, cb.ReadingID, cb.Amount)
	case actionEdit:
		b.handleEditStart(ctx, query.From.ID, chatID, cb.ReadingID)
	case actionTrash:
		b.handleMoveToTrash(ctx, chatID, cb.ReadingID)
	case actionRestore:
		b.handleRestore(ctx, chatID, cb.ReadingID)
	case actionPurge:
		b.handlePurge(ctx, chatID, cb.ReadingID)
	case actionNoop:
	}

	// Clean up completed conversations
	if state, ok := b.getState(query.From.ID); ok && state.Step == -1 {
		b.clearState(query.From.ID)
	}
}
