package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// showDetail sends the detail screen for a reading
func (b *Bot) showDetail(ctx context.Context, chatID int64, readingID int64) {
	d, err := b.screens.Upsert().Detail(ctx, readingID)
	if err != nil {
		b.replyError(chatID, "show the book", err)
		return
	}

	b.replyWithMarkup(chatID, detailText(d), detailKeyboard(d.Reading))
}

// showCounter renders the page counter. A zero messageID sends a new message,
// otherwise the existing counter message is edited in place.
func (b *Bot) showCounter(ctx context.Context, chatID int64, messageID int, readingID int64, amount int) {
	screen := b.screens.Upsert()

	d, err := screen.Detail(ctx, readingID)
	if err != nil {
		b.replyError(chatID, "update progress", err)
		return
	}
	if d.Reading.IsDeleted {
		b.reply(chatID, "🗑 This book is in the trash. Restore it before updating progress.")
		return
	}

	pagesLeft := d.Completion.PagesLeft
	if amount < 0 {
		amount = 0
	}
	if amount > pagesLeft {
		amount = pagesLeft
	}

	text := counterText(d.Reading, pagesLeft, amount)
	markup := counterKeyboard(readingID, amount, screen.CanIncrement(amount, pagesLeft))

	if messageID == 0 {
		b.replyWithMarkup(chatID, text, markup)
		return
	}
	b.sendMessage(tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, markup))
}

// handleConfirmProgress saves the counter value
func (b *Bot) handleConfirmProgress(ctx context.Context, chatID int64, readingID int64, amount int) {
	progress, err := b.screens.Upsert().AddPages(ctx, readingID, amount)
	if err != nil {
		b.replyError(chatID, "save progress", err)
		return
	}

	text := fmt.Sprintf("✅ Progress saved!\n\n📖 Current page: %d\n⏳ Pages left: %d\n📊 Complete: %d%%",
		progress.CurrentPage, progress.Completion.PagesLeft, progress.Completion.PercentComplete)
	if progress.Completion.PagesLeft == 0 {
		text += "\n\n🎉 You finished the book!"
	}

	b.reply(chatID, text)
}

// handleEditStart starts the edit conversation pre-filled with the current values
func (b *Bot) handleEditStart(ctx context.Context, userID, chatID int64, readingID int64) {
	r, err := b.screens.Upsert().Get(ctx, readingID)
	if err != nil {
		b.replyError(chatID, "edit the book", err)
		return
	}
	if r.IsDeleted {
		b.reply(chatID, "🗑 This book is in the trash. Restore it before editing.")
		return
	}

	state := &ConversationState{
		Command:   "edit",
		Step:      1,
		ReadingID: readingID,
	}
	state.Input.Title = r.Title
	state.Input.Author = r.Author
	state.Input.Genre = r.Genre
	state.Input.NumOfPages = r.NumOfPages
	state.Input.CurrentPage = r.CurrentPage
	b.setState(userID, state)

	b.reply(chatID, fmt.Sprintf("✏️ Editing %s. Send \"-\" to keep a value.\n\nTitle (current: %s):", r.Title, r.Title))
}

// handleMoveToTrash soft-deletes a reading
func (b *Bot) handleMoveToTrash(ctx context.Context, chatID int64, readingID int64) {
	if err := b.screens.Upsert().MoveToTrash(ctx, readingID); err != nil {
		b.replyError(chatID, "move the book to the trash", err)
		return
	}

	b.replyWithMarkup(chatID, "🗑 Moved to trash.", tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			button("↩️ Undo", callback{Action: actionRestore, ReadingID: readingID}),
		),
	))
}

// handleRestore takes a reading out of the trash
func (b *Bot) handleRestore(ctx context.Context, chatID int64, readingID int64) {
	if err := b.screens.Trash().Restore(ctx, readingID); err != nil {
		b.replyError(chatID, "restore the book", err)
		return
	}

	b.logger.Debug("Restored via bot", zap.Int64("reading_id", readingID))
	b.reply(chatID, "♻️ Restored. Use /books to see it.")
}

// handlePurge deletes a reading permanently
func (b *Bot) handlePurge(ctx context.Context, chatID int64, readingID int64) {
	if err := b.screens.Trash().DeletePermanently(ctx, readingID); err != nil {
		b.replyError(chatID, "delete the book", err)
		return
	}

	b.reply(chatID, "🗑 Deleted forever.")
}
