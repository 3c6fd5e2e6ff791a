package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// handleStart shows welcome message and available commands
func (b *Bot) handleStart(message *tgbotapi.Message) {
	text := `Welcome to Bookshelf! 📚

Available commands:
/new_book - Add a book you are reading
/books - Show your books and update progress
/trash - Show books in the trash`

	b.reply(message.Chat.ID, text)
}

// handleNewBookStart initiates the new book conversation
func (b *Bot) handleNewBookStart(message *tgbotapi.Message) {
	b.setState(message.From.ID, &ConversationState{
		Command: "new_book",
		Step:    1,
	})

	b.reply(message.Chat.ID, "Please enter the book title:")
}

// handleBooks lists active books, one button per book
func (b *Bot) handleBooks(ctx context.Context, message *tgbotapi.Message) {
	screen := b.screens.Main()

	books, err := screen.Books(ctx)
	if err != nil {
		b.replyError(message.Chat.ID, "list books", err)
		return
	}

	if len(books) == 0 {
		b.reply(message.Chat.ID, "No books yet. Add one with /new_book")
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, r := range books {
		c, err := screen.Completion(r)
		if err != nil {
			continue
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			button(bookButtonLabel(r, c), callback{Action: actionReading, ReadingID: r.ReadingID}),
		))
	}

	b.replyWithMarkup(message.Chat.ID, "📚 Your books:", tgbotapi.NewInlineKeyboardMarkup(rows...))
}

// handleTrash lists trashed books with restore and purge buttons
func (b *Bot) handleTrash(ctx context.Context, message *tgbotapi.Message) {
	books, err := b.screens.Trash().Books(ctx)
	if err != nil {
		b.replyError(message.Chat.ID, "list trash", err)
		return
	}

	if len(books) == 0 {
		b.reply(message.Chat.ID, "The trash is empty.")
		return
	}

	var text strings.Builder
	text.WriteString("🗑 Trash:\n\n")

	var rows [][]tgbotapi.InlineKeyboardButton
	for i, r := range books {
		text.WriteString(fmt.Sprintf("%d. %s by %s\n", i+1, r.Title, r.Author))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			button(fmt.Sprintf("♻️ %d. Restore", i+1), callback{Action: actionRestore, ReadingID: r.ReadingID}),
			button(fmt.Sprintf("🗑 %d. Delete forever", i+1), callback{Action: actionPurge, ReadingID: r.ReadingID}),
		))
	}

	b.replyWithMarkup(message.Chat.ID, text.String(), tgbotapi.NewInlineKeyboardMarkup(rows...))
}
