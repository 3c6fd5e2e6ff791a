package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"bookshelf/internal/tracker"
)

// keepValue is what a user sends during an edit to leave a field unchanged
const keepValue = "-"

// handleConversation processes multi-step conversations
func (b *Bot) handleConversation(ctx context.Context, message *tgbotapi.Message, state *ConversationState) {
	userID := message.From.ID

	switch state.Command {
	case "new_book":
		b.handleNewBookConversation(ctx, message, state)
	case "edit":
		b.handleEditConversation(ctx, message, state)
	}

	// Clean up completed conversations
	if state.Step == -1 {
		b.clearState(userID)
	}
}

// handleNewBookConversation asks for title, author, genre and page count, then creates the book
func (b *Bot) handleNewBookConversation(ctx context.Context, message *tgbotapi.Message, state *ConversationState) {
	chatID := message.Chat.ID
	text := strings.TrimSpace(message.Text)

	switch state.Step {
	case 1: // Waiting for title
		if text == "" {
			b.reply(chatID, "The title must not be blank. Please enter the book title:")
			return
		}
		state.Input.Title = text
		state.Step = 2
		b.reply(chatID, "Who is the author?")

	case 2: // Waiting for author
		if text == "" {
			b.reply(chatID, "The author must not be blank. Who is the author?")
			return
		}
		state.Input.Author = text
		state.Step = 3
		b.reply(chatID, "What genre is it?")

	case 3: // Waiting for genre
		if text == "" {
			b.reply(chatID, "The genre must not be blank. What genre is it?")
			return
		}
		state.Input.Genre = text
		state.Step = 4
		b.reply(chatID, "How many pages does it have?")

	case 4: // Waiting for page count
		pages, err := strconv.Atoi(text)
		if err != nil || pages <= 0 || pages > tracker.MaxPages {
			b.reply(chatID, "❌ Please enter a positive number of pages:")
			return
		}
		state.Input.NumOfPages = pages

		created, err := b.screens.Upsert().Create(ctx, state.Input)
		if err != nil {
			b.replyError(chatID, "add the book", err)
		} else {
			b.replyWithMarkup(chatID,
				fmt.Sprintf("✅ Book added!\n\n📚 %s by %s\n📄 %d pages", created.Title, created.Author, created.NumOfPages),
				detailKeyboard(created),
			)
		}

		state.Step = -1 // Mark conversation as complete
	}
}

// handleEditConversation walks through every editable field. Sending "-" keeps the current value.
func (b *Bot) handleEditConversation(ctx context.Context, message *tgbotapi.Message, state *ConversationState) {
	chatID := message.Chat.ID
	text := strings.TrimSpace(message.Text)
	keep := text == keepValue

	switch state.Step {
	case 1: // Title
		if !keep {
			if text == "" {
				b.reply(chatID, "The title must not be blank. Send a new title or \"-\" to keep it:")
				return
			}
			state.Input.Title = text
		}
		state.Step = 2
		b.reply(chatID, fmt.Sprintf("Author (current: %s):", state.Input.Author))

	case 2: // Author
		if !keep {
			if text == "" {
				b.reply(chatID, "The author must not be blank. Send a new author or \"-\" to keep it:")
				return
			}
			state.Input.Author = text
		}
		state.Step = 3
		b.reply(chatID, fmt.Sprintf("Genre (current: %s):", state.Input.Genre))

	case 3: // Genre
		if !keep {
			if text == "" {
				b.reply(chatID, "The genre must not be blank. Send a new genre or \"-\" to keep it:")
				return
			}
			state.Input.Genre = text
		}
		state.Step = 4
		b.reply(chatID, fmt.Sprintf("Total pages (current: %d):", state.Input.NumOfPages))

	case 4: // Total pages
		if !keep {
			pages, err := strconv.Atoi(text)
			if err != nil || pages <= 0 || pages > tracker.MaxPages {
				b.reply(chatID, "❌ Please enter a positive number of pages or \"-\" to keep it:")
				return
			}
			state.Input.NumOfPages = pages
		}
		state.Step = 5
		b.reply(chatID, fmt.Sprintf("Current page (current: %d):", state.Input.CurrentPage))

	case 5: // Current page
		if !keep {
			page, err := strconv.Atoi(text)
			if err != nil {
				b.reply(chatID, "❌ Please enter a page number or \"-\" to keep it:")
				return
			}
			state.Input.CurrentPage = page
		}

		updated, err := b.screens.Upsert().Edit(ctx, state.ReadingID, state.Input)
		var verr *tracker.ValidationError
		if errors.As(err, &verr) && verr.Field == "current_page" {
			// Stay on this step so the user can fix the page number
			b.reply(chatID, fmt.Sprintf("❌ %v\n\nPlease enter the current page again:", err))
			return
		}
		if err != nil {
			b.replyError(chatID, "save changes", err)
		} else {
			b.replyWithMarkup(chatID, fmt.Sprintf("✅ Saved changes to %s", updated.Title), detailKeyboard(updated))
		}

		state.Step = -1 // Mark conversation as complete
	}
}
