package bot

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"bookshelf/internal/models"
	"bookshelf/internal/viewmodel"
)

// Callback actions carried in inline keyboard data as "<action>:<id>[:<amount>]"
const (
	actionReading  = "reading"
	actionProgress = "progress"
	actionAmount   = "amount"
	actionConfirm  = "confirm"
	actionEdit     = "edit"
	actionTrash    = "trash"
	actionRestore  = "restore"
	actionPurge    = "purge"
	actionNoop     = "noop"
)

type callback struct {
	Action    string
	ReadingID int64
	Amount    int
}

func (c callback) String() string {
	switch c.Action {
	case actionNoop:
		return actionNoop
	case actionAmount, actionConfirm:
		return fmt.Sprintf("%s:%d:%d", c.Action, c.ReadingID, c.Amount)
	default:
		return fmt.Sprintf("%s:%d", c.Action, c.ReadingID)
	}
}

// parseCallback decodes inline keyboard data
func parseCallback(data string) (callback, error) {
	if data == actionNoop {
		return callback{Action: actionNoop}, nil
	}

	parts := strings.Split(data, ":")
	if len(parts) < 2 {
		return callback{}, fmt.Errorf("malformed callback data %q", data)
	}

	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || id <= 0 {
		return callback{}, fmt.Errorf("invalid reading id in callback data %q", data)
	}
	cb := callback{Action: parts[0], ReadingID: id}

	switch cb.Action {
	case actionAmount, actionConfirm:
		if len(parts) != 3 {
			return callback{}, fmt.Errorf("missing amount in callback data %q", data)
		}
		cb.Amount, err = strconv.Atoi(parts[2])
		if err != nil {
			return callback{}, fmt.Errorf("invalid amount in callback data %q", data)
		}
	case actionReading, actionProgress, actionEdit, actionTrash, actionRestore, actionPurge:
		if len(parts) != 2 {
			return callback{}, fmt.Errorf("malformed callback data %q", data)
		}
	default:
		return callback{}, fmt.Errorf("unknown callback action %q", cb.Action)
	}

	return cb, nil
}

func button(text string, cb callback) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(text, cb.String())
}

// bookButtonLabel is the list entry for a book
func bookButtonLabel(r models.BookReading, c models.Completion) string {
	return fmt.Sprintf("📖 %s (%d%%)", r.Title, c.PercentComplete)
}

// detailText renders the detail screen
func detailText(d viewmodel.Detail) string {
	r := d.Reading

	var text strings.Builder
	text.WriteString(fmt.Sprintf("📚 %s\n", r.Title))
	text.WriteString(fmt.Sprintf("✍️ Author: %s\n", r.Author))
	text.WriteString(fmt.Sprintf("🏷 Genre: %s\n\n", r.Genre))
	text.WriteString(fmt.Sprintf("📄 Total pages: %d\n", r.NumOfPages))
	text.WriteString(fmt.Sprintf("📖 Current page: %d\n", r.CurrentPage))
	text.WriteString(fmt.Sprintf("⏳ Pages left: %d\n", d.Completion.PagesLeft))
	text.WriteString(fmt.Sprintf("📊 Complete: %d%%\n\n", d.Completion.PercentComplete))
	text.WriteString(fmt.Sprintf("🕒 Last updated: %s", d.LastUpdated))
	if r.IsDeleted {
		text.WriteString("\n\n🗑 This book is in the trash.")
	}
	return text.String()
}

// detailKeyboard offers progress, edit and trash for active books and
// restore or purge for trashed ones
func detailKeyboard(r models.BookReading) tgbotapi.InlineKeyboardMarkup {
	id := r.ReadingID
	if r.IsDeleted {
		return tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				button("♻️ Restore", callback{Action: actionRestore, ReadingID: id}),
				button("🗑 Delete forever", callback{Action: actionPurge, ReadingID: id}),
			),
		)
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			button("➕ Update progress", callback{Action: actionProgress, ReadingID: id}),
		),
		tgbotapi.NewInlineKeyboardRow(
			button("✏️ Edit", callback{Action: actionEdit, ReadingID: id}),
			button("🗑 Move to trash", callback{Action: actionTrash, ReadingID: id}),
		),
	)
}

// counterText renders the page counter
func counterText(r models.BookReading, pagesLeft, amount int) string {
	return fmt.Sprintf("📖 %s\n⏳ Pages left: %d\n\nPages read this session: %d", r.Title, pagesLeft, amount)
}

// counterKeyboard renders − / amount / + and save. Buttons that would leave
// the allowed range are not shown.
func counterKeyboard(readingID int64, amount int, canIncrement bool) tgbotapi.InlineKeyboardMarkup {
	var counter []tgbotapi.InlineKeyboardButton
	if amount > 0 {
		counter = append(counter, button("➖", callback{Action: actionAmount, ReadingID: readingID, Amount: amount - 1}))
	}
	counter = append(counter, button(strconv.Itoa(amount), callback{Action: actionNoop}))
	if canIncrement {
		counter = append(counter, button("➕", callback{Action: actionAmount, ReadingID: readingID, Amount: amount + 1}))
	}

	return tgbotapi.NewInlineKeyboardMarkup(
		counter,
		tgbotapi.NewInlineKeyboardRow(
			button("✅ Save", callback{Action: actionConfirm, ReadingID: readingID, Amount: amount}),
			button("↩️ Back", callback{Action: actionReading, ReadingID: readingID}),
		),
	)
}
