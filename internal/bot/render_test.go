package bot

import (
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"bookshelf/internal/models"
	"bookshelf/internal/viewmodel"
)

func TestParseCallback(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    callback
		wantErr bool
	}{
		{name: "Detail", data: "reading:12", want: callback{Action: actionReading, ReadingID: 12}},
		{name: "Counter", data: "amount:3:25", want: callback{Action: actionAmount, ReadingID: 3, Amount: 25}},
		{name: "Confirm", data: "confirm:3:0", want: callback{Action: actionConfirm, ReadingID: 3}},
		{name: "Purge", data: "purge:9", want: callback{Action: actionPurge, ReadingID: 9}},
		{name: "Noop", data: "noop", want: callback{Action: actionNoop}},
		{name: "Missing id", data: "reading", wantErr: true},
		{name: "Zero id", data: "reading:0", wantErr: true},
		{name: "Bad id", data: "trash:abc", wantErr: true},
		{name: "Missing amount", data: "amount:3", wantErr: true},
		{name: "Bad amount", data: "confirm:3:x", wantErr: true},
		{name: "Extra part", data: "edit:3:4", wantErr: true},
		{name: "Unknown action", data: "stats_period:3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCallback(tt.data)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseCallback(%q) expected error, got %+v", tt.data, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseCallback(%q) unexpected error: %v", tt.data, err)
			}
			if got != tt.want {
				t.Errorf("parseCallback(%q) = %+v, want %+v", tt.data, got, tt.want)
			}
			if got.String() != tt.data {
				t.Errorf("String() = %q, want %q", got.String(), tt.data)
			}
		})
	}
}

func buttonData(markup tgbotapi.InlineKeyboardMarkup) []string {
	var data []string
	for _, row := range markup.InlineKeyboard {
		for _, b := range row {
			if b.CallbackData != nil {
				data = append(data, *b.CallbackData)
			}
		}
	}
	return data
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}

func TestCounterKeyboard(t *testing.T) {
	tests := []struct {
		name         string
		amount       int
		canIncrement bool
		present      []string
		absent       []string
	}{
		{
			name:         "At zero",
			amount:       0,
			canIncrement: true,
			present:      []string{"amount:5:1", "confirm:5:0", "reading:5"},
			absent:       []string{"amount:5:-1"},
		},
		{
			name:         "At the limit",
			amount:       10,
			canIncrement: false,
			present:      []string{"amount:5:9", "confirm:5:10"},
			absent:       []string{"amount:5:11"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := buttonData(counterKeyboard(5, tt.amount, tt.canIncrement))
			for _, want := range tt.present {
				if !contains(data, want) {
					t.Errorf("expected button %q in %v", want, data)
				}
			}
			for _, unwanted := range tt.absent {
				if contains(data, unwanted) {
					t.Errorf("unexpected button %q in %v", unwanted, data)
				}
			}
		})
	}
}

func TestDetailKeyboard(t *testing.T) {
	active := buttonData(detailKeyboard(models.BookReading{ReadingID: 4}))
	for _, want := range []string{"progress:4", "edit:4", "trash:4"} {
		if !contains(active, want) {
			t.Errorf("expected %q for an active book, got %v", want, active)
		}
	}

	trashed := buttonData(detailKeyboard(models.BookReading{ReadingID: 4, IsDeleted: true}))
	for _, want := range []string{"restore:4", "purge:4"} {
		if !contains(trashed, want) {
			t.Errorf("expected %q for a trashed book, got %v", want, trashed)
		}
	}
	if contains(trashed, "progress:4") {
		t.Error("trashed book must not offer progress updates")
	}
}

func TestDetailText(t *testing.T) {
	d := viewmodel.Detail{
		Reading: models.BookReading{
			Title:       "Dune",
			Author:      "Frank Herbert",
			Genre:       "Science Fiction",
			NumOfPages:  200,
			CurrentPage: 150,
		},
		Completion:  models.Completion{PagesLeft: 50, PercentComplete: 75},
		LastUpdated: "May 01, 2024 09:30",
	}

	text := detailText(d)
	for _, want := range []string{"Dune", "Frank Herbert", "Pages left: 50", "Complete: 75%", "May 01, 2024 09:30"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q in detail text:\n%s", want, text)
		}
	}
	if strings.Contains(text, "trash") {
		t.Error("active book must not be marked as trashed")
	}
}
