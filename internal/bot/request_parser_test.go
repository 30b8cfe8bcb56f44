package bot

import (
	"errors"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"kopilka/internal/core"
)

func TestParseMonthArg(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		args    string
		want    MonthArg
		wantErr bool
	}{
		{"", MonthArg{2024, 3}, false},
		{"2023-11", MonthArg{2023, 11}, false},
		{"2023-1", MonthArg{2023, 1}, false},
		{"02.2024", MonthArg{2024, 2}, false},
		{" 2024-12 ", MonthArg{2024, 12}, false},
		{"2024-13", MonthArg{}, true},
		{"март", MonthArg{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.args, func(t *testing.T) {
			got, err := parseMonthArg(tt.args, now)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseMonthArg(%q) error = %v, wantErr %v", tt.args, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseMonthArg(%q) = %+v, want %+v", tt.args, got, tt.want)
			}
		})
	}
}

func TestParseReminderArgs(t *testing.T) {
	tests := []struct {
		args    string
		want    ReminderArgs
		wantErr error
	}{
		{"daily позвонить маме", ReminderArgs{core.Daily, -1, "позвонить маме"}, nil},
		{"Weekly 18 уборка", ReminderArgs{core.Weekly, 18, "уборка"}, nil},
		{"ежегодно 09:00 страховка", ReminderArgs{core.Yearly, 9, "страховка"}, nil},
		{"monthly 10", ReminderArgs{core.Monthly, -1, "10"}, nil},
		{"monthly 7:30 аренда", ReminderArgs{}, core.ErrInvalidHour},
		{"monthly 24 аренда", ReminderArgs{}, core.ErrInvalidHour},
		{"hourly пить воду", ReminderArgs{}, core.ErrInvalidRepeat},
		{"daily", ReminderArgs{}, errUsage},
		{"", ReminderArgs{}, errUsage},
	}
	for _, tt := range tests {
		t.Run(tt.args, func(t *testing.T) {
			got, err := parseReminderArgs(tt.args)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("parseReminderArgs(%q) error = %v, want %v", tt.args, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseReminderArgs(%q) error = %v", tt.args, err)
			}
			if got != tt.want {
				t.Errorf("parseReminderArgs(%q) = %+v, want %+v", tt.args, got, tt.want)
			}
		})
	}
}

func TestParseID(t *testing.T) {
	for _, in := range []string{"3", "#3", " 3 "} {
		if id, err := parseID(in); err != nil || id != 3 {
			t.Errorf("parseID(%q) = %d, %v", in, id, err)
		}
	}
	for _, in := range []string{"", "0", "-1", "abc"} {
		if _, err := parseID(in); !errors.Is(err, errUsage) {
			t.Errorf("parseID(%q) error = %v", in, err)
		}
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput("  хлеб\x00 100\tтг\n "); got != "хлеб 100\tтг" {
		t.Errorf("sanitizeInput() = %q", got)
	}
}

func TestReplyBuilder(t *testing.T) {
	msg := NewReply(5).Text("a").Blank().Textf("b=%d", 2).ReplyTo(9).CategoryKeyboard().Build()
	if msg.ChatID != 5 || msg.Text != "a\n\nb=2" || msg.ReplyToMessageID != 9 {
		t.Fatalf("Build() = %+v", msg)
	}
	kb, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if !ok {
		t.Fatalf("ReplyMarkup = %T", msg.ReplyMarkup)
	}
	buttons := 0
	for _, row := range kb.InlineKeyboard {
		if len(row) > 3 {
			t.Errorf("row has %d buttons", len(row))
		}
		for _, btn := range row {
			buttons++
			if btn.CallbackData == nil || *btn.CallbackData != fixCallbackPrefix+btn.Text {
				t.Errorf("button %q has callback %v", btn.Text, btn.CallbackData)
			}
		}
	}
	if buttons != len(core.Categories()) {
		t.Errorf("keyboard has %d buttons, want %d", buttons, len(core.Categories()))
	}

	if got := NewReply(1).Blank().Text("x").String(); got != "x" {
		t.Errorf("leading Blank() should be dropped, got %q", got)
	}
}
