package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// testsHandler lists available tests. A non-zero messageID edits that message.
func (h *Handler) testsHandler(messageID int) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		tests, err := h.tests.List(ctx)
		if err != nil {
			return fmt.Errorf("list tests: %w", err)
		}

		if len(tests) == 0 {
			return h.reply(chatID, messageID, md(msgNoTests), nil)
		}

		kb := buildTestListKeyboard(tests)
		return h.reply(chatID, messageID, renderTestList(tests), &kb)
	}
}

// historyHandler shows the latest attempts of a user.
func (h *Handler) historyHandler(userID int64, messageID int) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		attempts, err := h.attempts.History(ctx, userID, h.historyLimit)
		if err != nil {
			return fmt.Errorf("load history: %w", err)
		}

		if len(attempts) == 0 {
			return h.reply(chatID, messageID, md(msgNoHistory), nil)
		}

		kb := buildResultKeyboard()
		return h.reply(chatID, messageID, renderHistory(attempts), &kb)
	}
}

// reply sends a new MarkdownV2 message, or edits messageID when it is set.
func (h *Handler) reply(chatID int64, messageID int, text string, kb *tgbotapi.InlineKeyboardMarkup) error {
	if messageID != 0 {
		edit := newEdit(chatID, messageID, text)
		edit.ReplyMarkup = kb
		return h.send(edit)
	}

	msg := newMessage(chatID, text)
	if kb != nil {
		msg.ReplyMarkup = *kb
	}
	return h.send(msg)
}
