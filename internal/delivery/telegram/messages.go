// messages.go contains message templates and formatting helpers for Telegram.

package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Error messages.
const (
	msgInternalError      = "Something went wrong. Please try again later."
	msgNoTests            = "No tests are available yet."
	msgNoHistory          = "You have not completed any tests yet."
	msgSessionExpired     = "This test session is no longer active. Open /tests to start again."
	msgSubmitInFlight     = "Your answers are being submitted…"
	msgSubmitFailed       = "Could not save your result. Your answers are kept, press Submit to try again."
	msgAutoSubmitFailed   = "Time is up, but your result could not be saved. Press Submit to try again."
	msgNoQuestions        = "This test has no questions."
	msgUnknownCommand     = "Unknown command. Use /tests to see the available tests or /help for help."
	msgExited             = "You left the test. The timer keeps running; open it again from /tests to continue."
	msgAnswerSaved        = "Answer saved"
	msgAnswersLocked      = "Answers can no longer be changed. Press Submit to try again."
	msgTimeUpSubmit       = "Time is up. Press Submit to finish the test."
	msgTimeIsUp           = "⏰ Time is up! Your answers were submitted automatically."
	msgWelcomeTitle       = "Welcome to Testroom"
	msgWelcomeBody        = "Take timed multiple-choice tests right here in the chat.\n\n/tests - available tests\n/history - your latest results\n/help - how it works"
	msgHelp               = "Pick a test in /tests and press Start. Questions are drawn at random from the test's question bank, balanced across categories.\n\nTap a number to answer, use the arrows to move between questions and press Submit when you are done. When the time runs out your answers are submitted automatically.\n\nLeaving a test does not stop its clock: if you come back before the time is up you continue where the timer is."
)

// md escapes plain text for MarkdownV2.
func md(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdownV2, s)
}

func bold(s string) string {
	return "*" + md(s) + "*"
}

func italic(s string) string {
	return "_" + md(s) + "_"
}

// newMessage creates a message with MarkdownV2 parse mode.
func newMessage(chatID int64, text string) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	return msg
}

// newPlainMessage creates a plain message without MarkdownV2 parse mode.
func newPlainMessage(chatID int64, text string) tgbotapi.MessageConfig {
	return tgbotapi.NewMessage(chatID, text)
}

// newEdit creates an edit with MarkdownV2 parse mode.
func newEdit(chatID int64, msgID int, text string) tgbotapi.EditMessageTextConfig {
	edit := tgbotapi.NewEditMessageText(chatID, msgID, text)
	edit.ParseMode = tgbotapi.ModeMarkdownV2
	return edit
}
