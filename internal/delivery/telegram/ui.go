package telegram

import (
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliskhannn/testroom/internal/domain/entities"
)

// Question grid limits.
const (
	gridColumns      = 8
	gridMaxQuestions = 40
)

// buildTestListKeyboard builds one button per test.
func buildTestListKeyboard(tests []entities.TestSummary) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(tests))
	for _, t := range tests {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📝 "+t.Title, buildTestCallback(t.ID)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// buildTestCardKeyboard builds keyboard for a test description.
func buildTestCardKeyboard(test entities.TestSummary) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("▶️ Start", buildStartCallback(test.ID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("« All tests", buildTestsCallback()),
		),
	)
}

// buildQuestionKeyboard builds keyboard for the current question of a session.
func buildQuestionKeyboard(snap entities.SessionSnapshot) tgbotapi.InlineKeyboardMarkup {
	q, ok := snap.CurrentQuestion()
	if !ok {
		return tgbotapi.NewInlineKeyboardMarkup()
	}

	selected := snap.AnswerFor(q.ID)

	var options []tgbotapi.InlineKeyboardButton
	for i := range q.Options {
		label := strconv.Itoa(i + 1)
		if selected == strconv.Itoa(i) {
			label = "✅ " + label
		}
		options = append(options, tgbotapi.NewInlineKeyboardButtonData(label, buildAnswerCallback(snap.TestID, snap.Current, i)))
	}

	rows := [][]tgbotapi.InlineKeyboardButton{options}

	var nav []tgbotapi.InlineKeyboardButton
	if snap.Current > 0 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("◀️ Previous", buildGoToCallback(snap.TestID, snap.Current-1)))
	}
	nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("🔄", buildGoToCallback(snap.TestID, snap.Current)))
	if snap.Current < len(snap.Questions)-1 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("Next ▶️", buildGoToCallback(snap.TestID, snap.Current+1)))
	}
	rows = append(rows, nav)

	rows = append(rows, buildQuestionGrid(snap)...)

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🚪 Exit", buildExitCallback(snap.TestID)),
		tgbotapi.NewInlineKeyboardButtonData("📨 Submit", buildSubmitCallback(snap.TestID)),
	))

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// buildQuestionGrid builds jump buttons marking answered and current questions.
func buildQuestionGrid(snap entities.SessionSnapshot) [][]tgbotapi.InlineKeyboardButton {
	if len(snap.Questions) <= 1 || len(snap.Questions) > gridMaxQuestions {
		return nil
	}

	var (
		rows [][]tgbotapi.InlineKeyboardButton
		row  []tgbotapi.InlineKeyboardButton
	)
	for i, q := range snap.Questions {
		label := strconv.Itoa(i + 1)
		switch {
		case i == snap.Current:
			label = "·" + label + "·"
		case snap.AnswerFor(q.ID) != "":
			label += "✓"
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, buildGoToCallback(snap.TestID, i)))
		if len(row) == gridColumns {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	return rows
}

// buildSubmitRetryKeyboard builds keyboard offering another submission.
func buildSubmitRetryKeyboard(snap entities.SessionSnapshot) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📨 Submit", buildSubmitCallback(snap.TestID)),
			tgbotapi.NewInlineKeyboardButtonData("📝 Back to questions", buildGoToCallback(snap.TestID, snap.Current)),
		),
	)
}

// buildResultKeyboard builds keyboard for the result screen.
func buildResultKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📋 Tests", buildTestsCallback()),
			tgbotapi.NewInlineKeyboardButtonData("📊 History", buildHistoryCallback()),
		),
	)
}
