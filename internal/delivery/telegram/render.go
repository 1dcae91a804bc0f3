package telegram

import (
	"fmt"
	"strings"

	"github.com/aliskhannn/testroom/internal/domain/entities"
)

const dateLayout = "02 Jan 2006 15:04"

// formatRemaining renders seconds as mm:ss.
func formatRemaining(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// renderTestList renders the list of available tests.
func renderTestList(tests []entities.TestSummary) string {
	var sb strings.Builder
	sb.WriteString(bold("📋 Available tests"))
	sb.WriteString("\n\n")

	for i, t := range tests {
		fmt.Fprintf(&sb, "%s %s\n", md(fmt.Sprintf("%d.", i+1)), md(t.Title))
		sb.WriteString(italic(fmt.Sprintf("%d questions · %d min", sessionSize(t), t.TimeLimit)))
		sb.WriteString("\n")
	}

	return sb.String()
}

// renderTestCard renders a test description before it is started.
func renderTestCard(t entities.TestSummary) string {
	lines := []string{
		bold(t.Title),
		"",
		md(fmt.Sprintf("❓ Questions: %d", sessionSize(t))),
		md(fmt.Sprintf("⏱ Time limit: %d min", t.TimeLimit)),
	}
	if t.QuestionsCount != nil && *t.QuestionsCount < t.TotalQuestions {
		lines = append(lines, md(fmt.Sprintf("🎲 Drawn from a bank of %d questions", t.TotalQuestions)))
	}
	lines = append(lines, "", md("The timer starts when you press Start."))

	return strings.Join(lines, "\n")
}

// renderQuestion renders the current question of an in-progress session.
func renderQuestion(snap entities.SessionSnapshot) string {
	q, ok := snap.CurrentQuestion()
	if !ok {
		return md(msgNoQuestions)
	}

	var sb strings.Builder
	sb.WriteString(bold(snap.TestTitle))
	sb.WriteString("\n")
	sb.WriteString(md(fmt.Sprintf(
		"Question %d of %d · ⏱ %s left · answered %d/%d",
		snap.Current+1, len(snap.Questions),
		formatRemaining(snap.Remaining),
		snap.AnsweredCount(), len(snap.Questions),
	)))
	sb.WriteString("\n")

	category := q.Category
	if q.SubCategory != "" {
		category += " › " + q.SubCategory
	}
	sb.WriteString(italic(category))
	sb.WriteString("\n\n")

	sb.WriteString(md(q.Text))
	sb.WriteString("\n\n")

	selected := snap.AnswerFor(q.ID)
	for i, opt := range q.Options {
		line := md(fmt.Sprintf("%d. %s", i+1, opt))
		if selected == fmt.Sprint(i) {
			line = "✅ " + bold(fmt.Sprintf("%d. %s", i+1, opt))
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	if snap.Submitting {
		sb.WriteString("\n")
		sb.WriteString(italic(msgSubmitInFlight))
	}

	return sb.String()
}

// renderResult renders the outcome of a completed session.
func renderResult(snap entities.SessionSnapshot) string {
	if snap.Attempt == nil {
		return md(msgInternalError)
	}
	a := snap.Attempt

	return strings.Join([]string{
		bold("🏁 Test completed"),
		md(snap.TestTitle),
		"",
		bold(fmt.Sprintf("%d/%d", a.Score, a.TotalQuestions)),
		md(fmt.Sprintf("You scored %d out of %d questions correctly (%.2f%%).", a.Score, a.TotalQuestions, a.Percentage)),
	}, "\n")
}

// renderSessionEnd renders a session that ended without a result.
func renderSessionEnd(snap entities.SessionSnapshot) string {
	switch snap.State {
	case entities.SessionEmpty:
		return md(msgNoQuestions)
	case entities.SessionError:
		if snap.ErrorMessage != "" {
			return md(snap.ErrorMessage)
		}
	}
	return md(msgInternalError)
}

// renderHistory renders the latest attempts of a user.
func renderHistory(attempts []entities.AttemptWithTest) string {
	var sb strings.Builder
	sb.WriteString(bold("📊 Your latest results"))
	sb.WriteString("\n\n")

	for _, a := range attempts {
		sb.WriteString(md(fmt.Sprintf("%s: %d/%d (%.2f%%)", a.TestTitle, a.Score, a.TotalQuestions, a.Percentage)))
		sb.WriteString("\n")
		sb.WriteString(italic(a.CompletedAt.UTC().Format(dateLayout) + " UTC"))
		sb.WriteString("\n")
	}

	return sb.String()
}

// sessionSize returns the number of questions a session of the test gets.
func sessionSize(t entities.TestSummary) int {
	if t.QuestionsCount != nil && *t.QuestionsCount > 0 && *t.QuestionsCount < t.TotalQuestions {
		return *t.QuestionsCount
	}
	return t.TotalQuestions
}
