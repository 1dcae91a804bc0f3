package entities

import "github.com/google/uuid"

// OptionsPerQuestion is the number of answer options every question carries.
const OptionsPerQuestion = 4

// Question is a single multiple-choice question of a test.
type Question struct {
	ID            uuid.UUID
	TestID        uuid.UUID
	Category      string
	SubCategory   string // may be empty
	Text          string
	Options       []string // exactly OptionsPerQuestion entries
	CorrectAnswer string   // "Option N", a raw 0-based index or the option text
}

// AnswerKey decodes the stored correct answer of the question.
func (q *Question) AnswerKey() AnswerKey {
	return DecodeAnswerKey(q.CorrectAnswer, q.Options)
}

// UserAnswer pairs a question with the option index chosen for it.
// SelectedOption is the decimal index as a string; "" means unanswered.
type UserAnswer struct {
	QuestionID     uuid.UUID
	SelectedOption string
}

// Answered reports whether an option has been selected.
func (a UserAnswer) Answered() bool {
	return a.SelectedOption != ""
}
