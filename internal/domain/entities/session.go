package entities

import "github.com/google/uuid"

// SessionState is a state of a test-taking session.
type SessionState string

const (
	SessionLoading    SessionState = "loading"
	SessionInProgress SessionState = "in_progress"
	SessionCompleted  SessionState = "completed"
	SessionError      SessionState = "error"
	SessionEmpty      SessionState = "empty"
)

// Terminal reports whether no further mutation of the session is allowed.
func (s SessionState) Terminal() bool {
	switch s {
	case SessionCompleted, SessionError, SessionEmpty:
		return true
	default:
		return false
	}
}

// SessionSnapshot is a read-only view of a session used for rendering.
type SessionSnapshot struct {
	UserID       int64
	TestID       uuid.UUID
	TestTitle    string
	State        SessionState
	Current      int
	Questions    []Question
	Answers      []UserAnswer
	Remaining    int // seconds
	Submitting   bool
	Attempt      *Attempt
	ErrorMessage string
}

// CurrentQuestion returns the question at the current index, if any.
func (s SessionSnapshot) CurrentQuestion() (Question, bool) {
	if s.Current < 0 || s.Current >= len(s.Questions) {
		return Question{}, false
	}
	return s.Questions[s.Current], true
}

// AnswerFor returns the selected option for a question ("" when unanswered).
func (s SessionSnapshot) AnswerFor(questionID uuid.UUID) string {
	for _, a := range s.Answers {
		if a.QuestionID == questionID {
			return a.SelectedOption
		}
	}
	return ""
}

// AnsweredCount returns how many questions have a selected option.
func (s SessionSnapshot) AnsweredCount() int {
	n := 0
	for _, a := range s.Answers {
		if a.Answered() {
			n++
		}
	}
	return n
}
