package service

import (
	"github.com/google/uuid"

	"github.com/aliskhannn/testroom/internal/domain/entities"
)

// ScoreAnswers counts the questions answered correctly. Answers are matched by
// question ID, so their order does not matter; a question without an answer
// or with an empty selection is incorrect.
func ScoreAnswers(questions []entities.Question, answers []entities.UserAnswer) entities.Score {
	selected := make(map[uuid.UUID]string, len(answers))
	for _, a := range answers {
		selected[a.QuestionID] = a.SelectedOption
	}

	score := entities.Score{Total: len(questions)}
	for _, q := range questions {
		if q.AnswerKey().Matches(selected[q.ID], q.Options) {
			score.Correct++
		}
	}

	return score
}
