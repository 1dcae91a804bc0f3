package service

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/aliskhannn/testroom/internal/domain/entities"
)

// Column names of a question bank CSV.
const (
	colNo          = "No."
	colCategory    = "Category"
	colSubCategory = "Sub-Category"
	colQuestion    = "Question"
	colOption1     = "Option 1"
	colOption2     = "Option 2"
	colOption3     = "Option 3"
	colOption4     = "Option 4"
	colAnswer      = "Answer"
)

var requiredColumns = []string{
	colNo, colCategory, colSubCategory, colQuestion,
	colOption1, colOption2, colOption3, colOption4, colAnswer,
}

var optionColumns = []string{colOption1, colOption2, colOption3, colOption4}

// maxProblems caps the problems reported for one file.
const maxProblems = 20

// ValidationError lists everything wrong with an uploaded question bank.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid question bank: " + strings.Join(e.Problems, "; ")
}

// IsValidationError reports whether err carries a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ParseQuestionsCSV reads a question bank. The header row must name every
// required column; extra columns are ignored. Blank rows are skipped. Correct
// answers are normalized to "Option N". The returned questions carry no IDs.
func ParseQuestionsCSV(r io.Reader) ([]entities.Question, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &ValidationError{Problems: []string{"file is empty"}}
	}
	if err != nil {
		return nil, &ValidationError{Problems: []string{fmt.Sprintf("read header: %v", err)}}
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		if _, dup := columns[name]; !dup {
			columns[name] = i
		}
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := columns[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &ValidationError{
			Problems: []string{"missing required columns: " + strings.Join(missing, ", ")},
		}
	}

	var (
		questions []entities.Question
		problems  []string
	)

	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			problems = append(problems, fmt.Sprintf("line %d: %v", line, err))
			break
		}
		if blankRecord(record) {
			continue
		}

		q, rowProblems := parseQuestionRow(record, columns)
		for _, p := range rowProblems {
			problems = append(problems, fmt.Sprintf("line %d: %s", line, p))
		}
		if len(rowProblems) == 0 {
			questions = append(questions, q)
		}

		if len(problems) >= maxProblems {
			problems = append(problems, "too many problems, stopped")
			break
		}
	}

	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}
	if len(questions) == 0 {
		return nil, &ValidationError{Problems: []string{"file contains no questions"}}
	}

	return questions, nil
}

func parseQuestionRow(record []string, columns map[string]int) (entities.Question, []string) {
	field := func(col string) string {
		i := columns[col]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var problems []string

	q := entities.Question{
		Category:    field(colCategory),
		SubCategory: field(colSubCategory),
		Text:        field(colQuestion),
		Options:     make([]string, 0, len(optionColumns)),
	}

	if q.Category == "" {
		problems = append(problems, "category is empty")
	}
	if q.Text == "" {
		problems = append(problems, "question is empty")
	}
	for _, col := range optionColumns {
		opt := field(col)
		if opt == "" {
			problems = append(problems, strings.ToLower(col)+" is empty")
		}
		q.Options = append(q.Options, opt)
	}

	answer := field(colAnswer)
	key := entities.DecodeAnswerKey(answer, q.Options)
	switch {
	case answer == "":
		problems = append(problems, "answer is empty")
	case key.Form == entities.FormRawIndex:
		// Bare numbers are ambiguous in uploads; only an option with that text qualifies.
		if i := slices.Index(q.Options, answer); i >= 0 {
			q.CorrectAnswer = entities.OptionLabel(i)
		} else {
			problems = append(problems, fmt.Sprintf(`answer %q is a bare number; write "Option N" or the option text`, answer))
		}
	case !key.Valid():
		problems = append(problems, fmt.Sprintf("answer %q matches no option", answer))
	default:
		q.CorrectAnswer = key.Label()
	}

	return q, problems
}

func blankRecord(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
