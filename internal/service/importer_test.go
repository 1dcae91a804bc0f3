package service

import (
	"errors"
	"strings"
	"testing"
)

const csvHeader = "No.,Category,Sub-Category,Question,Option 1,Option 2,Option 3,Option 4,Answer\n"

func TestParseQuestionsCSV(t *testing.T) {
	input := "\ufeff" + csvHeader +
		"1,Math,Addition,2+2?,3,4,5,6,Option 2\n" +
		"2,Math,,3+3?,5,6,7,8,6\n" +
		"\n" +
		"3,Geo,Capitals,Capital of France?,Berlin,Madrid,Paris,Rome,Paris\n"

	questions, err := ParseQuestionsCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(questions) != 3 {
		t.Fatalf("questions = %d, want 3", len(questions))
	}

	wantAnswers := []string{"Option 2", "Option 2", "Option 3"}
	for i, q := range questions {
		if q.CorrectAnswer != wantAnswers[i] {
			t.Errorf("question %d answer = %q, want %q", i, q.CorrectAnswer, wantAnswers[i])
		}
		if len(q.Options) != 4 {
			t.Errorf("question %d has %d options", i, len(q.Options))
		}
	}
	if questions[1].SubCategory != "" || questions[2].Category != "Geo" {
		t.Errorf("unexpected fields: %+v", questions[1:])
	}
}

func TestParseQuestionsCSV_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantMsg string
	}{
		{"empty file", "", "file is empty"},
		{"header only", csvHeader, "no questions"},
		{"missing columns", "No.,Category,Question,Option 1,Answer\n1,A,Q,x,Option 1\n", "Sub-Category, Option 2, Option 3, Option 4"},
		{"empty question", csvHeader + "1,A,,,a,b,c,d,Option 1\n", "line 2: question is empty"},
		{"empty option", csvHeader + "1,A,,Q,a,,c,d,Option 1\n", "option 2 is empty"},
		{"bad answer", csvHeader + "1,A,,Q,a,b,c,d,Option 9\n", `answer "Option 9" matches no option`},
		{"empty answer", csvHeader + "1,A,,Q,a,b,c,d,\n", "answer is empty"},
		{"bare index answer", csvHeader + "1,A,,Q,a,b,c,d,1\n", `answer "1" is a bare number`},
		{"one bad row rejects all", csvHeader + "1,A,,Q,a,b,c,d,Option 1\n2,,,Q,a,b,c,d,Option 1\n", "line 3: category is empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			questions, err := ParseQuestionsCSV(strings.NewReader(tt.input))
			if questions != nil {
				t.Errorf("questions = %v, want nil", questions)
			}

			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("err = %v, want *ValidationError", err)
			}
			if !strings.Contains(ve.Error(), tt.wantMsg) {
				t.Errorf("err = %q, want it to contain %q", ve.Error(), tt.wantMsg)
			}
		})
	}
}
