package entities

import (
	"strconv"
	"strings"
)

// AnswerKeyForm tells which encoding a stored correct answer uses.
type AnswerKeyForm string

const (
	FormOptionLabel AnswerKeyForm = "option_label" // "Option N", N is 1-based
	FormRawIndex    AnswerKeyForm = "raw_index"    // "N", N is 0-based
	FormOptionText  AnswerKeyForm = "option_text"  // literal text of one option
	FormUnknown     AnswerKeyForm = "unknown"
)

const optionLabelPrefix = "Option "

// AnswerKey is a decoded correct-answer field.
type AnswerKey struct {
	Raw           string
	Form          AnswerKeyForm
	ExpectedIndex int // 0-based, -1 when no option can be identified
}

// DecodeAnswerKey decodes a stored correct answer against the question options.
// Forms are tried in order: "Option N", raw index, option text.
func DecodeAnswerKey(raw string, options []string) AnswerKey {
	if n, ok := parseOptionLabel(raw); ok {
		idx := n - 1
		if idx >= len(options) {
			idx = -1
		}
		return AnswerKey{Raw: raw, Form: FormOptionLabel, ExpectedIndex: idx}
	}

	if idx, err := strconv.Atoi(raw); err == nil && idx >= 0 && idx < len(options) {
		return AnswerKey{Raw: raw, Form: FormRawIndex, ExpectedIndex: idx}
	}

	for i, opt := range options {
		if opt == raw {
			return AnswerKey{Raw: raw, Form: FormOptionText, ExpectedIndex: i}
		}
	}

	return AnswerKey{Raw: raw, Form: FormUnknown, ExpectedIndex: -1}
}

// Valid reports whether exactly one option is identified as correct.
func (k AnswerKey) Valid() bool {
	return k.ExpectedIndex >= 0
}

// Label returns the canonical "Option N" form of the key.
func (k AnswerKey) Label() string {
	if !k.Valid() {
		return ""
	}
	return OptionLabel(k.ExpectedIndex)
}

// Matches reports whether selected (a 0-based index string) answers the key correctly.
//
// Precedence:
//  1. "Option N" keys match only the index N-1.
//  2. A key equal to the selection verbatim matches (key stored as a raw index).
//  3. A key equal to the text of the selected option matches.
func (k AnswerKey) Matches(selected string, options []string) bool {
	if selected == "" {
		return false
	}

	if k.Form == FormOptionLabel {
		return k.ExpectedIndex >= 0 && selected == strconv.Itoa(k.ExpectedIndex)
	}

	if k.Raw == selected {
		return true
	}

	idx, err := strconv.Atoi(selected)
	if err != nil || idx < 0 || idx >= len(options) {
		return false
	}

	return options[idx] == k.Raw
}

// OptionLabel returns the "Option N" label for a 0-based option index.
func OptionLabel(index int) string {
	return optionLabelPrefix + strconv.Itoa(index+1)
}

func parseOptionLabel(raw string) (int, bool) {
	rest, ok := strings.CutPrefix(raw, optionLabelPrefix)
	if !ok || rest == "" {
		return 0, false
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 || n > OptionsPerQuestion {
		return 0, false
	}
	return n, true
}
