package telegram

import (
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Callback action constants.
const (
	actionTests   = "tests"  // list tests
	actionTest    = "test"   // test card
	actionStart   = "start"  // start or resume a session
	actionAnswer  = "ans"    // select an option
	actionGoTo    = "nav"    // move to a question
	actionSubmit  = "submit" // submit the session
	actionExit    = "exit"   // leave the session, keep the clock running
	actionHistory = "history"
)

var errBadCallback = errors.New("malformed callback data")

// callbackData represents structured callback data.
type callbackData struct {
	Action string
	Params []string
	Raw    string
}

// encode creates callback string.
func (cd callbackData) encode() string {
	if len(cd.Params) == 0 {
		return cd.Action
	}
	return cd.Action + ":" + strings.Join(cd.Params, ":")
}

// decodeCallback parses callback data string.
func decodeCallback(data string) callbackData {
	parts := strings.Split(data, ":")
	return callbackData{
		Action: parts[0],
		Params: parts[1:],
		Raw:    data,
	}
}

// testID parses the test ID carried as the first parameter.
func (cd callbackData) testID() (uuid.UUID, error) {
	if len(cd.Params) == 0 {
		return uuid.Nil, errBadCallback
	}
	id, err := uuid.Parse(cd.Params[0])
	if err != nil {
		return uuid.Nil, errBadCallback
	}
	return id, nil
}

// intParam parses the integer parameter at position i.
func (cd callbackData) intParam(i int) (int, error) {
	if i >= len(cd.Params) {
		return 0, errBadCallback
	}
	n, err := strconv.Atoi(cd.Params[i])
	if err != nil {
		return 0, errBadCallback
	}
	return n, nil
}

func buildTestsCallback() string {
	return actionTests
}

func buildHistoryCallback() string {
	return actionHistory
}

func buildTestCallback(testID uuid.UUID) string {
	return callbackData{Action: actionTest, Params: []string{testID.String()}}.encode()
}

func buildStartCallback(testID uuid.UUID) string {
	return callbackData{Action: actionStart, Params: []string{testID.String()}}.encode()
}

// buildAnswerCallback builds callback data for choosing option of the question at index.
func buildAnswerCallback(testID uuid.UUID, index, option int) string {
	return callbackData{
		Action: actionAnswer,
		Params: []string{testID.String(), strconv.Itoa(index), strconv.Itoa(option)},
	}.encode()
}

func buildGoToCallback(testID uuid.UUID, index int) string {
	return callbackData{
		Action: actionGoTo,
		Params: []string{testID.String(), strconv.Itoa(index)},
	}.encode()
}

func buildSubmitCallback(testID uuid.UUID) string {
	return callbackData{Action: actionSubmit, Params: []string{testID.String()}}.encode()
}

func buildExitCallback(testID uuid.UUID) string {
	return callbackData{Action: actionExit, Params: []string{testID.String()}}.encode()
}
