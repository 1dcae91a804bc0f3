package telegram

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/aliskhannn/testroom/internal/domain/entities"
	"github.com/aliskhannn/testroom/internal/service"
)

// callbackFunc handles one decoded callback and returns the toast to show.
type callbackFunc func(ctx context.Context, cb *tgbotapi.CallbackQuery, data callbackData) (string, error)

func (h *Handler) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		h.answerCallback(cb.ID, "")
		return
	}

	data := decodeCallback(cb.Data)

	var fn callbackFunc
	switch data.Action {
	case actionTests:
		fn = h.testsCallback
	case actionHistory:
		fn = h.historyCallback
	case actionTest:
		fn = h.testCardCallback
	case actionStart:
		fn = h.startCallback
	case actionAnswer:
		fn = h.answerCallbackQuery
	case actionGoTo:
		fn = h.goToCallback
	case actionSubmit:
		fn = h.submitCallback
	case actionExit:
		fn = h.exitCallback
	default:
		h.logger.Warn("unknown callback", zap.String("data", cb.Data))
		h.answerCallback(cb.ID, "")
		return
	}

	toast, err := fn(ctx, cb, data)
	if err != nil {
		h.logger.Error("handle callback",
			zap.Int64("user_id", cb.From.ID),
			zap.String("data", cb.Data),
			zap.Error(err),
		)
		if toast == "" {
			toast = msgInternalError
		}
	}

	h.answerCallback(cb.ID, toast)
}

func (h *Handler) testsCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, _ callbackData) (string, error) {
	return "", h.testsHandler(cb.Message.MessageID)(ctx, cb.Message.Chat.ID)
}

func (h *Handler) historyCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, _ callbackData) (string, error) {
	return "", h.historyHandler(cb.From.ID, cb.Message.MessageID)(ctx, cb.Message.Chat.ID)
}

func (h *Handler) testCardCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, data callbackData) (string, error) {
	testID, err := data.testID()
	if err != nil {
		return "", err
	}

	test, err := h.tests.Get(ctx, testID)
	if err != nil {
		return "", fmt.Errorf("get test: %w", err)
	}

	kb := buildTestCardKeyboard(*test)
	return "", h.reply(cb.Message.Chat.ID, cb.Message.MessageID, renderTestCard(*test), &kb)
}

func (h *Handler) startCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, data callbackData) (string, error) {
	testID, err := data.testID()
	if err != nil {
		return "", err
	}

	snap, err := h.sessions.Start(ctx, cb.From.ID, testID)
	if err != nil && snap.State != entities.SessionError {
		return "", fmt.Errorf("start session: %w", err)
	}
	if err != nil {
		h.logger.Warn("session failed to load",
			zap.Int64("user_id", cb.From.ID),
			zap.String("test_id", testID.String()),
			zap.Error(err),
		)
	}

	return "", h.showSession(cb, snap)
}

func (h *Handler) answerCallbackQuery(ctx context.Context, cb *tgbotapi.CallbackQuery, data callbackData) (string, error) {
	s, err := h.activeSession(cb.From.ID, data)
	if err != nil {
		return msgSessionExpired, nil
	}

	index, err := data.intParam(1)
	if err != nil {
		return "", err
	}
	option, err := data.intParam(2)
	if err != nil {
		return "", err
	}

	snap := s.Snapshot()
	if index < 0 || index >= len(snap.Questions) {
		return "", errBadCallback
	}

	s.GoTo(index)
	if err := s.SelectAnswer(snap.Questions[index].ID, option); err != nil {
		switch {
		case errors.Is(err, service.ErrSubmitInFlight):
			return msgSubmitInFlight, nil
		case errors.Is(err, service.ErrSessionNotActive):
			return msgSessionExpired, nil
		case errors.Is(err, service.ErrAnswersLocked):
			return msgAnswersLocked, nil
		case errors.Is(err, service.ErrTimeUp):
			return msgTimeUpSubmit, nil
		default:
			return "", err
		}
	}

	return msgAnswerSaved, h.showSession(cb, s.Snapshot())
}

func (h *Handler) goToCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, data callbackData) (string, error) {
	s, err := h.activeSession(cb.From.ID, data)
	if err != nil {
		return msgSessionExpired, nil
	}

	index, err := data.intParam(1)
	if err != nil {
		return "", err
	}
	s.GoTo(index)

	return "", h.showSession(cb, s.Snapshot())
}

func (h *Handler) submitCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, data callbackData) (string, error) {
	if _, err := h.activeSession(cb.From.ID, data); err != nil {
		return msgSessionExpired, nil
	}

	snap, err := h.sessions.Submit(ctx, cb.From.ID)
	switch {
	case err == nil:
		h.takeQuestionScreen(cb.From.ID)
		kb := buildResultKeyboard()
		return "", h.reply(cb.Message.Chat.ID, cb.Message.MessageID, renderResult(snap), &kb)

	case errors.Is(err, service.ErrSubmitInFlight):
		return msgSubmitInFlight, nil

	case errors.Is(err, service.ErrNoActiveSession), errors.Is(err, service.ErrSessionNotActive):
		return msgSessionExpired, nil

	default:
		h.logger.Error("submission failed",
			zap.Int64("user_id", cb.From.ID),
			zap.Error(err),
		)
		kb := buildSubmitRetryKeyboard(snap)
		return "", h.reply(cb.Message.Chat.ID, cb.Message.MessageID, md(msgSubmitFailed), &kb)
	}
}

func (h *Handler) exitCallback(_ context.Context, cb *tgbotapi.CallbackQuery, data callbackData) (string, error) {
	if _, err := h.activeSession(cb.From.ID, data); err == nil {
		h.sessions.Abandon(cb.From.ID)
	}
	h.takeQuestionScreen(cb.From.ID)

	kb := buildResultKeyboard()
	return "", h.reply(cb.Message.Chat.ID, cb.Message.MessageID, md(msgExited), &kb)
}

// activeSession returns the live session the callback's test ID refers to.
func (h *Handler) activeSession(userID int64, data callbackData) (*service.Session, error) {
	testID, err := data.testID()
	if err != nil {
		return nil, err
	}
	return h.sessions.Active(userID, testID)
}

// showSession renders a session snapshot into the callback's message.
func (h *Handler) showSession(cb *tgbotapi.CallbackQuery, snap entities.SessionSnapshot) error {
	chatID, messageID := cb.Message.Chat.ID, cb.Message.MessageID

	switch snap.State {
	case entities.SessionInProgress:
		h.rememberQuestionScreen(cb.From.ID, messageRef{chatID: chatID, messageID: messageID})
		kb := buildQuestionKeyboard(snap)
		return h.reply(chatID, messageID, renderQuestion(snap), &kb)

	case entities.SessionCompleted:
		kb := buildResultKeyboard()
		return h.reply(chatID, messageID, renderResult(snap), &kb)

	default:
		kb := buildResultKeyboard()
		return h.reply(chatID, messageID, renderSessionEnd(snap), &kb)
	}
}
