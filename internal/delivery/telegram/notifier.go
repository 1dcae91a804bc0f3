package telegram

import (
	"context"

	"go.uber.org/zap"

	"github.com/aliskhannn/testroom/internal/domain/entities"
)

// NotifyAutoSubmitted shows the result of a session submitted by its timer,
// replacing the question screen when the bot still knows it.
func (h *Handler) NotifyAutoSubmitted(_ context.Context, snap entities.SessionSnapshot) {
	text := md(msgTimeIsUp) + "\n\n" + renderResult(snap)
	kb := buildResultKeyboard()

	if ref, ok := h.takeQuestionScreen(snap.UserID); ok {
		if err := h.reply(ref.chatID, ref.messageID, text, &kb); err == nil {
			return
		}
	}

	// Private chats share the user's ID.
	if err := h.reply(snap.UserID, 0, text, &kb); err != nil {
		h.logger.Warn("failed to deliver auto-submitted result",
			zap.Int64("user_id", snap.UserID),
			zap.String("test_id", snap.TestID.String()),
		)
	}
}

// NotifySubmitFailed tells the user the timed-out session could not be saved
// and offers to submit again.
func (h *Handler) NotifySubmitFailed(_ context.Context, snap entities.SessionSnapshot, _ error) {
	kb := buildSubmitRetryKeyboard(snap)

	chatID := snap.UserID
	if ref, ok := h.takeQuestionScreen(snap.UserID); ok {
		chatID = ref.chatID
		h.rememberQuestionScreen(snap.UserID, ref)
	}

	_ = h.reply(chatID, 0, md(msgAutoSubmitFailed), &kb)
}
