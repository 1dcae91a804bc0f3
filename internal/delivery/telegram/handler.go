package telegram

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// messageRef points at a message the bot can edit later.
type messageRef struct {
	chatID    int64
	messageID int
}

type Handler struct {
	bot            BotAPI
	logger         *zap.Logger
	userService    UserService
	tests          TestCatalog
	attempts       AttemptHistory
	sessions       SessionManager
	historyLimit   int
	mu             sync.Mutex
	questionScreen map[int64]messageRef // userID -> message showing the running session
}

func NewHandler(
	bot BotAPI,
	logger *zap.Logger,
	userService UserService,
	tests TestCatalog,
	attempts AttemptHistory,
	sessions SessionManager,
	historyLimit int,
) *Handler {
	return &Handler{
		bot:            bot,
		logger:         logger,
		userService:    userService,
		tests:          tests,
		attempts:       attempts,
		sessions:       sessions,
		historyLimit:   historyLimit,
		questionScreen: make(map[int64]messageRef),
	}
}

func (h *Handler) Run(ctx context.Context) error {
	h.logger.Info("telegram handler started")
	defer h.logger.Info("telegram handler stopped")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := h.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			h.handleUpdate(ctx, update)
		}
	}
}

func (h *Handler) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		h.logger.Debug("callback received",
			zap.Int64("user_id", update.CallbackQuery.From.ID),
			zap.String("data", update.CallbackQuery.Data),
		)
		h.handleCallback(ctx, update.CallbackQuery)
		return
	}

	if update.Message == nil || update.Message.From == nil {
		h.logger.Debug("update without message and callback")
		return
	}

	h.logger.Debug("update received",
		zap.Int64("chat_id", update.Message.Chat.ID),
		zap.String("text", update.Message.Text),
	)

	from := update.Message.From
	chatID := update.Message.Chat.ID

	isNew, err := h.userService.EnsureUser(ctx, from.ID, chatID, from.FirstName, from.UserName)
	if err != nil {
		h.logger.Error("failed to ensure user",
			zap.Int64("user_id", from.ID),
			zap.Error(err),
		)
	} else if isNew {
		h.logger.Info("new user", zap.Int64("user_id", from.ID))
	}

	if !update.Message.IsCommand() {
		_ = h.send(newPlainMessage(chatID, msgUnknownCommand))
		return
	}

	switch update.Message.Command() {
	case "start":
		_ = h.send(newMessage(chatID, bold(msgWelcomeTitle)+"\n\n"+md(msgWelcomeBody)))

	case "help":
		_ = h.send(newMessage(chatID, md(msgHelp)))

	case "tests":
		_ = h.withErrorHandling(h.testsHandler(0))(ctx, chatID)

	case "history":
		_ = h.withErrorHandling(h.historyHandler(from.ID, 0))(ctx, chatID)

	default:
		_ = h.send(newPlainMessage(chatID, msgUnknownCommand))
	}
}

func (h *Handler) sendError(chatID int64, text string) {
	_ = h.send(newPlainMessage(chatID, text))
}

func (h *Handler) send(c tgbotapi.Chattable) error {
	if _, err := h.bot.Send(c); err != nil {
		h.logger.Error("failed to send telegram message",
			zap.Error(err),
		)
		return err
	}
	return nil
}

// answerCallback removes the button "clock", optionally showing a toast.
func (h *Handler) answerCallback(id, text string) {
	if _, err := h.bot.Request(tgbotapi.NewCallback(id, text)); err != nil {
		h.logger.Debug("callback answer error", zap.Error(err))
	}
}

func (h *Handler) rememberQuestionScreen(userID int64, ref messageRef) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.questionScreen[userID] = ref
}

func (h *Handler) takeQuestionScreen(userID int64) (messageRef, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ref, ok := h.questionScreen[userID]
	delete(h.questionScreen, userID)
	return ref, ok
}
