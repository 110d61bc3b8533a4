package bot

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"gastos/internal/ledger"
	"gastos/internal/log"
	"gastos/internal/session"
)

// telegramTransport adapts the Telegram Bot API to the Transport interface.
type telegramTransport struct {
	api *tgbotapi.BotAPI
}

var _ Transport = (*telegramTransport)(nil)

func (t *telegramTransport) SendText(chatID int64, text string) error {
	_, err := t.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

func (t *telegramTransport) SendChoices(chatID int64, text string, choices []Choice) error {
	// One button per row, matching the chooser layout users expect.
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(choices))
	for _, ch := range choices {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(ch.Label, ch.Data)))
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	_, err := t.api.Send(msg)
	return err
}

func (t *telegramTransport) EditText(chatID int64, messageID int, text string) error {
	_, err := t.api.Send(tgbotapi.NewEditMessageText(chatID, messageID, text))
	return err
}

func (t *telegramTransport) AnswerCallback(callbackID string) error {
	_, err := t.api.Request(tgbotapi.NewCallback(callbackID, ""))
	return err
}

func (t *telegramTransport) AlertCallback(callbackID, text string) error {
	_, err := t.api.Request(tgbotapi.NewCallbackWithAlert(callbackID, text))
	return err
}

// Bot ties the controller to Telegram long polling.
type Bot struct {
	api    *tgbotapi.BotAPI
	ctrl   *Controller
	logger *log.Logger
}

func NewBot(token string, owner int64, sessions *session.Store, appender ledger.Appender, logger *log.Logger, writeTimeout time.Duration) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}

	tr := &telegramTransport{api: api}
	return &Bot{
		api:    api,
		ctrl:   NewController(owner, sessions, appender, tr, logger, writeTimeout),
		logger: logger.WithComponent(log.ComponentBot),
	}, nil
}

// Username returns the authenticated bot account name.
func (b *Bot) Username() string {
	return b.api.Self.UserName
}

// Run consumes updates until ctx is cancelled. Each update is handled on
// its own goroutine so a blocking ledger write never delays delivery of
// unrelated events.
func (b *Bot) Run(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := b.api.GetUpdatesChan(cfg)

	b.logger.Info("Polling for updates", "bot", b.Username())

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			go b.dispatch(ctx, upd)
		}
	}
}

func (b *Bot) dispatch(ctx context.Context, upd tgbotapi.Update) {
	switch {
	case upd.CallbackQuery != nil:
		cq := upd.CallbackQuery
		if cq.From == nil || cq.Message == nil {
			return
		}
		b.ctrl.HandleCallback(ctx, Callback{
			UserID:    cq.From.ID,
			ChatID:    cq.Message.Chat.ID,
			MessageID: cq.Message.MessageID,
			ID:        cq.ID,
			Data:      cq.Data,
		})
	case upd.Message != nil && upd.Message.From != nil && upd.Message.IsCommand():
		b.ctrl.HandleCommand(ctx, Command{
			UserID: upd.Message.From.ID,
			ChatID: upd.Message.Chat.ID,
			Name:   upd.Message.Command(),
		})
	case upd.Message != nil && upd.Message.From != nil && upd.Message.Text != "":
		b.ctrl.HandleText(ctx, TextMessage{
			UserID: upd.Message.From.ID,
			ChatID: upd.Message.Chat.ID,
			Text:   upd.Message.Text,
		})
	}
}
