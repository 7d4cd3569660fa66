package bot

import (
	"context"
	"fmt"
	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/hashicorp/go-hclog"
)

// Telegram connects a Bot to the Telegram Bot API using long polling.
type Telegram struct {
	api     *tgbot.Bot
	log     hclog.Logger
	handler func(ctx context.Context, u Update) error
}

// NewTelegram checks the token against the Bot API and returns an adapter
// that is ready to Run.
func NewTelegram(token string, log hclog.Logger) (*Telegram, error) {
	t := &Telegram{log: log}

	api, err := tgbot.New(token, tgbot.WithDefaultHandler(t.onUpdate))
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	t.api = api
	return t, nil
}

// Run polls for updates and passes them to h until ctx is cancelled.
func (t *Telegram) Run(ctx context.Context, h func(ctx context.Context, u Update) error) {
	t.handler = h
	t.log.Info("Polling for updates")
	t.api.Start(ctx)
	t.log.Info("Stopped polling")
}

func (t *Telegram) onUpdate(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	u, ok := convertUpdate(update)
	if !ok || t.handler == nil {
		return
	}
	if err := t.handler(ctx, u); err != nil {
		t.log.Error("Unable to handle update", "update", update.ID, "chat", u.ChatID, "error", err)
	}
}

// convertUpdate keeps the parts of an update the dispatcher understands.
func convertUpdate(update *models.Update) (Update, bool) {
	switch {
	case update.Message != nil:
		msg := update.Message
		u := Update{
			ChatID:    msg.Chat.ID,
			MessageID: msg.ID,
			Text:      msg.Text,
		}
		if msg.From != nil {
			u.From = convertUser(*msg.From)
		}
		if msg.WebAppData != nil {
			u.WebAppData = msg.WebAppData.Data
		}
		return u, true

	case update.CallbackQuery != nil:
		cq := update.CallbackQuery
		u := Update{
			From:         convertUser(cq.From),
			CallbackID:   cq.ID,
			CallbackData: cq.Data,
		}
		switch {
		case cq.Message.Message != nil:
			u.ChatID = cq.Message.Message.Chat.ID
			u.MessageID = cq.Message.Message.ID
		case cq.Message.InaccessibleMessage != nil:
			u.ChatID = cq.Message.InaccessibleMessage.Chat.ID
		default:
			u.ChatID = cq.From.ID
		}
		return u, true
	}
	return Update{}, false
}

func convertUser(u models.User) User {
	return User{ID: u.ID, FirstName: u.FirstName, Username: u.Username}
}

func (t *Telegram) Send(ctx context.Context, m Message) error {
	var parseMode models.ParseMode
	if m.HTML {
		parseMode = models.ParseModeHTML
	}
	markup := replyMarkup(m.Keyboard)

	if m.PhotoURL != "" {
		params := &tgbot.SendPhotoParams{
			ChatID:    m.ChatID,
			Photo:     &models.InputFileString{Data: m.PhotoURL},
			Caption:   m.Text,
			ParseMode: parseMode,
		}
		if markup != nil {
			params.ReplyMarkup = markup
		}
		_, err := t.api.SendPhoto(ctx, params)
		return err
	}

	params := &tgbot.SendMessageParams{
		ChatID:    m.ChatID,
		Text:      m.Text,
		ParseMode: parseMode,
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}
	_, err := t.api.SendMessage(ctx, params)
	return err
}

func (t *Telegram) AnswerCallback(ctx context.Context, callbackID string) error {
	_, err := t.api.AnswerCallbackQuery(ctx, &tgbot.AnswerCallbackQueryParams{CallbackQueryID: callbackID})
	return err
}

func (t *Telegram) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	_, err := t.api.DeleteMessage(ctx, &tgbot.DeleteMessageParams{ChatID: chatID, MessageID: messageID})
	return err
}

func replyMarkup(kb Keyboard) *models.InlineKeyboardMarkup {
	if len(kb) == 0 {
		return nil
	}
	rows := make([][]models.InlineKeyboardButton, 0, len(kb))
	for _, row := range kb {
		buttons := make([]models.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			button := models.InlineKeyboardButton{Text: b.Text, CallbackData: b.CallbackData}
			if b.WebAppURL != "" {
				button.WebApp = &models.WebAppInfo{URL: b.WebAppURL}
			}
			buttons = append(buttons, button)
		}
		rows = append(rows, buttons)
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}
