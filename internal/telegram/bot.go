package telegram

import (
	"context"
	"encoding/json"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/zeromicro/go-zero/core/logx"
)

type Bot struct {
	api *tgbotapi.BotAPI
	h   *Handlers
}

// NewBot connects to the bot API and wires the handlers with deps.
func NewBot(token string, debug bool, deps Deps) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	api.Debug = debug
	logx.Infof("telegram: authorized as @%s", api.Self.UserName)
	return &Bot{api: api, h: NewHandlers(api, deps)}, nil
}

// Handlers exposes the command handlers, e.g. for scheduled digests.
func (b *Bot) Handlers() *Handlers { return b.h }

// SetWebhook registers webhookURL with Telegram.
func (b *Bot) SetWebhook(webhookURL string) error {
	webhook, err := tgbotapi.NewWebhook(webhookURL)
	if err != nil {
		return err
	}
	if _, err := b.api.Request(webhook); err != nil {
		return err
	}
	logx.Infof("telegram: webhook set to %s", webhookURL)
	return nil
}

// Webhook HTTP handler (registered at /telegram/webhook)
func (b *Bot) WebhookHandler(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "bad update", http.StatusBadRequest)
		return
	}
	b.dispatch(update)
	w.WriteHeader(http.StatusOK)
}

// Poll receives updates by long polling until ctx is done. Used when no webhook is configured.
func (b *Bot) Poll(ctx context.Context) {
	if _, err := b.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		logx.Errorf("telegram: delete webhook: %v", err)
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)
	logx.Info("telegram: long polling started")
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			logx.Info("telegram: long polling stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.dispatch(update)
		}
	}
}

func (b *Bot) dispatch(update tgbotapi.Update) {
	if update.Message == nil {
		logx.Info("telegram: non-message update received")
		return
	}
	var from int64
	if update.Message.From != nil {
		from = update.Message.From.ID
	}
	logx.Infof("telegram: chat_id=%d from=%d text=%q", update.Message.Chat.ID, from, update.Message.Text)
	go b.h.HandleMessage(update.Message)
}
