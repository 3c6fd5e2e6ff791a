package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// menuCommands are shown in the Telegram command menu
func menuCommands() []tgbotapi.BotCommand {
	return []tgbotapi.BotCommand{
		{Command: "books", Description: "Books you are reading"},
		{Command: "new_book", Description: "Add a book"},
		{Command: "trash", Description: "Trashed books"},
		{Command: "help", Description: "How to use the bookshelf"},
	}
}

// registerCommands publishes the command menu. Failure only costs the menu.
func (b *Bot) registerCommands() {
	if _, err := b.api.Request(tgbotapi.NewSetMyCommands(menuCommands()...)); err != nil {
		b.logger.Warn("Failed to register bot commands", zap.Error(err))
	}
}

// Start polls Telegram for updates until ctx is done
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("Starting bot in polling mode", zap.String("username", b.api.Self.UserName))

	// A webhook left over from a previous deployment blocks getUpdates
	if _, err := b.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		b.logger.Warn("Failed to delete webhook", zap.Error(err))
	}
	b.registerCommands()

	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 60
	updates := b.api.GetUpdatesChan(cfg)

	go func() {
		<-ctx.Done()
		b.logger.Info("Stopping update polling")
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		b.HandleWebhookUpdate(update)
	}
	return nil
}

// StartWebhook points Telegram at webhookURL + /telegram-webhook
func (b *Bot) StartWebhook(webhookURL string) error {
	endpoint := webhookURL + "/telegram-webhook"

	webhookConfig, err := tgbotapi.NewWebhook(endpoint)
	if err != nil {
		return err
	}
	webhookConfig.MaxConnections = 40

	if _, err := b.api.Request(webhookConfig); err != nil {
		b.logger.Error("Failed to set webhook", zap.Error(err), zap.String("endpoint", endpoint))
		return err
	}
	b.registerCommands()

	if info, err := b.api.GetWebhookInfo(); err != nil {
		b.logger.Warn("Failed to get webhook info", zap.Error(err))
	} else {
		b.logger.Info("Webhook set",
			zap.String("url", info.URL),
			zap.Int("pending_updates", info.PendingUpdateCount),
			zap.String("last_error", info.LastErrorMessage),
		)
	}
	return nil
}

// authorized reports whether from may use the bookshelf, logging refusals
func (b *Bot) authorized(from *tgbotapi.User, action string) bool {
	if from == nil {
		return false
	}
	if b.allowedUsers[from.ID] {
		return true
	}
	b.logger.Warn("Unauthorized access attempt",
		zap.Int64("user_id", from.ID),
		zap.String("username", from.UserName),
		zap.String("action", action),
	)
	return false
}

// HandleWebhookUpdate dispatches one update, from the webhook or from polling
func (b *Bot) HandleWebhookUpdate(update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		if !b.authorized(update.Message.From, update.Message.Text) {
			if update.Message.From != nil {
				b.reply(update.Message.Chat.ID, "Sorry, you are not authorized to use this bot.")
			}
			return
		}
		b.handleMessage(update.Message)

	case update.CallbackQuery != nil:
		if !b.authorized(update.CallbackQuery.From, update.CallbackQuery.Data) {
			return
		}
		b.handleCallbackQuery(update.CallbackQuery)
	}
}
