package main

import (
	"context"
	"fmt"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/wellcomeai/tgbotsaas/internal/logutil"
	"github.com/wellcomeai/tgbotsaas/internal/publisher"
	"github.com/wellcomeai/tgbotsaas/internal/telegram"
	"github.com/wellcomeai/tgbotsaas/rewrite"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the rewrite bot: long-poll updates, rewrite posts, republish",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logutil.LoggerFromViper()
			if err != nil {
				return err
			}
			rt, err := runtimeFromViper(logger)
			if err != nil {
				return err
			}

			token := strings.TrimSpace(viper.GetString("telegram.token"))
			if token == "" {
				return fmt.Errorf("telegram.token is required")
			}
			bot, err := tgbotapi.NewBotAPI(token)
			if err != nil {
				return fmt.Errorf("create telegram bot: %w", err)
			}
			logger.Info("telegram_authorized", "username", bot.Self.UserName)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			pub := publisher.NewTelegram(bot, logger)
			pub.ParseMode = viper.GetString("telegram.parse_mode")
			loop := &serveLoop{
				runtime:   rt,
				botID:     telegram.BotIDFromToken(token),
				ownerID:   viper.GetInt64("telegram.owner_id"),
				publisher: pub,
			}
			loop.groups = telegram.NewGroupCollector(
				viper.GetDuration("telegram.group_flush_window"),
				func(post telegram.GroupPost) { loop.handleGroup(ctx, post) },
			)

			updates := bot.GetUpdatesChan(tgbotapi.UpdateConfig{Timeout: 30})
			for {
				select {
				case <-ctx.Done():
					bot.StopReceivingUpdates()
					return nil
				case update := <-updates:
					loop.handleUpdate(ctx, bot, update)
				}
			}
		},
	}

	cmd.Flags().String("telegram-token", "", "Bot token (or TGBOTSAAS_TELEGRAM_TOKEN).")
	cmd.Flags().Int64("owner-id", 0, "Telegram user id allowed to drive the bot.")
	_ = viper.BindPFlag("telegram.token", cmd.Flags().Lookup("telegram-token"))
	_ = viper.BindPFlag("telegram.owner_id", cmd.Flags().Lookup("owner-id"))
	return cmd
}

type serveLoop struct {
	runtime   *runtime
	botID     string
	ownerID   int64
	publisher rewrite.Publisher
	groups    *telegram.GroupCollector
}

func (l *serveLoop) handleUpdate(ctx context.Context, bot *tgbotapi.BotAPI, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	if l.ownerID != 0 && msg.From.ID != l.ownerID {
		return
	}

	// A forwarded channel post binds that channel for publishing.
	if binding, ok := telegram.BindingFromForward(l.botID, msg); ok {
		if err := l.runtime.Service.BindChannel(ctx, binding); err != nil {
			l.runtime.Logger.Error("bind_channel_failed", "bot_id", l.botID, "error", err.Error())
			l.reply(bot, msg.Chat.ID, "Could not bind the channel, try again.")
			return
		}
		l.reply(bot, msg.Chat.ID, "Channel bound: "+binding.ChatTitle)
		return
	}

	if l.groups.Add(msg) {
		return
	}

	text := telegram.TextOf(msg)
	if strings.TrimSpace(text) == "" {
		return
	}
	links := rewrite.ExtractLinks(text, telegram.EntitySpans(msg))
	l.process(ctx, bot, msg.Chat.ID, rewrite.Request{
		BotID:  l.botID,
		Text:   text,
		Media:  telegram.MediaOf(msg),
		Links:  &links,
		UserID: msg.From.ID,
	})
}

func (l *serveLoop) handleGroup(ctx context.Context, post telegram.GroupPost) {
	if strings.TrimSpace(post.Text) == "" {
		return
	}
	links := rewrite.ExtractLinks(post.Text, post.Spans)
	l.process(ctx, nil, 0, rewrite.Request{
		BotID:  l.botID,
		Text:   post.Text,
		Media:  post.Media,
		Links:  &links,
		UserID: l.ownerID,
	})
}

func (l *serveLoop) process(ctx context.Context, bot *tgbotapi.BotAPI, replyChat int64, req rewrite.Request) {
	result, err := l.runtime.Service.Rewrite(ctx, req)
	if err != nil {
		l.runtime.Logger.Warn("rewrite_failed", "bot_id", req.BotID, "error", err.Error())
		if bot != nil && replyChat != 0 {
			l.reply(bot, replyChat, userMessage(err))
		}
		return
	}
	if err := l.runtime.Service.SaveResult(ctx, req.BotID, result); err != nil {
		l.runtime.Logger.Warn("save_result_failed", "bot_id", req.BotID, "error", err.Error())
	}

	binding, ok, err := l.runtime.Service.ActiveBinding(ctx, req.BotID)
	if err != nil || !ok {
		l.runtime.Logger.Warn("no_active_binding", "bot_id", req.BotID)
		return
	}
	if _, err := l.publisher.Publish(ctx, binding.ChatID, result.Content.RewrittenText, result.Media); err != nil {
		l.runtime.Logger.Error("publish_failed", "bot_id", req.BotID, "chat_id", binding.ChatID, "error", err.Error())
	}
}

func (l *serveLoop) reply(bot *tgbotapi.BotAPI, chatID int64, text string) {
	if _, err := bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		l.runtime.Logger.Warn("reply_failed", "chat_id", chatID, "error", err.Error())
	}
}

// userMessage renders a pipeline error for the chat; internal failures
// stay generic.
func userMessage(err error) string {
	re, ok := rewrite.AsError(err)
	if !ok {
		return "Rewrite failed, try again later."
	}
	switch re.Code {
	case rewrite.CodeTokenLimitExceeded:
		return "Token limit reached: " + strconv.Itoa(re.Used) + " of " + strconv.Itoa(re.Limit) + " used."
	case rewrite.CodeNoAgentConfigured:
		return "No rewrite agent configured. Create one with the agent command."
	case rewrite.CodeAgentNotLinked:
		return "The rewrite agent is not linked yet, recreate it."
	default:
		if re.Message != "" {
			return re.Message
		}
		return "Rewrite failed, try again later."
	}
}
