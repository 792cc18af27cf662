package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/HARIOM-JHA01/addmy-partner/config"
	"github.com/HARIOM-JHA01/addmy-partner/logging"
	"github.com/HARIOM-JHA01/addmy-partner/telegram"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	if err := logging.InitLogger(cfg.IsRelease(), cfg.LogLevel); err != nil {
		panic(err)
	}
	defer logging.Logger.Sync()
	log := logging.Logger.Named("bot")

	if cfg.TelegramBotToken == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN is required")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		log.Fatal("bot init", zap.Error(err))
	}
	bot.Debug = !cfg.IsRelease() && cfg.LogLevel == "debug"

	launcher := telegram.NewLauncher(cfg.WebAppURL)
	if params, err := launcher.MenuButtonParams(); err == nil {
		if _, err := bot.MakeRequest("setChatMenuButton", params); err != nil {
			log.Warn("could not set menu button", zap.Error(err))
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := bot.GetUpdatesChan(u)

	log.Info("bot started", zap.String("username", bot.Self.UserName), zap.String("webapp", cfg.WebAppURL))

	for {
		select {
		case <-ctx.Done():
			bot.StopReceivingUpdates()
			log.Info("bot stopped")
			return
		case update := <-updates:
			reply, ok := launcher.Reply(update.Message)
			if !ok {
				continue
			}
			if _, err := bot.Send(reply); err != nil {
				log.Warn("send reply", zap.Int64("chat", reply.ChatID), zap.Error(err))
			}
		}
	}
}
