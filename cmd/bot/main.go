package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	config "github.com/wahebtalal/gallery-dl-telegram-bot/configs"
	"github.com/wahebtalal/gallery-dl-telegram-bot/internal/bot"
	"github.com/wahebtalal/gallery-dl-telegram-bot/internal/extractor"
	"github.com/wahebtalal/gallery-dl-telegram-bot/internal/service"
	"github.com/wahebtalal/gallery-dl-telegram-bot/internal/telegram"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()
	if cfg.TelegramBotToken == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN is required")
	}

	registry := extractor.NewRegistry()
	registry.Register(extractor.NewGalleryDL(cfg.GalleryDLBinary, cfg.SingleShotTimeout))

	tgClient := telegram.NewClient(cfg.TelegramAPIBase, cfg.TelegramBotToken)
	single := service.NewSingleShotService(registry, tgClient, "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	log.Println("Bot started...")
	bot.New(tgClient, single, cfg.AllowedUserID).Run(ctx)
}
