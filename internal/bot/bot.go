// Package bot is the interactive surface: a getUpdates long-poll loop that
// feeds free-form text into the single-shot fetch-and-relay flow.
package bot

import (
	"context"
	"log"
	"strconv"

	"github.com/wahebtalal/gallery-dl-telegram-bot/internal/service"
	"github.com/wahebtalal/gallery-dl-telegram-bot/internal/telegram"
)

const (
	startReply = "Hi! Send a supported URL and I will fetch it with gallery-dl and relay the files back."
	helpReply  = "Commands:\n/start - start the bot\n/help - this help\n\nAnything else is treated as a URL to fetch."
	denyReply  = "You are not allowed to use this bot."
)

type Bot struct {
	tg            *telegram.Client
	single        *service.SingleShotService
	allowedUserID int64
}

func New(tg *telegram.Client, single *service.SingleShotService, allowedUserID int64) *Bot {
	return &Bot{
		tg:            tg,
		single:        single,
		allowedUserID: allowedUserID,
	}
}

// Run long-polls until the context is cancelled. Updates are handled one
// at a time; the single-shot flow blocks until it has replied.
func (b *Bot) Run(ctx context.Context) {
	log.Println("bot: polling for updates")

	var offset int64
	for {
		if ctx.Err() != nil {
			log.Println("bot: shutting down")
			return
		}

		updates, err := b.tg.GetUpdates(ctx, offset, 30)
		if err != nil {
			if ctx.Err() != nil {
				log.Println("bot: shutting down")
				return
			}
			log.Printf("bot: getUpdates: %v", err)
			continue
		}

		for _, u := range updates {
			offset = u.UpdateID + 1
			b.handleUpdate(ctx, u)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, u telegram.Update) {
	if u.Message == nil || u.Message.Text == "" {
		return
	}
	chatID := strconv.FormatInt(u.Message.Chat.ID, 10)
	reply := func(text string) {
		if err := b.tg.SendMessage(ctx, chatID, text); err != nil {
			log.Printf("bot: reply: %v", err)
		}
	}

	if b.allowedUserID != 0 && (u.Message.From == nil || u.Message.From.ID != b.allowedUserID) {
		reply(denyReply)
		return
	}

	switch u.Message.Text {
	case "/start":
		reply(startReply)
	case "/help":
		reply(helpReply)
	default:
		b.single.Run(ctx, u.Message.Text, chatID, reply)
	}
}
