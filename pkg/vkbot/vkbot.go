// Package vkbot adapts the VK Teams bot API to transport.Bot.
package vkbot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PFEPLTechHub/document-bot/internal/transport"
	botgolang "github.com/mail-ru-im/bot-golang"
	log "github.com/sirupsen/logrus"
)

type Bot struct {
	bot    *botgolang.Bot
	token  string
	apiURL string
	client *http.Client
}

func New(token, apiURL string, debug bool) (*Bot, error) {
	bot, err := botgolang.NewBot(token, botgolang.BotApiURL(apiURL), botgolang.BotDebug(debug))
	if err != nil {
		return nil, fmt.Errorf("connect to bot: %w", err)
	}
	return &Bot{
		bot:    bot,
		token:  token,
		apiURL: strings.TrimRight(apiURL, "/"),
		client: &http.Client{},
	}, nil
}

func (b *Bot) Updates(ctx context.Context) <-chan transport.Event {
	out := make(chan transport.Event)
	updates := b.bot.GetUpdatesChannel(ctx)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				event, ok := b.convert(ctx, update.Type, &update.Payload)
				if !ok {
					continue
				}
				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}

func (b *Bot) convert(ctx context.Context, t botgolang.EventType, p *botgolang.EventPayload) (transport.Event, bool) {
	event := transport.Event{
		UserID:      p.From.ID,
		Username:    p.From.ID,
		DisplayName: strings.TrimSpace(p.From.FirstName + " " + p.From.LastName),
	}

	switch t {
	case botgolang.CALLBACK_QUERY:
		event.Callback = p.CallbackQuery().CallbackData
		return event, event.Callback != ""
	case botgolang.NEW_MESSAGE:
		event.Text = strings.Trim(strings.TrimSpace(p.Text), "\u00A0")
		for _, pts := range p.Parts {
			if pts.Type != botgolang.FILE {
				continue
			}
			ref, err := b.fileRef(ctx, pts.Payload.FileID)
			if err != nil {
				log.Errorf("resolve file %s from %s: %v", pts.Payload.FileID, p.From.ID, err)
				ref = &transport.FileRef{ID: pts.Payload.FileID}
			}
			event.File = ref
			// the message text travels with the file as its caption
			event.Caption, event.Text = event.Text, ""
			break
		}
		return event, true
	default:
		return event, false
	}
}

func (b *Bot) Send(_ context.Context, userID, text string, keyboard transport.Keyboard) error {
	message := b.bot.NewMessage(userID)
	message.Text = text

	if len(keyboard) > 0 {
		kb := botgolang.NewKeyboard()
		for _, row := range keyboard {
			buttons := make([]botgolang.Button, 0, len(row))
			for _, btn := range row {
				buttons = append(buttons, button(btn))
			}
			kb.AddRow(buttons...)
		}
		message.AttachInlineKeyboard(kb)
	}

	return message.Send()
}

func button(btn transport.Button) botgolang.Button {
	if btn.URL != "" {
		return botgolang.NewURLButton(btn.Text, btn.URL)
	}
	b := botgolang.NewCallbackButton(btn.Text, btn.Data)
	switch btn.Style {
	case transport.StylePrimary:
		b = b.WithStyle(botgolang.ButtonPrimary)
	case transport.StyleAttention:
		b = b.WithStyle(botgolang.ButtonAttention)
	}
	return b
}

func (b *Bot) Open(ctx context.Context, file transport.FileRef) (io.ReadCloser, error) {
	info, err := b.fileInfo(ctx, file.ID)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, info.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", file.ID, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("download %s: status %d", file.ID, resp.StatusCode)
	}
	return resp.Body, nil
}

func (b *Bot) fileRef(ctx context.Context, fileID string) (*transport.FileRef, error) {
	info, err := b.fileInfo(ctx, fileID)
	if err != nil {
		return nil, err
	}
	return &transport.FileRef{
		ID:      fileID,
		Name:    info.Filename,
		Size:    info.Size,
		IsPhoto: info.Type == "image",
	}, nil
}
