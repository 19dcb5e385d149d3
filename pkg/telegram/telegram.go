// Package telegram adapts the Telegram Bot API to transport.Bot.
package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/PFEPLTechHub/document-bot/internal/transport"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	log "github.com/sirupsen/logrus"
)

const photoName = "photo.jpg"

type Bot struct {
	bot    *bot.Bot
	events chan transport.Event
	client *http.Client
}

func New(token string) (*Bot, error) {
	b := &Bot{
		events: make(chan transport.Event, 64),
		client: &http.Client{},
	}

	tg, err := bot.New(token, bot.WithDefaultHandler(b.handle))
	if err != nil {
		return nil, fmt.Errorf("connect to telegram: %w", err)
	}
	b.bot = tg
	return b, nil
}

// Updates starts long polling; the channel is never closed, polling stops with ctx.
func (b *Bot) Updates(ctx context.Context) <-chan transport.Event {
	go b.bot.Start(ctx)
	return b.events
}

func (b *Bot) handle(ctx context.Context, tg *bot.Bot, update *models.Update) {
	event, ok := convert(update)
	if !ok {
		return
	}

	if update.CallbackQuery != nil {
		_, err := tg.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
			CallbackQueryID: update.CallbackQuery.ID,
		})
		if err != nil {
			log.Warnf("answer callback for %s: %v", event.UserID, err)
		}
	}

	select {
	case b.events <- event:
	case <-ctx.Done():
	}
}

func convert(update *models.Update) (transport.Event, bool) {
	switch {
	case update.CallbackQuery != nil:
		from := update.CallbackQuery.From
		event := newEvent(&from)
		event.Callback = update.CallbackQuery.Data
		return event, event.Callback != ""

	case update.Message != nil && update.Message.From != nil:
		msg := update.Message
		event := newEvent(msg.From)
		event.Text = strings.TrimSpace(msg.Text)
		event.Caption = strings.TrimSpace(msg.Caption)

		if msg.Document != nil {
			event.File = &transport.FileRef{
				ID:   msg.Document.FileID,
				Name: msg.Document.FileName,
				Size: int64(msg.Document.FileSize),
			}
		} else if len(msg.Photo) > 0 {
			// the last size is the largest
			photo := msg.Photo[len(msg.Photo)-1]
			name := photoName
			if event.Caption != "" {
				name = event.Caption
			}
			event.File = &transport.FileRef{
				ID:      photo.FileID,
				Name:    name,
				Size:    int64(photo.FileSize),
				IsPhoto: true,
			}
		}
		return event, true
	}
	return transport.Event{}, false
}

func newEvent(from *models.User) transport.Event {
	return transport.Event{
		UserID:      strconv.FormatInt(from.ID, 10),
		Username:    from.Username,
		DisplayName: strings.TrimSpace(from.FirstName + " " + from.LastName),
	}
}

func (b *Bot) Send(ctx context.Context, userID, text string, keyboard transport.Keyboard) error {
	chatID, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return fmt.Errorf("telegram user id %q: %w", userID, err)
	}

	params := &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	}
	if len(keyboard) > 0 {
		rows := make([][]models.InlineKeyboardButton, 0, len(keyboard))
		for _, row := range keyboard {
			buttons := make([]models.InlineKeyboardButton, 0, len(row))
			for _, btn := range row {
				buttons = append(buttons, models.InlineKeyboardButton{
					Text:         btn.Text,
					CallbackData: btn.Data,
					URL:          btn.URL,
				})
			}
			rows = append(rows, buttons)
		}
		params.ReplyMarkup = &models.InlineKeyboardMarkup{InlineKeyboard: rows}
	}

	_, err = b.bot.SendMessage(ctx, params)
	return err
}

func (b *Bot) Open(ctx context.Context, file transport.FileRef) (io.ReadCloser, error) {
	info, err := b.bot.GetFile(ctx, &bot.GetFileParams{FileID: file.ID})
	if err != nil {
		return nil, fmt.Errorf("get file %s: %w", file.ID, err)
	}

	link := fmt.Sprintf("https://api.telegram.org/file/bot%s/%s", b.bot.Token(), info.FilePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, err
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
