// Package transport describes the chat surface the bot talks to. Adapters for
// concrete messengers live under pkg/.
package transport

import (
	"context"
	"io"
)

type ButtonStyle string

const (
	StyleBase      ButtonStyle = ""
	StylePrimary   ButtonStyle = "primary"
	StyleAttention ButtonStyle = "attention"
)

type Button struct {
	Text  string
	Data  string
	URL   string
	Style ButtonStyle
}

// Keyboard is a list of button rows.
type Keyboard [][]Button

func Row(buttons ...Button) []Button {
	return buttons
}

type FileRef struct {
	ID      string
	Name    string
	Size    int64
	IsPhoto bool
}

// Event is one inbound update: a text message, a file or a button press.
type Event struct {
	UserID      string
	Username    string
	DisplayName string

	Text     string
	Caption  string
	Callback string
	File     *FileRef
}

func (e Event) IsCallback() bool {
	return e.Callback != ""
}

type Bot interface {
	Updates(ctx context.Context) <-chan Event
	Send(ctx context.Context, userID, text string, keyboard Keyboard) error
	Open(ctx context.Context, file FileRef) (io.ReadCloser, error)
}
