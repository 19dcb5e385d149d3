// Package commands decodes chat input into a closed set of command values.
// Text messages and button payloads are parsed once here; handlers switch on the types.
package commands

import "strings"

// Text is a decoded text message.
type Text interface {
	isText()
}

type Start struct {
	// Code is the invitation code passed as "/start <code>", if any.
	Code string
}

type Help struct{}

type Upload struct{}

type Status struct{}

type Cancel struct{}

type ManageUsers struct{}

type History struct{}

// Unknown is a slash command the bot does not know.
type Unknown struct {
	Name string
}

// Plain is free text, e.g. a rejection reason.
type Plain struct {
	Body string
}

func (Start) isText()       {}
func (Help) isText()        {}
func (Upload) isText()      {}
func (Status) isText()      {}
func (Cancel) isText()      {}
func (ManageUsers) isText() {}
func (History) isText()     {}
func (Unknown) isText()     {}
func (Plain) isText()       {}

func ParseText(raw string) Text {
	text := strings.TrimSpace(strings.Trim(raw, "\u00A0"))
	if !strings.HasPrefix(text, "/") {
		return Plain{Body: text}
	}

	fields := strings.Fields(text)
	name := strings.ToLower(strings.TrimPrefix(fields[0], "/"))
	// "/upload@document_bot" in group chats
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}

	switch name {
	case "start":
		if len(fields) > 1 {
			return Start{Code: fields[1]}
		}
		return Start{}
	case "help":
		return Help{}
	case "upload":
		return Upload{}
	case "status":
		return Status{}
	case "cancel":
		return Cancel{}
	case "manage_users", "manage":
		return ManageUsers{}
	case "history":
		return History{}
	default:
		return Unknown{Name: name}
	}
}
