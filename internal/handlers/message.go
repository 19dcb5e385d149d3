package handlers

import (
	"context"

	"github.com/PFEPLTechHub/document-bot/internal/commands"
	"github.com/PFEPLTechHub/document-bot/internal/handlers/callbacks"
	"github.com/PFEPLTechHub/document-bot/internal/models"
	"github.com/PFEPLTechHub/document-bot/internal/services"
	"github.com/PFEPLTechHub/document-bot/internal/transport"
)

const unknownCommandText = "I didn't understand that command.\nSend /help to see what I can do."

type Handler struct {
	uploads   *services.Uploads
	team      *services.Team
	notify    services.Sender
	callbacks *callbacks.Handler
}

func New(uploads *services.Uploads, team *services.Team, notify services.Sender) *Handler {
	return &Handler{
		uploads:   uploads,
		team:      team,
		notify:    notify,
		callbacks: callbacks.New(uploads, team, notify),
	}
}

// Handle routes one event from user. Button presses go to the callbacks package.
func (h *Handler) Handle(ctx context.Context, user *models.User, ev transport.Event) {
	if ev.IsCallback() {
		h.callbacks.CallbackHandler(ctx, user, ev.Callback)
		return
	}
	h.MessageHandler(ctx, user, ev)
}

// MessageHandler handles files, commands and free text.
func (h *Handler) MessageHandler(ctx context.Context, user *models.User, ev transport.Event) {
	if ev.File != nil {
		services.ReportError(ctx, h.notify, user.ID, h.uploads.HandleFile(ctx, user, *ev.File, ev.Caption))
		return
	}

	cmd := commands.ParseText(ev.Text)
	if plain, ok := cmd.(commands.Plain); ok {
		if h.team.AwaitingReason(ctx, user) {
			services.ReportError(ctx, h.notify, user.ID, h.team.RejectWithReason(ctx, user, plain.Body))
			return
		}
	} else {
		h.team.DropReason(ctx, user)
	}

	var err error
	switch c := cmd.(type) {
	case commands.Start:
		err = h.team.Welcome(ctx, user, c.Code)
	case commands.Help:
		err = h.team.Help(ctx, user)
	case commands.Upload:
		err = h.uploads.Start(ctx, user)
	case commands.Status:
		err = h.uploads.Status(ctx, user)
	case commands.Cancel:
		err = h.uploads.Cancel(ctx, user)
	case commands.ManageUsers:
		err = h.team.ManageMenu(ctx, user)
	case commands.History:
		err = h.team.History(ctx, user)
	case commands.Unknown:
		h.notify.Send(ctx, user.ID, unknownCommandText, nil)
	case commands.Plain:
		err = h.team.Welcome(ctx, user, "")
	}
	services.ReportError(ctx, h.notify, user.ID, err)
}
