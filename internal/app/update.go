package app

import (
	"context"

	"github.com/PFEPLTechHub/document-bot/internal/services"
	"github.com/PFEPLTechHub/document-bot/internal/transport"
	log "github.com/sirupsen/logrus"
)

// Updates refreshes the sender's profile and hands the event to the handlers.
func (a *App) Updates(ctx context.Context, ev transport.Event) {
	user, err := a.users.UpsertUser(ctx, ev.UserID, ev.Username, ev.DisplayName)
	if err != nil {
		log.WithField("user_id", ev.UserID).Errorf("upsert user: %v", err)
		if a.bot.Send(ctx, ev.UserID, services.GenericErrorText, nil) != nil {
			log.WithField("user_id", ev.UserID).Warn("failed to send error message")
		}
		return
	}
	a.handler.Handle(ctx, user, ev)
}
