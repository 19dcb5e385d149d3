// Package notifier delivers best-effort messages and runs the periodic session check.
package notifier

import (
	"context"

	"github.com/PFEPLTechHub/document-bot/internal/transport"
	log "github.com/sirupsen/logrus"
)

type Notifier struct {
	bot transport.Bot
}

func New(bot transport.Bot) *Notifier {
	return &Notifier{bot: bot}
}

// Send delivers text to userID. Failures are logged and never reach the caller.
func (n *Notifier) Send(ctx context.Context, userID, text string, keyboard transport.Keyboard) {
	if err := n.bot.Send(ctx, userID, text, keyboard); err != nil {
		log.WithField("user_id", userID).Errorf("failed to send message: %s", err)
	}
}

// SendAll notifies several users; one failed delivery does not stop the rest.
func (n *Notifier) SendAll(ctx context.Context, userIDs []string, text string) {
	for _, id := range userIDs {
		n.Send(ctx, id, text, nil)
	}
}
