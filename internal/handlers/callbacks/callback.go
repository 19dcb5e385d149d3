package callbacks

import (
	"context"

	"github.com/PFEPLTechHub/document-bot/internal/commands"
	"github.com/PFEPLTechHub/document-bot/internal/models"
	"github.com/PFEPLTechHub/document-bot/internal/services"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	uploads *services.Uploads
	team    *services.Team
	notify  services.Sender
}

func New(uploads *services.Uploads, team *services.Team, notify services.Sender) *Handler {
	return &Handler{uploads: uploads, team: team, notify: notify}
}

// CallbackHandler handles every button press.
func (h *Handler) CallbackHandler(ctx context.Context, user *models.User, data string) {
	cb, err := commands.ParseCallback(data)
	if err != nil {
		log.WithField("user_id", user.ID).Warnf("ignoring callback: %v", err)
		return
	}

	// pressing any button other than reject abandons a pending rejection reason
	if _, rejecting := cb.(commands.Reject); !rejecting {
		h.team.DropReason(ctx, user)
	}

	switch c := cb.(type) {
	case commands.ReadyUpload, commands.ContinueUpload, commands.FinalizeUpload, commands.CancelSession:
		err = h.handleUploadCallback(ctx, user, c)
	case commands.ManageMenu, commands.CheckRequests, commands.InviteUser, commands.ShowUsers, commands.RevokeInvite:
		err = h.handleManageCallback(ctx, user, c)
	case commands.Approve:
		err = h.team.Approve(ctx, user, c.RequestID)
	case commands.Reject:
		err = h.handleRejectCallback(ctx, user, c)
	}
	services.ReportError(ctx, h.notify, user.ID, err)
}
