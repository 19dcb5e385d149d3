package callbacks

import (
	"context"

	"github.com/PFEPLTechHub/document-bot/internal/commands"
	"github.com/PFEPLTechHub/document-bot/internal/models"
)

func (h *Handler) handleManageCallback(ctx context.Context, user *models.User, cb commands.Callback) error {
	switch cb.(type) {
	case commands.ManageMenu:
		return h.team.ManageMenu(ctx, user)
	case commands.CheckRequests:
		return h.team.CheckRequests(ctx, user)
	case commands.InviteUser:
		return h.team.Invite(ctx, user)
	case commands.ShowUsers:
		return h.team.ShowUsers(ctx, user)
	case commands.RevokeInvite:
		return h.team.Revoke(ctx, user)
	}
	return nil
}
