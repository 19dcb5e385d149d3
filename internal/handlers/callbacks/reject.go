package callbacks

import (
	"context"

	"github.com/PFEPLTechHub/document-bot/internal/commands"
	"github.com/PFEPLTechHub/document-bot/internal/models"
)

// handleRejectCallback starts the two-step rejection; the reason arrives as the
// manager's next plain message.
func (h *Handler) handleRejectCallback(ctx context.Context, user *models.User, cb commands.Reject) error {
	return h.team.BeginReject(ctx, user, cb.RequestID)
}
