package callbacks

import (
	"context"

	"github.com/PFEPLTechHub/document-bot/internal/commands"
	"github.com/PFEPLTechHub/document-bot/internal/models"
)

func (h *Handler) handleUploadCallback(ctx context.Context, user *models.User, cb commands.Callback) error {
	switch cb.(type) {
	case commands.ReadyUpload:
		return h.uploads.Ready(ctx, user)
	case commands.ContinueUpload:
		return h.uploads.Continue(ctx, user)
	case commands.FinalizeUpload:
		return h.uploads.Finalize(ctx, user)
	case commands.CancelSession:
		return h.uploads.Cancel(ctx, user)
	}
	return nil
}
