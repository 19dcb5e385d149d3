package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/PFEPLTechHub/document-bot/internal/models"
	"gorm.io/gorm"
)

func (r *Repository) CreateSession(ctx context.Context, session *models.UploadSession) error {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return fmt.Errorf("create session %s: %w", session.SessionID, err)
	}
	return nil
}

func (r *Repository) CompleteSession(ctx context.Context, sessionID, primaryPath, mirrorPath string) error {
	now := time.Now()
	err := r.db.WithContext(ctx).Model(&models.UploadSession{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]interface{}{
			"status":       models.SessionCompleted,
			"final_path":   primaryPath,
			"network_path": mirrorPath,
			"completed_at": &now,
		}).Error
	if err != nil {
		return fmt.Errorf("complete session %s: %w", sessionID, err)
	}
	return nil
}

func (r *Repository) CancelSession(ctx context.Context, sessionID string) error {
	err := r.db.WithContext(ctx).Model(&models.UploadSession{}).
		Where("session_id = ? AND status = ?", sessionID, models.SessionPending).
		Update("status", models.SessionCancelled).Error
	if err != nil {
		return fmt.Errorf("cancel session %s: %w", sessionID, err)
	}
	return nil
}

// CancelPendingSessions closes sessions left open by a previous process; their
// in-memory state is gone. Sessions listed in keep are skipped.
func (r *Repository) CancelPendingSessions(ctx context.Context, keep []string) (int64, error) {
	res := pendingSessions(r.db.WithContext(ctx), keep).
		Update("status", models.SessionCancelled)
	if res.Error != nil {
		return 0, fmt.Errorf("cancel pending sessions: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func pendingSessions(db *gorm.DB, keep []string) *gorm.DB {
	q := db.Model(&models.UploadSession{}).Where("status = ?", models.SessionPending)
	if len(keep) > 0 {
		q = q.Where("session_id NOT IN ?", keep)
	}
	return q
}
