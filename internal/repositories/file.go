package repositories

import (
	"context"
	"fmt"

	"github.com/PFEPLTechHub/document-bot/internal/models"
	"gorm.io/gorm"
)

// LogFile records one upload attempt together with its history row.
func (r *Repository) LogFile(ctx context.Context, userID string, file *models.File) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(file).Error; err != nil {
			return err
		}
		return tx.Create(&models.History{
			UserID:    userID,
			FileID:    file.ID,
			SessionID: file.SessionID,
		}).Error
	})
	if err != nil {
		return fmt.Errorf("log file %q: %w", file.OriginalName, err)
	}
	return nil
}

const historyQuery = `
	SELECT f.id, f.original_name, f.size, f.validation_status, f.validation_errors,
		f.created_at, u.display_name AS employee_name, u.id AS user_id,
		u.role AS user_role, u.manager_id
	FROM files f
	JOIN upload_sessions s ON f.session_id = s.session_id
	JOIN users u ON s.user_id = u.id`

// HistoryFor returns the upload history visible to viewer: own files for employees,
// own plus team files for managers, everything for admins.
func (r *Repository) HistoryFor(ctx context.Context, viewer *models.User) ([]models.HistoryRow, error) {
	var rows []models.HistoryRow
	if err := history(r.db.WithContext(ctx), viewer).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("history for %s: %w", viewer.ID, err)
	}
	return rows, nil
}

func history(db *gorm.DB, viewer *models.User) *gorm.DB {
	switch {
	case viewer.Role.AtLeast(models.RoleAdmin):
		return db.Raw(historyQuery + ` ORDER BY f.created_at DESC`)
	case viewer.Role.AtLeast(models.RoleManager):
		return db.Raw(historyQuery+` WHERE u.id = ? OR u.manager_id = ? ORDER BY f.created_at DESC`, viewer.ID, viewer.ID)
	default:
		return db.Raw(historyQuery+` WHERE u.id = ? ORDER BY f.created_at DESC`, viewer.ID)
	}
}
