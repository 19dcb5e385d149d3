package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/PFEPLTechHub/document-bot/internal/models"
)

func (r *Repository) ActiveInvitation(ctx context.Context, managerID string) (*models.Invitation, error) {
	var invitation models.Invitation
	err := r.db.WithContext(ctx).
		Where("manager_id = ? AND status = ?", managerID, models.InvitationActive).
		Order("created_at DESC").
		First(&invitation).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &invitation, nil
}

func (r *Repository) InvitationByCode(ctx context.Context, code string) (*models.Invitation, error) {
	var invitation models.Invitation
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&invitation).Error; err != nil {
		return nil, notFound(err)
	}
	return &invitation, nil
}

func (r *Repository) CreateInvitation(ctx context.Context, invitation *models.Invitation) error {
	if err := r.db.WithContext(ctx).Create(invitation).Error; err != nil {
		return fmt.Errorf("create invitation: %w", err)
	}
	return nil
}

// RevokeInvitations marks every active invitation of the manager revoked.
func (r *Repository) RevokeInvitations(ctx context.Context, managerID string) (int64, error) {
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&models.Invitation{}).
		Where("manager_id = ? AND status = ?", managerID, models.InvitationActive).
		Updates(map[string]interface{}{"status": models.InvitationRevoked, "used_at": &now})
	if res.Error != nil {
		return 0, fmt.Errorf("revoke invitations of %s: %w", managerID, res.Error)
	}
	return res.RowsAffected, nil
}
