package repositories

import (
	"context"
	"fmt"

	"github.com/PFEPLTechHub/document-bot/internal/models"
	"github.com/PFEPLTechHub/document-bot/pkg/botErrors"
	"gorm.io/gorm"
)

func (r *Repository) CreateRequest(ctx context.Context, request *models.Request) error {
	if err := r.db.WithContext(ctx).Create(request).Error; err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return nil
}

func (r *Repository) LatestRequest(ctx context.Context, userID string) (*models.Request, error) {
	var request models.Request
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		First(&request).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &request, nil
}

func (r *Repository) PendingRequests(ctx context.Context, managerID string) ([]models.Request, error) {
	var requests []models.Request
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("manager_id = ? AND status = ?", managerID, models.RequestPending).
		Order("created_at").
		Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("pending requests of %s: %w", managerID, err)
	}
	return requests, nil
}

// ApproveRequest moves a pending request owned by managerID to approved and links the user
// to the manager as an employee.
func (r *Repository) ApproveRequest(ctx context.Context, requestID int, managerID string) (*models.Request, error) {
	var request models.Request

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := pendingRequest(tx, requestID, managerID).Update("status", models.RequestApproved)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return botErrors.ErrRequestProcessed
		}

		if err := tx.Preload("User").First(&request, requestID).Error; err != nil {
			return err
		}

		return linkEmployee(tx, request.UserID, managerID).Error
	})
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *Repository) RejectRequest(ctx context.Context, requestID int, managerID, reason string) (*models.Request, error) {
	var request models.Request

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := pendingRequest(tx, requestID, managerID).
			Updates(map[string]interface{}{"status": models.RequestRejected, "rejection_reason": reason})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return botErrors.ErrRequestProcessed
		}
		return tx.Preload("User").First(&request, requestID).Error
	})
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// PendingRequest returns the request only while it is pending and addressed to managerID.
func (r *Repository) PendingRequest(ctx context.Context, requestID int, managerID string) (*models.Request, error) {
	var request models.Request
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("id = ? AND manager_id = ? AND status = ?", requestID, managerID, models.RequestPending).
		First(&request).Error
	if err != nil {
		if notFound(err) == botErrors.ErrNotFound {
			return nil, botErrors.ErrRequestProcessed
		}
		return nil, err
	}
	return &request, nil
}

// pendingRequest narrows to requestID while it is pending and addressed to managerID.
func pendingRequest(db *gorm.DB, requestID int, managerID string) *gorm.DB {
	return db.Model(&models.Request{}).
		Where("id = ? AND manager_id = ? AND status = ?", requestID, managerID, models.RequestPending)
}

func linkEmployee(db *gorm.DB, userID, managerID string) *gorm.DB {
	return db.Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{"manager_id": managerID, "role": models.RoleEmployee})
}
