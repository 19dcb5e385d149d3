package repositories

import (
	"context"
	"fmt"

	"github.com/PFEPLTechHub/document-bot/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UpsertUser creates the user on first contact and refreshes the names afterwards.
// Role and manager link are never touched here.
func (r *Repository) UpsertUser(ctx context.Context, id, username, displayName string) (*models.User, error) {
	user := models.User{ID: id, Username: username, DisplayName: displayName}
	if err := upsertUser(r.db.WithContext(ctx), &user).Error; err != nil {
		return nil, fmt.Errorf("upsert user %s: %w", id, err)
	}

	return r.UserByID(ctx, id)
}

func (r *Repository) UserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// EnsureAdmin promotes id to admin, creating a bare row when the user never wrote to the bot.
func (r *Repository) EnsureAdmin(ctx context.Context, id string) error {
	user := models.User{ID: id, Role: models.RoleAdmin}
	return promoteAdmin(r.db.WithContext(ctx), &user).Error
}

func (r *Repository) TeamMembers(ctx context.Context, managerID string) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Where("manager_id = ?", managerID).
		Order("display_name").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("team of %s: %w", managerID, err)
	}
	return users, nil
}

func upsertUser(db *gorm.DB, user *models.User) *gorm.DB {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "display_name"}),
	}).Create(user)
}

func promoteAdmin(db *gorm.DB, user *models.User) *gorm.DB {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"role": models.RoleAdmin}),
	}).Create(user)
}
