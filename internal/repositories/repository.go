package repositories

import (
	"errors"

	"github.com/PFEPLTechHub/document-bot/pkg/botErrors"
	"gorm.io/gorm"
)

// Repository is the persistence gateway over postgres.
type Repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return botErrors.ErrNotFound
	}
	return err
}
