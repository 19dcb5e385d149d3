package models

import (
	"time"

	"github.com/lib/pq"
)

type SessionStatus string

const (
	SessionPending   SessionStatus = "pending"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
)

type UploadSession struct {
	ID          int           `gorm:"primaryKey"`
	SessionID   string        `gorm:"uniqueIndex;not null"`
	UserID      string        `gorm:"not null;index"`
	Status      SessionStatus `gorm:"type:varchar(50);not null"`
	TempPath    string
	FinalPath   string
	NetworkPath string
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	CompletedAt *time.Time
}

type ValidationStatus string

const (
	ValidationPassed ValidationStatus = "passed"
	ValidationFailed ValidationStatus = "failed"
)

// File is one upload attempt; rejected attempts are recorded too.
type File struct {
	ID               int    `gorm:"primaryKey"`
	SessionID        string `gorm:"not null;index"`
	OriginalName     string
	StoredName       string
	Size             int64
	Hash             string           `gorm:"size:64"`
	ValidationStatus ValidationStatus `gorm:"type:varchar(50)"`
	ValidationErrors pq.StringArray   `gorm:"type:text[]"`
	CreatedAt        time.Time        `gorm:"autoCreateTime"`
}

type History struct {
	ID        int       `gorm:"primaryKey"`
	UserID    string    `gorm:"not null;index"`
	FileID    int       `gorm:"not null"`
	SessionID string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (History) TableName() string {
	return "history"
}

// HistoryRow is the denormalized view served by the history API.
type HistoryRow struct {
	ID               int              `json:"id"`
	OriginalName     string           `json:"original_name"`
	Size             int64            `json:"file_size"`
	ValidationStatus ValidationStatus `json:"validation_status"`
	ValidationErrors pq.StringArray   `json:"validation_errors" gorm:"type:text[]"`
	CreatedAt        time.Time        `json:"session_date"`
	EmployeeName     string           `json:"employee_name"`
	UserID           string           `json:"user_id"`
	UserRole         Role             `json:"user_role"`
	ManagerID        *string          `json:"manager_id"`
}
