package models

import "time"

type InvitationStatus string

const (
	InvitationActive  InvitationStatus = "active"
	InvitationSpent   InvitationStatus = "spent"
	InvitationRevoked InvitationStatus = "revoked"
)

type Invitation struct {
	ID        int              `gorm:"primaryKey"`
	Code      string           `gorm:"uniqueIndex;not null"`
	ManagerID string           `gorm:"not null;index"`
	Status    InvitationStatus `gorm:"type:varchar(50);not null"`
	CreatedAt time.Time        `gorm:"autoCreateTime"`
	UsedAt    *time.Time
}

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// Request links a prospective user to the manager whose invitation they redeemed.
type Request struct {
	ID              int           `gorm:"primaryKey"`
	UserID          string        `gorm:"not null;index"`
	User            *User         `gorm:"foreignKey:UserID"`
	ManagerID       string        `gorm:"not null;index"`
	Status          RequestStatus `gorm:"type:varchar(50);not null"`
	RejectionReason string
	CreatedAt       time.Time `gorm:"autoCreateTime"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

func (Request) TableName() string {
	return "user_requests"
}
