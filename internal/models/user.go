package models

import "time"

type Role int

const (
	RoleEmployee Role = 0
	RoleManager  Role = 1
	RoleAdmin    Role = 2
)

func (r Role) String() string {
	switch r {
	case RoleManager:
		return "manager"
	case RoleAdmin:
		return "admin"
	default:
		return "employee"
	}
}

// AtLeast reports whether r authorizes actions of the min tier.
func (r Role) AtLeast(min Role) bool {
	return r >= min
}

type User struct {
	ID          string `gorm:"primaryKey"`
	Username    string
	DisplayName string
	Role        Role      `gorm:"not null;default:0"`
	ManagerID   *string   `gorm:"index"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

// Name is the folder-safe label used in destination paths and messages.
func (u *User) Name() string {
	if u == nil || u.DisplayName == "" {
		return "Unknown_User"
	}
	return u.DisplayName
}
