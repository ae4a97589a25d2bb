package models

import "time"

// Role values stored on users.role
const (
	RoleAdmin        = "admin"
	RoleEventManager = "event_manager"
	RoleFinance      = "finance"
	RoleViewer       = "viewer"
)

// ValidRole reports whether r is one of the known role strings.
func ValidRole(r string) bool {
	switch r {
	case RoleAdmin, RoleEventManager, RoleFinance, RoleViewer:
		return true
	}
	return false
}

type Organization struct {
	OrgID    uint       `gorm:"primaryKey;column:org_id" json:"org_id"`
	Name     string     `gorm:"column:name" json:"name"`
	CreateAt time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt time.Time  `gorm:"column:update_at" json:"update_at"`
	DeleteAt *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`
}

func (Organization) TableName() string { return "organizations" }

type User struct {
	UserID         uint       `gorm:"primaryKey;column:user_id" json:"user_id"`
	OrganizationID uint       `gorm:"column:organization_id" json:"organization_id"`
	Email          string     `gorm:"column:email;uniqueIndex" json:"email"`
	PasswordHash   string     `gorm:"column:password_hash" json:"-"`
	FullName       string     `gorm:"column:full_name" json:"full_name"`
	Role           string     `gorm:"column:role" json:"role"` // admin|event_manager|finance|viewer
	CreateAt       time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt       time.Time  `gorm:"column:update_at" json:"update_at"`
	DeleteAt       *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
}

func (User) TableName() string { return "users" }

// IsApprover reports whether the user's role may act on expense approvals.
func (u *User) IsApprover() bool {
	return u.Role == RoleAdmin || u.Role == RoleEventManager
}
