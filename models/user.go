package models

import (
	"time"

	"gorm.io/gorm"
)

// RacerUser is a local snapshot of the profile service's users.
// Populated by the sync worker; used to resolve opponents and label matches.
type RacerUser struct {
	ID                string  `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ExternalUserID    string  `gorm:"type:varchar(64);uniqueIndex;not null" json:"external_user_id"` // the profile service's id, used as the user id everywhere else
	Username          string  `gorm:"index;not null" json:"username"`
	ProfilePictureURL *string `json:"profile_picture_url,omitempty"`
	AccountStatus     string  `gorm:"type:varchar(32)" json:"account_status,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
