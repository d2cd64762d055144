package entities

import "time"

// Identity provider names stored in User.AuthProvider.
const (
	AuthProviderLocal = "local"

	LocalDevExternalID = "local-dev"
	LocalDevName       = "Local Dev"
)

// User is a reader identity resolved from the external identity provider.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	AuthProvider string    `gorm:"size:100;uniqueIndex:idx_users_identity" json:"authProvider"`
	ExternalID   string    `gorm:"size:255;uniqueIndex:idx_users_identity" json:"externalId"`
	Email        string    `gorm:"size:255" json:"email,omitempty"`
	Name         string    `gorm:"size:255" json:"name,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
