// Package users provides database operations for reader identities.
//
// Users are never created through a sign-up flow: they are resolved from the
// identity provider's (provider, external id) pair on first sight.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.EnsureIdentity(users.Identity{Provider: "https://idp.example", ExternalID: sub})
package users

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/ABFCode/Librium-sub000/internal/entities"
)

// Identity is what the identity provider tells us about the viewer.
type Identity struct {
	Provider   string
	ExternalID string
	Email      string
	Name       string
}

// LocalDevIdentity is the identity used when local authentication is allowed.
var LocalDevIdentity = Identity{
	Provider:   entities.AuthProviderLocal,
	ExternalID: entities.LocalDevExternalID,
	Name:       entities.LocalDevName,
}

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// findIdentity loads the user for id into user. A missing user is not an error;
// it is the normal case on first sign-in.
func (r *Repository) findIdentity(id Identity, user *entities.User) (bool, error) {
	result := r.db.Where("auth_provider = ? AND external_id = ?", id.Provider, id.ExternalID).Limit(1).Find(user)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// EnsureIdentity returns the user for the identity, creating it on first use.
// Email and name are refreshed when the provider reports new values.
func (r *Repository) EnsureIdentity(id Identity) (*entities.User, error) {
	if id.Provider == "" || id.ExternalID == "" {
		return nil, fmt.Errorf("identity requires provider and external id")
	}

	var user entities.User
	found, err := r.findIdentity(id, &user)
	if err != nil {
		return nil, err
	}
	if !found {
		user = entities.User{
			AuthProvider: id.Provider,
			ExternalID:   id.ExternalID,
			Email:        id.Email,
			Name:         id.Name,
		}
		if err := r.db.Create(&user).Error; err != nil {
			// Lost a race with a concurrent first request for the same identity.
			if ok, retryErr := r.findIdentity(id, &user); retryErr != nil || !ok {
				return nil, fmt.Errorf("failed to create user: %w", err)
			}
		}
		return &user, nil
	}

	updates := map[string]any{}
	if id.Email != "" && id.Email != user.Email {
		updates["email"] = id.Email
	}
	if id.Name != "" && id.Name != user.Name {
		updates["name"] = id.Name
	}
	if len(updates) > 0 {
		if err := r.db.Model(&user).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
	}

	return &user, nil
}

// EnsureLocalDevUser returns the shared local development user.
func (r *Repository) EnsureLocalDevUser() (*entities.User, error) {
	return r.EnsureIdentity(LocalDevIdentity)
}

// GetUserByID retrieves a user by ID.
func (r *Repository) GetUserByID(id uint) (*entities.User, error) {
	var user entities.User
	err := r.db.First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}
