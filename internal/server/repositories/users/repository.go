package users

import (
	"context"

	"github.com/dmitrijs2005/chatauth/internal/server/models"
)

// Repository is the credential store. Implementations must enforce email
// uniqueness themselves and report a clash as common.ErrEmailAlreadyInUse.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// GetByID loads the user without its password hash.
	GetByID(ctx context.Context, id string) (*models.User, error)
	UpdateProfilePic(ctx context.Context, id string, profilePic string) (*models.User, error)
}
