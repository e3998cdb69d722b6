package models

import "time"

// User is a stored identity. PasswordHash is empty when the record was
// loaded through a projection that excludes it.
type User struct {
	ID           string
	Email        string
	FullName     string
	PasswordHash string
	ProfilePic   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicUser is the client-facing view of a User. It never carries the
// password hash.
type PublicUser struct {
	ID         string `json:"_id"`
	FullName   string `json:"fullName"`
	Email      string `json:"email"`
	ProfilePic string `json:"profilePic"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:         u.ID,
		FullName:   u.FullName,
		Email:      u.Email,
		ProfilePic: u.ProfilePic,
	}
}
