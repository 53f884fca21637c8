package handler

import (
	"github.com/msomdec/account-portal/internal/domain"
)

// UserDTO is the JSON representation of a user. The password hash is never
// part of it.
type UserDTO struct {
	Username       string `json:"username"`
	Email          string `json:"email"`
	Region         string `json:"region"`
	ProfilePicture string `json:"profilePicture"`
}

func toUserDTO(u domain.PublicUser) UserDTO {
	return UserDTO{
		Username:       u.Username,
		Email:          u.Email,
		Region:         u.Region,
		ProfilePicture: u.ProfilePicture,
	}
}

// authResponse is returned by register and login.
type authResponse struct {
	Message string  `json:"message"`
	User    UserDTO `json:"user"`
}

// uploadResponse is returned by a successful profile picture upload.
type uploadResponse struct {
	Message  string `json:"message"`
	ImageURL string `json:"imageUrl"`
}
