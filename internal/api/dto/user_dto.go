package dto

import "github.com/spec-kit/gig-service/internal/domain"

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	DisplayName string      `json:"displayName"`
	Email       string      `json:"email"`
	Password    string      `json:"password"`
	Role        domain.Role `json:"role"`
	Skills      []string    `json:"skills"`
	Bio         string      `json:"bio"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest is a partial profile edit.
type UpdateProfileRequest struct {
	DisplayName *string   `json:"displayName"`
	Bio         *string   `json:"bio"`
	Skills      *[]string `json:"skills"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
}

// UserResponse is a user profile. Email is only filled for the caller's own
// profile.
type UserResponse struct {
	ID            string         `json:"id"`
	DisplayName   string         `json:"displayName"`
	Email         string         `json:"email,omitempty"`
	Role          domain.Role    `json:"role"`
	Skills        []string       `json:"skills"`
	Bio           string         `json:"bio"`
	Rating        RatingResponse `json:"rating"`
	CompletedGigs int            `json:"completedGigs"`
	CreatedAt     string         `json:"createdAt"`
}

// NewUserResponse converts a domain user. self controls whether private
// fields are included.
func NewUserResponse(user *domain.User, self bool) UserResponse {
	skills := user.Skills
	if skills == nil {
		skills = []string{}
	}
	resp := UserResponse{
		ID:            user.ID,
		DisplayName:   user.DisplayName,
		Role:          user.Role,
		Skills:        skills,
		Bio:           user.Bio,
		Rating:        NewRatingResponse(user.Rating),
		CompletedGigs: user.CompletedGigs,
		CreatedAt:     FormatTime(user.CreatedAt),
	}
	if self {
		resp.Email = user.Email
	}
	return resp
}

// NewAuthResponse converts an issued token.
func NewAuthResponse(token domain.Token) AuthResponse {
	return AuthResponse{Token: token.Value, ExpiresAt: FormatTime(token.ExpiresAt)}
}

