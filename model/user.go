package model

import "time"

// User represents a registered user (for internal storage)
type User struct {
	ID           string         `json:"id"`
	Username     string         `json:"username"`
	Email        string         `json:"email"`
	PasswordHash string         `json:"passwordHash"` // bcrypt hash, never exposed in API responses
	Tokens       []APIToken     `json:"tokens,omitempty"`
	Domains      []CustomDomain `json:"customDomains,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// APIToken is a named API token registered by the user.
type APIToken struct {
	Name    string `json:"tokenName"`
	TokenID string `json:"tokenId"`
}

// CustomDomain is a user-registered domain whose CNAME record has been
// verified against the service's canonical hostname.
type CustomDomain struct {
	Name        string    `json:"name"`
	CNAMETarget string    `json:"cnameTarget"`
	AddedAt     time.Time `json:"addedAt"`
}

// UserResponse represents user data for API responses (excludes sensitive fields)
type UserResponse struct {
	ID        string         `json:"id"`
	Username  string         `json:"username"`
	Email     string         `json:"email"`
	Tokens    []APIToken     `json:"tokens,omitempty"`
	Domains   []CustomDomain `json:"customDomains,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// ToResponse converts User to UserResponse (removes sensitive data)
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Tokens:    u.Tokens,
		Domains:   u.Domains,
		CreatedAt: u.CreatedAt,
	}
}

// HasDomain reports whether the user already registered the given domain name.
func (u *User) HasDomain(name string) bool {
	for _, d := range u.Domains {
		if d.Name == name {
			return true
		}
	}
	return false
}

// RegisterRequest represents user registration data
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents successful login response
type LoginResponse struct {
	AccessToken string       `json:"accessToken"`
	User        UserResponse `json:"user"`
}
