package models

import "time"

// User is the profile held by the auth/profile store.
type User struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name,omitempty"`
	CPF        string    `json:"cpf,omitempty"`
	PostalCode string    `json:"cep,omitempty"`
	Street     string    `json:"endereco,omitempty"`
	Number     string    `json:"numero,omitempty"`
	Complement string    `json:"complemento,omitempty"`
	City       string    `json:"cidade,omitempty"`
	State      string    `json:"estado,omitempty"`
	Phone      string    `json:"telefone,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
	UpdatedAt  time.Time `json:"updated_at,omitempty"`
}

// AuthSession pairs the signed-in user with the provider access token.
type AuthSession struct {
	User        *User  `json:"user"`
	AccessToken string `json:"access_token,omitempty"`
}

// IsAuthenticated is derived from user presence.
func (s *AuthSession) IsAuthenticated() bool {
	return s != nil && s.User != nil
}

// ProfileUpdate lists the profile fields a user may change. Nil fields are left as-is.
type ProfileUpdate struct {
	Name       *string `json:"name,omitempty"`
	CPF        *string `json:"cpf,omitempty"`
	PostalCode *string `json:"cep,omitempty"`
	Street     *string `json:"endereco,omitempty"`
	Number     *string `json:"numero,omitempty"`
	Complement *string `json:"complemento,omitempty"`
	City       *string `json:"cidade,omitempty"`
	State      *string `json:"estado,omitempty"`
	Phone      *string `json:"telefone,omitempty"`
}
