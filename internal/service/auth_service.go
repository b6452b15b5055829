package service

import (
	"context"
	"strings"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/clients"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

// AuthService signs users in against the auth provider and edits their profile.
type AuthService struct {
	client clients.AuthClient
	logger *logging.Logger
}

func NewAuthService(client clients.AuthClient, logger *logging.Logger) *AuthService {
	return &AuthService{client: client, logger: logger}
}

// Login exchanges credentials for an auth session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.AuthSession, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if err := ValidateCredentials(email, password); err != nil {
		return nil, err
	}

	session, err := s.client.SignIn(ctx, email, password)
	if err != nil {
		s.logger.Warn("Sign-in failed", logging.Fields{
			"email": email,
			"error": err.Error(),
		})
		return nil, err
	}
	if !session.IsAuthenticated() {
		return nil, errors.ErrNotAuthenticated
	}

	s.logger.Info("User signed in", logging.Fields{"user_id": session.User.ID})
	return session, nil
}

// Session resolves an access token to an auth session.
func (s *AuthService) Session(ctx context.Context, accessToken string) (*models.AuthSession, error) {
	user, err := s.CurrentUser(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	return &models.AuthSession{User: user, AccessToken: accessToken}, nil
}

// CurrentUser returns the user behind an access token.
func (s *AuthService) CurrentUser(ctx context.Context, accessToken string) (*models.User, error) {
	if accessToken == "" {
		return nil, errors.ErrNotAuthenticated
	}
	return s.client.GetUser(ctx, accessToken)
}

// UpdateProfile validates and applies a profile change for the token's user.
func (s *AuthService) UpdateProfile(ctx context.Context, accessToken string, update models.ProfileUpdate) (*models.User, error) {
	user, err := s.CurrentUser(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if err := ValidateProfileUpdate(&update); err != nil {
		return nil, err
	}

	updated, err := s.client.UpdateProfile(ctx, accessToken, user.ID, update)
	if err != nil {
		s.logger.Error("Failed to update profile", logging.Fields{
			"user_id": user.ID,
			"error":   err.Error(),
		})
		return nil, err
	}
	return updated, nil
}

// Logout revokes the access token.
func (s *AuthService) Logout(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return errors.ErrNotAuthenticated
	}
	return s.client.SignOut(ctx, accessToken)
}
