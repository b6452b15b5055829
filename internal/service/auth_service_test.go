package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

type fakeAuthClient struct {
	users      map[string]*models.User // by access token
	passwords  map[string]string       // by email
	lastUpdate *models.ProfileUpdate
	signedOut  []string
}

func newFakeAuthClient() *fakeAuthClient {
	user := &models.User{ID: "user-1", Email: "ana@example.com", Name: "Ana"}
	return &fakeAuthClient{
		users:     map[string]*models.User{"token-1": user},
		passwords: map[string]string{"ana@example.com": "s3cret"},
	}
}

func (f *fakeAuthClient) SignIn(ctx context.Context, email, password string) (*models.AuthSession, error) {
	if f.passwords[email] != password {
		return nil, errors.ErrNotAuthenticated
	}
	return &models.AuthSession{User: f.users["token-1"], AccessToken: "token-1"}, nil
}

func (f *fakeAuthClient) GetUser(ctx context.Context, accessToken string) (*models.User, error) {
	user, ok := f.users[accessToken]
	if !ok {
		return nil, errors.ErrNotAuthenticated
	}
	return user, nil
}

func (f *fakeAuthClient) UpdateProfile(ctx context.Context, accessToken, userID string, update models.ProfileUpdate) (*models.User, error) {
	f.lastUpdate = &update
	user := *f.users[accessToken]
	if update.CPF != nil {
		user.CPF = *update.CPF
	}
	if update.PostalCode != nil {
		user.PostalCode = *update.PostalCode
	}
	return &user, nil
}

func (f *fakeAuthClient) SignOut(ctx context.Context, accessToken string) error {
	f.signedOut = append(f.signedOut, accessToken)
	return nil
}

func strPtr(s string) *string { return &s }

func TestAuthService_Login(t *testing.T) {
	svc := NewAuthService(newFakeAuthClient(), logging.New("auth-test"))
	ctx := context.Background()

	session, err := svc.Login(ctx, "  Ana@Example.com ", "s3cret")
	require.NoError(t, err)
	assert.True(t, session.IsAuthenticated())
	assert.Equal(t, "token-1", session.AccessToken)

	_, err = svc.Login(ctx, "ana@example.com", "wrong")
	assert.ErrorIs(t, err, errors.ErrNotAuthenticated)

	_, err = svc.Login(ctx, "not-an-email", "s3cret")
	assert.ErrorIs(t, err, errors.ErrInvalidInput)

	_, err = svc.Login(ctx, "ana@example.com", "")
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestAuthService_Session(t *testing.T) {
	svc := NewAuthService(newFakeAuthClient(), logging.New("auth-test"))
	ctx := context.Background()

	session, err := svc.Session(ctx, "token-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", session.User.ID)

	_, err = svc.Session(ctx, "")
	assert.ErrorIs(t, err, errors.ErrNotAuthenticated)

	_, err = svc.Session(ctx, "expired")
	assert.ErrorIs(t, err, errors.ErrNotAuthenticated)
}

func TestAuthService_UpdateProfileNormalizes(t *testing.T) {
	client := newFakeAuthClient()
	svc := NewAuthService(client, logging.New("auth-test"))

	user, err := svc.UpdateProfile(context.Background(), "token-1", models.ProfileUpdate{
		CPF:        strPtr("123.456.789-09"),
		PostalCode: strPtr("01310100"),
	})
	require.NoError(t, err)

	assert.Equal(t, "12345678909", user.CPF)
	assert.Equal(t, "01310-100", user.PostalCode)
	require.NotNil(t, client.lastUpdate)
	assert.Nil(t, client.lastUpdate.Name)
}

func TestAuthService_UpdateProfileRejectsInvalidFields(t *testing.T) {
	client := newFakeAuthClient()
	svc := NewAuthService(client, logging.New("auth-test"))

	_, err := svc.UpdateProfile(context.Background(), "token-1", models.ProfileUpdate{CPF: strPtr("123")})
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
	assert.Nil(t, client.lastUpdate)

	_, err = svc.UpdateProfile(context.Background(), "", models.ProfileUpdate{Name: strPtr("Ana")})
	assert.ErrorIs(t, err, errors.ErrNotAuthenticated)
}

func TestAuthService_Logout(t *testing.T) {
	client := newFakeAuthClient()
	svc := NewAuthService(client, logging.New("auth-test"))

	require.NoError(t, svc.Logout(context.Background(), "token-1"))
	assert.Equal(t, []string{"token-1"}, client.signedOut)

	assert.ErrorIs(t, svc.Logout(context.Background(), ""), errors.ErrNotAuthenticated)
}
