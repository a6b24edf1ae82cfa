package businessflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinalgrid/sentinalgrid/app/dto"
	"github.com/sentinalgrid/sentinalgrid/app/services"
	"github.com/sentinalgrid/sentinalgrid/models"
)

type fakeOAuthService struct {
	info        *services.OAuthUserInfo
	exchangeErr error
}

func (f *fakeOAuthService) AuthURL(state string) string {
	return "https://accounts.example.com/consent?state=" + state
}

func (f *fakeOAuthService) Exchange(ctx context.Context, code string) (*services.OAuthUserInfo, error) {
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return f.info, nil
}

type fakeTokenService struct {
	token       string
	generateErr error
}

func (f *fakeTokenService) GenerateSessionToken(email, name, picture string) (string, error) {
	if f.generateErr != nil {
		return "", f.generateErr
	}
	return f.token, nil
}

func (f *fakeTokenService) ValidateSessionToken(token string) (*services.SessionClaims, error) {
	return nil, errors.New("not implemented")
}

func TestLoginURL(t *testing.T) {
	flow := NewAuthFlow(&fakeOAuthService{}, &fakeTokenService{}, newFakeAuditRepo())

	url := flow.LoginURL(context.Background(), "abc123")
	assert.Equal(t, "https://accounts.example.com/consent?state=abc123", url)
}

func TestHandleCallback(t *testing.T) {
	audits := newFakeAuditRepo()
	flow := NewAuthFlow(&fakeOAuthService{
		info: &services.OAuthUserInfo{Email: "ada@example.com", Name: "Ada", Picture: "https://img.example.com/ada.png"},
	}, &fakeTokenService{token: "session-jwt"}, audits)

	resp, err := flow.HandleCallback(context.Background(), &dto.OAuthCallbackRequest{Code: "auth-code"}, nil)
	require.NoError(t, err)

	assert.Equal(t, "session-jwt", resp.Token)
	assert.Equal(t, "ada@example.com", resp.User.Email)
	assert.Equal(t, "Ada", resp.User.Name)
	assert.Contains(t, audits.actions(), models.AuditActionLoginSuccess)
}

func TestHandleCallbackExchangeFailure(t *testing.T) {
	audits := newFakeAuditRepo()
	flow := NewAuthFlow(&fakeOAuthService{
		exchangeErr: errors.New("invalid_grant"),
	}, &fakeTokenService{token: "session-jwt"}, audits)

	_, err := flow.HandleCallback(context.Background(), &dto.OAuthCallbackRequest{Code: "bad-code"}, nil)
	require.Error(t, err)

	be, ok := err.(*BusinessError)
	require.True(t, ok)
	assert.Equal(t, "OAUTH_EXCHANGE_FAILED", be.Code)
	assert.Contains(t, audits.actions(), models.AuditActionLoginFailed)
}

func TestHandleCallbackTokenFailure(t *testing.T) {
	audits := newFakeAuditRepo()
	flow := NewAuthFlow(&fakeOAuthService{
		info: &services.OAuthUserInfo{Email: "ada@example.com", Name: "Ada"},
	}, &fakeTokenService{generateErr: errors.New("signing failed")}, audits)

	_, err := flow.HandleCallback(context.Background(), &dto.OAuthCallbackRequest{Code: "auth-code"}, nil)
	require.Error(t, err)

	be, ok := err.(*BusinessError)
	require.True(t, ok)
	assert.Equal(t, "TOKEN_GENERATION_FAILED", be.Code)
	assert.Contains(t, audits.actions(), models.AuditActionLoginFailed)
}
