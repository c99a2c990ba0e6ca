package client

import (
	"context"
	"net/http"
)

// Auth is the typed surface over the proxied auth provider endpoints. The
// gateway forwards these under /proxy/authprovider, attaching the provider
// API key server-side so it never reaches end users.
type Auth struct {
	c *Client
}

// Auth returns the auth resource client.
func (c *Client) Auth() *Auth {
	return &Auth{c: c}
}

// Session is the token pair returned by the auth provider on verification.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// RequestMagicLink asks the auth provider to email a one-time sign-in link.
func (a *Auth) RequestMagicLink(ctx context.Context, email string) error {
	body := map[string]any{
		"email":       email,
		"create_user": true,
	}
	_, err := a.c.Post(ctx, "/proxy/authprovider/otp", body)
	return err
}

// VerifyOTP exchanges an emailed token for a session.
func (a *Auth) VerifyOTP(ctx context.Context, email, token string) (Session, error) {
	body := map[string]any{
		"type":  "magiclink",
		"email": email,
		"token": token,
	}
	return Post[Session](ctx, a.c, "/proxy/authprovider/verify", body)
}

// RefreshSession exchanges a refresh token for a new session.
func (a *Auth) RefreshSession(ctx context.Context, refreshToken string) (Session, error) {
	body := map[string]any{"refresh_token": refreshToken}
	return Post[Session](ctx, a.c, "/proxy/authprovider/token?grant_type=refresh_token", body)
}

// SignOut revokes the current session with the auth provider and drops the
// client's credentials regardless of the provider's answer.
func (a *Auth) SignOut(ctx context.Context) error {
	_, err := a.c.Do(ctx, http.MethodPost, "/proxy/authprovider/logout", struct{}{})
	a.c.SetCredentials(nil)
	return err
}
