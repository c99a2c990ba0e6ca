package client

import "context"

// CredentialProvider supplies the credentials injected into every outbound
// request. Implementations are accessor views over an external session
// store; the client never owns or mutates the credentials themselves.
type CredentialProvider interface {
	// Token returns the current bearer token, or "" when the session is
	// anonymous. Resolution may require a call to the session store, hence
	// the context.
	Token(ctx context.Context) (string, error)

	// OrganizationID returns the active organization scope, or "" when none
	// is selected.
	OrganizationID() string

	// Invalidate signals the session store that the token was rejected
	// (401/403). The client calls this once per auth failure and never
	// redirects or retries on its own.
	Invalidate()
}

// StaticCredentials is a fixed-value CredentialProvider for tools and tests.
type StaticCredentials struct {
	BearerToken string
	OrgID       string

	onInvalidate func()
}

// NewStaticCredentials returns a provider with a fixed token and org scope.
func NewStaticCredentials(token, orgID string) *StaticCredentials {
	return &StaticCredentials{BearerToken: token, OrgID: orgID}
}

// OnInvalidate registers a callback invoked when the token is invalidated.
func (s *StaticCredentials) OnInvalidate(fn func()) {
	s.onInvalidate = fn
}

// Token returns the fixed token.
func (s *StaticCredentials) Token(ctx context.Context) (string, error) {
	return s.BearerToken, nil
}

// OrganizationID returns the fixed org scope.
func (s *StaticCredentials) OrganizationID() string {
	return s.OrgID
}

// Invalidate clears the token and notifies the callback.
func (s *StaticCredentials) Invalidate() {
	s.BearerToken = ""
	if s.onInvalidate != nil {
		s.onInvalidate()
	}
}

// Ensure interface compliance.
var _ CredentialProvider = (*StaticCredentials)(nil)
