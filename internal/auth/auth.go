// Package auth hands out bearer tokens for the external services. Token
// acquisition (OAuth flows, refresh) happens outside this program; callers
// only see a provider that either yields a valid token or reports that no
// credential exists.
package auth

import "errors"

// ErrNotAuthenticated is returned when no credential is configured. Callers
// surface it with instructions to set the relevant token.
var ErrNotAuthenticated = errors.New("not authenticated")

// TokenProvider yields a valid bearer token on demand.
type TokenProvider interface {
	Token() (string, error)
}

// StaticProvider serves a token loaded from config or the environment.
type StaticProvider struct {
	token string
}

func NewStaticProvider(token string) *StaticProvider {
	return &StaticProvider{token: token}
}

func (p *StaticProvider) Token() (string, error) {
	if p.token == "" {
		return "", ErrNotAuthenticated
	}
	return p.token, nil
}
