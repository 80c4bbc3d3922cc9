package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// BearerToken is the successful outcome of authentication.
type BearerToken struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

// AuthError is an OAuth error payload, either from the token endpoint or
// from an error redirect.
type AuthError struct {
	Code        string
	Description string
	// StatusCode is the token endpoint status; zero for redirects.
	StatusCode int
	Body       string
}

func (e *AuthError) Error() string {
	switch {
	case e.Code != "" && e.Description != "":
		return fmt.Sprintf("%s: %s", e.Code, e.Description)
	case e.Code != "":
		return e.Code
	default:
		return fmt.Sprintf("token endpoint returned status %d: %s", e.StatusCode, e.Body)
	}
}

// ErrMissingAccessToken is returned when the token endpoint answered without
// an error but also without an access_token.
var ErrMissingAccessToken = errors.New("token response has no access_token")

const maxErrorBody = 512

// newBearerToken converts an oauth2 token, rejecting one without an access
// token so no resource call can be made with an empty credential.
func newBearerToken(t *oauth2.Token) (*BearerToken, error) {
	if t == nil || t.AccessToken == "" {
		return nil, ErrMissingAccessToken
	}
	tokenType := t.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	if !strings.EqualFold(tokenType, "Bearer") {
		return nil, fmt.Errorf("unexpected token_type: %s (expected Bearer)", tokenType)
	}
	return &BearerToken{
		AccessToken: t.AccessToken,
		TokenType:   "Bearer",
		ExpiresAt:   t.Expiry,
	}, nil
}

// decodeTokenError turns errors from x/oauth2 into *AuthError where the
// endpoint supplied an OAuth payload.
func decodeTokenError(err error) error {
	if err == nil {
		return nil
	}
	var rErr *oauth2.RetrieveError
	if errors.As(err, &rErr) {
		authErr := &AuthError{
			Code:        rErr.ErrorCode,
			Description: rErr.ErrorDescription,
			Body:        truncate(string(rErr.Body), maxErrorBody),
		}
		if rErr.Response != nil {
			authErr.StatusCode = rErr.Response.StatusCode
		}
		return authErr
	}
	if strings.Contains(err.Error(), "missing access_token") {
		return fmt.Errorf("%w: %v", ErrMissingAccessToken, err)
	}
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// preview shortens a token for display.
func (t *BearerToken) preview() string {
	if len(t.AccessToken) <= 16 {
		return strings.Repeat("*", len(t.AccessToken))
	}
	return t.AccessToken[:8] + "..." + t.AccessToken[len(t.AccessToken)-4:]
}
