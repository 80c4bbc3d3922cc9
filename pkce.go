package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/oauth2"
)

// PKCEParams holds the code verifier for PKCE (RFC 7636). The S256
// challenge is derived from it when the authorization URL is built.
// Entra ID accepts PKCE from confidential web clients as well, so it is
// always sent.
type PKCEParams struct {
	Verifier string
}

// GeneratePKCE creates a fresh verifier.
func GeneratePKCE() *PKCEParams {
	return &PKCEParams{Verifier: oauth2.GenerateVerifier()}
}

// challengeOption adds code_challenge (S256 of the verifier) and
// code_challenge_method to an authorization URL.
func (p *PKCEParams) challengeOption() oauth2.AuthCodeOption {
	return oauth2.S256ChallengeOption(p.Verifier)
}

// verifierOption adds code_verifier to the token exchange.
func (p *PKCEParams) verifierOption() oauth2.AuthCodeOption {
	return oauth2.VerifierOption(p.Verifier)
}

// generateState generates a cryptographically random state value for CSRF protection.
// Returns a 16-byte base64url-encoded string.
func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
