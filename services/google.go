package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const googleTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

// GoogleIdentity is the verified content of a Google ID token.
type GoogleIdentity struct {
	Subject    string
	Email      string
	GivenName  string
	FamilyName string
}

// GoogleVerifier turns a Google Sign-In credential into a verified identity.
type GoogleVerifier interface {
	Verify(ctx context.Context, credential string) (GoogleIdentity, error)
}

// TokenInfoVerifier checks ID tokens against Google's tokeninfo endpoint.
type TokenInfoVerifier struct {
	ClientID string
	Endpoint string
	Client   *http.Client
}

// NewTokenInfoVerifier creates a verifier for tokens issued to clientID
func NewTokenInfoVerifier(clientID string) *TokenInfoVerifier {
	return &TokenInfoVerifier{
		ClientID: clientID,
		Endpoint: googleTokenInfoURL,
		Client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Verify asks Google to validate credential and checks its audience
func (v *TokenInfoVerifier) Verify(ctx context.Context, credential string) (GoogleIdentity, error) {
	if v.ClientID == "" {
		return GoogleIdentity{}, errors.New("google sign-in is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.Endpoint+"?id_token="+url.QueryEscape(credential), nil)
	if err != nil {
		return GoogleIdentity{}, fmt.Errorf("failed to build tokeninfo request: %w", err)
	}
	resp, err := v.Client.Do(req)
	if err != nil {
		return GoogleIdentity{}, fmt.Errorf("failed to call tokeninfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return GoogleIdentity{}, ErrInvalidToken
	}

	// tokeninfo encodes every claim as a string.
	var info struct {
		Aud           string `json:"aud"`
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified string `json:"email_verified"`
		GivenName     string `json:"given_name"`
		FamilyName    string `json:"family_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return GoogleIdentity{}, fmt.Errorf("failed to decode tokeninfo: %w", err)
	}
	if info.Aud != v.ClientID || info.Sub == "" || info.Email == "" || info.EmailVerified != "true" {
		return GoogleIdentity{}, ErrInvalidToken
	}

	return GoogleIdentity{
		Subject:    info.Sub,
		Email:      info.Email,
		GivenName:  info.GivenName,
		FamilyName: info.FamilyName,
	}, nil
}
