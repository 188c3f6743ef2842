package earthengine

import (
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"

	"github.com/samirrijal/earthimagery/internal/core/domain"
)

// OAuth2 scopes requested for the service account.
var Scopes = []string{
	"https://www.googleapis.com/auth/earthengine",
	"https://www.googleapis.com/auth/cloud-platform",
}

// Credentials is a service-account key file. The service account may be given
// as "service_account" or, as in keys downloaded from Google Cloud,
// "client_email".
type Credentials struct {
	ServiceAccount string `json:"service_account"`
	ClientEmail    string `json:"client_email"`
	PrivateKey     string `json:"private_key"`
	PrivateKeyID   string `json:"private_key_id"`
	ProjectID      string `json:"project_id"`
	TokenURI       string `json:"token_uri"`
}

// LoadCredentials reads and validates the key file at path.
// All failures are *domain.ConfigurationError.
func LoadCredentials(path string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.ConfigurationError{Path: path, Err: err}
	}
	creds, err := ParseCredentials(data)
	if err != nil {
		return nil, &domain.ConfigurationError{Path: path, Err: err}
	}
	return creds, nil
}

// ParseCredentials decodes a key file body.
func ParseCredentials(data []byte) (*Credentials, error) {
	var c Credentials
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	if c.Email() == "" {
		return nil, errors.New("service_account is required")
	}
	if c.PrivateKey == "" {
		return nil, errors.New("private_key is required")
	}
	if block, _ := pem.Decode([]byte(c.PrivateKey)); block == nil {
		return nil, errors.New("private_key is not PEM encoded")
	}
	return &c, nil
}

// Email returns the service account identity.
func (c *Credentials) Email() string {
	if c.ServiceAccount != "" {
		return c.ServiceAccount
	}
	return c.ClientEmail
}

// JWTConfig returns the two-legged OAuth2 configuration for the account.
func (c *Credentials) JWTConfig(scopes ...string) *jwt.Config {
	tokenURL := c.TokenURI
	if tokenURL == "" {
		tokenURL = google.JWTTokenURL
	}
	return &jwt.Config{
		Email:        c.Email(),
		PrivateKey:   []byte(c.PrivateKey),
		PrivateKeyID: c.PrivateKeyID,
		Scopes:       scopes,
		TokenURL:     tokenURL,
	}
}
