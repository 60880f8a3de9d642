package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
)

// ErrOAuthClientNotFound is returned when no OAuth client file exists in the search paths
var ErrOAuthClientNotFound = errors.New("oauth client file not found in current directory or home directory")

// OAuthClientConfig is the "Desktop app" client secret downloaded from the
// Google Cloud console and saved as lapatos_oauth.json (or
// lapatos_oauth.<env>.json). It authorizes the Sheets preference source and
// the selection publisher.
type OAuthClientConfig struct {
	Installed OAuthInstalled `json:"installed" validate:"required"`
}

// OAuthInstalled is the "installed" block of the client secret
type OAuthInstalled struct {
	ClientID                string   `json:"client_id" validate:"required"`
	ProjectID               string   `json:"project_id" validate:"required"`
	AuthURI                 string   `json:"auth_uri" validate:"required,url"`
	TokenURI                string   `json:"token_uri" validate:"required,url"`
	AuthProviderX509CertURL string   `json:"auth_provider_x509_cert_url" validate:"required,url"`
	ClientSecret            string   `json:"client_secret" validate:"required"`
	RedirectURIs            []string `json:"redirect_uris" validate:"required,min=1,dive,uri"`
}

// LoadOAuthClientWithEnv finds the client secret for env with the same search
// order as the config file: lapatos_oauth.<env>.json then lapatos_oauth.json,
// first in the working directory and then in the home directory.
func LoadOAuthClientWithEnv(env string) (*OAuthClientConfig, error) {
	path, err := findFile("lapatos_oauth", ".json", env, ErrOAuthClientNotFound)
	if err != nil {
		return nil, fmt.Errorf("failed to find oauth client file: %w", err)
	}

	return LoadOAuthClientFromPath(path)
}

// LoadOAuthClientFromPath reads and validates a client secret file
func LoadOAuthClientFromPath(path string) (*OAuthClientConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read oauth client file: %w", err)
	}

	var client OAuthClientConfig
	if err := json.Unmarshal(data, &client); err != nil {
		return nil, fmt.Errorf("failed to parse oauth client file %s: %w", path, err)
	}

	if err := ValidateOAuthClient(&client); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &client, nil
}

// ValidateOAuthClient checks the required fields and that the client accepts
// a loopback redirect, which the local authorization callback relies on.
// Web application clients list only https redirects and are rejected here.
func ValidateOAuthClient(client *OAuthClientConfig) error {
	if err := validate.Struct(client); err != nil {
		return fmt.Errorf("oauth client validation failed: %w", err)
	}

	if !hasLoopbackRedirect(client.Installed.RedirectURIs) {
		return fmt.Errorf("oauth client validation failed: no http://localhost redirect URI; create a Desktop app client")
	}

	return nil
}

func hasLoopbackRedirect(uris []string) bool {
	for _, raw := range uris {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme != "http" {
			continue
		}
		switch u.Hostname() {
		case "localhost", "127.0.0.1", "::1":
			return true
		}
	}
	return false
}
