package auth

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/authdash/authdash/internal/provider"
)

const (
	service = "authdash-cli"
)

// getKeyringKey returns a unique key for storing credentials per provider endpoint
func getKeyringKey(endpoint string) string {
	return fmt.Sprintf("credentials-%s", endpoint)
}

// SaveCredentials persists provider credentials in the OS keychain/credential manager
func SaveCredentials(endpoint string, creds provider.Credentials) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}
	if err := keyring.Set(service, getKeyringKey(endpoint), string(data)); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	return nil
}

// LoadCredentials retrieves provider credentials. Nothing stored reads as
// signed out, not as an error.
func LoadCredentials(endpoint string) (provider.Credentials, error) {
	data, err := keyring.Get(service, getKeyringKey(endpoint))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return provider.Credentials{}, nil
		}
		return provider.Credentials{}, fmt.Errorf("failed to load credentials: %w", err)
	}

	var creds provider.Credentials
	if err := json.Unmarshal([]byte(data), &creds); err != nil {
		return provider.Credentials{}, fmt.Errorf("failed to decode stored credentials: %w", err)
	}
	return creds, nil
}

// DeleteCredentials removes stored credentials from the OS keychain/credential manager
func DeleteCredentials(endpoint string) error {
	if err := keyring.Delete(service, getKeyringKey(endpoint)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete credentials: %w", err)
	}
	return nil
}
