package auth

import "github.com/authdash/authdash/internal/provider"

// TokenStore defines the interface for credential storage operations
// This allows us to mock the keyring in tests
type TokenStore interface {
	Save(endpoint string, creds provider.Credentials) error
	Load(endpoint string) (provider.Credentials, error)
	Delete(endpoint string) error
}

// defaultTokenStore implements TokenStore using the OS keyring
type defaultTokenStore struct{}

var Default TokenStore = &defaultTokenStore{}

func (d *defaultTokenStore) Save(endpoint string, creds provider.Credentials) error {
	return SaveCredentials(endpoint, creds)
}

func (d *defaultTokenStore) Load(endpoint string) (provider.Credentials, error) {
	return LoadCredentials(endpoint)
}

func (d *defaultTokenStore) Delete(endpoint string) error {
	return DeleteCredentials(endpoint)
}
