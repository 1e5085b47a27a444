// Package mirror keeps a write-only copy of the signed-in user's token and
// id, keyed "authToken" and "userId". Nothing reads it back to make an
// authorization decision.
package mirror

import (
	"context"
	"errors"
)

const (
	KeyAuthToken = "authToken"
	KeyUserID    = "userId"
)

// Store is a small key/value sink
type Store interface {
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Write records a signed-in session
func Write(ctx context.Context, s Store, token, uid string) error {
	if err := s.Set(ctx, KeyAuthToken, token); err != nil {
		return err
	}
	return s.Set(ctx, KeyUserID, uid)
}

// Clear removes both keys. Removing a missing key is not an error.
func Clear(ctx context.Context, s Store) error {
	return errors.Join(
		s.Remove(ctx, KeyAuthToken),
		s.Remove(ctx, KeyUserID),
	)
}

// Discard is a Store that drops everything
var Discard Store = discard{}

type discard struct{}

func (discard) Set(context.Context, string, string) error { return nil }
func (discard) Remove(context.Context, string) error      { return nil }
