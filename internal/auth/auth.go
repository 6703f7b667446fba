// Package auth resolves the Alpaca key pair from the credential store.
package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jonandersen/apca/internal/keyring"
	"github.com/jonandersen/apca/pkg/alpaca"
)

// ErrNotConfigured is returned when either half of the key pair is missing.
var ErrNotConfigured = errors.New("credentials not configured (run 'apca configure' or set " +
	keyring.EnvKeyID + " and " + keyring.EnvSecretKey + ")")

// Resolve reads the key id and secret key from store.
func Resolve(store keyring.Store) (alpaca.Credentials, error) {
	keyID, err := get(store, keyring.KeyKeyID)
	if err != nil {
		return alpaca.Credentials{}, err
	}
	secret, err := get(store, keyring.KeySecretKey)
	if err != nil {
		return alpaca.Credentials{}, err
	}
	return alpaca.Credentials{KeyID: keyID, SecretKey: secret}, nil
}

func get(store keyring.Store, key string) (string, error) {
	v, err := store.Get(keyring.ServiceName, key)
	if errors.Is(err, keyring.ErrNotFound) || (err == nil && strings.TrimSpace(v) == "") {
		return "", ErrNotConfigured
	}
	if err != nil {
		return "", fmt.Errorf("failed to read credentials: %w", err)
	}
	return strings.TrimSpace(v), nil
}

// Store saves both halves of creds. Neither may be empty.
func Store(store keyring.Store, creds alpaca.Credentials) error {
	if strings.TrimSpace(creds.KeyID) == "" || strings.TrimSpace(creds.SecretKey) == "" {
		return fmt.Errorf("key id and secret key are required")
	}
	if err := store.Set(keyring.ServiceName, keyring.KeyKeyID, strings.TrimSpace(creds.KeyID)); err != nil {
		return fmt.Errorf("failed to store key id: %w", err)
	}
	if err := store.Set(keyring.ServiceName, keyring.KeySecretKey, strings.TrimSpace(creds.SecretKey)); err != nil {
		return fmt.Errorf("failed to store secret key: %w", err)
	}
	return nil
}

// Clear removes both halves of the key pair.
func Clear(store keyring.Store) error {
	for _, key := range []string{keyring.KeyKeyID, keyring.KeySecretKey} {
		if err := store.Delete(keyring.ServiceName, key); err != nil {
			return fmt.Errorf("failed to remove %s: %w", key, err)
		}
	}
	return nil
}
