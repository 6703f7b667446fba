// Package keyring stores the Alpaca API key pair in the system keyring.
package keyring

import (
	"errors"
	"fmt"
	"os"

	gokeyring "github.com/zalando/go-keyring"
)

const (
	// ServiceName is the keyring service both secrets are stored under.
	ServiceName = "markets.alpaca.apca"

	// KeyKeyID is the keyring key for the API key id.
	KeyKeyID = "key_id"

	// KeySecretKey is the keyring key for the API secret key.
	KeySecretKey = "secret_key"

	// EnvKeyID and EnvSecretKey override keyring lookups. They use the names
	// Alpaca's own tooling reads.
	EnvKeyID     = "APCA_API_KEY_ID"
	EnvSecretKey = "APCA_API_SECRET_KEY"
)

// ErrNotFound is returned when a secret is not found in the keyring.
var ErrNotFound = errors.New("secret not found")

// envOverrides maps keyring keys to the variables that shadow them.
var envOverrides = map[string]string{
	KeyKeyID:     EnvKeyID,
	KeySecretKey: EnvSecretKey,
}

// Store provides an interface for secure secret storage.
type Store interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

// SystemStore implements Store using the system keyring.
type SystemStore struct{}

// NewSystemStore creates a new system keyring store.
func NewSystemStore() *SystemStore {
	return &SystemStore{}
}

// Get retrieves a secret from the system keyring.
func (s *SystemStore) Get(service, key string) (string, error) {
	secret, err := gokeyring.Get(service, key)
	if errors.Is(err, gokeyring.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s from keyring: %w", key, err)
	}
	return secret, nil
}

// Set stores a secret in the system keyring.
func (s *SystemStore) Set(service, key, value string) error {
	if err := gokeyring.Set(service, key, value); err != nil {
		return fmt.Errorf("failed to store %s in keyring: %w", key, err)
	}
	return nil
}

// Delete removes a secret. Deleting a missing secret is not an error.
func (s *SystemStore) Delete(service, key string) error {
	err := gokeyring.Delete(service, key)
	if err == nil || errors.Is(err, gokeyring.ErrNotFound) {
		return nil
	}
	return fmt.Errorf("failed to delete %s from keyring: %w", key, err)
}

// EnvStore wraps another Store and checks APCA_API_KEY_ID and
// APCA_API_SECRET_KEY first, for CI and headless use.
type EnvStore struct {
	underlying Store
}

// NewEnvStore creates a new EnvStore wrapping the given store.
func NewEnvStore(underlying Store) *EnvStore {
	return &EnvStore{underlying: underlying}
}

// Get returns the environment override for key if one is set.
func (e *EnvStore) Get(service, key string) (string, error) {
	if name, ok := envOverrides[key]; ok {
		if v := os.Getenv(name); v != "" {
			return v, nil
		}
	}
	return e.underlying.Get(service, key)
}

// Set stores a secret in the underlying store.
func (e *EnvStore) Set(service, key, value string) error {
	return e.underlying.Set(service, key, value)
}

// Delete removes a secret from the underlying store.
func (e *EnvStore) Delete(service, key string) error {
	return e.underlying.Delete(service, key)
}
