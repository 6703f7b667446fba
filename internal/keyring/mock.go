package keyring

import "sync"

type entry struct {
	service, key string
}

// MockStore is an in-memory Store for tests. Errors can be injected per
// operation.
type MockStore struct {
	mu     sync.Mutex
	data   map[entry]string
	getErr error
	setErr error
	delErr error
}

// NewMockStore creates an empty MockStore.
func NewMockStore() *MockStore {
	return &MockStore{data: make(map[entry]string)}
}

// Get returns ErrNotFound for unknown keys.
func (m *MockStore) Get(service, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", m.getErr
	}
	v, ok := m.data[entry{service, key}]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *MockStore) Set(service, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.data[entry{service, key}] = value
	return nil
}

func (m *MockStore) Delete(service, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.delErr != nil {
		return m.delErr
	}
	delete(m.data, entry{service, key})
	return nil
}

// WithGetError makes every Get fail with err.
func (m *MockStore) WithGetError(err error) *MockStore {
	m.getErr = err
	return m
}

// WithSetError makes every Set fail with err.
func (m *MockStore) WithSetError(err error) *MockStore {
	m.setErr = err
	return m
}

// WithDeleteError makes every Delete fail with err.
func (m *MockStore) WithDeleteError(err error) *MockStore {
	m.delErr = err
	return m
}

// WithCredentials stores a key pair under ServiceName.
func (m *MockStore) WithCredentials(keyID, secretKey string) *MockStore {
	m.data[entry{ServiceName, KeyKeyID}] = keyID
	m.data[entry{ServiceName, KeySecretKey}] = secretKey
	return m
}
