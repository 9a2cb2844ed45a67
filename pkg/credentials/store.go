package credentials

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrNotFound is returned by Store.Load when no credentials exist for the
// requested endpoint.
var ErrNotFound = errors.New("credentials: not found")

// Store persists credentials per endpoint. Implementations must be safe
// for concurrent use.
type Store interface {
	// Load returns the stored credentials for an endpoint, or ErrNotFound.
	Load(endpoint string) (*Credentials, error)

	// Save stores credentials for an endpoint, replacing any previous value.
	Save(endpoint string, creds *Credentials) error

	// Clear removes the stored credentials for an endpoint. Clearing an
	// endpoint without credentials is not an error.
	Clear(endpoint string) error
}

// DefaultStorageDir is the default directory for stored credentials,
// relative to the user's home directory.
const DefaultStorageDir = ".config/authflow/credentials"

// FileStore persists credentials as JSON files.
//
// SECURITY: credential files are created with 0600 permissions and the
// storage directory with 0700. Token values are never logged.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

// NewFileStore creates a file-backed store rooted at dir. When dir is
// empty the default location under the user's home directory is used.
// The directory is created if it does not exist.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("credentials: failed to get home directory: %w", err)
		}
		dir = filepath.Join(home, DefaultStorageDir)
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("credentials: failed to create storage directory: %w", err)
	}

	return &FileStore{dir: dir}, nil
}

// Load implements Store.
func (s *FileStore) Load(endpoint string) (*Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(endpoint)
	// #nosec G304 -- path is derived from a hashed key, not user input
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("credentials: failed to unmarshal %s: %w", path, err)
	}

	return &creds, nil
}

// Save implements Store.
func (s *FileStore) Save(endpoint string, creds *Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("credentials: failed to marshal: %w", err)
	}

	if err := os.WriteFile(s.path(endpoint), data, 0600); err != nil {
		return fmt.Errorf("credentials: failed to write file: %w", err)
	}

	return nil
}

// Clear implements Store.
func (s *FileStore) Clear(endpoint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(endpoint))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// path maps an endpoint to a filesystem-safe file name via SHA-256.
func (s *FileStore) path(endpoint string) string {
	sum := sha256.Sum256([]byte(endpoint))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:16])+".json")
}

// MemoryStore keeps credentials in memory only. Useful for tests and for
// callers that manage persistence themselves.
type MemoryStore struct {
	mu    sync.RWMutex
	creds map[string]*Credentials
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{creds: make(map[string]*Credentials)}
}

// Load implements Store.
func (s *MemoryStore) Load(endpoint string) (*Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	creds, ok := s.creds[endpoint]
	if !ok {
		return nil, ErrNotFound
	}

	cp := *creds
	return &cp, nil
}

// Save implements Store.
func (s *MemoryStore) Save(endpoint string, creds *Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *creds
	s.creds[endpoint] = &cp
	return nil
}

// Clear implements Store.
func (s *MemoryStore) Clear(endpoint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.creds, endpoint)
	return nil
}
