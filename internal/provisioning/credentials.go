package provisioning

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/sos-tracker/internal/config"
)

// Credentials identify the network to join.
type Credentials struct {
	// SSID is the network name.
	SSID string `yaml:"ssid" form:"ssid" json:"ssid" validate:"required,max=32"`
	// Password is empty for open networks.
	Password string `yaml:"password" form:"password" json:"-" validate:"omitempty,min=8,max=63"`
}

// Store persists credentials.
type Store interface {
	Load(ctx context.Context) (*Credentials, error)
	Save(ctx context.Context, creds *Credentials) error
	Erase(ctx context.Context) error
}

// ErrNotFound is returned when no credentials have been saved yet.
var ErrNotFound = errors.New("credentials not found")

// FileStore keeps credentials in a YAML file readable only by the owner.
type FileStore struct {
	// path is the filesystem location of the credentials file.
	path string
	// mu serializes access to the file.
	mu sync.Mutex
}

// NewFileStore creates a store backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{
		path: filepath.Clean(path),
	}
}

// Path returns the credentials file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the saved credentials.
func (s *FileStore) Load(_ context.Context) (*Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	contents, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read credentials file: %w", err)
	}

	var creds Credentials
	if err = yaml.Unmarshal(contents, &creds); err != nil {
		return nil, fmt.Errorf("decode credentials file: %w", err)
	}

	if creds.SSID == "" {
		return nil, fmt.Errorf("%w: ssid is empty", ErrNotFound)
	}

	return &creds, nil
}

// Save writes the credentials, replacing any previous ones.
func (s *FileStore) Save(_ context.Context, creds *Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := yaml.Marshal(creds)
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}

	if err = os.WriteFile(s.path, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write credentials file: %w", err)
	}

	return nil
}

// Erase removes the saved credentials. A missing file is not an error.
func (s *FileStore) Erase(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove credentials file: %w", err)
	}

	return nil
}
