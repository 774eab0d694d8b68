package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// CredentialTTL is how long a saved credential is reused.
const CredentialTTL = 7 * 24 * time.Hour

// CredentialCache keeps the encoded Basic credential between runs.
type CredentialCache interface {
	Load() (string, bool)
	Save(credential string) error
	Clear() error
}

type savedCredential struct {
	Credential string    `json:"credential"`
	Expires    time.Time `json:"expires"`
}

// FileCache stores the credential in a private file.
type FileCache struct {
	path string
	now  func() time.Time
}

func NewFileCache(path string) *FileCache {
	return &FileCache{path: path, now: time.Now}
}

// DefaultCachePath is under the user's config directory.
func DefaultCachePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "docsbot", "dashboard-credentials.json"), nil
}

func (c *FileCache) Load() (string, bool) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return "", false
	}
	var saved savedCredential
	if err := json.Unmarshal(data, &saved); err != nil || saved.Credential == "" {
		return "", false
	}
	if !c.now().Before(saved.Expires) {
		return "", false
	}
	return saved.Credential, true
}

func (c *FileCache) Save(credential string) error {
	data, err := json.Marshal(savedCredential{Credential: credential, Expires: c.now().Add(CredentialTTL)})
	if err != nil {
		return fmt.Errorf("marshal credential: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return fmt.Errorf("create credential dir: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0o600); err != nil {
		return fmt.Errorf("write credential: %w", err)
	}
	return nil
}

func (c *FileCache) Clear() error {
	if err := os.Remove(c.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove credential: %w", err)
	}
	return nil
}
