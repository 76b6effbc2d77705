package credstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const fileMode = 0o600

// File persists the slot as a JSON document on disk. Writes go through a
// temp file and rename so a crash mid-write never leaves a torn slot.
type File struct {
	path string
	mu   sync.Mutex
}

// NewFile returns a store backed by the file at path. The file is created on
// first Save; a missing file reads as an empty slot.
func NewFile(path string) *File {
	return &File{path: path}
}

// Save writes the slot atomically with owner-only permissions.
func (f *File) Save(_ context.Context, creds Credentials) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	encoded, err := json.Marshal(creds)
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".credentials-*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	tmpName := tmp.Name()

	if err := tmp.Chmod(fileMode); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if _, err := tmp.Write(encoded); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return nil
}

// Load reads the slot; a missing file is an empty slot, not an error.
func (f *File) Load(_ context.Context) (Credentials, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	raw, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Credentials{}, false, nil
		}
		return Credentials{}, false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var creds Credentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		// A corrupt slot is unusable; report empty so the caller re-auths.
		return Credentials{}, false, nil
	}
	if creds.Token == "" {
		return Credentials{}, false, nil
	}

	return creds, true, nil
}

// Clear removes the file. Clearing an absent file is a no-op.
func (f *File) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
