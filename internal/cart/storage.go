package cart

import (
	"fmt"
	"os"
	"path/filepath"
)

// StorageKey is the single key the serialized line array lives under.
const StorageKey = "eShopCartItems"

// Storage is the durable home of the serialized cart. Load reports ok=false
// when nothing has been stored yet.
type Storage interface {
	Load() (data []byte, ok bool, err error)
	Save(data []byte) error
}

// FileStorage keeps the cart in a single JSON file, one file per session.
type FileStorage struct {
	path string
}

func NewFileStorage(dir string) *FileStorage {
	return &FileStorage{path: filepath.Join(dir, StorageKey+".json")}
}

func (f *FileStorage) Load() ([]byte, bool, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read %s: %w", f.path, err)
	}
	return data, true, nil
}

func (f *FileStorage) Save(data []byte) error {
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}

// MemoryStorage is an in-process Storage, handy for tests and ephemeral
// sessions.
type MemoryStorage struct {
	data []byte
	set  bool
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (m *MemoryStorage) Load() ([]byte, bool, error) {
	if !m.set {
		return nil, false, nil
	}
	return m.data, true, nil
}

func (m *MemoryStorage) Save(data []byte) error {
	m.data = append([]byte(nil), data...)
	m.set = true
	return nil
}
