package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/ansa/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

const configFileName = "config.toml"

// ConfigStore keeps configuration in one TOML file. Nested tables are
// flattened to dot-notation keys on load, so "llm.model" addresses
// [llm] model regardless of how the file was written.
type ConfigStore struct {
	mu       sync.RWMutex
	filePath string
	data     map[string]any
}

// NewConfigStore opens or creates the config store. An empty configDir
// selects ~/.ansa.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".ansa")
	}
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}

	s := &ConfigStore{
		filePath: filepath.Join(configDir, configFileName),
		data:     make(map[string]any),
	}
	if err := s.Load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return s, nil
}

// Get returns the raw value for key and whether it was present.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.data[key]
	return val, ok
}

// GetString returns the string at key, or "" when absent or of another
// type.
func (s *ConfigStore) GetString(key string) string {
	if v, ok := s.Get(key); ok {
		if str, ok := v.(string); ok {
			return str
		}
	}
	return ""
}

// GetInt returns the integer at key, or 0 when absent. TOML decodes
// whole numbers as int64; in-memory sets may store plain ints.
func (s *ConfigStore) GetInt(key string) int {
	switch v, _ := s.Get(key); v := v.(type) {
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// GetFloat returns the float at key, widening stored integers, or 0.
func (s *ConfigStore) GetFloat(key string) float64 {
	switch v, _ := s.Get(key); v := v.(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	}
	return 0
}

// GetBool returns the bool at key, or false when absent.
func (s *ConfigStore) GetBool(key string) bool {
	if v, ok := s.Get(key); ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

// Set stores a value and persists the file immediately.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return s.save()
}

// Save writes the current state to disk.
func (s *ConfigStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

// save marshals and writes the file. Caller holds the lock. The write
// goes through a temp file and rename so the watcher never observes a
// half-written config.
func (s *ConfigStore) save() error {
	data, err := toml.Marshal(s.data)
	if err != nil {
		return err
	}

	tmp := s.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, s.filePath)
}

// Load replaces in-memory state with the file contents. A missing file
// loads as empty.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			s.data = make(map[string]any)
			return nil
		}
		return err
	}

	var parsed map[string]any
	if err := toml.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("parse %s: %w", s.filePath, err)
	}

	s.data = flatten(parsed, "")
	return nil
}

// flatten rewrites nested tables as dot-notation keys, so {"a":{"b":1}}
// becomes {"a.b":1}.
func flatten(m map[string]any, prefix string) map[string]any {
	out := make(map[string]any, len(m))
	for key, value := range m {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		if nested, ok := value.(map[string]any); ok {
			for k, v := range flatten(nested, full) {
				out[k] = v
			}
			continue
		}
		out[full] = value
	}
	return out
}

// Path returns the backing file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}
