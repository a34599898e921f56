package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
}

func TestNewConfigStore_DefaultDir(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot determine home directory")
	}

	store, err := NewConfigStore("")

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(home, ".ansa", "config.toml"), store.Path())
}

func TestConfigStore_SetAndGet(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	err = store.Set("test_key", "test_value")
	require.NoError(t, err)

	val, ok := store.Get("test_key")
	assert.True(t, ok)
	assert.Equal(t, "test_value", val)

	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_GetString(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("string_key", "hello world"))
	assert.Equal(t, "hello world", store.GetString("string_key"))

	// Non-existent key
	assert.Equal(t, "", store.GetString("nonexistent"))

	// Wrong type
	require.NoError(t, store.Set("int_key", 42))
	assert.Equal(t, "", store.GetString("int_key"))
}

func TestConfigStore_GetInt(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("int_key", 42))
	assert.Equal(t, 42, store.GetInt("int_key"))

	assert.Equal(t, 0, store.GetInt("nonexistent"))

	require.NoError(t, store.Set("string_key", "not a number"))
	assert.Equal(t, 0, store.GetInt("string_key"))
}

func TestConfigStore_GetFloat(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("float_key", 0.7))
	assert.Equal(t, 0.7, store.GetFloat("float_key"))

	// Integers promote to float
	require.NoError(t, store.Set("int_key", 3))
	assert.Equal(t, 3.0, store.GetFloat("int_key"))

	assert.Equal(t, 0.0, store.GetFloat("nonexistent"))
}

func TestConfigStore_GetBool(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("bool_key", true))
	assert.True(t, store.GetBool("bool_key"))

	assert.False(t, store.GetBool("nonexistent"))
}

func TestConfigStore_PersistsAcrossInstances(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	require.NoError(t, store.Set("llm.provider", "ollama"))
	require.NoError(t, store.Set("retrieval.top_k", 25))
	require.NoError(t, store.Set("retrieval.similarity_threshold", 0.65))

	reopened, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "ollama", reopened.GetString("llm.provider"))
	assert.Equal(t, 25, reopened.GetInt("retrieval.top_k"))
	assert.Equal(t, 0.65, reopened.GetFloat("retrieval.similarity_threshold"))
}

func TestConfigStore_LoadFlattensNestedKeys(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	content := `
[llm]
provider = "vllm"
model = "meta-llama/Llama-3.1-8B-Instruct"

[planner]
max_hops = 4
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "vllm", store.GetString("llm.provider"))
	assert.Equal(t, "meta-llama/Llama-3.1-8B-Instruct", store.GetString("llm.model"))
	assert.Equal(t, 4, store.GetInt("planner.max_hops"))
}

func TestConfigStore_LoadInvalidTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")
	require.NoError(t, os.WriteFile(configPath, []byte("not [valid toml"), 0600))

	_, err := NewConfigStore(tmpDir)
	assert.Error(t, err)
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	require.NoError(t, store.Set("llm.provider", "mock"))

	reloaded := make(chan struct{}, 1)
	watcher, err := NewWatcher(store, func() {
		select {
		case reloaded <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)
	watcher.Start()
	defer watcher.Stop()

	// Simulate an external edit.
	content := "[llm]\nprovider = \"ollama\"\n"
	require.NoError(t, os.WriteFile(store.Path(), []byte(content), 0600))

	select {
	case <-reloaded:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not reload within timeout")
	}

	assert.Equal(t, "ollama", store.GetString("llm.provider"))
}

func TestFlatten(t *testing.T) {
	nested := map[string]any{
		"top": "value",
		"llm": map[string]any{
			"provider": "ollama",
			"limits": map[string]any{
				"max_tokens": int64(1000),
			},
		},
	}

	flat := flatten(nested, "")

	assert.Equal(t, "value", flat["top"])
	assert.Equal(t, "ollama", flat["llm.provider"])
	assert.Equal(t, int64(1000), flat["llm.limits.max_tokens"])
}
