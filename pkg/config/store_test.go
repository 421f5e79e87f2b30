package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFileStore(t *testing.T) {
	t.Run("missing file is empty", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		store, err := NewFileStore(path)
		require.NoError(t, err)

		assert.Equal(t, path, store.Path())
		assert.False(t, store.IsModified())
		all, err := store.GetAll()
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("default path", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())
		store, err := NewFileStore("")
		require.NoError(t, err)

		want, err := DefaultPath()
		require.NoError(t, err)
		assert.Equal(t, want, store.Path())
		assert.True(t, strings.HasSuffix(store.Path(), filepath.Join(".formpilot", "config.json")))
	})

	t.Run("corrupt file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

		_, err := NewFileStore(path)
		assert.Error(t, err)
	})

	t.Run("empty file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("\n"), 0600))

		_, err := NewFileStore(path)
		assert.NoError(t, err)
	})
}

func TestFileStore_RoundTrip(t *testing.T) {
	for _, name := range []string{"config.json", "config.yaml", "config.yml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			store, err := NewFileStore(path)
			require.NoError(t, err)

			require.NoError(t, store.SetSection("llm", map[string]any{"model": "gpt-4o"}))
			require.NoError(t, store.SetSection("detection", map[string]any{
				"extra_denylist": []string{"*honeypot*"},
			}))
			assert.True(t, store.IsModified())
			require.NoError(t, store.Save())
			assert.False(t, store.IsModified())

			_, err = os.Stat(path + ".tmp")
			assert.True(t, os.IsNotExist(err), "temp file renamed away")

			reloaded, err := NewFileStore(path)
			require.NoError(t, err)
			llm, err := reloaded.GetSection("llm")
			require.NoError(t, err)
			assert.Equal(t, "gpt-4o", llm["model"])

			det, err := reloaded.GetSection("detection")
			require.NoError(t, err)
			patterns, ok := stringsValue(det["extra_denylist"])
			require.True(t, ok)
			assert.Equal(t, []string{"*honeypot*"}, patterns)
		})
	}
}

func TestFileStore_YAMLOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	store, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.SetSection("llm", map[string]any{"model": "m"}))
	require.NoError(t, store.Save())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "sections:")
	assert.Contains(t, string(raw), "model: m")
}

func TestFileStore_Copies(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)

	in := map[string]any{"key": "original"}
	require.NoError(t, store.SetSection("s", in))
	in["key"] = "mutated"

	out, err := store.GetSection("s")
	require.NoError(t, err)
	assert.Equal(t, "original", out["key"])

	out["key"] = "mutated"
	again, _ := store.GetSection("s")
	assert.Equal(t, "original", again["key"])

	missing, err := store.GetSection("missing")
	require.NoError(t, err)
	assert.NotNil(t, missing)
	assert.Empty(t, missing)
}

func TestFileStore_SetAll(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	require.NoError(t, store.SetSection("old", map[string]any{"a": 1}))

	require.NoError(t, store.SetAll(map[string]map[string]any{
		"new": {"b": 2},
	}))

	all, err := store.GetAll()
	require.NoError(t, err)
	assert.NotContains(t, all, "old")
	assert.Equal(t, 2, all["new"]["b"])
}
