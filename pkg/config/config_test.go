package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetGlobal(t *testing.T) {
	t.Helper()
	globalMu.Lock()
	globalManager = nil
	globalMu.Unlock()
	t.Cleanup(func() {
		globalMu.Lock()
		globalManager = nil
		globalMu.Unlock()
	})
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestAccessorsBeforeInitialize(t *testing.T) {
	resetGlobal(t)

	assert.False(t, IsInitialized())
	assert.Nil(t, GetDetection())
	assert.Nil(t, GetInjection())
	assert.Nil(t, GetLLM())
	assert.Panics(t, func() { Global() })
}

func TestInitialize(t *testing.T) {
	resetGlobal(t)
	path := writeConfig(t, `{
  "version": "1",
  "sections": {
    "detection": {"extra_denylist": ["*trap*"], "nearby_text_max_chars": 40},
    "injection": {"settle_delay": "20ms", "highlight": false},
    "llm": {"model": "gpt-4o"}
  }
}`)

	require.NoError(t, Initialize(path))
	require.True(t, IsInitialized())

	var ids []string
	for _, s := range Global().GetSections() {
		ids = append(ids, s.ID())
	}
	assert.Equal(t, []string{SectionIDDetection, SectionIDInjection, SectionIDLLM}, ids)

	require.NotNil(t, GetDetection())
	assert.Equal(t, []string{"*trap*"}, GetDetection().ExtraDenylist)
	assert.Equal(t, 40, GetDetection().NearbyTextMaxChars)

	inj := GetInjection().Snapshot()
	assert.Equal(t, 20*time.Millisecond, inj.SettleDelay)
	assert.False(t, inj.Highlight)

	assert.Equal(t, "gpt-4o", GetLLM().GetModel())
}

func TestInitialize_Errors(t *testing.T) {
	resetGlobal(t)

	assert.Error(t, Initialize(writeConfig(t, "{")))
	assert.False(t, IsInitialized())

	err := Initialize(writeConfig(t, `{"sections": {"injection": {"settle_delay": "later"}}}`))
	assert.Error(t, err)
	assert.False(t, IsInitialized())
}

func TestGlobalConfig_Persistence(t *testing.T) {
	resetGlobal(t)
	path := filepath.Join(t.TempDir(), "config.json")

	require.NoError(t, Initialize(path))
	GetLLM().SetModel("persisted-model")
	GetInjection().MinConfidence = 0.4
	require.NoError(t, Global().SaveAll())

	resetGlobal(t)
	require.NoError(t, Initialize(path))
	assert.Equal(t, "persisted-model", GetLLM().GetModel())
	assert.Equal(t, 0.4, GetInjection().Snapshot().MinConfidence)
	assert.Equal(t, 100, GetDetection().NearbyTextMaxChars)
}
