package flowrec

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)

	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, VariantPerSample, cfg.Variant)
	assert.True(t, cfg.Export.BOM)
	assert.Equal(t, 0.001, cfg.Delta.Min)
	assert.Equal(t, 0.003, cfg.Delta.Max)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("FLOWREC_VARIANT", string(VariantSingleMean))
	t.Setenv("FLOWREC_DELTA_MAX", "0.004")
	t.Setenv("FLOWREC_EXPORT_BOM", "false")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)

	assert.Equal(t, VariantSingleMean, cfg.Variant)
	assert.Equal(t, 0.004, cfg.Delta.Max)
	assert.False(t, cfg.Export.BOM)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := DefaultConfig()
	cfg.Variant = VariantSingleMean
	cfg.Seed = 1234
	cfg.DatasetPath = "custom/flows.json"
	cfg.Export.BOM = false
	cfg.Log.Format = "json"

	require.NoError(t, SaveConfig(path, cfg))
	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadConfigRejectsInvalidFiles(t *testing.T) {
	dir := t.TempDir()

	badVariant := filepath.Join(dir, "variant.json")
	require.NoError(t, os.WriteFile(badVariant, []byte(`{"variant": "bogus"}`), 0o644))
	_, err := LoadConfig(badVariant)
	assert.Error(t, err)

	malformed := filepath.Join(dir, "malformed.json")
	require.NoError(t, os.WriteFile(malformed, []byte(`{"variant": `), 0o644))
	_, err = LoadConfig(malformed)
	assert.Error(t, err)
}

func TestLoadConfigPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"delta": {"max": 0.005}}`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 0.001, cfg.Delta.Min)
	assert.Equal(t, 0.005, cfg.Delta.Max)
	assert.Equal(t, "data/reference_flows.json", cfg.DatasetPath)
	assert.True(t, cfg.Export.BOM)
}

func TestLoadConfigFileIgnoresEnv(t *testing.T) {
	t.Setenv("FLOWREC_DELTA_MAX", "0.004")
	t.Setenv("FLOWREC_LOG_LEVEL", "debug")
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"delta": {"max": 0.005}}`), 0o644))

	withEnv, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 0.004, withEnv.Delta.Max)

	fileOnly, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, 0.005, fileOnly.Delta.Max)
	assert.Equal(t, "info", fileOnly.Log.Level)

	fileOnly.Variant = VariantSingleMean
	require.NoError(t, SaveConfig(path, fileOnly))

	saved, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(saved), `"max": 0.005`)
	assert.Contains(t, string(saved), `"level": "info"`)
	assert.Contains(t, string(saved), string(VariantSingleMean))
}

func TestSaveConfigRemovesTempFileOnFailure(t *testing.T) {
	// a non-empty directory at the target path makes the rename fail
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.MkdirAll(filepath.Join(path, "occupied"), 0o755))

	err := SaveConfig(path, DefaultConfig())
	require.Error(t, err)

	_, statErr := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(statErr))
}
