package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trainer.hcl")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.hcl"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadParsesTrainingBlock(t *testing.T) {
	path := writeConfig(t, `
training {
  algorithm      = "external"
  iterations     = 500000
  seed           = 42
  output_dir     = "out/kuhn"
  progress_every = 2500
}
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "external", cfg.Training.Algorithm)
	assert.Equal(t, 500000, cfg.Training.Iterations)
	require.NotNil(t, cfg.Training.Seed)
	assert.Equal(t, int64(42), *cfg.Training.Seed)
	assert.Equal(t, "out/kuhn", cfg.Training.OutputDir)
	assert.Equal(t, 2500, cfg.Training.ProgressEvery)
	// Unset fields fall back to defaults.
	assert.Equal(t, Default().Training.SnapshotEvery, cfg.Training.SnapshotEvery)
}

func TestLoadFillsAlgorithmDefault(t *testing.T) {
	path := writeConfig(t, `
training {
  iterations = 100
}
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "vanilla", cfg.Training.Algorithm)
	assert.Nil(t, cfg.Training.Seed)
}

func TestLoadRejectsMalformedHCL(t *testing.T) {
	path := writeConfig(t, `training { algorithm = `)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())

	cfg.Training.Algorithm = "cfr+"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Training.ProgressEvery = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Training.Iterations = -1
	assert.Error(t, cfg.Validate())
}
