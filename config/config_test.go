package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"stardust/config"
)

func writeFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestDefaultValidates(t *testing.T) {
	require.NoError(t, config.Default().Validate())
}

func TestLoadTOMLOverridesOneModuleKeepsOtherDefaults(t *testing.T) {
	path := writeFile(t, "genesis.toml", `
[social]
MaxFollowingPerUser = 500
MaxFollowersPerTarget = 50000
`)
	cfg, err := config.LoadTOML(path)
	require.NoError(t, err)
	require.EqualValues(t, 500, cfg.Social.MaxFollowingPerUser)
	require.Equal(t, config.Default().Maker.RejectSlashBpsMax, cfg.Maker.RejectSlashBpsMax)
}

func TestLoadYAMLRejectsInvalidMakerBps(t *testing.T) {
	path := writeFile(t, "genesis.yaml", `
maker:
  RejectSlashBpsMax: 20000
`)
	_, err := config.LoadYAML(path)
	require.Error(t, err)
}

func TestLoadTOMLMissingFile(t *testing.T) {
	_, err := config.LoadTOML(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}
