package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "admincore.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: https://api.shop.test
  timeout: 10
assets:
  upload_url: https://store.test/upload
  delete_url: https://store.test/destroy
options:
  default_gender: Women
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "https://api.shop.test", cfg.API.BaseURL)
	require.Equal(t, 10, cfg.API.Timeout)
	require.Equal(t, "https://store.test/upload", cfg.Assets.UploadURL)
	// Untouched sections keep their defaults.
	require.Equal(t, "my-uploads", cfg.Assets.UploadPreset)
	require.Equal(t, "@every 1m", cfg.Assets.RetrySchedule)
	require.Equal(t, "Women", cfg.Options.Gender())
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yml"))
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: https://file.test
`)
	t.Setenv("ADMINCORE_API_BASE_URL", "https://env.test")
	t.Setenv("ADMINCORE_API_TIMEOUT", "45")
	t.Setenv("ADMINCORE_ASSETS_RETRY_DELETES", "true")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "https://env.test", cfg.API.BaseURL)
	// Weakly typed decoding turns the string values into their field types.
	require.Equal(t, 45, cfg.API.Timeout)
	require.True(t, cfg.Assets.RetryFailedDeletes)
}

func TestCatalogOptions_Defaults(t *testing.T) {
	opts := DefaultConfig().Options

	// No explicit default gender configured: the last list entry wins.
	require.Equal(t, "Unisex", opts.Gender())
	require.Equal(t, "sale", opts.Status())

	opts.DefaultGender = "Men"
	require.Equal(t, "Men", opts.Gender())

	require.Empty(t, CatalogOptions{}.Gender())
	require.Empty(t, CatalogOptions{}.Status())
}
