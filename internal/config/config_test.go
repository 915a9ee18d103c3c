package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"tubequery/internal/config"
)

func TestLoadConfig(t *testing.T) {
	// Set env var directly to test envconfig logic
	os.Setenv("DB_HOST", "test-host")
	defer os.Unsetenv("DB_HOST")

	cfg, err := config.Load()
	assert.NoError(t, err)
	assert.Equal(t, "test-host", cfg.DBHost)
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := config.Load()
	assert.NoError(t, err)
	assert.Equal(t, 1000, cfg.ChunkSize)
	assert.Equal(t, 5, cfg.FetchWorkers)
	assert.Equal(t, 2, cfg.IngestWorkers)
	assert.Equal(t, 5, cfg.TopKResults)
	assert.Equal(t, 0.8, cfg.OverlapThreshold)
	assert.Equal(t, 3, cfg.MinRankResults)
	assert.Equal(t, 0.0, cfg.SuccessThreshold)
}

func TestLoadConfig_FromEnvFile(t *testing.T) {
	// Create a temp .env file
	content := []byte("DB_HOST=loaded-from-file")
	err := os.WriteFile(".env", content, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(".env")

	cfg, err := config.Load()
	assert.NoError(t, err)
	assert.Equal(t, "loaded-from-file", cfg.DBHost)
}

func TestLoadConfig_Workers(t *testing.T) {
	os.Setenv("FETCH_WORKERS", "8")
	os.Setenv("INGEST_WORKERS", "4")
	defer os.Unsetenv("FETCH_WORKERS")
	defer os.Unsetenv("INGEST_WORKERS")

	cfg, err := config.Load()
	assert.NoError(t, err)
	assert.Equal(t, 8, cfg.FetchWorkers)
	assert.Equal(t, 4, cfg.IngestWorkers)
}

func TestCaptionLanguages(t *testing.T) {
	cfg := &config.Config{CaptionLangs: "en, ja ,ko"}
	assert.Equal(t, []string{"en", "ja", "ko"}, cfg.CaptionLanguages())

	cfg = &config.Config{CaptionLangs: ""}
	assert.Empty(t, cfg.CaptionLanguages())
}

func TestValidate(t *testing.T) {
	base := func() *config.Config {
		return &config.Config{
			DBHost: "h", DBUser: "u", DBName: "d",
			ChunkSize: 1000, FetchWorkers: 5, IngestWorkers: 2,
		}
	}

	t.Run("Valid", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("Missing DB host", func(t *testing.T) {
		cfg := base()
		cfg.DBHost = ""
		assert.ErrorIs(t, cfg.Validate(), config.ErrMissingRequired)
	})

	t.Run("Bad chunk size", func(t *testing.T) {
		cfg := base()
		cfg.ChunkSize = 0
		assert.ErrorIs(t, cfg.Validate(), config.ErrMissingRequired)
	})

	t.Run("Threshold out of range", func(t *testing.T) {
		cfg := base()
		cfg.SuccessThreshold = 1.5
		assert.ErrorIs(t, cfg.Validate(), config.ErrMissingRequired)
	})
}
