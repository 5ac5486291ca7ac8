package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_ValidJSON(t *testing.T) {
	content := `{
		"ocr_engine": "gemini",
		"tesseract_lang": "eng+hin",
		"ocr_workers": 3,
		"use_browser": true,
		"database_url": "postgres://localhost/achievements",
		"verbose": true
	}`

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(tmpFile, []byte(content), 0644))

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "gemini", cfg.OCREngine)
	assert.Equal(t, "eng+hin", cfg.TesseractLang)
	assert.Equal(t, 3, cfg.OCRWorkers)
	assert.True(t, cfg.UseBrowser)
	assert.Equal(t, "postgres://localhost/achievements", cfg.DatabaseURL)
	assert.True(t, cfg.Verbose)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(tmpFile, []byte(`{ invalid json }`), 0644))

	cfg, err := LoadConfig(tmpFile)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "config path is empty")
}

func TestValidate(t *testing.T) {
	existing := filepath.Join(t.TempDir(), "taxonomy.yaml")
	require.NoError(t, os.WriteFile(existing, []byte("version: 1"), 0644))

	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "empty is valid", cfg: Config{}},
		{name: "gemini engine", cfg: Config{OCREngine: "Gemini"}},
		{name: "existing taxonomy", cfg: Config{Taxonomy: existing}},
		{name: "unknown engine", cfg: Config{OCREngine: "easyocr"}, wantErr: "ocr_engine"},
		{name: "negative workers", cfg: Config{OCRWorkers: -1}, wantErr: "ocr_workers"},
		{name: "negative timeout", cfg: Config{FetchTimeoutSecs: -1}, wantErr: "fetch_timeout_secs"},
		{name: "negative size", cfg: Config{MaxDocumentMB: -1}, wantErr: "max_document_mb"},
		{name: "negative batch", cfg: Config{BatchConcurrency: -2}, wantErr: "batch_concurrency"},
		{name: "port out of range", cfg: Config{Port: 70000}, wantErr: "port"},
		{name: "missing taxonomy", cfg: Config{Taxonomy: "/nonexistent/taxonomy.json"}, wantErr: "taxonomy file not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := &Config{OCREngine: "GEMINI", OCRWorkers: 5}
	defaults := Config{
		Taxonomy:    "taxonomy.yaml",
		OCREngine:   "tesseract",
		OCRWorkers:  1,
		APIKey:      "key-from-env",
		DatabaseURL: "postgres://db",
		UseBrowser:  true,
	}

	merged := cfg.MergeWithDefaults(defaults)

	assert.Equal(t, "gemini", merged.OCREngine)
	assert.Equal(t, 5, merged.OCRWorkers)
	assert.Equal(t, "taxonomy.yaml", merged.Taxonomy)
	assert.Equal(t, "key-from-env", merged.APIKey)
	assert.Equal(t, "postgres://db", merged.DatabaseURL)
	assert.True(t, merged.UseBrowser)

	assert.Equal(t, DefaultTesseractBin, merged.TesseractBin)
	assert.Equal(t, DefaultTesseractLang, merged.TesseractLang)
	assert.Equal(t, DefaultFetchTimeoutSecs, merged.FetchTimeoutSecs)
	assert.Equal(t, DefaultMaxDocumentMB, merged.MaxDocumentMB)
	assert.Equal(t, DefaultBatchConcurrency, merged.BatchConcurrency)
	assert.Equal(t, DefaultPort, merged.Port)

	assert.Equal(t, "GEMINI", cfg.OCREngine, "receiver must not be modified")
}

func TestDurations(t *testing.T) {
	cfg := Config{FetchTimeoutSecs: 15, MaxDocumentMB: 2}
	assert.Equal(t, 15*time.Second, cfg.FetchTimeout())
	assert.Equal(t, int64(2<<20), cfg.MaxDocumentBytes())
}
