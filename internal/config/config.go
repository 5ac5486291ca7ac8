// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Defaults applied by MergeWithDefaults when neither the file nor a flag sets a value.
const (
	DefaultOCREngine        = "tesseract"
	DefaultTesseractBin     = "tesseract"
	DefaultTesseractLang    = "eng"
	DefaultOCRWorkers       = 2
	DefaultFetchTimeoutSecs = 30
	DefaultMaxDocumentMB    = 20
	DefaultBatchConcurrency = 4
	DefaultPort             = 8080
)

// Config represents the configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Classification
	Taxonomy string `json:"taxonomy,omitempty"` // Path to a JSON or YAML taxonomy override

	// Text recognition
	OCREngine     string `json:"ocr_engine,omitempty"`     // "tesseract" or "gemini"
	TesseractBin  string `json:"tesseract_bin,omitempty"`  // tesseract binary name or path
	TesseractLang string `json:"tesseract_lang,omitempty"` // tesseract language, e.g. "eng" or "eng+hin"
	OCRWorkers    int    `json:"ocr_workers,omitempty"`    // Maximum concurrent recognitions

	// Fetching
	FetchTimeoutSecs int  `json:"fetch_timeout_secs,omitempty"` // HTTP timeout per evidence download
	MaxDocumentMB    int  `json:"max_document_mb,omitempty"`    // Size cap per evidence document
	UseBrowser       bool `json:"use_browser,omitempty"`        // Render JS credential pages in headless Chrome

	// Pipeline
	BatchConcurrency int `json:"batch_concurrency,omitempty"` // Certificates processed at once in a batch

	// Services
	APIKey      string `json:"api_key,omitempty"`      // Gemini API key
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL
	Port        int    `json:"port,omitempty"`         // HTTP server port

	Verbose bool `json:"verbose,omitempty"` // Print detailed debug information
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Required values are checked by the commands that need them.
func (c *Config) Validate() error {
	switch strings.ToLower(c.OCREngine) {
	case "", "tesseract", "gemini":
	default:
		return fmt.Errorf("config error: 'ocr_engine' must be \"tesseract\" or \"gemini\", got %q", c.OCREngine)
	}

	if c.OCRWorkers < 0 {
		return fmt.Errorf("config error: 'ocr_workers' must be non-negative")
	}
	if c.FetchTimeoutSecs < 0 {
		return fmt.Errorf("config error: 'fetch_timeout_secs' must be non-negative")
	}
	if c.MaxDocumentMB < 0 {
		return fmt.Errorf("config error: 'max_document_mb' must be non-negative")
	}
	if c.BatchConcurrency < 0 {
		return fmt.Errorf("config error: 'batch_concurrency' must be non-negative")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535")
	}

	if c.Taxonomy != "" {
		if _, err := os.Stat(c.Taxonomy); os.IsNotExist(err) {
			return fmt.Errorf("config error: taxonomy file not found: %s", c.Taxonomy)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults, then from
// the package defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Taxonomy == "" {
		result.Taxonomy = defaults.Taxonomy
	}
	result.OCREngine = firstString(strings.ToLower(result.OCREngine), strings.ToLower(defaults.OCREngine), DefaultOCREngine)
	result.TesseractBin = firstString(result.TesseractBin, defaults.TesseractBin, DefaultTesseractBin)
	result.TesseractLang = firstString(result.TesseractLang, defaults.TesseractLang, DefaultTesseractLang)
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}

	result.OCRWorkers = firstInt(result.OCRWorkers, defaults.OCRWorkers, DefaultOCRWorkers)
	result.FetchTimeoutSecs = firstInt(result.FetchTimeoutSecs, defaults.FetchTimeoutSecs, DefaultFetchTimeoutSecs)
	result.MaxDocumentMB = firstInt(result.MaxDocumentMB, defaults.MaxDocumentMB, DefaultMaxDocumentMB)
	result.BatchConcurrency = firstInt(result.BatchConcurrency, defaults.BatchConcurrency, DefaultBatchConcurrency)
	result.Port = firstInt(result.Port, defaults.Port, DefaultPort)

	// Bool fields: cannot distinguish unset from false, so flags and file are OR-ed.
	result.UseBrowser = result.UseBrowser || defaults.UseBrowser
	result.Verbose = result.Verbose || defaults.Verbose

	return result
}

// FetchTimeout returns the fetch timeout as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSecs) * time.Second
}

// MaxDocumentBytes returns the document size cap in bytes.
func (c *Config) MaxDocumentBytes() int64 {
	return int64(c.MaxDocumentMB) << 20
}

func firstString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstInt(values ...int) int {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}
