// Package config loads client settings from .multiviral.yaml, a .env file and
// the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file looked up from the working directory.
const FileName = ".multiviral.yaml"

// Defaults.
const (
	DefaultAPIURL          = "http://localhost:8001"
	DefaultPollInterval    = 3 * time.Second
	DefaultDataDir         = "./data"
	DefaultTranscript      = "ja"
	DefaultOutput          = "same"
	DefaultRequestTimeout  = 30 * time.Second
	DefaultUploadTimeout   = 30 * time.Minute
	DefaultResultsAttempts = 3
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
)

// placeholderStorageURL is the value shipped in example env files.
const placeholderStorageURL = "https://your-project.supabase.co"

// APIConfig holds backend connection settings.
type APIConfig struct {
	URL            string        `yaml:"url,omitempty"`
	RequestTimeout time.Duration `yaml:"request_timeout,omitempty"`
	UploadTimeout  time.Duration `yaml:"upload_timeout,omitempty"`
}

// PollConfig holds job tracking settings.
type PollConfig struct {
	Interval time.Duration `yaml:"interval,omitempty"`

	// ResultsAttempts bounds the refetches made when a job completes before its results are visible.
	ResultsAttempts int `yaml:"results_attempts,omitempty"`
}

// SubmitConfig holds default submission options.
type SubmitConfig struct {
	TranscriptLanguage string `yaml:"transcript_language,omitempty"`
	OutputLanguage     string `yaml:"output_language,omitempty"`
}

// StorageConfig holds the external storage service credentials.
type StorageConfig struct {
	URL     string `yaml:"url,omitempty"`
	AnonKey string `yaml:"anon_key,omitempty"`
}

// Configured reports whether usable credentials are present. The placeholder
// URL from example files counts as unconfigured.
func (s StorageConfig) Configured() bool {
	return s.URL != "" && s.AnonKey != "" && strings.TrimRight(s.URL, "/") != placeholderStorageURL
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// Config is the effective client configuration.
type Config struct {
	API     APIConfig     `yaml:"api,omitempty"`
	Poll    PollConfig    `yaml:"poll,omitempty"`
	Submit  SubmitConfig  `yaml:"submit,omitempty"`
	DataDir string        `yaml:"data_dir,omitempty"`
	Storage StorageConfig `yaml:"storage,omitempty"`
	Log     LogConfig     `yaml:"log,omitempty"`

	// Source is the config file that was loaded, empty when none was found.
	Source string `yaml:"-"`
}

// New returns a Config with all defaults populated.
func New() *Config {
	return &Config{
		API: APIConfig{
			URL:            DefaultAPIURL,
			RequestTimeout: DefaultRequestTimeout,
			UploadTimeout:  DefaultUploadTimeout,
		},
		Poll: PollConfig{
			Interval:        DefaultPollInterval,
			ResultsAttempts: DefaultResultsAttempts,
		},
		Submit: SubmitConfig{
			TranscriptLanguage: DefaultTranscript,
			OutputLanguage:     DefaultOutput,
		},
		DataDir: DefaultDataDir,
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// Load builds the configuration for startDir. A missing config file or .env
// file is not an error; unreadable or malformed ones are.
func Load(startDir string) (*Config, error) {
	cfg := New()

	path, data, err := findConfigFile(startDir)
	switch {
	case err == nil:
		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		merge(cfg, &fileCfg)
		cfg.Source = path
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("loading %s: %w", FileName, err)
	}

	envFile := filepath.Join(startDir, ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", envFile, err)
	}

	if err := applyEnv(cfg, os.Getenv); err != nil {
		return nil, err
	}
	cfg.API.URL = strings.TrimRight(cfg.API.URL, "/")
	return cfg, nil
}

// findConfigFile walks up from dir looking for FileName (max 10 levels).
func findConfigFile(dir string) (string, []byte, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", nil, fmt.Errorf("resolving path %q: %w", dir, err)
	}
	dir = absDir

	for i := 0; i < 10; i++ {
		p := filepath.Join(dir, FileName)
		data, err := os.ReadFile(p)
		if err == nil {
			return p, data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", nil, fmt.Errorf("reading %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", nil, os.ErrNotExist
}

// merge overlays non-zero values from src onto dst.
func merge(dst, src *Config) {
	if src.API.URL != "" {
		dst.API.URL = src.API.URL
	}
	if src.API.RequestTimeout != 0 {
		dst.API.RequestTimeout = src.API.RequestTimeout
	}
	if src.API.UploadTimeout != 0 {
		dst.API.UploadTimeout = src.API.UploadTimeout
	}

	if src.Poll.Interval != 0 {
		dst.Poll.Interval = src.Poll.Interval
	}
	if src.Poll.ResultsAttempts != 0 {
		dst.Poll.ResultsAttempts = src.Poll.ResultsAttempts
	}

	if src.Submit.TranscriptLanguage != "" {
		dst.Submit.TranscriptLanguage = src.Submit.TranscriptLanguage
	}
	if src.Submit.OutputLanguage != "" {
		dst.Submit.OutputLanguage = src.Submit.OutputLanguage
	}

	if src.DataDir != "" {
		dst.DataDir = src.DataDir
	}

	if src.Storage.URL != "" {
		dst.Storage.URL = src.Storage.URL
	}
	if src.Storage.AnonKey != "" {
		dst.Storage.AnonKey = src.Storage.AnonKey
	}

	if src.Log.Level != "" {
		dst.Log.Level = src.Log.Level
	}
	if src.Log.Format != "" {
		dst.Log.Format = src.Log.Format
	}
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	if v := firstNonEmpty(getenv("MULTIVIRAL_API_URL"), getenv("NEXT_PUBLIC_API_URL")); v != "" {
		cfg.API.URL = v
	}
	if v := getenv("MULTIVIRAL_POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("MULTIVIRAL_POLL_INTERVAL: %w", err)
		}
		cfg.Poll.Interval = d
	}
	if v := getenv("MULTIVIRAL_RESULTS_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MULTIVIRAL_RESULTS_ATTEMPTS: %w", err)
		}
		cfg.Poll.ResultsAttempts = n
	}
	if v := getenv("MULTIVIRAL_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := firstNonEmpty(getenv("SUPABASE_URL"), getenv("NEXT_PUBLIC_SUPABASE_URL")); v != "" {
		cfg.Storage.URL = v
	}
	if v := firstNonEmpty(getenv("SUPABASE_ANON_KEY"), getenv("NEXT_PUBLIC_SUPABASE_ANON_KEY")); v != "" {
		cfg.Storage.AnonKey = v
	}
	if v := getenv("MULTIVIRAL_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := getenv("MULTIVIRAL_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
