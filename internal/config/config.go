package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Config holds every tunable for the server and the CLI commands.
type Config struct {
	Port           int      `toml:"port"`
	MediaRoot      string   `toml:"media_root"`
	DataPath       string   `toml:"data_path"`
	Engine         string   `toml:"engine"`
	Model          string   `toml:"model"`
	PythonBin      string   `toml:"python_bin"`
	WhisperCppURL  string   `toml:"whispercpp_url"`
	OpenAIKey      string   `toml:"openai_api_key"`
	CORSOrigins    []string `toml:"cors_origins"`
	DisableHWAccel bool     `toml:"disable_hwaccel"`
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Port:        5000,
		MediaRoot:   "~",
		DataPath:    "~/.local/share/hardsub",
		Engine:      "faster-whisper",
		Model:       "small",
		PythonBin:   "python3",
		CORSOrigins: []string{"*"},
	}
}

// DefaultConfigPath returns the absolute path of the default config file.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/hardsub/config.toml")
}

// Load locates and parses a configuration file, applies environment
// overrides, and normalizes paths. It returns the resolved config path
// and whether a file was actually read; a missing file is not an error.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolved)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		if err := toml.NewDecoder(file).Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("HARDSUB_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HARDSUB_PORT %q: %w", v, err)
		}
		c.Port = port
	}
	c.MediaRoot = getEnv("HARDSUB_MEDIA_ROOT", c.MediaRoot)
	c.DataPath = getEnv("HARDSUB_DATA_PATH", c.DataPath)
	c.Engine = getEnv("HARDSUB_ENGINE", c.Engine)
	c.Model = getEnv("HARDSUB_MODEL", c.Model)
	c.PythonBin = getEnv("HARDSUB_PYTHON", c.PythonBin)
	c.WhisperCppURL = getEnv("HARDSUB_WHISPERCPP_URL", c.WhisperCppURL)
	c.OpenAIKey = getEnv("OPENAI_API_KEY", c.OpenAIKey)

	if v := os.Getenv("HARDSUB_CORS_ORIGINS"); v != "" {
		c.CORSOrigins = splitOrigins(v)
	}
	if v := os.Getenv("HARDSUB_DISABLE_HWACCEL"); v != "" {
		c.DisableHWAccel = v == "1" || strings.EqualFold(v, "true")
	}
	return nil
}

func (c *Config) normalize() error {
	mediaRoot, err := expandPath(c.MediaRoot)
	if err != nil {
		return err
	}
	c.MediaRoot = mediaRoot

	dataPath, err := expandPath(c.DataPath)
	if err != nil {
		return err
	}
	c.DataPath = dataPath

	c.WhisperCppURL = strings.TrimRight(strings.TrimSpace(c.WhisperCppURL), "/")
	c.Engine = strings.TrimSpace(c.Engine)
	c.Model = strings.TrimSpace(c.Model)
	return nil
}

func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	info, err := os.Stat(c.MediaRoot)
	if err != nil {
		return fmt.Errorf("media root %q: %w", c.MediaRoot, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("media root %q is not a directory", c.MediaRoot)
	}
	return nil
}

// EnsureDataDir creates the data directory used for thumbnails and the
// server lock file.
func (c *Config) EnsureDataDir() error {
	if err := os.MkdirAll(c.ThumbnailDir(), 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	return nil
}

// ThumbnailDir returns the directory where generated thumbnails are cached.
func (c *Config) ThumbnailDir() string {
	return filepath.Join(c.DataPath, "thumbnails")
}

// LockPath returns the path of the lock file guarding a running server.
func (c *Config) LockPath() string {
	return filepath.Join(c.DataPath, "hardsub.lock")
}

// CreateSample writes the embedded sample configuration to path,
// creating parent directories. Existing files are left alone.
func CreateSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func splitOrigins(v string) []string {
	parts := strings.Split(v, ",")
	origins := make([]string, 0, len(parts))
	for _, o := range parts {
		o = strings.TrimSpace(o)
		if o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && pathValue[1] == '/' {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
