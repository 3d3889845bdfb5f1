// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/studyrun/internal/model"
	"github.com/jeranaias/studyrun/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the root configuration structure.
type Config struct {
	Backend BackendConfig `toml:"backend" json:"backend"`
	Log     LogConfig     `toml:"log" json:"log"`
	UI      UIConfig      `toml:"ui" json:"ui"`
}

// BackendConfig describes how to reach the study assistant API.
type BackendConfig struct {
	// URL is the API base URL.
	URL string `toml:"url" json:"url"`

	// TimeoutSecs bounds start and chat requests.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`

	// AnalyzeTimeoutSecs bounds content generation. 0 disables the limit.
	AnalyzeTimeoutSecs int `toml:"analyze_timeout_secs" json:"analyze_timeout_secs"`

	// IngestTimeoutSecs bounds document uploads.
	IngestTimeoutSecs int `toml:"ingest_timeout_secs" json:"ingest_timeout_secs"`

	// TopK is the retrieval breadth sent with each chat turn.
	TopK int `toml:"top_k" json:"top_k"`

	// RequestsPerSecond limits outgoing requests. 0 disables the limiter.
	RequestsPerSecond float64 `toml:"requests_per_second" json:"requests_per_second"`
	Burst             int     `toml:"burst" json:"burst"`
}

// LogConfig controls the log file.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level" json:"level"`

	// File is the log path. Empty means ~/.studyrun/studyrun.log.
	File string `toml:"file" json:"file"`
}

// UIConfig holds front end preferences.
type UIConfig struct {
	// Compact hides the key help line in the TUI.
	Compact bool `toml:"compact" json:"compact"`

	// Markdown renders generated content through glamour.
	Markdown bool `toml:"markdown" json:"markdown"`

	// DefaultFormat is the preferred content format at startup:
	// auto, video, audio or texto.
	DefaultFormat string `toml:"default_format" json:"default_format"`
}

// Default returns a new Config with default values.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			URL:                "http://127.0.0.1:8000",
			TimeoutSecs:        60,
			AnalyzeTimeoutSecs: 300,
			IngestTimeoutSecs:  600,
			TopK:               5,
			RequestsPerSecond:  5,
			Burst:              10,
		},
		Log: LogConfig{
			Level: "info",
		},
		UI: UIConfig{
			Markdown:      true,
			DefaultFormat: "auto",
		},
	}
}

// Timeout returns TimeoutSecs as a duration.
func (b BackendConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSecs) * time.Second
}

// AnalyzeTimeout returns AnalyzeTimeoutSecs as a duration; zero means none.
func (b BackendConfig) AnalyzeTimeout() time.Duration {
	return time.Duration(b.AnalyzeTimeoutSecs) * time.Second
}

// IngestTimeout returns IngestTimeoutSecs as a duration.
func (b BackendConfig) IngestTimeout() time.Duration {
	return time.Duration(b.IngestTimeoutSecs) * time.Second
}

// Format parses DefaultFormat. Invalid values fall back to automatic;
// Validate reports them.
func (u UIConfig) Format() model.Format {
	f, err := model.ParseFormat(u.DefaultFormat)
	if err != nil {
		return model.FormatAuto
	}
	return f
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the studyrun configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".studyrun"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// LogPath returns the log file path, resolving the default.
func (c *Config) LogPath() (string, error) {
	if c.Log.File != "" {
		return util.ExpandHome(c.Log.File), nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "studyrun.log"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads ~/.studyrun/config.toml, falling back to config.json and then
// to defaults. Environment overrides are applied last.
func Load() (*Config, error) {
	for _, pathFn := range []func() (string, error){ConfigPathTOML, ConfigPathJSON} {
		path, err := pathFn()
		if err != nil {
			continue
		}
		if _, statErr := os.Stat(path); statErr == nil {
			return LoadFromPath(path)
		}
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromPath loads a specific file (JSON when the name ends in .json,
// TOML otherwise) over the defaults, applies environment overrides and
// validates the result.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(strings.ToLower(path), ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file into cfg. Keys absent from the file keep
// their current values.
func LoadTOML(cfg *Config, path string) error {
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// LoadJSON decodes a JSON file into cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes the configuration to ~/.studyrun/config.toml.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration atomically with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# studyrun configuration file\n")
	buf.WriteString("# analyze_timeout_secs = 0 waits for generation indefinitely.\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON writes the configuration as indented JSON.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// String renders the configuration as TOML.
func (c *Config) String() string {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Sprintf("<config: %v>", err)
	}
	return buf.String()
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate checks every field and returns ValidateErrors listing all problems.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if u, err := url.Parse(c.Backend.URL); err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		add("backend.url", "invalid URL '%s', must be http(s)://host[:port]", c.Backend.URL)
	}
	if c.Backend.TimeoutSecs <= 0 {
		add("backend.timeout_secs", "must be positive, got %d", c.Backend.TimeoutSecs)
	}
	if c.Backend.AnalyzeTimeoutSecs < 0 {
		add("backend.analyze_timeout_secs", "must be 0 (no limit) or positive, got %d", c.Backend.AnalyzeTimeoutSecs)
	}
	if c.Backend.IngestTimeoutSecs <= 0 {
		add("backend.ingest_timeout_secs", "must be positive, got %d", c.Backend.IngestTimeoutSecs)
	}
	if c.Backend.TopK < 1 || c.Backend.TopK > 50 {
		add("backend.top_k", "must be between 1 and 50, got %d", c.Backend.TopK)
	}
	if c.Backend.RequestsPerSecond < 0 {
		add("backend.requests_per_second", "must be 0 (unlimited) or positive, got %g", c.Backend.RequestsPerSecond)
	}
	if c.Backend.Burst < 1 {
		add("backend.burst", "must be at least 1, got %d", c.Backend.Burst)
	}

	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		add("log.level", "invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level)
	}

	if _, err := model.ParseFormat(c.UI.DefaultFormat); err != nil {
		add("ui.default_format", "invalid format '%s', must be one of: auto, video, audio, texto", c.UI.DefaultFormat)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies STUDYRUN_* environment variables:
//   - STUDYRUN_BACKEND_URL: overrides backend.url
//   - STUDYRUN_TOP_K: overrides backend.top_k
//   - STUDYRUN_ANALYZE_TIMEOUT: overrides backend.analyze_timeout_secs
//   - STUDYRUN_LOG_LEVEL: overrides log.level
//   - STUDYRUN_LOG_FILE: overrides log.file
//   - STUDYRUN_FORMAT: overrides ui.default_format
//
// Unparseable numbers are ignored.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("STUDYRUN_BACKEND_URL"); v != "" {
		c.Backend.URL = v
	}
	if v := os.Getenv("STUDYRUN_TOP_K"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Backend.TopK = n
		}
	}
	if v := os.Getenv("STUDYRUN_ANALYZE_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Backend.AnalyzeTimeoutSecs = n
		}
	}
	if v := os.Getenv("STUDYRUN_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("STUDYRUN_LOG_FILE"); v != "" {
		c.Log.File = v
	}
	if v := os.Getenv("STUDYRUN_FORMAT"); v != "" {
		c.UI.DefaultFormat = v
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Keys returns every settable key in dot notation, sorted.
func Keys() []string {
	var keys []string
	walkFields(reflect.TypeOf(Config{}), "", func(key string, _ []int) {
		keys = append(keys, key)
	})
	sort.Strings(keys)
	return keys
}

// Get returns the value at key (e.g. "backend.top_k").
func (c *Config) Get(key string) (any, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set parses value according to the field's type and stores it at key.
// The caller should Validate afterwards.
func (c *Config) Set(key, value string) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}

	value = strings.TrimSpace(value)
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: expected an integer, got %q", key, value)
		}
		field.SetInt(int64(n))
	case reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%s: expected a number, got %q", key, value)
		}
		field.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: expected true or false, got %q", key, value)
		}
		field.SetBool(b)
	default:
		return fmt.Errorf("%s: unsupported type %s", key, field.Kind())
	}
	return nil
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return reflect.Value{}, errors.New("empty key")
	}

	var index []int
	walkFields(reflect.TypeOf(*c), "", func(k string, idx []int) {
		if k == key {
			index = idx
		}
	})
	if index == nil {
		return reflect.Value{}, fmt.Errorf("unknown key: %s", key)
	}
	return reflect.ValueOf(c).Elem().FieldByIndex(index), nil
}

// walkFields visits every leaf field of t, naming it by its toml tags.
func walkFields(t reflect.Type, prefix string, visit func(key string, index []int)) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := strings.Split(f.Tag.Get("toml"), ",")[0]
		if name == "" || name == "-" {
			continue
		}
		key := name
		if prefix != "" {
			key = prefix + "." + name
		}
		if f.Type.Kind() == reflect.Struct {
			walkFields(f.Type, key, func(k string, idx []int) {
				visit(k, append([]int{i}, idx...))
			})
			continue
		}
		visit(key, []int{i})
	}
}
