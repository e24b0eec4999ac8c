// Package config loads and validates vrenamer's configuration from a JSON
// file with environment-variable overrides, the way server/config.go and
// relay/config.go do it in the sibling services: all fields validated
// together, missing ones reported in one combined error.
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"vrenamer/internal/verrors"
)

// LLMBackendConfig describes one LLM endpoint.
type LLMBackendConfig struct {
	Kind       string `json:"kind"` // "openai_compat" | "native"
	BaseURL    string `json:"base_url"`
	APIKey     string `json:"api_key"`
	Transport  string `json:"transport"` // selects the gateway backend; Kind is not consulted when building it
	Model      string `json:"model"`
	TimeoutSec int    `json:"timeout"`
	Retry      int    `json:"retry"`
}

// ConcurrencyConfig bounds the two-tier scheduler.
type ConcurrencyConfig struct {
	TaskConcurrency  int `json:"task_concurrency"`
	BatchConcurrency int `json:"batch_concurrency"`
}

// AnalysisConfig configures frame sampling and batching.
type AnalysisConfig struct {
	TasksConfigPath string `json:"tasks_config_path"`
	PromptsDir      string `json:"prompts_dir"`
	BatchSize       int    `json:"batch_size"`
	BatchSizeMax    int    `json:"batch_size_max"`
	TargetFrames    int    `json:"target_frames"`
	TargetMax       int    `json:"target_max"`
}

// NamingConfig configures the candidate generator.
type NamingConfig struct {
	Styles             []string `json:"styles"`
	StyleConfigPath    string   `json:"style_config_path"`
	CandidatesPerStyle int      `json:"candidates_per_style"`
	TotalCandidates    int      `json:"total_candidates"`
	MaxLength          int      `json:"max_length"`
}

// TranscriptConfig configures the (currently stub-only) transcription path.
type TranscriptConfig struct {
	Enabled bool   `json:"enabled"`
	Backend string `json:"backend"`
}

// AuditConfig configures the rename audit log and its optional mirror.
type AuditConfig struct {
	LogPath     string `json:"log_path"`
	PostgresURL string `json:"postgres_url,omitempty"`
}

// AppConfig is the top-level configuration tree.
type AppConfig struct {
	LLMBackend  LLMBackendConfig  `json:"llm_backend"`
	Concurrency ConcurrencyConfig `json:"concurrency"`
	Analysis    AnalysisConfig    `json:"analysis"`
	Naming      NamingConfig      `json:"naming"`
	Transcript  TranscriptConfig  `json:"transcript"`
	Audit       AuditConfig       `json:"audit"`
	LogDir      string            `json:"log_dir"`
	LogLevel    string            `json:"log_level"`
}

// Defaults returns the baseline configuration from spec defaults. Callers
// load a file over this, so a partially-specified file still validates.
func Defaults() AppConfig {
	return AppConfig{
		LLMBackend: LLMBackendConfig{
			Kind:       "openai_compat",
			Transport:  "openai_compat",
			TimeoutSec: 30,
			Retry:      3,
		},
		Concurrency: ConcurrencyConfig{
			TaskConcurrency:  4,
			BatchConcurrency: 16,
		},
		Analysis: AnalysisConfig{
			TasksConfigPath: "configs/analysis/tasks.yaml",
			PromptsDir:      "configs/prompts",
			BatchSize:       20,
			BatchSizeMax:    50,
			TargetFrames:    96,
			TargetMax:       96,
		},
		Naming: NamingConfig{
			Styles:             []string{"chinese_descriptive", "scene_role"},
			StyleConfigPath:    "configs/styles/styles.yaml",
			CandidatesPerStyle: 1,
			TotalCandidates:    5,
			MaxLength:          80,
		},
		Transcript: TranscriptConfig{Enabled: false, Backend: "dummy"},
		Audit:      AuditConfig{LogPath: "rename_audit.jsonl"},
		LogDir:     "logs",
		LogLevel:   "INFO",
	}
}

// ConfigPath returns the default config file path: a local file first,
// then a per-user dotfile, matching server.ConfigPath's fallback order.
func ConfigPath() (string, error) {
	const local = "vrenamer.config.json"
	if _, err := os.Stat(local); err == nil {
		return local, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".vrenamer", "config.json"), nil
}

// Load reads the config file (if present — a missing file is not fatal,
// since Defaults() is a usable starting point), applies environment
// overrides, then validates the result.
func Load(path string) (*AppConfig, error) {
	cfg := Defaults()

	if path == "" {
		var err error
		path, err = ConfigPath()
		if err != nil {
			return nil, &verrors.ConfigError{Detail: "resolve config path", Cause: err}
		}
	}

	if data, err := os.ReadFile(path); err == nil {
		if err := decodeJSONOver(&cfg, data); err != nil {
			return nil, &verrors.ConfigError{Detail: fmt.Sprintf("parse config file %s", path), Cause: err}
		}
	} else if !os.IsNotExist(err) {
		return nil, &verrors.ConfigError{Detail: fmt.Sprintf("read config file %s", path), Cause: err}
	} else {
		log.Printf("[Config] WARNING: no config file at %s, using defaults + environment", path)
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnvOverrides mirrors relay/config.go's os.Getenv-driven overlay:
// each recognized variable, if set, overrides the corresponding field. An
// unparseable VRENAMER_LLM_TIMEOUT_SEC is logged and ignored; unparseable
// concurrency values are ignored without a log line.
func applyEnvOverrides(cfg *AppConfig) {
	if v := os.Getenv("VRENAMER_LLM_BASE_URL"); v != "" {
		cfg.LLMBackend.BaseURL = v
	}
	if v := os.Getenv("VRENAMER_LLM_API_KEY"); v != "" {
		cfg.LLMBackend.APIKey = v
	}
	if v := os.Getenv("VRENAMER_LLM_TRANSPORT"); v != "" {
		cfg.LLMBackend.Transport = v
		cfg.LLMBackend.Kind = v
	}
	if v := os.Getenv("VRENAMER_LLM_TIMEOUT_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.LLMBackend.TimeoutSec = n
		} else {
			log.Printf("[Config] WARNING: invalid VRENAMER_LLM_TIMEOUT_SEC=%q, keeping %d", v, cfg.LLMBackend.TimeoutSec)
		}
	}
	if v := os.Getenv("VRENAMER_TASK_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Concurrency.TaskConcurrency = n
		}
	}
	if v := os.Getenv("VRENAMER_BATCH_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Concurrency.BatchConcurrency = n
		}
	}
	if v := os.Getenv("VRENAMER_AUDIT_LOG"); v != "" {
		cfg.Audit.LogPath = v
	}
	if v := os.Getenv("VRENAMER_AUDIT_POSTGRES_URL"); v != "" {
		cfg.Audit.PostgresURL = v
	}
	if v := os.Getenv("VRENAMER_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

// Validate checks every field together and returns one combined
// ConfigError listing every problem found, matching server/config.go's
// Validate() style rather than failing fast on the first bad field.
func (c *AppConfig) Validate() error {
	var problems []string

	if c.LLMBackend.BaseURL == "" {
		problems = append(problems, "llm_backend.base_url is required")
	}
	if c.LLMBackend.Transport != "openai_compat" && c.LLMBackend.Transport != "native" {
		problems = append(problems, "llm_backend.transport must be 'openai_compat' or 'native'")
	}
	if c.LLMBackend.TimeoutSec <= 0 {
		problems = append(problems, "llm_backend.timeout must be positive")
	}
	if c.Concurrency.TaskConcurrency <= 0 {
		problems = append(problems, "concurrency.task_concurrency must be positive")
	}
	if c.Concurrency.BatchConcurrency <= 0 {
		problems = append(problems, "concurrency.batch_concurrency must be positive")
	}
	if c.Analysis.BatchSize <= 0 {
		problems = append(problems, "analysis.batch_size must be positive")
	}
	if c.Analysis.BatchSizeMax <= 0 {
		problems = append(problems, "analysis.batch_size_max must be positive")
	}
	if c.Analysis.BatchSize > c.Analysis.BatchSizeMax {
		problems = append(problems, "analysis.batch_size must be <= analysis.batch_size_max")
	}
	if c.Analysis.TargetMax <= 0 {
		problems = append(problems, "analysis.target_max must be positive")
	}
	if c.Naming.MaxLength <= 0 {
		problems = append(problems, "naming.max_length must be positive")
	}
	if c.Naming.TotalCandidates <= 0 {
		problems = append(problems, "naming.total_candidates must be positive")
	}
	if c.Naming.CandidatesPerStyle <= 0 {
		problems = append(problems, "naming.candidates_per_style must be positive")
	}
	if c.Audit.LogPath == "" {
		problems = append(problems, "audit.log_path is required")
	}

	if len(problems) > 0 {
		return &verrors.ConfigError{Detail: strings.Join(problems, "; ")}
	}
	return nil
}

// Save writes the config to path, validating first, mirroring
// server/config.go's Save.
func (c *AppConfig) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	data, err := marshalIndent(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
