package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// DefaultCategories is the closed category set the classifier assigns.
var DefaultCategories = []string{
	"iphone", "processors", "videocards", "motherboards",
	"playstation", "nintendo-switch", "steam-deck",
}

// Config holds runtime parameters for the classifier and its drivers.
// Zero values mean "unspecified" and are replaced by Default() in Merge.
type Config struct {
	RuntimeBin        string   `json:"runtime_bin" yaml:"runtime_bin" toml:"runtime_bin"`
	ModelName         string   `json:"model_name" yaml:"model_name" toml:"model_name"`
	Categories        []string `json:"categories" yaml:"categories" toml:"categories"`
	SingleTimeoutSec  int      `json:"single_timeout_sec" yaml:"single_timeout_sec" toml:"single_timeout_sec"`
	BatchTimeoutSec   int      `json:"batch_timeout_sec" yaml:"batch_timeout_sec" toml:"batch_timeout_sec"`
	GPUTool           string   `json:"gpu_tool" yaml:"gpu_tool" toml:"gpu_tool"`
	MonitorIntervalMS int      `json:"monitor_interval_ms" yaml:"monitor_interval_ms" toml:"monitor_interval_ms"`
	MonitorBackoffMS  int      `json:"monitor_backoff_ms" yaml:"monitor_backoff_ms" toml:"monitor_backoff_ms"`
	ModelSizeGB       float64  `json:"model_size_gb" yaml:"model_size_gb" toml:"model_size_gb"`
	Addr              string   `json:"addr" yaml:"addr" toml:"addr"`
	MaxBatch          int      `json:"max_batch" yaml:"max_batch" toml:"max_batch"`
	CORSOrigins       []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
	HistoryDB         string   `json:"history_db" yaml:"history_db" toml:"history_db"`
	LogLevel          string   `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat         string   `json:"log_format" yaml:"log_format" toml:"log_format"`
	// Spinner is a pointer so that an explicit false in a file survives Merge.
	Spinner *bool `json:"spinner,omitempty" yaml:"spinner,omitempty" toml:"spinner,omitempty"`
}

// Default returns the built-in configuration.
func Default() Config {
	on := true
	return Config{
		RuntimeBin:        "ollama",
		ModelName:         "t-pro-it-2.0-optimized",
		Categories:        append([]string(nil), DefaultCategories...),
		SingleTimeoutSec:  120,
		BatchTimeoutSec:   300,
		GPUTool:           "nvidia-smi",
		MonitorIntervalMS: 1000,
		MonitorBackoffMS:  2000,
		ModelSizeGB:       12.3,
		Addr:              ":8080",
		MaxBatch:          50,
		LogLevel:          "info",
		LogFormat:         "console",
		Spinner:           &on,
	}
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := Unmarshal(filepath.Ext(path), b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Unmarshal decodes b into v using the codec selected by a file extension.
func Unmarshal(ext string, b []byte, v any) error {
	switch ext := strings.ToLower(ext); ext {
	case ".yaml", ".yml":
		return yaml.Unmarshal(b, v)
	case ".json":
		return json.Unmarshal(b, v)
	case ".toml":
		return toml.Unmarshal(b, v)
	default:
		return fmt.Errorf("unsupported config extension: %s", ext)
	}
}

// Merge overlays the non-zero fields of o onto c and returns the result.
func (c Config) Merge(o Config) Config {
	if o.RuntimeBin != "" {
		c.RuntimeBin = o.RuntimeBin
	}
	if o.ModelName != "" {
		c.ModelName = o.ModelName
	}
	if len(o.Categories) > 0 {
		c.Categories = append([]string(nil), o.Categories...)
	}
	if o.SingleTimeoutSec > 0 {
		c.SingleTimeoutSec = o.SingleTimeoutSec
	}
	if o.BatchTimeoutSec > 0 {
		c.BatchTimeoutSec = o.BatchTimeoutSec
	}
	if o.GPUTool != "" {
		c.GPUTool = o.GPUTool
	}
	if o.MonitorIntervalMS > 0 {
		c.MonitorIntervalMS = o.MonitorIntervalMS
	}
	if o.MonitorBackoffMS > 0 {
		c.MonitorBackoffMS = o.MonitorBackoffMS
	}
	if o.ModelSizeGB > 0 {
		c.ModelSizeGB = o.ModelSizeGB
	}
	if o.Addr != "" {
		c.Addr = o.Addr
	}
	if o.MaxBatch > 0 {
		c.MaxBatch = o.MaxBatch
	}
	if len(o.CORSOrigins) > 0 {
		c.CORSOrigins = append([]string(nil), o.CORSOrigins...)
	}
	if o.HistoryDB != "" {
		c.HistoryDB = o.HistoryDB
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
	if o.LogFormat != "" {
		c.LogFormat = o.LogFormat
	}
	if o.Spinner != nil {
		v := *o.Spinner
		c.Spinner = &v
	}
	return c
}

// ApplyEnv overlays PRODCLASS_* environment variables read through getenv.
func (c Config) ApplyEnv(getenv func(string) string) Config {
	var o Config
	o.RuntimeBin = getenv("PRODCLASS_RUNTIME_BIN")
	o.ModelName = getenv("PRODCLASS_MODEL")
	if v := getenv("PRODCLASS_CATEGORIES"); v != "" {
		o.Categories = SplitCSV(v)
	}
	o.SingleTimeoutSec = atoi(getenv("PRODCLASS_SINGLE_TIMEOUT_SEC"))
	o.BatchTimeoutSec = atoi(getenv("PRODCLASS_BATCH_TIMEOUT_SEC"))
	o.GPUTool = getenv("PRODCLASS_GPU_TOOL")
	o.Addr = getenv("PRODCLASS_ADDR")
	o.HistoryDB = getenv("PRODCLASS_HISTORY_DB")
	o.LogLevel = getenv("PRODCLASS_LOG_LEVEL")
	o.LogFormat = getenv("PRODCLASS_LOG_FORMAT")
	if v := getenv("PRODCLASS_SPINNER"); v != "" {
		b := v == "1" || strings.EqualFold(v, "true") || strings.EqualFold(v, "yes")
		o.Spinner = &b
	}
	return c.Merge(o)
}

// Validate checks the invariants the classifier relies on.
func (c Config) Validate() error {
	if strings.TrimSpace(c.ModelName) == "" {
		return fmt.Errorf("model_name is required")
	}
	if strings.TrimSpace(c.RuntimeBin) == "" {
		return fmt.Errorf("runtime_bin is required")
	}
	if len(c.Categories) == 0 {
		return fmt.Errorf("at least one category is required")
	}
	seen := make(map[string]bool, len(c.Categories))
	for _, cat := range c.Categories {
		k := strings.ToLower(strings.TrimSpace(cat))
		if k == "" {
			return fmt.Errorf("empty category")
		}
		if k == "unknown" {
			return fmt.Errorf("category %q is reserved", cat)
		}
		if seen[k] {
			return fmt.Errorf("duplicate category %q", cat)
		}
		seen[k] = true
	}
	return nil
}

// SingleTimeout is the bound for one single-product runtime invocation.
func (c Config) SingleTimeout() time.Duration { return time.Duration(c.SingleTimeoutSec) * time.Second }

// BatchTimeout is the bound for one batch runtime invocation.
func (c Config) BatchTimeout() time.Duration { return time.Duration(c.BatchTimeoutSec) * time.Second }

// MonitorInterval is the pause between resource samples.
func (c Config) MonitorInterval() time.Duration { return time.Duration(c.MonitorIntervalMS) * time.Millisecond }

// MonitorBackoff is the pause after a failed resource sample.
func (c Config) MonitorBackoff() time.Duration { return time.Duration(c.MonitorBackoffMS) * time.Millisecond }

// SpinnerEnabled reports whether the terminal progress indicator is on.
func (c Config) SpinnerEnabled() bool { return c.Spinner == nil || *c.Spinner }

// SplitCSV splits a comma-separated list, trimming blanks.
func SplitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func atoi(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}
