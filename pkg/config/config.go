// Package config provides hierarchical configuration management.
// Priority: defaults < system < user < project < env < flags
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/logflow/procmine/pkg/discovery"
	"github.com/logflow/procmine/pkg/errors"
	"github.com/logflow/procmine/pkg/results"
)

// Config holds all procmine configuration.
type Config struct {
	Version int `yaml:"version"`

	Discovery DiscoveryConfig `yaml:"discovery"`
	Input     InputConfig     `yaml:"input"`
	Storage   StorageConfig   `yaml:"storage"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// DiscoveryConfig controls the miner.
type DiscoveryConfig struct {
	Thresholds      []float64             `yaml:"thresholds"`
	Policy          string                `yaml:"policy"` // lowest | highest | fewest-discards
	Parallelism     int                   `yaml:"parallelism"`
	RepairLifecycle bool                  `yaml:"repair_lifecycle"`
	Debug           bool                  `yaml:"debug"`
	Classifier      string                `yaml:"classifier"` // name | name+lifecycle | name+resource
	Chains          discovery.ChainConfig `yaml:"chains"`
}

// InputConfig maps tabular logs onto events.
type InputConfig struct {
	CaseColumn      string `yaml:"case_column"`
	ActivityColumn  string `yaml:"activity_column"`
	TimestampColumn string `yaml:"timestamp_column"`
	ResourceColumn  string `yaml:"resource_column"`
	LifecycleColumn string `yaml:"lifecycle_column"`
	TimestampFormat string `yaml:"timestamp_format"`
	Delimiter       string `yaml:"delimiter"`
	Sheet           string `yaml:"sheet"`
	SortByTime      bool   `yaml:"sort_by_time"`
}

// StorageConfig covers object storage and result persistence.
type StorageConfig struct {
	S3      S3Config       `yaml:"s3"`
	Results results.Config `yaml:"results"`
}

// S3Config for reading logs from and writing results to S3.
type S3Config struct {
	Bucket       string        `yaml:"bucket"`
	Region       string        `yaml:"region"`
	Endpoint     string        `yaml:"endpoint"`
	UsePathStyle bool          `yaml:"use_path_style"`
	Timeout      time.Duration `yaml:"timeout"`
}

// TelemetryConfig for logs, traces and metrics.
type TelemetryConfig struct {
	LogLevel     string `yaml:"log_level"`
	Tracing      bool   `yaml:"tracing"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	Insecure     bool   `yaml:"insecure"`
	MetricsAddr  string `yaml:"metrics_addr"`
}

// Default returns the default configuration.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Version: 1,
		Discovery: DiscoveryConfig{
			Thresholds:  []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6},
			Policy:      "lowest",
			Parallelism: 1,
			Classifier:  "name",
			Chains:      discovery.DefaultChainConfig(),
		},
		Input: InputConfig{
			CaseColumn:      "case:concept:name",
			ActivityColumn:  "concept:name",
			TimestampColumn: "time:timestamp",
			ResourceColumn:  "org:resource",
			LifecycleColumn: "lifecycle:transition",
			Delimiter:       ",",
		},
		Storage: StorageConfig{
			S3: S3Config{
				Region:  "us-east-1",
				Timeout: 2 * time.Minute,
			},
			Results: results.Config{
				Backend: results.BackendLocal,
				Dir:     filepath.Join(homeDir, ".procmine", "results"),
				Prefix:  "procmine/results/",
				Redis:   results.DefaultRedisConfig("localhost:6379"),
			},
		},
		Telemetry: TelemetryConfig{
			LogLevel: "info",
			Insecure: true,
		},
	}
}

// Manager handles configuration loading and merging.
type Manager struct {
	mu     sync.RWMutex
	config *Config
	search []string // candidate files, lowest priority first
	paths  []string // files that were loaded
	getenv func(string) string
}

// NewManager creates a manager that searches the standard locations.
func NewManager() *Manager {
	return &Manager{
		config: Default(),
		search: defaultPaths(),
		getenv: os.Getenv,
	}
}

// NewManagerWithPaths creates a manager that only reads the given files.
func NewManagerWithPaths(paths ...string) *Manager {
	m := NewManager()
	m.search = paths
	return m
}

// defaultPaths returns config file paths in priority order.
func defaultPaths() []string {
	var paths []string

	// System config
	if runtime.GOOS != "windows" {
		paths = append(paths, "/etc/procmine/config.yaml")
	}

	// User config
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".procmine", "config.yaml"))
	}

	// Project config (current directory)
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".procmine.yaml"))
	}

	return paths
}

// Load loads configuration from all sources in priority order. Missing
// files are skipped; malformed files and environment values are errors.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.config = Default()
	m.paths = nil

	for _, path := range m.search {
		if err := m.loadFile(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}
		m.paths = append(m.paths, path)
	}

	return m.loadEnv()
}

// loadFile decodes a file over the current config; keys absent from the
// file keep their value.
func (m *Manager) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, m.config); err != nil {
		return errors.Wrap(err, errors.CodeInvalidConfig, "parsing config file").
			WithContext("path", path)
	}
	return nil
}

// loadEnv applies PROCMINE_* environment variables.
func (m *Manager) loadEnv() error {
	c := m.config
	var errs errors.MultiError

	str := func(name string, dst *string) {
		if v := m.getenv(name); v != "" {
			*dst = v
		}
	}
	boolean := func(name string, dst *bool) {
		if v := m.getenv(name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs.Add(envError(name, v, err))
				return
			}
			*dst = b
		}
	}

	if v := m.getenv("PROCMINE_THRESHOLDS"); v != "" {
		ts, err := ParseThresholds(v)
		if err != nil {
			errs.Add(envError("PROCMINE_THRESHOLDS", v, err))
		} else {
			c.Discovery.Thresholds = ts
		}
	}
	if v := m.getenv("PROCMINE_PARALLELISM"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs.Add(envError("PROCMINE_PARALLELISM", v, err))
		} else {
			c.Discovery.Parallelism = n
		}
	}
	str("PROCMINE_POLICY", &c.Discovery.Policy)
	str("PROCMINE_CLASSIFIER", &c.Discovery.Classifier)
	boolean("PROCMINE_DEBUG", &c.Discovery.Debug)
	boolean("PROCMINE_REPAIR_LIFECYCLE", &c.Discovery.RepairLifecycle)

	str("PROCMINE_S3_BUCKET", &c.Storage.S3.Bucket)
	str("PROCMINE_S3_REGION", &c.Storage.S3.Region)
	str("PROCMINE_S3_ENDPOINT", &c.Storage.S3.Endpoint)
	str("PROCMINE_RESULTS_BACKEND", &c.Storage.Results.Backend)
	str("PROCMINE_RESULTS_DIR", &c.Storage.Results.Dir)
	str("PROCMINE_REDIS_ADDR", &c.Storage.Results.Redis.Address)

	str("PROCMINE_LOG_LEVEL", &c.Telemetry.LogLevel)
	if v := m.getenv("PROCMINE_OTLP_ENDPOINT"); v != "" {
		c.Telemetry.OTLPEndpoint = v
		c.Telemetry.Tracing = true
	}

	return errs.Combined()
}

func envError(name, value string, err error) error {
	return errors.Wrap(err, errors.CodeInvalidConfig, "invalid environment value").
		WithContext("variable", name).
		WithContext("value", value)
}

// ParseThresholds parses a comma-separated threshold list such as "0,0.2".
func ParseThresholds(s string) ([]float64, error) {
	var out []float64
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		t, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Get returns the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// GetPaths returns the paths that were loaded.
func (m *Manager) GetPaths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paths
}

// SaveTo writes the current config to path.
func (m *Manager) SaveTo(path string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(m.config)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Save writes the current config to the user config file.
func (m *Manager) Save() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	return m.SaveTo(filepath.Join(home, ".procmine", "config.yaml"))
}

// Global instance
var (
	globalManager *Manager
	globalOnce    sync.Once
	globalErr     error
)

// Global returns the global configuration manager, loaded on first use.
func Global() (*Manager, error) {
	globalOnce.Do(func() {
		globalManager = NewManager()
		globalErr = globalManager.Load()
	})
	return globalManager, globalErr
}
