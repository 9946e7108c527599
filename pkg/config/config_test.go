package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logflow/procmine/pkg/discovery"
	"github.com/logflow/procmine/pkg/errors"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func testManager(env map[string]string, paths ...string) *Manager {
	m := NewManagerWithPaths(paths...)
	m.getenv = func(k string) string { return env[k] }
	return m
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6}, cfg.Discovery.Thresholds)
	assert.Equal(t, discovery.DefaultChainConfig(), cfg.Discovery.Chains)
}

func TestLoad_Layering(t *testing.T) {
	dir := t.TempDir()
	system := writeFile(t, dir, "system.yaml", `
discovery:
  thresholds: [0, 0.1, 0.2]
  policy: highest
  debug: true
input:
  case_column: case
  activity_column: activity
`)
	project := writeFile(t, dir, "project.yaml", `
discovery:
  debug: false
  chains:
    cuts: [sequence, xor]
storage:
  results:
    backend: redis
    redis:
      address: cache:6379
      ttl: 1h
`)
	missing := filepath.Join(dir, "missing.yaml")

	m := testManager(map[string]string{"PROCMINE_PARALLELISM": "4"}, system, missing, project)
	require.NoError(t, m.Load())
	cfg := m.Get()

	assert.Equal(t, []string{system, project}, m.GetPaths())
	assert.Equal(t, []float64{0, 0.1, 0.2}, cfg.Discovery.Thresholds)
	assert.Equal(t, "highest", cfg.Discovery.Policy)
	assert.False(t, cfg.Discovery.Debug)
	assert.Equal(t, 4, cfg.Discovery.Parallelism)
	assert.Equal(t, "case", cfg.Input.CaseColumn)
	assert.Equal(t, "time:timestamp", cfg.Input.TimestampColumn)
	assert.Equal(t, []string{"sequence", "xor"}, cfg.Discovery.Chains.Cuts)
	assert.Equal(t, discovery.DefaultChainConfig().FallThroughs, cfg.Discovery.Chains.FallThroughs)
	assert.Equal(t, "redis", cfg.Storage.Results.Backend)
	assert.Equal(t, "cache:6379", cfg.Storage.Results.Redis.Address)
	assert.Equal(t, "procmine:results:", cfg.Storage.Results.Redis.Prefix)
	assert.Equal(t, "1h0m0s", cfg.Storage.Results.Redis.TTL.String())
	require.NoError(t, cfg.Validate())
}

func TestLoad_Env(t *testing.T) {
	m := testManager(map[string]string{
		"PROCMINE_THRESHOLDS":       "0, 0.25",
		"PROCMINE_DEBUG":            "true",
		"PROCMINE_REPAIR_LIFECYCLE": "1",
		"PROCMINE_CLASSIFIER":       "name+lifecycle",
		"PROCMINE_OTLP_ENDPOINT":    "collector:4317",
		"PROCMINE_S3_BUCKET":        "logs",
	})
	require.NoError(t, m.Load())
	cfg := m.Get()

	assert.Equal(t, []float64{0, 0.25}, cfg.Discovery.Thresholds)
	assert.True(t, cfg.Discovery.Debug)
	assert.True(t, cfg.Discovery.RepairLifecycle)
	assert.Equal(t, "name+lifecycle", cfg.Discovery.Classifier)
	assert.True(t, cfg.Telemetry.Tracing)
	assert.Equal(t, "logs", cfg.S3().Bucket)
	require.NoError(t, cfg.Validate())
}

func TestLoad_Errors(t *testing.T) {
	m := testManager(map[string]string{"PROCMINE_THRESHOLDS": "0,high", "PROCMINE_DEBUG": "maybe"})
	err := m.Load()
	var multi *errors.MultiError
	require.ErrorAs(t, err, &multi)
	assert.Len(t, multi.Errors, 2)

	bad := writeFile(t, t.TempDir(), "bad.yaml", "discovery: [")
	err = testManager(nil, bad).Load()
	assert.True(t, errors.IsCode(err, errors.CodeInvalidConfig))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		code   errors.Code
	}{
		{"no thresholds", func(c *Config) { c.Discovery.Thresholds = nil }, errors.CodeInvalidThreshold},
		{"threshold range", func(c *Config) { c.Discovery.Thresholds = []float64{1.2} }, errors.CodeInvalidThreshold},
		{"unknown cut", func(c *Config) { c.Discovery.Chains.Cuts = []string{"or"} }, errors.CodeUnknownStrategy},
		{"empty fall-throughs", func(c *Config) { c.Discovery.Chains.FallThroughs = []string{} }, errors.CodeEmptyChain},
		{"unknown policy", func(c *Config) { c.Discovery.Policy = "random" }, errors.CodeUnknownStrategy},
		{"scored policy", func(c *Config) { c.Discovery.Policy = "scored" }, errors.CodeInvalidConfig},
		{"classifier", func(c *Config) { c.Discovery.Classifier = "colour" }, errors.CodeInvalidConfig},
		{"delimiter", func(c *Config) { c.Input.Delimiter = ";;" }, errors.CodeInvalidConfig},
		{"s3 without bucket", func(c *Config) { c.Storage.Results.Backend = "s3" }, errors.CodeInvalidConfig},
		{"tracing without endpoint", func(c *Config) { c.Telemetry.Tracing = true }, errors.CodeInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetCode(err))
		})
	}
}

func TestConversions(t *testing.T) {
	cfg := Default()
	cfg.Input.Delimiter = ";"
	cfg.Input.CaseColumn = "case"
	cfg.Discovery.Thresholds = []float64{0, 0.2}

	pc := cfg.ParserConfig()
	assert.Equal(t, ';', pc.Delimiter)
	assert.Equal(t, "case", pc.CaseIDColumn)

	opts, err := cfg.BuildOptions()
	require.NoError(t, err)
	assert.NotNil(t, opts.Classifier)

	cc, err := cfg.ControllerConfig(nil)
	require.NoError(t, err)
	c, err := discovery.NewController(cc)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0.2}, c.Thresholds())
}

func TestSaveTo_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	m := testManager(nil)
	require.NoError(t, m.Load())
	m.Get().Discovery.Thresholds = []float64{0.05}
	require.NoError(t, m.SaveTo(path))

	reloaded := testManager(nil, path)
	require.NoError(t, reloaded.Load())
	assert.Equal(t, []float64{0.05}, reloaded.Get().Discovery.Thresholds)
	assert.Equal(t, m.Get().Discovery.Chains, reloaded.Get().Discovery.Chains)
}
