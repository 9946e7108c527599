package config

import (
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/logflow/procmine/pkg/discovery"
	"github.com/logflow/procmine/pkg/errors"
	"github.com/logflow/procmine/pkg/eventlog"
	"github.com/logflow/procmine/pkg/parser"
	"github.com/logflow/procmine/pkg/results"
	"github.com/logflow/procmine/pkg/storage/s3"
)

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	var errs errors.MultiError

	if len(c.Discovery.Thresholds) == 0 {
		errs.Add(errors.New(errors.CodeInvalidThreshold, "at least one threshold is required"))
	}
	for _, t := range c.Discovery.Thresholds {
		if t < 0 || t > 1 || t != t {
			errs.Add(errors.New(errors.CodeInvalidThreshold, "threshold must be within [0, 1]").
				WithContext("threshold", t))
		}
	}
	if c.Discovery.Parallelism < 0 {
		errs.Add(errors.New(errors.CodeInvalidConfig, "parallelism must not be negative"))
	}
	if c.Discovery.Policy == "scored" {
		errs.Add(errors.New(errors.CodeInvalidConfig, "scored policy cannot be configured from file"))
	} else if _, err := discovery.Default().Policy(c.Discovery.Policy, nil); err != nil {
		errs.Add(err)
	}
	if _, err := discovery.Default().Chains(c.Discovery.Chains); err != nil {
		errs.Add(err)
	}
	if _, err := eventlog.ClassifierByName(c.Discovery.Classifier); err != nil {
		errs.Add(err)
	}

	if c.Input.ActivityColumn == "" || c.Input.CaseColumn == "" {
		errs.Add(errors.New(errors.CodeInvalidConfig, "case and activity columns are required"))
	}
	if utf8.RuneCountInString(c.Input.Delimiter) > 1 {
		errs.Add(errors.New(errors.CodeInvalidConfig, "delimiter must be a single character").
			WithContext("delimiter", c.Input.Delimiter))
	}

	switch c.Storage.Results.Backend {
	case "", results.BackendLocal, results.BackendRedis:
	case results.BackendS3:
		if c.Storage.S3.Bucket == "" {
			errs.Add(errors.New(errors.CodeInvalidConfig, "s3 results backend needs storage.s3.bucket"))
		}
	default:
		errs.Add(errors.New(errors.CodeInvalidConfig, "unknown results backend").
			WithContext("backend", c.Storage.Results.Backend))
	}

	if c.Telemetry.Tracing && c.Telemetry.OTLPEndpoint == "" {
		errs.Add(errors.New(errors.CodeInvalidConfig, "tracing needs telemetry.otlp_endpoint"))
	}

	return errs.Combined()
}

// ParserConfig maps the input section onto parser settings.
func (c *Config) ParserConfig() parser.Config {
	pc := parser.DefaultConfig()
	pc.CaseIDColumn = c.Input.CaseColumn
	pc.ActivityColumn = c.Input.ActivityColumn
	pc.TimestampColumn = c.Input.TimestampColumn
	pc.ResourceColumn = c.Input.ResourceColumn
	pc.LifecycleColumn = c.Input.LifecycleColumn
	pc.TimestampFormat = c.Input.TimestampFormat
	pc.Sheet = c.Input.Sheet
	if r, _ := utf8.DecodeRuneInString(c.Input.Delimiter); r != utf8.RuneError {
		pc.Delimiter = r
	}
	return pc
}

// BuildOptions returns the event-to-log settings.
func (c *Config) BuildOptions() (eventlog.BuildOptions, error) {
	classifier, err := eventlog.ClassifierByName(c.Discovery.Classifier)
	if err != nil {
		return eventlog.BuildOptions{}, err
	}
	return eventlog.BuildOptions{
		Classifier:      classifier,
		RepairLifeCycle: c.Discovery.RepairLifecycle,
		SortByTime:      c.Input.SortByTime,
	}, nil
}

// ControllerConfig assembles the discovery controller settings.
func (c *Config) ControllerConfig(logger *zap.Logger) (discovery.ControllerConfig, error) {
	chains, err := discovery.Default().Chains(c.Discovery.Chains)
	if err != nil {
		return discovery.ControllerConfig{}, err
	}
	policy, err := discovery.Default().Policy(c.Discovery.Policy, nil)
	if err != nil {
		return discovery.ControllerConfig{}, err
	}
	return discovery.ControllerConfig{
		Thresholds: c.Discovery.Thresholds,
		Chains:     chains,
		Policy:     policy,
		Debug:      c.Discovery.Debug,
		Logger:     logger,
	}, nil
}

// S3 returns the object storage client settings.
func (c *Config) S3() s3.Config {
	sc := s3.DefaultConfig(c.Storage.S3.Bucket, c.Storage.S3.Region)
	sc.Endpoint = c.Storage.S3.Endpoint
	sc.UsePathStyle = c.Storage.S3.UsePathStyle
	if c.Storage.S3.Timeout > 0 {
		sc.OperationTimeout = c.Storage.S3.Timeout
	}
	return sc
}
