package results

import (
	"context"

	"github.com/logflow/procmine/pkg/errors"
	"github.com/logflow/procmine/pkg/storage/s3"
)

// Backend names accepted by Open.
const (
	BackendLocal = "local"
	BackendRedis = "redis"
	BackendS3    = "s3"
)

// Config selects and configures a backend.
type Config struct {
	Backend string      `yaml:"backend"`
	Dir     string      `yaml:"dir"`
	Prefix  string      `yaml:"prefix"`
	Redis   RedisConfig `yaml:"redis"`
}

// Open creates the configured backend. objects is only needed for the S3
// backend.
func Open(ctx context.Context, cfg Config, objects *s3.Client) (Backend, error) {
	switch cfg.Backend {
	case "", BackendLocal:
		dir := cfg.Dir
		if dir == "" {
			dir = ".procmine/results"
		}
		return NewLocalBackend(dir)
	case BackendRedis:
		rc := cfg.Redis
		if rc.Prefix == "" {
			rc.Prefix = cfg.Prefix
		}
		return NewRedisBackend(ctx, rc)
	case BackendS3:
		if objects == nil {
			return nil, errors.New(errors.CodeInvalidConfig, "s3 results backend needs an s3 client")
		}
		return NewS3Backend(objects, cfg.Prefix), nil
	default:
		return nil, errors.New(errors.CodeInvalidConfig, "unknown results backend").
			WithContext("backend", cfg.Backend)
	}
}
