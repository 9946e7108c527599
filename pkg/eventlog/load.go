package eventlog

import (
	"bytes"
	"compress/gzip"
	"context"
	stderrors "errors"
	"io"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/logflow/procmine/internal/model"
	"github.com/logflow/procmine/pkg/errors"
	"github.com/logflow/procmine/pkg/parser"
	"github.com/logflow/procmine/pkg/storage/s3"
)

// ObjectGetter fetches whole objects; *s3.Client satisfies it.
type ObjectGetter interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
}

// LoadOptions describes where a log comes from and how it is classified.
type LoadOptions struct {
	// Path is a local file or an s3://bucket/key URL. A .gz suffix is
	// decompressed transparently.
	Path string

	// Format overrides detection from the path extension.
	Format parser.Format

	// Parser configures column names and timestamp handling.
	Parser parser.Config

	// Build controls classification and lifecycle handling.
	Build BuildOptions

	// Objects serves s3:// paths.
	Objects ObjectGetter
}

// Load parses the log described by opts. Parsing and trace assembly run
// concurrently; the first error from either side cancels the other.
func Load(ctx context.Context, opts LoadOptions) (*Log, error) {
	format := opts.Format
	if format == parser.FormatUnknown {
		format = parser.DetectFormat(opts.Path)
	}
	p, err := parser.NewParser(format, opts.Parser)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidFormat, "no parser for input").
			WithContext("path", opts.Path)
	}

	r, err := open(ctx, opts)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return Parse(ctx, p, r, opts.Build)
}

// Parse runs p over r and assembles the resulting events into a Log.
func Parse(ctx context.Context, p parser.Parser, r io.Reader, opts BuildOptions) (*Log, error) {
	if opts.Release == nil {
		opts.Release = parser.Release
	}

	g, gctx := errgroup.WithContext(ctx)
	events := make(chan *model.Event, 1024)

	g.Go(func() error {
		defer close(events)
		return p.Parse(gctx, r, events)
	})

	var log *Log
	g.Go(func() error {
		l, err := FromEvents(gctx, events, opts)
		if err != nil {
			// Drain so the parser can observe cancellation and exit.
			for range events {
			}
			return err
		}
		log = l
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, classifyParseError(ctx, err)
	}
	return log, nil
}

func classifyParseError(ctx context.Context, err error) error {
	switch {
	case ctx.Err() != nil:
		return errors.Wrap(ctx.Err(), errors.CodeContextCanceled, "loading event log")
	case stderrors.Is(err, parser.ErrMissingColumn):
		return errors.Wrap(err, errors.CodeMissingColumn, "required column not found")
	case stderrors.Is(err, parser.ErrInvalidTimestamp):
		return errors.Wrap(err, errors.CodeInvalidTimestamp, "invalid timestamp")
	case stderrors.Is(err, parser.ErrInvalidXES), stderrors.Is(err, parser.ErrInvalidCSV),
		stderrors.Is(err, parser.ErrInvalidJSONL), stderrors.Is(err, parser.ErrInvalidXLSX),
		stderrors.Is(err, parser.ErrInvalidParquet):
		return errors.Wrap(err, errors.CodeParseFailed, "malformed input")
	default:
		var mErr *errors.MiningError
		if stderrors.As(err, &mErr) {
			return err
		}
		return errors.Wrap(err, errors.CodeLoadFailed, "loading event log")
	}
}

func open(ctx context.Context, opts LoadOptions) (io.ReadCloser, error) {
	var rc io.ReadCloser
	if strings.HasPrefix(opts.Path, "s3://") {
		if opts.Objects == nil {
			return nil, errors.New(errors.CodeInvalidConfig, "s3 path without object storage configured").
				WithContext("path", opts.Path)
		}
		bucket, key, err := s3.ParseURL(opts.Path)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidConfig, "bad s3 url")
		}
		data, err := opts.Objects.Get(ctx, bucket, key)
		if stderrors.Is(err, s3.ErrNotFound) {
			return nil, errors.FileNotFound(opts.Path)
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeLoadFailed, "fetching event log").
				WithContext("path", opts.Path)
		}
		rc = io.NopCloser(bytes.NewReader(data))
	} else {
		f, err := os.Open(opts.Path)
		if os.IsNotExist(err) {
			return nil, errors.FileNotFound(opts.Path)
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeLoadFailed, "opening event log").
				WithContext("path", opts.Path)
		}
		rc = f
	}

	if !strings.HasSuffix(strings.ToLower(opts.Path), ".gz") {
		return rc, nil
	}
	zr, err := gzip.NewReader(rc)
	if err != nil {
		rc.Close()
		return nil, errors.Wrap(err, errors.CodeInvalidFormat, "bad gzip stream").
			WithContext("path", opts.Path)
	}
	return &gzipReadCloser{Reader: zr, under: rc}, nil
}

type gzipReadCloser struct {
	*gzip.Reader
	under io.Closer
}

func (g *gzipReadCloser) Close() error {
	err := g.Reader.Close()
	if cerr := g.under.Close(); err == nil {
		err = cerr
	}
	return err
}
