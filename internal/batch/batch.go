package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/joseph-ayodele/pdfraster/internal/common"
	"github.com/joseph-ayodele/pdfraster/internal/pipeline"
)

// Options configures Run.
type Options struct {
	TaskTimeout time.Duration
	SkipHidden  bool
}

// Summary aggregates a Run. Outcomes are in conversion order, which is the
// lexical order of the source paths.
type Summary struct {
	Scan      ScanStats
	Succeeded int
	Failed    int
	Pages     int
	Bytes     int64
	Duration  time.Duration
	Outcomes  []Outcome
}

// Err returns the first failure in s, or nil.
func (s Summary) Err() error {
	for _, o := range s.Outcomes {
		if o.Err != nil {
			return fmt.Errorf("%s: %w", o.Task.Request.Source, o.Err)
		}
	}
	return nil
}

// Run converts every PDF under root. Each document is converted with tmpl
// (Source and OutputDir replaced) and written below outRoot, mirroring its
// directory under root. Documents are converted one after another; a failing
// document does not stop the others.
func Run(ctx context.Context, conv Converter, root, outRoot string, tmpl pipeline.Request, opts Options, logger *slog.Logger) (Summary, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = common.LoggerWithRequest(ctx, logger).With("component", "batch")
	start := time.Now()

	sources, scan, err := Scan(ctx, root, opts.SkipHidden)
	if err != nil {
		return Summary{Scan: scan}, err
	}
	logger.Info("scan complete", "root", root, "scanned", scan.Scanned, "matched", scan.Matched, "failed", scan.Failed)

	sum := Summary{Scan: scan}
	q := NewQueue(conv, logger,
		WithTaskTimeout(opts.TaskTimeout),
		OnOutcome(func(o Outcome) { sum.Outcomes = append(sum.Outcomes, o) }),
	)
	q.Start(ctx)

	for _, src := range sources {
		req := tmpl
		req.Source = src
		req.OutputDir = OutputDirFor(root, outRoot, src)
		if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
			_ = q.Shutdown(ctx)
			return Summary{Scan: scan}, common.WriteError(fmt.Sprintf("create output dir %q", req.OutputDir), err)
		}
		if _, err := q.Enqueue(ctx, req); err != nil {
			_ = q.Shutdown(ctx)
			return Summary{Scan: scan}, err
		}
	}
	if err := q.Shutdown(ctx); err != nil {
		return Summary{Scan: scan}, err
	}

	for _, o := range sum.Outcomes {
		if o.Err != nil {
			sum.Failed++
			continue
		}
		sum.Succeeded++
		sum.Pages += len(o.Result.Pages)
		sum.Bytes += o.Result.Bytes
	}
	sum.Duration = time.Since(start)
	logger.Info("batch complete",
		"documents", len(sources),
		"succeeded", sum.Succeeded,
		"failed", sum.Failed,
		"pages", sum.Pages,
		"bytes", humanize.Bytes(uint64(sum.Bytes)),
		"duration_ms", sum.Duration.Milliseconds(),
	)
	return sum, nil
}
