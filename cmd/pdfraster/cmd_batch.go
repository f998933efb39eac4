package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/pdfraster/internal/batch"
	"github.com/joseph-ayodele/pdfraster/internal/pipeline"
)

// batchEnv provides the environment for the batch command.
type batchEnv struct {
	convertEnv

	timeout    time.Duration
	skipHidden bool
	watch      bool
}

// getBatchCmd returns the definition of the batch command.
func (a *app) getBatchCmd() *cobra.Command {
	env := &batchEnv{convertEnv: convertEnv{app: a}}

	ret := &cobra.Command{
		Use:   "batch <dir>",
		Short: "Convert every PDF under a directory",
		Long: `
Convert every PDF found under <dir>, one document at a time. Output mirrors
the input tree below --out-dir, which is created as needed. A failing
document is reported and the others still run.

With --watch, keep running and convert PDFs as they are added or rewritten.`,
		Args: cobra.ExactArgs(1),
		RunE: env.runBatchCmd,
	}
	ret.Flags().StringVarP(&env.outDir, "out-dir", "o", ".", "root directory for the output tree")
	env.addFlags(ret)
	ret.Flags().DurationVar(&env.timeout, "timeout", a.cfg.Batch.TaskTimeout, "limit per document, 0 for none")
	ret.Flags().BoolVar(&env.skipHidden, "skip-hidden", true, "ignore dot files and directories")
	ret.Flags().BoolVar(&env.watch, "watch", false, "keep watching the directory for new PDFs")
	return ret
}

func (b *batchEnv) runBatchCmd(cmd *cobra.Command, args []string) error {
	root := args[0]
	tmpl, err := b.request("")
	if err != nil {
		return err
	}
	rz, err := b.app.rasterizer()
	if err != nil {
		return err
	}
	conv := pipeline.NewConverter(rz, b.app.logger)

	if b.watch {
		return b.watchDir(cmd.Context(), cmd.OutOrStdout(), conv, root, tmpl)
	}

	sum, err := batch.Run(cmd.Context(), conv, root, b.outDir, tmpl, batch.Options{
		TaskTimeout: b.timeout,
		SkipHidden:  b.skipHidden,
	}, b.app.logger)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	for _, o := range sum.Outcomes {
		printOutcome(w, o)
	}
	fmt.Fprintf(w, "%d document(s): %d ok, %d failed, %d page(s), %s in %s\n",
		len(sum.Outcomes), sum.Succeeded, sum.Failed, sum.Pages, humanize.Bytes(uint64(sum.Bytes)), sum.Duration.Round(time.Millisecond))
	return sum.Err()
}

func (b *batchEnv) watchDir(ctx context.Context, w io.Writer, conv *pipeline.Converter, root string, tmpl pipeline.Request) error {
	events, errs, err := batch.Watch(ctx, batch.WatchConfig{
		Root:        root,
		InitialScan: true,
		SkipHidden:  b.skipHidden,
		Debounce:    b.app.cfg.Batch.WatchDebounce,
	}, b.app.logger)
	if err != nil {
		return err
	}

	q := batch.NewQueue(conv, b.app.logger,
		batch.WithTaskTimeout(b.timeout),
		batch.OnOutcome(func(o batch.Outcome) { printOutcome(w, o) }),
	)
	q.Start(ctx)
	defer func() {
		_ = q.Shutdown(context.Background())
	}()

	b.app.logger.Info("watching for PDFs", "root", root, "out_dir", b.outDir)
	for {
		select {
		case path, ok := <-events:
			if !ok {
				b.app.logger.Info("watch stopped", "root", root)
				return nil
			}
			req := tmpl
			req.Source = path
			req.OutputDir = batch.OutputDirFor(root, b.outDir, path)
			if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
				b.app.logger.Error("create output dir failed", "dir", req.OutputDir, "error", err)
				continue
			}
			if _, err := q.Enqueue(ctx, req); err != nil {
				return err
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			b.app.logger.Warn("watch error", "error", err)
		}
	}
}

func printOutcome(w io.Writer, o batch.Outcome) {
	if o.Err != nil {
		fmt.Fprintf(w, "FAIL\t%s\t%v\n", o.Task.Request.Source, o.Err)
		return
	}
	fmt.Fprintf(w, "ok\t%s\t%d page(s)\t%s\n", o.Task.Request.Source, len(o.Result.Pages), humanize.Bytes(uint64(o.Result.Bytes)))
}
