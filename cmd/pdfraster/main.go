// pdfraster renders PDF pages to raster images.
//
//	pdfraster convert in.pdf --out-dir out --pages 1,0,3 --dpi 300
//	pdfraster resize out/in_p0.jpg thumb.jpg --size 200x150
//	pdfraster run job.json
//	pdfraster batch inbox --out-dir out --watch
//	pdfraster info in.pdf
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/pdfraster/internal/common"
	"github.com/joseph-ayodele/pdfraster/internal/raster"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg := common.LoadConfig()
	logger := common.NewLogger(cfg.Log)
	slog.SetDefault(logger)

	// Context with signal
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	ctx = common.WithRequestID(ctx, uuid.NewString())
	err := newRootCmd(cfg, logger).ExecuteContext(ctx)
	stop()
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
}

// app carries what every subcommand needs.
type app struct {
	cfg    *common.Config
	logger *slog.Logger
}

func newRootCmd(cfg *common.Config, logger *slog.Logger) *cobra.Command {
	a := &app{cfg: cfg, logger: logger}

	root := &cobra.Command{
		Use:           "pdfraster",
		Short:         "Render PDF pages to JPEG/PNG/BMP/TIFF images",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.cfg.Raster.Backend = strings.ToLower(strings.TrimSpace(a.cfg.Raster.Backend))
			return a.cfg.Validate()
		},
	}
	root.PersistentFlags().StringVar(&cfg.Raster.Backend, "backend", cfg.Raster.Backend, "rendering backend: fitz | pdftoppm")

	root.AddCommand(
		a.getConvertCmd(),
		a.getResizeCmd(),
		a.getRunCmd(),
		a.getBatchCmd(),
		a.getInfoCmd(),
	)
	return root
}

func (a *app) rasterizer() (*raster.Rasterizer, error) {
	backend, err := raster.NewBackend(a.cfg.Raster, a.logger)
	if err != nil {
		return nil, err
	}
	return raster.NewRasterizer(backend, a.logger), nil
}
