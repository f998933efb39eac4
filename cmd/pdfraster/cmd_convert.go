package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/pdfraster/constants"
	"github.com/joseph-ayodele/pdfraster/internal/common"
	"github.com/joseph-ayodele/pdfraster/internal/pipeline"
	"github.com/joseph-ayodele/pdfraster/internal/raster"
)

// convertEnv provides the environment for the convert command.
type convertEnv struct {
	app *app

	outDir    string
	pages     string
	dpi       int
	format    string
	quality   int
	thumbnail string // WxH, empty for none
	fit       bool
	interp    string
}

// getConvertCmd returns the definition of the convert command.
func (a *app) getConvertCmd() *cobra.Command {
	env := &convertEnv{app: a}

	ret := &cobra.Command{
		Use:   "convert <file.pdf>",
		Short: "Render pages of a PDF to image files",
		Long: `
Render the selected pages of a PDF into <out-dir>/<name>_p<index>.<ext>.
Pages are 0-based: --pages ALL, --pages 2, --pages 1,0,3.`,
		Args: cobra.ExactArgs(1),
		RunE: env.runConvertCmd,
	}
	ret.Flags().StringVarP(&env.outDir, "out-dir", "o", ".", "directory to write images into (must exist)")
	env.addFlags(ret)
	return ret
}

// addFlags registers the per-document conversion flags on cmd.
func (c *convertEnv) addFlags(cmd *cobra.Command) {
	cfg := c.app.cfg
	cmd.Flags().StringVarP(&c.pages, "pages", "p", "ALL", "pages to render")
	cmd.Flags().IntVar(&c.dpi, "dpi", cfg.Raster.DPI, "rendering resolution")
	cmd.Flags().StringVarP(&c.format, "format", "f", cfg.Output.Encoding, "output encoding: "+strings.Join(constants.EncodingNames(), " | "))
	cmd.Flags().IntVarP(&c.quality, "quality", "q", cfg.Output.JPEGQuality, "JPEG quality 1..100")
	cmd.Flags().StringVar(&c.thumbnail, "thumbnail", "", "also write a WxH thumbnail per page, e.g. 200x150")
	cmd.Flags().BoolVar(&c.fit, "fit", false, "fit the thumbnail inside WxH keeping the aspect ratio")
	cmd.Flags().StringVar(&c.interp, "interp", cfg.Output.Interpolation, "resampling: "+strings.Join(raster.Interpolations(), " | "))
}

func (c *convertEnv) runConvertCmd(cmd *cobra.Command, args []string) error {
	req, err := c.request(args[0])
	if err != nil {
		return err
	}
	r, err := c.app.rasterizer()
	if err != nil {
		return err
	}
	res, err := pipeline.NewConverter(r, c.app.logger).Run(cmd.Context(), req)
	if err != nil {
		return err
	}
	printResult(cmd.OutOrStdout(), res)
	return nil
}

func (c *convertEnv) request(source string) (pipeline.Request, error) {
	sel, err := raster.ParseSelector(c.pages)
	if err != nil {
		return pipeline.Request{}, err
	}
	enc, ok := constants.ParseEncoding(c.format)
	if !ok {
		return pipeline.Request{}, common.InvalidArgumentErrorf("unsupported format %q", c.format)
	}
	interp, err := raster.ParseInterpolation(c.interp)
	if err != nil {
		return pipeline.Request{}, err
	}
	req := pipeline.Request{
		Source:        source,
		OutputDir:     c.outDir,
		Pages:         sel,
		DPI:           c.dpi,
		Encoding:      enc,
		Interpolation: interp,
		ThumbnailFit:  c.fit,
	}
	if enc == constants.JPEG {
		req.Quality = c.quality
	}
	if c.thumbnail != "" {
		size, err := parseSize(c.thumbnail)
		if err != nil {
			return pipeline.Request{}, err
		}
		req.Thumbnail = &size
	}
	return req, nil
}

// parseSize parses "WxH".
func parseSize(s string) (raster.ResizeSpec, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return raster.ResizeSpec{}, common.InvalidArgumentErrorf("size %q: want WxH", s)
	}
	w, err1 := strconv.Atoi(ws)
	h, err2 := strconv.Atoi(hs)
	if err1 != nil || err2 != nil || w <= 0 || h <= 0 {
		return raster.ResizeSpec{}, common.InvalidArgumentErrorf("size %q: want positive WxH", s)
	}
	return raster.ResizeSpec{Width: w, Height: h}, nil
}

func printResult(w io.Writer, res pipeline.Result) {
	for _, a := range res.Pages {
		printArtifact(w, a)
	}
	for _, a := range res.Thumbnails {
		printArtifact(w, a)
	}
	fmt.Fprintf(w, "%d page(s), %d thumbnail(s), %s in %s\n",
		len(res.Pages), len(res.Thumbnails), humanize.Bytes(uint64(res.Bytes)), res.Duration.Round(time.Millisecond))
}

func printArtifact(w io.Writer, a raster.OutputArtifact) {
	fmt.Fprintf(w, "%s\t%dx%d\t%s\n", a.Path, a.Width, a.Height, humanize.Bytes(uint64(a.Size)))
}
