package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/pdfraster/constants"
	"github.com/joseph-ayodele/pdfraster/internal/common"
	"github.com/joseph-ayodele/pdfraster/internal/raster"
)

// resizeEnv provides the environment for the resize command.
type resizeEnv struct {
	app *app

	size    string
	fit     bool
	interp  string
	quality int
}

// getResizeCmd returns the definition of the resize command.
func (a *app) getResizeCmd() *cobra.Command {
	env := &resizeEnv{app: a}

	ret := &cobra.Command{
		Use:   "resize <in-image> <out-image>",
		Short: "Resize an image file; the output encoding follows the extension",
		Args:  cobra.ExactArgs(2),
		RunE:  env.runResizeCmd,
	}
	defSize := fmt.Sprintf("%dx%d", a.cfg.Output.ThumbnailWidth, a.cfg.Output.ThumbnailHeight)
	ret.Flags().StringVarP(&env.size, "size", "s", defSize, "target size WxH")
	ret.Flags().BoolVar(&env.fit, "fit", false, "fit inside WxH keeping the aspect ratio")
	ret.Flags().StringVar(&env.interp, "interp", a.cfg.Output.Interpolation, "resampling: "+strings.Join(raster.Interpolations(), " | "))
	ret.Flags().IntVarP(&env.quality, "quality", "q", a.cfg.Output.JPEGQuality, "JPEG quality 1..100")
	return ret
}

func (r *resizeEnv) runResizeCmd(cmd *cobra.Command, args []string) error {
	in, out := args[0], args[1]
	enc, ok := constants.MapExtToEncoding(filepath.Ext(out))
	if !ok {
		return common.InvalidArgumentErrorf("cannot infer encoding from %q", out)
	}
	size, err := parseSize(r.size)
	if err != nil {
		return err
	}
	interp, err := raster.ParseInterpolation(r.interp)
	if err != nil {
		return err
	}

	img, err := raster.OpenImage(in)
	if err != nil {
		return err
	}
	if r.fit {
		img, err = raster.Thumbnail(img, size.Width, size.Height, interp)
	} else {
		img, err = raster.ResizeWith(img, size, interp)
	}
	if err != nil {
		return err
	}

	opts := raster.SaveOptions{}
	if enc == constants.JPEG {
		opts.Quality = r.quality
	}
	art, err := raster.SaveWith(img, out, enc, opts)
	if err != nil {
		return err
	}
	r.app.logger.Debug("resized", "in", in, "out", out, "width", art.Width, "height", art.Height)
	printArtifact(cmd.OutOrStdout(), art)
	return nil
}
