package main

import (
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/pdfraster/internal/job"
	"github.com/joseph-ayodele/pdfraster/internal/pipeline"
)

// runEnv provides the environment for the run command.
type runEnv struct {
	app *app
}

// getRunCmd returns the definition of the run command.
func (a *app) getRunCmd() *cobra.Command {
	env := &runEnv{app: a}

	return &cobra.Command{
		Use:   "run <job.json>",
		Short: "Run the conversion described by a JSON job file",
		Long: `
Run a conversion described by a JSON job file:

  {
    "source": "in.pdf",
    "output_dir": "out",
    "pages": "1,0,3",
    "dpi": 300,
    "encoding": "jpeg",
    "thumbnail": {"width": 200, "height": 150}
  }

Relative paths are resolved against the job file's directory.`,
		Args: cobra.ExactArgs(1),
		RunE: env.runRunCmd,
	}
}

func (r *runEnv) runRunCmd(cmd *cobra.Command, args []string) error {
	req, err := job.Load(args[0], r.app.cfg)
	if err != nil {
		return err
	}
	rz, err := r.app.rasterizer()
	if err != nil {
		return err
	}
	res, err := pipeline.NewConverter(rz, r.app.logger).Run(cmd.Context(), req)
	if err != nil {
		return err
	}
	printResult(cmd.OutOrStdout(), res)
	return nil
}
