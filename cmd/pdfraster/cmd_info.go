package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// getInfoCmd returns the definition of the info command.
func (a *app) getInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <file.pdf>",
		Short: "Print the number of pages in a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.rasterizer()
			if err != nil {
				return err
			}
			n, err := r.PageCount(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\tpages: %d\tbackend: %s\n", args[0], n, r.Backend().Name())
			return nil
		},
	}
}
