package main

import (
	"context"
	"fmt"

	"github.com/matst80/rdf-finder/pkg/state"
	"github.com/matst80/rdf-finder/pkg/types"
	"github.com/spf13/cobra"
)

func newTaxonomyCmd() *cobra.Command {
	var index, class string
	cmd := &cobra.Command{
		Use:   "taxonomy",
		Short: "Print the class tree of a dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.connect(ctx); err != nil {
				return err
			}
			defer a.close()

			ctrl, _, stop, err := a.runController(ctx, state.Serialize(types.QueryState{DatasetId: index}))
			if err != nil {
				return err
			}
			defer stop()

			waitCtx, cancel := context.WithTimeout(ctx, a.cfg.Backend.Timeout)
			defer cancel()
			v, err := ctrl.WaitIdle(waitCtx, pollInterval)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printNotices(out, v.Notices)
			if class != "" {
				props, err := ctrl.Properties(ctx, class)
				if err != nil {
					return err
				}
				for _, p := range props {
					fmt.Fprintln(out, p)
				}
				return nil
			}
			fmt.Fprintf(out, "%s\n", v.Dataset)
			printTree(out, v.Classes)
			return nil
		},
	}
	cmd.Flags().StringVar(&index, "index", "", "dataset, the first one when empty")
	cmd.Flags().StringVar(&class, "properties", "", "print the form properties of this class instead")
	return cmd
}
