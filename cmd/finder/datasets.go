package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDatasetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "datasets",
		Short: "List the datasets the backend serves",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.connect(cmd.Context()); err != nil {
				return err
			}
			defer a.close()
			sets, err := a.backend.DataSets(cmd.Context())
			if err != nil {
				return err
			}
			for i, s := range sets {
				marker := " "
				if i == 0 {
					marker = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, s)
			}
			return nil
		},
	}
}
