package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newListCmd(flags *globalFlags) *cobra.Command {
	var (
		variant string
		check   bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the skeleton ids of the configured datasets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.load(cmd.Flags())
			if err != nil {
				return err
			}
			if variant != "" {
				cfg.Output.Variants = []string{variant}
			}

			ctx := cmd.Context()

			datasets, err := openDatasets(ctx, cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			consistent := true
			for _, d := range datasets {
				ids, err := d.dataset.List(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s (%d)\n", d.variant, len(ids))
				for _, id := range ids {
					fmt.Fprintf(out, "  %d\n", id)
				}

				if !check {
					continue
				}
				report, err := d.dataset.Check(ctx)
				if err != nil {
					return err
				}
				if !report.OK() {
					consistent = false
					fmt.Fprintf(out, "  missing skeletons: %v\n", report.Missing)
					fmt.Fprintf(out, "  orphaned skeletons: %v\n", report.Orphaned)
				}
			}

			if !consistent {
				return fmt.Errorf("dataset check failed")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&variant, "variant", "", "list only this variant")
	cmd.Flags().BoolVar(&check, "check", false, "verify that the index and the skeleton files agree")

	return cmd
}
