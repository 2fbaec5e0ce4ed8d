package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newRemoveCmd(flags *globalFlags) *cobra.Command {
	var variant string

	cmd := &cobra.Command{
		Use:   "remove <id>...",
		Short: "Remove skeletons from the configured datasets",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]uint64, len(args))
			for i, arg := range args {
				id, err := strconv.ParseUint(arg, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid skeleton id %q", arg)
				}
				ids[i] = id
			}

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
			for _, d := range datasets {
				for _, id := range ids {
					removed, err := d.dataset.Remove(ctx, id)
					if err != nil {
						return err
					}
					if removed {
						fmt.Fprintf(out, "%s: removed %d\n", d.variant, id)
					} else {
						fmt.Fprintf(out, "%s: %d not found\n", d.variant, id)
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&variant, "variant", "", "remove only from this variant")

	return cmd
}
