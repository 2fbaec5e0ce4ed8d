package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/nmcp"
	"github.com/hupe1980/nmcp/jsonsource"
)

func newIngestCmd(flags *globalFlags) *cobra.Command {
	var skeletonID uint64

	cmd := &cobra.Command{
		Use:   "ingest <path>...",
		Short: "Generate precomputed skeletons from exported neuron JSON files",
		Long: `ingest reads neuron JSON exports (files or directories of *.json) and
writes every neuron they contain to the configured datasets. The skeleton
id is derived from the neuron idString unless --id is given, which requires
exactly one neuron.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load(cmd.Flags())
			if err != nil {
				return err
			}

			ctx := cmd.Context()

			logger, err := newLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			src, err := loadSource(args, cmd.Flags().Changed("id"), skeletonID)
			if err != nil {
				return err
			}
			for _, id := range src.Skipped() {
				logger.WarnContext(ctx, "skipping neuron without skeleton id", "id_string", id)
			}

			datasets, err := openDatasets(ctx, cfg)
			if err != nil {
				return err
			}

			w, err := nmcp.New(src, src, targets(datasets), workerOptions(cfg, logger)...)
			if err != nil {
				return err
			}
			if err := w.EnsureInfo(ctx); err != nil {
				return err
			}

			res, err := w.RunCycle(ctx)
			if err != nil {
				return err
			}
			printCycle(cmd, res)

			if res.Failed > 0 {
				return fmt.Errorf("%d of %d neurons failed", res.Failed, res.Pending)
			}
			return nil
		},
	}

	cmd.Flags().Uint64Var(&skeletonID, "id", 0, "skeleton id of the single neuron to ingest")

	return cmd
}

func loadSource(paths []string, explicitID bool, skeletonID uint64) (*jsonsource.Source, error) {
	if !explicitID {
		return jsonsource.Load(paths...)
	}

	files, err := jsonsource.Expand(paths...)
	if err != nil {
		return nil, err
	}

	var neurons []jsonsource.Neuron
	for _, path := range files {
		f, err := jsonsource.ReadFile(path)
		if err != nil {
			return nil, err
		}
		neurons = append(neurons, f.Neurons...)
	}
	if len(neurons) != 1 {
		return nil, fmt.Errorf("--id needs exactly one neuron, found %d", len(neurons))
	}

	src := jsonsource.New()
	src.Add(&neurons[0], skeletonID)
	return src, nil
}
