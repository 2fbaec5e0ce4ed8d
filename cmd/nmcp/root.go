package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/hupe1980/nmcp"
	"github.com/hupe1980/nmcp/branch"
	"github.com/hupe1980/nmcp/config"
)

// globalFlags are shared by every command. Set flags override the config
// file and the environment.
type globalFlags struct {
	configPath  string
	output      string
	variants    []string
	atlas       string
	lockFile    string
	lockTable   string
	compression string
	snapCodec   string
	logLevel    string
	logFormat   string
}

func (f *globalFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.configPath, "config", "c", "", "config file (.yaml, .yml, .json, .jsonc)")
	fs.StringVarP(&f.output, "output", "o", "", "dataset base location (path, file://, mem://, s3://, minio://)")
	fs.StringSliceVar(&f.variants, "variants", nil, "dataset variants to write (full, axon, dendrite)")
	fs.StringVar(&f.atlas, "atlas", "", "Allen structure table (.json or .yaml)")
	fs.StringVar(&f.lockFile, "lock-file", "", "flock file serializing writers on this host")
	fs.StringVar(&f.lockTable, "lock-table", "", "DynamoDB table serializing writers")
	fs.StringVar(&f.compression, "snapshot-compression", "", "snapshot compression (zstd, lz4, none)")
	fs.StringVar(&f.snapCodec, "snapshot-codec", "", "snapshot payload codec (cbor, go-json, json)")
	fs.StringVar(&f.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	fs.StringVar(&f.logFormat, "log-format", "", "log format (text, json)")
}

// load reads the configuration and applies the flags that were set.
func (f *globalFlags) load(fs *pflag.FlagSet) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}

	set := func(name string, apply func()) {
		if fs.Changed(name) {
			apply()
		}
	}
	set("output", func() { cfg.Output.Location = f.output })
	set("variants", func() { cfg.Output.Variants = f.variants })
	set("atlas", func() { cfg.Atlas.Path = f.atlas })
	set("lock-file", func() { cfg.Output.LockFile = f.lockFile })
	set("lock-table", func() { cfg.Output.LockTable = f.lockTable })
	set("snapshot-compression", func() { cfg.Output.SnapshotCompression = f.compression })
	set("snapshot-codec", func() { cfg.Output.SnapshotCodec = f.snapCodec })
	set("log-level", func() { cfg.Log.Level = f.logLevel })
	set("log-format", func() { cfg.Log.Format = f.logFormat })

	return cfg, nil
}

func newLogger(cfg *config.Config, w io.Writer) (*nmcp.Logger, error) {
	level, err := cfg.LogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Log.Format == "json" {
		return nmcp.NewLogger(slog.NewJSONHandler(w, opts)), nil
	}
	return nmcp.NewLogger(slog.NewTextHandler(w, opts)), nil
}

// workerOptions maps the worker settings of cfg to worker options.
func workerOptions(cfg *config.Config, logger *nmcp.Logger) []nmcp.Option {
	return []nmcp.Option{
		nmcp.WithLogger(logger),
		nmcp.WithPollInterval(cfg.Worker.PollInterval.Std()),
		nmcp.WithHeartbeatPolls(cfg.HeartbeatPolls()),
		nmcp.WithBranchOptions(
			branch.WithChunkSize(cfg.Worker.ChunkSize),
			branch.WithLimit(cfg.Worker.Limit),
			branch.WithParallelBranches(cfg.Worker.ParallelBranches),
		),
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "nmcp",
		Short: "Generate Neuroglancer precomputed skeletons of neuron reconstructions",
		Long: `nmcp turns neuron reconstructions into Neuroglancer precomputed skeleton
datasets with segment properties. The worker command polls the NMCP service
for pending reconstructions; ingest reads exported neuron JSON files.

Each dataset variant (full, axon, dendrite) is written below the output
location in a directory of the same name.`,
		SilenceUsage: true,
	}

	flags.register(root.PersistentFlags())

	root.AddCommand(
		newWorkerCmd(flags),
		newIngestCmd(flags),
		newListCmd(flags),
		newRemoveCmd(flags),
	)

	return root
}
