// Package config loads the worker configuration.
//
// Configuration is read from a YAML file (.yaml, .yml) or a JSON file with
// comments and trailing commas (.json, .jsonc), then overridden by NMCP_*
// environment variables. Command-line flags are applied last by the caller.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/nmcp/codec"
	"github.com/hupe1980/nmcp/internal/compress"
	"github.com/hupe1980/nmcp/skeleton"
)

// ErrInvalidConfig is returned for configurations that fail validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Duration is a time.Duration written as a string such as "10s".
type Duration time.Duration

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText formats d as a Go duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the complete worker configuration.
type Config struct {
	Source  SourceConfig  `yaml:"source" json:"source"`
	Output  OutputConfig  `yaml:"output" json:"output"`
	Worker  WorkerConfig  `yaml:"worker" json:"worker"`
	Atlas   AtlasConfig   `yaml:"atlas" json:"atlas"`
	Log     LogConfig     `yaml:"log" json:"log"`
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
}

// SourceConfig configures the GraphQL service.
type SourceConfig struct {
	URL string `yaml:"url" json:"url"`
	// AuthKey is sent as the Authorization header.
	AuthKey           string   `yaml:"auth_key" json:"auth_key"`
	Timeout           Duration `yaml:"timeout" json:"timeout"`
	Retries           int      `yaml:"retries" json:"retries"`
	RequestsPerSecond float64  `yaml:"requests_per_second" json:"requests_per_second"`
}

// OutputConfig configures the precomputed datasets.
type OutputConfig struct {
	// Location is the base URI; each variant is written below it.
	Location string   `yaml:"location" json:"location"`
	Variants []string `yaml:"variants" json:"variants"`
	// LockTable names a DynamoDB table that serializes writers on S3.
	LockTable string `yaml:"lock_table" json:"lock_table"`
	// LockFile is a flock file that serializes writers on one host.
	LockFile            string `yaml:"lock_file" json:"lock_file"`
	SnapshotCompression string `yaml:"snapshot_compression" json:"snapshot_compression"`
	// SnapshotCodec is the payload codec of new snapshots (cbor, go-json, json).
	SnapshotCodec string `yaml:"snapshot_codec" json:"snapshot_codec"`
}

// WorkerConfig configures the poll loop.
type WorkerConfig struct {
	PollInterval      Duration `yaml:"poll_interval" json:"poll_interval"`
	HeartbeatInterval Duration `yaml:"heartbeat_interval" json:"heartbeat_interval"`
	ChunkSize         int      `yaml:"chunk_size" json:"chunk_size"`
	// Limit caps the points fetched per branch. 0 means no cap.
	Limit            int  `yaml:"limit" json:"limit"`
	ParallelBranches bool `yaml:"parallel_branches" json:"parallel_branches"`
}

// AtlasConfig points at an Allen structure table.
type AtlasConfig struct {
	Path string `yaml:"path" json:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// MetricsConfig configures the Prometheus endpoint. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			Timeout: Duration(60 * time.Second),
			Retries: 3,
		},
		Output: OutputConfig{
			Variants:            []string{"full", "axon", "dendrite"},
			SnapshotCompression: compress.ZSTD.String(),
			SnapshotCodec:       codec.CBOR{}.Name(),
		},
		Worker: WorkerConfig{
			PollInterval:      Duration(10 * time.Second),
			HeartbeatInterval: Duration(3600 * time.Second),
			ChunkSize:         25000,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load returns the defaults overridden by the file at path (if path is not
// empty) and by the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		if err := cfg.decode(data, filepath.Ext(path)); err != nil {
			return nil, fmt.Errorf("config: %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(data []byte, ext string) error {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, c)
	case ".json", ".jsonc":
		return codec.Default.Unmarshal(jsonc.ToJSON(data), c)
	default:
		return fmt.Errorf("unsupported config format %q", ext)
	}
}

// Variants returns the configured dataset variants.
func (c *Config) Variants() ([]skeleton.Variant, error) {
	out := make([]skeleton.Variant, 0, len(c.Output.Variants))
	for _, name := range c.Output.Variants {
		v, err := skeleton.ParseVariant(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// Compression returns the snapshot compression.
func (c *Config) Compression() (compress.Type, error) {
	t, err := compress.Parse(c.Output.SnapshotCompression)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return t, nil
}

// SnapshotCodec returns the payload codec of new snapshots.
func (c *Config) SnapshotCodec() (codec.Codec, error) {
	sc, ok := codec.ByName(c.Output.SnapshotCodec)
	if !ok {
		return nil, fmt.Errorf("%w: unknown snapshot codec %q", ErrInvalidConfig, c.Output.SnapshotCodec)
	}
	return sc, nil
}

// HeartbeatPolls is the number of idle polls between heartbeats.
func (c *Config) HeartbeatPolls() int {
	poll := c.Worker.PollInterval.Std()
	if poll <= 0 {
		return 1
	}
	return max(1, int(c.Worker.HeartbeatInterval.Std()/poll))
}

// LogLevel returns the configured slog level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("%w: log level %q", ErrInvalidConfig, c.Log.Level)
	}
	return level, nil
}

// Validate checks the settings shared by all commands.
func (c *Config) Validate() error {
	var errs []error

	if c.Output.Location == "" {
		errs = append(errs, errors.New("output location is required"))
	}
	if len(c.Output.Variants) == 0 {
		errs = append(errs, errors.New("at least one output variant is required"))
	}
	if _, err := c.Variants(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Compression(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.SnapshotCodec(); err != nil {
		errs = append(errs, err)
	}
	if c.Output.LockTable != "" && c.Output.LockFile != "" {
		errs = append(errs, errors.New("lock_table and lock_file are mutually exclusive"))
	}
	if c.Worker.PollInterval <= 0 {
		errs = append(errs, errors.New("worker poll interval must be positive"))
	}
	if c.Worker.HeartbeatInterval < 0 {
		errs = append(errs, errors.New("worker heartbeat interval must not be negative"))
	}
	if c.Worker.ChunkSize < 0 || c.Worker.Limit < 0 {
		errs = append(errs, errors.New("worker chunk size and limit must not be negative"))
	}
	if c.Source.Retries < 0 || c.Source.RequestsPerSecond < 0 {
		errs = append(errs, errors.New("source retries and rate must not be negative"))
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}
	if f := c.Log.Format; f != "text" && f != "json" {
		errs = append(errs, fmt.Errorf("log format %q is not text or json", f))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// ValidateSource additionally requires the settings of the remote worker.
func (c *Config) ValidateSource() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Source.URL == "" {
		return fmt.Errorf("%w: source url is required", ErrInvalidConfig)
	}
	return nil
}
