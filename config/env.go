package config

import (
	"fmt"
	"strconv"
	"strings"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "NMCP_"

// LookupFunc looks up an environment variable.
type LookupFunc func(key string) (string, bool)

type envBinding struct {
	key string
	set func(c *Config, v string) error
}

var envBindings = []envBinding{
	{"SOURCE_URL", func(c *Config, v string) error { c.Source.URL = v; return nil }},
	{"AUTH_KEY", func(c *Config, v string) error { c.Source.AuthKey = v; return nil }},
	{"SOURCE_TIMEOUT", func(c *Config, v string) error { return c.Source.Timeout.UnmarshalText([]byte(v)) }},
	{"SOURCE_RETRIES", func(c *Config, v string) error { return setInt(&c.Source.Retries, v) }},
	{"SOURCE_RPS", func(c *Config, v string) error { return setFloat(&c.Source.RequestsPerSecond, v) }},
	{"OUTPUT", func(c *Config, v string) error { c.Output.Location = v; return nil }},
	{"VARIANTS", func(c *Config, v string) error { c.Output.Variants = splitList(v); return nil }},
	{"LOCK_TABLE", func(c *Config, v string) error { c.Output.LockTable = v; return nil }},
	{"LOCK_FILE", func(c *Config, v string) error { c.Output.LockFile = v; return nil }},
	{"SNAPSHOT_COMPRESSION", func(c *Config, v string) error { c.Output.SnapshotCompression = v; return nil }},
	{"SNAPSHOT_CODEC", func(c *Config, v string) error { c.Output.SnapshotCodec = v; return nil }},
	{"POLL_INTERVAL", func(c *Config, v string) error { return c.Worker.PollInterval.UnmarshalText([]byte(v)) }},
	{"HEARTBEAT_INTERVAL", func(c *Config, v string) error { return c.Worker.HeartbeatInterval.UnmarshalText([]byte(v)) }},
	{"CHUNK_SIZE", func(c *Config, v string) error { return setInt(&c.Worker.ChunkSize, v) }},
	{"LIMIT", func(c *Config, v string) error { return setInt(&c.Worker.Limit, v) }},
	{"PARALLEL_BRANCHES", func(c *Config, v string) error { return setBool(&c.Worker.ParallelBranches, v) }},
	{"ATLAS", func(c *Config, v string) error { c.Atlas.Path = v; return nil }},
	{"LOG_LEVEL", func(c *Config, v string) error { c.Log.Level = v; return nil }},
	{"LOG_FORMAT", func(c *Config, v string) error { c.Log.Format = v; return nil }},
	{"METRICS_ADDR", func(c *Config, v string) error { c.Metrics.Addr = v; return nil }},
}

// ApplyEnv overrides settings from NMCP_* variables found by lookup.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	for _, b := range envBindings {
		v, ok := lookup(EnvPrefix + b.key)
		if !ok {
			continue
		}
		if err := b.set(c, v); err != nil {
			return fmt.Errorf("%w: %s%s: %v", ErrInvalidConfig, EnvPrefix, b.key, err)
		}
	}
	return nil
}

func setInt(dst *int, v string) error {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return err
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, v string) error {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return err
	}
	*dst = f
	return nil
}

func setBool(dst *bool, v string) error {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return err
	}
	*dst = b
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
