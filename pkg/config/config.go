package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/latticedb/lattice/pkg/engine"
	"github.com/latticedb/lattice/pkg/log"
	"github.com/latticedb/lattice/pkg/types"
)

// Config is the on-disk shape of a lattice config file: one nested
// section per group of knobs. A field absent from the file keeps the
// engine.DefaultOptions()-derived value Default() gives it.
type Config struct {
	DataDir string      `yaml:"data_dir"`
	Cache   CacheConfig `yaml:"cache"`
	WAL     WALConfig   `yaml:"wal"`
	Tx      TxConfig    `yaml:"tx"`
	Query   QueryConfig `yaml:"query"`
	Index   IndexConfig `yaml:"index"`
	Log     LogConfig   `yaml:"log"`
}

type CacheConfig struct {
	Capacity int `yaml:"capacity"`
}

type WALConfig struct {
	Sync                    bool `yaml:"sync"`
	CompactThresholdEntries int  `yaml:"compact_threshold_entries"`
}

type TxConfig struct {
	DefaultIsolation types.IsolationLevel `yaml:"default_isolation"`
}

type QueryConfig struct {
	DefaultTimeoutMillis int `yaml:"default_timeout_ms"`
}

type IndexConfig struct {
	BTree BTreeConfig `yaml:"btree"`
}

type BTreeConfig struct {
	Order int `yaml:"order"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Default returns a Config whose operational knobs match
// engine.DefaultOptions(), so an empty or partial file never produces
// a half-configured engine.
func Default() *Config {
	opts := engine.DefaultOptions()
	return &Config{
		DataDir: "./data",
		Cache:   CacheConfig{Capacity: opts.CacheCapacity},
		WAL: WALConfig{
			Sync:                    opts.WALSync,
			CompactThresholdEntries: opts.WALCompactThresholdEntries,
		},
		Tx:    TxConfig{DefaultIsolation: opts.DefaultIsolation},
		Query: QueryConfig{DefaultTimeoutMillis: opts.DefaultTimeoutMillis},
		Index: IndexConfig{BTree: BTreeConfig{Order: opts.BTreeOrder}},
		Log:   LogConfig{Level: "info", JSON: false},
	}
}

// Load reads and parses a YAML config file at path; any field the file
// does not set keeps Default()'s value. A missing path is not
// an error — it returns Default() unchanged, matching the teacher's
// "config file is optional, flags/defaults cover the rest" posture.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, types.NewConfigurationError("config.load", "check the --config path", err)
	}

	// Unmarshal onto cfg (already holding Default()'s values) rather
	// than a fresh struct: yaml.v3 only overwrites fields the document
	// actually sets, so an omitted key keeps its default instead of
	// being zeroed, including for bools like wal.sync.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, types.NewConfigurationError("config.load", "fix the YAML syntax", err)
	}
	return cfg, nil
}

// EngineOptions translates the YAML-facing Config into engine.Options.
func (c *Config) EngineOptions() engine.Options {
	opts := engine.DefaultOptions()
	opts.CacheCapacity = c.Cache.Capacity
	opts.WALSync = c.WAL.Sync
	opts.WALCompactThresholdEntries = c.WAL.CompactThresholdEntries
	opts.DefaultIsolation = c.Tx.DefaultIsolation
	opts.DefaultTimeoutMillis = c.Query.DefaultTimeoutMillis
	opts.BTreeOrder = c.Index.BTree.Order
	return opts
}

// LogLevel translates the YAML-facing log.level string into a
// pkg/log Level, defaulting to InfoLevel for unrecognized values.
func (c *Config) LogLevel() log.Level {
	switch c.Log.Level {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
