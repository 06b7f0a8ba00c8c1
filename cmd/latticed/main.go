package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/latticedb/lattice/pkg/config"
	"github.com/latticedb/lattice/pkg/engine"
	"github.com/latticedb/lattice/pkg/log"
	"github.com/latticedb/lattice/pkg/types"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCodeFor(err))
	}
}

var rootCmd = &cobra.Command{
	Use:   "latticed",
	Short: "Lattice - an embedded content-addressed knowledge graph engine",
	Long: `latticed is the command-line front end for Lattice, a
content-addressed knowledge graph engine with a Cypher-compatible
query layer, ACID transactions and pluggable migration serializers.

It drives the same pkg/engine.Engine an embedding Go program would,
so every subcommand here is also an example of the library API.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"latticed version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("data-dir", "./data", "Directory holding the graph's blocks, WAL and head pointer")
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file (see pkg/config)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(walCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}

// openEngine loads pkg/config for the given command and opens an
// Engine rooted at its --data-dir, the entry point every subcommand
// below shares.
func openEngine(cmd *cobra.Command) (*engine.Engine, error) {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return engine.Open(dataDir, cfg.EngineOptions())
}

// exitCodeFor maps a returned error to spec §6's exit codes. A nil
// error never reaches here; an error with no recognized class is a
// general error.
func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	switch types.ErrorClass(err) {
	case "validation", "unsupported_format":
		return 2
	case "storage", "not_found", "serialization", "deserialization", "integrity":
		return 3
	case "aborted", "conflict", "transaction":
		return 4
	case "parse", "compile":
		return 5
	case "timeout":
		return 64
	case "cancelled":
		return 130
	default:
		return 1
	}
}

// isolationLevel validates a --isolation flag value, falling back to
// the engine's configured default (empty string) for anything it
// doesn't recognize.
func isolationLevel(s string) types.IsolationLevel {
	switch types.IsolationLevel(s) {
	case types.ReadCommitted, types.RepeatableRead, types.Serializable:
		return types.IsolationLevel(s)
	default:
		return ""
	}
}
