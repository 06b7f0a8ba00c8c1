// Command latticed is a cobra CLI front end for pkg/engine, mirroring
// cmd/warren's root command + subcommand registration and version
// templating. It exists to exercise the embedded library API from the
// command line, not to add any behavior pkg/engine doesn't already
// have: every subcommand opens an Engine, calls one or two of its
// methods, and exits with the code spec §6 names for the error class
// it got back.
package main
