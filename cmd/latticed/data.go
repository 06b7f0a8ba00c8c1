package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <path>",
	Short: "Load a graph from path through the named format and persist it",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var exportCmd = &cobra.Command{
	Use:   "export <path>",
	Short: "Serialize the current graph to path through the named format",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	for _, c := range []*cobra.Command{importCmd, exportCmd} {
		c.Flags().String("format", "json", "Registered format name (json, jsonlines, jsonld, csv, graphml, gexf, pajek, dagjson, car, rdf)")
	}
}

func runImport(cmd *cobra.Command, args []string) error {
	e, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	format, _ := cmd.Flags().GetString("format")
	if err := e.Load(context.Background(), args[0], format); err != nil {
		return err
	}
	fmt.Printf("imported %s (%s)\n", args[0], format)
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	e, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	format, _ := cmd.Flags().GetString("format")
	if err := e.Save(context.Background(), args[0], format); err != nil {
		return err
	}
	fmt.Printf("exported %s (%s)\n", args[0], format)
	return nil
}
