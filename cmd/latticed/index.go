package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/latticedb/lattice/pkg/index"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage secondary indexes",
}

var indexCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Declare a new secondary index and backfill it from the current graph",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndexCreate,
}

var indexDropCmd = &cobra.Command{
	Use:   "drop <name>",
	Short: "Remove a previously declared index",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndexDrop,
}

var indexListCmd = &cobra.Command{
	Use:   "list",
	Short: "List declared index names",
	RunE:  runIndexList,
}

func init() {
	indexCreateCmd.Flags().String("kind", "property", "property, composite, relationship, fulltext")
	indexCreateCmd.Flags().String("label", "", "Node label (property, composite, fulltext kinds)")
	indexCreateCmd.Flags().String("property", "", "Property name (property, fulltext kinds)")
	indexCreateCmd.Flags().StringSlice("properties", nil, "Comma-separated property names (composite kind)")
	indexCreateCmd.Flags().String("rel-type", "", "Relationship type (relationship kind)")
	indexCreateCmd.Flags().Bool("unique", false, "Enforce uniqueness (property, composite kinds)")

	indexCmd.AddCommand(indexCreateCmd, indexDropCmd, indexListCmd)
}

func runIndexCreate(cmd *cobra.Command, args []string) error {
	e, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	kind, _ := cmd.Flags().GetString("kind")
	label, _ := cmd.Flags().GetString("label")
	property, _ := cmd.Flags().GetString("property")
	properties, _ := cmd.Flags().GetStringSlice("properties")
	relType, _ := cmd.Flags().GetString("rel-type")
	unique, _ := cmd.Flags().GetBool("unique")

	spec := index.Spec{
		Name:       args[0],
		Kind:       index.Kind(kind),
		Label:      label,
		Property:   property,
		Properties: properties,
		RelType:    relType,
		Unique:     unique,
	}
	if err := e.CreateIndex(spec); err != nil {
		return err
	}
	fmt.Printf("created index %s (%s)\n", args[0], kind)
	return nil
}

func runIndexDrop(cmd *cobra.Command, args []string) error {
	e, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.DropIndex(args[0]); err != nil {
		return err
	}
	fmt.Printf("dropped index %s\n", args[0])
	return nil
}

func runIndexList(cmd *cobra.Command, args []string) error {
	e, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	names := e.ListIndexes()
	if len(names) == 0 {
		fmt.Println("no indexes declared")
		return nil
	}
	fmt.Println(strings.Join(names, "\n"))
	return nil
}
