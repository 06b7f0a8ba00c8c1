package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/latticedb/lattice/pkg/engine"
)

var queryCmd = &cobra.Command{
	Use:   "query [cypher]",
	Short: "Run a Cypher query against the graph at --data-dir",
	Long: `Run a single Cypher query and print its Result.

Examples:
  latticed query "MATCH (n:Person) RETURN n.name"
  latticed query -f report.cql --json`,
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringP("file", "f", "", "Read the query from a file instead of the argument")
	queryCmd.Flags().Bool("json", false, "Print the result as JSON instead of a table")
	queryCmd.Flags().String("isolation", "", "Isolation level: READ_COMMITTED, REPEATABLE_READ, SERIALIZABLE (default from config)")
}

func runQuery(cmd *cobra.Command, args []string) error {
	source, err := querySource(cmd, args)
	if err != nil {
		return err
	}

	e, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	isolation, _ := cmd.Flags().GetString("isolation")
	res, err := e.Execute(context.Background(), source, nil, isolationLevel(isolation))
	if err != nil {
		return err
	}
	if res.Err != nil {
		return res.Err
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		return printResultJSON(res)
	}
	return printResultTable(res)
}

func querySource(cmd *cobra.Command, args []string) (string, error) {
	file, _ := cmd.Flags().GetString("file")
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	if len(args) == 0 {
		return "", fmt.Errorf("query: pass a Cypher string or --file")
	}
	return strings.Join(args, " "), nil
}

func printResultJSON(res engine.Result) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func printResultTable(res engine.Result) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	if len(res.Columns) > 0 {
		fmt.Fprintln(w, strings.Join(res.Columns, "\t"))
	}
	for _, row := range res.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = v.String()
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("(%d rows, %d ms, %d nodes created, %d rels created)\n",
		len(res.Rows), res.Summary.DurationMillis,
		res.Summary.Stats.NodesCreated, res.Summary.Stats.RelsCreated)
	return nil
}
