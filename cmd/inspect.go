package cmd

import (
	"fmt"
	"io"
	"math"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/trade-sim/sim/trace"
)

var (
	inspectDB   string // SQLite database written by `run --sqlite`
	inspectFrom int64  // First tick to print
	inspectTo   int64  // Last tick to print
	inspectRaw  bool   // Print stored JSON fields instead of messages
)

// inspectCmd reads back records persisted by a previous run.
var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print records stored by `run --sqlite`",
	Run: func(cmd *cobra.Command, args []string) {
		if inspectDB == "" {
			logrus.Fatalf("--db is required")
		}
		if inspectTo < inspectFrom {
			logrus.Fatalf("--to (%d) must not be before --from (%d)", inspectTo, inspectFrom)
		}
		db, err := trace.OpenSQLiteSink(inspectDB)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		defer db.Close()
		if err := inspectRecords(cmd.OutOrStdout(), db, inspectFrom, inspectTo, inspectRaw); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

// inspectRecords writes one line per record in [from, to] followed by totals for the
// whole database.
func inspectRecords(w io.Writer, db *trace.SQLiteSink, from, to int64, raw bool) error {
	rows, err := db.Records(from, to)
	if err != nil {
		return fmt.Errorf("reading records: %w", err)
	}
	for _, r := range rows {
		if raw {
			fmt.Fprintln(w, r.Fields)
		} else {
			fmt.Fprintln(w, r.Message)
		}
	}

	total, err := db.Count("")
	if err != nil {
		return fmt.Errorf("counting records: %w", err)
	}
	purchases, err := db.Count(trace.TypePurchase)
	if err != nil {
		return fmt.Errorf("counting records: %w", err)
	}
	fmt.Fprintf(w, "--- %d shown, %d stored (%d purchase, %d event)\n",
		len(rows), total, purchases, total-purchases)
	return nil
}

func init() {
	inspectCmd.Flags().StringVar(&inspectDB, "db", "", "SQLite database written by `run --sqlite`")
	inspectCmd.Flags().Int64Var(&inspectFrom, "from", 0, "First tick to print")
	inspectCmd.Flags().Int64Var(&inspectTo, "to", math.MaxInt64, "Last tick to print")
	inspectCmd.Flags().BoolVar(&inspectRaw, "raw", false, "Print stored JSON fields instead of messages")
	rootCmd.AddCommand(inspectCmd)
}
