package main

import (
	"fmt"
	"io"

	"github.com/MrCodeEU/facewatch/pkg/storage"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List enrolled identities",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := store.List(cmd.Context())
		if err != nil {
			return err
		}
		printRecords(cmd.OutOrStdout(), records)
		return nil
	},
}

func printRecords(out io.Writer, records []storage.Record) {
	if len(records) == 0 {
		fmt.Fprintln(out, "No identities enrolled.")
		return
	}

	fmt.Fprintln(out, "Enrolled identities:")
	for _, r := range records {
		fmt.Fprintf(out, "  %s  %s - %s\n", r.Key(), r.Name, r.FName)
	}
	fmt.Fprintf(out, "\nTotal: %d identit%s\n", len(records), plural(len(records)))
}

func plural(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
