package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var removeName, removeFName string

var removeCmd = &cobra.Command{
	Use:   "remove [id]",
	Short: "Remove an identity by id or by --name and --fname",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := removeTarget(args, removeName, removeFName)
		if err != nil {
			return err
		}

		if key != "" {
			err = store.Delete(cmd.Context(), key)
		} else {
			err = store.DeleteByName(cmd.Context(), removeName, removeFName)
			key = removeName + " " + removeFName
		}
		if err != nil {
			return fmt.Errorf("failed to remove %s: %w", key, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", key)
		return nil
	},
}

func init() {
	removeCmd.Flags().StringVar(&removeName, "name", "", "Given name")
	removeCmd.Flags().StringVar(&removeFName, "fname", "", "Family name")
}

// removeTarget returns the id to delete, or "" when the name pair should be
// used instead.
func removeTarget(args []string, name, fname string) (string, error) {
	byName := name != "" || fname != ""
	switch {
	case len(args) == 1 && byName:
		return "", errors.New("give either an id or --name/--fname, not both")
	case len(args) == 1:
		return args[0], nil
	case name != "" && fname != "":
		return "", nil
	case byName:
		return "", errors.New("--name and --fname must be given together")
	}
	return "", errors.New("an id or --name/--fname is required")
}
