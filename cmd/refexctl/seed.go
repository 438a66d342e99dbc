package main

import (
	"fmt"

	"github.com/refexsite/internal/service"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill empty content sections from <dir>/<section>.json files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")
		results, err := service.NewCatalog(gdb).SeedDir(dir)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, r := range results {
			if r.Skipped {
				fmt.Fprintf(out, "%-20s skipped (already has rows)\n", r.Key)
				continue
			}
			fmt.Fprintf(out, "%-20s %d created\n", r.Key, r.Created)
		}
		if len(results) == 0 {
			fmt.Fprintf(out, "no seed files found in %s\n", dir)
		}
		return nil
	},
}

func init() {
	seedCmd.Flags().String("dir", "seed", "directory holding <section>.json seed files")
}
