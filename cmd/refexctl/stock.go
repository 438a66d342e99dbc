package main

import (
	"fmt"
	"os"
	"time"

	"github.com/refexsite/internal/app"
	"github.com/spf13/cobra"
)

var stockCmd = &cobra.Command{
	Use:   "stock",
	Short: "Load BSE price history",
}

var stockImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a BSE history CSV export",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		svc := app.NewStockService(gdb, cfg, app.NewSettings(gdb, cfg), logger)
		rows, err := svc.ImportCSV(f)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d rows\n", rows)
		return nil
	},
}

var stockRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Scrape the trailing window of BSE history",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		days, _ := cmd.Flags().GetInt("days")
		if days <= 0 {
			days = cfg.Stock.RefreshDays
		}
		to := time.Now().UTC()
		from := to.AddDate(0, 0, -days)

		svc := app.NewStockService(gdb, cfg, app.NewSettings(gdb, cfg), logger)
		rows, err := svc.Refresh(cmd.Context(), from, to)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "stored %d rows from %s to %s\n", rows, from.Format("2006-01-02"), to.Format("2006-01-02"))
		return nil
	},
}

func init() {
	stockImportCmd.Flags().String("file", "", "path to the CSV export")
	stockImportCmd.MarkFlagRequired("file")
	stockRefreshCmd.Flags().Int("days", 0, "days to refresh (defaults to STOCK_REFRESH_DAYS)")
	stockCmd.AddCommand(stockImportCmd)
	stockCmd.AddCommand(stockRefreshCmd)
}
