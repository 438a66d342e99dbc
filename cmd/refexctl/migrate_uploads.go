package main

import (
	"errors"
	"fmt"

	"github.com/refexsite/internal/service"
	"github.com/refexsite/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateUploadsCmd = &cobra.Command{
	Use:   "migrate-uploads",
	Short: "Move uploaded files between folders and rewrite stored URLs",
	Example: "  refexctl migrate-uploads --to pdfs --ext pdf\n" +
		"  refexctl migrate-uploads --from images --to media/images",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.S3.Bucket != "" {
			return errors.New("migrate-uploads only works with local uploads")
		}
		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")
		ext, _ := cmd.Flags().GetString("ext")
		if to == "" {
			return errors.New("--to is required")
		}

		moves, err := storage.MoveLocal(cfg.UploadDir, cfg.UploadURLPath, from, to, ext)
		// Rewrite whatever was moved even if a later file failed.
		replacements := make(map[string]string, len(moves))
		for _, m := range moves {
			replacements[m.OldURL] = m.NewURL
		}
		rows, rewriteErr := service.NewCatalog(gdb).RewriteURLs(replacements)
		logger.Info("uploads migrated", zap.Int("files", len(moves)), zap.Int("rows", rows))
		fmt.Fprintf(cmd.OutOrStdout(), "moved %d files, updated %d rows\n", len(moves), rows)
		return errors.Join(err, rewriteErr)
	},
}

func init() {
	migrateUploadsCmd.Flags().String("from", "", "source folder below the upload dir (empty for the root)")
	migrateUploadsCmd.Flags().String("to", "", "target folder below the upload dir")
	migrateUploadsCmd.Flags().String("ext", "", "only move files with this extension")
}
