package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"factsheet/internal/codec"
	"factsheet/internal/repository/sqlite"
	"factsheet/internal/service"
)

// formatSQLite stores the snapshot in the export database
const formatSQLite = "sqlite"

func newExportCmd(flags *rootFlags) *cobra.Command {
	var (
		format string
		output string
		dbPath string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a snapshot of the resolved sheet",
		Long: fmt.Sprintf(`Export a snapshot of the sheet selected by --page.

Formats: %v and %s. The sqlite format stores the snapshot in the
export database (export.database in the config, or --db).`, codec.Formats(), formatSQLite),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format == formatSQLite {
				return exportSQLite(cmd, flags, dbPath)
			}

			a, err := newApp(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer f.Close()
				w = f
			}
			return a.service().Export(flags.page, format, w)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "export format")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database for --format sqlite")
	return cmd
}

func exportSQLite(cmd *cobra.Command, flags *rootFlags, dbPath string) error {
	a, err := newApp(flags, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if dbPath == "" {
		dbPath = a.cfg.Export.Database
	}

	repo, err := sqlite.New(dbPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	info, err := a.service(service.WithRepository(repo)).ExportToRepository(cmd.Context(), flags.page)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s -> %s (%d components, %d tenants)\n",
		SuccessStyle.Render("Exported"), info.Sheet, dbPath, info.Components, info.Tenants)
	return nil
}
