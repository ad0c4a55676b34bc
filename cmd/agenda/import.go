package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/conference-agenda/internal/importer"
	"github.com/example/conference-agenda/internal/logging"
)

func newImportCommand(opts *rootOptions) *cobra.Command {
	var shift time.Duration
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "import <export.json>",
		Short: "Load a catalog export into the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			export, err := readExport(args[0])
			if err != nil {
				return err
			}
			// Only applied on request; stored times stay UTC either way.
			importer.ShiftTimes(export, shift)

			if dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "export ok: sessions=%d speakers=%d links=%d\n",
					len(export.Data.Sessions), len(export.Data.Speakers), len(export.Data.SessionSpeakers))
				return nil
			}

			a, err := newApp(cmd.Context(), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := logging.ContextWithLogger(cmd.Context(), a.logger)
			summary, err := importer.Load(ctx, a.store, export)
			if err != nil {
				return err
			}

			svc, err := a.services()
			if err != nil {
				return err
			}
			svc.catalog.InvalidateCatalog(ctx)
			svc.agenda.InvalidateAll(ctx)

			fmt.Fprintf(cmd.OutOrStdout(), "imported %s\n", summary)
			return nil
		},
	}
	cmd.Flags().DurationVar(&shift, "shift", 0, "shift session times by this offset before loading (e.g. 3h)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate the export without writing")
	return cmd
}

func newExportCSVCommand() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export-csv <export.json>",
		Short: "Write sessions.csv, speakers.csv and session_speakers.csv from an export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			export, err := readExport(args[0])
			if err != nil {
				return err
			}
			if err := importer.WriteCSV(out, export); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d sessions, %d speakers and %d links to %s\n",
				len(export.Data.Sessions), len(export.Data.Speakers), len(export.Data.SessionSpeakers), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "csv_exports", "output directory")
	return cmd
}

func readExport(path string) (*importer.Export, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return importer.ReadExport(f)
}
