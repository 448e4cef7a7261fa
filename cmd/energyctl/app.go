package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"energydash/internal/backend"
	"energydash/internal/config"
	"energydash/internal/core"
	"energydash/internal/export"
	"energydash/internal/importer"
	"energydash/internal/log"
	"energydash/internal/ports"
	"energydash/internal/storage"
	"energydash/internal/workset"
)

// App carries what every command needs. store is opened lazily so that
// migrate can run without it.
type App struct {
	cfg    *config.Config
	logger *log.Logger
	now    func() time.Time

	store   ports.RecordStore
	cleanup func() error
}

func newApp(cfg *config.Config, logger *log.Logger) *App {
	return &App{cfg: cfg, logger: logger, now: time.Now}
}

func (a *App) openStore(ctx context.Context) (ports.RecordStore, error) {
	if a.store != nil {
		return a.store, nil
	}
	settings, err := backend.SettingsFrom(a.cfg)
	if err != nil {
		return nil, err
	}
	b, err := backend.NewFactory(a.logger.Logger).Open(ctx, settings)
	if err != nil {
		return nil, err
	}
	if !b.Persistent {
		a.logger.Warn("Memory backend selected, changes are not persisted")
	}
	a.store, a.cleanup = b.Store, b.Close
	return a.store, nil
}

func (a *App) close() {
	if a.cleanup == nil {
		return
	}
	if err := a.cleanup(); err != nil {
		a.logger.Warn("Backend cleanup failed", log.FieldError, err)
	}
}

func (a *App) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "energyctl",
		Short: "Manage the energy dashboard records",
		Long: `energyctl reads and writes the committed energy records of the
store selected by DATA_BACKEND, the same store the dashboard uses.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		a.listCommand(),
		a.exportCommand(),
		a.importCommand(),
		a.seedCommand(),
		a.migrateCommand(),
	)
	return root
}

func (a *App) listCommand() *cobra.Command {
	var (
		asJSON bool
		filter filterFlags
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the committed records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := a.loadRecords(cmd.Context(), filter)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}
			return printTable(out, records)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	filter.register(cmd)
	return cmd
}

func (a *App) exportCommand() *cobra.Command {
	var (
		format string
		output string
		filter filterFlags
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the committed records as csv, excel, pdf, json or xml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			records, err := a.loadRecords(cmd.Context(), filter)
			if err != nil {
				return err
			}

			now := a.now()
			if output == "" {
				output = f.Filename(now)
			}
			if output == "-" {
				return export.Encode(cmd.OutOrStdout(), f, records, export.DefaultMeta(now))
			}

			file, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			defer file.Close()
			counter := &countingWriter{w: file}
			if err := export.Encode(counter, f, records, export.DefaultMeta(now)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d records to %s (%s)\n",
				len(records), output, humanize.Bytes(counter.n))
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "export format: csv, excel, pdf, json, xml")
	cmd.Flags().StringVarP(&output, "output", "o", "", `output file, "-" for stdout (default energy-data-<date>.<ext>)`)
	filter.register(cmd)
	return cmd
}

func (a *App) importCommand() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "import FILE.csv",
		Short: "Append the rows of a CSV file and commit them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if !importer.AcceptsFilename(filepath.Base(path)) {
				return fmt.Errorf("%s: only .csv files can be imported", path)
			}
			file, err := os.Open(path)
			if err != nil {
				return err
			}
			defer file.Close()

			res, err := importer.ParseCSV(file, a.now())
			if err != nil {
				return err
			}

			store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			baseline, err := store.LoadRecords(cmd.Context())
			if err != nil {
				return err
			}
			rec := workset.New(baseline)
			n := rec.Import(res.Records)
			if dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "Would import %d records (%d rows skipped)\n", n, res.Skipped)
				return nil
			}
			if _, err := rec.Commit(cmd.Context(), store); err != nil {
				return err
			}
			a.logger.Info("CSV imported",
				log.FieldOperation, log.OpImport,
				log.FieldRecordCount, n,
				"skipped_rows", res.Skipped,
				"filename", path)
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d records (%d rows skipped)\n", n, res.Skipped)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse the file without committing")
	return cmd
}

func (a *App) seedCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the store with twelve months of demo data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			existing, err := store.LoadRecords(cmd.Context())
			if err != nil {
				return err
			}
			if len(existing) > 0 && !force {
				return fmt.Errorf("store already holds %d records, use --force to replace them", len(existing))
			}
			records := core.SeedRecords(a.now())
			if err := store.ReplaceAll(cmd.Context(), records); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d records\n", len(records))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "replace existing records")
	return cmd
}

func (a *App) migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQLite schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.DataBackend != backend.KindSQLite.String() {
				return errors.New("migrate needs DATA_BACKEND=sqlite")
			}
			if err := storage.RunMigrations(a.cfg.SQLiteDBPath); err != nil {
				return err
			}
			version, dirty, err := storage.SchemaVersion(a.cfg.SQLiteDBPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Schema at version %d (dirty: %t)\n", version, dirty)
			return nil
		},
	}
}

func (a *App) loadRecords(ctx context.Context, flags filterFlags) ([]core.Record, error) {
	store, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	records, err := store.LoadRecords(ctx)
	if err != nil {
		return nil, err
	}
	core.RecomputeSavings(records)
	return flags.filter().Apply(records), nil
}

// filterFlags mirrors the dashboard filter panel.
type filterFlags struct {
	minConsumption, maxConsumption float64
	minCost, maxCost               float64
	cmd                            *cobra.Command
}

func (f *filterFlags) register(cmd *cobra.Command) {
	f.cmd = cmd
	cmd.Flags().Float64Var(&f.minConsumption, "min-consumption", 0, "only records with at least this consumption (kWh)")
	cmd.Flags().Float64Var(&f.maxConsumption, "max-consumption", 0, "only records with at most this consumption (kWh)")
	cmd.Flags().Float64Var(&f.minCost, "min-cost", 0, "only records costing at least this much")
	cmd.Flags().Float64Var(&f.maxCost, "max-cost", 0, "only records costing at most this much")
}

func (f *filterFlags) filter() core.Filter {
	bound := func(name string, v float64) *float64 {
		if f.cmd == nil || !f.cmd.Flags().Changed(name) {
			return nil
		}
		return &v
	}
	return core.Filter{
		MinConsumption: bound("min-consumption", f.minConsumption),
		MaxConsumption: bound("max-consumption", f.maxConsumption),
		MinCost:        bound("min-cost", f.minCost),
		MaxCost:        bound("max-cost", f.maxCost),
	}
}

func printTable(w io.Writer, records []core.Record) error {
	right := tw.CellAlignment{PerColumn: []tw.Align{
		tw.AlignLeft, tw.AlignLeft,
		tw.AlignRight, tw.AlignRight, tw.AlignRight, tw.AlignRight, tw.AlignRight,
	}}
	table := tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Header: tw.CellConfig{Alignment: right},
		Row:    tw.CellConfig{Alignment: right},
	}))
	table.Header("ID", "Period", "kWh", "Cost", "Saved kWh", "Saved", "Savings %")
	for _, r := range records {
		err := table.Append(
			r.ID,
			r.Period,
			strconv.FormatFloat(r.Consumption, 'f', 2, 64),
			strconv.FormatFloat(r.Cost, 'f', 2, 64),
			strconv.FormatFloat(r.Saved, 'f', 2, 64),
			strconv.FormatFloat(r.MoneySaved, 'f', 2, 64),
			fmt.Sprintf("%+.1f", r.SavingsPercentage),
		)
		if err != nil {
			return err
		}
	}
	return table.Render()
}

type countingWriter struct {
	w io.Writer
	n uint64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += uint64(n)
	return n, err
}
