package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/nastad/tmsis-dashboard/pkg/engine"
	"github.com/nastad/tmsis-dashboard/pkg/filter"
	"github.com/nastad/tmsis-dashboard/pkg/frame"
	"github.com/nastad/tmsis-dashboard/pkg/query"
	"github.com/nastad/tmsis-dashboard/pkg/shape"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra flags are typically global
var (
	queryStates  []string
	queryYears   []string
	queryExecute bool
	queryCSV     bool
)

//nolint:gochecknoglobals // Cobra commands are typically global
var queryCmd = &cobra.Command{
	Use:   "query [template]",
	Short: "Render or run a catalog query",
	Long: `Prints the SQL a catalog template produces for the given filters.
Without a template, lists the catalog. With --execute, runs the statement
against the configured warehouse and prints the result.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringSliceVar(&queryStates, "state", nil, "restrict to practice-location states (repeatable or comma separated)")
	queryCmd.Flags().StringSliceVar(&queryYears, "year", nil, "restrict to claim years (repeatable or comma separated)")
	queryCmd.Flags().BoolVar(&queryExecute, "execute", false, "run the statement against the warehouse")
	queryCmd.Flags().BoolVar(&queryCSV, "csv", false, "print executed results as CSV")
}

func runQuery(cmd *cobra.Command, args []string) error {
	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// Keep stdout clean for piping unless explicitly set via --log-level flag
	if !cmd.Flags().Changed("log-level") {
		logger.SetLevel(logrus.ErrorLevel)
	}

	catalog, err := engine.NewCatalog(config)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if len(args) == 0 {
		return printCatalog(out, catalog)
	}

	fs := filter.New(queryStates, queryYears)

	stmt, err := catalog.Build(query.ID(args[0]), fs)
	if err != nil {
		return err
	}

	for _, field := range stmt.IgnoredFilters {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "note: %s does not apply to %s, showing all values\n", field, args[0])
	}

	if !queryExecute {
		_, _ = fmt.Fprintln(out, stmt.SQL)
		return nil
	}

	f, err := executeStatement(cmd.Context(), config, fs, stmt)
	if err != nil {
		return err
	}

	if queryCSV {
		return shape.WriteCSV(out, f, nil)
	}

	return printFrame(out, f)
}

// executeStatement validates fs against the warehouse domain before running stmt
func executeStatement(ctx context.Context, config *engine.Config, fs filter.State, stmt *query.Statement) (*frame.Frame, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := config.ResolveSecrets(); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	components, err := engine.NewComponents(logger, config)
	if err != nil {
		return nil, err
	}

	if err := components.Warehouse.Start(ctx); err != nil {
		return nil, err
	}
	defer func() {
		if err := components.Warehouse.Stop(); err != nil {
			logger.WithError(err).Debug("Failed to stop warehouse client")
		}
	}()

	if !fs.IsEmpty() {
		domain, err := components.Lookup.Domain(ctx)
		if err != nil {
			return nil, err
		}

		if err := domain.Validate(fs); err != nil {
			return nil, err
		}
	}

	return components.Executor.Execute(ctx, stmt.SQL)
}

func printCatalog(out io.Writer, catalog *query.Catalog) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TEMPLATE\tFILTERS\tCOLUMNS")

	for _, t := range catalog.Templates() {
		filters := make([]string, len(t.Filters))
		for i, f := range t.Filters {
			filters[i] = string(f)
		}

		_, _ = fmt.Fprintf(w, "%s\t%v\t%v\n", t.ID, filters, t.Columns())
	}

	_, _ = fmt.Fprintf(w, "\nReference: %s (%s)\n", catalog.Reference().ID, catalog.Reference().Table)

	return w.Flush()
}

func printFrame(out io.Writer, f *frame.Frame) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	names := f.Names()
	for i, name := range names {
		sep := "\t"
		if i == len(names)-1 {
			sep = "\n"
		}
		_, _ = fmt.Fprint(w, name, sep)
	}

	for _, row := range f.Records() {
		for i, name := range names {
			sep := "\t"
			if i == len(names)-1 {
				sep = "\n"
			}

			v := row[name]
			if v == nil {
				v = ""
			}
			_, _ = fmt.Fprint(w, v, sep)
		}
	}

	_, _ = fmt.Fprintf(w, "\n%d rows\n", f.Len())

	return w.Flush()
}
