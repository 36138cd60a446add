package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	v1 "github.com/stacklok/launch-registry-server/internal/api/v1"
	"github.com/stacklok/launch-registry-server/internal/app/storage"
	"github.com/stacklok/launch-registry-server/internal/service"
)

const (
	outputAuto  = "auto"
	outputTable = "table"
	outputJSON  = "json"
)

type listFlags struct {
	page      int
	pageSize  int
	sortBy    string
	sortOrder string
	success   string
	search    string
	from      string
	to        string
	output    string
}

func newListCmd(v *viper.Viper) *cobra.Command {
	flags := &listFlags{}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List launches from the local store",
		Long: `List launches straight from the configured store without starting the server.
The output is a table on a terminal and JSON otherwise, unless --output is given.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runList(ctx, v, flags, cmd.OutOrStdout())
		},
	}

	listCmd.Flags().IntVar(&flags.page, "page", 1, "Page number, starting at 1")
	listCmd.Flags().IntVar(&flags.pageSize, "page-size", service.DefaultPageSize, "Launches per page")
	listCmd.Flags().StringVar(&flags.sortBy, "sort-by", string(service.SortFieldDateUTC), "Sort field (DateUtc, Name, FlightNumber, Success)")
	listCmd.Flags().StringVar(&flags.sortOrder, "sort-order", string(service.SortOrderDesc), "Sort order (Asc, Desc)")
	listCmd.Flags().StringVar(&flags.success, "success", "", "Only launches with this outcome (true, false)")
	listCmd.Flags().StringVar(&flags.search, "search", "", "Case-insensitive match on name and details")
	listCmd.Flags().StringVar(&flags.from, "from", "", "Earliest launch date (yyyy-MM-dd)")
	listCmd.Flags().StringVar(&flags.to, "to", "", "Latest launch date, inclusive (yyyy-MM-dd)")
	listCmd.Flags().StringVarP(&flags.output, "output", "o", outputAuto, "Output format (auto, table, json)")

	return listCmd
}

func runList(ctx context.Context, v *viper.Viper, flags *listFlags, out io.Writer) error {
	opts, err := flags.options()
	if err != nil {
		return err
	}
	if err := service.NewListLaunchesOptions(opts...).Validate(); err != nil {
		return err
	}

	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}

	factory, err := storage.NewStorageFactory(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create storage factory: %w", err)
	}
	defer factory.Cleanup()

	store, err := factory.CreateLaunchStore(ctx)
	if err != nil {
		return fmt.Errorf("failed to open launch store: %w", err)
	}

	result, err := store.ListLaunches(ctx, opts...)
	if err != nil {
		return err
	}

	output := flags.output
	if output == outputAuto {
		output = outputJSON
		if isTerminal(out) {
			output = outputTable
		}
	}

	switch output {
	case outputJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v1.NewListLaunchesResponse(result))
	case outputTable:
		return renderTable(out, result)
	default:
		return fmt.Errorf("unsupported output format %q", flags.output)
	}
}

func (f *listFlags) options() ([]service.Option, error) {
	sortBy, err := service.ParseSortField(f.sortBy)
	if err != nil {
		return nil, err
	}
	sortOrder, err := service.ParseSortOrder(f.sortOrder)
	if err != nil {
		return nil, err
	}

	opts := []service.Option{
		service.WithPage(f.page),
		service.WithPageSize(f.pageSize),
		service.WithSort(sortBy, sortOrder),
	}

	if f.success != "" {
		success, err := strconv.ParseBool(f.success)
		if err != nil {
			return nil, service.Validation("invalid --success value %q: must be true or false", f.success)
		}
		opts = append(opts, service.WithSuccess(success))
	}

	var from, to *time.Time
	if f.from != "" {
		d, err := time.ParseInLocation(time.DateOnly, f.from, time.UTC)
		if err != nil {
			return nil, service.Validation("invalid --from value %q: must be formatted as yyyy-MM-dd", f.from)
		}
		from = &d
	}
	if f.to != "" {
		d, err := time.ParseInLocation(time.DateOnly, f.to, time.UTC)
		if err != nil {
			return nil, service.Validation("invalid --to value %q: must be formatted as yyyy-MM-dd", f.to)
		}
		end := service.EndOfDay(d)
		to = &end
	}
	if from != nil || to != nil {
		opts = append(opts, service.WithDateRange(from, to))
	}

	if f.search != "" {
		opts = append(opts, service.WithSearch(f.search))
	}
	return opts, nil
}

func renderTable(out io.Writer, result *service.ListLaunchesResult) error {
	table := tablewriter.NewWriter(out)
	table.Header("Flight", "Name", "Date (UTC)", "Outcome", "ID")

	for _, l := range result.Launches {
		row := []string{
			strconv.Itoa(l.FlightNumber),
			l.Name,
			l.DateUTC.Format(time.DateTime),
			outcome(l.Success),
			l.ID,
		}
		if err := table.Append(row); err != nil {
			return fmt.Errorf("failed to render launch %s: %w", l.ID, err)
		}
	}

	if err := table.Render(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(out, "page %d of %d, %d launches\n",
		result.CurrentPage, result.TotalPages, result.TotalCount)
	return err
}

func outcome(success *bool) string {
	switch {
	case success == nil:
		return "unknown"
	case *success:
		return "success"
	default:
		return "failure"
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
