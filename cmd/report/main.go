package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"studentpulse/internal/config"
	"studentpulse/internal/dataprocessing"
	"studentpulse/internal/datasource"
	"studentpulse/internal/exporter"
	"studentpulse/internal/infrastructure"
	"studentpulse/internal/services"
	"studentpulse/internal/validation"
	"studentpulse/pkg/contracts"
	"studentpulse/pkg/contracts/domain"
)

// Exit codes
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

type options struct {
	input      string
	format     string
	sheet      string
	subjects   []string
	grades     []string
	attendance []string
	missing    string
	out        string
	top        int
	strict     bool
	bom        bool
	timeout    time.Duration
	logLevel   string
	version    bool
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "report: %v\n", err)
		return exitUsage
	}
	if opts.version {
		fmt.Fprintln(stdout, contracts.GetVersionInfo())
		return exitOK
	}

	logger := infrastructure.NewLogger(stderr, config.LoggingConfig{Level: opts.logLevel})
	ctx = infrastructure.EnsureTraceID(ctx)

	if err := report(ctx, opts, stdout, logger); err != nil {
		logger.Error("report failed", slog.String("input", opts.input), slog.String("error", err.Error()))
		fmt.Fprintf(stderr, "report: %v\n", err)
		return exitError
	}
	return exitOK
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	defaults := config.Default().Data
	opts := &options{}

	fs := pflag.NewFlagSet("report", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&opts.input, "input", "i", defaults.Path, "student data file")
	fs.StringVar(&opts.format, "format", "", "input format: csv or xlsx (default from the input extension)")
	fs.StringVar(&opts.sheet, "sheet", defaults.Sheet, "worksheet to read from an xlsx input")
	fs.StringSliceVar(&opts.subjects, "subjects", defaults.Subjects, "subject score columns")
	fs.StringArrayVarP(&opts.grades, "grade", "g", nil, "grade to include, repeatable (A, B, C, D or none)")
	fs.StringArrayVarP(&opts.attendance, "attendance", "a", nil, "attendance level to include, repeatable (Low, Medium, High or none)")
	fs.StringVar(&opts.missing, "missing", defaults.MissingPolicy, "missing score policy: exclude or fail")
	fs.StringVarP(&opts.out, "out", "o", "", "export path; the extension picks csv or xlsx")
	fs.IntVar(&opts.top, "top", dataprocessing.DefaultTopStudents, "number of top students to print")
	fs.BoolVar(&opts.strict, "strict", false, "fail when the filters match no student")
	fs.BoolVar(&opts.bom, "bom", defaults.ExportBOM, "prefix csv exports with a UTF-8 BOM")
	fs.DurationVar(&opts.timeout, "timeout", defaults.LoadTimeout, "load timeout")
	fs.StringVar(&opts.logLevel, "log-level", "warn", "log level for diagnostics on stderr")
	fs.BoolVar(&opts.version, "version", false, "print version information and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.version {
		return opts, nil
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if opts.input == "" {
		return nil, fmt.Errorf("--input is required")
	}
	if opts.top < 1 {
		return nil, fmt.Errorf("--top must be at least 1, got %d", opts.top)
	}
	if opts.format == "" {
		opts.format = strings.TrimPrefix(strings.ToLower(filepath.Ext(opts.input)), ".")
	}
	switch opts.format {
	case config.SourceCSV, config.SourceXLSX:
	default:
		return nil, fmt.Errorf("unsupported input format %q", opts.format)
	}
	return opts, nil
}

// dataConfig maps the flags onto the data section used by the server
func (o *options) dataConfig() config.DataConfig {
	return config.DataConfig{
		Source:        o.format,
		Path:          o.input,
		Sheet:         o.sheet,
		Subjects:      o.subjects,
		MissingPolicy: o.missing,
		ExportBOM:     o.bom,
		LoadTimeout:   o.timeout,
	}
}

func report(ctx context.Context, opts *options, stdout io.Writer, logger *slog.Logger) error {
	cfg := opts.dataConfig()

	policy, err := dataprocessing.ParseMissingPolicy(cfg.MissingPolicy)
	if err != nil {
		return err
	}
	query, err := services.ParseQuery(opts.grades, opts.attendance, opts.strict)
	if err != nil {
		return err
	}

	files := validation.NewFileValidator(logger)
	if err := files.ValidateDataFile(cfg.Path, cfg.Source); err != nil {
		return err
	}

	var exportFormat exporter.Format
	if opts.out != "" {
		if exportFormat, err = exporter.ParseFormat(filepath.Ext(opts.out)); err != nil {
			return err
		}
		if err := files.ValidateOutputFile(opts.out); err != nil {
			return err
		}
	}

	source, err := datasource.NewRowSource(cfg)
	if err != nil {
		return err
	}
	dataset := datasource.New(source, datasource.SchemaFor(cfg), logger, datasource.WithLoadTimeout(cfg.LoadTimeout))
	dashboard := services.NewDashboardService(dataset, services.DashboardOptions{
		Subjects:  cfg.Subjects,
		Derive:    dataprocessing.DeriveOptions{MissingPolicy: policy},
		ExportBOM: cfg.ExportBOM,
	}, nil, nil, nil, logger)

	summary, err := dashboard.Summary(ctx, query)
	if err != nil {
		return err
	}
	charts, err := dashboard.Charts(ctx, query, services.ChartOptions{Top: opts.top})
	if err != nil {
		return err
	}

	printSummary(stdout, source.Origin(), summary.Summary)
	printTopStudents(stdout, charts.Charts.TopStudents)

	if opts.out == "" {
		return nil
	}

	var buf bytes.Buffer
	if err := dashboard.Export(ctx, query, exportFormat, &buf); err != nil {
		return err
	}
	if err := os.WriteFile(opts.out, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	fmt.Fprintf(stdout, "\nExported %d students to %s\n", summary.Summary.Count, opts.out)
	return nil
}

func printSummary(w io.Writer, origin string, s domain.Summary) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Source:\t%s\n", origin)
	fmt.Fprintf(tw, "Students:\t%d\n", s.Count)
	if s.NoData {
		fmt.Fprintln(tw, "No students match the selected filters.")
		tw.Flush()
		return
	}
	fmt.Fprintf(tw, "Average score:\t%s\n", formatScore(s.MeanAverageScore))
	fmt.Fprintf(tw, "Highest average:\t%s\n", formatScore(s.MaxAverageScore))
	fmt.Fprintf(tw, "Average attendance:\t%s\n", formatPercent(s.MeanAttendance))
	tw.Flush()
}

func printTopStudents(w io.Writer, top []domain.RankedStudent) {
	if len(top) == 0 {
		return
	}
	fmt.Fprintf(w, "\nTop %d students\n", len(top))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tName\tAverage\tGrade")
	for _, s := range top {
		fmt.Fprintf(tw, "%d\t%s\t%.2f\t%s\n", s.Rank, s.Name, s.AverageScore, s.Grade)
	}
	tw.Flush()
}

func formatScore(v domain.NullFloat) string {
	if !v.Present() {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", v.Float64)
}

func formatPercent(v domain.NullFloat) string {
	if !v.Present() {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", v.Float64)
}
