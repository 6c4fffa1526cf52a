package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/huangsam/tranche/internal/contract"
	"github.com/huangsam/tranche/schema"
)

// noValue is shown in tables and CSV for a null value.
const noValue = "-"

// writeWithFile handles the common pattern of opening a file, writing to it, and cleaning up.
// It accepts a writer function that takes an io.Writer and returns an error.
func writeWithFile(outputFile string, writer func(io.Writer) error, successMsg string) error {
	file, err := contract.SelectOutputFile(outputFile)
	if err != nil {
		return err
	}
	// Only close if it's not stdout
	if file != os.Stdout {
		defer func() { _ = file.Close() }()
	}

	if err := writer(file); err != nil {
		return err
	}

	if file != os.Stdout {
		_, _ = fmt.Fprintf(os.Stderr, "💾 %s to %s\n", successMsg, outputFile)
	}
	return nil
}

// writeJSON is a generic JSON encoder that handles indentation consistently.
func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// writeCSVWithHeader writes a header and data rows through one CSV writer.
func writeCSVWithHeader(w io.Writer, header []string, rows [][]string) error {
	csvWriter := csv.NewWriter(w)
	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	if err := csvWriter.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write CSV rows: %w", err)
	}
	return nil
}

// createFormatters creates the common formatter closures used across multiple output types.
func createFormatters(precision int) (fmtFloat func(float64) string, intFmt string) {
	numFmt := "%.*f"
	intFmt = "%d"
	fmtFloat = func(v float64) string {
		return fmt.Sprintf(numFmt, precision, v)
	}
	return fmtFloat, intFmt
}

// optionalFloat formats a nullable float, or noValue for nil.
func optionalFloat(fmtFloat func(float64) string, v *float64) string {
	if v == nil {
		return noValue
	}
	return fmtFloat(*v)
}

func optionalInt(v *int) string {
	if v == nil {
		return noValue
	}
	return strconv.Itoa(*v)
}

func optionalDate(t *time.Time) string {
	if t == nil {
		return noValue
	}
	return schema.FormatDate(*t)
}

// truncate shortens s to at most width runes, marking the cut with an ellipsis.
func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 0 || len(r) <= width {
		return s
	}
	if width <= 3 {
		return string(r[:width])
	}
	return string(r[:width-3]) + "..."
}

// view is one result set rendered in every output mode.
type view struct {
	name    string     // used in messages, e.g. "forecasts"
	data    any        // JSON payload
	header  []string   // CSV header
	records [][]string // CSV rows
	columns []string   // table header
	rows    [][]string // table rows
	align   tw.Align
	title   string // printed above the table
	footer  string // printed under the table
}

// writeView dispatches a view on the configured output mode.
func writeView(cfg *contract.Config, v view) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, v.data)
		}, "Wrote JSON "+v.name); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, v.header, v.records)
		}, "Wrote CSV "+v.name); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeTable(w, v)
		}, "Wrote "+v.name+" table"); err != nil {
			return fmt.Errorf("error writing %s table output: %w", v.name, err)
		}
	}
	return nil
}

// writeTable renders the human-readable form of a view.
func writeTable(w io.Writer, v view) error {
	if v.title != "" {
		_, _ = fmt.Fprintln(w, v.title)
	}
	if len(v.rows) == 0 {
		_, _ = fmt.Fprintf(w, "No %s found.\n", v.name)
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header(v.columns)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = v.align
	})
	if err := table.Bulk(v.rows); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if v.footer != "" {
		_, _ = fmt.Fprintln(w, v.footer)
	}
	return nil
}
