package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/go-gota/gota/dataframe"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/couchcryptid/fars-census-service/internal/domain"
	"github.com/couchcryptid/fars-census-service/internal/pipeline"
)

var printer = message.NewPrinter(language.English)

// missingCell marks an absent (year, month) pair in text output.
const missingCell = "NA"

func flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

// printSummary writes the wide table with right-aligned, grouped counts.
func printSummary(w io.Writer, table domain.SummaryTable) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, strings.Join(table.Header(), "\t")+"\t")
	for _, row := range table.Rows {
		cells := make([]string, 0, len(row.Counts)+1)
		cells = append(cells, printer.Sprintf("%d", row.Month))
		for _, n := range row.Counts {
			if n == nil {
				cells = append(cells, missingCell)
				continue
			}
			cells = append(cells, printer.Sprintf("%d", *n))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t")+"\t")
	}
	return tw.Flush()
}

func printOutcome(w io.Writer, o pipeline.MapOutcome, path string) {
	if !o.Rendered {
		printer.Fprintf(w, "state %d, %d: %d accidents, nothing plotted\n", o.State, o.Year, o.Matched)
		return
	}
	printer.Fprintf(w, "state %d, %d: %d accidents, %d plotted, %d without coordinates → %s\n",
		o.State, o.Year, o.Matched, o.Plotted, o.Excluded, path)
}

func printDataset(w io.Writer, df dataframe.DataFrame) {
	printer.Fprintf(w, "%d rows × %d columns\n", df.Nrow(), df.Ncol())
	fmt.Fprintln(w, strings.Join(df.Names(), ", "))
	fmt.Fprintln(w, df.Subset(headRows(df.Nrow(), 10)))
}

func headRows(n, limit int) []int {
	n = min(n, limit)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}
