package report

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
)

const elapsedPrecision = time.Millisecond

// WriteJSON renders stats as indented JSON.
func WriteJSON(w io.Writer, stats *Stats) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(stats)
}

// WriteTable renders stats as aligned human-readable tables.
func WriteTable(w io.Writer, stats *Stats) error {
	fmt.Fprintf(w, "Path:    %s\n", stats.Path)
	fmt.Fprintf(w, "Files:   %d\n", stats.Files)
	fmt.Fprintf(w, "Dirs:    %d\n", stats.Dirs)
	fmt.Fprintf(w, "Total:   %s\n", humanize.IBytes(stats.TotalBytes))
	if stats.Errors > 0 {
		fmt.Fprintf(w, "Errors:  %d\n", stats.Errors)
	}
	fmt.Fprintf(w, "Elapsed: %s\n", stats.Elapsed.Round(elapsedPrecision))

	if len(stats.TopFiles) > 0 {
		fmt.Fprintf(w, "\nLargest files:\n")
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "  SIZE\tPATH")
		for _, f := range stats.TopFiles {
			fmt.Fprintf(tw, "  %s\t%s\n", humanize.IBytes(f.Bytes), f.Path)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if len(stats.Extensions) > 0 {
		fmt.Fprintf(w, "\nBy extension:\n")
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "  EXT\tCOUNT\tSIZE")
		for _, e := range stats.Extensions {
			fmt.Fprintf(tw, "  %s\t%d\t%s\n", e.Ext, e.Count, humanize.IBytes(e.Bytes))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}
