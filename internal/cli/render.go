package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/utkarsh5026/fanout/pool"
)

var (
	bold   = color.New(color.Bold)
	green  = color.New(color.FgGreen)
	red    = color.New(color.FgRed)
	yellow = color.New(color.FgYellow)
	cyan   = color.New(color.FgCyan)
)

func colorPrintf(w io.Writer, c *color.Color, format string, a ...any) {
	_, _ = c.Fprintf(w, format, a...)
}

func printSectionHeader(w io.Writer, title string, descriptions ...string) {
	_, _ = fmt.Fprintln(w)
	colorPrintf(w, bold, "═══════════════════════════════════════════════════════════\n")
	colorPrintf(w, bold, "%s\n", title)
	colorPrintf(w, bold, "═══════════════════════════════════════════════════════════\n")
	for _, desc := range descriptions {
		_, _ = fmt.Fprintln(w, desc)
	}
	_, _ = fmt.Fprintln(w)
}

func renderStats(w io.Writer, name string, s pool.Stats) error {
	table := tablewriter.NewWriter(w)
	table.Header("Pool", "Submitted", "Completed", "Caller Runs", "Rejected", "Dropped", "Workers", "Peak", "Queue")

	if err := table.Append(
		name,
		strconv.FormatUint(s.Submitted, 10),
		strconv.FormatUint(s.Completed, 10),
		strconv.FormatUint(s.CallerRuns, 10),
		strconv.FormatUint(s.Rejected, 10),
		strconv.FormatUint(s.Dropped, 10),
		fmt.Sprintf("%d/%d", s.Workers, s.MaxWorkers),
		strconv.Itoa(s.Peak),
		fmt.Sprintf("%d/%d", s.Queued, s.QueueCapacity),
	); err != nil {
		return err
	}
	return table.Render()
}

// slotString renders a holder slot.
func slotString[V any](v V, ok bool) string {
	if !ok {
		return "<empty>"
	}
	return fmt.Sprintf("%v", v)
}
