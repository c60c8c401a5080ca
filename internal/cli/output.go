package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return exitError(exitSysError, fmt.Sprintf("marshal output: %s", err))
	}
	fmt.Fprintln(w, string(output))
	return nil
}

// printTable writes rows under header in aligned columns, trimming the
// padding tabwriter leaves at line ends.
func printTable(w io.Writer, header []string, rows [][]string) {
	var sb strings.Builder
	tw := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)

	upper := make([]string, len(header))
	rule := make([]string, len(header))
	for i, h := range header {
		upper[i] = strings.ToUpper(h)
		rule[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(tw, strings.Join(upper, "\t"))
	fmt.Fprintln(tw, strings.Join(rule, "\t"))
	for _, r := range rows {
		fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	tw.Flush()

	for _, line := range strings.Split(strings.TrimRight(sb.String(), "\n"), "\n") {
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
}

// printMessages writes submit status messages, one per line.
func printMessages(w io.Writer, msgs []string) {
	for _, m := range msgs {
		fmt.Fprintln(w, m)
	}
}
