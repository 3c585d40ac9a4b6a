package app

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/vk/testrig/internal/history"
	"github.com/vk/testrig/internal/model"
)

// reportEntry is one line of the JSON report.
type reportEntry struct {
	ID     string                 `json:"id,omitempty"`
	Name   string                 `json:"name"`
	Type   model.TestType         `json:"type"`
	Result *model.ExecutionResult `json:"result"`
}

func (a *App) report(executions []*execution) error {
	if a.config.ReportFormat == "json" {
		return writeJSONReport(a.outW, executions)
	}
	return writeTextReport(a.outW, executions)
}

func writeJSONReport(w io.Writer, executions []*execution) error {
	entries := make([]reportEntry, len(executions))
	for i, e := range executions {
		entries[i] = reportEntry{Name: e.tc.Name, Type: e.tc.Type, Result: e.result}
		if e.record != nil {
			entries[i].ID = e.record.ID
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

func writeTextReport(w io.Writer, executions []*execution) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	passed := 0
	for _, e := range executions {
		id := "-"
		if e.record != nil {
			id = "#" + e.record.ID
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%dms\t%s\t%s\n",
			status(e.result.Success), e.tc.Name, e.tc.Type, e.result.Duration, id, e.result.ErrorMessage())
		if e.result.Success {
			passed++
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, e := range executions {
		if e.result.LoadPayload != nil && e.result.Summary != "" {
			fmt.Fprintf(w, "\n%s\n%s\n", e.tc.Name, indent(e.result.Summary))
		}
	}

	_, err := fmt.Fprintf(w, "\n%d passed, %d failed\n", passed, len(executions)-passed)
	return err
}

func writeHistory(w io.Writer, records []*history.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No history entries found")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tSTATUS\tTYPE\tNAME\tDURATION")
	for _, r := range records {
		ok := r.Result != nil && r.Result.Success
		var duration int64
		if r.Result != nil {
			duration = r.Result.Duration
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%dms\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), status(ok), r.Type, r.Name, duration)
	}
	return tw.Flush()
}

func status(success bool) string {
	if success {
		return "PASS"
	}
	return "FAIL"
}

func indent(s string) string {
	return "  " + strings.ReplaceAll(s, "\n", "\n  ")
}
