package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"text/tabwriter"

	"kineticcore/internal/core"
	"kineticcore/pkg/domain"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

// printReport renders one row per reaction outcome followed by the
// entities the report would add.
func printReport(w io.Writer, report core.GenerationReport) error {
	fmt.Fprintf(w, "report %s (model %s, %s)\n", report.ID, report.ModelID, report.Source)
	tw := newTable(w)
	fmt.Fprintln(tw, "REACTION\tSTATUS\tTEMPLATE\tDETAIL")
	for _, o := range report.Outcomes {
		detail := o.Law
		if o.Status != domain.OutcomeSuccess {
			detail = string(o.Reason)
			if o.Detail != "" {
				detail += ": " + o.Detail
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", o.ReactionID, o.Status, o.Template, detail)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "%d succeeded, %d skipped, %d failed\n",
		report.Count(domain.OutcomeSuccess), report.Count(domain.OutcomeSkipped), report.Count(domain.OutcomeFailed))
	for _, p := range report.NewParameters {
		fmt.Fprintf(w, "  new parameter %s (%s)\n", p.ID, p.Scope)
	}
	for _, u := range report.NewUnits {
		fmt.Fprintf(w, "  new unit %s\n", u.ID)
	}
	for _, f := range report.NewFunctions {
		fmt.Fprintf(w, "  new function %s\n", f.ID)
	}
	for _, id := range report.FastReactions {
		fmt.Fprintf(w, "  warning: reaction %s is fast\n", id)
	}
	return nil
}

func printSummary(w io.Writer, summary core.CommitSummary, res core.Result) {
	fmt.Fprintf(w, "committed %d law(s) into %s\n", len(summary.Applied), summary.ModelID)
	for _, id := range slices.Sorted(maps.Keys(summary.Rejected)) {
		fmt.Fprintf(w, "  rejected %s: %s\n", id, summary.Rejected[id])
	}
	for _, from := range slices.Sorted(maps.Keys(summary.Renamed)) {
		fmt.Fprintf(w, "  renamed %s -> %s\n", from, summary.Renamed[from])
	}
	for _, id := range summary.RemovedParameters {
		fmt.Fprintf(w, "  removed parameter %s\n", id)
	}
	for _, v := range res.Violations {
		fmt.Fprintf(w, "  %s %s: %s\n", v.Severity, v.Rule, v.Message)
	}
}
