package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/manueljhc/healthcare-data-explorer/internal/export"
	"github.com/manueljhc/healthcare-data-explorer/internal/model"
)

// renderReport prints a completed analytics turn: the statement, the result in
// the configured format, the chart suggestion, and the insights.
func renderReport(w io.Writer, report *model.Report, cfg *model.Config) error {
	if report.Rejected() {
		renderRejection(w, report)
		return nil
	}

	format, err := export.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}

	// Machine formats carry the whole report, nothing else.
	if format == export.FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	if report.Explanation != "" {
		fmt.Fprintf(w, "%s\n\n", report.Explanation)
	}
	if cfg.Output.Verbose || report.Question != "" {
		fmt.Fprintf(w, "SQL: %s\n", report.Verdict.Normalized)
		if report.Verdict.Clamped || report.Verdict.Injected {
			fmt.Fprintf(w, "(row bound adjusted to the configured limit)\n")
		}
		fmt.Fprintln(w)
	}

	if report.Result != nil {
		if err := export.Write(w, report.Result, format); err != nil {
			return err
		}
	}

	if chart := report.Chart(); chart != nil {
		fmt.Fprintf(w, "\nSuggested chart: %s", chart.Kind)
		var axes []string
		if chart.X != "" {
			axes = append(axes, "x="+chart.X)
		}
		if chart.Y != "" {
			axes = append(axes, "y="+chart.Y)
		}
		if chart.Series != "" {
			axes = append(axes, "series="+chart.Series)
		}
		if len(axes) > 0 {
			fmt.Fprintf(w, " (%s)", strings.Join(axes, ", "))
		}
		fmt.Fprintf(w, "\n  %s\n", chart.Rationale)
		if chart.Sample {
			fmt.Fprintf(w, "  (dense result: plot a sample)\n")
		}
	}

	if len(report.Insights) > 0 {
		fmt.Fprintf(w, "\nInsights:\n")
		for _, ins := range report.Insights {
			fmt.Fprintf(w, "  - %s\n", ins.Finding)
		}
		if report.Result != nil && report.Result.Truncated {
			fmt.Fprintf(w, "  (result truncated: findings may not be exhaustive)\n")
		}
	}

	if cfg.Output.Verbose && report.Result != nil {
		fmt.Fprintf(w, "\nElapsed: %dms\n", report.Result.ElapsedMS)
	}
	return nil
}

func renderRejection(w io.Writer, report *model.Report) {
	fmt.Fprintf(w, "Query rejected: %s\n", rejectionText(report.Verdict.Reason))
	if report.Verdict.Detail != "" {
		fmt.Fprintf(w, "  %s\n", report.Verdict.Detail)
	}
}

func rejectionText(reason model.RejectReason) string {
	switch reason {
	case model.RejectMultiStatement:
		return "multiple statements are not allowed"
	case model.RejectWriteOperation:
		return "only read-only SELECT queries are allowed"
	case model.RejectDisallowedFunction:
		return "the query calls a disallowed function"
	case model.RejectUnknownTable:
		return "the query references a table that does not exist"
	case model.RejectSyntaxAmbiguous:
		return "the statement could not be parsed safely"
	default:
		return string(reason)
	}
}
