package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/jschless/armymarkdown/internal/validate"
)

var issueColumns = []string{"severity", "rule", "location", "message", "reference"}

// writeIssues prints issues in the requested format: text, json or csv.
func writeIssues(w io.Writer, format string, issues []validate.Issue) error {
	switch format {
	case "", "text":
		if len(issues) == 0 {
			_, err := fmt.Fprintln(w, "no issues")
			return err
		}
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, is := range issues {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", is.Severity, is.Rule, is.Location, is.Message)
		}
		return tw.Flush()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if issues == nil {
			issues = []validate.Issue{}
		}
		return enc.Encode(map[string]any{"issues": issues})
	case "csv":
		cw := csv.NewWriter(w)
		if err := cw.Write(issueColumns); err != nil {
			return err
		}
		for _, is := range issues {
			if err := cw.Write([]string{string(is.Severity), is.Rule, is.Location, is.Message, is.Reference}); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	default:
		return fmt.Errorf("unknown format %q (want text, json or csv)", format)
	}
}

// warn logs non-blocking issues.
func (a *app) warn(file string, issues []validate.Issue) {
	for _, is := range issues {
		a.log.Warn(is.Message, "file", file, "rule", is.Rule, "location", is.Location)
	}
}
