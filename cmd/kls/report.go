package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/kaufman-bryce/kos-language-server/pkg/kerboscript/analysis"
	"github.com/kaufman-bryce/kos-language-server/pkg/kerboscript/diag"
)

// fileReport is the JSON shape for one checked document.
type fileReport struct {
	URI         string            `json:"uri"`
	Diagnostics []diag.Diagnostic `json:"diagnostics"`
}

func reportResults(w io.Writer, format string, results []*analysis.DocumentInfo) error {
	if format == "json" {
		reports := make([]fileReport, 0, len(results))
		for _, info := range results {
			diags := info.Diagnostics
			if diags == nil {
				diags = []diag.Diagnostic{}
			}
			reports = append(reports, fileReport{URI: info.URI, Diagnostics: diags})
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	}

	for _, info := range results {
		printTextDiagnostics(w, info)
	}
	return nil
}

// printTextDiagnostics writes file:line:col lines with one-based positions.
func printTextDiagnostics(w io.Writer, info *analysis.DocumentInfo) {
	path := analysis.URIToPath(info.URI)
	for _, d := range info.Diagnostics {
		fmt.Fprintf(w, "%s:%d:%d: %s: %s [%s]\n",
			path, d.Range.Start.Line+1, d.Range.Start.Character+1,
			d.Severity, d.Message, d.Code)
		for _, rel := range d.RelatedInformation {
			fmt.Fprintf(w, "  %s:%d:%d: %s\n",
				analysis.URIToPath(rel.Location.URI),
				rel.Location.Range.Start.Line+1, rel.Location.Range.Start.Character+1,
				rel.Message)
		}
	}
}
