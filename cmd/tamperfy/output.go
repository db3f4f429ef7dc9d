package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/anatolykoptev/go-tamperfy"
)

// namedResult is one detection result in JSON output.
type namedResult struct {
	Name string `json:"name"`
	tamperfy.Result
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// writeResult prints one result in human-readable form.
func writeResult(w io.Writer, name string, res tamperfy.Result) {
	fmt.Fprintf(w, "%s: %s (%.4f)\n", name, res.Label, res.Score)
	if len(res.Signals) > 0 {
		parts := make([]string, 0, len(res.Signals))
		for _, s := range res.Signals {
			p := fmt.Sprintf("%s=%.3f", s.Name, s.Value)
			if s.Degraded {
				p += "*"
			}
			parts = append(parts, p)
		}
		fmt.Fprintf(w, "  signals: %s\n", strings.Join(parts, " "))
	}
	for _, f := range res.Findings {
		fmt.Fprintf(w, "  [%s] %s", f.Severity, f.Rule)
		if f.Excerpt != "" {
			fmt.Fprintf(w, ": %s", f.Excerpt)
		}
		fmt.Fprintln(w)
	}
}
