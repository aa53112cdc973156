package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/JonMunkholm/clinicroster/internal/core"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeReport prints the summary and one line per rejected row.
func writeReport(w io.Writer, r *core.ImportReport) {
	fmt.Fprintln(w, r.Message)
	fmt.Fprintf(w, "total=%d created=%d failed=%d duplicates=%d elapsed=%s\n",
		r.TotalRows, r.Succeeded, r.Failed, r.DuplicatesSkipped, r.Elapsed)
	for _, e := range r.Errors {
		fmt.Fprintf(w, "  line %d: %s\n", e.LineNumber, e.Reason)
	}
}
