package store

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// ExtractRecord is one extracted translatable as written by src:extract.
type ExtractRecord struct {
	ID          string   `json:"id"`
	DefaultText string   `json:"default_text"`
	Description string   `json:"description,omitempty"`
	Package     string   `json:"package,omitempty"`
	File        string   `json:"file"`
	Line        int      `json:"line"`
	Errors      []string `json:"errors,omitempty"`
}

// ExportTSV writes records as a tab separated table with a header row.
func ExportTSV(w io.Writer, records []ExtractRecord) error {
	if _, err := fmt.Fprintln(w, "id\tdefault_text\tdescription\tpackage\tfile\tline\terrors"); err != nil {
		return fmt.Errorf("write TSV header: %w", err)
	}

	for _, r := range records {
		_, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			escapeTSV(r.ID),
			escapeTSV(r.DefaultText),
			escapeTSV(r.Description),
			r.Package,
			r.File,
			r.Line,
			escapeTSV(strings.Join(r.Errors, "; ")),
		)
		if err != nil {
			return fmt.Errorf("write TSV row: %w", err)
		}
	}
	return nil
}

// ExportJSON writes records as an indented JSON array.
func ExportJSON(w io.Writer, records []ExtractRecord) error {
	if records == nil {
		records = []ExtractRecord{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(records); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}

// escapeTSV replaces tabs and newlines in a string for TSV safety.
func escapeTSV(s string) string {
	s = strings.ReplaceAll(s, "\t", "\\t")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	return s
}
