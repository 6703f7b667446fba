// Package output renders command results as aligned text tables or JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Formatter writes tables and values in text or JSON form.
type Formatter struct {
	Writer   io.Writer
	JSONMode bool
}

// New creates a Formatter.
func New(w io.Writer, jsonMode bool) *Formatter {
	return &Formatter{Writer: w, JSONMode: jsonMode}
}

// Section is one titled table in a grouped listing.
type Section struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// Table writes a single table. In JSON mode it is an array of objects keyed
// by header.
func (f *Formatter) Table(headers []string, rows [][]string) error {
	if f.JSONMode {
		return f.Print(records(headers, rows))
	}
	return writeTable(f.Writer, headers, rows)
}

// Sections writes one table per section, each under its title. In JSON mode
// the result is a single object keyed by title, in section order.
func (f *Formatter) Sections(sections []Section) error {
	if f.JSONMode {
		return f.Print(orderedSections(sections))
	}
	for i, s := range sections {
		if i > 0 {
			if _, err := fmt.Fprintln(f.Writer); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(f.Writer, s.Title); err != nil {
			return err
		}
		if err := writeTable(f.Writer, s.Headers, s.Rows); err != nil {
			return err
		}
	}
	return nil
}

// Print writes data as indented JSON, or with %v in text mode.
func (f *Formatter) Print(data any) error {
	if f.JSONMode {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}
	_, err := fmt.Fprintf(f.Writer, "%v\n", data)
	return err
}

func writeTable(w io.Writer, headers []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	rule := make([]string, len(headers))
	for i, h := range headers {
		rule[i] = strings.Repeat("-", len(h))
	}
	for _, line := range append([][]string{headers, rule}, rows...) {
		if _, err := fmt.Fprintln(tw, strings.Join(line, "\t")); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func records(headers []string, rows [][]string) []map[string]string {
	out := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		rec := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(row) {
				rec[h] = row[i]
			} else {
				rec[h] = ""
			}
		}
		out = append(out, rec)
	}
	return out
}

// orderedSections marshals as a JSON object whose keys keep section order.
type orderedSections []Section

func (o orderedSections) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, s := range o {
		if i > 0 {
			b.WriteByte(',')
		}
		key, err := json.Marshal(s.Title)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(records(s.Headers, s.Rows))
		if err != nil {
			return nil, err
		}
		b.Write(key)
		b.WriteByte(':')
		b.Write(val)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}
