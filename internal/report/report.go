// Package report renders analysis reports as JSON, CSV and an HTML dashboard.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/sitepulse/analyst/internal/domain/entities"
)

// Format is an export format.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatHTML Format = "html"
)

// ParseFormat accepts json, csv or html; empty means json.
func ParseFormat(value string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(value))); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatCSV, FormatHTML:
		return f, nil
	}
	return "", fmt.Errorf("invalid format %q: use json, csv or html", value)
}

// ContentType returns the HTTP content type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatHTML:
		return "text/html; charset=utf-8"
	}
	return "application/json"
}

// Extension returns the file extension of the format.
func (f Format) Extension() string {
	return "." + string(f)
}

// Render writes the report in the given format. section only applies to CSV.
func Render(w io.Writer, format Format, r *entities.Report, section Section) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, r, section)
	case FormatHTML:
		return WriteHTML(w, NewDashboardData(r))
	default:
		return WriteJSON(w, r)
	}
}

// WriteJSON writes the report as indented JSON.
func WriteJSON(w io.Writer, r *entities.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// Filename returns the download name for a report export.
func Filename(r *entities.Report, format Format, section Section) string {
	name := "report_" + entities.SiteKey(r.SiteURL)
	if date := r.GeneratedAt.Format("20060102"); !r.GeneratedAt.IsZero() {
		name += "_" + date
	}
	if format == FormatCSV && section != "" {
		name += "_" + string(section)
	}
	return name + format.Extension()
}
