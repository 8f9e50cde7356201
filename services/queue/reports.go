package queue

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"clinicfront/models"
	"clinicfront/utils"
)

// Date presets understood by queue/reports/.
const (
	PresetToday     = "today"
	PresetYesterday = "yesterday"
	PresetThisWeek  = "this_week"
	PresetThisMonth = "this_month"
)

var Presets = []string{PresetToday, PresetYesterday, PresetThisWeek, PresetThisMonth}

var (
	ErrIncompleteRange = errors.New("select both FROM and TO dates")
	ErrBadDate         = errors.New("dates must look like 2006-01-02")
	ErrUnknownPreset   = errors.New("unknown date preset")
)

// ReportFilter selects which archived entries to fetch.
type ReportFilter struct {
	Preset string
	From   string
	To     string
}

// HasRange is true when either bound is set; any bound suppresses the preset.
func (f ReportFilter) HasRange() bool {
	return f.From != "" || f.To != ""
}

// Normalize fills the default preset and rejects half-open or malformed
// ranges. On error the returned filter falls back to the preset alone.
func (f ReportFilter) Normalize() (ReportFilter, error) {
	f.Preset = strings.TrimSpace(f.Preset)
	f.From = strings.TrimSpace(f.From)
	f.To = strings.TrimSpace(f.To)

	var err error
	if f.Preset == "" {
		f.Preset = PresetToday
	} else if !knownPreset(f.Preset) {
		f.Preset = PresetToday
		err = ErrUnknownPreset
	}

	if f.HasRange() {
		switch {
		case f.From == "" || f.To == "":
			err = ErrIncompleteRange
		case !validDate(f.From) || !validDate(f.To):
			err = ErrBadDate
		}
		if err != nil {
			f.From, f.To = "", ""
		}
	}
	return f, err
}

// Query is the query string for queue/reports/.
func (f ReportFilter) Query() url.Values {
	q := url.Values{}
	q.Set("sort", "-served_at")
	if !f.HasRange() {
		preset := f.Preset
		if preset == "" {
			preset = PresetToday
		}
		q.Set("date", preset)
	}
	if f.From != "" {
		q.Set("from", f.From)
	}
	if f.To != "" {
		q.Set("to", f.To)
	}
	return q
}

// Values round-trips the filter into page links.
func (f ReportFilter) Values() url.Values {
	q := url.Values{}
	if f.Preset != "" {
		q.Set("date", f.Preset)
	}
	if f.From != "" {
		q.Set("from", f.From)
	}
	if f.To != "" {
		q.Set("to", f.To)
	}
	return q
}

func knownPreset(p string) bool {
	for _, known := range Presets {
		if p == known {
			return true
		}
	}
	return false
}

func validDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// Search keeps rows whose name, queue number or service contains term,
// ignoring case. An empty term keeps everything.
func Search(rows []models.QueueEntry, term string) []models.QueueEntry {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return rows
	}
	out := make([]models.QueueEntry, 0, len(rows))
	for _, r := range rows {
		if strings.Contains(strings.ToLower(r.Name), term) ||
			strings.Contains(strings.ToLower(r.QueueNumber.String()), term) ||
			strings.Contains(strings.ToLower(r.SelectedService.String()), term) {
			out = append(out, r)
		}
	}
	return out
}

// CSVHeader is the first line of every export.
var CSVHeader = []string{"Queue Number", "Name", "Age", "Priority", "Service", "Notes", "Served At"}

// WriteCSV writes a header and one quoted record per row. Served At is
// rendered in loc.
func WriteCSV(w io.Writer, rows []models.QueueEntry, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("queue: write csv header: %w", err)
	}
	for _, r := range rows {
		served := ""
		if !r.ServedAt.IsZero() {
			served = r.ServedAt.In(loc).Format(utils.ReportTimeLayout)
		}
		record := []string{
			r.QueueNumber.String(),
			r.Name,
			r.Age.String(),
			string(r.Priority),
			r.SelectedService.String(),
			r.Notes,
			served,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("queue: write csv row %s: %w", r.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
