// Package importer normalizes external task sources (CSV files, Trello
// boards) into raw task-creation requests. Enrichment and persistence
// happen downstream in the shared creation path.
package importer

import (
	"encoding/csv"
	"io"
	"strings"
	"time"
)

// RawTask is a normalized task-creation request from any import source.
type RawTask struct {
	Title       string
	Description string
	Status      string
	Assignee    string
	Deadline    *time.Time
}

var deadlineLayouts = []string{"2006-01-02", "1/2/2006"}

// ParseCSV reads tasks out of a CSV export. Header names are matched
// case-insensitively ("title"/"Title"/"name"/"Name" all work); rows
// without a title are skipped rather than failing the whole import.
func ParseCSV(r io.Reader) ([]RawTask, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // ragged exports happen

	header, err := reader.Read()
	if err != nil {
		return nil, err
	}

	col := map[string]int{}
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}

	field := func(record []string, names ...string) string {
		for _, name := range names {
			if i, ok := col[name]; ok && i < len(record) {
				if v := strings.TrimSpace(record[i]); v != "" {
					return v
				}
			}
		}
		return ""
	}

	var tasks []RawTask
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		title := field(record, "title", "name")
		if title == "" {
			continue
		}

		tasks = append(tasks, RawTask{
			Title:       title,
			Description: field(record, "description"),
			Status:      field(record, "status"),
			Assignee:    field(record, "assignee"),
			Deadline:    parseDeadlineCell(field(record, "deadline", "due", "due date")),
		})
	}

	return tasks, nil
}

func parseDeadlineCell(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	for _, layout := range deadlineLayouts {
		if d, err := time.Parse(layout, raw); err == nil {
			return &d
		}
	}
	return nil
}
