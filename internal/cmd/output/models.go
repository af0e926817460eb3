package output

import (
	"io"
	"strconv"
	"strings"

	"github.com/agentstation/modsync/internal/catalog/loader"
	"github.com/agentstation/modsync/internal/deploy"
	"github.com/agentstation/modsync/pkg/catalog"
)

// Print writes data in format. For table output, toTable converts data to
// rows; a nil toTable falls back to reflection.
func Print(w io.Writer, format Format, data any, toTable func() Data) error {
	if (format == FormatTable || format == "") && toTable != nil {
		return NewFormatter(FormatTable).Format(w, toTable())
	}
	return NewFormatter(format).Format(w, data)
}

// EntriesTable lists catalog entries, one row each.
func EntriesTable(entries []catalog.Entry) Data {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		version := ""
		if v, ok := e.Latest(); ok {
			version = v.VersionNumber
		}
		rows = append(rows, []string{
			e.FullName,
			version,
			strconv.FormatInt(e.Downloads(), 10),
			strconv.FormatInt(e.RatingScore, 10),
			dateOnly(e.DateUpdated),
			strings.Join(e.Categories, ", "),
		})
	}
	return Data{
		Headers:         []string{"Package", "Version", "Downloads", "Rating", "Updated", "Categories"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignLeft, AlignRight, AlignRight, AlignLeft, AlignLeft},
	}
}

// ListTable renders a single-column list.
func ListTable(header string, items []string) Data {
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		rows = append(rows, []string{it})
	}
	return Data{Headers: []string{header}, Rows: rows}
}

// SummaryTable describes a catalog load.
func SummaryTable(s loader.Summary) Data {
	return Data{
		Headers: []string{"Property", "Value"},
		Rows: [][]string{
			{"Catalog", s.Catalog.String()},
			{"Entries", strconv.Itoa(s.Entries)},
			{"Chunks", strconv.Itoa(s.Chunks)},
			{"Loaded", strconv.Itoa(s.Loaded)},
			{"From Cache", strconv.Itoa(s.FromCache)},
			{"Failed", strconv.Itoa(s.Failed)},
			{"Duration", s.Duration().String()},
		},
	}
}

// DeployTable describes a deployment.
func DeployTable(r *deploy.Result) Data {
	total := r.Total()
	rows := [][]string{
		{"State", r.State.String()},
		{"Profile", r.Profile},
		{"Target", r.Target},
		{"Payload", r.Payload},
		{"Deployed", strings.Join(r.Deployed, ", ")},
		{"Disabled", strings.Join(r.Disabled, ", ")},
		{"Removed", strings.Join(r.Removed, ", ")},
		{"Files Copied", strconv.Itoa(total.FilesCopied)},
		{"Files Skipped", strconv.Itoa(total.FilesSkipped)},
		{"Bytes Copied", strconv.FormatInt(total.BytesCopied, 10)},
		{"Duration", r.FinishedAt.Sub(r.StartedAt).String()},
	}
	if r.FailedStep != "" {
		rows = append(rows, []string{"Failed Step", r.FailedStep.String()})
	}
	return Data{Headers: []string{"Property", "Value"}, Rows: rows}
}

// ModsTable lists profile plugin folders.
func ModsTable(mods []deploy.ProfileMod) Data {
	rows := make([][]string, 0, len(mods))
	for _, m := range mods {
		state := "enabled"
		if !m.Enabled {
			state = "disabled"
		}
		rows = append(rows, []string{m.Name, state})
	}
	return Data{Headers: []string{"Mod", "State"}, Rows: rows}
}

// dateOnly trims an ISO timestamp to its date.
func dateOnly(ts string) string {
	if i := strings.IndexByte(ts, 'T'); i > 0 {
		return ts[:i]
	}
	return ts
}
