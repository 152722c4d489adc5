// package formatter renders migration reports and card exports to various formats (JSON, YAML, CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/desertthunder/cardx/internal/models"
	"github.com/desertthunder/cardx/internal/shared"
	"github.com/desertthunder/cardx/internal/tasks"
)

// Format names an output encoding.
type Format string

const (
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "txt"
)

// ParseFormat accepts a format name or a common alias (yml, md, text).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	}
	return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, s)
}

// FormatFromPath infers the format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if f, err := ParseFormat(ext); err == nil {
		return f
	}
	return FormatJSON
}

// Report is the serialisable summary of one migration run.
type Report struct {
	RunID        string               `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	GeneratedAt  time.Time            `json:"generated_at" yaml:"generated_at"`
	Source       string               `json:"source" yaml:"source"`
	Target       string               `json:"target" yaml:"target"`
	Location     models.Location      `json:"location" yaml:"location"`
	Summary      tasks.Summary        `json:"summary" yaml:"summary"`
	SuccessCount int                  `json:"success_count" yaml:"success_count"`
	TotalCount   int                  `json:"total_count" yaml:"total_count"`
	Completed    int                  `json:"completed" yaml:"completed"`
	Cards        []models.CardOutcome `json:"cards" yaml:"cards"`
}

// NewReport builds a report for a run between two instances.
func NewReport(result *tasks.MigrationResult, source, target string, loc models.Location) *Report {
	return &Report{
		RunID:        result.RunID,
		GeneratedAt:  time.Now().UTC(),
		Source:       shared.NormalizeDomain(source),
		Target:       shared.NormalizeDomain(target),
		Location:     loc,
		Summary:      result.Summary(),
		SuccessCount: result.SuccessCount,
		TotalCount:   result.TotalCount,
		Completed:    result.Completed(),
		Cards:        result.Outcomes,
	}
}

// ReportToJSON renders an indented JSON report
func ReportToJSON(r *Report) ([]byte, error) {
	return shared.MarshalJSON(r, true)
}

// ReportToYAML renders a YAML report
func ReportToYAML(r *Report) ([]byte, error) {
	data, err := yaml.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return data, nil
}

// ReportToCSV renders one row per card with columns: Source ID, Title, Created, Target ID, one status per category, Error
func ReportToCSV(r *Report) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Source ID", "Title", "Created", "Target ID"}
	for _, c := range models.Categories {
		headers = append(headers, string(c))
	}
	headers = append(headers, "Error")
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, o := range r.Cards {
		record := []string{
			strconv.Itoa(o.SourceID),
			o.Title,
			strconv.FormatBool(o.Created),
			targetID(o),
		}
		for _, c := range models.Categories {
			record = append(record, string(o.StepStatus(c)))
		}
		record = append(record, o.Error)
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ReportToMarkdown renders a report with a per-card status table and a failure section
func ReportToMarkdown(r *Report) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Migration report\n\n")
	if r.RunID != "" {
		buf.WriteString(fmt.Sprintf("**Run**: %s\n", r.RunID))
	}
	buf.WriteString(fmt.Sprintf("**Source**: %s\n", r.Source))
	buf.WriteString(fmt.Sprintf("**Target**: %s (board %d, column %d, lane %d)\n",
		r.Target, r.Location.BoardID, r.Location.ColumnID, r.Location.LaneID))
	buf.WriteString(fmt.Sprintf("**Result**: %s, %d of %d cards created\n\n", r.Summary, r.SuccessCount, r.TotalCount))

	buf.WriteString("## Cards\n\n")
	buf.WriteString("| Source | Title | Target |")
	for _, c := range models.Categories {
		buf.WriteString(fmt.Sprintf(" %s |", c))
	}
	buf.WriteString("\n|---|---|---|")
	for range models.Categories {
		buf.WriteString("---|")
	}
	buf.WriteString("\n")

	for _, o := range r.Cards {
		buf.WriteString(fmt.Sprintf("| %d | %s | %s |", o.SourceID, escapeCell(o.Title), targetOrDash(o)))
		for _, c := range models.Categories {
			buf.WriteString(fmt.Sprintf(" %s |", o.StepStatus(c)))
		}
		buf.WriteString("\n")
	}

	failures := failureLines(r)
	if len(failures) > 0 {
		buf.WriteString("\n## Failures\n\n")
		for _, line := range failures {
			buf.WriteString("- " + line + "\n")
		}
	}

	return buf.Bytes(), nil
}

// ReportToText renders a plain text report
func ReportToText(r *Report) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Migration %s -> %s\n", r.Source, r.Target))
	buf.WriteString(fmt.Sprintf("Result: %s (%d/%d created)\n\n", r.Summary, r.SuccessCount, r.TotalCount))

	writeCardLines(&buf, r.Cards)

	if r.Completed < r.TotalCount {
		buf.WriteString(fmt.Sprintf("\n%d cards not attempted\n", r.TotalCount-r.Completed))
	}

	return buf.Bytes(), nil
}

// RenderReport encodes a report in the given format
func RenderReport(r *Report, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return ReportToJSON(r)
	case FormatYAML:
		return ReportToYAML(r)
	case FormatCSV:
		return ReportToCSV(r)
	case FormatMarkdown:
		return ReportToMarkdown(r)
	case FormatText:
		return ReportToText(r)
	}
	return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
}

// WriteReport writes a report to path. An empty format is inferred from the extension.
func WriteReport(r *Report, path string, format Format) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: report path", shared.ErrMissingArgument)
	}
	if format == "" {
		format = FormatFromPath(path)
	}

	data, err := RenderReport(r, format)
	if err != nil {
		return "", fmt.Errorf("failed to generate report: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}

	return path, nil
}

// ExportCards encodes full card records as JSON or YAML
func ExportCards(cards []models.Card, format Format) ([]byte, error) {
	switch format {
	case FormatJSON, "":
		return shared.MarshalJSON(cards, true)
	case FormatYAML:
		plain := make([]models.Card, len(cards))
		for i, c := range cards {
			c.Properties = plainProperties(c.Properties)
			plain[i] = c
		}
		data, err := yaml.Marshal(plain)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal YAML: %w", err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("%w: cards export supports json or yaml, got %q", shared.ErrInvalidFlag, format)
}

// WriteCardExport writes cards to path, defaulting to cards.{format}
func WriteCardExport(cards []models.Card, path string, format Format) (string, error) {
	if format == "" {
		format = FormatFromPath(path)
	}
	if path == "" {
		path = "cards." + string(format)
	}

	data, err := ExportCards(cards, format)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}

// RunsToText renders a run history table
func RunsToText(runs []*models.MigrationRun) []byte {
	var buf bytes.Buffer
	if len(runs) == 0 {
		buf.WriteString("No runs recorded\n")
		return buf.Bytes()
	}

	for _, run := range runs {
		buf.WriteString(fmt.Sprintf("#%-4d %-10s %s -> %s board %d  %d/%d created  %s\n",
			run.Sequence(),
			run.Status(),
			run.SourceDomain(),
			run.TargetDomain(),
			run.Target().BoardID,
			run.CardsCreated(),
			run.CardsTotal(),
			run.CreatedAt().Local().Format(time.DateTime),
		))
	}
	return buf.Bytes()
}

// CardRecordsToText renders the per-card outcomes of a stored run
func CardRecordsToText(run *models.MigrationRun, records []*models.CardRecord) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Run #%d (%s)\n", run.Sequence(), run.ID()))
	buf.WriteString(fmt.Sprintf("Status: %s\n", run.Status()))
	buf.WriteString(fmt.Sprintf("Source: %s board %d\n", run.SourceDomain(), run.SourceBoardID()))
	t := run.Target()
	buf.WriteString(fmt.Sprintf("Target: %s board %d column %d lane %d\n", run.TargetDomain(), t.BoardID, t.ColumnID, t.LaneID))
	buf.WriteString(fmt.Sprintf("Cards: %d created, %d failed, %d total\n", run.CardsCreated(), run.CardsFailed(), run.CardsTotal()))
	if run.ErrorMessage() != "" {
		buf.WriteString(fmt.Sprintf("Error: %s\n", run.ErrorMessage()))
	}
	buf.WriteString("\n")

	outcomes := make([]models.CardOutcome, len(records))
	for i, rec := range records {
		outcomes[i] = rec.Outcome()
	}
	writeCardLines(&buf, outcomes)
	return buf.Bytes()
}

func writeCardLines(buf *bytes.Buffer, outcomes []models.CardOutcome) {
	for i, o := range outcomes {
		if !o.Created {
			buf.WriteString(fmt.Sprintf("%d. #%d %s: FAILED %s\n", i+1, o.SourceID, o.Title, o.Error))
			continue
		}
		steps := make([]string, 0, len(models.Categories))
		for _, c := range models.Categories {
			steps = append(steps, fmt.Sprintf("%s=%s", c, o.StepStatus(c)))
		}
		buf.WriteString(fmt.Sprintf("%d. #%d %s -> #%d [%s]\n", i+1, o.SourceID, o.Title, o.TargetID, strings.Join(steps, " ")))
	}
}

func failureLines(r *Report) []string {
	var lines []string
	for _, o := range r.Cards {
		if !o.Created {
			lines = append(lines, fmt.Sprintf("#%d %s: %s", o.SourceID, o.Title, o.Error))
			continue
		}
		for _, c := range models.Categories {
			step, ok := o.Steps[c]
			if !ok || step.Status != models.StatusFailed {
				continue
			}
			if step.Error != "" {
				lines = append(lines, fmt.Sprintf("#%d %s: %s: %s", o.SourceID, o.Title, c, step.Error))
			}
			for _, it := range step.Items {
				if !it.OK() {
					lines = append(lines, fmt.Sprintf("#%d %s: %s %s: %s", o.SourceID, o.Title, c, it.Name, it.Error))
				}
			}
		}
	}
	return lines
}

func targetID(o models.CardOutcome) string {
	if o.TargetID == 0 {
		return ""
	}
	return strconv.Itoa(o.TargetID)
}

func targetOrDash(o models.CardOutcome) string {
	if id := targetID(o); id != "" {
		return id
	}
	return "-"
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// plainProperties converts decoded [json.Number] values so YAML prints them as numbers.
func plainProperties(props map[string]any) map[string]any {
	if props == nil {
		return nil
	}
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = plainValue(v)
	}
	return out
}

func plainValue(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plainValue(e)
		}
		return out
	case map[string]any:
		return plainProperties(t)
	}
	return v
}
