// Package render writes health reports and assessment history to a
// terminal as tables, or as JSON for machine consumers.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/fieldsafe/datahealth-engine/pkg/models"
)

var (
	excellentColor = color.New(color.FgGreen, color.Bold)
	goodColor      = color.New(color.FgGreen)
	poorColor      = color.New(color.FgYellow, color.Bold)
	badColor       = color.New(color.FgRed, color.Bold)
	noneColor      = color.New(color.FgHiBlack)
)

// gradeLabel colorizes a grade for terminal output.
func gradeLabel(grade string) string {
	switch grade {
	case models.GradeExcellent:
		return excellentColor.Sprint(grade)
	case models.GradeGood:
		return goodColor.Sprint(grade)
	case models.GradePoor:
		return poorColor.Sprint(grade)
	case models.GradeBad:
		return badColor.Sprint(grade)
	default:
		return noneColor.Sprint(grade)
	}
}

// WriteJSON writes the report as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteReport writes the human-readable rendering of a health report:
// the overall header, per-column table, dimension rollup, top issues,
// and recommendation tiers.
func WriteReport(w io.Writer, report *models.HealthReport) error {
	if report.Empty {
		_, err := fmt.Fprintf(w, "Schema %s: no data to assess (0 records)\n", report.SchemaID)
		return err
	}

	if _, err := fmt.Fprintf(w, "Data health for %s: %.1f (%s) across %d records\n\n",
		report.SchemaID, report.Overall.Score, gradeLabel(report.Overall.Grade), report.TotalRecords); err != nil {
		return err
	}

	if err := writeColumnTable(w, report); err != nil {
		return err
	}
	if err := writeDimensionTable(w, report); err != nil {
		return err
	}
	if err := writeIssues(w, report.Summary.TopIssues); err != nil {
		return err
	}
	if err := writeRecommendations(w, report.Summary.Recommendations); err != nil {
		return err
	}

	opt := report.Summary.Optimization
	if _, err := fmt.Fprintf(w, "Ran %d of %d possible checks (%.1f%% skipped)\n",
		opt.ChecksRun, opt.ChecksPossible, opt.PercentSaved); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Completed in %.2fs (selection %.2fs, assessment %.2fs)\n",
		report.Metrics.TotalSeconds, report.Metrics.SelectionSeconds, report.Metrics.AssessmentSeconds)
	return err
}

func writeColumnTable(w io.Writer, report *models.HealthReport) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Column", "Checked", "Score", "Grade", "Priority", "Notes"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})

	names := make([]string, 0, len(report.Columns))
	for name := range report.Columns {
		names = append(names, name)
	}
	sort.Strings(names)

	var data [][]string
	for _, name := range names {
		col := report.Columns[name]
		data = append(data, []string{
			name,
			dimensionList(col.DimensionsChecked),
			fmt.Sprintf("%.1f", col.Score),
			gradeLabel(columnGrade(col)),
			string(col.Priority),
			columnNotes(col),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}

func writeDimensionTable(w io.Writer, report *models.HealthReport) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Dimension", "Score", "Weight", "Columns"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, d := range models.AllDimensions {
		agg, ok := report.Overall.Dimensions[d]
		if !ok || agg.ColumnsAssessed == 0 {
			data = append(data, []string{string(d), "-", strconv.Itoa(models.DimensionWeights[d]), "0"})
			continue
		}
		data = append(data, []string{
			string(d),
			fmt.Sprintf("%.1f", agg.Score),
			strconv.Itoa(agg.Weight),
			strconv.Itoa(agg.ColumnsAssessed),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}

func writeIssues(w io.Writer, issues []models.Issue) error {
	if len(issues) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "Top issues:"); err != nil {
		return err
	}
	for i, issue := range issues {
		if _, err := fmt.Fprintf(w, "  %d. [%s] %s: %s\n",
			i+1, severityLabel(issue.Severity), issue.Column, issue.Issue); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

func writeRecommendations(w io.Writer, recs models.Recommendations) error {
	tiers := []struct {
		name  string
		items []string
	}{
		{"Immediate", recs.Immediate},
		{"Short-term", recs.ShortTerm},
		{"Long-term", recs.LongTerm},
	}
	for _, tier := range tiers {
		if len(tier.items) == 0 {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s:\n", tier.name); err != nil {
			return err
		}
		for _, item := range tier.items {
			if _, err := fmt.Fprintf(w, "  - %s\n", item); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

// WriteHistory writes recent assessment records as a table, newest first.
func WriteHistory(w io.Writer, records []*models.AssessmentRecord) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No assessment history")
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Assessed", "Schema", "Score", "Grade", "Records"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, r := range records {
		data = append(data, []string{
			r.AssessedAt.Format("2006-01-02 15:04"),
			r.SchemaID,
			fmt.Sprintf("%.1f", r.OverallScore),
			gradeLabel(r.Grade),
			strconv.FormatInt(r.TotalRecords, 10),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func severityLabel(severity string) string {
	switch severity {
	case "high":
		return badColor.Sprint("high")
	case "medium":
		return poorColor.Sprint("medium")
	default:
		return noneColor.Sprint("low")
	}
}

func columnGrade(col *models.ColumnReport) string {
	if col.Error != "" {
		return models.GradeNone
	}
	return models.GradeFor(col.Score)
}

func columnNotes(col *models.ColumnReport) string {
	var notes []string
	if col.IsCritical {
		notes = append(notes, "critical")
	}
	if col.FallbackApplied {
		notes = append(notes, "fallback")
	}
	if col.Error != "" {
		notes = append(notes, "failed")
	}
	return strings.Join(notes, ", ")
}

func dimensionList(dims []models.Dimension) string {
	parts := make([]string, len(dims))
	for i, d := range dims {
		parts[i] = string(d)
	}
	return strings.Join(parts, ",")
}
