package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"toronto-housing/models"
)

// Output file names under the report directory.
const (
	SummaryFile      = "summary_stats.json"
	SqftRangeFile    = "sqft_range_distribution.csv"
	CorrelationFile  = "correlation.csv"
	AvgByBedsFile    = "avg_price_by_totalbeds.csv"
	AvgByBathsFile   = "avg_price_by_totalbaths.csv"
	AvgBySqftFile    = "avg_price_by_sqft.csv"
	LogPriceStatsKey = "log_price"
)

// FileReportWriter writes the insight report as JSON and CSV files into a directory.
type FileReportWriter struct {
	dir string
}

func NewFileReportWriter(dir string) *FileReportWriter {
	return &FileReportWriter{dir: dir}
}

func (w *FileReportWriter) WriteReport(r *models.InsightReport) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("report: create output dir: %w", err)
	}

	summary := make(map[string]models.ColumnStats, len(r.Summary)+1)
	for k, v := range r.Summary {
		summary[k] = v
	}
	summary[LogPriceStatsKey] = r.LogPrice
	payload, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("report: encode summary: %w", err)
	}
	if err := os.WriteFile(filepath.Join(w.dir, SummaryFile), append(payload, '\n'), 0644); err != nil {
		return fmt.Errorf("report: write summary: %w", err)
	}

	ranges := [][]string{{"sqft_range", "count"}}
	for _, rc := range r.SqftDistribution {
		ranges = append(ranges, []string{rc.Label, strconv.Itoa(rc.Count)})
	}
	if err := w.writeCSV(SqftRangeFile, ranges); err != nil {
		return err
	}

	corr := [][]string{append([]string{""}, r.Features...)}
	for i, name := range r.Features {
		row := []string{name}
		for j := range r.Features {
			row = append(row, formatCorr(r.Correlation[i][j]))
		}
		corr = append(corr, row)
	}
	if err := w.writeCSV(CorrelationFile, corr); err != nil {
		return err
	}

	for file, groups := range map[string][]models.GroupAverage{
		AvgByBedsFile:  r.AvgPriceByBeds,
		AvgByBathsFile: r.AvgPriceByBaths,
		AvgBySqftFile:  r.AvgPriceBySqft,
	} {
		if err := w.writeCSV(file, groupRows(groups)); err != nil {
			return err
		}
	}
	return nil
}

func (w *FileReportWriter) writeCSV(name string, rows [][]string) error {
	f, err := os.Create(filepath.Join(w.dir, name))
	if err != nil {
		return fmt.Errorf("report: create %s: %w", name, err)
	}
	cw := csv.NewWriter(f)
	if err := cw.WriteAll(rows); err != nil {
		_ = f.Close()
		return fmt.Errorf("report: write %s: %w", name, err)
	}
	return f.Close()
}

func groupRows(groups []models.GroupAverage) [][]string {
	rows := [][]string{{"key", "count", "avg_price_millions", "rolling_avg_price_millions"}}
	for _, g := range groups {
		rows = append(rows, []string{
			formatFloat(g.Key),
			strconv.Itoa(g.Count),
			strconv.FormatFloat(g.AvgPriceM, 'f', 6, 64),
			strconv.FormatFloat(g.RollingAvgM, 'f', 6, 64),
		})
	}
	return rows
}

// formatCorr leaves undefined coefficients empty.
func formatCorr(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}
