package storage

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"toronto-housing/models"
)

// Workbook sheet names.
const (
	SheetSummary     = "Summary"
	SheetCorrelation = "Correlation"
	SheetByBeds      = "PriceByBeds"
	SheetByBaths     = "PriceByBaths"
	SheetBySqft      = "PriceBySqft"
	SheetSqftRanges  = "SqftRanges"
)

// ExcelWriter writes the insight report to a single xlsx workbook.
type ExcelWriter struct {
	path string
}

func NewExcelWriter(path string) *ExcelWriter {
	return &ExcelWriter{path: path}
}

func (w *ExcelWriter) WriteReport(r *models.InsightReport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("xlsx: rename sheet: %w", err)
	}

	summary := [][]interface{}{{"column", "count", "mean", "std", "min", "25%", "50%", "75%", "max"}}
	names := append(append([]string{}, r.Features...), LogPriceStatsKey)
	for _, name := range names {
		st, ok := r.Summary[name]
		if name == LogPriceStatsKey {
			st, ok = r.LogPrice, true
		}
		if !ok {
			continue
		}
		row := []interface{}{name, st.Count}
		for _, v := range []*float64{st.Mean, st.Std, st.Min, st.P25, st.P50, st.P75, st.Max} {
			row = append(row, statCell(v))
		}
		summary = append(summary, row)
	}
	if err := writeRows(f, SheetSummary, summary); err != nil {
		return err
	}

	corr := [][]interface{}{append([]interface{}{""}, toAny(r.Features)...)}
	for i, name := range r.Features {
		row := []interface{}{name}
		for j := range r.Features {
			if v := r.Correlation[i][j]; math.IsNaN(v) {
				row = append(row, nil)
			} else {
				row = append(row, v)
			}
		}
		corr = append(corr, row)
	}
	if err := writeRows(f, SheetCorrelation, corr); err != nil {
		return err
	}

	for sheet, groups := range map[string][]models.GroupAverage{
		SheetByBeds:  r.AvgPriceByBeds,
		SheetByBaths: r.AvgPriceByBaths,
		SheetBySqft:  r.AvgPriceBySqft,
	} {
		rows := [][]interface{}{{"key", "count", "avg_price_millions", "rolling_avg_price_millions"}}
		for _, g := range groups {
			rows = append(rows, []interface{}{g.Key, g.Count, g.AvgPriceM, g.RollingAvgM})
		}
		if err := writeRows(f, sheet, rows); err != nil {
			return err
		}
	}

	ranges := [][]interface{}{{"sqft_range", "count"}}
	for _, rc := range r.SqftDistribution {
		ranges = append(ranges, []interface{}{rc.Label, rc.Count})
	}
	if err := writeRows(f, SheetSqftRanges, ranges); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(w.path), 0755); err != nil {
		return fmt.Errorf("xlsx: create output dir: %w", err)
	}
	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("xlsx: save %q: %w", w.path, err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("xlsx: new sheet %s: %w", sheet, err)
		}
	}
	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("xlsx: %s row %d: %w", sheet, i+1, err)
		}
		if err := f.SetSheetRow(sheet, cellRef, &row); err != nil {
			return fmt.Errorf("xlsx: %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

// statCell leaves undefined statistics as blank cells.
func statCell(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func toAny(s []string) []interface{} {
	out := make([]interface{}, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}
