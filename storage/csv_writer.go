package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"toronto-housing/models"
)

// RawHeader is the column layout of the raw scrape CSV.
var RawHeader = []string{"address", "price", "beds", "baths", "sqft"}

// CleanHeader is the column layout of the clean CSV.
var CleanHeader = []string{
	"address", "price", "beds", "baths", "sqft",
	"TotalBeds", "TotalBaths", "CleanedSqft", "full_bed", "half_bed",
}

// csvFile is a header-first CSV file that is safe for concurrent use.
type csvFile struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// createCSV creates (or truncates) the file at path and writes header.
// Intermediate directories are created automatically.
func createCSV(path string, header []string) (*csvFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &csvFile{file: f, writer: w}, nil
}

func (c *csvFile) writeRows(rows [][]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, row := range rows {
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}
	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *csvFile) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writer.Flush()
	if err := c.writer.Error(); err != nil {
		_ = c.file.Close()
		return fmt.Errorf("csv: flush: %w", err)
	}
	return c.file.Close()
}

// RawCSVWriter writes scraped listings exactly as extracted.
type RawCSVWriter struct {
	*csvFile
}

func NewRawCSVWriter(path string) (*RawCSVWriter, error) {
	f, err := createCSV(path, RawHeader)
	if err != nil {
		return nil, err
	}
	return &RawCSVWriter{f}, nil
}

// WriteRaw appends listings. Absent fields become empty cells.
func (w *RawCSVWriter) WriteRaw(listings []*models.RawListing) error {
	rows := make([][]string, 0, len(listings))
	for _, l := range listings {
		rows = append(rows, []string{l.Address, opt(l.Price), opt(l.Beds), opt(l.Baths), opt(l.Sqft)})
	}
	return w.writeRows(rows)
}

// CleanCSVWriter writes validated listings with their derived columns.
type CleanCSVWriter struct {
	*csvFile
}

func NewCleanCSVWriter(path string) (*CleanCSVWriter, error) {
	f, err := createCSV(path, CleanHeader)
	if err != nil {
		return nil, err
	}
	return &CleanCSVWriter{f}, nil
}

// Write appends listings. Absent fields become empty cells.
func (w *CleanCSVWriter) Write(ctx context.Context, listings []*models.CleanListing) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rows := make([][]string, 0, len(listings))
	for _, l := range listings {
		rows = append(rows, []string{
			l.Address,
			optFmt(l.Price, func(v int64) string { return strconv.FormatInt(v, 10) }),
			opt(l.Beds),
			opt(l.Baths),
			opt(l.Sqft),
			optFmt(l.TotalBeds, formatFloat),
			optFmt(l.TotalBaths, formatFloat),
			optFmt(l.CleanedSqft, formatFloat),
			optFmt(l.FullBed, strconv.Itoa),
			optFmt(l.HalfBed, strconv.Itoa),
		})
	}
	return w.writeRows(rows)
}

func opt(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func optFmt[T any](v *T, format func(T) string) string {
	if v == nil {
		return ""
	}
	return format(*v)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
