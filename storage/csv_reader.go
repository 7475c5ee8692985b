package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"toronto-housing/models"
)

// ReadRawCSV loads a raw scrape CSV. Empty cells are read as absent.
func ReadRawCSV(path string) ([]*models.RawListing, error) {
	var out []*models.RawListing
	err := readCSV(path, RawHeader, func(get func(string) string) error {
		out = append(out, &models.RawListing{
			Address: get("address"),
			Price:   cell(get("price")),
			Beds:    cell(get("beds")),
			Baths:   cell(get("baths")),
			Sqft:    cell(get("sqft")),
		})
		return nil
	})
	return out, err
}

// ReadCleanCSV loads a clean CSV written by CleanCSVWriter.
func ReadCleanCSV(path string) ([]*models.CleanListing, error) {
	var out []*models.CleanListing
	line := 1
	err := readCSV(path, CleanHeader, func(get func(string) string) error {
		line++
		l := &models.CleanListing{
			Address: get("address"),
			Beds:    cell(get("beds")),
			Baths:   cell(get("baths")),
			Sqft:    cell(get("sqft")),
		}
		var err error
		if l.Price, err = parseOpt(get("price"), func(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) }); err != nil {
			return fmt.Errorf("line %d price: %w", line, err)
		}
		if l.TotalBeds, err = parseOpt(get("TotalBeds"), parseFloat); err != nil {
			return fmt.Errorf("line %d TotalBeds: %w", line, err)
		}
		if l.TotalBaths, err = parseOpt(get("TotalBaths"), parseFloat); err != nil {
			return fmt.Errorf("line %d TotalBaths: %w", line, err)
		}
		if l.CleanedSqft, err = parseOpt(get("CleanedSqft"), parseFloat); err != nil {
			return fmt.Errorf("line %d CleanedSqft: %w", line, err)
		}
		if l.FullBed, err = parseOpt(get("full_bed"), strconv.Atoi); err != nil {
			return fmt.Errorf("line %d full_bed: %w", line, err)
		}
		if l.HalfBed, err = parseOpt(get("half_bed"), strconv.Atoi); err != nil {
			return fmt.Errorf("line %d half_bed: %w", line, err)
		}
		out = append(out, l)
		return nil
	})
	return out, err
}

// readCSV calls row for every record, giving it a column lookup by header
// name. Every name in required must be present in the header.
func readCSV(path string, required []string, row func(get func(string) string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("csv: open %q: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("csv: read header of %q: %w", path, err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, name := range required {
		if _, ok := index[name]; !ok {
			return fmt.Errorf("csv: %q is missing column %q", path, name)
		}
	}

	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("csv: read %q: %w", path, err)
		}
		get := func(name string) string {
			i := index[name]
			if i >= len(rec) {
				return ""
			}
			return rec[i]
		}
		if err := row(get); err != nil {
			return fmt.Errorf("csv: %q: %w", path, err)
		}
	}
}

func cell(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// parseOpt parses a cell written by optFmt; an empty cell is absent.
func parseOpt[T any](v string, parse func(string) (T, error)) (*T, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	n, err := parse(v)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}
