package storage

import (
	"context"

	"toronto-housing/models"
)

// ListingWriter is the interface any clean-listing storage backend must satisfy.
type ListingWriter interface {
	Write(ctx context.Context, listings []*models.CleanListing) error
	Close() error
}

// RawListingWriter is the interface for persisting unprocessed scraped data.
type RawListingWriter interface {
	WriteRaw(listings []*models.RawListing) error
	Close() error
}

// ReportWriter persists an insight report somewhere under its own output location.
type ReportWriter interface {
	WriteReport(report *models.InsightReport) error
}

var (
	_ RawListingWriter = (*RawCSVWriter)(nil)
	_ ListingWriter    = (*CleanCSVWriter)(nil)
	_ ListingWriter    = (*PostgresWriter)(nil)
	_ ReportWriter     = (*ExcelWriter)(nil)
	_ ReportWriter     = (*FileReportWriter)(nil)
)
