package storage

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"toronto-housing/models"
)

func str(s string) *string { return &s }

func sampleClean() []*models.CleanListing {
	return []*models.CleanListing{
		{
			Address:     "1 Yonge St, Toronto",
			Price:       models.Ptr(int64(1299000)),
			Beds:        str("3+1"),
			Baths:       str("2"),
			Sqft:        str("1000-1499"),
			TotalBeds:   models.Ptr(4.0),
			TotalBaths:  models.Ptr(2.0),
			CleanedSqft: models.Ptr(1250.0),
			FullBed:     models.Ptr(3),
			HalfBed:     models.Ptr(1),
		},
		{
			Address:     "2 Bay St",
			Baths:       str("1"),
			Sqft:        str("1,200"),
			TotalBaths:  models.Ptr(1.0),
			CleanedSqft: models.Ptr(1200.0),
		},
	}
}

func TestRawCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw", "listings.csv")
	w, err := NewRawCSVWriter(path)
	require.NoError(t, err)

	in := []*models.RawListing{
		{Address: "1 Yonge St", Price: str("1299000"), Beds: str("3+1 bed"), Baths: str("2 bath"), Sqft: str("1,000-1,499 sqft")},
		{Address: "2 Bay St", Beds: str("–")},
	}
	require.NoError(t, w.WriteRaw(in))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "address,price,beds,baths,sqft\n"))

	out, err := ReadRawCSV(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestCleanCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clean.csv")
	w, err := NewCleanCSVWriter(path)
	require.NoError(t, err)

	in := sampleClean()
	require.NoError(t, w.Write(context.Background(), in))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "address,price,beds,baths,sqft,TotalBeds,TotalBaths,CleanedSqft,full_bed,half_bed", lines[0])
	assert.Equal(t, `"1 Yonge St, Toronto",1299000,3+1,2,1000-1499,4,2,1250,3,1`, lines[1])
	assert.Equal(t, `2 Bay St,,,1,"1,200",,1,1200,,`, lines[2])

	out, err := ReadCleanCSV(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestReadCSVMissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("address,price\nx,1\n"), 0644))

	_, err := ReadRawCSV(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing column "beds"`)
}

func TestReadCleanCSVBadNumber(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	body := strings.Join(CleanHeader, ",") + "\nx,abc,,,,,,,,\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	_, err := ReadCleanCSV(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2 price")
}

func TestReadRawCSVMissingFile(t *testing.T) {
	_, err := ReadRawCSV(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func sampleReport() *models.InsightReport {
	features := []string{"price", "TotalBeds"}
	return &models.InsightReport{
		TotalListings: 2,
		Features:      features,
		Summary: map[string]models.ColumnStats{
			"price":     {Count: 2, Mean: models.Ptr(1.5e6), Min: models.Ptr(1e6), Max: models.Ptr(2e6)},
			"TotalBeds": {Count: 2, Mean: models.Ptr(2.5), Min: models.Ptr(2.0), Max: models.Ptr(3.0)},
		},
		LogPrice:         models.ColumnStats{Count: 2, Mean: models.Ptr(14.2)},
		Correlation:      [][]float64{{1, 1}, {1, math.NaN()}},
		AvgPriceByBeds:   []models.GroupAverage{{Key: 2, Count: 1, AvgPriceM: 1, RollingAvgM: 1}},
		SqftDistribution: []models.RangeCount{{Label: "0–499", Count: 0}, {Label: "5000+", Count: 2}},
	}
}

func TestFileReportWriter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "eda")
	require.NoError(t, NewFileReportWriter(dir).WriteReport(sampleReport()))

	raw, err := os.ReadFile(filepath.Join(dir, SummaryFile))
	require.NoError(t, err)
	var summary map[string]map[string]*float64
	require.NoError(t, json.Unmarshal(raw, &summary))
	assert.Equal(t, 1.5e6, *summary["price"]["mean"])
	assert.Equal(t, 2.0, *summary["TotalBeds"]["count"])
	assert.Equal(t, 14.2, *summary[LogPriceStatsKey]["mean"])
	assert.Contains(t, summary["price"], "std")
	assert.Nil(t, summary["price"]["std"], "undefined statistics are written as null")

	ranges, err := os.ReadFile(filepath.Join(dir, SqftRangeFile))
	require.NoError(t, err)
	assert.Equal(t, "sqft_range,count\n0–499,0\n5000+,2\n", string(ranges))

	corr, err := os.ReadFile(filepath.Join(dir, CorrelationFile))
	require.NoError(t, err)
	assert.Equal(t, ",price,TotalBeds\nprice,1.0000,1.0000\nTotalBeds,1.0000,\n", string(corr))

	beds, err := os.ReadFile(filepath.Join(dir, AvgByBedsFile))
	require.NoError(t, err)
	assert.Contains(t, string(beds), "2,1,1.000000,1.000000")
}

func TestExcelWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "eda.xlsx")
	require.NoError(t, NewExcelWriter(path).WriteReport(sampleReport()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	for _, s := range []string{SheetSummary, SheetCorrelation, SheetByBeds, SheetByBaths, SheetBySqft, SheetSqftRanges} {
		assert.Contains(t, sheets, s)
	}

	rows, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "column", rows[0][0])
	assert.Equal(t, "price", rows[1][0])
	assert.Equal(t, LogPriceStatsKey, rows[3][0])
	require.Len(t, rows[1], 9)
	assert.Equal(t, "2", rows[1][1])
	assert.Empty(t, rows[1][3], "undefined std is a blank cell")

	ranges, err := f.GetRows(SheetSqftRanges)
	require.NoError(t, err)
	assert.Equal(t, []string{"5000+", "2"}, ranges[2])
}

func TestBuildInsert(t *testing.T) {
	query, args := buildInsert(sampleClean())

	assert.Contains(t, query, "($1,$2,$3,$4,$5,$6,$7,$8,$9,$10),($11,$12,")
	assert.True(t, strings.HasSuffix(query, "$20)"))
	require.Len(t, args, 20)
	assert.Equal(t, "2 Bay St", args[10])
	assert.Nil(t, args[11].(*int64))
}

// Requires a reachable PostgreSQL; set POSTGRES_TEST_DSN to run it.
func TestPostgresWriterRoundTrip(t *testing.T) {
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set, skipping test")
	}
	ctx := context.Background()

	pw, err := NewPostgresWriter(ctx, dsn)
	require.NoError(t, err)
	defer pw.Close()

	in := sampleClean()
	require.NoError(t, pw.Write(ctx, in))

	out, err := pw.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, out, len(in))
	for i := range in {
		out[i].ID = 0
		assert.Equal(t, in[i], out[i])
	}
}
