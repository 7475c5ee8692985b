package models

// RawListing holds one scraped listing card exactly as extracted from the page.
// A nil field means the card did not carry that value.
type RawListing struct {
	Address string
	Price   *string
	Beds    *string
	Baths   *string
	Sqft    *string
}

// CleanListing is a validated, numerically normalized listing.
// Beds, Baths and Sqft keep the normalized source text for the clean CSV.
type CleanListing struct {
	ID          int64
	Address     string
	Price       *int64
	Beds        *string
	Baths       *string
	Sqft        *string
	TotalBeds   *float64
	TotalBaths  *float64
	CleanedSqft *float64
	FullBed     *int
	HalfBed     *int
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// ColumnStats is a describe-style summary of one numeric column.
// Every field but Count is nil for an empty column, and Std is nil below two values.
type ColumnStats struct {
	Count int      `json:"count"`
	Mean  *float64 `json:"mean"`
	Std   *float64 `json:"std"`
	Min   *float64 `json:"min"`
	P25   *float64 `json:"25%"`
	P50   *float64 `json:"50%"`
	P75   *float64 `json:"75%"`
	Max   *float64 `json:"max"`
}

// GroupAverage is the mean price for one value of a grouping column.
type GroupAverage struct {
	Key         float64
	Count       int
	AvgPriceM   float64
	RollingAvgM float64
}

// RangeCount is the number of listings whose cleaned sqft falls in a bin.
type RangeCount struct {
	Label string
	Count int
}

// InsightReport holds the computed analytics over the cleaned dataset.
type InsightReport struct {
	TotalListings    int
	PricedListings   int
	Summary          map[string]ColumnStats
	LogPrice         ColumnStats
	Features         []string
	Correlation      [][]float64
	AvgPriceByBeds   []GroupAverage
	AvgPriceByBaths  []GroupAverage
	AvgPriceBySqft   []GroupAverage
	SqftDistribution []RangeCount
	MostExpensive    *CleanListing
}
