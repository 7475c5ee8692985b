package services

import (
	"strconv"
	"strings"

	"toronto-housing/models"
	"toronto-housing/utils"
)

// Rejection reasons reported by the cleaner.
const (
	RejectInsufficientSignal = "insufficient_signal"
	RejectMalformedField     = "malformed_field"
	RejectAllMissing         = "all_missing"
)

// minPartition is the smallest slice worth handing to a separate worker.
const minPartition = 256

// CleanStats counts what happened to each raw record.
type CleanStats struct {
	Input              int
	Kept               int
	InsufficientSignal int
	MalformedField     int
	AllMissing         int
	Duplicates         int
}

// Dropped is the number of input records that did not make it to the output.
func (s CleanStats) Dropped() int {
	return s.Input - s.Kept
}

// Cleaner validates RawListings and turns the survivors into CleanListings.
type Cleaner struct {
	logger  *utils.Logger
	workers int
}

// NewCleaner creates a Cleaner that normalizes records on up to workers goroutines.
func NewCleaner(logger *utils.Logger, workers int) *Cleaner {
	if workers < 1 {
		workers = 1
	}
	return &Cleaner{logger: logger, workers: workers}
}

type outcome struct {
	listing *models.CleanListing
	reason  string
}

// Clean filters and normalizes raw listings, then drops listings whose address,
// price and derived values repeat, keeping the first occurrence. Output order
// follows input order.
func (c *Cleaner) Clean(raw []*models.RawListing) ([]*models.CleanListing, CleanStats) {
	stats := CleanStats{Input: len(raw)}
	outcomes := make([]outcome, len(raw))

	if c.workers == 1 || len(raw) < 2*minPartition {
		c.normalizeRange(raw, outcomes, 0, len(raw))
	} else {
		size := (len(raw) + c.workers - 1) / c.workers
		if size < minPartition {
			size = minPartition
		}
		pool := utils.NewWorkerPool(c.workers)
		for start := 0; start < len(raw); start += size {
			lo, hi := start, min(start+size, len(raw))
			pool.Submit(func() { c.normalizeRange(raw, outcomes, lo, hi) })
		}
		pool.Wait()
	}

	seen := utils.NewKeySet()
	result := make([]*models.CleanListing, 0, len(raw))
	for i, o := range outcomes {
		switch o.reason {
		case RejectInsufficientSignal:
			stats.InsufficientSignal++
		case RejectMalformedField:
			stats.MalformedField++
		case RejectAllMissing:
			stats.AllMissing++
		}
		if o.listing == nil {
			if c.logger.DebugEnabled() && raw[i] != nil {
				c.logger.Debug("[cleaner] Dropping %q: %s", raw[i].Address, o.reason)
			}
			continue
		}
		if !seen.Add(dedupKey(o.listing)) {
			stats.Duplicates++
			c.logger.Debug("[cleaner] Duplicate skipped: %s", o.listing.Address)
			continue
		}
		result = append(result, o.listing)
	}
	stats.Kept = len(result)

	c.logger.Info("[cleaner] Cleaned %d → %d listings (insufficient: %d, malformed: %d, duplicates: %d)",
		stats.Input, stats.Kept, stats.InsufficientSignal, stats.MalformedField, stats.Duplicates)
	return result, stats
}

func (c *Cleaner) normalizeRange(raw []*models.RawListing, out []outcome, lo, hi int) {
	for i := lo; i < hi; i++ {
		listing, reason := Normalize(raw[i])
		out[i] = outcome{listing: listing, reason: reason}
	}
}

// Normalize validates a single raw listing. It returns the clean listing, or
// nil and the rejection reason.
func Normalize(r *models.RawListing) (*models.CleanListing, string) {
	if r == nil {
		return nil, RejectMalformedField
	}

	beds := stripField(r.Beds)
	baths := stripField(r.Baths)
	sqft := stripField(r.Sqft)

	missing := 0
	for _, f := range []*string{beds, baths, sqft} {
		if f == nil {
			missing++
		}
	}
	if missing > 1 {
		return nil, RejectInsufficientSignal
	}

	if (beds != nil && !ValidCount(*beds)) ||
		(baths != nil && !ValidCount(*baths)) ||
		(sqft != nil && !ValidSqft(*sqft)) {
		return nil, RejectMalformedField
	}

	if beds == nil && baths == nil && sqft == nil {
		return nil, RejectAllMissing
	}

	l := &models.CleanListing{
		Address: r.Address,
		Beds:    beds,
		Baths:   baths,
		Sqft:    sqft,
	}
	if r.Price != nil {
		if p, ok := ParsePrice(*r.Price); ok {
			l.Price = &p
		}
	}
	if beds != nil {
		if n, ok := ParseMixedCount(*beds); ok {
			l.TotalBeds = models.Ptr(float64(n))
		}
		if full, half, ok := SplitFullAndHalf(*beds); ok {
			l.FullBed = &full
			l.HalfBed = &half
		}
	}
	if baths != nil {
		if n, ok := ParseMixedCount(*baths); ok {
			l.TotalBaths = models.Ptr(float64(n))
		}
	}
	if sqft != nil {
		if n, ok := ParseSqftRange(*sqft); ok {
			l.CleanedSqft = models.Ptr(float64(n))
		}
	}
	return l, ""
}

// stripField maps missing markers to nil. A value made only of unit words
// stays present as "" so that validation rejects it.
func stripField(v *string) *string {
	if v == nil || IsMissing(*v) {
		return nil
	}
	s, _ := StripUnitSuffix(*v)
	return &s
}

// dedupKey encodes the address, price and derived numeric attributes of l.
// The normalized source text is left out, so "3" and "3+0" collide.
func dedupKey(l *models.CleanListing) string {
	var b strings.Builder
	b.WriteString(strconv.Quote(l.Address))
	writeOpt(&b, l.Price, func(v int64) string { return strconv.FormatInt(v, 10) })
	writeOpt(&b, l.TotalBeds, formatFloat)
	writeOpt(&b, l.TotalBaths, formatFloat)
	writeOpt(&b, l.CleanedSqft, formatFloat)
	writeOpt(&b, l.FullBed, strconv.Itoa)
	writeOpt(&b, l.HalfBed, strconv.Itoa)
	return b.String()
}

func writeOpt[T any](b *strings.Builder, v *T, format func(T) string) {
	b.WriteByte('|')
	if v == nil {
		b.WriteByte('~')
		return
	}
	b.WriteString(format(*v))
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
