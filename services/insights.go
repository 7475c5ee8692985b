package services

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"toronto-housing/models"
	"toronto-housing/utils"
)

// Feature column names, as they appear in the clean CSV.
const (
	ColPrice       = "price"
	ColTotalBeds   = "TotalBeds"
	ColTotalBaths  = "TotalBaths"
	ColCleanedSqft = "CleanedSqft"
	ColFullBed     = "full_bed"
	ColHalfBed     = "half_bed"
)

// Features is the column order used for the summary and the correlation matrix.
var Features = []string{ColPrice, ColTotalBeds, ColTotalBaths, ColCleanedSqft, ColFullBed, ColHalfBed}

const rollingWindow = 5

type sqftBin struct {
	upper float64
	label string
}

// sqftBins are right-closed: (0,499], (499,999], ..., (4999,+inf).
var sqftBins = []sqftBin{
	{499, "0–499"},
	{999, "500–999"},
	{1499, "1000–1499"},
	{1999, "1500–1999"},
	{2499, "2000–2499"},
	{2999, "2500–2999"},
	{3499, "3000–3499"},
	{3999, "3500–3999"},
	{4499, "4000–4499"},
	{4999, "4500–4999"},
	{math.Inf(1), "5000+"},
}

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

func (s *InsightService) Generate(listings []*models.CleanListing) *models.InsightReport {
	report := &models.InsightReport{
		Summary:  make(map[string]models.ColumnStats, len(Features)),
		Features: Features,
	}
	report.TotalListings = len(listings)

	columns := make(map[string][]*float64, len(Features))
	for _, name := range Features {
		columns[name] = make([]*float64, len(listings))
	}

	var logPrices []float64
	for i, l := range listings {
		if l.Price != nil {
			p := float64(*l.Price)
			columns[ColPrice][i] = &p
			logPrices = append(logPrices, math.Log1p(p))
			report.PricedListings++
			if report.MostExpensive == nil || *l.Price > *report.MostExpensive.Price {
				report.MostExpensive = l
			}
		}
		columns[ColTotalBeds][i] = l.TotalBeds
		columns[ColTotalBaths][i] = l.TotalBaths
		columns[ColCleanedSqft][i] = l.CleanedSqft
		if l.FullBed != nil {
			columns[ColFullBed][i] = models.Ptr(float64(*l.FullBed))
		}
		if l.HalfBed != nil {
			columns[ColHalfBed][i] = models.Ptr(float64(*l.HalfBed))
		}
	}

	for _, name := range Features {
		report.Summary[name] = Describe(present(columns[name]))
	}
	report.LogPrice = Describe(logPrices)

	report.Correlation = make([][]float64, len(Features))
	for i, a := range Features {
		report.Correlation[i] = make([]float64, len(Features))
		for j, b := range Features {
			report.Correlation[i][j] = Pearson(columns[a], columns[b])
		}
	}

	report.AvgPriceByBeds = GroupAveragePrice(columns[ColTotalBeds], columns[ColPrice])
	report.AvgPriceByBaths = GroupAveragePrice(columns[ColTotalBaths], columns[ColPrice])
	report.AvgPriceBySqft = GroupAveragePrice(columns[ColCleanedSqft], columns[ColPrice])
	report.SqftDistribution = SqftDistribution(columns[ColCleanedSqft])

	s.logger.Info("[insights] Summarized %d listings (%d with price)", report.TotalListings, report.PricedListings)
	return report
}

// Describe computes count, mean, sample standard deviation, min, quartiles and max.
// Quartiles interpolate linearly between order statistics.
func Describe(values []float64) models.ColumnStats {
	st := models.ColumnStats{Count: len(values)}
	if len(values) == 0 {
		return st
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(len(sorted))
	st.Mean = &mean

	if len(sorted) > 1 {
		var sq float64
		for _, v := range sorted {
			d := v - mean
			sq += d * d
		}
		st.Std = models.Ptr(math.Sqrt(sq / float64(len(sorted)-1)))
	}

	st.Min = models.Ptr(sorted[0])
	st.Max = models.Ptr(sorted[len(sorted)-1])
	st.P25 = models.Ptr(quantile(sorted, 0.25))
	st.P50 = models.Ptr(quantile(sorted, 0.50))
	st.P75 = models.Ptr(quantile(sorted, 0.75))
	return st
}

func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// Pearson returns the correlation of x and y over rows where both are present.
// It is NaN when fewer than two such rows exist or either side is constant.
func Pearson(x, y []*float64) float64 {
	var xs, ys []float64
	for i := range x {
		if x[i] != nil && y[i] != nil {
			xs = append(xs, *x[i])
			ys = append(ys, *y[i])
		}
	}
	if len(xs) < 2 {
		return math.NaN()
	}

	var mx, my float64
	for i := range xs {
		mx += xs[i]
		my += ys[i]
	}
	mx /= float64(len(xs))
	my /= float64(len(ys))

	var cov, vx, vy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx == 0 || vy == 0 {
		return math.NaN()
	}
	return cov / math.Sqrt(vx*vy)
}

// GroupAveragePrice averages price (in millions) for each distinct key, in key
// order, with a trailing rolling mean over the group averages.
func GroupAveragePrice(keys, prices []*float64) []models.GroupAverage {
	sums := map[float64]float64{}
	counts := map[float64]int{}
	for i := range keys {
		if keys[i] == nil || prices[i] == nil {
			continue
		}
		sums[*keys[i]] += *prices[i]
		counts[*keys[i]]++
	}

	groups := make([]models.GroupAverage, 0, len(counts))
	for k, n := range counts {
		groups = append(groups, models.GroupAverage{
			Key:       k,
			Count:     n,
			AvgPriceM: sums[k] / float64(n) / 1_000_000,
		})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })

	for i := range groups {
		start := max(0, i-rollingWindow+1)
		var total float64
		for j := start; j <= i; j++ {
			total += groups[j].AvgPriceM
		}
		groups[i].RollingAvgM = total / float64(i-start+1)
	}
	return groups
}

// SqftDistribution counts cleaned sqft values per range bin. Every bin is
// reported, including empty ones; values at or below zero fall outside all bins.
func SqftDistribution(sqft []*float64) []models.RangeCount {
	out := make([]models.RangeCount, len(sqftBins))
	for i, b := range sqftBins {
		out[i].Label = b.label
	}
	for _, v := range sqft {
		if v == nil || *v <= 0 {
			continue
		}
		for i, b := range sqftBins {
			if *v <= b.upper {
				out[i].Count++
				break
			}
		}
	}
	return out
}

func present(values []*float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if v != nil {
			out = append(out, *v)
		}
	}
	return out
}

func (s *InsightService) Print(r *models.InsightReport) {
	sep := strings.Repeat("═", 60)
	thin := strings.Repeat("─", 60)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  TORONTO HOUSING SUMMARY\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	fmt.Printf("\033[1;33m  Overview\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Clean listings     : \033[1m%d\033[0m\n", r.TotalListings)
	fmt.Printf("  Listings with price: \033[1m%d\033[0m\n", r.PricedListings)
	fmt.Println()

	fmt.Printf("\033[1;33m  Summary Statistics\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  %-12s %6s %12s %12s %12s %12s\n", "column", "count", "mean", "min", "median", "max")
	for _, name := range r.Features {
		st := r.Summary[name]
		fmt.Printf("  %-12s %6d %12s %12s %12s %12s\n",
			name, st.Count, statText(st.Mean), statText(st.Min), statText(st.P50), statText(st.Max))
	}
	fmt.Println()

	if r.MostExpensive != nil {
		fmt.Printf("\033[1;33m  Most Expensive Listing\033[0m\n")
		fmt.Printf("  %s\n", thin)
		fmt.Printf("  %s\n", truncate(r.MostExpensive.Address, 56))
		fmt.Printf("  Price : \033[1;31m$%d\033[0m\n", *r.MostExpensive.Price)
		fmt.Println()
	}

	fmt.Printf("\033[1;33m  Average Price by Bedrooms (M CAD)\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.AvgPriceByBeds) == 0 {
		fmt.Printf("  No bedroom data\n")
	}
	for _, g := range r.AvgPriceByBeds {
		fmt.Printf("  %-6s %8.3f  (rolling %.3f, n=%d)\n", formatFloat(g.Key), g.AvgPriceM, g.RollingAvgM, g.Count)
	}
	fmt.Println()

	fmt.Printf("\033[1;33m  Sqft Range Distribution\033[0m\n")
	fmt.Printf("  %s\n", thin)
	for _, rc := range r.SqftDistribution {
		bar := strings.Repeat("█", min(rc.Count, 40))
		fmt.Printf("  %-12s %s (%d)\n", rc.Label, bar, rc.Count)
	}

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

func statText(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
