package services

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	// unitRegexp matches the unit words Zolo appends to detail values.
	unitRegexp = regexp.MustCompile(`(?i)bed|bath|sqft`)
	// countRegexp is the bed/bath grammar: "3" or "3+1".
	countRegexp = regexp.MustCompile(`^\d+(\+\d+)?$`)
	// sqftPointRegexp and sqftRangeRegexp are the sqft grammar once commas are gone.
	sqftPointRegexp = regexp.MustCompile(`^\d+$`)
	sqftRangeRegexp = regexp.MustCompile(`^(\d+)-(\d+)$`)
)

// missingMarkers are the cell values the site uses for "no data".
var missingMarkers = map[string]struct{}{
	"":       {},
	"-":      {},
	"\u2013": {},
	"\u2014": {},
}

// IsMissing reports whether text is one of the missing-value markers once trimmed.
func IsMissing(text string) bool {
	_, ok := missingMarkers[strings.TrimSpace(text)]
	return ok
}

// StripUnitSuffix lowercases text, removes the words "bed", "bath" and "sqft"
// and trims it. It returns false when nothing usable is left.
func StripUnitSuffix(text string) (string, bool) {
	if IsMissing(text) {
		return "", false
	}
	out := strings.ToLower(text)
	for {
		next := unitRegexp.ReplaceAllString(out, "")
		if next == out {
			break
		}
		out = next
	}
	out = strings.TrimSpace(out)
	if IsMissing(out) {
		return "", false
	}
	return out, true
}

// ParseMixedCount parses "3" as 3 and "3+1" as 4.
func ParseMixedCount(text string) (int, bool) {
	full, half, ok := SplitFullAndHalf(text)
	if !ok || full > math.MaxInt-half {
		return 0, false
	}
	return full + half, true
}

// SplitFullAndHalf parses "3+1" as (3, 1) and "3" as (3, 0).
func SplitFullAndHalf(text string) (full, half int, ok bool) {
	parts := strings.Split(text, "+")
	if len(parts) > 2 {
		return 0, 0, false
	}
	full, ok = parseCount(parts[0])
	if !ok {
		return 0, 0, false
	}
	if len(parts) == 1 {
		return full, 0, true
	}
	half, ok = parseCount(parts[1])
	if !ok {
		return 0, 0, false
	}
	return full, half, true
}

// ParseSqftRange parses "1,200" as 1200 and "1000-1499" as the midpoint 1250.
// Midpoints round half to even, so "500-501" gives 500.
func ParseSqftRange(text string) (int, bool) {
	s := strings.TrimSpace(strings.ReplaceAll(text, ",", ""))

	if m := sqftRangeRegexp.FindStringSubmatch(s); m != nil {
		low, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, false
		}
		high, err := strconv.Atoi(m[2])
		if err != nil {
			return 0, false
		}
		mid := math.RoundToEven((float64(low) + float64(high)) / 2)
		if mid >= math.MaxInt64 {
			return 0, false
		}
		return int(mid), true
	}

	if sqftPointRegexp.MatchString(s) {
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, false
		}
		return n, true
	}

	return 0, false
}

// ParsePrice strips "$" and "," from a price string and parses the rest.
func ParsePrice(text string) (int64, bool) {
	s := strings.NewReplacer("$", "", ",", "").Replace(text)
	s = strings.TrimSpace(s)
	if !sqftPointRegexp.MatchString(s) {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ValidCount reports whether a bed/bath value matches "n" or "n+m".
func ValidCount(text string) bool {
	return countRegexp.MatchString(strings.TrimSpace(text))
}

// ValidSqft reports whether a sqft value is a bare integer or an integer range.
func ValidSqft(text string) bool {
	s := strings.TrimSpace(strings.ReplaceAll(text, ",", ""))
	return sqftPointRegexp.MatchString(s) || sqftRangeRegexp.MatchString(s)
}

func parseCount(part string) (int, bool) {
	part = strings.TrimSpace(part)
	if part == "" {
		return 0, false
	}
	for i := 0; i < len(part); i++ {
		if part[i] < '0' || part[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(part)
	if err != nil {
		return 0, false
	}
	return n, true
}
