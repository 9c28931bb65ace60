package enrich

import (
	"math"
	"strconv"
	"strings"
)

var currencyMarks = []string{"â‚¬", "Â£", "€", "£", "$"}

// suffix → multiplier to millions. Longer suffixes first.
var valueScales = []struct {
	suffix string
	scale  float64
}{
	{"bn", 1000},
	{"mio", 1},
	{"tsd", 0.001},
	{"th", 0.001},
	{"m", 1},
	{"k", 0.001},
}

// ParseMarketValue converts a scraped market value ("€45.5m", "1.2bn",
// "750k", "€500Th.") to millions. Unsuffixed numbers are taken as millions.
func ParseMarketValue(s string) (float64, bool) {
	clean := s
	for _, c := range currencyMarks {
		clean = strings.ReplaceAll(clean, c, "")
	}
	clean = strings.ToLower(strings.TrimSpace(clean))
	clean = strings.TrimSuffix(clean, ".")
	clean = strings.TrimSpace(clean)
	if clean == "" {
		return 0, false
	}

	scale := 1.0
	for _, vs := range valueScales {
		if strings.HasSuffix(clean, vs.suffix) {
			scale = vs.scale
			clean = strings.TrimSpace(strings.TrimSuffix(clean, vs.suffix))
			break
		}
	}
	if !strings.Contains(clean, ".") {
		clean = strings.Replace(clean, ",", ".", 1)
	} else {
		clean = strings.ReplaceAll(clean, ",", "")
	}

	v, err := strconv.ParseFloat(clean, 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v * scale, true
}
