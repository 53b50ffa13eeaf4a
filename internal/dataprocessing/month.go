package dataprocessing

import (
	"fmt"
	"strconv"
	"time"
)

var monthLayouts = []string{"2006-01-02", "2006-01"}

// ParseMonthLabel parses a Zillow month column header such as "2020-01-31"
func ParseMonthLabel(label string) (time.Time, bool) {
	for _, layout := range monthLayouts {
		if t, err := time.Parse(layout, label); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// YearOf returns the year encoded in the first four characters of a label
func YearOf(label string) (int, error) {
	if len(label) < 4 {
		return 0, fmt.Errorf("label %q has no year prefix", label)
	}
	year, err := strconv.Atoi(label[:4])
	if err != nil || year < 0 {
		return 0, fmt.Errorf("label %q has no year prefix", label)
	}
	return year, nil
}

// YearLabel formats a year the way grouped tables name their rows
func YearLabel(year int) string {
	return strconv.Itoa(year)
}
