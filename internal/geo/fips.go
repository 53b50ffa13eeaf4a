// Package geo holds the US geography lookups the dashboard joins against:
// county FIPS codes, the state name/abbreviation table and the county
// boundary document.
package geo

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidFIPS is returned when a state or county code is not a valid FIPS part
var ErrInvalidFIPS = errors.New("invalid FIPS code")

// CountyFIPS zero-pads a state code to two digits and a county code to three
// and concatenates them: ("6", "1") -> "06001".
func CountyFIPS(state, county string) (string, error) {
	s, err := fipsPart(state, 99)
	if err != nil {
		return "", fmt.Errorf("%w: state %q", ErrInvalidFIPS, state)
	}
	c, err := fipsPart(county, 999)
	if err != nil {
		return "", fmt.Errorf("%w: county %q", ErrInvalidFIPS, county)
	}
	return fmt.Sprintf("%02d%03d", s, c), nil
}

func fipsPart(code string, max int) (int, error) {
	code = strings.TrimSpace(code)
	// Some exports write codes as floats ("6.0").
	code = strings.TrimSuffix(code, ".0")
	n, err := strconv.Atoi(code)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > max {
		return 0, fmt.Errorf("out of range: %d", n)
	}
	return n, nil
}
