package geo

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownState is returned for names or codes outside the 51-entry table
var ErrUnknownState = errors.New("unknown state")

// State pairs a full name with its postal abbreviation
type State struct {
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
}

// 50 states plus the District of Columbia.
var stateAbbreviations = map[string]string{
	"Alabama":              "AL",
	"Alaska":               "AK",
	"Arizona":              "AZ",
	"Arkansas":             "AR",
	"California":           "CA",
	"Colorado":             "CO",
	"Connecticut":          "CT",
	"Delaware":             "DE",
	"District of Columbia": "DC",
	"Florida":              "FL",
	"Georgia":              "GA",
	"Hawaii":               "HI",
	"Idaho":                "ID",
	"Illinois":             "IL",
	"Indiana":              "IN",
	"Iowa":                 "IA",
	"Kansas":               "KS",
	"Kentucky":             "KY",
	"Louisiana":            "LA",
	"Maine":                "ME",
	"Maryland":             "MD",
	"Massachusetts":        "MA",
	"Michigan":             "MI",
	"Minnesota":            "MN",
	"Mississippi":          "MS",
	"Missouri":             "MO",
	"Montana":              "MT",
	"Nebraska":             "NE",
	"Nevada":               "NV",
	"New Hampshire":        "NH",
	"New Jersey":           "NJ",
	"New Mexico":           "NM",
	"New York":             "NY",
	"North Carolina":       "NC",
	"North Dakota":         "ND",
	"Ohio":                 "OH",
	"Oklahoma":             "OK",
	"Oregon":               "OR",
	"Pennsylvania":         "PA",
	"Rhode Island":         "RI",
	"South Carolina":       "SC",
	"South Dakota":         "SD",
	"Tennessee":            "TN",
	"Texas":                "TX",
	"Utah":                 "UT",
	"Vermont":              "VT",
	"Virginia":             "VA",
	"Washington":           "WA",
	"West Virginia":        "WV",
	"Wisconsin":            "WI",
	"Wyoming":              "WY",
}

var stateNames = func() map[string]string {
	m := make(map[string]string, len(stateAbbreviations))
	for name, abbr := range stateAbbreviations {
		m[abbr] = name
	}
	return m
}()

// Abbreviation maps a full state name to its postal code
func Abbreviation(name string) (string, error) {
	abbr, ok := stateAbbreviations[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownState, name)
	}
	return abbr, nil
}

// StateName maps a postal code to the full state name
func StateName(abbr string) (string, error) {
	name, ok := stateNames[abbr]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownState, abbr)
	}
	return name, nil
}

// IsAbbreviation reports whether abbr is one of the 51 postal codes
func IsAbbreviation(abbr string) bool {
	_, ok := stateNames[abbr]
	return ok
}

// States returns the table sorted by name
func States() []State {
	out := make([]State, 0, len(stateAbbreviations))
	for name, abbr := range stateAbbreviations {
		out = append(out, State{Name: name, Abbreviation: abbr})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
