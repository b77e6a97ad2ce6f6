package models

import (
	"fmt"
	"strings"
)

// Fault is a penalty applied by the geocoder for a specific mismatch.
type Fault struct {
	Element string `json:"element"`
	Fault   string `json:"fault"`
	Penalty int    `json:"penalty"`
}

// GeocodeResult is the best match returned for a single address.
type GeocodeResult struct {
	FullAddress     string
	Score           int
	MatchPrecision  string
	PrecisionPoints int
	Faults          []Fault
	Coordinates     Coordinates
}

// FormatFaults renders faults as [element.fault:penalty, ...], or [] when there are none.
func FormatFaults(faults []Fault) string {
	if len(faults) == 0 {
		return "[]"
	}

	parts := make([]string, 0, len(faults))
	for _, f := range faults {
		parts = append(parts, fmt.Sprintf("%s.%s:%d", f.Element, f.Fault, f.Penalty))
	}

	return "[" + strings.Join(parts, ", ") + "]"
}

// AdminArea is the community health service area that contains a geocoded point.
type AdminArea struct {
	Code string
	Name string
}
