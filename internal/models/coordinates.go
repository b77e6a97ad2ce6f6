package models

// Coordinates represents a geocoded point in the output spatial reference of the geocoder.
type Coordinates struct {
	X float64 // X is the easting or longitude of the point.
	Y float64 // Y is the northing or latitude of the point.
}
