package geocoding

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// DefaultOutputFormat is the response format requested when none is set.
const DefaultOutputFormat = "json"

// Request holds the parameters of an address geocoding request.
// Empty strings, zero numbers and nil booleans are left out of the query.
type Request struct {
	OutputFormat string

	Tags              string
	SetBack           int
	MinScore          int
	MaxResults        int
	MatchPrecision    string
	MatchPrecisionNot string
	Localities        string
	NotLocalities     string
	Centre            string
	MaxDistance       int
	Bbox              string
	ParcelPoint       *bool
	Extrapolate       *bool
	QuickMatch        *bool
	IgnoreSites       *bool
	SitesOnly         bool
	Interpolation     string
	APLocation        *bool
	Echo              *bool
	OutputSRS         int

	AddressString      string
	SiteName           string
	UnitDesignator     string
	UnitNumber         string
	UnitNumberSuffix   string
	CivicNumber        string
	CivicNumberSuffix  string
	StreetName         string
	StreetType         string
	StreetDirection    string
	StreetQualifier    string
	Locality           string
	Province           string
	LocationDescriptor string
}

// Bool returns a pointer to v, for the optional boolean parameters of a Request.
func Bool(v bool) *bool {
	return &v
}

// Path returns the resource path of the request relative to the geocoder base URL.
func (r Request) Path() string {
	path := "addresses"
	if r.SitesOnly {
		path += "/sites"
	}

	format := r.OutputFormat
	if format == "" {
		format = DefaultOutputFormat
	}

	return path + "." + format
}

// Query serializes every set parameter.
func (r Request) Query() url.Values {
	query := url.Values{}

	setString := func(key, value string) {
		if value != "" {
			query.Set(key, value)
		}
	}
	setInt := func(key string, value int) {
		if value != 0 {
			query.Set(key, strconv.Itoa(value))
		}
	}
	setBool := func(key string, value *bool) {
		if value != nil {
			query.Set(key, strconv.FormatBool(*value))
		}
	}

	setString("tags", r.Tags)
	setInt("setBack", r.SetBack)
	setInt("minScore", r.MinScore)
	setInt("maxResults", r.MaxResults)
	setString("matchPrecision", r.MatchPrecision)
	setString("matchPrecisionNot", r.MatchPrecisionNot)
	setString("localities", r.Localities)
	setString("notLocalities", r.NotLocalities)
	setString("centre", r.Centre)
	setInt("maxDistance", r.MaxDistance)
	setString("bbox", r.Bbox)
	setBool("parcelPoint", r.ParcelPoint)
	setBool("extrapolate", r.Extrapolate)
	setBool("quickMatch", r.QuickMatch)
	setBool("ignoreSites", r.IgnoreSites)
	if r.SitesOnly {
		query.Set("sitesOnly", "true")
	}
	setString("interpolation", r.Interpolation)
	setBool("apLocation", r.APLocation)
	setBool("echo", r.Echo)
	setInt("outputSRS", r.OutputSRS)

	setString("addressString", r.AddressString)
	setString("siteName", r.SiteName)
	setString("unitDesignator", r.UnitDesignator)
	setString("unitNumber", r.UnitNumber)
	setString("unitNumberSuffix", r.UnitNumberSuffix)
	setString("civicNumber", r.CivicNumber)
	setString("civicNumberSuffix", r.CivicNumberSuffix)
	setString("streetName", r.StreetName)
	setString("streetType", r.StreetType)
	setString("streetDirection", r.StreetDirection)
	setString("streetQualifier", r.StreetQualifier)
	setString("localityName", r.Locality)
	setString("province", r.Province)
	setString("locationDescriptor", r.LocationDescriptor)

	return query
}

// URL combines the base URL of the geocoder with the request path and query.
func (r Request) URL(baseURL string) (string, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil {
		return "", fmt.Errorf("failed to parse base URL: %w", err)
	}

	reqURL := base.JoinPath(r.Path())
	reqURL.RawQuery = r.Query().Encode()

	return reqURL.String(), nil
}

// WithAddress returns a copy of the request geocoding a single free-form address.
func (r Request) WithAddress(address string) Request {
	r.AddressString = address
	r.MaxResults = 1
	return r
}
