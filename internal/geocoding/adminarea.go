package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/UnknownOlympus/geobatch/internal/models"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkt"
)

// OpenMapsWFSURL is the public WFS endpoint holding the health service area layer.
const OpenMapsWFSURL = "https://openmaps.gov.bc.ca/geo/pub/ows"

const (
	chsaLayer     = "pub:WHSE_ADMIN_BOUNDARIES.BCHA_CMNTY_HEALTH_SERV_AREA_SP"
	chsaCodeField = "CMNTY_HLTH_SERV_AREA_CODE"
	chsaNameField = "CMNTY_HLTH_SERV_AREA_NAME"
	wgs84SRID     = 4326
)

// ErrNoAdminArea is returned when no area contains the point.
var ErrNoAdminArea = errors.New("no admin area contains the point")

// AdminAreaLookup resolves the community health service area of a point.
type AdminAreaLookup interface {
	Lookup(ctx context.Context, point models.Coordinates) (*models.AdminArea, error)
}

type wfsResponse struct {
	Features []struct {
		Properties map[string]any `json:"properties"`
	} `json:"features"`
}

// WFSAdminAreaLookup queries a WFS layer with an INTERSECTS filter.
type WFSAdminAreaLookup struct {
	client  HTTPClient
	baseURL string
	log     *slog.Logger
}

// NewWFSAdminAreaLookup creates a lookup against the given WFS endpoint.
func NewWFSAdminAreaLookup(client HTTPClient, baseURL string, log *slog.Logger) *WFSAdminAreaLookup {
	return &WFSAdminAreaLookup{client: client, baseURL: baseURL, log: log}
}

// Lookup returns the area intersecting the point. Coordinates are expected in EPSG:4326.
func (wl *WFSAdminAreaLookup) Lookup(ctx context.Context, point models.Coordinates) (*models.AdminArea, error) {
	filter, err := intersectsFilter(point)
	if err != nil {
		return nil, err
	}

	reqURL, err := url.Parse(wl.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	query := reqURL.Query()
	query.Set("service", "WFS")
	query.Set("version", "1.0.0")
	query.Set("request", "GetFeature")
	query.Set("typeName", chsaLayer)
	query.Set("srsname", "EPSG:4326")
	query.Set("cql_filter", filter)
	query.Set("propertyName", chsaCodeField+","+chsaNameField)
	query.Set("outputFormat", "application/json")
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := wl.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute admin area request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var result wfsResponse
	if err = json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode admin area response: %w", err)
	}

	if len(result.Features) == 0 {
		return nil, ErrNoAdminArea
	}

	props := result.Features[0].Properties
	area := &models.AdminArea{
		Code: fmt.Sprint(props[chsaCodeField]),
		Name: fmt.Sprint(props[chsaNameField]),
	}
	wl.log.DebugContext(ctx, "Admin area found", "code", area.Code, "name", area.Name)

	return area, nil
}

// intersectsFilter builds the CQL filter selecting areas that contain the point.
func intersectsFilter(point models.Coordinates) (string, error) {
	pt := geom.NewPointFlat(geom.XY, []float64{point.X, point.Y}).SetSRID(wgs84SRID)

	text, err := wkt.Marshal(pt)
	if err != nil {
		return "", fmt.Errorf("failed to encode point: %w", err)
	}

	return fmt.Sprintf("INTERSECTS(SHAPE,SRID=%d;%s)", pt.SRID(), text), nil
}
