package geocoding_test

import (
	"log/slog"
	"net/http"
	"testing"

	"github.com/UnknownOlympus/geobatch/internal/geocoding"
	"github.com/UnknownOlympus/geobatch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWFSAdminAreaLookup_Lookup(t *testing.T) {
	ctx := t.Context()
	logger := slog.Default()
	point := models.Coordinates{X: -123.3656, Y: 48.4284}

	t.Run("area found", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(r *http.Request) (*http.Response, error) {
				query := r.URL.Query()
				assert.Equal(t, "GetFeature", query.Get("request"))
				assert.Equal(t, "WFS", query.Get("service"))
				assert.Equal(t, "INTERSECTS(SHAPE,SRID=4326;POINT (-123.3656 48.4284))", query.Get("cql_filter"))
				assert.Equal(t, "CMNTY_HLTH_SERV_AREA_CODE,CMNTY_HLTH_SERV_AREA_NAME", query.Get("propertyName"))

				return jsonResponse(http.StatusOK,
					`{"features":[{"properties":{"CMNTY_HLTH_SERV_AREA_CODE":"4111","CMNTY_HLTH_SERV_AREA_NAME":"Downtown Victoria"}}]}`,
				), nil
			},
		}

		lookup := geocoding.NewWFSAdminAreaLookup(mockClient, geocoding.OpenMapsWFSURL, logger)
		area, err := lookup.Lookup(ctx, point)

		require.NoError(t, err)
		assert.Equal(t, &models.AdminArea{Code: "4111", Name: "Downtown Victoria"}, area)
	})

	t.Run("point outside every area", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusOK, `{"features":[]}`), nil
			},
		}

		lookup := geocoding.NewWFSAdminAreaLookup(mockClient, geocoding.OpenMapsWFSURL, logger)
		area, err := lookup.Lookup(ctx, point)

		require.Nil(t, area)
		require.ErrorIs(t, err, geocoding.ErrNoAdminArea)
	})

	t.Run("service error", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusInternalServerError, `oops`), nil
			},
		}

		lookup := geocoding.NewWFSAdminAreaLookup(mockClient, geocoding.OpenMapsWFSURL, logger)
		area, err := lookup.Lookup(ctx, point)

		require.Nil(t, area)
		require.ErrorIs(t, err, geocoding.ErrUnexpectedStatus)
	})
}
