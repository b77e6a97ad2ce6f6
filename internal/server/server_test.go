package server_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/UnknownOlympus/geobatch/internal/geocoding"
	"github.com/UnknownOlympus/geobatch/internal/metrics"
	"github.com/UnknownOlympus/geobatch/internal/models"
	"github.com/UnknownOlympus/geobatch/internal/server"
	"github.com/UnknownOlympus/geobatch/internal/service"
	"github.com/UnknownOlympus/geobatch/test/mocks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type pingFunc func() error

func (p pingFunc) Ping(_ context.Context) error { return p() }

type batchBody struct {
	ID       string            `json:"id"`
	Header   []string          `json:"header"`
	Progress models.BatchState `json:"progress"`
	Status   string            `json:"status"`
	Rows     []struct {
		Row           int    `json:"row"`
		AddressString string `json:"addressString"`
		FullAddress   string `json:"fullAddress"`
		Notes         string `json:"notes"`
		Status        string `json:"status"`
		LowScore      bool   `json:"lowScore"`
	} `json:"rows"`
}

func newTestServer(t *testing.T, db server.Pinger) (*httptest.Server, *service.Manager) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	appMetrics := metrics.NewMetrics(reg)

	provider := mocks.NewProvider(t)
	provider.On("Geocode", mock.Anything, mock.MatchedBy(func(req geocoding.Request) bool {
		return req.AddressString != ""
	})).Return(func(_ context.Context, req geocoding.Request) *models.GeocodeResult {
		return &models.GeocodeResult{FullAddress: strings.ToUpper(req.AddressString), Score: 80}
	}, nil).Maybe()

	manager := service.NewManager(t.Context(), logger, provider, nil, nil, appMetrics, service.Options{})
	srv := httptest.NewServer(server.New(logger, manager, db, reg).Router())
	t.Cleanup(srv.Close)

	return srv, manager
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()

	req, err := http.NewRequestWithContext(t.Context(), method, url, strings.NewReader(body))
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	return resp
}

func decodeBatch(t *testing.T, resp *http.Response) batchBody {
	t.Helper()

	var body batchBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	return body
}

func TestBatchLifecycle(t *testing.T) {
	srv, manager := newTestServer(t, nil)
	base := srv.URL + "/api/v1/batches"

	resp := do(t, http.MethodPost, base, "addressString\n1 main st\n2 oak ave")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBatch(t, resp)
	require.NotEmpty(t, created.ID)
	require.NoError(t, manager.Wait(t.Context()))

	batchURL := base + "/" + created.ID

	t.Run("get", func(t *testing.T) {
		resp := do(t, http.MethodGet, batchURL, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBatch(t, resp)
		assert.Equal(t, models.BatchState{Completed: 2, Total: 2}, body.Progress)
		assert.Equal(t, "Geocoding complete: 2/2 geocodes are completed and editable.", body.Status)
		require.Len(t, body.Rows, 2)
		assert.Equal(t, "1 MAIN ST", body.Rows[0].FullAddress)
		assert.True(t, body.Rows[0].LowScore)
	})

	t.Run("notes", func(t *testing.T) {
		resp := do(t, http.MethodPut, batchURL+"/rows/2/notes", `{"notes":"gate code 12"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "gate code 12", decodeBatch(t, resp).Rows[1].Notes)
	})

	t.Run("regeocode with edit", func(t *testing.T) {
		resp := do(t, http.MethodPost, batchURL+"/rows/1/geocode", `{"addressString":"10 main st"}`)
		require.Equal(t, http.StatusAccepted, resp.StatusCode)
		require.NoError(t, manager.Wait(t.Context()))

		body := decodeBatch(t, do(t, http.MethodGet, batchURL, ""))
		assert.Equal(t, "10 main st", body.Rows[0].AddressString)
		assert.Equal(t, "10 MAIN ST", body.Rows[0].FullAddress)
		assert.Equal(t, 2, body.Progress.Completed)
	})

	t.Run("regeocode without body", func(t *testing.T) {
		resp := do(t, http.MethodPost, batchURL+"/rows/2/geocode", "")
		require.Equal(t, http.StatusAccepted, resp.StatusCode)
		require.NoError(t, manager.Wait(t.Context()))
	})

	t.Run("geocode all", func(t *testing.T) {
		resp := do(t, http.MethodPost, batchURL+"/geocode", "")
		require.Equal(t, http.StatusAccepted, resp.StatusCode)
		require.NoError(t, manager.Wait(t.Context()))
	})

	t.Run("export", func(t *testing.T) {
		resp := do(t, http.MethodGet, batchURL+"/export?format=tsv", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "text/tab-separated-values; charset=utf-8", resp.Header.Get("Content-Type"))
		assert.Contains(t, resp.Header.Get("Content-Disposition"), "addresses.tsv")

		data, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(data), "addressString\tfullAddress\tscore"))
	})

	t.Run("export with unknown format", func(t *testing.T) {
		resp := do(t, http.MethodGet, batchURL+"/export?format=pdf", "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("row errors", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, do(t, http.MethodDelete, batchURL+"/rows/abc", "").StatusCode)
		assert.Equal(t, http.StatusNotFound, do(t, http.MethodDelete, batchURL+"/rows/99", "").StatusCode)
	})

	t.Run("delete rows", func(t *testing.T) {
		resp := do(t, http.MethodDelete, batchURL+"/rows/1", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Len(t, decodeBatch(t, resp).Rows, 1)

		resp = do(t, http.MethodDelete, batchURL+"/rows/2", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBatch(t, resp)
		assert.Empty(t, body.Rows)
		assert.Equal(t, models.NewBatchState(), body.Progress)
	})

	t.Run("delete batch", func(t *testing.T) {
		assert.Equal(t, http.StatusNoContent, do(t, http.MethodDelete, batchURL, "").StatusCode)
		assert.Equal(t, http.StatusNotFound, do(t, http.MethodGet, batchURL, "").StatusCode)
	})
}

func TestCreateBatch_Validation(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp := do(t, http.MethodPost, srv.URL+"/api/v1/batches", "address\n1 main st")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body["error"], "addressString")
}

func TestHealthz(t *testing.T) {
	cases := []struct {
		name   string
		db     server.Pinger
		status int
		body   string
	}{
		{name: "no database", db: nil, status: http.StatusOK, body: "OK"},
		{name: "database up", db: pingFunc(func() error { return nil }), status: http.StatusOK, body: "OK"},
		{
			name:   "database down",
			db:     pingFunc(func() error { return assert.AnError }),
			status: http.StatusServiceUnavailable,
			body:   "DB ping failed",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv, _ := newTestServer(t, tc.db)

			resp := do(t, http.MethodGet, srv.URL+"/healthz", "")
			data, err := io.ReadAll(resp.Body)
			require.NoError(t, err)

			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, tc.body, string(data))
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp := do(t, http.MethodPost, srv.URL+"/api/v1/batches", "addressString\n1 main st")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/metrics", "")
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), "geobatch_rows_parsed_total")
}
