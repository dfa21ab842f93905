package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autopeer-io/leaf/internal/collector/service"
	"github.com/autopeer-io/leaf/internal/leafagent/submit"
	v1 "github.com/autopeer-io/leaf/pkg/apis/leaf/v1"
	"github.com/autopeer-io/leaf/pkg/log"
)

type memRepo struct {
	mu   sync.Mutex
	rows []v1.StoredReading
	err  error
}

func (m *memRepo) Insert(_ context.Context, r v1.Reading, ts time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	id := int64(len(m.rows) + 1)
	m.rows = append(m.rows, v1.StoredReading{ID: id, PlantName: r.PlantName, Value: r.Value, ServerTimestamp: ts.Format(time.RFC3339)})
	return id, nil
}

func (m *memRepo) ListByPlant(_ context.Context, plant string, limit int) ([]v1.StoredReading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := []v1.StoredReading{}
	for i := len(m.rows) - 1; i >= 0 && len(out) < limit; i-- {
		if m.rows[i].PlantName == plant {
			out = append(out, m.rows[i])
		}
	}
	return out, nil
}

func (m *memRepo) Walk(context.Context, func(v1.StoredReading) error) error { return nil }

func (m *memRepo) Ping(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

func (m *memRepo) setErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func newTestServer(t *testing.T, repo *memRepo) *httptest.Server {
	t.Helper()
	svc := service.NewReadingService(repo)
	srv := httptest.NewServer(NewRouter(svc, func() error { return repo.Ping(context.Background()) }, time.Second, log.NewNopLogger()))
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body string) (int, v1.SubmitResponse) {
	t.Helper()
	resp, err := http.Post(url+"/submit-reading", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out v1.SubmitResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestSubmitReading(t *testing.T) {
	repo := &memRepo{}
	srv := newTestServer(t, repo)

	code, out := post(t, srv.URL, `{"plant_name":"fern","value":1712.5}`)
	assert.Equal(t, http.StatusCreated, code)
	assert.Equal(t, v1.SubmitResponse{Status: "ok", ID: 1}, out)
	require.Len(t, repo.rows, 1)
	assert.Equal(t, 1712.5, repo.rows[0].Value)
}

func TestSubmitReadingRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"malformed", `{"plant_name":`, "malformed body"},
		{"unknown field", `{"plant_name":"fern","value":1,"extra":true}`, "unknown field"},
		{"missing value", `{"plant_name":"fern"}`, "required"},
		{"missing name", `{"value":1}`, "required"},
		{"empty name", `{"plant_name":"","value":1}`, "invalid reading"},
		{"long name", `{"plant_name":"abcdefghijklmnop","value":1}`, "at most 15"},
		{"trailing", `{"plant_name":"fern","value":1}{"x":1}`, "trailing"},
		{"trailing brace", `{"plant_name":"fern","value":1}}`, "trailing"},
		{"trailing bracket", `{"plant_name":"fern","value":1}]`, "trailing"},
		{"wrong type", `{"plant_name":"fern","value":"wet"}`, "malformed body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &memRepo{}
			srv := newTestServer(t, repo)

			code, out := post(t, srv.URL, tt.body)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, "error", out.Status)
			assert.Contains(t, out.Error, tt.want)
			assert.Empty(t, repo.rows)
		})
	}
}

func TestSubmitReadingStorageFailure(t *testing.T) {
	srv := newTestServer(t, &memRepo{err: errors.New("database is locked")})

	code, out := post(t, srv.URL, `{"plant_name":"fern","value":1}`)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "storage failure", out.Error)
}

func TestSubmitReadingMethod(t *testing.T) {
	srv := newTestServer(t, &memRepo{})
	resp, err := http.Get(srv.URL + "/submit-reading")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestListReadings(t *testing.T) {
	repo := &memRepo{}
	srv := newTestServer(t, repo)
	for _, body := range []string{
		`{"plant_name":"fern","value":1}`,
		`{"plant_name":"ivy","value":2}`,
		`{"plant_name":"fern","value":3}`,
	} {
		code, _ := post(t, srv.URL, body)
		require.Equal(t, http.StatusCreated, code)
	}

	resp, err := http.Get(srv.URL + "/readings/fern?limit=5")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got []v1.StoredReading
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Len(t, got, 2)
	assert.Equal(t, 3.0, got[0].Value)
	assert.Equal(t, 1.0, got[1].Value)
}

func TestListReadingsErrors(t *testing.T) {
	srv := newTestServer(t, &memRepo{})

	for path, want := range map[string]int{
		"/readings/fern":          http.StatusNotFound,
		"/readings/fern?limit=0":  http.StatusBadRequest,
		"/readings/fern?limit=xy": http.StatusBadRequest,
	} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, want, resp.StatusCode, path)
	}
}

func TestProbes(t *testing.T) {
	repo := &memRepo{}
	srv := newTestServer(t, repo)

	resp, err := http.Get(srv.URL + "/readyz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	repo.setErr(errors.New("closed"))
	resp, err = http.Get(srv.URL + "/readyz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

// The device keeps at most 100 response bytes; the acknowledgement must fit.
func TestDeviceSubmitterAgainstCollector(t *testing.T) {
	repo := &memRepo{}
	srv := newTestServer(t, repo)

	s := submit.NewSubmitter(srv.URL+"/submit-reading", submit.WithTimeout(2*time.Second))
	res, err := s.Submit(context.Background(), v1.Reading{PlantName: "fern", Value: 1650})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, res.StatusCode)
	assert.Less(t, len(res.Body), submit.DefaultCapacity)
	assert.JSONEq(t, `{"status":"ok","id":1}`, string(res.Body))
}
