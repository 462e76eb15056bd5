package intake

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fiyatradar/crowdtrust/internal/config"
	"github.com/fiyatradar/crowdtrust/internal/model"
)

func newTestServer(t *testing.T) (*httptest.Server, *Service) {
	t.Helper()
	svc, _ := newTestService(t)
	srv := NewServer(svc, config.ServerConfig{RatePerSecond: 100, RateBurst: 100})
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts, svc
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(buf))
	require.NoError(t, err)
	return resp
}

func TestServer_Health(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_SubmitPrice_Created(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/prices", validSubmission("user-1"))
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result SubmitResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.True(t, result.Validation.IsValid)
	require.NotNil(t, result.Submission)
	assert.NotEmpty(t, result.Submission.ID)
	assert.Equal(t, model.StatusPending, result.Submission.VerificationStatus)
}

func TestServer_SubmitPrice_ValidationFailure(t *testing.T) {
	ts, _ := newTestServer(t)

	sub := validSubmission("user-1")
	sub.MarketName = "Bakkal Niyazi"

	resp := postJSON(t, ts.URL+"/api/v1/prices", sub)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var result SubmitResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.False(t, result.Validation.IsValid)
	assert.Contains(t, result.Validation.Errors, "Geçerli bir market seçiniz")
}

func TestServer_SubmitPrice_BadBody(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/v1/prices", "application/json", bytes.NewBufferString("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_GetSubmission(t *testing.T) {
	ts, svc := newTestServer(t)

	result, err := svc.Submit(t.Context(), validSubmission("user-1"))
	require.NoError(t, err)

	resp, err := http.Get(ts.URL + "/api/v1/prices/" + result.Submission.ID)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var sub model.PriceSubmission
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sub))
	assert.Equal(t, result.Submission.ID, sub.ID)

	missing, err := http.Get(ts.URL + "/api/v1/prices/no-such-id")
	require.NoError(t, err)
	defer missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestServer_TrustReport(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/users/someone/trust")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report TrustReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.Equal(t, "someone", report.UserID)
	assert.InDelta(t, 0.5, report.Score, 1e-9)
}

func TestServer_Sweep(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/v1/sweep", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]int64
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Zero(t, body["promoted"])
}

func TestServer_RateLimit(t *testing.T) {
	svc, _ := newTestService(t)
	srv := NewServer(svc, config.ServerConfig{RatePerSecond: 0.001, RateBurst: 1})
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	first := postJSON(t, ts.URL+"/api/v1/prices", validSubmission("user-1"))
	first.Body.Close()
	require.Equal(t, http.StatusCreated, first.StatusCode)

	second := postJSON(t, ts.URL+"/api/v1/prices", validSubmission("user-1"))
	defer second.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, second.StatusCode)
}
