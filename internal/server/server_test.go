package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metadata-validator/internal/metrics"
	"metadata-validator/internal/models"
	"metadata-validator/internal/search"
	"metadata-validator/internal/service"
)

const glossaryCSV = "Table,Field,Description\n" +
	"dim_customer,customer_id,Unique customer identifier\n" +
	"dim_customer,email,Customer email address\n"

func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	reg := prometheus.NewRegistry()
	svc, err := service.New(metrics.NewMetrics(reg), nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })

	s := New(svc, nil)
	s.Gatherer = reg
	return s, s.Router()
}

func multipartBody(t *testing.T, fileName, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func upload(t *testing.T, h http.Handler, path, fileName, content string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, fileName, content)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func get(h http.Handler, method, path string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestUploadAndFetchGlossary(t *testing.T) {
	_, h := newTestServer(t)

	w := upload(t, h, "/api/v1/uploads/glossary", "terms.csv", glossaryCSV)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res service.IngestResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 2, res.MatchCount)

	w = get(h, http.MethodGet, "/api/v1/datasets/glossary", "")
	require.Equal(t, http.StatusOK, w.Code)
	var d models.ParsedDataset
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &d))
	assert.Len(t, d.Fields, 2)

	w = get(h, http.MethodGet, "/api/v1/store", "")
	require.Equal(t, http.StatusOK, w.Code)
	var st StoreResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.Equal(t, 2, st.GlossaryFields)
	assert.Equal(t, uint64(2), st.IndexedDocuments)

	w = get(h, http.MethodDelete, "/api/v1/datasets/glossary", "")
	require.Equal(t, http.StatusOK, w.Code)
	w = get(h, http.MethodGet, "/api/v1/datasets/glossary", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUploadErrors(t *testing.T) {
	_, h := newTestServer(t)

	tests := []struct {
		name     string
		path     string
		fileName string
		content  string
		want     int
	}{
		{"unknown kind", "/api/v1/uploads/invoices", "a.csv", "x", http.StatusBadRequest},
		{"wrong extension", "/api/v1/uploads/glossary", "terms.pdf", glossaryCSV, http.StatusBadRequest},
		{"undecodable workbook", "/api/v1/uploads/dictionary", "dict.xlsx", "PK\x03\x04broken", http.StatusUnprocessableEntity},
		{"undecodable text", "/api/v1/uploads/policy", "policy.txt", "\xff\xfe\x00\x00bad", http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := upload(t, h, tt.path, tt.fileName, tt.content)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
			if tt.want == http.StatusUnprocessableEntity {
				assert.Contains(t, w.Body.String(), "could not parse file")
			}
		})
	}

	w := get(h, http.MethodPost, "/api/v1/uploads/glossary", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScore(t *testing.T) {
	_, h := newTestServer(t)

	tests := []struct {
		body      string
		wantCode  int
		wantScore int
		wantBand  string
	}{
		{`{"description_match": 80, "type_match": true, "sensitivity_match": false}`, http.StatusOK, 68, "medium"},
		{`{"description_match": 100, "type_match": true, "sensitivity_match": true}`, http.StatusOK, 100, "high"},
		{`{"description_match": 0}`, http.StatusOK, 0, "low"},
		{`{"description_match": 140}`, http.StatusBadRequest, 0, ""},
		{`{"type_match": true}`, http.StatusBadRequest, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			w := get(h, http.MethodPost, "/api/v1/score", tt.body)
			require.Equal(t, tt.wantCode, w.Code)
			if tt.wantCode != http.StatusOK {
				return
			}
			var resp ScoreResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantScore, resp.Score)
			assert.Equal(t, tt.wantBand, resp.Band)
		})
	}
}

func TestPolicyEndpoints(t *testing.T) {
	_, h := newTestServer(t)

	w := get(h, http.MethodGet, "/api/v1/policy/summary", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = upload(t, h, "/api/v1/uploads/policy", "policy.txt", "Handbook\n\nAll PII data must be encrypted at rest.\n")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = get(h, http.MethodGet, "/api/v1/policy/summary", "")
	require.Equal(t, http.StatusOK, w.Code)
	var summary models.PolicySummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.RuleCount)

	w = get(h, http.MethodGet, "/api/v1/search?q=encrypted&type=rule", "")
	require.Equal(t, http.StatusOK, w.Code)
	var res search.Results
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 1, res.TotalHits)
}

func TestValidateAndCompare(t *testing.T) {
	_, h := newTestServer(t)

	w := get(h, http.MethodPost, "/api/v1/validate/glossary", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = get(h, http.MethodPost, "/api/v1/validate/policy", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = upload(t, h, "/api/v1/compare/glossary", "ref.csv", glossaryCSV)
	assert.Equal(t, http.StatusNotFound, w.Code)

	require.Equal(t, http.StatusOK, upload(t, h, "/api/v1/uploads/glossary", "terms.csv", glossaryCSV).Code)
	w = upload(t, h, "/api/v1/compare/glossary", "ref.csv", glossaryCSV)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report models.ValidationReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Len(t, report.Comparisons, 2)
	assert.Equal(t, 2, report.Summary.TotalFields)

	w = upload(t, h, "/api/v1/compare/glossary?export=true", "ref.csv", glossaryCSV)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSearchRequiresQuery(t *testing.T) {
	_, h := newTestServer(t)
	w := get(h, http.MethodGet, "/api/v1/search", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	_, h := newTestServer(t)

	w := get(h, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)

	upload(t, h, "/api/v1/uploads/glossary", "terms.csv", glossaryCSV)

	w = get(h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "validator_uploads_total")
	assert.Contains(t, w.Body.String(), "validator_http_requests_total")
}
