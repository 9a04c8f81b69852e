package ui

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"godea/adapters/coercer"
	"godea/adapters/excel"
	"godea/adapters/solver"
	"godea/app"
	"godea/domain/dea"
	"godea/internal"
	apperrors "godea/internal/errors"
)

const bankCSV = "Branch,Staff,Loans\nNorth,2,1\nSouth,3,1\nEast,4,1\n"

func newTestServer(maxUpload int64) *Server {
	logger := internal.NewLoggerTo(io.Discard, internal.LogLevelError)
	svc := app.NewAnalysisService(
		excel.NewDataReader("", logger),
		coercer.NewNumericCoercer(coercer.DefaultCoercionConfig()),
		solver.New(solver.Options{Logger: logger}),
		app.ServiceConfig{Workers: 2, Format: dea.DefaultFormatOptions(), Logger: logger},
	)
	return NewServer(svc, ServerConfig{GinMode: "test", MaxUploadBytes: maxUpload, Logger: logger})
}

func uploadRequest(t *testing.T, path, filename, content string, fields map[string][]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = io.WriteString(part, content)
		require.NoError(t, err)
	}
	for key, values := range fields {
		for _, v := range values {
			require.NoError(t, w.WriteField(key, v))
		}
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(0).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
}

func TestColumns(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(0).Handler().ServeHTTP(rec, uploadRequest(t, "/api/columns", "banks.csv", bankCSV, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "Branch", body["dmu_column"])
	assert.Equal(t, float64(3), body["dmus"])
	cols := body["columns"].([]interface{})
	require.Len(t, cols, 2)
	assert.Equal(t, "Staff", cols[0].(map[string]interface{})["column"])
	assert.Len(t, body["preview"], 3)
}

func TestAnalyses_JSON(t *testing.T) {
	rec := httptest.NewRecorder()
	req := uploadRequest(t, "/api/analyses", "banks.csv", bankCSV, map[string][]string{
		"inputs":  {"Staff"},
		"outputs": {"Loans"},
	})
	newTestServer(0).Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var analysis app.Analysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &analysis))
	require.Len(t, analysis.Efficiency.Rows, 3)
	assert.Equal(t, 0.6667, *analysis.Efficiency.Rows[1].Efficiency)
	assert.Equal(t, "North (λ=1.0000)", analysis.Efficiency.Rows[1].Benchmarks)
	assert.Len(t, analysis.Slack.Rows, 2)
	assert.Equal(t, "banks.csv", analysis.Source)
}

func TestAnalyses_XLSX(t *testing.T) {
	rec := httptest.NewRecorder()
	req := uploadRequest(t, "/api/analyses?format=xlsx", "banks.csv", bankCSV, map[string][]string{
		"inputs":  {"Staff"},
		"outputs": {"Loans"},
	})
	newTestServer(0).Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "banks-dea-report.xlsx")

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), excel.SlackSheet)
}

func TestAnalyses_Errors(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  string
		fields   map[string][]string
		status   int
		code     string
	}{
		{"missing file", "", "", nil, http.StatusBadRequest, apperrors.CodeInvalidInput},
		{"unsupported format", "banks.json", "{}", nil, http.StatusBadRequest, apperrors.CodeInvalidInput},
		{"empty selection", "banks.csv", bankCSV, map[string][]string{"inputs": {"Staff"}}, http.StatusBadRequest, apperrors.CodeValidationError},
		{"overlap", "banks.csv", bankCSV, map[string][]string{"inputs": {"Staff"}, "outputs": {"Staff,Loans"}}, http.StatusBadRequest, apperrors.CodeValidationError},
		{"non numeric", "banks.csv", "Branch,Staff,Loans\nNorth,two,1\n", map[string][]string{"inputs": {"Staff"}, "outputs": {"Loans"}}, http.StatusBadRequest, apperrors.CodeInvalidInput},
	}

	srv := newTestServer(0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, uploadRequest(t, "/api/analyses", tt.filename, tt.content, tt.fields))
			assert.Equal(t, tt.status, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, tt.code, body["code"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestAnalyses_TooLarge(t *testing.T) {
	big := "Branch,Staff,Loans\n" + strings.Repeat("North,2,1\n", 200000)
	rec := httptest.NewRecorder()
	newTestServer(1<<20).Handler().ServeHTTP(rec, uploadRequest(t, "/api/analyses", "big.csv", big, nil))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, apperrors.CodePayloadTooLarge, decode(t, rec)["code"])
}

func TestFormList(t *testing.T) {
	req := uploadRequest(t, "/api/analyses", "", "", map[string][]string{"inputs": {"a, b", "c", " "}})
	rec := httptest.NewRecorder()
	c, _ := ginTestContext(rec, req)
	assert.Equal(t, []string{"a", "b", "c"}, formList(c, "inputs"))
}
