package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andresuchdata/autopo-py/planner-go/internal/config"
	"github.com/andresuchdata/autopo-py/planner-go/internal/drive"
	"github.com/andresuchdata/autopo-py/planner-go/internal/service"
	"github.com/andresuchdata/autopo-py/planner-go/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stockCSV = "product_id,location_id,primary_vendor_name,stock_wh,avg_sales_final\n1,40,Acme,10,5\n"

type stubDrive struct{}

func (stubDrive) ListFiles(_ context.Context, folderID string) ([]*drive.File, error) {
	if folderID != "f1" {
		return nil, nil
	}
	return []*drive.File{{ID: "1", Name: "20250604_stock.csv"}, {ID: "2", Name: "notes.pdf"}}, nil
}

func (stubDrive) DownloadFile(_ context.Context, fileID string, w io.Writer) error {
	if fileID != "1" {
		return fmt.Errorf("file %s not found", fileID)
	}
	_, err := io.WriteString(w, stockCSV)
	return err
}

func (stubDrive) FindFolderByPath(_ context.Context, path string) (string, error) {
	if path == "planner" {
		return "f1", nil
	}
	return "", fmt.Errorf("folder not found: %s", path)
}

func newTestRouter(source drive.Source) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(&Services{
		Planner:  service.NewPlannerService(config.DefaultPlanning(), nil),
		Sessions: session.NewStore(time.Hour),
		Drive:    source,
	}, Options{UploadRate: "100-M", MaxUploadMB: 1})
}

func do(router http.Handler, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func createSession(t *testing.T, router http.Handler) string {
	t.Helper()
	rec := do(router, http.MethodPost, "/api/v1/sessions", nil, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	var body struct {
		ID      string   `json:"id"`
		Missing []string `json:"missing"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.ID)
	assert.Contains(t, body.Missing, "stock")
	return body.ID
}

func upload(router http.Handler, id, kind, filename, content string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("file", filename)
	_, _ = io.WriteString(part, content)
	_ = mw.Close()
	return do(router, http.MethodPut, "/api/v1/sessions/"+id+"/tables/"+kind, &buf, mw.FormDataContentType())
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestHealth(t *testing.T) {
	rec := do(newTestRouter(nil), http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestSessionUploadAndPlan(t *testing.T) {
	router := newTestRouter(nil)
	id := createSession(t, router)

	rec := upload(router, id, "stock", "stock.csv", stockCSV)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), `"missing":["stock"`)

	rec = do(router, http.MethodGet, "/api/v1/sessions/"+id+"/plan?as_of=2025-06-04&cycles=3", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res service.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "2025-06-04", res.Params.AsOf)
	assert.Equal(t, 3, res.Params.Cycles)
	assert.Equal(t, 1, res.Summary.Positions)
	assert.Contains(t, res.Pending, "category_forecast")

	rec = do(router, http.MethodDelete, "/api/v1/sessions/"+id+"/tables/stock", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"stock"`)

	rec = do(router, http.MethodDelete, "/api/v1/sessions/"+id, nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(router, http.MethodGet, "/api/v1/sessions/"+id, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadValidation(t *testing.T) {
	router := newTestRouter(nil)
	id := createSession(t, router)

	tests := []struct {
		name     string
		session  string
		kind     string
		filename string
		status   int
	}{
		{"unknown kind", id, "bogus", "stock.csv", http.StatusBadRequest},
		{"unsupported extension", id, "stock", "stock.pdf", http.StatusBadRequest},
		{"unknown session", "nope", "stock", "stock.csv", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := upload(router, tt.session, tt.kind, tt.filename, stockCSV)
			assert.Equal(t, tt.status, rec.Code)
			assert.NotEmpty(t, errorMessage(t, rec))
		})
	}
}

func TestPlanRejectsBadParams(t *testing.T) {
	router := newTestRouter(nil)
	id := createSession(t, router)

	rec := do(router, http.MethodGet, "/api/v1/sessions/"+id+"/plan?priority=random", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(router, http.MethodGet, "/api/v1/sessions/missing/plan", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExport(t *testing.T) {
	router := newTestRouter(nil)
	id := createSession(t, router)
	require.Equal(t, http.StatusOK, upload(router, id, "stock", "stock.csv", stockCSV).Code)

	rec := do(router, http.MethodGet, "/api/v1/sessions/"+id+"/export?format=csv&table=projection&as_of=2025-06-04", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "2025-06-04_projection.csv")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "product_id,product_name"))

	rec = do(router, http.MethodGet, "/api/v1/sessions/"+id+"/export?as_of=2025-06-04", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "spreadsheetml")
	assert.NotZero(t, rec.Body.Len())

	rec = do(router, http.MethodGet, "/api/v1/sessions/"+id+"/export?format=csv&table=inbound_calendar", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(router, http.MethodGet, "/api/v1/sessions/"+id+"/export?format=pdf", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDynamicEOQ(t *testing.T) {
	router := newTestRouter(nil)

	body := `{"forecast_demand":1000,"demand_std_dev":0,"safety_factor":1,"labor_cost_per_hour":50,"hours_per_order":1,"cogs":10,"holding_cost_rate":0.25}`
	rec := do(router, http.MethodPost, "/api/v1/eoq/dynamic", strings.NewReader(body), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	var out map[string]float64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.InDelta(t, 200, out["eoq"], 1e-9)

	rec = do(router, http.MethodPost, "/api/v1/eoq/dynamic", strings.NewReader(`{"forecast_demand":-1}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDriveImport(t *testing.T) {
	rec := do(newTestRouter(nil), http.MethodPost, "/api/v1/sessions/x/drive/import", strings.NewReader(`{"path":"planner"}`), "application/json")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	router := newTestRouter(stubDrive{})
	id := createSession(t, router)

	rec = do(router, http.MethodPost, "/api/v1/sessions/"+id+"/drive/import", strings.NewReader(`{"path":"planner"}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "20250604_stock.csv")
	assert.Contains(t, rec.Body.String(), "notes.pdf")

	rec = do(router, http.MethodGet, "/api/v1/sessions/"+id, nil, "")
	assert.Contains(t, rec.Body.String(), `"file_name":"20250604_stock.csv"`)

	rec = do(router, http.MethodPost, "/api/v1/sessions/"+id+"/drive/import", strings.NewReader(`{}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(router, http.MethodGet, "/api/v1/drive/files?path=planner", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "20250604_stock.csv")
}

func TestNormalizeAllowedOrigins(t *testing.T) {
	origins, all := normalizeAllowedOrigins([]string{"http://a.test, http://b.test", " "})
	assert.False(t, all)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, origins)

	_, all = normalizeAllowedOrigins([]string{"*"})
	assert.True(t, all)
}
