package drive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/andresuchdata/autopo-py/planner-go/internal/ingest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	folders map[string]string
	files   map[string][]*File
	content map[string]string
}

func (f *fakeSource) ListFiles(_ context.Context, folderID string) ([]*File, error) {
	return f.files[folderID], nil
}

func (f *fakeSource) DownloadFile(_ context.Context, fileID string, w io.Writer) error {
	body, ok := f.content[fileID]
	if !ok {
		return fmt.Errorf("file %s not found", fileID)
	}
	_, err := io.WriteString(w, body)
	return err
}

func (f *fakeSource) FindFolderByPath(_ context.Context, path string) (string, error) {
	id, ok := f.folders[path]
	if !ok {
		return "", fmt.Errorf("folder not found: %s", path)
	}
	return id, nil
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		folders: map[string]string{"planner/2025-06": "f1"},
		files: map[string][]*File{
			"f1": {
				{ID: "1", Name: "20250604_stock.csv"},
				{ID: "2", Name: "20250604_vendor.csv"},
				{ID: "3", Name: "readme.pdf"},
				{ID: "4", Name: "misc.csv"},
				{ID: "5", Name: "archive", MimeType: folderMimeType},
			},
		},
		content: map[string]string{
			"1": "product_id,location_id,stock_wh\n1,40,10\n",
			"2": "vendor,location_id\nAcme,40\n",
			"4": "a\n1\n",
		},
	}
}

func TestImportFolder(t *testing.T) {
	imp := NewImporter(newFakeSource())

	res, err := imp.ImportFolder(context.Background(), "", "planner/2025-06")
	require.NoError(t, err)

	require.Len(t, res.Tables, 2)
	assert.Equal(t, 1, res.Tables[ingest.KindStock].Len())
	assert.Equal(t, "20250604_vendor.csv", res.Files[ingest.KindVendor])
	assert.Equal(t, []Skipped{
		{Name: "readme.pdf", Reason: "unsupported file type"},
		{Name: "misc.csv", Reason: "unrecognised table name"},
	}, res.Skipped)

	_, err = imp.ImportFolder(context.Background(), "", "missing")
	assert.Error(t, err)
}

func TestDownloadFolder(t *testing.T) {
	imp := NewImporter(newFakeSource())
	dir := t.TempDir()

	paths, err := imp.DownloadFolder(context.Background(), "f1", dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "20250604_stock.csv"),
		filepath.Join(dir, "20250604_vendor.csv"),
		filepath.Join(dir, "misc.csv"),
	}, paths)

	raw, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Contains(t, string(raw), "stock_wh")
}

func TestHandlerListAndDownload(t *testing.T) {
	router := NewHandler(newFakeSource()).Router("/api/v1/drive")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/drive/files?path=planner/2025-06", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []*File `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Data, 5)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/drive/files/1/download", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "product_id")

	req = httptest.NewRequest(http.MethodGet, "/api/v1/drive/files?path=nowhere", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
