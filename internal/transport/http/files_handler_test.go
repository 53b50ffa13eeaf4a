package http

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wdpkr/zillowdata/internal/config"
	apperrors "github.com/wdpkr/zillowdata/internal/errors"
	"github.com/wdpkr/zillowdata/internal/files"
)

func filesRouter(t *testing.T) (chi.Router, *config.Paths) {
	t.Helper()
	dir := t.TempDir()
	paths := &config.Paths{
		ExportsDir:   filepath.Join(dir, "exports"),
		SnapshotsDir: filepath.Join(dir, "snapshots"),
	}
	h := NewFilesHandler(files.NewDiscovery(paths), testLogger(), apperrors.NewErrorHandler(testLogger(), false))

	r := chi.NewRouter()
	r.Mount("/api/files", h.Routes())
	return r, paths
}

func TestFilesHandlerList(t *testing.T) {
	r, paths := filesRouter(t)

	rec := serve(t, r, "/api/files")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, float64(0), body["count"])

	require.NoError(t, os.MkdirAll(paths.ExportsDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(paths.ExportsDir, "wave.csv"), []byte("x,y\n"), 0o644))

	rec = serve(t, r, "/api/files")
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, float64(1), body["count"])
	data := body["data"].(map[string]interface{})
	exports := data["exports"].([]interface{})
	require.Len(t, exports, 1)
	assert.Equal(t, "wave.csv", exports[0].(map[string]interface{})["name"])
	assert.Empty(t, data["snapshots"])
}

func TestFilesHandlerDownload(t *testing.T) {
	r, paths := filesRouter(t)
	require.NoError(t, os.MkdirAll(paths.ExportsDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(paths.ExportsDir, "wave.csv"), []byte("x,y\n1,2\n"), 0o644))

	rec := serve(t, r, "/api/files/exports/wave.csv")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "x,y\n1,2\n", rec.Body.String())
	assert.Equal(t, `attachment; filename="wave.csv"`, rec.Header().Get("Content-Disposition"))

	tests := []struct {
		target string
		status int
	}{
		{"/api/files/exports/missing.csv", http.StatusNotFound},
		{"/api/files/exports/.hidden.csv", http.StatusBadRequest},
		{"/api/files/exports/report.pdf", http.StatusBadRequest},
		{"/api/files/logs/app.log", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := serve(t, r, tt.target)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
