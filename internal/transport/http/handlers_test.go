package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wdpkr/zillowdata/internal/dataset"
	apperrors "github.com/wdpkr/zillowdata/internal/errors"
	"github.com/wdpkr/zillowdata/internal/geo"
	"github.com/wdpkr/zillowdata/internal/services"
	"github.com/wdpkr/zillowdata/internal/views"
)

type mockViewService struct {
	mock.Mock
}

func (m *mockViewService) Describe() []views.Definition {
	return m.Called().Get(0).([]views.Definition)
}

func (m *mockViewService) View(ctx context.Context, name string, params views.Params) (*views.View, error) {
	args := m.Called(ctx, name, params)
	v, _ := args.Get(0).(*views.View)
	return v, args.Error(1)
}

func (m *mockViewService) RenderChart(ctx context.Context, name string, params views.Params, size services.ChartSize) ([]byte, error) {
	args := m.Called(ctx, name, params, size)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}

func (m *mockViewService) Export(ctx context.Context, name string, params views.Params, format string) (*services.Export, error) {
	args := m.Called(ctx, name, params, format)
	out, _ := args.Get(0).(*services.Export)
	return out, args.Error(1)
}

func (m *mockViewService) Datasets(ctx context.Context) (dataset.Stats, error) {
	args := m.Called(ctx)
	return args.Get(0).(dataset.Stats), args.Error(1)
}

func (m *mockViewService) Boundaries(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}

func (m *mockViewService) States() []geo.State {
	return m.Called().Get(0).([]geo.State)
}

func (m *mockViewService) Greeting(name string) string {
	return m.Called(name).String(0)
}

type mockHealthService struct {
	mock.Mock
}

func (m *mockHealthService) HealthCheck(ctx context.Context) services.HealthStatus {
	return m.Called(ctx).Get(0).(services.HealthStatus)
}

func (m *mockHealthService) ReadinessCheck(ctx context.Context) services.HealthStatus {
	return m.Called(ctx).Get(0).(services.HealthStatus)
}

func (m *mockHealthService) LivenessCheck(ctx context.Context) services.HealthStatus {
	return m.Called(ctx).Get(0).(services.HealthStatus)
}

func (m *mockHealthService) Version() services.VersionInfo {
	return m.Called().Get(0).(services.VersionInfo)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRouter(svc ViewServiceInterface) chi.Router {
	eh := apperrors.NewErrorHandler(testLogger(), false)
	vh := NewViewHandler(svc, testLogger(), eh)
	dh := NewDatasetHandler(svc, testLogger(), eh)

	r := chi.NewRouter()
	r.Mount("/api/views", vh.Routes())
	r.Mount("/api/datasets", dh.Routes())
	r.Get("/api/states", vh.ListStates)
	r.Get("/api/greeting", vh.Greeting)
	return r
}

func serve(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestListViews(t *testing.T) {
	svc := &mockViewService{}
	svc.On("Describe").Return(views.NewPipeline(views.Defaults{}).Describe())

	rec := serve(t, testRouter(svc), "/api/views")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, float64(5), body["count"])
}

func TestGetViewParsesQuery(t *testing.T) {
	amp := 2.5
	want := views.Params{
		Year:      2020,
		Scale:     views.ScaleLog,
		States:    []string{"CA", "TX", "NY"},
		State:     "WA",
		Level:     views.LevelZip,
		Bins:      12,
		Amplitude: &amp,
	}

	svc := &mockViewService{}
	svc.On("View", mock.Anything, "histogram", want).
		Return(&views.View{Name: "histogram", Chart: views.ChartHistogram, Params: want}, nil)

	rec := serve(t, testRouter(svc),
		"/api/views/histogram?year=2020&scale=LOG&states=ca,tx&states=ny&state=wa&level=zip&bins=12&amplitude=2.5")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	data := decode(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, "histogram", data["name"])
	svc.AssertExpectations(t)
}

func TestGetViewBadQuery(t *testing.T) {
	svc := &mockViewService{}

	rec := serve(t, testRouter(svc), "/api/views/histogram?year=soon&scale=cubic&bins=x")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, float64(http.StatusBadRequest), body["status"])
	assert.Contains(t, body, "details")
	svc.AssertNotCalled(t, "View", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetViewServiceErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"unknown view", apperrors.ViewNotFoundError("pie"), http.StatusNotFound},
		{"datasets down", apperrors.DatasetsUnavailableError(errors.New("connection refused")), http.StatusServiceUnavailable},
		{"validation", apperrors.ErrValidation("year", "year must be between 2000 and 2022"), http.StatusBadRequest},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockViewService{}
			svc.On("View", mock.Anything, "pie", views.Params{}).Return(nil, tt.err)

			rec := serve(t, testRouter(svc), "/api/views/pie")
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "/api/views/pie", decode(t, rec)["instance"])
		})
	}
}

func TestGetChart(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\nfake")
	svc := &mockViewService{}
	svc.On("RenderChart", mock.Anything, "wave", views.Params{}, services.ChartSize{Width: 400, Height: 300}).
		Return(png, nil)

	rec := serve(t, testRouter(svc), "/api/views/wave/chart.png?width=400&height=300")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, png, rec.Body.Bytes())
}

func TestGetChartRejectsSize(t *testing.T) {
	svc := &mockViewService{}

	rec := serve(t, testRouter(svc), "/api/views/wave/chart.png?width=10")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "RenderChart", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestExport(t *testing.T) {
	svc := &mockViewService{}
	svc.On("Export", mock.Anything, "choropleth", views.Params{Year: 2019}, "csv").Return(&services.Export{
		FileName:    "choropleth-2019.csv",
		ContentType: "text/csv; charset=utf-8",
		Data:        []byte("\xEF\xBB\xBFstate,value\n"),
	}, nil)
	svc.On("Export", mock.Anything, "choropleth", views.Params{Year: 2019}, "pdf").Return(nil, apperrors.ErrUnsupportedFormat)

	rec := serve(t, testRouter(svc), "/api/views/choropleth/export.csv?year=2019")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="choropleth-2019.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))

	rec = serve(t, testRouter(svc), "/api/views/choropleth/export.pdf?year=2019")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatesAndGreeting(t *testing.T) {
	svc := &mockViewService{}
	svc.On("States").Return(geo.States())
	svc.On("Greeting", "Ada").Return("Hello, Ada")

	rec := serve(t, testRouter(svc), "/api/states")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(51), decode(t, rec)["count"])

	rec = serve(t, testRouter(svc), "/api/greeting?name=Ada")
	require.Equal(t, http.StatusOK, rec.Code)
	data := decode(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, "Hello, Ada", data["greeting"])
}

func TestDatasets(t *testing.T) {
	svc := &mockViewService{}
	svc.On("Datasets", mock.Anything).Return(dataset.Stats{
		Loaded:   true,
		Attempts: 1,
		Datasets: []dataset.DatasetStats{{ID: "state_zhvi", Rows: 51}, {ID: "metro_zori", Rows: 100}},
	}, nil)
	svc.On("Boundaries", mock.Anything).Return([]byte(`{"type":"FeatureCollection","features":[]}`), nil)

	rec := serve(t, testRouter(svc), "/api/datasets")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, float64(2), body["count"])
	assert.Equal(t, true, body["data"].(map[string]interface{})["loaded"])

	rec = serve(t, testRouter(svc), "/api/datasets/boundaries")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, GeoJSONContentType, rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"type":"FeatureCollection","features":[]}`, rec.Body.String())
}

func TestDatasetsUnavailable(t *testing.T) {
	svc := &mockViewService{}
	svc.On("Datasets", mock.Anything).Return(dataset.Stats{Attempts: 1, Failures: 1, LastError: "timeout"},
		apperrors.DatasetsUnavailableError(errors.New("timeout")))

	rec := serve(t, testRouter(svc), "/api/datasets")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "DATASETS_UNAVAILABLE", decode(t, rec)["error_code"])
}

func TestHealthHandler(t *testing.T) {
	hs := &mockHealthService{}
	hs.On("HealthCheck", mock.Anything).Return(services.HealthStatus{Status: "ok"})
	hs.On("ReadinessCheck", mock.Anything).Return(services.HealthStatus{Status: "not_ready"}).Once()
	hs.On("ReadinessCheck", mock.Anything).Return(services.HealthStatus{Status: "ready"})
	hs.On("LivenessCheck", mock.Anything).Return(services.HealthStatus{Status: "alive"})
	hs.On("Version").Return(services.VersionInfo{UptimeSeconds: 3})

	h := NewHealthHandler(hs, testLogger())
	r := chi.NewRouter()
	r.Get("/api/health", h.HealthCheck)
	r.Get("/api/health/ready", h.ReadinessCheck)
	r.Get("/api/health/live", h.LivenessCheck)
	r.Get("/api/version", h.Version)

	rec := serve(t, r, "/api/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])

	rec = serve(t, r, "/api/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	rec = serve(t, r, "/api/health/ready")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, r, "/api/health/live")
	assert.Equal(t, "alive", decode(t, rec)["status"])

	rec = serve(t, r, "/api/version")
	assert.Equal(t, float64(3), decode(t, rec)["uptime_seconds"])
}

type stubHub map[string]interface{}

func (s stubHub) GetHubMetrics() map[string]interface{} { return s }

func TestMetricsHandler(t *testing.T) {
	prom := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "# HELP zillowdata_up\n")
	})

	h := NewMetricsHandler(prom, stubHub{"connected_clients": 2})
	rec := serve(t, http.HandlerFunc(h.Prometheus), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "zillowdata_up")

	rec = serve(t, http.HandlerFunc(h.WebSocketStats), "/api/ws/stats")
	data := decode(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["connected_clients"])

	rec = serve(t, http.HandlerFunc(NewMetricsHandler(nil, nil).Prometheus), "/metrics")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDashboardHandler(t *testing.T) {
	assets := fstest.MapFS{
		"index.html":    {Data: []byte(`<title>{{.Title}}</title><p>v{{.Version}}</p><select>{{range .States}}<option>{{.Abbreviation}}</option>{{end}}</select>`)},
		"static/app.js": {Data: []byte(`console.log("ok")`)},
	}

	h, err := NewDashboardHandler(assets, testLogger())
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Get("/", h.ServeDashboard)
	r.Get("/static/*", h.ServeStatic)

	rec := serve(t, r, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Zillow Data Dashboard")
	assert.Contains(t, rec.Body.String(), "<option>WY</option>")

	rec = serve(t, r, "/static/app.js")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `console.log("ok")`)

	_, err = NewDashboardHandler(fstest.MapFS{}, testLogger())
	assert.Error(t, err)
}
