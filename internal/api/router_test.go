package api

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	_ "modernc.org/sqlite"

	"github.com/surenab/ireland-property-market-backend/internal/cache"
	"github.com/surenab/ireland-property-market-backend/internal/config"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func testConfig() *config.Config {
	return &config.Config{
		CORSOrigins: []string{"http://localhost:5173"},
		CacheTTL:    time.Minute,
	}
}

// newTestRouter wires the full HTTP surface against an in-memory
// database. The pool is pinned to one connection because each connection
// to ":memory:" would otherwise get its own empty database.
func newTestRouter(t *testing.T, cfg *config.Config) (*gin.Engine, *sql.DB) {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	db.SetMaxOpenConns(1)

	schema, err := os.ReadFile(filepath.Join("..", "..", "migrations", "001_initial_schema.sql"))
	if err != nil {
		t.Fatalf("read schema: %v", err)
	}
	if _, err := db.Exec(string(schema)); err != nil {
		t.Fatalf("apply schema: %v", err)
	}

	store := cache.NewMemory(time.Minute)
	t.Cleanup(store.Close)

	return SetupRouter(cfg, db, store), db
}

func seedProperty(t *testing.T, db *sql.DB, county, address string, lat, lng float64) int64 {
	t.Helper()

	res, err := db.Exec("INSERT INTO properties DEFAULT VALUES")
	if err != nil {
		t.Fatalf("insert property: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("property id: %v", err)
	}
	_, err = db.Exec(`INSERT INTO addresses (property_id, address, county, latitude, longitude)
		VALUES (?, ?, ?, ?, ?)`, id, address, county, lat, lng)
	if err != nil {
		t.Fatalf("insert address: %v", err)
	}
	return id
}

func seedSale(t *testing.T, db *sql.DB, propertyID int64, date string, price int64) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO price_history (property_id, date_of_sale, price)
		VALUES (?, ?, ?)`, propertyID, date, price)
	if err != nil {
		t.Fatalf("insert sale: %v", err)
	}
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Code      int             `json:"code"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	RequestID string          `json:"request_id"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %s)", err, w.Body.String())
	}
	return env
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) envelope {
	t.Helper()
	env := decodeEnvelope(t, w)
	if env.Code != 0 {
		t.Fatalf("expected success envelope, got code %d message %q", env.Code, env.Message)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		t.Fatalf("decode data: %v (data %s)", err, env.Data)
	}
	return env
}

func TestHealthEndpoint(t *testing.T) {
	r, _ := newTestRouter(t, testConfig())

	w := get(r, "/health")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %v", body["status"])
	}
	if body["database"] != "ok" {
		t.Errorf("expected database ok, got %v", body["database"])
	}
	if _, ok := body["cache_entries"]; !ok {
		t.Error("expected cache_entries in health payload")
	}
}

func TestListPropertiesEndpoint(t *testing.T) {
	r, db := newTestRouter(t, testConfig())

	d1 := seedProperty(t, db, "Dublin", "1 Main Street", 53.34, -6.26)
	seedSale(t, db, d1, "2021-05-01", 300000)
	d2 := seedProperty(t, db, "Dublin", "2 Main Street", 53.35, -6.27)
	seedSale(t, db, d2, "2021-06-01", 350000)
	c1 := seedProperty(t, db, "Cork", "3 Patrick Street", 51.89, -8.47)
	seedSale(t, db, c1, "2021-07-01", 250000)

	var data struct {
		Items []struct {
			ID     int64  `json:"id"`
			County string `json:"county"`
		} `json:"items"`
		Total    int `json:"total"`
		Page     int `json:"page"`
		PageSize int `json:"page_size"`
	}
	w := get(r, "/api/v1/properties?county=Dublin")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body %s)", w.Code, w.Body.String())
	}
	decodeData(t, w, &data)

	if data.Total != 2 || len(data.Items) != 2 {
		t.Fatalf("expected 2 Dublin properties, got total %d items %d", data.Total, len(data.Items))
	}
	for _, item := range data.Items {
		if item.County != "Dublin" {
			t.Errorf("expected Dublin rows only, got %q", item.County)
		}
	}

	w = get(r, "/api/v1/properties?start_date=not-a-date")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed date, got %d", w.Code)
	}
}

func TestCountiesRouteCoexistsWithID(t *testing.T) {
	r, db := newTestRouter(t, testConfig())

	id := seedProperty(t, db, "Dublin", "1 Main Street", 53.34, -6.26)
	seedSale(t, db, id, "2021-05-01", 300000)
	seedProperty(t, db, "Cork", "3 Patrick Street", 51.89, -8.47)

	var counties []string
	w := get(r, "/api/v1/properties/counties")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	decodeData(t, w, &counties)
	if len(counties) != 2 || counties[0] != "Cork" || counties[1] != "Dublin" {
		t.Fatalf("expected [Cork Dublin], got %v", counties)
	}

	var property struct {
		ID      int64 `json:"id"`
		Address *struct {
			County string `json:"county"`
		} `json:"address"`
	}
	w = get(r, fmt.Sprintf("/api/v1/properties/%d", id))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	decodeData(t, w, &property)
	if property.ID != id || property.Address == nil || property.Address.County != "Dublin" {
		t.Fatalf("unexpected property payload: %+v", property)
	}
}

func TestGetPropertyErrors(t *testing.T) {
	r, _ := newTestRouter(t, testConfig())

	w := get(r, "/api/v1/properties/9999")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	env := decodeEnvelope(t, w)
	if env.Code != http.StatusNotFound {
		t.Errorf("expected envelope code 404, got %d", env.Code)
	}

	w = get(r, "/api/v1/properties/not-a-number")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	w = get(r, "/api/v1/properties/9999/history")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for history of missing property, got %d", w.Code)
	}
}

func TestMapPointsEndpoint(t *testing.T) {
	r, db := newTestRouter(t, testConfig())

	d1 := seedProperty(t, db, "Dublin", "1 Main Street", 53.341, -6.261)
	seedSale(t, db, d1, "2021-05-01", 300000)
	d2 := seedProperty(t, db, "Dublin", "2 Main Street", 53.342, -6.262)
	seedSale(t, db, d2, "2021-06-01", 350000)
	c1 := seedProperty(t, db, "Cork", "3 Patrick Street", 51.89, -8.47)
	seedSale(t, db, c1, "2021-07-01", 250000)

	w := get(r, "/api/v1/map/points")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without bounds, got %d", w.Code)
	}

	var data struct {
		Points    []struct{ ID int64 } `json:"points"`
		Returned  int                  `json:"returned"`
		Total     *int                 `json:"total"`
		Truncated bool                 `json:"truncated"`
	}
	w = get(r, "/api/v1/map/points?north=53.5&south=53.2&east=-6.0&west=-6.5&zoom=12")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body %s)", w.Code, w.Body.String())
	}
	decodeData(t, w, &data)
	if data.Returned != 2 || len(data.Points) != 2 {
		t.Fatalf("expected 2 viewport points, got returned %d len %d", data.Returned, len(data.Points))
	}
	if data.Total == nil || *data.Total != 2 {
		t.Errorf("expected exhaustive total 2, got %v", data.Total)
	}

	// Inverted bounds
	w = get(r, "/api/v1/map/points?north=53.2&south=53.5&east=-6.0&west=-6.5&zoom=12")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for inverted bounds, got %d", w.Code)
	}

	// Zoom outside 1-20
	w = get(r, "/api/v1/map/points?north=53.5&south=53.2&east=-6.0&west=-6.5&zoom=25")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for zoom 25, got %d", w.Code)
	}
}

func TestMapClustersEndpoint(t *testing.T) {
	r, db := newTestRouter(t, testConfig())

	for i, coord := range []struct{ lat, lng float64 }{
		{53.341, -6.261}, {53.342, -6.262}, {53.343, -6.263},
		{53.351, -6.151}, {53.352, -6.152},
	} {
		id := seedProperty(t, db, "Dublin", fmt.Sprintf("%d Cluster Row", i+1), coord.lat, coord.lng)
		seedSale(t, db, id, "2021-05-01", 300000)
	}

	var data struct {
		Clusters []struct {
			Count int `json:"count"`
		} `json:"clusters"`
		TotalProperties int `json:"total_properties"`
	}
	w := get(r, "/api/v1/map/clusters?north=53.5&south=53.2&east=-6.0&west=-6.5&zoom=12")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body %s)", w.Code, w.Body.String())
	}
	decodeData(t, w, &data)
	if len(data.Clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %d", len(data.Clusters))
	}
	if data.TotalProperties != 5 {
		t.Errorf("expected 5 clustered properties, got %d", data.TotalProperties)
	}
}

func TestMapGridEndpoint(t *testing.T) {
	r, db := newTestRouter(t, testConfig())

	for i, coord := range []struct{ lat, lng float64 }{
		{53.341, -6.261}, {53.342, -6.262}, {53.343, -6.263},
		{53.351, -6.151},
	} {
		id := seedProperty(t, db, "Dublin", fmt.Sprintf("%d Grid Row", i+1), coord.lat, coord.lng)
		seedSale(t, db, id, "2021-05-01", 300000)
	}

	var data struct {
		Cells []struct {
			CellID      string  `json:"cell_id"`
			Count       int     `json:"count"`
			PropertyIDs []int64 `json:"property_ids"`
		} `json:"cells"`
		CellSize float64 `json:"cell_size"`
	}
	w := get(r, "/api/v1/map/grid?north=53.5&south=53.2&east=-6.0&west=-6.5&zoom=5")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body %s)", w.Code, w.Body.String())
	}
	decodeData(t, w, &data)
	if len(data.Cells) != 2 {
		t.Fatalf("expected 2 grid cells, got %d", len(data.Cells))
	}
	if data.CellSize != 0.05 {
		t.Errorf("expected cell size 0.05 at zoom 5, got %v", data.CellSize)
	}
	total := 0
	for _, cell := range data.Cells {
		if cell.CellID == "" {
			t.Error("expected geohash cell id")
		}
		if len(cell.PropertyIDs) != cell.Count {
			t.Errorf("cell count %d does not match %d property ids", cell.Count, len(cell.PropertyIDs))
		}
		total += cell.Count
	}
	if total != 4 {
		t.Errorf("expected 4 properties across cells, got %d", total)
	}
}

func TestMapAnalysisGeoJSON(t *testing.T) {
	r, db := newTestRouter(t, testConfig())

	d1 := seedProperty(t, db, "Dublin", "1 Main Street", 53.341, -6.261)
	seedSale(t, db, d1, "2021-05-01", 300000)
	d2 := seedProperty(t, db, "Dublin", "2 Main Street", 53.342, -6.262)
	seedSale(t, db, d2, "2021-06-01", 350000)

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Type     string `json:"type"`
			Geometry struct {
				Type string `json:"type"`
			} `json:"geometry"`
			Properties map[string]interface{} `json:"properties"`
		} `json:"features"`
	}
	w := get(r, "/api/v1/map/analysis?north=53.5&south=53.2&east=-6.0&west=-6.5&zoom=12&format=geojson")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body %s)", w.Code, w.Body.String())
	}
	decodeData(t, w, &fc)

	if fc.Type != "FeatureCollection" {
		t.Fatalf("expected FeatureCollection, got %q", fc.Type)
	}
	if len(fc.Features) == 0 {
		t.Fatal("expected at least one feature")
	}
	for _, f := range fc.Features {
		if f.Geometry.Type != "Polygon" {
			t.Errorf("expected polygon features for density heatmap, got %q", f.Geometry.Type)
		}
		if _, ok := f.Properties["intensity"]; !ok {
			t.Error("expected intensity property on feature")
		}
	}
}

func TestMapAnalysisDefaultJSON(t *testing.T) {
	r, db := newTestRouter(t, testConfig())

	d1 := seedProperty(t, db, "Dublin", "1 Main Street", 53.341, -6.261)
	seedSale(t, db, d1, "2021-05-01", 300000)

	var data struct {
		AnalysisMode    string            `json:"analysis_mode"`
		TotalProperties int               `json:"total_properties"`
		HeatmapCells    []json.RawMessage `json:"heatmap_cells"`
		Points          []struct {
			ID int64 `json:"id"`
		} `json:"points"`
	}
	w := get(r, "/api/v1/map/analysis?north=53.5&south=53.2&east=-6.0&west=-6.5&zoom=12")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body %s)", w.Code, w.Body.String())
	}
	decodeData(t, w, &data)

	if data.AnalysisMode != "density-heatmap" {
		t.Errorf("expected default density-heatmap, got %q", data.AnalysisMode)
	}
	if data.TotalProperties != 1 {
		t.Errorf("expected 1 property, got %d", data.TotalProperties)
	}
	if len(data.HeatmapCells) == 0 {
		t.Error("expected heatmap cells in default mode")
	}
	if len(data.Points) != 1 || data.Points[0].ID != d1 {
		t.Errorf("expected points echo with property %d, got %+v", d1, data.Points)
	}
}

func TestStatisticsEndpoints(t *testing.T) {
	r, db := newTestRouter(t, testConfig())

	d1 := seedProperty(t, db, "Dublin", "1 Main Street", 53.34, -6.26)
	seedSale(t, db, d1, "2021-01-10", 100000)
	d2 := seedProperty(t, db, "Dublin", "2 Main Street", 53.35, -6.27)
	seedSale(t, db, d2, "2021-01-20", 200000)

	var trends struct {
		Period string `json:"period"`
		Points []struct {
			Period string `json:"period"`
			Count  int    `json:"count"`
		} `json:"points"`
	}
	w := get(r, "/api/v1/statistics/price-trends?period=monthly")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body %s)", w.Code, w.Body.String())
	}
	decodeData(t, w, &trends)
	if len(trends.Points) != 1 || trends.Points[0].Period != "2021-01" || trends.Points[0].Count != 2 {
		t.Fatalf("unexpected trend points: %+v", trends.Points)
	}

	w = get(r, "/api/v1/statistics/price-trends?period=hourly")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown period, got %d", w.Code)
	}

	w = get(r, "/api/v1/statistics/price-clusters?n_clusters=1")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for n_clusters below 2, got %d", w.Code)
	}

	w = get(r, "/api/v1/statistics/price-clusters?algorithm=dbscan")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unsupported algorithm, got %d", w.Code)
	}

	var comparison struct {
		Counties []struct {
			County string `json:"county"`
		} `json:"counties"`
	}
	w = get(r, "/api/v1/statistics/counties")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	decodeData(t, w, &comparison)
	if len(comparison.Counties) != 1 || comparison.Counties[0].County != "Dublin" {
		t.Fatalf("unexpected county comparison: %+v", comparison.Counties)
	}

	w = get(r, "/api/v1/statistics/correlation?variable=bogus")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown variable, got %d", w.Code)
	}

	var dates struct {
		MinDate string `json:"min_date"`
		MaxDate string `json:"max_date"`
		Years   []int  `json:"years"`
	}
	w = get(r, "/api/v1/statistics/date-range")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	decodeData(t, w, &dates)
	if dates.MinDate != "2021-01-10" || dates.MaxDate != "2021-01-20" {
		t.Fatalf("unexpected date range: %+v", dates)
	}
}

func TestRequestIDPropagation(t *testing.T) {
	r, db := newTestRouter(t, testConfig())
	seedProperty(t, db, "Dublin", "1 Main Street", 53.34, -6.26)

	w := get(r, "/api/v1/properties/counties")
	rid := w.Header().Get("X-Request-ID")
	if rid == "" {
		t.Fatal("expected generated request id on response header")
	}
	env := decodeEnvelope(t, w)
	if env.RequestID != rid {
		t.Errorf("envelope request id %q does not match header %q", env.RequestID, rid)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/properties/counties", nil)
	req.Header.Set("X-Request-ID", "caller-supplied-id")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "caller-supplied-id" {
		t.Errorf("expected inbound request id to win, got %q", got)
	}
}

func TestRateLimitKicksIn(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = 2
	r, _ := newTestRouter(t, cfg)

	for i := 0; i < 2; i++ {
		if w := get(r, "/health"); w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, w.Code)
		}
	}
	w := get(r, "/health")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after limit, got %d", w.Code)
	}
	env := decodeEnvelope(t, w)
	if env.Code != http.StatusTooManyRequests {
		t.Errorf("expected envelope code 429, got %d", env.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	r, _ := newTestRouter(t, testConfig())

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/properties", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 preflight, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("expected allowed origin echoed, got %q", got)
	}
}
