package api

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"

	"github.com/Kheng2023/SamYong2025/internal/heatmap"
	"github.com/Kheng2023/SamYong2025/internal/service"
)

const plantsGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [151.0, -33.0]},
     "properties": {"name": "Plant A", "region": "NSW"}},
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [150.4, -33.6]},
     "properties": {"name": "Plant B", "region": "SA"}}
  ]
}`

func newTestAPI(t *testing.T) humatest.TestAPI {
	t.Helper()
	dir := t.TempDir()
	sources := filepath.Join(dir, "sources")
	if err := os.MkdirAll(sources, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sources, "plants.geojson"), []byte(plantsGeoJSON), 0644); err != nil {
		t.Fatal(err)
	}

	_, api := humatest.New(t)
	RegisterRoutes(api, &Services{
		Heatmap: service.NewHeatmapService(dir),
		Source:  service.NewSourceService(dir),
	})
	return api
}

func generateConfig() map[string]any {
	return map[string]any{
		"decay": map[string]any{"function": "exponential", "rate": 0.5},
		"rows":  5,
		"cols":  5,
		"bbox":  map[string]any{"west": 150, "south": -34, "east": 152, "north": -32},
	}
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	resp := api.Get("/health")
	if resp.Code != http.StatusOK {
		t.Fatalf("health = %d", resp.Code)
	}
	var body HealthBody
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "ok" {
		t.Fatalf("status = %q, want ok", body.Status)
	}
}

func TestListSources(t *testing.T) {
	api := newTestAPI(t)
	resp := api.Get("/api/v1/sources")
	if resp.Code != http.StatusOK {
		t.Fatalf("sources = %d", resp.Code)
	}
	var files []service.SourceFile
	if err := json.Unmarshal(resp.Body.Bytes(), &files); err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0].Name != "plants.geojson" {
		t.Fatalf("sources = %v, want plants.geojson", files)
	}
}

func TestSourceProperties(t *testing.T) {
	api := newTestAPI(t)
	resp := api.Get("/api/v1/sources/plants.geojson/properties")
	if resp.Code != http.StatusOK {
		t.Fatalf("properties = %d: %s", resp.Code, resp.Body.String())
	}
	var body struct {
		Properties []string `json:"properties"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Properties) != 2 {
		t.Fatalf("properties = %v, want name and region", body.Properties)
	}
}

func TestHeatmapLifecycle(t *testing.T) {
	api := newTestAPI(t)

	resp := api.Post("/api/v1/heatmaps", map[string]any{
		"name":   "Power Stations",
		"source": "plants.geojson",
		"config": generateConfig(),
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("generate = %d: %s", resp.Code, resp.Body.String())
	}
	var info service.HeatmapInfo
	if err := json.Unmarshal(resp.Body.Bytes(), &info); err != nil {
		t.Fatal(err)
	}
	if info.ID != "power_stations" || info.Rows != 5 || info.Cols != 5 {
		t.Fatalf("info = %+v", info)
	}

	if resp := api.Get("/api/v1/heatmaps"); resp.Code != http.StatusOK {
		t.Fatalf("list = %d", resp.Code)
	}
	if resp := api.Get("/api/v1/heatmaps/power_stations"); resp.Code != http.StatusOK {
		t.Fatalf("get = %d", resp.Code)
	}

	resp = api.Get("/api/v1/heatmaps/power_stations/grid")
	if resp.Code != http.StatusOK {
		t.Fatalf("grid = %d", resp.Code)
	}
	var grid struct {
		Values []float64 `json:"values"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &grid); err != nil {
		t.Fatal(err)
	}
	if len(grid.Values) != 25 {
		t.Fatalf("grid values = %d, want 25", len(grid.Values))
	}

	resp = api.Get("/api/v1/heatmaps/power_stations/geojson")
	if resp.Code != http.StatusOK {
		t.Fatalf("geojson = %d", resp.Code)
	}
	var fc struct {
		Type     string            `json:"type"`
		Features []json.RawMessage `json:"features"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &fc); err != nil {
		t.Fatal(err)
	}
	if fc.Type != "FeatureCollection" || len(fc.Features) != 25 {
		t.Fatalf("geojson = %s with %d features", fc.Type, len(fc.Features))
	}

	resp = api.Get("/api/v1/heatmaps/power_stations/render?cellSize=2")
	if resp.Code != http.StatusOK {
		t.Fatalf("render = %d: %s", resp.Code, resp.Body.String())
	}
	if ct := resp.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("render content type = %q, want image/png", ct)
	}

	if resp := api.Delete("/api/v1/heatmaps/power_stations"); resp.Code != http.StatusOK {
		t.Fatalf("delete = %d", resp.Code)
	}
	if resp := api.Get("/api/v1/heatmaps/power_stations"); resp.Code != http.StatusNotFound {
		t.Fatalf("get after delete = %d, want 404", resp.Code)
	}
}

func TestGenerateMissingSource(t *testing.T) {
	api := newTestAPI(t)
	resp := api.Post("/api/v1/heatmaps", map[string]any{
		"name":   "Nope",
		"source": "missing.geojson",
		"config": generateConfig(),
	})
	if resp.Code != http.StatusNotFound {
		t.Fatalf("generate from missing source = %d, want 404", resp.Code)
	}
}

func TestGenerateBadConfig(t *testing.T) {
	api := newTestAPI(t)
	cfg := generateConfig()
	cfg["decay"] = map[string]any{"function": "exponential", "rate": -1}
	resp := api.Post("/api/v1/heatmaps", map[string]any{
		"name":   "Bad",
		"source": "plants.geojson",
		"config": cfg,
	})
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("generate with bad config = %d, want 422", resp.Code)
	}
}

func TestCombineEndpoint(t *testing.T) {
	api := newTestAPI(t)
	for _, name := range []string{"Alpha", "Beta"} {
		resp := api.Post("/api/v1/heatmaps", map[string]any{
			"name":   name,
			"source": "plants.geojson",
			"config": generateConfig(),
		})
		if resp.Code != http.StatusOK {
			t.Fatalf("generate %s = %d: %s", name, resp.Code, resp.Body.String())
		}
	}

	resp := api.Post("/api/v1/heatmaps/combine", map[string]any{
		"name": "Overlay",
		"ids":  []string{"alpha", "beta"},
		"mode": "additive",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("combine = %d: %s", resp.Code, resp.Body.String())
	}
	var info service.HeatmapInfo
	if err := json.Unmarshal(resp.Body.Bytes(), &info); err != nil {
		t.Fatal(err)
	}
	if info.ID != "overlay" {
		t.Fatalf("combined id = %q, want overlay", info.ID)
	}
	if resp := api.Get("/api/v1/heatmaps/overlay/grid"); resp.Code != http.StatusOK {
		t.Fatalf("combined grid = %d", resp.Code)
	}
}

func TestSinkHooksFollowLifecycle(t *testing.T) {
	dir := t.TempDir()
	sources := filepath.Join(dir, "sources")
	if err := os.MkdirAll(sources, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sources, "plants.geojson"), []byte(plantsGeoJSON), 0644); err != nil {
		t.Fatal(err)
	}

	var inserted, dropped []string
	_, api := humatest.New(t)
	RegisterRoutes(api, &Services{
		Heatmap:    service.NewHeatmapService(dir),
		Source:     service.NewSourceService(dir),
		Sink:       func(id string, g *heatmap.Grid) { inserted = append(inserted, id) },
		SinkDelete: func(id string) { dropped = append(dropped, id) },
	})

	resp := api.Post("/api/v1/heatmaps", map[string]any{
		"name":   "Power Stations",
		"source": "plants.geojson",
		"config": generateConfig(),
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("generate = %d: %s", resp.Code, resp.Body.String())
	}
	if len(inserted) != 1 || inserted[0] != "power_stations" {
		t.Fatalf("sink inserts = %v, want [power_stations]", inserted)
	}
	if len(dropped) != 0 {
		t.Fatalf("sink drops before delete = %v, want none", dropped)
	}

	if resp := api.Delete("/api/v1/heatmaps/power_stations"); resp.Code != http.StatusOK {
		t.Fatalf("delete = %d", resp.Code)
	}
	if len(dropped) != 1 || dropped[0] != "power_stations" {
		t.Fatalf("sink drops = %v, want [power_stations]", dropped)
	}
}

func TestCombineUnknownID(t *testing.T) {
	api := newTestAPI(t)
	resp := api.Post("/api/v1/heatmaps/combine", map[string]any{
		"name": "Nope",
		"ids":  []string{"ghost"},
	})
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("combine unknown id = %d, want 422", resp.Code)
	}
}
