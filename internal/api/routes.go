// Package api defines the Huma API routes and handlers.
package api

import (
	"bytes"
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/paulmach/orb/geojson"

	"github.com/Kheng2023/SamYong2025/internal/heatmap"
	"github.com/Kheng2023/SamYong2025/internal/render"
	"github.com/Kheng2023/SamYong2025/internal/service"
)

// Services holds the service dependencies for API handlers.
type Services struct {
	Heatmap *service.HeatmapService
	Source  *service.SourceService

	// Sink is called after a heatmap is generated or combined, for
	// optional persistence into the analytics database. SinkDelete is
	// called after a heatmap is deleted so the sink drops its rows too.
	Sink       func(id string, g *heatmap.Grid)
	SinkDelete func(id string)
}

// Types

type IDInput struct {
	ID string `path:"id" doc:"Heatmap ID" example:"power_stations"`
}

type SourceNameInput struct {
	Name string `path:"name" doc:"Source file name" example:"power_stations.geojson"`
}

type HeatmapOutput struct {
	Body service.HeatmapInfo
}

type HeatmapsOutput struct {
	Body map[string]service.HeatmapInfo
}

type GridOutput struct {
	Body heatmap.Grid
}

type MessageBody struct {
	Message string `json:"message" doc:"Result message"`
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"1.0.0"`
}

// GenerateInput rasterizes one source file into a stored heatmap.
type GenerateInput struct {
	Body struct {
		Name   string                   `json:"name" required:"true" minLength:"1" maxLength:"100" doc:"Display name for the new heatmap"`
		Source string                   `json:"source" required:"true" doc:"GeoJSON file in the sources directory"`
		Config heatmap.ProcessingConfig `json:"config" doc:"Rasterization configuration"`
	}
}

// CombineInput merges stored heatmaps into a new stored heatmap.
type CombineInput struct {
	Body struct {
		Name    string    `json:"name" required:"true" minLength:"1" maxLength:"100" doc:"Display name for the combined heatmap"`
		IDs     []string  `json:"ids" required:"true" minItems:"1" doc:"Stored heatmap IDs to combine"`
		Mode    string    `json:"mode" enum:"additive,multiplicative,subtractive,weighted" default:"additive" doc:"Cell-wise combination algebra"`
		Weights []float64 `json:"weights,omitempty" doc:"Per-grid weights (weighted mode; defaults to equal)"`
	}
}

type RenderInput struct {
	IDInput
	CellSize int    `query:"cellSize" minimum:"1" maximum:"64" doc:"Pixels per grid cell (default 8)"`
	Format   string `query:"format" enum:"png,webp" doc:"Image format (default png)"`
}

type ImageOutput struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

// APIHandler holds all REST API handlers. Methods named Register* are
// auto-discovered by huma.AutoRegister.
type APIHandler struct {
	svc *Services
}

func NewAPIHandler(svc *Services) *APIHandler {
	return &APIHandler{svc: svc}
}

// RegisterRoutes wires every handler group onto the API.
func RegisterRoutes(api huma.API, svc *Services) {
	huma.AutoRegister(api, NewAPIHandler(svc))
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

// RegisterHeatmaps registers heatmap generation and retrieval routes.
func (h *APIHandler) RegisterHeatmaps(api huma.API) {
	huma.Get(api, "/api/v1/heatmaps", h.GetHeatmaps, huma.OperationTags("heatmaps"))
	huma.Post(api, "/api/v1/heatmaps", h.GenerateHeatmap, huma.OperationTags("heatmaps"))
	huma.Post(api, "/api/v1/heatmaps/combine", h.CombineHeatmaps, huma.OperationTags("heatmaps"))
	huma.Get(api, "/api/v1/heatmaps/{id}", h.GetHeatmap, huma.OperationTags("heatmaps"))
	huma.Get(api, "/api/v1/heatmaps/{id}/grid", h.GetGrid, huma.OperationTags("heatmaps"))
	huma.Get(api, "/api/v1/heatmaps/{id}/geojson", h.GetGridGeoJSON, huma.OperationTags("heatmaps"))
	huma.Get(api, "/api/v1/heatmaps/{id}/render", h.RenderHeatmap, huma.OperationTags("heatmaps"))
	huma.Delete(api, "/api/v1/heatmaps/{id}", h.DeleteHeatmap, huma.OperationTags("heatmaps"))
}

// RegisterSources registers source listing and discovery routes.
func (h *APIHandler) RegisterSources(api huma.API) {
	huma.Get(api, "/api/v1/sources", h.GetSources, huma.OperationTags("sources"))
	huma.Get(api, "/api/v1/sources/{name}/properties", h.GetSourceProperties, huma.OperationTags("sources"))
}

// Handlers

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: "1.0.0"}}, nil
}

func (h *APIHandler) GetHeatmaps(ctx context.Context, input *struct{}) (*HeatmapsOutput, error) {
	if h.svc == nil || h.svc.Heatmap == nil {
		return &HeatmapsOutput{Body: map[string]service.HeatmapInfo{}}, nil
	}
	return &HeatmapsOutput{Body: h.svc.Heatmap.List()}, nil
}

func (h *APIHandler) GenerateHeatmap(ctx context.Context, input *GenerateInput) (*HeatmapOutput, error) {
	if h.svc == nil || h.svc.Heatmap == nil || h.svc.Source == nil {
		return nil, huma.Error400BadRequest("service not available")
	}
	fc, err := h.svc.Source.Load(input.Body.Source)
	if err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	info, err := h.svc.Heatmap.Generate(input.Body.Name, input.Body.Source, fc, input.Body.Config)
	if err != nil {
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}
	h.sink(info.ID)
	return &HeatmapOutput{Body: info}, nil
}

func (h *APIHandler) CombineHeatmaps(ctx context.Context, input *CombineInput) (*HeatmapOutput, error) {
	if h.svc == nil || h.svc.Heatmap == nil {
		return nil, huma.Error400BadRequest("service not available")
	}
	mode := heatmap.CombineMode(input.Body.Mode)
	if input.Body.Mode == "" {
		mode = heatmap.CombineAdditive
	}
	info, err := h.svc.Heatmap.Combine(input.Body.Name, input.Body.IDs, mode, input.Body.Weights)
	if err != nil {
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}
	h.sink(info.ID)
	return &HeatmapOutput{Body: info}, nil
}

func (h *APIHandler) GetHeatmap(ctx context.Context, input *IDInput) (*HeatmapOutput, error) {
	if h.svc == nil || h.svc.Heatmap == nil {
		return nil, huma.Error404NotFound("service not available")
	}
	info, ok := h.svc.Heatmap.Get(input.ID)
	if !ok {
		return nil, huma.Error404NotFound("heatmap not found")
	}
	return &HeatmapOutput{Body: info}, nil
}

func (h *APIHandler) GetGrid(ctx context.Context, input *IDInput) (*GridOutput, error) {
	g, err := h.grid(input.ID)
	if err != nil {
		return nil, err
	}
	return &GridOutput{Body: *g}, nil
}

func (h *APIHandler) GetGridGeoJSON(ctx context.Context, input *IDInput) (*struct{ Body *geojson.FeatureCollection }, error) {
	g, err := h.grid(input.ID)
	if err != nil {
		return nil, err
	}
	return &struct{ Body *geojson.FeatureCollection }{Body: g.FeatureCollection()}, nil
}

func (h *APIHandler) RenderHeatmap(ctx context.Context, input *RenderInput) (*ImageOutput, error) {
	g, err := h.grid(input.ID)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	opts := render.Options{CellSize: input.CellSize, Format: input.Format}
	if err := render.Encode(&buf, g, opts); err != nil {
		return nil, huma.Error500InternalServerError("rendering heatmap", err)
	}
	contentType := "image/png"
	if input.Format == render.FormatWebP {
		contentType = "image/webp"
	}
	return &ImageOutput{ContentType: contentType, Body: buf.Bytes()}, nil
}

func (h *APIHandler) DeleteHeatmap(ctx context.Context, input *IDInput) (*struct{ Body MessageBody }, error) {
	if h.svc == nil || h.svc.Heatmap == nil {
		return nil, huma.Error400BadRequest("service not available")
	}
	if err := h.svc.Heatmap.Delete(input.ID); err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	if h.svc.SinkDelete != nil {
		h.svc.SinkDelete(input.ID)
	}
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "Heatmap deleted"}}, nil
}

func (h *APIHandler) GetSources(ctx context.Context, input *struct{}) (*struct{ Body []service.SourceFile }, error) {
	if h.svc == nil || h.svc.Source == nil {
		return &struct{ Body []service.SourceFile }{Body: []service.SourceFile{}}, nil
	}
	sources, err := h.svc.Source.List()
	if err != nil {
		return &struct{ Body []service.SourceFile }{Body: []service.SourceFile{}}, nil
	}
	return &struct{ Body []service.SourceFile }{Body: sources}, nil
}

func (h *APIHandler) GetSourceProperties(ctx context.Context, input *SourceNameInput) (*struct {
	Body struct {
		Properties []string `json:"properties" doc:"Discoverable property names"`
	}
}, error) {
	if h.svc == nil || h.svc.Source == nil {
		return nil, huma.Error404NotFound("service not available")
	}
	props, err := h.svc.Source.Properties(input.Name)
	if err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	out := &struct {
		Body struct {
			Properties []string `json:"properties" doc:"Discoverable property names"`
		}
	}{}
	out.Body.Properties = props
	return out, nil
}

// grid loads a stored grid or maps the failure to a 404.
func (h *APIHandler) grid(id string) (*heatmap.Grid, error) {
	if h.svc == nil || h.svc.Heatmap == nil {
		return nil, huma.Error404NotFound("service not available")
	}
	g, err := h.svc.Heatmap.Grid(id)
	if err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	return g, nil
}

// sink feeds a freshly stored grid to the analytics database, if any.
func (h *APIHandler) sink(id string) {
	if h.svc.Sink == nil {
		return
	}
	if g, err := h.svc.Heatmap.Grid(id); err == nil {
		h.svc.Sink(id, g)
	}
}
