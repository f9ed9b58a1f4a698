// Package service contains business logic for the heatmap platform.
package service

import (
	"time"

	"github.com/Kheng2023/SamYong2025/internal/heatmap"
)

// HeatmapInfo is the stored metadata for a generated heatmap layer.
// The cell values live in their own grid file under the data dir; this
// record is what the catalog lists and persists.
type HeatmapInfo struct {
	ID        string                   `json:"id,omitempty" doc:"Unique heatmap identifier" example:"power_stations"`
	Name      string                   `json:"name" required:"true" minLength:"1" maxLength:"100" doc:"Display name" example:"Power Stations"`
	Source    string                   `json:"source,omitempty" doc:"Source file the heatmap was rasterized from" example:"power_stations.geojson"`
	Rows      int                      `json:"rows" doc:"Grid rows"`
	Cols      int                      `json:"cols" doc:"Grid columns"`
	BBox      heatmap.BoundingBox      `json:"bbox" doc:"Grid extent"`
	Config    heatmap.ProcessingConfig `json:"config" doc:"Configuration the grid was built with"`
	Skipped   []heatmap.SkippedFeature `json:"skipped,omitempty" doc:"Features dropped for geometry problems"`
	CreatedAt time.Time                `json:"createdAt" doc:"Generation time"`
}

// SourceFile represents a GeoJSON source data file.
type SourceFile struct {
	Name     string `json:"name" doc:"File name" example:"power_stations.geojson"`
	Size     string `json:"size" doc:"Human-readable file size" example:"1.2 MB"`
	FileType string `json:"fileType" doc:"File type" example:"GeoJSON"`
}
