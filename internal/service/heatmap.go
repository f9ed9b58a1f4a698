package service

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"

	"github.com/Kheng2023/SamYong2025/internal/heatmap"
)

// HeatmapService manages generated heatmap layers: it rasterizes
// sources, persists the results under the data dir and serves them back
// for combination and rendering. Grids are immutable once stored.
type HeatmapService struct {
	dataDir  string
	heatmaps map[string]HeatmapInfo
	mu       sync.RWMutex
}

// NewHeatmapService creates a heatmap service rooted at dataDir.
func NewHeatmapService(dataDir string) *HeatmapService {
	s := &HeatmapService{
		dataDir:  dataDir,
		heatmaps: make(map[string]HeatmapInfo),
	}
	s.loadFromDisk()
	return s
}

// List returns all stored heatmap records.
func (s *HeatmapService) List() map[string]HeatmapInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]HeatmapInfo, len(s.heatmaps))
	for k, v := range s.heatmaps {
		result[k] = v
	}
	return result
}

// Get returns a heatmap record by ID.
func (s *HeatmapService) Get(id string) (HeatmapInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, ok := s.heatmaps[id]
	return info, ok
}

// Grid loads the stored cell values for a heatmap.
func (s *HeatmapService) Grid(id string) (*heatmap.Grid, error) {
	s.mu.RLock()
	_, ok := s.heatmaps[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("heatmap %q not found", id)
	}

	data, err := os.ReadFile(s.gridFile(id))
	if err != nil {
		return nil, fmt.Errorf("reading grid for %q: %w", id, err)
	}
	var g heatmap.Grid
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("parsing grid for %q: %w", id, err)
	}
	if err := g.Valid(); err != nil {
		return nil, fmt.Errorf("stored grid for %q: %w", id, err)
	}
	return &g, nil
}

// Generate rasterizes a feature collection and stores the result under
// a new ID. Configuration errors abort with no stored state.
func (s *HeatmapService) Generate(name, source string, fc *geojson.FeatureCollection, cfg heatmap.ProcessingConfig) (HeatmapInfo, error) {
	res, err := heatmap.Rasterize(fc, cfg)
	if err != nil {
		return HeatmapInfo{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := generateID(name)
	if id == "" {
		return HeatmapInfo{}, fmt.Errorf("heatmap name %q produces an empty ID", name)
	}
	if _, exists := s.heatmaps[id]; exists {
		return HeatmapInfo{}, fmt.Errorf("heatmap with ID %q already exists", id)
	}

	info := HeatmapInfo{
		ID:        id,
		Name:      name,
		Source:    source,
		Rows:      res.Grid.Rows,
		Cols:      res.Grid.Cols,
		BBox:      res.Grid.BBox,
		Config:    cfg,
		Skipped:   res.Skipped,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store(info, res.Grid); err != nil {
		return HeatmapInfo{}, err
	}

	log.Info().
		Str("heatmap", id).
		Str("source", source).
		Int("rows", info.Rows).
		Int("cols", info.Cols).
		Int("skipped", len(res.Skipped)).
		Msg("Heatmap generated")

	return info, nil
}

// Combine merges previously stored heatmaps into a new stored layer.
func (s *HeatmapService) Combine(name string, ids []string, mode heatmap.CombineMode, weights []float64) (HeatmapInfo, error) {
	grids := make([]*heatmap.Grid, 0, len(ids))
	for _, id := range ids {
		g, err := s.Grid(id)
		if err != nil {
			return HeatmapInfo{}, err
		}
		grids = append(grids, g)
	}

	combined, err := heatmap.Combine(grids, mode, weights)
	if err != nil {
		return HeatmapInfo{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := generateID(name)
	if id == "" {
		return HeatmapInfo{}, fmt.Errorf("heatmap name %q produces an empty ID", name)
	}
	if _, exists := s.heatmaps[id]; exists {
		return HeatmapInfo{}, fmt.Errorf("heatmap with ID %q already exists", id)
	}

	info := HeatmapInfo{
		ID:        id,
		Name:      name,
		Source:    string(mode) + "(" + strings.Join(ids, ",") + ")",
		Rows:      combined.Rows,
		Cols:      combined.Cols,
		BBox:      combined.BBox,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store(info, combined); err != nil {
		return HeatmapInfo{}, err
	}

	log.Info().
		Str("heatmap", id).
		Str("mode", string(mode)).
		Strs("inputs", ids).
		Msg("Heatmaps combined")

	return info, nil
}

// Delete removes a heatmap and its grid file.
func (s *HeatmapService) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.heatmaps[id]; !exists {
		return fmt.Errorf("heatmap %q not found", id)
	}

	delete(s.heatmaps, id)
	if err := os.Remove(s.gridFile(id)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return s.saveToDisk()
}

// store persists a new record and its grid. Caller holds the lock.
func (s *HeatmapService) store(info HeatmapInfo, grid *heatmap.Grid) error {
	if err := os.MkdirAll(s.gridsDir(), 0755); err != nil {
		return err
	}
	data, err := json.Marshal(grid)
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.gridFile(info.ID), data, 0644); err != nil {
		return err
	}

	s.heatmaps[info.ID] = info
	if err := s.saveToDisk(); err != nil {
		delete(s.heatmaps, info.ID)
		return err
	}
	return nil
}

func (s *HeatmapService) gridsDir() string {
	return filepath.Join(s.dataDir, "grids")
}

func (s *HeatmapService) gridFile(id string) string {
	return filepath.Join(s.gridsDir(), id+".json")
}

// configFile returns the path to the heatmap catalog file.
func (s *HeatmapService) configFile() string {
	return filepath.Join(s.dataDir, "heatmaps.json")
}

// loadFromDisk loads the heatmap catalog from disk.
func (s *HeatmapService) loadFromDisk() {
	data, err := os.ReadFile(s.configFile())
	if err != nil {
		return // File doesn't exist yet, start empty
	}

	var heatmaps map[string]HeatmapInfo
	if err := json.Unmarshal(data, &heatmaps); err != nil {
		log.Warn().Err(err).Str("file", s.configFile()).Msg("Ignoring unreadable heatmap catalog")
		return
	}

	s.heatmaps = heatmaps
}

// saveToDisk persists the heatmap catalog to disk.
func (s *HeatmapService) saveToDisk() error {
	if err := os.MkdirAll(s.dataDir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s.heatmaps, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.configFile(), data, 0644)
}

// generateID creates a URL-safe ID from a name.
func generateID(name string) string {
	id := strings.ToLower(name)
	id = strings.ReplaceAll(id, " ", "_")
	var result strings.Builder
	for _, r := range id {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			result.WriteRune(r)
		}
	}
	return result.String()
}
