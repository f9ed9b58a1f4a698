// Package server wires the heatmap services into an HTTP server with a
// Huma-documented REST API.
package server

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/rs/zerolog/log"

	"github.com/Kheng2023/SamYong2025/internal/api"
	"github.com/Kheng2023/SamYong2025/internal/db"
	"github.com/Kheng2023/SamYong2025/internal/heatmap"
	"github.com/Kheng2023/SamYong2025/internal/service"
)

// Config holds the server configuration.
type Config struct {
	Host    string
	Port    string
	DataDir string
	// DBName is the DuckDB sink database name. Empty disables the sink.
	DBName string
}

// Server is the heatmap HTTP server.
type Server struct {
	config   Config
	mux      *http.ServeMux
	humaAPI  huma.API
	db       *sql.DB
	services *api.Services
}

// New creates a new heatmap server.
func New(cfg Config) *Server {
	mux := http.NewServeMux()

	// Create Huma API with humago (pure stdlib) adapter
	humaConfig := huma.DefaultConfig("geoheat API", "1.0.0")
	humaConfig.Info.Description = "Heatmap generation API: rasterize GeoJSON sources onto scored grids, combine layers, and export results."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaConfig.Transformers = append(humaConfig.Transformers, api.LinkTransformer())

	humaAPI := humago.New(mux, humaConfig)

	services := &api.Services{
		Heatmap: service.NewHeatmapService(cfg.DataDir),
		Source:  service.NewSourceService(cfg.DataDir),
	}

	s := &Server{
		config:   cfg,
		mux:      mux,
		humaAPI:  humaAPI,
		services: services,
	}

	// Optional DuckDB sink for SQL exploration of generated grids
	if cfg.DBName != "" {
		conn, err := db.Get(db.Config{DataDir: cfg.DataDir, DBName: cfg.DBName})
		if err != nil {
			log.Warn().Err(err).Msg("DuckDB sink unavailable")
		} else {
			s.db = conn
			services.Sink = func(id string, g *heatmap.Grid) {
				if err := db.InsertGrid(conn, id, g); err != nil {
					log.Warn().Err(err).Str("heatmap", id).Msg("Failed to sink grid")
				}
			}
			services.SinkDelete = func(id string) {
				if err := db.DeleteGrid(conn, id); err != nil {
					log.Warn().Err(err).Str("heatmap", id).Msg("Failed to drop sunk grid")
				}
			}
		}
	}

	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Handler returns the full middleware chain.
func (s *Server) Handler() http.Handler {
	return RequestLogger(s.mux)
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%s", s.config.Host, s.config.Port)
}

// OpenAPI returns the generated API description.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// Close closes server resources.
func (s *Server) Close() error {
	return db.Close()
}

func (s *Server) routes() {
	// Huma REST API routes (OpenAPI-documented JSON endpoints)
	api.RegisterRoutes(s.humaAPI, s.services)
	api.NewInfoHandler(s.config.DataDir, s.db != nil).RegisterRoutes(s.humaAPI)
	api.NewDBHandler(s.db).RegisterRoutes(s.humaAPI)

	// Source upload and delete stay plain handlers: multipart bodies and
	// raw path suffixes do not fit Huma's typed inputs well.
	s.mux.HandleFunc("/api/v1/sources/upload", s.handleSourceUpload)
	s.mux.HandleFunc("/api/v1/sources/delete/", s.handleSourceDelete)

	s.mux.HandleFunc("/", s.handleRoot)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"service": "geoheat",
		"status":  "running",
	})
}

// handleSourceUpload handles GeoJSON file uploads.
func (s *Server) handleSourceUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(50 << 20); err != nil {
		http.Error(w, "Failed to parse upload: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "No file provided", http.StatusBadRequest)
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".geojson" && ext != ".json" {
		http.Error(w, "Only .geojson or .json files are allowed", http.StatusBadRequest)
		return
	}
	if strings.ContainsAny(header.Filename, `/\`) || strings.Contains(header.Filename, "..") {
		http.Error(w, "Invalid filename", http.StatusBadRequest)
		return
	}

	sourcesDir := s.services.Source.SourcesDir()
	if err := os.MkdirAll(sourcesDir, 0755); err != nil {
		http.Error(w, "Failed to save file: "+err.Error(), http.StatusInternalServerError)
		return
	}
	dest, err := os.Create(filepath.Join(sourcesDir, header.Filename))
	if err != nil {
		http.Error(w, "Failed to save file: "+err.Error(), http.StatusInternalServerError)
		return
	}
	defer dest.Close()

	if _, err := io.Copy(dest, file); err != nil {
		http.Error(w, "Failed to write file: "+err.Error(), http.StatusInternalServerError)
		return
	}

	log.Info().Str("file", header.Filename).Msg("Source uploaded")
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"uploaded": header.Filename})
}

// handleSourceDelete deletes a source file.
func (s *Server) handleSourceDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	filename := strings.TrimPrefix(r.URL.Path, "/api/v1/sources/delete/")
	if filename == "" {
		http.Error(w, "Filename required", http.StatusBadRequest)
		return
	}
	if strings.ContainsAny(filename, `/\`) || strings.Contains(filename, "..") {
		http.Error(w, "Invalid filename", http.StatusBadRequest)
		return
	}

	filePath := filepath.Join(s.services.Source.SourcesDir(), filename)
	if err := os.Remove(filePath); err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "File not found", http.StatusNotFound)
		} else {
			http.Error(w, "Failed to delete file: "+err.Error(), http.StatusInternalServerError)
		}
		return
	}

	log.Info().Str("file", filename).Msg("Source deleted")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Deleted"))
}
