package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Kheng2023/SamYong2025/internal/config"
	"github.com/Kheng2023/SamYong2025/internal/heatmap"
	"github.com/Kheng2023/SamYong2025/internal/logger"
	"github.com/Kheng2023/SamYong2025/internal/render"
	"github.com/Kheng2023/SamYong2025/internal/server"
	"github.com/Kheng2023/SamYong2025/internal/service"
)

// Options defines all CLI flags and env vars for the geoheat server.
// Flags: --host, --port, --data-dir, --db, --config, --log-level
// Env vars: SERVICE_HOST, SERVICE_PORT, SERVICE_DATA_DIR, ...
type Options struct {
	Host     string `doc:"Host to bind to" default:"0.0.0.0"`
	Port     int    `doc:"Port to listen on" short:"p" default:"8086"`
	DataDir  string `doc:"Directory for sources and generated grids" default:".data"`
	DB       string `doc:"DuckDB sink database name (empty disables the sink)" default:""`
	Config   string `doc:"Path to YAML configuration file" default:""`
	LogLevel string `doc:"Log level (trace, debug, info, warn, error)" default:"info"`
	Pretty   bool   `doc:"Human-readable console logs" default:"true"`
}

// loadConfig merges the optional YAML file with command line options.
// Flags win for server settings; bake jobs only come from the file.
func loadConfig(opts *Options) *config.Config {
	cfg := config.Default()
	if opts.Config != "" {
		loaded, err := config.Load(opts.Config)
		if err != nil {
			log.Fatal().Err(err).Str("path", opts.Config).Msg("Failed to load configuration")
		}
		cfg = loaded
	}
	if opts.Host != "" {
		cfg.Host = opts.Host
	}
	if opts.Port != 0 {
		cfg.Port = fmt.Sprintf("%d", opts.Port)
	}
	if opts.DataDir != "" {
		cfg.DataDir = opts.DataDir
	}
	if opts.DB != "" {
		cfg.DB = opts.DB
	}
	return cfg
}

func newServer(cfg *config.Config) *server.Server {
	return server.New(server.Config{
		Host:    cfg.Host,
		Port:    cfg.Port,
		DataDir: cfg.DataDir,
		DBName:  cfg.DB,
	})
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		logger.Setup(opts.LogLevel, opts.Pretty)
		cfg := loadConfig(opts)
		srv := newServer(cfg)

		hooks.OnStart(func() {
			addr := srv.Addr()
			displayHost := cfg.Host
			if displayHost == "0.0.0.0" {
				displayHost = "localhost"
			}
			baseURL := fmt.Sprintf("http://%s:%s", displayHost, cfg.Port)

			fmt.Println()
			fmt.Printf("geoheat API server starting...\n")
			fmt.Printf("  Server:  %s\n", baseURL)
			fmt.Printf("  Data:    %s\n", cfg.DataDir)
			fmt.Println()
			fmt.Printf("  Docs:    %s/docs\n", baseURL)
			fmt.Printf("  OpenAPI: %s/openapi.json\n", baseURL)
			fmt.Println()

			if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
				log.Fatal().Err(err).Msg("Server error")
			}
		})
		hooks.OnStop(func() {
			srv.Close()
		})
	})

	cli.Root().Use = "geoheat"
	cli.Root().Short = "Heatmap generation engine for GeoJSON feature layers"
	cli.Root().Version = "0.1.0"

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			logger.Setup(opts.LogLevel, opts.Pretty)
			srv := newServer(loadConfig(opts))
			spec := srv.OpenAPI()

			useYAML, _ := cmd.Flags().GetBool("yaml")

			var output []byte
			var err error
			if useYAML {
				output, err = yaml.Marshal(spec)
			} else {
				output, err = json.MarshalIndent(spec, "", "  ")
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error marshaling spec: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(output))
		}),
	}
	specCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(specCmd)

	// bake subcommand: rasterize the layers declared in the config file
	bakeCmd := &cobra.Command{
		Use:   "bake",
		Short: "Rasterize the heatmap layers declared in the config file",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			logger.Setup(opts.LogLevel, opts.Pretty)
			cfg := loadConfig(opts)
			if len(cfg.Layers) == 0 {
				log.Fatal().Msg("No layers declared; nothing to bake")
			}
			runBake(cfg)
		}),
	}
	cli.Root().AddCommand(bakeCmd)

	// combine subcommand: merge stored heatmaps into a new layer
	combineCmd := &cobra.Command{
		Use:   "combine <heatmap-id>...",
		Short: "Combine stored heatmaps into a new layer",
		Args:  cobra.MinimumNArgs(1),
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			logger.Setup(opts.LogLevel, opts.Pretty)
			cfg := loadConfig(opts)

			name, _ := cmd.Flags().GetString("name")
			mode, _ := cmd.Flags().GetString("mode")
			weights, _ := cmd.Flags().GetFloat64Slice("weights")

			heatmaps := service.NewHeatmapService(cfg.DataDir)
			info, err := heatmaps.Combine(name, args, heatmap.CombineMode(mode), weights)
			if err != nil {
				log.Fatal().Err(err).Msg("Combine failed")
			}
			log.Info().Str("id", info.ID).Str("mode", mode).Msg("Layers combined")
		}),
	}
	combineCmd.Flags().StringP("name", "n", "Combined", "Name for the combined heatmap")
	combineCmd.Flags().StringP("mode", "m", string(heatmap.CombineAdditive), "additive, multiplicative, subtractive or weighted")
	combineCmd.Flags().Float64Slice("weights", nil, "Per-grid weights (weighted mode)")
	cli.Root().AddCommand(combineCmd)

	// render subcommand: export a stored heatmap as an image
	renderCmd := &cobra.Command{
		Use:   "render <heatmap-id>",
		Short: "Render a stored heatmap to a PNG or WebP file",
		Args:  cobra.ExactArgs(1),
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			logger.Setup(opts.LogLevel, opts.Pretty)
			cfg := loadConfig(opts)

			out, _ := cmd.Flags().GetString("output")
			cellSize, _ := cmd.Flags().GetInt("cell-size")
			format, _ := cmd.Flags().GetString("format")
			runRender(cfg, args[0], out, cellSize, format)
		}),
	}
	renderCmd.Flags().StringP("output", "o", "heatmap.png", "Output image path")
	renderCmd.Flags().Int("cell-size", 8, "Pixels per grid cell")
	renderCmd.Flags().String("format", render.FormatPNG, "Image format (png or webp)")
	cli.Root().AddCommand(renderCmd)

	cli.Run()
}

func runBake(cfg *config.Config) {
	heatmaps := service.NewHeatmapService(cfg.DataDir)
	sources := service.NewSourceService(cfg.DataDir)

	var ids []string
	for _, layer := range cfg.Layers {
		fc, err := sources.Load(layer.Source)
		if err != nil {
			log.Fatal().Err(err).Str("source", layer.Source).Msg("Failed to load source")
		}
		info, err := heatmaps.Generate(layer.Name, layer.Source, fc, layer.Config)
		if err != nil {
			log.Fatal().Err(err).Str("layer", layer.Name).Msg("Bake failed")
		}
		log.Info().Str("id", info.ID).Int("skipped", len(info.Skipped)).Msg("Layer baked")
		ids = append(ids, info.ID)
	}

	if cfg.Combine == nil {
		return
	}
	mode := heatmap.CombineMode(cfg.Combine.Mode)
	if cfg.Combine.Mode == "" {
		mode = heatmap.CombineAdditive
	}
	info, err := heatmaps.Combine(cfg.Combine.Name, ids, mode, cfg.Combine.Weights)
	if err != nil {
		log.Fatal().Err(err).Msg("Combine failed")
	}
	log.Info().Str("id", info.ID).Str("mode", string(mode)).Msg("Layers combined")
}

func runRender(cfg *config.Config, id, out string, cellSize int, format string) {
	heatmaps := service.NewHeatmapService(cfg.DataDir)
	grid, err := heatmaps.Grid(id)
	if err != nil {
		log.Fatal().Err(err).Str("heatmap", id).Msg("Failed to load grid")
	}

	f, err := os.Create(out)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create output file")
	}
	defer f.Close()

	if err := render.Encode(f, grid, render.Options{CellSize: cellSize, Format: format}); err != nil {
		log.Fatal().Err(err).Msg("Render failed")
	}
	log.Info().Str("file", out).Int("rows", grid.Rows).Int("cols", grid.Cols).Msg("Heatmap rendered")
}
