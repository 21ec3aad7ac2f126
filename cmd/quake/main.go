package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"runtime/debug"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/plat-quake/internal/logging"
	"github.com/joeblew999/plat-quake/internal/server"
	"github.com/joeblew999/plat-quake/internal/service"
)

const serviceName = "plat-quake"

// Options defines all CLI flags and env vars for the quake server.
// Flags: --host, --port, --earthquake-feed, --plates-feed, --fetch-timeout, --web-dir, --log-level
// Env vars: SERVICE_HOST, SERVICE_PORT, SERVICE_EARTHQUAKE_FEED, ...
type Options struct {
	Host           string `doc:"Host to bind to" default:"0.0.0.0"`
	Port           int    `doc:"Port to listen on" short:"p" default:"8086"`
	EarthquakeFeed string `doc:"USGS earthquake GeoJSON feed URL" default:"https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/all_month.geojson"`
	PlatesFeed     string `doc:"Tectonic plate boundaries GeoJSON URL" default:"https://raw.githubusercontent.com/fraxen/tectonicplates/master/GeoJSON/PB2002_boundaries.json"`
	FetchTimeout   int    `doc:"Timeout for each feed fetch in seconds, 0 for none" default:"0"`
	WebDir         string `doc:"Optional template directory overriding the embedded one"`
	LogLevel       string `doc:"Log level (debug, info, warn, error)" default:"info"`
}

func version() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return "0.1.0"
}

func newServer(ctx context.Context, opts *Options) (*server.Server, error) {
	return server.New(ctx, server.Config{
		Host:           opts.Host,
		Port:           fmt.Sprintf("%d", opts.Port),
		Version:        version(),
		EarthquakeFeed: opts.EarthquakeFeed,
		PlatesFeed:     opts.PlatesFeed,
		FetchTimeout:   time.Duration(opts.FetchTimeout) * time.Second,
		WebDir:         opts.WebDir,
	})
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		logging.SetLevel(opts.LogLevel)
		ctx, logger := logging.NewLogger(context.Background(), serviceName, version())
		ctx, cancel := context.WithCancel(ctx)

		srv, err := newServer(ctx, opts)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create server")
		}

		hooks.OnStart(func() {
			addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
			displayHost := opts.Host
			if displayHost == "0.0.0.0" {
				displayHost = "localhost"
			}
			baseURL := fmt.Sprintf("http://%s:%d", displayHost, opts.Port)

			fmt.Println()
			fmt.Printf("plat-quake map server starting...\n")
			fmt.Printf("  Server:  %s\n", baseURL)
			fmt.Printf("  Quakes:  %s\n", opts.EarthquakeFeed)
			fmt.Printf("  Plates:  %s\n", opts.PlatesFeed)
			fmt.Println()
			fmt.Printf("  Pages:   %s/viewer\n", baseURL)
			fmt.Printf("  Docs:    %s/docs\n", baseURL)
			fmt.Printf("  OpenAPI: %s/openapi.json\n", baseURL)
			fmt.Println()

			srv.Start(ctx)

			if err := http.ListenAndServe(addr, srv); err != nil {
				logger.Fatal().Err(err).Msg("server error")
			}
		})

		hooks.OnStop(func() {
			cancel()
			if err := srv.Close(); err != nil {
				logger.Warn().Err(err).Msg("closing server")
			}
		})
	})

	cli.Root().Use = "quake"
	cli.Root().Short = "Earthquake and tectonic plate map server"
	cli.Root().Version = version()

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			srv, err := newServer(context.Background(), opts)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error creating server: %v\n", err)
				os.Exit(1)
			}
			defer srv.Close()
			spec := srv.OpenAPI()

			useYAML, _ := cmd.Flags().GetBool("yaml")

			var output []byte
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

	// legend subcommand: print the depth color buckets
	legendCmd := &cobra.Command{
		Use:   "legend",
		Short: "Print the depth legend (use --html for the rendered control)",
		Run: func(cmd *cobra.Command, args []string) {
			if asHTML, _ := cmd.Flags().GetBool("html"); asHTML {
				fmt.Println(service.LegendHTML())
				return
			}
			for _, e := range service.Legend() {
				fmt.Printf("%-8s %-11s %s\n", e.Label, e.Color, e.Hex)
			}
		},
	}
	legendCmd.Flags().Bool("html", false, "Output the legend HTML")
	cli.Root().AddCommand(legendCmd)

	cli.Run()
}
