package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/cropfusion/cropfusion/internal/adapter/gemini"
	"github.com/cropfusion/cropfusion/internal/adapter/openweather"
	"github.com/cropfusion/cropfusion/internal/adapter/predictor"
	"github.com/cropfusion/cropfusion/internal/catalog"
	"github.com/cropfusion/cropfusion/internal/crop"
	"github.com/cropfusion/cropfusion/internal/observability"
	"github.com/cropfusion/cropfusion/internal/server"
	"github.com/cropfusion/cropfusion/internal/service"
)

// Options defines all CLI flags and env vars for the server.
// Flags: --host, --port, --predict-url, ...
// Env vars: SERVICE_HOST, SERVICE_PORT, SERVICE_PREDICT_URL, ...
type Options struct {
	Host string `doc:"Host to bind to" default:"0.0.0.0"`
	Port int    `doc:"Port to listen on" short:"p" default:"8086"`

	PredictURL     string `doc:"Recommendation endpoint" default:"http://localhost:8080/crop_recommend"`
	PredictTimeout string `doc:"Recommendation request timeout" default:"10s"`

	WeatherURL     string `doc:"Current weather endpoint" default:"https://api.openweathermap.org/data/2.5/weather"`
	WeatherKey     string `doc:"OpenWeatherMap API key; empty disables auto-fill lookups"`
	WeatherTimeout string `doc:"Weather request timeout" default:"5s"`

	GeminiKey   string `doc:"Gemini API key; empty disables commentary"`
	GeminiModel string `doc:"Gemini model" default:"gemini-2.0-flash"`
	GeminiURL   string `doc:"Gemini API base URL override"`

	CatalogFile      string `doc:"Crop catalog YAML; empty uses the embedded one"`
	WebDir           string `doc:"Path to web/ directory; empty serves the embedded one"`
	HandoffTTL       string `doc:"How long a result link stays valid" default:"30m"`
	EnforceAllRanges bool   `doc:"Check every declared range, not just temperature and humidity" default:"true"`

	LogLevel  string `doc:"Log level" default:"info"`
	LogFormat string `doc:"Log format: json or console" default:"json"`
}

// timeouts are the parsed duration options.
type timeouts struct {
	predict, weather, handoff time.Duration
}

func parseTimeouts(opts *Options) (timeouts, error) {
	var t timeouts
	for _, d := range []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"predict-timeout", opts.PredictTimeout, &t.predict},
		{"weather-timeout", opts.WeatherTimeout, &t.weather},
		{"handoff-ttl", opts.HandoffTTL, &t.handoff},
	} {
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return t, fmt.Errorf("--%s: %w", d.name, err)
		}
		*d.dst = v
	}
	return t, nil
}

func loadCatalog(opts *Options) (*catalog.Catalog, error) {
	if opts.CatalogFile == "" {
		return catalog.Default()
	}
	return catalog.Load(opts.CatalogFile)
}

func newServer(ctx context.Context, opts *Options, logger *zap.Logger, metrics *observability.Metrics) (*server.Server, error) {
	t, err := parseTimeouts(opts)
	if err != nil {
		return nil, err
	}
	cat, err := loadCatalog(opts)
	if err != nil {
		return nil, err
	}

	var weather service.WeatherSource
	if opts.WeatherKey != "" {
		weather = openweather.NewClient(opts.WeatherKey, opts.WeatherURL, t.weather, logger)
	} else {
		logger.Info("weather auto-fill disabled: no API key")
	}

	var commentator service.Commentator
	if opts.GeminiKey != "" {
		c, err := gemini.New(ctx, gemini.Options{APIKey: opts.GeminiKey, Model: opts.GeminiModel, BaseURL: opts.GeminiURL})
		if err != nil {
			return nil, fmt.Errorf("gemini: %w", err)
		}
		commentator = c
	} else {
		logger.Info("commentary disabled: no Gemini API key")
	}

	policy := crop.EnforceObserved
	if opts.EnforceAllRanges {
		policy = crop.EnforceAll
	}

	return server.New(server.Config{
		Host:        opts.Host,
		Port:        fmt.Sprintf("%d", opts.Port),
		WebDir:      opts.WebDir,
		Catalog:     cat,
		Predictor:   predictor.NewClient(opts.PredictURL, t.predict, logger),
		Weather:     weather,
		Commentator: commentator,
		Policy:      policy,
		HandoffTTL:  t.handoff,
		Logger:      logger,
		Metrics:     metrics,
	})
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		logger, err := observability.NewLogger(opts.LogLevel, opts.LogFormat)
		if err != nil {
			fatal("Error creating logger: %v", err)
		}

		var httpServer *http.Server
		var srv *server.Server

		hooks.OnStart(func() {
			defer logger.Sync() //nolint:errcheck // best-effort flush

			srv, err = newServer(context.Background(), opts, logger, observability.NewMetrics())
			if err != nil {
				logger.Fatal("server setup failed", zap.Error(err))
			}

			addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
			displayHost := opts.Host
			if displayHost == "0.0.0.0" {
				displayHost = "localhost"
			}
			baseURL := fmt.Sprintf("http://%s:%d", displayHost, opts.Port)

			fmt.Println()
			fmt.Printf("cropfusion server starting...\n")
			fmt.Printf("  Server:  %s\n", baseURL)
			fmt.Printf("  Predict: %s\n", opts.PredictURL)
			fmt.Println()
			fmt.Printf("  Pages:   %s/, %s/crop\n", baseURL, baseURL)
			fmt.Printf("  Docs:    %s/docs\n", baseURL)
			fmt.Printf("  OpenAPI: %s/openapi.json\n", baseURL)
			fmt.Printf("  Metrics: %s/metrics\n", baseURL)
			fmt.Println()

			httpServer = &http.Server{
				Addr:         addr,
				Handler:      srv,
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 30 * time.Second,
				IdleTimeout:  60 * time.Second,
			}
			logger.Info("http server starting", zap.String("addr", addr))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatal("server error", zap.Error(err))
			}
		})

		hooks.OnStop(func() {
			if httpServer == nil {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(ctx); err != nil {
				logger.Error("http server shutdown error", zap.Error(err))
			}
			if srv != nil {
				srv.Close()
			}
		})
	})

	cli.Root().Use = "cropfusion"
	cli.Root().Short = "Crop recommendation web front-end"
	cli.Root().Version = "1.0.0"

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			srv, err := newServer(cmd.Context(), opts, zap.NewNop(), observability.NewMetricsForTesting())
			if err != nil {
				fatal("Error creating server: %v", err)
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
				fatal("Error marshaling spec: %v", err)
			}
			fmt.Println(string(output))
		}),
	}
	specCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(specCmd)

	// catalog subcommand: print the crop catalog
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Print the crop catalog as YAML",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			cat, err := loadCatalog(opts)
			if err != nil {
				fatal("Error loading catalog: %v", err)
			}
			output, err := yaml.Marshal(cat)
			if err != nil {
				fatal("Error marshaling catalog: %v", err)
			}
			fmt.Print(string(output))
		}),
	}
	cli.Root().AddCommand(catalogCmd)

	cli.Run()
}
