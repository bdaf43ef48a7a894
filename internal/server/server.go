// Package server wires the cropfusion HTTP surface: pages, Datastar UI
// actions, the Huma REST API, static assets and metrics.
package server

import (
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"reflect"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/cropfusion/cropfusion/internal/api"
	"github.com/cropfusion/cropfusion/internal/api/ui"
	"github.com/cropfusion/cropfusion/internal/catalog"
	"github.com/cropfusion/cropfusion/internal/crop"
	"github.com/cropfusion/cropfusion/internal/humastar"
	"github.com/cropfusion/cropfusion/internal/observability"
	"github.com/cropfusion/cropfusion/internal/scene"
	"github.com/cropfusion/cropfusion/internal/service"
	"github.com/cropfusion/cropfusion/web"
)

// Config holds the server configuration and its collaborators.
type Config struct {
	Host   string
	Port   string
	WebDir string // on-disk web/ tree; empty serves the embedded one

	Catalog     *catalog.Catalog // nil uses the embedded catalog
	Predictor   service.Predictor
	Weather     service.WeatherSource
	Commentator service.Commentator // nil disables commentary
	Policy      crop.Policy
	HandoffTTL  time.Duration

	Logger  *zap.Logger
	Metrics *observability.Metrics
	Clock   clockwork.Clock

	// MetricsHandler serves /metrics; nil uses the default Prometheus registry.
	MetricsHandler http.Handler
}

// cropFormSchema drives the generated form inputs and initial signals.
var cropFormSchema = humastar.DatastarSchemaConfig{
	Type:     reflect.TypeOf(service.CropForm{}),
	FormTmpl: "crop-form",
	IDSuffix: "-crop-input",
	BasePath: ui.BasePath,
}

// Server is the cropfusion HTTP server.
type Server struct {
	config   Config
	mux      *http.ServeMux
	humaAPI  huma.API
	web      fs.FS
	renderer *humastar.Renderer
	catalog  *catalog.Catalog
	handoff  *service.Handoff
	rec      *service.Recommender
	scene    scene.Manifest
	logger   *zap.Logger
}

// New creates a new server.
func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observability.NewMetricsForTesting()
	}
	if cfg.MetricsHandler == nil {
		cfg.MetricsHandler = promhttp.Handler()
	}
	if cfg.Catalog == nil {
		cat, err := catalog.Default()
		if err != nil {
			return nil, fmt.Errorf("load catalog: %w", err)
		}
		cfg.Catalog = cat
	}

	webFS := fs.FS(web.FS)
	if cfg.WebDir != "" {
		webFS = os.DirFS(cfg.WebDir)
	}
	renderer, err := humastar.New(webFS)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	mux := http.NewServeMux()

	links := humastar.LinkIndex{}
	humaConfig := huma.DefaultConfig("CropFusion API", api.Version)
	humaConfig.Info.Description = "Crop recommendation from soil and weather parameters."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaConfig.Transformers = append(humaConfig.Transformers, humastar.LinkTransformer(links))

	humaAPI := humago.New(mux, humaConfig)

	handoff := service.NewHandoff(cfg.HandoffTTL, cfg.Clock, cfg.Metrics)
	rec := service.NewRecommender(cfg.Predictor, handoff, cfg.Policy, cfg.Metrics, cfg.Logger)

	s := &Server{
		config:   cfg,
		mux:      mux,
		humaAPI:  humaAPI,
		web:      webFS,
		renderer: renderer,
		catalog:  cfg.Catalog,
		handoff:  handoff,
		rec:      rec,
		scene:    scene.Probe(webFS, scene.Default()),
		logger:   cfg.Logger,
	}

	api.RegisterRoutes(humaAPI, &api.Services{
		Catalog:     cfg.Catalog,
		Recommender: rec,
		Scene:       scene.Default(),
		Web:         webFS,
		Logger:      cfg.Logger,
	})
	ui.NewHandler(renderer, rec,
		service.NewAutofillFlow(cfg.Weather, cfg.Metrics, cfg.Logger),
		service.NewEnricher(cfg.Commentator, cfg.Metrics, cfg.Logger),
		cfg.Catalog, cfg.Logger,
	).RegisterRoutes(humaAPI)

	humastar.InjectExtensions(humaAPI, []humastar.DatastarSchemaConfig{cropFormSchema})
	if err := humastar.RegisterFormTemplates(humaAPI, renderer); err != nil {
		handoff.Close()
		return nil, err
	}
	humastar.AutoLinks(humaAPI, links)

	s.routes()
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// OpenAPI returns the OpenAPI document of the REST and UI routes.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// Close stops background work.
func (s *Server) Close() error {
	s.handoff.Close()
	return nil
}

func (s *Server) routes() {
	static, err := fs.Sub(s.web, "static")
	if err == nil {
		s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	}
	s.mux.Handle("GET /metrics", s.config.MetricsHandler)

	// Page routes
	s.mux.HandleFunc("/crop/result", s.handleResult)
	s.mux.HandleFunc("/crop", s.handleCrop)
	s.mux.HandleFunc("/", s.handleRoot)
}

// HomePage is the data of the home page.
type HomePage struct {
	Title string
	Scene *scene.Scene // nil when the asset is missing
}

// CropPage is the data of the form page.
type CropPage struct {
	Title  string
	Page   humastar.PageData
	Status ui.StatusView
}

// ResultPage is the data of the result page.
type ResultPage struct {
	Title string
	Token string
	Label string
	Known bool
	Entry catalog.Entry
	Crops template.HTML // catalog cards, rendered for the unrecognized state
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	page := HomePage{Title: "Home"}
	if s.scene.Available {
		page.Scene = &s.scene.Scene
	}
	s.render(w, "home", page)
}

func (s *Server) handleCrop(w http.ResponseWriter, r *http.Request) {
	s.render(w, "crop", CropPage{
		Title:  "Crop Recommendation",
		Page:   humastar.BuildPageData(s.humaAPI, cropFormSchema, ui.InitialSignals()),
		Status: ui.NewStatusView(service.Autofill{State: service.AutofillNotRequested}),
	})
}

// handleResult renders the recommendation carried by the state token.
// Without a live token there is nothing to show: redirect to the form.
func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("state")
	label, ok := s.rec.Result(token)
	if !ok {
		http.Redirect(w, r, "/crop", http.StatusSeeOther)
		return
	}

	page := ResultPage{Title: "Recommendation", Token: token, Label: label}
	if entry, err := s.catalog.Lookup(label); err == nil {
		page.Known, page.Entry = true, entry
	} else {
		s.logger.Warn("result for unknown label", zap.String("label", label))
		entries := s.catalog.List(0, s.catalog.Len())
		items := make([]any, len(entries))
		for i, e := range entries {
			items[i] = e
		}
		crops, err := humastar.RenderList(s.renderer, "crop-card", items,
			"No crops available", "The catalog is empty")
		if err != nil {
			s.logger.Error("render catalog cards", zap.Error(err))
		}
		page.Crops = crops
	}
	s.render(w, "result", page)
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	// An on-disk web tree is a dev setup: pick up template edits per request.
	if s.config.WebDir != "" {
		if err := s.renderer.Reload(); err != nil {
			s.logger.Warn("reload templates", zap.Error(err))
		}
	}
	html, err := s.renderer.Render(name, data)
	if err != nil {
		s.logger.Error("render page", zap.String("page", name), zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte(html))
}
