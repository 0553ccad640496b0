package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/hardsub/hardsub/internal/api/handlers"
	"github.com/hardsub/hardsub/internal/api/middleware"
	"github.com/hardsub/hardsub/internal/monitor"
)

// Service is what the router needs from the whisper service.
type Service interface {
	handlers.Transcriber
	handlers.EngineCatalog
}

// Options carries the router's configuration slice of the app config.
type Options struct {
	MediaRoot    string
	ThumbnailDir string
	DefaultModel string
	CORSOrigins  []string
	Version      string
}

// maxJSONBody bounds mutating request bodies. Subtitle saves ship the
// whole file as JSON, so this is generous.
const maxJSONBody = 10 << 20

func NewRouter(service Service, mon *monitor.Monitor, opts Options) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger)
	r.Use(cors.Handler(middleware.CORSHandler(opts.CORSOrigins)))

	// Handlers
	healthHandler := handlers.NewHealthHandler(mon, opts.Version)
	enginesHandler := handlers.NewEnginesHandler(service)
	filesHandler := handlers.NewFilesHandler(opts.MediaRoot, opts.ThumbnailDir)
	srtHandler := handlers.NewSRTHandler(opts.MediaRoot)
	transcribeHandler := handlers.NewTranscribeHandler(service, mon, opts.MediaRoot, opts.DefaultModel)
	burnHandler := handlers.NewBurnHandler(mon, opts.MediaRoot)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler.Health)
		r.Get("/engines", enginesHandler.List)

		// Files
		r.Get("/files/tree", filesHandler.GetTree)
		r.Get("/files/tree/*", filesHandler.GetTree)
		r.Get("/files/search", filesHandler.Search)
		r.Get("/files/info/*", filesHandler.GetInfo)
		r.Get("/files/thumbnail/*", filesHandler.GetThumbnail)
		r.Get("/files/content/*", filesHandler.GetContent)

		// Subtitles
		r.Get("/subtitles", srtHandler.ListForVideo)
		r.Get("/srt", srtHandler.Get)

		// Mutating routes carry JSON bodies
		r.Group(func(r chi.Router) {
			r.Use(middleware.MaxBodySize(maxJSONBody))
			r.Post("/srt", srtHandler.Save)
			r.Post("/transcribe", transcribeHandler.Transcribe)
			r.Post("/burn", burnHandler.Burn)
		})
	})

	return r
}
