package router

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/text3d/hub/internal/handler"
	"github.com/text3d/hub/internal/middleware"
)

const Version = "0.3.0"

// Deps are the handlers the router mounts. Scene, Catalog and Embedding are
// required.
type Deps struct {
	Scene     *handler.SceneHandler
	Catalog   *handler.CatalogHandler
	Embedding *handler.EmbeddingHandler
	StaticDir string
	Logger    *zap.Logger
}

// New builds the HTTP router.
func New(deps Deps) http.Handler {
	healthH := handler.NewHealthHandler(Version)

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Trace)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.CORS)

	r.Get("/health", healthH.Health)
	r.Get("/version", healthH.Version)

	// Scene resolution
	r.Post("/scene", deps.Scene.Resolve)
	r.Get("/scene/stream", deps.Scene.Stream)
	r.Post("/scene/save", deps.Scene.Save)
	r.Get("/scene/{scene_id}", deps.Scene.Get)
	r.Get("/scenes", deps.Scene.List)
	r.Get("/prompts", deps.Scene.Prompts)

	// Catalog
	r.Get("/objects", deps.Catalog.ListObjects)
	r.Post("/objects", deps.Catalog.CreateObject)
	r.Get("/objects/{name}", deps.Catalog.GetObject)
	r.Get("/animations", deps.Catalog.ListAnimations)
	r.Post("/animations", deps.Catalog.CreateAnimation)

	// Embeddings
	r.Post("/embedding/add", deps.Embedding.Add)
	r.Get("/embedding/all", deps.Embedding.All)

	if dir := strings.TrimSpace(deps.StaticDir); dir != "" {
		fs := http.StripPrefix("/static/", http.FileServer(http.Dir(dir)))
		r.Get("/static/*", fs.ServeHTTP)
	}

	return r
}
